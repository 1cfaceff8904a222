// Package identity provides authentication and user lookup.
package identity

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fleetyard/incident-bay/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

var (
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for malformed, forged or expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTooManyAttempts is returned when login attempts exceed the rate limit.
	ErrTooManyAttempts = errors.New("too many login attempts")
	// ErrInvalidRole is returned when a role filter value is not recognized.
	ErrInvalidRole = errors.New("invalid role")
)

// loginLimiter rate-limits login attempts per username to slow down
// credential guessing.
type loginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLoginLimiter(limit rate.Limit, burst int) *loginLimiter {
	return &loginLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *loginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = limiter
	}
	return limiter.Allow()
}

// reset clears the counter for a key after a successful login, so the limit
// only ever throttles streaks of failures.
func (l *loginLimiter) reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.limiters, key)
}

// Service provides authentication and user lookup business logic.
type Service struct {
	repo    Repository
	jwt     *JWTManager
	limiter *loginLimiter
}

// NewService creates a new identity service.
func NewService(repo Repository, jwt *JWTManager) *Service {
	return &Service{
		repo: repo,
		jwt:  jwt,
		// 1 attempt per 2 seconds sustained, bursts of 5.
		limiter: newLoginLimiter(rate.Every(2*time.Second), 5),
	}
}

// LoginInput holds login credentials.
type LoginInput struct {
	Username string
	Password string
}

// Login verifies credentials and issues a signed access token.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, string, error) {
	if !s.limiter.allow(input.Username) {
		return nil, "", ErrTooManyAttempts
	}

	user, err := s.repo.GetUserByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}
	s.limiter.reset(input.Username)

	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}
	return user, token, nil
}

// ValidateToken implements httputil.TokenValidator.
func (s *Service) ValidateToken(ctx context.Context, token string) (string, domain.Role, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return "", "", err
	}

	role := domain.Role(claims.Role)
	if !role.IsValid() {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, role, nil
}

// GetUserByID retrieves a user by id.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ListUsers retrieves users, optionally filtered by role.
func (s *Service) ListUsers(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	if filter.Role != nil && !filter.Role.IsValid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, *filter.Role)
	}
	return s.repo.ListUsers(ctx, filter)
}
