package robots

import (
	"encoding/json"
	"net/http"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/fleetyard/incident-bay/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the robots module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new robots handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers routes available to all authenticated users.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/robots", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
	})
}

// RegisterMaintainerRoutes registers routes for roles allowed to change robot
// state directly.
func (h *Handler) RegisterMaintainerRoutes(r chi.Router) {
	r.Put("/robots/{id}/state", h.UpdateState)
}

// UpdateStateRequest represents the request body for a robot state change.
type UpdateStateRequest struct {
	State string `json:"state" validate:"required,oneof=operational out_of_service under_repair"`
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrRobotNotFound, Status: http.StatusNotFound},
	{Error: ErrInvalidState, Status: http.StatusBadRequest},
}

// List handles GET /robots.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	robots, err := h.service.List(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, robots)
}

// Get handles GET /robots/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	robot, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, robot)
}

// UpdateState handles PUT /robots/{id}/state.
func (h *Handler) UpdateState(w http.ResponseWriter, r *http.Request) {
	var req UpdateStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	robot, err := h.service.UpdateState(r.Context(), chi.URLParam(r, "id"), domain.RobotState(req.State))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, robot)
}
