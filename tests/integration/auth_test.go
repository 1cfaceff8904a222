//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/fleetyard/incident-bay/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin_IssuesUsableToken(t *testing.T) {
	client := newTestClient(t)
	client.LoginAs(t, "tech1", fixturePassword)

	resp, err := client.GET("/api/v1/me")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &envelope)
	assert.Equal(t, "tech1", envelope.Data.Username)
	assert.Equal(t, "technician", envelope.Data.Role)
}

func TestLogin_BadPassword(t *testing.T) {
	client := newTestClient(t)

	resp, err := client.POST("/api/v1/auth/login", map[string]string{
		"username": "tech1",
		"password": "wrong",
	})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProtectedRoutes_RequireAuth(t *testing.T) {
	client := newTestClientWithoutValidation()

	paths := []string{
		"/api/v1/incidents",
		"/api/v1/robots",
		"/api/v1/users",
		"/api/v1/me",
	}
	for _, path := range paths {
		resp, err := client.GET(path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "path %s", path)
		_ = resp.Body.Close()
	}
}

func TestListUsers_RoleFilter(t *testing.T) {
	client := newTestClient(t)
	client.LoginAs(t, "supervisor", fixturePassword)

	resp, err := client.GET("/api/v1/users?role=technician")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []struct {
			Role string `json:"role"`
		} `json:"data"`
	}
	testutil.DecodeJSON(t, resp, &envelope)
	require.NotEmpty(t, envelope.Data)
	for _, u := range envelope.Data {
		assert.Equal(t, "technician", u.Role)
	}
}

func TestListUsers_InvalidRoleFilter(t *testing.T) {
	client := newTestClientWithoutValidation()
	client.LoginAs(t, "supervisor", fixturePassword)

	resp, err := client.GET("/api/v1/users?role=wizard")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
