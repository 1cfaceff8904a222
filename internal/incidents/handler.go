package incidents

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fleetyard/incident-bay/internal/domain"
	"github.com/fleetyard/incident-bay/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers routes available to all authenticated users.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Get("/{id}/history", h.History)
	})
}

// RegisterAdminRoutes registers routes that require the administrator role.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Delete("/incidents/{id}", h.Delete)
}

// CreateIncidentRequest represents the request body for recording an incident.
type CreateIncidentRequest struct {
	CompanyReportID   string    `json:"company_report_id" validate:"required,min=1,max=255"`
	RobotID           string    `json:"robot_id" validate:"required"`
	IncidentTimestamp time.Time `json:"incident_timestamp" validate:"required"`
	Location          string    `json:"location" validate:"required"`
	Type              string    `json:"type" validate:"required"`
	Cause             string    `json:"cause" validate:"required"`
	Gravity           *int      `json:"gravity"`
	TechnicianIDs     []string  `json:"technician_ids" validate:"required,min=1,dive,required"`
}

// UpdateIncidentRequest represents the request body for a lifecycle update.
// Omitted fields keep their prior values, except gravity, which is always
// taken literally (null clears it).
type UpdateIncidentRequest struct {
	Status             string    `json:"status" validate:"required,oneof=created under_investigation awaiting_part resolved signed"`
	Location           *string   `json:"location" validate:"omitempty,min=1"`
	Type               *string   `json:"type" validate:"omitempty,min=1"`
	Cause              *string   `json:"cause" validate:"omitempty,min=1"`
	TechnicianComment  *string   `json:"technician_comment"`
	Gravity            *int      `json:"gravity"`
	TechnicianIDs      *[]string `json:"technician_ids" validate:"omitempty,min=1,dive,required"`
	FallbackRobotState *string   `json:"fallback_robot_state" validate:"omitempty,oneof=operational out_of_service under_repair"`
}

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	{Error: ErrRobotNotFound, Status: http.StatusNotFound},
	{Error: ErrTechnicianNotFound, Status: http.StatusNotFound},
	{Error: ErrNoTechnicians, Status: http.StatusBadRequest},
	{Error: ErrInvalidGravity, Status: http.StatusBadRequest},
	{Error: ErrInvalidStatus, Status: http.StatusBadRequest},
	{Error: ErrTransitionDenied, Status: http.StatusForbidden},
	{Error: ErrIncidentReferenced, Status: http.StatusConflict},
}

// Create handles POST /incidents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	actor := actorFrom(r)
	incident, err := h.service.Create(r.Context(), CreateIncidentInput{
		CompanyReportID:   req.CompanyReportID,
		RobotID:           req.RobotID,
		IncidentTimestamp: req.IncidentTimestamp,
		Location:          req.Location,
		Type:              req.Type,
		Cause:             req.Cause,
		Gravity:           req.Gravity,
		TechnicianIDs:     req.TechnicianIDs,
	}, actor)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// Update handles PUT /incidents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	input := UpdateIncidentInput{
		Status:            domain.IncidentStatus(req.Status),
		Location:          req.Location,
		Type:              req.Type,
		Cause:             req.Cause,
		TechnicianComment: req.TechnicianComment,
		Gravity:           req.Gravity,
		TechnicianIDs:     req.TechnicianIDs,
	}
	if req.FallbackRobotState != nil {
		state := domain.RobotState(*req.FallbackRobotState)
		input.FallbackRobotState = &state
	}

	incident, err := h.service.Update(r.Context(), id, input, actorFrom(r))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	incident, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, incident)
}

// List handles GET /incidents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.service.List(r.Context())
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, incidents)
}

// History handles GET /incidents/{id}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, entries)
}

// Delete handles DELETE /incidents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}
	httputil.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func actorFrom(r *http.Request) domain.Actor {
	return domain.Actor{
		ID:   httputil.GetUserID(r.Context()),
		Role: httputil.GetRole(r.Context()),
	}
}
