package comms

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/platform/httpx"
	"github.com/clientdesk/clientdesk/internal/shared"
)

// Handler wires communication HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers communication routes, mounted under
// /api/admin/communications.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(auth.PermManageCommunications))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/{commID}/send", h.send)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, "list communications", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"communications": list})
}

type createRequest struct {
	Type       string `json:"type"`
	Subject    string `json:"subject"`
	Content    string `json:"content"`
	Recipients string `json:"recipients"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	claims := auth.ClaimsFromContext(r.Context())
	createdBy := ""
	if claims != nil {
		createdBy = claims.Subject
	}
	comm, err := h.service.Create(r.Context(), CreateInput{
		Kind:      req.Type,
		Subject:   req.Subject,
		Content:   req.Content,
		Audience:  req.Recipients,
		CreatedBy: createdBy,
	})
	if err != nil {
		h.respondError(w, "create communication", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, comm)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	comm, err := h.service.Send(r.Context(), chi.URLParam(r, "commID"))
	if err != nil {
		h.respondError(w, "send communication", err)
		return
	}
	httpx.JSON(w, http.StatusOK, comm)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Warn(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
