package clients

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/platform/httpx"
	"github.com/clientdesk/clientdesk/internal/shared"
)

// Handler wires client management HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers client routes, mounted under /api/admin/clients.
// Reads need view_reports; writes need approve_clients.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(auth.PermViewReports))
		r.Get("/", h.list)
		r.Get("/{clientID}", h.get)
		r.Get("/{clientID}/documents", h.documents)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(auth.PermApproveClients))
		r.Put("/{clientID}", h.update)
		r.Put("/{clientID}/status", h.updateStatus)
		r.Delete("/{clientID}", h.delete)
	})
}

type listResponse struct {
	Clients    []Client          `json:"clients"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	list, pagination, err := h.service.List(r.Context(), q.Get("status"), q.Get("search"), page, perPage)
	if err != nil {
		h.respondError(w, r, "list clients", err)
		return
	}
	httpx.JSON(w, http.StatusOK, listResponse{Clients: list, Pagination: pagination})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.Get(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		h.respondError(w, r, "get client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

type updateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	client, err := h.service.Update(r.Context(), chi.URLParam(r, "clientID"), UpdateInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.respondError(w, r, "update client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	client, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "clientID"), req.Status)
	if err != nil {
		h.respondError(w, r, "update client status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, client)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "clientID")); err != nil {
		h.respondError(w, r, "delete client", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Client deleted"})
}

func (h *Handler) documents(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.Documents(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		h.respondError(w, r, "list documents", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if h.logger != nil {
		h.logger.Warn(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
