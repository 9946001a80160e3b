package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clientdesk/clientdesk/internal/auth"
	"github.com/clientdesk/clientdesk/internal/platform/httpx"
)

// Handler wires dashboard HTTP endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      auth.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers dashboard routes, mounted under
// /api/admin/dashboard. All of them require view_reports.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequirePermission(auth.PermViewReports))
		r.Get("/overview", h.overview)
		r.Get("/financial-reports", h.financialReports)
		r.Get("/referral-analytics", h.referralAnalytics)
		r.Get("/system-health", h.systemHealth)
	})
}

func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Overview(r.Context())
	if err != nil {
		h.respondError(w, "dashboard overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) financialReports(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.FinancialReport(r.Context())
	if err != nil {
		h.respondError(w, "financial reports", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) referralAnalytics(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ReferralAnalytics(r.Context())
	if err != nil {
		h.respondError(w, "referral analytics", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) systemHealth(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.service.SystemHealth(r.Context()))
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
