package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/clientdesk/clientdesk/internal/platform/httpx"
	"github.com/clientdesk/clientdesk/internal/shared"
)

// Handler wires HTTP endpoints for authentication and account maintenance.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	mw        Middleware
	validator *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, mw Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountAuthRoutes registers the public authentication routes, mounted at
// /api/auth.
func (h *Handler) MountAuthRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/register", h.handleRegister)
}

// MountAdminRoutes registers the account routes, mounted at /api/admin.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/register/first-admin", h.handleFirstAdmin)
	r.Post("/forgot-password", h.handleForgotPassword)
	r.Post("/verify-otp", h.handleVerifyOTP)
	r.Post("/reset-password", h.handleResetPassword)

	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.With(h.mw.RequirePermission(PermUserManagement)).Post("/register", h.handleRegister)
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)
		r.Put("/change-password", h.handleChangePassword)
		r.Post("/logout", h.handleLogout)
	})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("Email and password are required"))
		return
	}
	token, admin, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logFailure(r, "login", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token, User: admin.Public()})
}

type registerRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Role      string `json:"role"`
}

type registerResponse struct {
	Message string  `json:"message"`
	User    Profile `json:"user"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRegister(w, r)
	if !ok {
		return
	}
	admin, err := h.service.Register(r.Context(), in)
	if err != nil {
		h.logFailure(r, "register", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, registerResponse{Message: "Admin registered successfully", User: admin.Public()})
}

func (h *Handler) handleFirstAdmin(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeRegister(w, r)
	if !ok {
		return
	}
	admin, err := h.service.RegisterFirstAdmin(r.Context(), in)
	if err != nil {
		h.logFailure(r, "register first admin", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, registerResponse{Message: "Admin registered successfully", User: admin.Public()})
}

func (h *Handler) decodeRegister(w http.ResponseWriter, r *http.Request) (RegisterInput, bool) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return RegisterInput{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation(validationMessage(err)))
		return RegisterInput{}, false
	}
	return RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	}, true
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	admin, err := h.service.Profile(r.Context(), claims.Subject)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, admin.Public())
}

type updateProfileRequest struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	var req updateProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation(validationMessage(err)))
		return
	}
	admin, err := h.service.UpdateProfile(r.Context(), claims.Subject, req.FirstName, req.LastName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, admin.Public())
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := ClaimsFromContext(r.Context())
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("Current and new password are required"))
		return
	}
	if err := h.service.ChangePassword(r.Context(), claims.Subject, req.CurrentPassword, req.NewPassword); err != nil {
		h.logFailure(r, "change password", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Password updated successfully"})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens: logout is a client-side discard.
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("Email is required"))
		return
	}
	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.logFailure(r, "forgot password", err)
		httpx.RespondError(w, err)
		return
	}
	// Same answer whether or not the account exists.
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "If the email is registered, an OTP has been sent"})
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("Email and OTP are required"))
		return
	}
	resetToken, err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.logFailure(r, "verify otp", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"resetToken": resetToken})
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, shared.Validation("Invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, shared.Validation("Email, reset token and new password are required"))
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Email, req.ResetToken, req.NewPassword); err != nil {
		h.logFailure(r, "reset password", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (h *Handler) logFailure(r *http.Request, op string, err error) {
	if h.logger == nil {
		return
	}
	h.logger.Warn(op+" failed", slog.String("path", r.URL.Path), slog.Any("error", err))
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return "Missing or invalid fields: " + strings.Join(fields, ", ")
}
