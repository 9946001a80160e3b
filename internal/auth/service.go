package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/clientdesk/clientdesk/internal/shared"
)

// Mailer delivers transactional mail, typically through the job queue.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// ServiceConfig carries tunable policy values.
type ServiceConfig struct {
	// MinPasswordLength is the registration password policy. The original
	// deployment used 6; the default here is deliberately higher.
	MinPasswordLength int
}

// Service orchestrates login, registration and credential maintenance.
type Service struct {
	repo   Repository
	hasher Hasher
	issuer *TokenIssuer
	otps   *OTPStore
	mailer Mailer
	logger *slog.Logger
	cfg    ServiceConfig
}

// NewService constructs a Service.
func NewService(repo Repository, hasher Hasher, issuer *TokenIssuer, otps *OTPStore, mailer Mailer, logger *slog.Logger, cfg ServiceConfig) *Service {
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 10
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, hasher: hasher, issuer: issuer, otps: otps, mailer: mailer, logger: logger, cfg: cfg}
}

// NormalizeEmail lowercases and trims an email address. Lookup and storage
// both go through this, which is what makes the email key case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *Admin, error) {
	if email == "" || password == "" {
		return "", nil, shared.Validation("Email and password are required")
	}
	admin, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", nil, shared.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !s.hasher.Verify(password, admin.PasswordHash) {
		return "", nil, shared.ErrInvalidCredentials
	}
	token, err := s.issuer.Issue(admin)
	if err != nil {
		return "", nil, err
	}
	return token, admin, nil
}

// RegisterInput holds registration fields.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
}

// Register validates input, hashes the password and persists a new admin.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Admin, error) {
	if in.Email == "" || in.Password == "" {
		return nil, shared.Validation("Email and password are required")
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, shared.Validation("First name and last name are required")
	}
	if len(in.Password) < s.cfg.MinPasswordLength {
		return nil, shared.Validation(fmt.Sprintf("Password must be at least %d characters", s.cfg.MinPasswordLength))
	}
	role, err := ParseRole(in.Role)
	if err != nil {
		return nil, shared.Validation(err.Error())
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}
	admin := &Admin{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(in.Email),
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Role:         role,
		Permissions:  []string{},
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// RegisterFirstAdmin bootstraps the installation. It only succeeds while
// the store is empty and always creates a super_admin.
func (s *Service) RegisterFirstAdmin(ctx context.Context, in RegisterInput) (*Admin, error) {
	count, err := s.repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, shared.ErrForbidden
	}
	in.Role = string(RoleSuperAdmin)
	return s.Register(ctx, in)
}

// Profile fetches the admin record for the authenticated identity.
func (s *Service) Profile(ctx context.Context, id string) (*Admin, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile updates display attributes.
func (s *Service) UpdateProfile(ctx context.Context, id, firstName, lastName string) (*Admin, error) {
	if firstName == "" || lastName == "" {
		return nil, shared.Validation("First name and last name are required")
	}
	return s.repo.UpdateProfile(ctx, id, strings.TrimSpace(firstName), strings.TrimSpace(lastName))
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return shared.Validation("Current and new password are required")
	}
	if len(newPassword) < s.cfg.MinPasswordLength {
		return shared.Validation(fmt.Sprintf("Password must be at least %d characters", s.cfg.MinPasswordLength))
	}
	admin, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(currentPassword, admin.PasswordHash) {
		return shared.ErrInvalidCredentials
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, id, hash)
}

// ForgotPassword starts the OTP reset flow. It reports success regardless
// of whether the email exists, so the endpoint cannot enumerate accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return shared.Validation("Email is required")
	}
	normalized := NormalizeEmail(email)
	admin, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	code, err := s.otps.Generate(ctx, normalized)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Your password reset code is %s. It expires in 10 minutes.", code)
	if err := s.mailer.SendEmail(ctx, admin.Email, "Password reset code", body); err != nil {
		s.logger.Error("enqueue otp email", slog.Any("error", err))
		return err
	}
	return nil
}

// VerifyOTP exchanges a valid code for a single-use reset token.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	if email == "" || code == "" {
		return "", shared.Validation("Email and OTP are required")
	}
	return s.otps.Verify(ctx, NormalizeEmail(email), code)
}

// ResetPassword consumes a reset token and replaces the password.
func (s *Service) ResetPassword(ctx context.Context, email, resetToken, newPassword string) error {
	if email == "" || resetToken == "" || newPassword == "" {
		return shared.Validation("Email, reset token and new password are required")
	}
	if len(newPassword) < s.cfg.MinPasswordLength {
		return shared.Validation(fmt.Sprintf("Password must be at least %d characters", s.cfg.MinPasswordLength))
	}
	normalized := NormalizeEmail(email)
	if err := s.otps.ConsumeResetToken(ctx, normalized, resetToken); err != nil {
		return err
	}
	admin, err := s.repo.FindByEmail(ctx, normalized)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, admin.ID, hash)
}
