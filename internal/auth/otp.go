package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clientdesk/clientdesk/internal/shared"
)

const (
	otpKeyPrefix        = "pwdreset:otp:"
	otpAttemptsPrefix   = "pwdreset:attempts:"
	resetTokenKeyPrefix = "pwdreset:token:"
)

// OTPStore keeps password-reset one-time codes and reset tokens in Redis.
// Codes expire on their own; the attempt counter shares the code's TTL so a
// brute-force window closes with the code itself.
type OTPStore struct {
	client      *redis.Client
	ttl         time.Duration
	resetTTL    time.Duration
	maxAttempts int64
}

// NewOTPStore constructs an OTPStore.
func NewOTPStore(client *redis.Client, ttl, resetTTL time.Duration, maxAttempts int64) *OTPStore {
	if ttl == 0 {
		ttl = 10 * time.Minute
	}
	if resetTTL == 0 {
		resetTTL = 15 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &OTPStore{client: client, ttl: ttl, resetTTL: resetTTL, maxAttempts: maxAttempts}
}

// Generate creates a 6-digit code for the email, replacing any previous one.
func (s *OTPStore) Generate(ctx context.Context, email string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("auth: generate otp: %w", err)
	}
	code := fmt.Sprintf("%06d", n.Int64())

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, otpKeyPrefix+email, code, s.ttl)
	pipe.Set(ctx, otpAttemptsPrefix+email, 0, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("auth: store otp: %w", err)
	}
	return code, nil
}

// Verify checks a submitted code. On success the code is consumed and a
// single-use reset token is returned. Wrong codes count against the attempt
// limit; once exceeded the code is deleted outright.
func (s *OTPStore) Verify(ctx context.Context, email, code string) (string, error) {
	stored, err := s.client.Get(ctx, otpKeyPrefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", shared.Validation("Invalid or expired OTP")
		}
		return "", err
	}

	attempts, err := s.client.Incr(ctx, otpAttemptsPrefix+email).Result()
	if err != nil {
		return "", err
	}
	if attempts > s.maxAttempts {
		s.client.Del(ctx, otpKeyPrefix+email, otpAttemptsPrefix+email)
		return "", shared.Validation("Too many attempts, request a new OTP")
	}

	if code != stored {
		return "", shared.Validation("Invalid or expired OTP")
	}

	token := uuid.NewString()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, otpKeyPrefix+email, otpAttemptsPrefix+email)
	pipe.Set(ctx, resetTokenKeyPrefix+email, token, s.resetTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// ConsumeResetToken validates and deletes the reset token for the email.
func (s *OTPStore) ConsumeResetToken(ctx context.Context, email, token string) error {
	stored, err := s.client.Get(ctx, resetTokenKeyPrefix+email).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return shared.Validation("Invalid or expired reset token")
		}
		return err
	}
	if token == "" || token != stored {
		return shared.Validation("Invalid or expired reset token")
	}
	return s.client.Del(ctx, resetTokenKeyPrefix+email).Err()
}
