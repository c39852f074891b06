package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/otp"
	"github.com/bukcare/bukcare-api/pkg/mailer"
)

type OTPService struct {
	otps   otp.Repository
	users  UserRepository
	mailer mailer.Mailer
	cfg    config.OTPConfig
	log    *zap.Logger
}

func NewOTPService(otps otp.Repository, users UserRepository, m mailer.Mailer, cfg config.OTPConfig, log *zap.Logger) *OTPService {
	return &OTPService{otps: otps, users: users, mailer: m, cfg: cfg, log: log}
}

// Issue creates and emails a fresh code for the address. Every unused code
// previously issued for it is invalidated first, so at most one code is live
// per email. If the email cannot be delivered the fresh row is deleted again;
// delivery is at-most-once, not guaranteed.
func (s *OTPService) Issue(ctx context.Context, email string) error {
	email = normalizeEmail(email)

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("checking existing user: %w", err)
	}
	if exists {
		return domain.ErrEmailTaken
	}

	if err := s.otps.InvalidateUnused(ctx, email); err != nil {
		return fmt.Errorf("invalidating previous codes: %w", err)
	}

	v := &otp.Verification{
		Email:     email,
		Code:      otp.GenerateCode(s.cfg.CodeLength),
		ExpiresAt: time.Now().Add(s.cfg.TTL),
	}
	if err := s.otps.Create(ctx, v); err != nil {
		return fmt.Errorf("persisting code: %w", err)
	}

	msg := mailer.Message{
		To:      email,
		Subject: "Your OTP Code - BukCare",
		Body: fmt.Sprintf("Your OTP code is %s. It will expire in %d minutes.",
			v.Code, int(s.cfg.TTL.Minutes())),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		s.log.Error("failed to deliver OTP email", zap.String("email", email), zap.Error(err))
		if delErr := s.otps.Delete(ctx, v); delErr != nil {
			s.log.Error("failed to delete undelivered OTP", zap.Error(delErr))
		}
		return fmt.Errorf("%w: %s", ErrDeliveryFailure, "OTP email")
	}

	s.log.Info("OTP issued", zap.String("email", email))
	return nil
}

// Verify consumes the most recent live code for (email, code). An expired row
// is left unused: retrying the same code keeps failing with ErrExpired and can
// never succeed.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	email = normalizeEmail(email)

	v, err := s.otps.LatestUnused(ctx, email, code)
	if err != nil {
		return err
	}

	if v.IsExpired(time.Now()) {
		return otp.ErrExpired
	}

	if err := s.otps.MarkUsed(ctx, v); err != nil {
		return fmt.Errorf("marking code used: %w", err)
	}

	s.log.Info("OTP verified", zap.String("email", email))
	return nil
}
