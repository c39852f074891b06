package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/bukcare/bukcare-api/internal/domain/otp"
)

type OTPRepository struct {
	*Store
}

func NewOTPRepository(store *Store) *OTPRepository {
	return &OTPRepository{Store: store}
}

func (r *OTPRepository) Create(ctx context.Context, v *otp.Verification) error {
	if err := r.conn(ctx).Create(v).Error; err != nil {
		return fmt.Errorf("inserting OTP: %w", err)
	}
	return nil
}

func (r *OTPRepository) LatestUnused(ctx context.Context, email, code string) (*otp.Verification, error) {
	var v otp.Verification
	err := r.conn(ctx).
		Where("email = ? AND otp_code = ? AND is_used = false", email, code).
		Order("created_at DESC").
		First(&v).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, otp.ErrNotFound
		}
		return nil, fmt.Errorf("querying OTP: %w", err)
	}
	return &v, nil
}

func (r *OTPRepository) MarkUsed(ctx context.Context, v *otp.Verification) error {
	if err := r.conn(ctx).Model(v).Update("is_used", true).Error; err != nil {
		return fmt.Errorf("marking OTP used: %w", err)
	}
	v.Used = true
	return nil
}

func (r *OTPRepository) InvalidateUnused(ctx context.Context, email string) error {
	err := r.conn(ctx).Model(&otp.Verification{}).
		Where("email = ? AND is_used = false", email).
		Update("is_used", true).Error
	if err != nil {
		return fmt.Errorf("invalidating unused OTPs: %w", err)
	}
	return nil
}

func (r *OTPRepository) InvalidateAll(ctx context.Context, email string) error {
	err := r.conn(ctx).Model(&otp.Verification{}).
		Where("email = ?", email).
		Update("is_used", true).Error
	if err != nil {
		return fmt.Errorf("invalidating OTPs: %w", err)
	}
	return nil
}

func (r *OTPRepository) HasUsed(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.conn(ctx).Model(&otp.Verification{}).
		Where("email = ? AND is_used = true", email).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("counting used OTPs: %w", err)
	}
	return count > 0, nil
}

func (r *OTPRepository) Delete(ctx context.Context, v *otp.Verification) error {
	if err := r.conn(ctx).Delete(v).Error; err != nil {
		return fmt.Errorf("deleting OTP: %w", err)
	}
	return nil
}
