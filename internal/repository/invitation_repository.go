package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bukcare/bukcare-api/internal/domain/invitation"
)

type InvitationRepository struct {
	*Store
}

func NewInvitationRepository(store *Store) *InvitationRepository {
	return &InvitationRepository{Store: store}
}

func (r *InvitationRepository) Create(ctx context.Context, inv *invitation.Invitation) error {
	if err := r.conn(ctx).Create(inv).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return invitation.ErrAlreadyInvited
		}
		return fmt.Errorf("inserting invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) GetPending(ctx context.Context, id uuid.UUID) (*invitation.Invitation, error) {
	var inv invitation.Invitation
	err := r.conn(ctx).
		Where("id = ? AND status = ?", id, invitation.StatusPending).
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invitation.ErrNotFound
		}
		return nil, fmt.Errorf("querying invitation: %w", err)
	}
	return &inv, nil
}

func (r *InvitationRepository) Update(ctx context.Context, inv *invitation.Invitation) error {
	if err := r.conn(ctx).Save(inv).Error; err != nil {
		return fmt.Errorf("updating invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) Delete(ctx context.Context, inv *invitation.Invitation) error {
	if err := r.conn(ctx).Delete(inv).Error; err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	return nil
}

func (r *InvitationRepository) ListPending(ctx context.Context) ([]*invitation.Invitation, error) {
	var invs []*invitation.Invitation
	err := r.conn(ctx).
		Where("status = ?", invitation.StatusPending).
		Order("created_at DESC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("listing pending invitations: %w", err)
	}
	return invs, nil
}

func (r *InvitationRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&invitation.Invitation{}).
		Where("status = ?", invitation.StatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting pending invitations: %w", err)
	}
	return count, nil
}
