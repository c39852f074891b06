package repository

import (
	"context"
	"fmt"

	"github.com/bukcare/bukcare-api/internal/domain"
)

type ActivityRepository struct {
	*Store
}

func NewActivityRepository(store *Store) *ActivityRepository {
	return &ActivityRepository{Store: store}
}

func (r *ActivityRepository) Create(ctx context.Context, a *domain.SystemActivity) error {
	if err := r.conn(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*domain.SystemActivity, error) {
	var activities []*domain.SystemActivity
	err := r.conn(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("listing activities: %w", err)
	}
	return activities, nil
}
