package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bukcare/bukcare-api/internal/domain"
)

const maxFailedLogins = 5

const loginLockDuration = 15 * time.Minute

type UserRepository struct {
	*Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{Store: store}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	if err := r.conn(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	if err := r.conn(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by email: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := r.conn(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("querying user by id: %w", err)
	}
	return &u, nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.conn(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("counting users by email: %w", err)
	}
	return count > 0, nil
}

// UpdateLoginAttempt records the outcome of a login. A success clears the
// failure counter and stamps last_login_at; a failure increments it and locks
// the account once the threshold is hit.
func (r *UserRepository) UpdateLoginAttempt(ctx context.Context, id uuid.UUID, success bool) error {
	db := r.conn(ctx)

	if success {
		return db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
			"failed_login_count": 0,
			"locked_until":       nil,
			"last_login_at":      time.Now(),
		}).Error
	}

	return db.Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"failed_login_count": gorm.Expr("failed_login_count + 1"),
		"locked_until": gorm.Expr(
			"CASE WHEN failed_login_count + 1 >= ? THEN ? ELSE locked_until END",
			maxFailedLogins, time.Now().Add(loginLockDuration),
		),
	}).Error
}

func (r *UserRepository) CountByType(ctx context.Context, t domain.UserType) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.User{}).Where("user_type = ?", t).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting users by type: %w", err)
	}
	return count, nil
}

// CountActiveSince approximates "active sessions" as accounts seen since the
// cutoff; there is no server-side session store to count.
func (r *UserRepository) CountActiveSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.conn(ctx).Model(&domain.User{}).Where("last_login_at >= ?", since).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting recently active users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) Search(ctx context.Context, query string, limit int) ([]*domain.User, error) {
	var users []*domain.User
	pattern := "%" + query + "%"
	err := r.conn(ctx).
		Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern).
		Order("last_name, first_name").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("searching users: %w", err)
	}
	return users, nil
}
