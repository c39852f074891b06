package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/invitation"
)

type DashboardStats struct {
	TotalPatients      int64 `json:"total_patients"`
	TotalDoctors       int64 `json:"total_doctors"`
	TotalStaff         int64 `json:"total_staff"`
	TotalAppointments  int64 `json:"total_appointments"`
	PendingApprovals   int64 `json:"pending_approvals"`
	ActiveSessions     int64 `json:"active_sessions"`
	PendingInvitations int64 `json:"pending_invites"`
}

const (
	defaultActivityLimit = 20
	maxSearchResults     = 10
)

type DashboardService struct {
	users       UserRepository
	invitations invitation.Repository
	activities  ActivityRepository
	// Window used to approximate "active sessions" from last-login stamps;
	// wired to the access token TTL.
	sessionWindow time.Duration
	log           *zap.Logger
}

func NewDashboardService(
	users UserRepository,
	invitations invitation.Repository,
	activities ActivityRepository,
	sessionWindow time.Duration,
	log *zap.Logger,
) *DashboardService {
	return &DashboardService{
		users:         users,
		invitations:   invitations,
		activities:    activities,
		sessionWindow: sessionWindow,
		log:           log,
	}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}

	var err error
	if stats.TotalPatients, err = s.users.CountByType(ctx, domain.UserTypePatient); err != nil {
		return nil, fmt.Errorf("counting patients: %w", err)
	}
	if stats.TotalDoctors, err = s.users.CountByType(ctx, domain.UserTypeDoctor); err != nil {
		return nil, fmt.Errorf("counting doctors: %w", err)
	}
	if stats.TotalStaff, err = s.users.CountByType(ctx, domain.UserTypeStaff); err != nil {
		return nil, fmt.Errorf("counting staff: %w", err)
	}

	if stats.PendingInvitations, err = s.invitations.CountPending(ctx); err != nil {
		return nil, fmt.Errorf("counting pending invitations: %w", err)
	}
	stats.PendingApprovals = stats.PendingInvitations

	if stats.ActiveSessions, err = s.users.CountActiveSince(ctx, time.Now().Add(-s.sessionWindow)); err != nil {
		return nil, fmt.Errorf("counting active sessions: %w", err)
	}

	// Appointment scheduling is not part of this service yet.
	stats.TotalAppointments = 0

	return stats, nil
}

func (s *DashboardService) RecentActivities(ctx context.Context, limit int) ([]*domain.SystemActivity, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultActivityLimit
	}
	return s.activities.ListRecent(ctx, limit)
}

// SearchUsers matches the query against first name, last name, and email.
// A blank query returns no results rather than the whole table.
func (s *DashboardService) SearchUsers(ctx context.Context, query string) ([]*domain.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.User{}, nil
	}
	return s.users.Search(ctx, query, maxSearchResults)
}
