package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/invitation"
	"github.com/bukcare/bukcare-api/pkg/mailer"
)

type InvitationService struct {
	tx          Transactor
	invitations invitation.Repository
	users       UserRepository
	mailer      mailer.Mailer
	frontend    config.FrontendConfig
	cfg         config.InvitationConfig
	activity    *ActivityRecorder
	log         *zap.Logger
}

func NewInvitationService(
	tx Transactor,
	invitations invitation.Repository,
	users UserRepository,
	m mailer.Mailer,
	frontend config.FrontendConfig,
	cfg config.InvitationConfig,
	activity *ActivityRecorder,
	log *zap.Logger,
) *InvitationService {
	return &InvitationService{
		tx:          tx,
		invitations: invitations,
		users:       users,
		mailer:      m,
		frontend:    frontend,
		cfg:         cfg,
		activity:    activity,
		log:         log,
	}
}

// Invite creates a pending invitation and emails its signup link. The insert
// and the send are not atomic: when delivery fails the row is deleted again,
// and a crash between the two can leave an orphaned pending invitation. This
// is an accepted at-most-once trade-off, not exactly-once.
func (s *InvitationService) Invite(ctx context.Context, cmd *invitation.InviteCommand) (*invitation.Invitation, error) {
	email := normalizeEmail(cmd.Email)
	if email == "" {
		return nil, &ValidationError{Fields: []string{"email is required"}}
	}
	if !cmd.Role.IsValid() {
		return nil, invitation.ErrInvalidRole
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	inv := &invitation.Invitation{
		Email:       email,
		Role:        cmd.Role,
		Status:      invitation.StatusPending,
		InvitedByID: cmd.InvitedBy,
		ExpiresAt:   time.Now().Add(s.cfg.TTL),
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, s.invitationMessage(inv)); err != nil {
		s.log.Error("failed to deliver invitation email",
			zap.String("email", email),
			zap.Error(err),
		)
		if delErr := s.invitations.Delete(ctx, inv); delErr != nil {
			s.log.Error("failed to delete undelivered invitation", zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: %s", ErrDeliveryFailure, "invitation email")
	}

	s.activity.Record(ctx, ActivityEntry{
		Type:        domain.ActivityUserInvited,
		Description: fmt.Sprintf("Invited %s as %s", email, cmd.Role),
		UserID:      &cmd.InvitedBy,
		Metadata:    map[string]string{"email": email, "role": string(cmd.Role)},
	})

	s.log.Info("invitation sent",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("email", email),
		zap.String("role", string(cmd.Role)),
	)

	return inv, nil
}

// Resend extends a pending invitation's window and re-sends its email. Unknown
// ids and non-pending invitations both come back as ErrNotFound; callers do
// not learn which.
func (s *InvitationService) Resend(ctx context.Context, id uuid.UUID) (*invitation.Invitation, error) {
	inv, err := s.invitations.GetPending(ctx, id)
	if err != nil {
		return nil, err
	}

	inv.ExpiresAt = time.Now().Add(s.cfg.TTL)
	if err := s.invitations.Update(ctx, inv); err != nil {
		return nil, err
	}

	if err := s.mailer.Send(ctx, s.invitationMessage(inv)); err != nil {
		s.log.Error("failed to re-deliver invitation email",
			zap.String("invitation_id", id.String()),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s", ErrDeliveryFailure, "invitation email")
	}

	s.log.Info("invitation resent", zap.String("invitation_id", id.String()))
	return inv, nil
}

// Cancel revokes a pending invitation. The status becomes cancelled, not
// expired; the two are distinct lifecycle ends.
func (s *InvitationService) Cancel(ctx context.Context, id uuid.UUID) error {
	inv, err := s.invitations.GetPending(ctx, id)
	if err != nil {
		return err
	}

	inv.Status = invitation.StatusCancelled
	if err := s.invitations.Update(ctx, inv); err != nil {
		return err
	}

	s.log.Info("invitation cancelled", zap.String("invitation_id", id.String()))
	return nil
}

// Accept turns a pending, unexpired invitation into a doctor/staff account.
// The invitation flips to accepted in the same transaction that creates the
// user, so the token cannot be redeemed twice.
func (s *InvitationService) Accept(ctx context.Context, cmd *invitation.AcceptCommand) (*domain.User, error) {
	if err := validateAcceptCommand(cmd); err != nil {
		return nil, err
	}

	inv, err := s.invitations.GetPending(ctx, cmd.InvitationID)
	if err != nil {
		return nil, err
	}

	if inv.IsExpired(time.Now()) {
		inv.Status = invitation.StatusExpired
		if err := s.invitations.Update(ctx, inv); err != nil {
			s.log.Error("failed to mark invitation expired", zap.Error(err))
		}
		return nil, invitation.ErrExpired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Email:           inv.Email,
		PasswordHash:    string(hash),
		FirstName:       strings.TrimSpace(cmd.FirstName),
		MiddleName:      strings.TrimSpace(cmd.MiddleName),
		LastName:        strings.TrimSpace(cmd.LastName),
		ContactNumber:   strings.TrimSpace(cmd.ContactNumber),
		IsEmailVerified: true,
		UserType:        inv.Role.UserType(),
		IsActive:        true,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}

		now := time.Now()
		inv.Status = invitation.StatusAccepted
		inv.AcceptedAt = &now
		inv.AcceptedByID = &user.ID
		return s.invitations.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	// Welcome mail is best-effort; the account exists either way.
	welcome := mailer.Message{
		To:      user.Email,
		Subject: "Welcome to BukCare!",
		Body: fmt.Sprintf("Hi %s,\n\nYour BukCare %s account is ready. Sign in at %s/login/ to get started.\n",
			user.FirstName, inv.Role, s.frontend.BaseURL),
	}
	if err := s.mailer.Send(ctx, welcome); err != nil {
		s.log.Warn("failed to deliver welcome email", zap.String("email", user.Email), zap.Error(err))
	}

	s.activity.Record(ctx, ActivityEntry{
		Type:        domain.ActivityUserRegistered,
		Description: fmt.Sprintf("%s registered as %s via invitation", user.FullName(), inv.Role),
		UserID:      &user.ID,
		Metadata:    map[string]string{"email": user.Email, "role": string(inv.Role)},
	})

	s.log.Info("invitation accepted",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("user_id", user.ID.String()),
	)

	return user, nil
}

func (s *InvitationService) ListPending(ctx context.Context) ([]*invitation.Invitation, error) {
	return s.invitations.ListPending(ctx)
}

func (s *InvitationService) invitationMessage(inv *invitation.Invitation) mailer.Message {
	link := fmt.Sprintf("%s/invitation/%s/", s.frontend.BaseURL, inv.ID)
	role := string(inv.Role)
	if role != "" {
		role = strings.ToUpper(role[:1]) + role[1:]
	}
	return mailer.Message{
		To:      inv.Email,
		Subject: fmt.Sprintf("You're invited to join BukCare as a %s", role),
		Body: fmt.Sprintf("You have been invited to join BukCare as a %s.\n\n"+
			"Complete your registration here: %s\n\nThis invitation expires on %s.\n",
			inv.Role, link, inv.ExpiresAt.Format("January 2, 2006")),
	}
}

func validateAcceptCommand(cmd *invitation.AcceptCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	if strings.TrimSpace(cmd.ContactNumber) == "" {
		errs = append(errs, "contact_number is required")
	}
	if cmd.Password == "" {
		errs = append(errs, "password is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
