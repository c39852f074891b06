package invitation

import (
	"time"

	"github.com/google/uuid"

	"github.com/bukcare/bukcare-api/internal/domain"
)

// Role is the account type an invitee will receive on acceptance. Patients
// self-register through the OTP flow and are never invited.
type Role string

const (
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

func (r Role) IsValid() bool {
	return r == RoleDoctor || r == RoleStaff
}

func (r Role) UserType() domain.UserType {
	if r == RoleDoctor {
		return domain.UserTypeDoctor
	}
	return domain.UserTypeStaff
}

type Status string

// Cancelled is deliberately distinct from Expired: an administrator revoking an
// invitation and the 7-day window lapsing are different events even though both
// make the token unusable.
const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusExpired   Status = "expired"
	StatusCancelled Status = "cancelled"
)

// Invitation is an admin-issued signup token. The row id doubles as the opaque
// token embedded in the emailed signup link.
type Invitation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	Email string `gorm:"column:email;type:varchar(255);not null;uniqueIndex:idx_invitations_email_role"`
	Role  Role   `gorm:"column:role;type:varchar(20);not null;uniqueIndex:idx_invitations_email_role"`

	Status Status `gorm:"column:status;type:varchar(20);not null;default:'pending';index"`

	InvitedByID uuid.UUID `gorm:"column:invited_by_id;type:uuid;not null"`

	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	AcceptedAt *time.Time `gorm:"column:accepted_at"`

	// Nulled out if the accepting account is later deleted.
	AcceptedByID *uuid.UUID `gorm:"column:accepted_by_id;type:uuid"`
}

func (Invitation) TableName() string {
	return "auth.user_invitations"
}

func (i *Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

type InviteCommand struct {
	Email     string
	Role      Role
	InvitedBy uuid.UUID
}

// AcceptCommand completes a doctor/staff account from a pending invitation.
type AcceptCommand struct {
	InvitationID  uuid.UUID
	FirstName     string
	MiddleName    string
	LastName      string
	ContactNumber string
	Password      string
}
