package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserType string

const (
	UserTypeAdmin   UserType = "admin"
	UserTypeDoctor  UserType = "doctor"
	UserTypeStaff   UserType = "staff"
	UserTypePatient UserType = "patient"
)

func (t UserType) IsValid() bool {
	switch t {
	case UserTypeAdmin, UserTypeDoctor, UserTypeStaff, UserTypePatient:
		return true
	}
	return false
}

// Capability is a named permission granted to a user type. Authorization checks
// go through Can rather than ad-hoc predicates on the User entity, so the
// role-to-permission mapping lives in exactly one place.
type Capability string

const (
	CapManageUsers   Capability = "manage_users"
	CapViewDashboard Capability = "view_dashboard"
	CapManageClinic  Capability = "manage_clinic"
)

var capabilities = map[UserType][]Capability{
	UserTypeAdmin:  {CapManageUsers, CapViewDashboard, CapManageClinic},
	UserTypeDoctor: {CapViewDashboard, CapManageClinic},
	UserTypeStaff:  {CapViewDashboard, CapManageClinic},
}

func (t UserType) Can(c Capability) bool {
	for _, granted := range capabilities[t] {
		if granted == c {
			return true
		}
	}
	return false
}

type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

func (s Sex) IsValid() bool {
	return s == SexMale || s == SexFemale
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	Email         string     `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash  string     `gorm:"column:password_hash;type:varchar(255);not null"`
	FirstName     string     `gorm:"column:first_name;type:varchar(100);not null"`
	MiddleName    string     `gorm:"column:middle_name;type:varchar(100)"`
	LastName      string     `gorm:"column:last_name;type:varchar(100);not null"`
	ContactNumber string     `gorm:"column:contact_number;type:varchar(20)"`
	Sex           Sex        `gorm:"column:sex;type:varchar(1)"`
	DateOfBirth   *time.Time `gorm:"column:date_of_birth;type:date"`

	// Nulled out when the referenced address row is deleted.
	AddressID *uint `gorm:"column:address_id;index"`

	IsEmailVerified bool     `gorm:"column:is_email_verified;default:false"`
	UserType        UserType `gorm:"column:user_type;type:varchar(10);not null;default:'patient';index"`

	IsActive         bool       `gorm:"column:is_active;default:true;index"`
	FailedLoginCount int        `gorm:"column:failed_login_count;default:0"`
	LockedUntil      *time.Time `gorm:"column:locked_until"`
	LastLoginAt      *time.Time `gorm:"column:last_login_at"`
}

func (User) TableName() string {
	return "auth.users"
}

func (u *User) FullName() string {
	if u.MiddleName != "" {
		return u.FirstName + " " + u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}

// IsLocked returns true if the account is temporarily locked due to failed logins.
func (u *User) IsLocked() bool {
	return u.LockedUntil != nil && time.Now().Before(*u.LockedUntil)
}

type ActivityType string

const (
	ActivityUserInvited          ActivityType = "user_invited"
	ActivityUserRegistered       ActivityType = "user_registered"
	ActivityUserLogin            ActivityType = "user_login"
	ActivityAppointmentCreated   ActivityType = "appointment_created"
	ActivityAppointmentCancelled ActivityType = "appointment_cancelled"
)

// SystemActivity is the append-only activity feed shown on the admin dashboard.
// Rows are never updated or deleted.
type SystemActivity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	ActivityType ActivityType `gorm:"column:activity_type;type:varchar(30);not null;index"`
	Description  string       `gorm:"column:description;type:text;not null"`

	// Nulled out when the acting user is deleted; the feed entry survives.
	UserID *uuid.UUID `gorm:"column:user_id;type:uuid;index"`

	Metadata map[string]string `gorm:"column:metadata;serializer:json"`
}

func (SystemActivity) TableName() string {
	return "audit.system_activities"
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"` // Always "Bearer"
}

type Claims struct {
	UserID   uuid.UUID `json:"sub"`
	Email    string    `json:"email"`
	UserType UserType  `json:"user_type"`
}
