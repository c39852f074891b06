package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/address"
)

// Transactor runs fn inside one database transaction; repository calls made
// with the context passed to fn all join it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// OTPGate is the slice of the OTP store the signup workflow needs: proof of a
// past verification, and bulk consumption once the account exists.
type OTPGate interface {
	HasUsed(ctx context.Context, email string) (bool, error)
	InvalidateAll(ctx context.Context, email string) error
}

type CompleteSignupCommand struct {
	Email         string
	FirstName     string
	MiddleName    string
	LastName      string
	ContactNumber string
	Password      string
	Sex           domain.Sex
	DateOfBirth   string // YYYY-MM-DD

	Street           string
	Barangay         string
	CityMunicipality string
	Province         string
	ZipCode          string
}

type SignupService struct {
	tx        Transactor
	users     UserRepository
	addresses address.Repository
	otps      OTPGate
	activity  *ActivityRecorder
	log       *zap.Logger
}

func NewSignupService(
	tx Transactor,
	users UserRepository,
	addresses address.Repository,
	otps OTPGate,
	activity *ActivityRecorder,
	log *zap.Logger,
) *SignupService {
	return &SignupService{tx: tx, users: users, addresses: addresses, otps: otps, activity: activity, log: log}
}

// CompleteSignup creates a patient account after the OTP gate has been passed.
// The cheap rejections (validation, unverified email, duplicate email) run
// before the transaction opens; address upsert, user insert, and OTP
// consumption then commit or roll back as one unit.
func (s *SignupService) CompleteSignup(ctx context.Context, cmd *CompleteSignupCommand) (*domain.User, error) {
	if err := validateSignupCommand(cmd); err != nil {
		return nil, err
	}

	email := normalizeEmail(cmd.Email)

	verified, err := s.otps.HasUsed(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking verification state: %w", err)
	}
	if !verified {
		return nil, ErrEmailNotVerified
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("checking existing user: %w", err)
	}
	if exists {
		return nil, domain.ErrEmailTaken
	}

	dob, err := time.Parse("2006-01-02", cmd.DateOfBirth)
	if err != nil {
		return nil, &ValidationError{Fields: []string{"date_of_birth must be in YYYY-MM-DD format"}}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Email:           email,
		PasswordHash:    string(hash),
		FirstName:       strings.TrimSpace(cmd.FirstName),
		MiddleName:      strings.TrimSpace(cmd.MiddleName),
		LastName:        strings.TrimSpace(cmd.LastName),
		ContactNumber:   strings.TrimSpace(cmd.ContactNumber),
		Sex:             cmd.Sex,
		DateOfBirth:     &dob,
		IsEmailVerified: true,
		UserType:        domain.UserTypePatient,
		IsActive:        true,
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		addr, err := s.addresses.Upsert(ctx, &address.UpsertAddressCommand{
			Street:           strings.TrimSpace(cmd.Street),
			Barangay:         strings.TrimSpace(cmd.Barangay),
			CityMunicipality: strings.TrimSpace(cmd.CityMunicipality),
			Province:         strings.TrimSpace(cmd.Province),
			ZipCode:          strings.TrimSpace(cmd.ZipCode),
		})
		if err != nil {
			return err
		}

		user.AddressID = &addr.ID
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}

		// Every code ever issued for this email is spent now, used or not.
		return s.otps.InvalidateAll(ctx, email)
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		Type:        domain.ActivityUserRegistered,
		Description: fmt.Sprintf("%s registered as patient", user.FullName()),
		UserID:      &user.ID,
		Metadata:    map[string]string{"email": user.Email},
	})

	s.log.Info("patient account created",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
	)

	return user, nil
}

func validateSignupCommand(cmd *CompleteSignupCommand) error {
	var errs []string

	required := []struct {
		name  string
		value string
	}{
		{"email", cmd.Email},
		{"password", cmd.Password},
		{"first_name", cmd.FirstName},
		{"last_name", cmd.LastName},
		{"contact_number", cmd.ContactNumber},
		{"date_of_birth", cmd.DateOfBirth},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, f.name+" is required")
		}
	}

	if !cmd.Sex.IsValid() {
		errs = append(errs, "sex must be M or F")
	}

	if strings.TrimSpace(cmd.Street) == "" {
		errs = append(errs, "street is required")
	}
	if strings.TrimSpace(cmd.Barangay) == "" {
		errs = append(errs, "barangay is required")
	}
	if strings.TrimSpace(cmd.CityMunicipality) == "" {
		errs = append(errs, "city_municipality is required")
	}
	if strings.TrimSpace(cmd.Province) == "" {
		errs = append(errs, "province is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
