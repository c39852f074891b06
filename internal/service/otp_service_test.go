package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bukcare/bukcare-api/internal/config"
	"github.com/bukcare/bukcare-api/internal/domain"
	"github.com/bukcare/bukcare-api/internal/domain/otp"
)

func newTestOTPService(otps *fakeOTPRepo, users *fakeUserRepo, m *fakeMailer) *OTPService {
	cfg := config.OTPConfig{TTL: 10 * time.Minute, CodeLength: 6}
	return NewOTPService(otps, users, m, cfg, zap.NewNop())
}

func TestOTPIssueSupersedesPreviousCodes(t *testing.T) {
	otps := &fakeOTPRepo{}
	users := newFakeUserRepo()
	m := &fakeMailer{}
	svc := newTestOTPService(otps, users, m)

	require.NoError(t, svc.Issue(context.Background(), "juan@example.com"))
	require.NoError(t, svc.Issue(context.Background(), "juan@example.com"))

	live := otps.unused("juan@example.com")
	require.Len(t, live, 1, "only the latest code should stay live")
	assert.Len(t, live[0].Code, 6)
	assert.Equal(t, 2, m.sentCount())
	assert.Contains(t, m.lastMessage().Body, live[0].Code)
	assert.Equal(t, "Your OTP Code - BukCare", m.lastMessage().Subject)
}

func TestOTPIssueDoesNotTouchOtherEmails(t *testing.T) {
	otps := &fakeOTPRepo{}
	svc := newTestOTPService(otps, newFakeUserRepo(), &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "a@example.com"))
	require.NoError(t, svc.Issue(context.Background(), "b@example.com"))

	assert.Len(t, otps.unused("a@example.com"), 1)
	assert.Len(t, otps.unused("b@example.com"), 1)
}

func TestOTPIssueRejectsRegisteredEmail(t *testing.T) {
	otps := &fakeOTPRepo{}
	users := newFakeUserRepo()
	users.add(&domain.User{Email: "taken@example.com"})
	m := &fakeMailer{}
	svc := newTestOTPService(otps, users, m)

	err := svc.Issue(context.Background(), "taken@example.com")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Empty(t, otps.rows)
	assert.Zero(t, m.sentCount())
}

func TestOTPIssueDeletesRowOnDeliveryFailure(t *testing.T) {
	otps := &fakeOTPRepo{}
	m := &fakeMailer{err: errors.New("smtp: connection refused")}
	svc := newTestOTPService(otps, newFakeUserRepo(), m)

	err := svc.Issue(context.Background(), "juan@example.com")
	require.ErrorIs(t, err, ErrDeliveryFailure)
	assert.Empty(t, otps.rows, "undelivered code must not stay redeemable")
}

func TestOTPVerifyConsumesCode(t *testing.T) {
	otps := &fakeOTPRepo{}
	svc := newTestOTPService(otps, newFakeUserRepo(), &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "juan@example.com"))
	code := otps.unused("juan@example.com")[0].Code

	require.NoError(t, svc.Verify(context.Background(), "juan@example.com", code))

	// A used code cannot be redeemed again.
	err := svc.Verify(context.Background(), "juan@example.com", code)
	require.ErrorIs(t, err, otp.ErrNotFound)
}

func TestOTPVerifyWrongCode(t *testing.T) {
	otps := &fakeOTPRepo{}
	svc := newTestOTPService(otps, newFakeUserRepo(), &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "juan@example.com"))

	err := svc.Verify(context.Background(), "juan@example.com", "000000")
	require.ErrorIs(t, err, otp.ErrNotFound)

	// The live code survives a failed guess.
	assert.Len(t, otps.unused("juan@example.com"), 1)
}

func TestOTPEmailCaseFolded(t *testing.T) {
	otps := &fakeOTPRepo{}
	svc := newTestOTPService(otps, newFakeUserRepo(), &fakeMailer{})

	require.NoError(t, svc.Issue(context.Background(), "Juan.DelaCruz@Example.com"))

	// The row is keyed by the canonical form, not the casing the client typed.
	live := otps.unused("juan.delacruz@example.com")
	require.Len(t, live, 1)

	// Any casing verifies against it.
	require.NoError(t, svc.Verify(context.Background(), "JUAN.DELACRUZ@EXAMPLE.COM", live[0].Code))
}

func TestOTPIssueConflictIgnoresCase(t *testing.T) {
	users := newFakeUserRepo()
	users.add(&domain.User{Email: "taken@example.com"})
	svc := newTestOTPService(&fakeOTPRepo{}, users, &fakeMailer{})

	err := svc.Issue(context.Background(), "Taken@Example.com")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestOTPVerifyExpiredCode(t *testing.T) {
	otps := &fakeOTPRepo{}
	svc := newTestOTPService(otps, newFakeUserRepo(), &fakeMailer{})

	require.NoError(t, otps.Create(context.Background(), &otp.Verification{
		Email:     "juan@example.com",
		Code:      "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err := svc.Verify(context.Background(), "juan@example.com", "123456")
	require.ErrorIs(t, err, otp.ErrExpired)

	// The row stays unused, so retrying keeps reporting expiry rather than
	// flipping to not-found.
	err = svc.Verify(context.Background(), "juan@example.com", "123456")
	require.ErrorIs(t, err, otp.ErrExpired)
}
