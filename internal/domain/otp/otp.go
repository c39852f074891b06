package otp

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Verification is one emailed one-time passcode. Many rows may exist per email
// over time; issuing a new code marks every older unused row used, so at most
// one row per email is live at any moment. Expiry is checked lazily at
// verification time, never swept in the background.
type Verification struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`

	Email string `gorm:"column:email;type:varchar(255);not null;index"`
	Code  string `gorm:"column:otp_code;type:varchar(10);not null"`

	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	Used      bool      `gorm:"column:is_used;default:false;index"`
}

func (Verification) TableName() string {
	return "auth.otp_verifications"
}

func (v *Verification) IsExpired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}

const codeDigits = "0123456789"

// GenerateCode produces a plain pseudo-random digit string. The code space for
// the default length of 6 is only 10^6; callers gate it with a short expiry.
func GenerateCode(length int) string {
	buf := make([]byte, length)
	for i := range buf {
		buf[i] = codeDigits[rand.Intn(len(codeDigits))]
	}
	return string(buf)
}
