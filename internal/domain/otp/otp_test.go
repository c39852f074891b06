package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	for _, length := range []int{4, 6, 10} {
		code := GenerateCode(length)
		require.Len(t, code, length)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "code %q contains non-digit %q", code, r)
		}
	}
}

func TestVerificationIsExpired(t *testing.T) {
	now := time.Now()
	v := Verification{ExpiresAt: now.Add(10 * time.Minute)}

	assert.False(t, v.IsExpired(now))
	assert.True(t, v.IsExpired(now.Add(11*time.Minute)))
}
