package entity

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublicTokenRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		token string
		gym   string
	}{
		{"alnum token", "a1B2c3D4e5F6g7H8i", "64f0c1d2e3a4b5c6d7e8f901"},
		{"letters only", "abcdefghijklmnopq", "gym-42"},
		{"short gym id", "ZZZZZZZZZZZZZZZZZ", "g"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Len(t, tt.token, PrivateTokenLen)
			public := EncodePublicToken(tt.token, tt.gym)
			gym, token, err := DecodePublicToken(public)
			require.NoError(t, err)
			assert.Equal(t, tt.token, token)
			assert.Equal(t, tt.gym, gym)
		})
	}
}

func TestPublicTokenSplitPoint(t *testing.T) {
	// base64 of a 17-character string is always 24 characters; the
	// decoder slices at exactly that offset
	token := "a1B2c3D4e5F6g7H8i"
	encoded := base64.StdEncoding.EncodeToString([]byte(token))
	assert.Len(t, encoded, 24)

	public := EncodePublicToken(token, "someGymId")
	assert.Equal(t, encoded, public[:24])
}

func TestDecodePublicTokenMalformed(t *testing.T) {
	_, _, err := DecodePublicToken("short")
	assert.Error(t, err)

	_, _, err = DecodePublicToken("!!!!invalid base64 data!!!!!")
	assert.Error(t, err)
}

func TestLinkStatusTerminal(t *testing.T) {
	assert.False(t, LinkActive.Terminal())
	assert.True(t, LinkExpired.Terminal())
	assert.True(t, LinkRevoked.Terminal())
	assert.True(t, LinkExhausted.Terminal())
}

func TestLinkUsesLeft(t *testing.T) {
	two := 2
	link := RegistrationLink{UsageCount: 0, MaxUses: nil}
	assert.True(t, link.UsesLeft(), "nil max uses means unlimited")

	link.MaxUses = &two
	assert.True(t, link.UsesLeft())
	link.UsageCount = 1
	assert.True(t, link.UsesLeft())
	link.UsageCount = 2
	assert.False(t, link.UsesLeft())
}

func TestLinkIsExpired(t *testing.T) {
	now := time.Now()
	link := RegistrationLink{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, link.IsExpired(now))
	assert.True(t, link.IsExpired(now.Add(2*time.Hour)))
}
