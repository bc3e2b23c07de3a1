package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-at-least-32-characters!!"

func TestTokenService_SessionRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.SignSession("user-42", time.Hour)
	require.NoError(t, err)

	userID, err := svc.VerifySession(token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestTokenService_FileCapabilityRoundTrip(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.SignFileCapability("42_song.mp3", 100*24*time.Hour)
	require.NoError(t, err)

	key, err := svc.VerifyFileCapability(token)
	require.NoError(t, err)
	assert.Equal(t, "42_song.mp3", key)
}

func TestTokenService_WrongSecret(t *testing.T) {
	svc := NewTokenService(testSecret)
	other := NewTokenService("a-completely-different-secret-value!")

	token, err := svc.SignFileCapability("42_song.mp3", time.Hour)
	require.NoError(t, err)

	_, err = other.VerifyFileCapability(token)
	assert.Error(t, err)
}

func TestTokenService_Expiry(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.SignFileCapability("42_song.mp3", time.Second)
	require.NoError(t, err)

	// A 1 second TTL verified 2 seconds later must be invalid.
	svc.now = func() time.Time { return time.Now().Add(2 * time.Second) }
	_, err = svc.VerifyFileCapability(token)
	assert.Error(t, err)
}

func TestTokenService_LongLivedCapability(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.SignFileCapability("42_song.mp3", 100*24*time.Hour)
	require.NoError(t, err)

	key, err := svc.VerifyFileCapability(token)
	require.NoError(t, err)
	assert.Equal(t, "42_song.mp3", key)

	// 101 days later the capability must be rejected.
	svc.now = func() time.Time { return time.Now().Add(101 * 24 * time.Hour) }
	_, err = svc.VerifyFileCapability(token)
	assert.Error(t, err)
}

func TestTokenService_TypeGating(t *testing.T) {
	svc := NewTokenService(testSecret)

	sessionToken, err := svc.SignSession("user-42", time.Hour)
	require.NoError(t, err)

	fileToken, err := svc.SignFileCapability("42_song.mp3", time.Hour)
	require.NoError(t, err)

	_, err = svc.VerifyFileCapability(sessionToken)
	assert.Error(t, err, "session token must not pass as a file capability")

	_, err = svc.VerifySession(fileToken)
	assert.Error(t, err, "file capability must not pass as a session token")
}

func TestTokenService_Garbage(t *testing.T) {
	svc := NewTokenService(testSecret)

	for _, tokenString := range []string{"", "not-a-token", "a.b", "a.b.c.d"} {
		_, err := svc.VerifySession(tokenString)
		assert.Error(t, err)
	}
}
