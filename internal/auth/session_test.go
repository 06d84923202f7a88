// internal/auth/session_test.go
package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

func TestSeatTokenRoundTrip(t *testing.T) {
	s, err := NewSessions()
	require.NoError(t, err)

	userID := uuid.New()
	roomID := uuid.New()
	token, err := s.IssueSeatToken(userID, roomID, 2)
	require.NoError(t, err)

	claims, err := s.VerifySeatToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, roomID, claims.RoomID)
	assert.Equal(t, models.Seat(2), claims.Seat)
}

func TestSeatTokenRejectsForeignKey(t *testing.T) {
	issuer, err := NewSessions()
	require.NoError(t, err)
	verifier, err := NewSessions()
	require.NoError(t, err)

	token, err := issuer.IssueSeatToken(uuid.New(), uuid.New(), 0)
	require.NoError(t, err)

	_, err = verifier.VerifySeatToken(token)
	assert.Error(t, err)
}

func TestSeatTokenRejectsGarbage(t *testing.T) {
	s, err := NewSessions()
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := s.VerifySeatToken(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestTokenExpiryFromEnv(t *testing.T) {
	t.Setenv("TOKEN_EXPIRE_TIME", "2h")
	s, err := NewSessions()
	require.NoError(t, err)
	assert.Equal(t, 7200, s.expireSec)

	t.Setenv("TOKEN_EXPIRE_TIME", "never")
	s, err = NewSessions()
	require.NoError(t, err)
	assert.Zero(t, s.expireSec)

	t.Setenv("TOKEN_EXPIRE_TIME", "soon")
	_, err = NewSessions()
	assert.Error(t, err)
}
