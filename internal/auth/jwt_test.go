package auth

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	adminID := uuid.New()

	token, err := svc.GenerateAdmin(adminID, "admin@example.com")
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, adminID, claims.UserID)
	assert.Equal(t, "admin@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, uuid.Nil, claims.SessionID, "admin tokens carry no session scope")
}

func TestParticipantTokenIsSessionScoped(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	participantID, sessionID := uuid.New(), uuid.New()

	token, err := svc.GenerateParticipant(participantID, "p@example.com", sessionID)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "participant", claims.Role)
	assert.Equal(t, sessionID, claims.SessionID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", 1).GenerateAdmin(uuid.New(), "a@example.com")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", 1).Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret", -1) // already expired at issue time
	token, err := svc.GenerateAdmin(uuid.New(), "a@example.com")
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := NewJWTService("test-secret", 1)
	_, err := svc.Validate("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
