package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	token, err := svc.SignWithName("u1", "Alice", time.Hour)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Alice", claims.DisplayName)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := NewService([]byte("one")).SignWithName("u1", "Alice", time.Hour)
	require.NoError(t, err)

	_, err = NewService([]byte("two")).Verify(token)
	require.Error(t, err)
}

func TestVerify_Expired(t *testing.T) {
	svc := NewService([]byte("test-secret"))

	token, err := svc.SignWithName("u1", "Alice", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
}
