package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager(t *testing.T) {
	secretKey := "test-secret-key-for-testing"
	tokenDuration := 1 * time.Hour
	jwtManager := NewJWTManager(secretKey, "helpdesk-test", tokenDuration)

	t.Run("GenerateToken creates valid token", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("test@example.com", "Test User")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
	})

	t.Run("ValidateToken validates correct token", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("user@example.com", "Agent User")
		require.NoError(t, err)

		claims, err := jwtManager.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", claims.Email)
		assert.Equal(t, "Agent User", claims.Name)
		assert.Equal(t, "helpdesk-test", claims.Issuer)
		assert.Equal(t, "user@example.com", claims.Subject)
	})

	t.Run("ValidateToken rejects invalid token", func(t *testing.T) {
		_, err := jwtManager.ValidateToken("invalid.token.here")
		assert.Error(t, err)
	})

	t.Run("ValidateToken rejects expired token", func(t *testing.T) {
		shortManager := NewJWTManager(secretKey, "helpdesk-test", 1*time.Hour)
		shortManager.tokenDuration = -time.Minute

		token, err := shortManager.GenerateToken("test@example.com", "")
		require.NoError(t, err)

		_, err = shortManager.ValidateToken(token)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("ValidateToken rejects token with wrong signature", func(t *testing.T) {
		token, err := jwtManager.GenerateToken("test@example.com", "")
		require.NoError(t, err)

		wrongManager := NewJWTManager("wrong-secret-key", "helpdesk-test", tokenDuration)
		_, err = wrongManager.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("zero duration falls back to an hour", func(t *testing.T) {
		m := NewJWTManager(secretKey, "helpdesk-test", 0)
		assert.Equal(t, time.Hour, m.tokenDuration)
	})
}

func TestJWTManagerConcurrency(t *testing.T) {
	jwtManager := NewJWTManager("test-secret", "helpdesk-test", 1*time.Hour)

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func() {
			token, err := jwtManager.GenerateToken("test@example.com", "User")
			assert.NoError(t, err)
			assert.NotEmpty(t, token)
			done <- true
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
}
