package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/auth"
)

func newService() *auth.Service {
	return auth.NewService(auth.Config{
		SigningKey: "test-signing-key",
		Issuer:     "https://api.climatlas.test",
		Audience:   "climatlas-api",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newService()

	token, expiresAt, err := svc.Generate("scheduler")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	subject, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "scheduler", subject)
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc := newService()

	_, err := svc.Validate("not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateRejectsWrongKey(t *testing.T) {
	token, _, err := newService().Generate("scheduler")
	require.NoError(t, err)

	other := auth.NewService(auth.Config{
		SigningKey: "different-key",
		Issuer:     "https://api.climatlas.test",
		Audience:   "climatlas-api",
	})
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	token, _, err := newService().Generate("scheduler")
	require.NoError(t, err)

	other := auth.NewService(auth.Config{
		SigningKey: "test-signing-key",
		Issuer:     "https://api.climatlas.test",
		Audience:   "another-service",
	})
	_, err = other.Validate(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
