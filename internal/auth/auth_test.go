package auth

import (
	"context"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"UniJobBoard-backend/internal/apperror"
	"UniJobBoard-backend/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	id := uuid.New()
	token := GetAccessToken(t, id)

	parsed, err := ValidatedToken(token)
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*jwt.RegisteredClaims)
	assert.Equal(t, id.String(), claims.Subject)
	assert.Equal(t, JwtIssuer, claims.Issuer)
}

func TestValidatedToken_WrongSecret(t *testing.T) {
	token := GetAccessToken(t, uuid.New())

	old := SecretKey
	SecretKey = "another-secret"
	defer func() { SecretKey = old }()

	_, err := ValidatedToken(token)
	assert.Error(t, err)
}

func TestCurrentActor(t *testing.T) {
	_, err := CurrentActor(context.Background())
	assert.ErrorIs(t, err, apperror.ErrAuthenticationRequired)

	profile := model.Profile{ID: uuid.New(), Email: "prof@example.edu", Role: model.RoleFaculty}
	ctx := WithActor(context.Background(), ActorFromProfile(profile))

	actor, err := CurrentActor(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile.ID, actor.ID)
	assert.False(t, actor.IsAdmin())

	_, ok := ActorFromContext(WithActor(context.Background(), Actor{}))
	assert.False(t, ok)
}

func TestActor_CanPostJobs(t *testing.T) {
	assert.True(t, Actor{Role: model.RoleFaculty}.CanPostJobs())
	assert.True(t, Actor{Role: model.RoleAdmin}.CanPostJobs())
	assert.False(t, Actor{Role: model.RoleStudent}.CanPostJobs())
}
