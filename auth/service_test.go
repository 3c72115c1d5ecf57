package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/auth"
	"github.com/krishkalaria12/snapvault/database/dbtest"
	"github.com/krishkalaria12/snapvault/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newService(t *testing.T) (*auth.Service, *gorm.DB) {
	t.Helper()
	db := dbtest.OpenTestDB(t)
	tokens := auth.NewTokenService("test-secret", "snapvault", time.Hour)
	return auth.NewService(db, auth.NewHasher(bcrypt.MinCost), tokens), db
}

func TestSignupLoginAuthenticate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "ada@example.com", "pa55word", "")
	require.NoError(t, err)
	assert.Equal(t, "ada", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "pa55word", user.PasswordHash)

	token, err := svc.Login(ctx, "ada@example.com", "pa55word")
	require.NoError(t, err)

	principal, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)
	assert.Equal(t, "ada@example.com", principal.Email)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "ada@example.com", "pa55word", "ada")
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "ada@example.com", "other", "someone")
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("email = ?", "ada@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSignupValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "not-an-email", "pa55word", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = svc.Signup(ctx, "ada@example.com", "", "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "ada@example.com", "pa55word", "")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "pa55word")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAuthenticateDeletedUser(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "ada@example.com", "pa55word", "")
	require.NoError(t, err)
	token, err := svc.Tokens().Issue(user.ID)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&models.User{}, "id = ?", user.ID).Error)

	_, err = svc.Authenticate(ctx, token)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, token := range []string{"", "invalid-token"} {
		_, err := svc.Authenticate(ctx, token)
		assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))
	}

	expired, err := svc.Tokens().IssueWithTTL("whoever", -time.Minute)
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestEmailIsCaseInsensitive(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	user, err := svc.Signup(ctx, "  Ada@Example.COM ", "pa55word", "")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "ada", user.Username)

	_, err = svc.Signup(ctx, "ada@example.com", "other", "")
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = svc.Login(ctx, "ADA@example.com", "pa55word")
	assert.NoError(t, err)
}
