package auth

import (
	"context"
	"testing"
	"time"

	"github.com/krishkalaria12/snapvault/database/dbtest"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestLoginUnknownEmailStillHashes(t *testing.T) {
	hasher := NewHasher(bcrypt.MinCost)
	svc := NewService(dbtest.OpenTestDB(t), hasher, NewTokenService("test-secret", "snapvault", time.Hour))

	_, err := svc.Login(context.Background(), "nobody@example.com", "pa55word")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// the unknown account went through a bcrypt comparison too
	assert.NotEmpty(t, hasher.dummy)
}
