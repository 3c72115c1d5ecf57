package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("delete image: %w", apperr.Upstream("object store delete failed", base))

	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, "object store delete failed", apperr.MessageOf(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, apperr.KindUnknown, apperr.KindOf(base))
}

func TestErrorIsMatchesKind(t *testing.T) {
	err := apperr.NotFound("image not found")

	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindNotFound}))
	assert.False(t, errors.Is(err, &apperr.Error{Kind: apperr.KindConflict}))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "email taken", apperr.Conflict("email taken").Error())
	assert.Equal(t, "could not validate credentials: boom", apperr.Unauthorized(errors.New("boom")).Error())
	assert.Equal(t, "unauthorized", apperr.KindUnauthorized.String())
}
