package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherSaltsAndVerifies(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	first, err := h.Hash("hunter2")
	require.NoError(t, err)
	second, err := h.Hash("hunter2")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Verify("hunter2", first))
	assert.True(t, h.Verify("hunter2", second))
	assert.False(t, h.Verify("hunter3", first))
}

func TestHasherMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.Verify("hunter2", ""))
	assert.False(t, h.Verify("hunter2", "not-a-bcrypt-hash"))
}

func TestNewHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(99).cost)
}

func TestHasherVerifyNone(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	assert.False(t, h.VerifyNone("hunter2"))
	assert.False(t, h.VerifyNone(""))

	// the throwaway hash costs as much as a real one
	cost, err := bcrypt.Cost([]byte(h.dummyHash()))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost, cost)
}
