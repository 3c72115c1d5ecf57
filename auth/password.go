package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int

	dummyOnce sync.Once
	dummy     string
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	return string(hashed), err
}

// Verify never fails on a malformed hash, it just reports a mismatch.
func (h *Hasher) Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// VerifyNone spends the same bcrypt work as Verify against a throwaway hash and
// always reports a mismatch. Login uses it for unknown accounts so they take as
// long as a wrong password.
func (h *Hasher) VerifyNone(password string) bool {
	h.Verify(password, h.dummyHash())
	return false
}

func (h *Hasher) dummyHash() string {
	h.dummyOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte("snapvault-unknown-account"), h.cost)
		if err == nil {
			h.dummy = string(hashed)
		}
	})
	return h.dummy
}
