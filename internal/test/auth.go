package test

import (
	"errors"

	pkgAuth "github.com/polkiloo/lotteryengine/internal/pkg/auth"
)

// HasherStub provides deterministic hashing for tests.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

// Hash returns a predictable hash for the supplied secret.
func (h HasherStub) Hash(secret string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(secret)
	}
	return "hash:" + secret, nil
}

// Compare validates secret against stored hash.
func (h HasherStub) Compare(hash string, secret string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, secret)
	}
	if hash != "hash:"+secret {
		return errors.New("mismatch")
	}
	return nil
}

// TokenVerifierStub implements trigger token verification with fixed answers.
type TokenVerifierStub struct {
	On       bool
	Err      error
	VerifyFn func(string) error
}

// Enabled reports whether verification is switched on.
func (s TokenVerifierStub) Enabled() bool { return s.On }

// Verify either delegates to override or returns predefined error.
func (s TokenVerifierStub) Verify(header string) error {
	if s.VerifyFn != nil {
		return s.VerifyFn(header)
	}
	return s.Err
}

var _ pkgAuth.SecretHasher = HasherStub{}
var _ pkgAuth.TokenVerifier = TokenVerifierStub{}
