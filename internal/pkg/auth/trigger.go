package auth

import (
	"errors"
	"strings"
)

var (
	ErrMissingToken = errors.New("missing trigger token")
	ErrInvalidToken = errors.New("invalid trigger token")
)

// TokenVerifier authorizes callers of job trigger endpoints.
type TokenVerifier interface {
	Enabled() bool
	Verify(header string) error
}

// TriggerGuard checks "Authorization: Bearer <token>" against a bcrypt hash.
// With an empty hash every request is allowed.
type TriggerGuard struct {
	hash   string
	hasher SecretHasher
}

// NewTriggerGuard builds TriggerGuard for the configured token hash.
func NewTriggerGuard(hash string, hasher SecretHasher) *TriggerGuard {
	return &TriggerGuard{hash: strings.TrimSpace(hash), hasher: hasher}
}

// Enabled reports whether a token is required.
func (g *TriggerGuard) Enabled() bool {
	return g.hash != ""
}

// Verify checks the raw Authorization header value.
func (g *TriggerGuard) Verify(header string) error {
	if !g.Enabled() {
		return nil
	}
	token, ok := bearerToken(header)
	if !ok {
		return ErrMissingToken
	}
	if err := g.hasher.Compare(g.hash, token); err != nil {
		return ErrInvalidToken
	}
	return nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
