package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/lotteryengine/internal/config"
)

// Module provides trigger authorization primitives via fx.
var Module = fx.Options(
	fx.Provide(newSecretHasher),
	fx.Provide(newTokenVerifier),
)

func newSecretHasher() SecretHasher {
	return NewBcryptHasher(0)
}

type verifierParams struct {
	fx.In

	Config *config.Config
	Hasher SecretHasher
}

func newTokenVerifier(p verifierParams) TokenVerifier {
	return NewTriggerGuard(p.Config.TriggerTokenHash, p.Hasher)
}
