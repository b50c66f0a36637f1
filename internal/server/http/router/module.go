package router

import "go.uber.org/fx"

// Module provides the gin engine serving trigger, round and health endpoints.
var Module = fx.Provide(Setup)
