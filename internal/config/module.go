package config

import "go.uber.org/fx"

// Module loads Config from the process environment and command line once per fx graph.
var Module = fx.Provide(Load)
