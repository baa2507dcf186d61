package pos

import "go.uber.org/fx"

var Module = fx.Module("pos",
	fx.Provide(NewService),
)
