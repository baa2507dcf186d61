package assistant

import (
	"github.com/smallbiznis/scanprice/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("assistant",
	fx.Provide(func(cfg config.Config) Generator { return NewGeminiClient(cfg.Assistant) }),
	fx.Provide(NewTasks),
	fx.Invoke(func(lc fx.Lifecycle, tasks *Tasks) {
		lc.Append(fx.Hook{OnStop: tasks.Close})
	}),
)
