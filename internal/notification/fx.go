package notification

import (
	"github.com/smallbiznis/scanprice/internal/notification/domain"
	"github.com/smallbiznis/scanprice/internal/notification/liveevents"
	"github.com/smallbiznis/scanprice/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(liveevents.NewHub),
	fx.Provide(service.New),
	fx.Provide(func(c *service.Center) domain.Service { return c }),
	fx.Invoke(runCenter),
)

func runCenter(lc fx.Lifecycle, center *service.Center) {
	lc.Append(fx.Hook{
		OnStart: center.Start,
		OnStop:  center.Stop,
	})
}
