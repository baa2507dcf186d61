package product

import (
	"github.com/smallbiznis/scanprice/internal/product/service"
	"github.com/smallbiznis/scanprice/internal/product/store"
	"go.uber.org/fx"
)

var Module = fx.Module("product.service",
	fx.Provide(store.Provide),
	fx.Provide(service.New),
)
