package cart

import (
	"github.com/emploihub/emploihub/internal/cart/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cart.service",
	fx.Provide(service.NewService),
)
