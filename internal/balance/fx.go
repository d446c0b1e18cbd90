package balance

import (
	"github.com/emploihub/emploihub/internal/balance/repository"
	"github.com/emploihub/emploihub/internal/balance/service"
	"go.uber.org/fx"
)

var Module = fx.Module("balance.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
