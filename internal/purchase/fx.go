package purchase

import (
	"github.com/emploihub/emploihub/internal/purchase/repository"
	"github.com/emploihub/emploihub/internal/purchase/service"
	"go.uber.org/fx"
)

var Module = fx.Module("purchase.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
