package catalog

import (
	"github.com/emploihub/emploihub/internal/catalog/repository"
	"github.com/emploihub/emploihub/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
