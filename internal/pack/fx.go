package pack

import (
	"github.com/emploihub/emploihub/internal/pack/repository"
	"github.com/emploihub/emploihub/internal/pack/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pack.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
