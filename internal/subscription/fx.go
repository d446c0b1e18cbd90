package subscription

import (
	"github.com/emploihub/emploihub/internal/subscription/repository"
	"github.com/emploihub/emploihub/internal/subscription/service"
	"go.uber.org/fx"
)

var Module = fx.Module("subscription.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
