package payment

import (
	"github.com/emploihub/emploihub/internal/payment/adapters"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	"github.com/emploihub/emploihub/internal/payment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payment.service",
	fx.Provide(
		fx.Annotate(adapters.NewOrangeMoney,
			fx.As(new(paymentdomain.Adapter)),
			fx.ResultTags(`group:"payment.adapters"`),
		),
		fx.Annotate(adapters.NewMTNMoMo,
			fx.As(new(paymentdomain.Adapter)),
			fx.ResultTags(`group:"payment.adapters"`),
		),
		service.NewService,
	),
)
