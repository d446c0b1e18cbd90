package observability

import (
	"github.com/emploihub/emploihub/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(metrics.New),
)
