// Package scheduler runs the periodic expiry sweeps. Sweeps are
// idempotent and safe to run concurrently with user traffic: each one
// only flips records whose window has already closed.
package scheduler

import (
	"context"
	"time"

	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/internal/config"
	"github.com/emploihub/emploihub/internal/observability/metrics"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Config  config.Config
	Metrics *metrics.Metrics

	SubscriptionSvc subscriptiondomain.Service
	PackSvc         packdomain.Service
	AuditSvc        auditdomain.Service
}

type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	interval time.Duration
	metrics  *metrics.Metrics

	subscriptionSvc subscriptiondomain.Service
	packSvc         packdomain.Service
	auditSvc        auditdomain.Service
}

func New(p Params) *Scheduler {
	interval := p.Config.Sweep.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Scheduler{
		log:      p.Log.Named("scheduler"),
		clock:    p.Clock,
		interval: interval,
		metrics:  p.Metrics,

		subscriptionSvc: p.SubscriptionSvc,
		packSvc:         p.PackSvc,
		auditSvc:        p.AuditSvc,
	}
}

// RunForever sweeps on the configured interval until the context is
// cancelled.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweep loop started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweep loop stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one expiry pass over subscriptions and pack grants.
func (s *Scheduler) Sweep(ctx context.Context) {
	now := s.clock.Now()

	subs, err := s.subscriptionSvc.ExpireDue(ctx, now)
	if err != nil {
		s.log.Error("subscription sweep failed", zap.Error(err))
	} else {
		s.metrics.RecordSweepExpired("subscription", subs)
	}

	grants, err := s.packSvc.ExpireDue(ctx, now)
	if err != nil {
		s.log.Error("pack sweep failed", zap.Error(err))
	} else {
		s.metrics.RecordSweepExpired("pack_grant", grants)
	}

	if subs+grants > 0 {
		s.auditSvc.Record(ctx, auditdomain.Entry{
			ActorType:  auditdomain.ActorSystem,
			Action:     "expiry_sweep",
			TargetType: "sweep",
		})
		s.log.Info("expiry sweep",
			zap.Int64("subscriptions", subs),
			zap.Int64("pack_grants", grants),
		)
	}
}
