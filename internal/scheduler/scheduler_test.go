package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	auditservice "github.com/emploihub/emploihub/internal/audit/service"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/emploihub/emploihub/internal/clock"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	packrepo "github.com/emploihub/emploihub/internal/pack/repository"
	packservice "github.com/emploihub/emploihub/internal/pack/service"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	subscriptionrepo "github.com/emploihub/emploihub/internal/subscription/repository"
	subscriptionservice "github.com/emploihub/emploihub/internal/subscription/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestScheduler(t *testing.T) (*Scheduler, *clock.FakeClock, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.DailyUsage{},
		&packdomain.Grant{},
		&packdomain.PromotionGrant{},
		&auditdomain.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: subscriptionrepo.Provide(),
	})
	packSvc := packservice.NewService(packservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: packrepo.Provide(),
	})
	auditSvc := auditservice.NewService(auditservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
	})

	sched := &Scheduler{
		log:      log,
		clock:    fake,
		interval: time.Minute,

		subscriptionSvc: subscriptionSvc,
		packSvc:         packSvc,
		auditSvc:        auditSvc,
	}
	return sched, fake, db, node
}

func TestSweep_FlipsLapsedRecords(t *testing.T) {
	sched, fake, db, node := newTestScheduler(t)
	ctx := context.Background()

	_, err := sched.subscriptionSvc.ActivateTx(ctx, db, subscriptiondomain.ActivateRequest{
		AccountID:  node.Generate(),
		CatalogID:  node.Generate(),
		PurchaseID: node.Generate(),
		Config:     catalogdomain.EnterpriseConfig{MonthlyCVQuota: 100, MonthlyMatchingQuota: 10, DurationDays: 30},
	})
	require.NoError(t, err)

	_, err = sched.packSvc.GrantCVPackTx(ctx, db, packdomain.GrantCVPackRequest{
		AccountID:  node.Generate(),
		CatalogID:  node.Generate(),
		PurchaseID: node.Generate(),
		Config:     catalogdomain.CVPackConfig{ProfileQuota: 10, DurationDays: 30},
	})
	require.NoError(t, err)

	// Nothing due yet.
	sched.Sweep(ctx)
	var expired int64
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).
		Where("status = ?", subscriptiondomain.StatusExpired).Count(&expired).Error)
	assert.Zero(t, expired)

	fake.Advance(31 * 24 * time.Hour)
	sched.Sweep(ctx)

	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).
		Where("status = ?", subscriptiondomain.StatusExpired).Count(&expired).Error)
	assert.Equal(t, int64(1), expired)

	var expiredGrants int64
	require.NoError(t, db.Model(&packdomain.Grant{}).
		Where("status = ?", packdomain.GrantStatusExpired).Count(&expiredGrants).Error)
	assert.Equal(t, int64(1), expiredGrants)

	// The sweep leaves an audit trace.
	var audits int64
	require.NoError(t, db.Model(&auditdomain.Entry{}).
		Where("action = ?", "expiry_sweep").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	// Running again is a no-op.
	sched.Sweep(ctx)
	require.NoError(t, db.Model(&subscriptiondomain.Subscription{}).
		Where("status = ?", subscriptiondomain.StatusExpired).Count(&expired).Error)
	assert.Equal(t, int64(1), expired)
}
