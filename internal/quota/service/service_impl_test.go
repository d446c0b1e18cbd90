package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	balancerepo "github.com/emploihub/emploihub/internal/balance/repository"
	balanceservice "github.com/emploihub/emploihub/internal/balance/service"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/internal/config"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	packrepo "github.com/emploihub/emploihub/internal/pack/repository"
	packservice "github.com/emploihub/emploihub/internal/pack/service"
	quotadomain "github.com/emploihub/emploihub/internal/quota/domain"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	subscriptionrepo "github.com/emploihub/emploihub/internal/subscription/repository"
	subscriptionservice "github.com/emploihub/emploihub/internal/subscription/service"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	usageservice "github.com/emploihub/emploihub/internal/usage/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc          *Service
	db           *gorm.DB
	fake         *clock.FakeClock
	node         *snowflake.Node
	balance      balancedomain.Service
	subscription subscriptiondomain.Service
	pack         packdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&balancedomain.Account{},
		&balancedomain.Transaction{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.DailyUsage{},
		&packdomain.Grant{},
		&packdomain.PromotionGrant{},
		&usagedomain.Event{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	balanceSvc := balanceservice.NewService(balanceservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: balancerepo.Provide(),
	})
	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: subscriptionrepo.Provide(),
	})
	packSvc := packservice.NewService(packservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: packrepo.Provide(),
	})
	usageSvc := usageservice.NewService(usageservice.ServiceParam{DB: db, Log: log})

	svc := &Service{
		db:    db,
		log:   log,
		genID: node,
		clock: fake,
		costs: config.QuotaConfig{CVViewCost: 1, MatchingAICost: 5, ExportCost: 30},

		balance:      balanceSvc,
		subscription: subscriptionSvc,
		pack:         packSvc,
		usage:        usageSvc,
	}
	return &fixture{
		svc:          svc,
		db:           db,
		fake:         fake,
		node:         node,
		balance:      balanceSvc,
		subscription: subscriptionSvc,
		pack:         packSvc,
	}
}

func (f *fixture) credit(t *testing.T, accountID snowflake.ID, amount int64) {
	t.Helper()
	_, err := f.balance.ApplyTransaction(context.Background(), balancedomain.ApplyTransactionRequest{
		AccountID:   accountID,
		Type:        balancedomain.TransactionTypeAdminAdd,
		Amount:      amount,
		Description: "seed",
	})
	require.NoError(t, err)
}

func (f *fixture) grantPack(t *testing.T, accountID snowflake.ID, quota int64) {
	t.Helper()
	_, err := f.pack.GrantCVPackTx(context.Background(), f.db, packdomain.GrantCVPackRequest{
		AccountID:  accountID,
		CatalogID:  f.node.Generate(),
		PurchaseID: f.node.Generate(),
		Config:     catalogdomain.CVPackConfig{ProfileQuota: quota, DurationDays: 90},
	})
	require.NoError(t, err)
}

func (f *fixture) activateSub(t *testing.T, accountID snowflake.ID, cfg catalogdomain.EnterpriseConfig) {
	t.Helper()
	_, err := f.subscription.ActivateTx(context.Background(), f.db, subscriptiondomain.ActivateRequest{
		AccountID:  accountID,
		CatalogID:  f.node.Generate(),
		PurchaseID: f.node.Generate(),
		Config:     cfg,
	})
	require.NoError(t, err)
}

func (f *fixture) usageEvents(t *testing.T, accountID snowflake.ID) []usagedomain.Event {
	t.Helper()
	var events []usagedomain.Event
	require.NoError(t, f.db.Where("account_id = ?", accountID).Find(&events).Error)
	return events
}

func TestCheckAndConsume_NoEntitlements(t *testing.T) {
	f := newFixture(t)
	accountID := f.node.Generate()

	d, err := f.svc.CheckAndConsume(context.Background(), quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     1,
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, quotadomain.ReasonInsufficientCredits, d.Reason)
	assert.Empty(t, f.usageEvents(t, accountID))
}

func TestCheckAndConsume_CreditsFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.credit(t, accountID, 100)

	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, usagedomain.SourceCredits, d.Source)
	assert.Equal(t, int64(1), d.CreditsSpent)
	assert.Equal(t, int64(99), d.Remaining)

	events := f.usageEvents(t, accountID)
	require.Len(t, events, 1)
	assert.Equal(t, usagedomain.SourceCredits, events[0].Source)

	// The debit is on the transaction log.
	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(99), balance)
}

func TestCheckAndConsume_PackBeforeCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.credit(t, accountID, 100)
	f.grantPack(t, accountID, 2)

	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, usagedomain.SourcePack, d.Source)
	assert.Equal(t, int64(1), d.Remaining)

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestCheckAndConsume_SubscriptionAuthoritative(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.credit(t, accountID, 100)
	f.activateSub(t, accountID, catalogdomain.EnterpriseConfig{
		MonthlyCVQuota:       2,
		MonthlyMatchingQuota: 10,
		DurationDays:         30,
	})

	for i := 0; i < 2; i++ {
		d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
			AccountID: accountID,
			Feature:   usagedomain.FeatureCVView,
			Count:     1,
		})
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, usagedomain.SourceSubscription, d.Source)
	}

	// Quota exhausted: the subscription governs, credits are not dipped into.
	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     1,
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, quotadomain.ReasonQuotaExceeded, d.Reason)

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
	assert.Len(t, f.usageEvents(t, accountID), 2)
}

func TestCheckAndConsume_UnlimitedSubscription(t *testing.T) {
	f := newFixture(t)
	accountID := f.node.Generate()
	f.activateSub(t, accountID, catalogdomain.EnterpriseConfig{
		UnlimitedCV:          true,
		MonthlyMatchingQuota: 10,
		DurationDays:         30,
	})

	d, err := f.svc.CheckAndConsume(context.Background(), quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(-1), d.Remaining)
}

func TestCheckAndConsume_MatchingAICost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.credit(t, accountID, 7)

	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureMatchingAI,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(5), d.CreditsSpent)

	// Only 2 credits left, a second matching run is refused.
	d, err = f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureMatchingAI,
		Count:     1,
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, quotadomain.ReasonInsufficientCredits, d.Reason)
	assert.Len(t, f.usageEvents(t, accountID), 1)
}

func TestCheckAndConsume_CompetingDebits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.credit(t, accountID, 45)

	// Export costs 30 here: the first request drains past the point where
	// the second could still be covered.
	first, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureExport,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, first.Allowed)

	second, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureExport,
		Count:     1,
	})
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, quotadomain.ReasonInsufficientCredits, second.Reason)

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(15), balance)
}

func TestCheckAndConsume_Promotion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()

	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeaturePromotion,
		Count:     1,
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, quotadomain.ReasonNoActiveSubscription, d.Reason)

	_, err = f.pack.GrantPromotionTx(ctx, f.db, packdomain.GrantPromotionRequest{
		AccountID:  accountID,
		CatalogID:  f.node.Generate(),
		PurchaseID: f.node.Generate(),
		Config:     catalogdomain.PromotionConfig{MaxActivePromotions: 1, DurationDays: 30},
	})
	require.NoError(t, err)

	d, err = f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeaturePromotion,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeaturePromotion,
		Count:     1,
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, quotadomain.ReasonQuotaExceeded, d.Reason)
}

func TestCheckAndConsume_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		Feature: usagedomain.FeatureCVView,
		Count:   1,
	})
	assert.ErrorIs(t, err, quotadomain.ErrInvalidAccount)

	_, err = f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: f.node.Generate(),
		Feature:   "teleport",
		Count:     1,
	})
	assert.ErrorIs(t, err, quotadomain.ErrInvalidFeature)

	_, err = f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: f.node.Generate(),
		Feature:   usagedomain.FeatureCVView,
		Count:     0,
	})
	assert.ErrorIs(t, err, quotadomain.ErrInvalidCount)
}

func TestCheckAndConsume_MonthlyDenyLeavesDailyCapUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.activateSub(t, accountID, catalogdomain.EnterpriseConfig{
		MonthlyCVQuota: 1,
		DailyCVCap:     2,
		DurationDays:   30,
	})

	// Two views fit the daily cap but not the monthly quota.
	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     2,
	})
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, quotadomain.ReasonQuotaExceeded, d.Reason)

	// The denied request must not have eaten into the daily cap.
	d, err = f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureCVView,
		Count:     1,
	})
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, usagedomain.SourceSubscription, d.Source)
	assert.Equal(t, int64(0), d.Remaining)
}

func TestCheckAndConsume_RemainingMatchesLedger(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.credit(t, accountID, 40)

	d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
		AccountID: accountID,
		Feature:   usagedomain.FeatureExport,
		Count:     1,
	})
	require.NoError(t, err)
	require.True(t, d.Allowed)

	// The decision reports the post-debit balance carried on the ledger
	// entry written in the same transaction.
	var txn balancedomain.Transaction
	require.NoError(t, f.db.
		Where("account_id = ? AND type = ?", accountID, balancedomain.TransactionTypeUsage).
		First(&txn).Error)
	assert.Equal(t, txn.BalanceAfter, d.Remaining)
	assert.Equal(t, int64(10), d.Remaining)
}

func TestCheckAndConsume_ConcurrentRequestsHonorQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	f.activateSub(t, accountID, catalogdomain.EnterpriseConfig{
		MonthlyCVQuota:       5,
		MonthlyMatchingQuota: 10,
		DurationDays:         30,
	})

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const workers = 8
	decisions := make(chan quotadomain.Decision, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := f.svc.CheckAndConsume(ctx, quotadomain.CheckAndConsumeRequest{
				AccountID: accountID,
				Feature:   usagedomain.FeatureCVView,
				Count:     1,
			})
			assert.NoError(t, err)
			decisions <- d
		}()
	}
	wg.Wait()
	close(decisions)

	var allowed int
	for d := range decisions {
		if d.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 5, allowed)
	assert.Len(t, f.usageEvents(t, accountID), 5)
}
