package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	balancerepo "github.com/emploihub/emploihub/internal/balance/repository"
	balanceservice "github.com/emploihub/emploihub/internal/balance/service"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	catalogrepo "github.com/emploihub/emploihub/internal/catalog/repository"
	catalogservice "github.com/emploihub/emploihub/internal/catalog/service"
	"github.com/emploihub/emploihub/internal/clock"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	packrepo "github.com/emploihub/emploihub/internal/pack/repository"
	packservice "github.com/emploihub/emploihub/internal/pack/service"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	purchaserepo "github.com/emploihub/emploihub/internal/purchase/repository"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	subscriptionrepo "github.com/emploihub/emploihub/internal/subscription/repository"
	subscriptionservice "github.com/emploihub/emploihub/internal/subscription/service"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc     *Service
	db      *gorm.DB
	fake    *clock.FakeClock
	node    *snowflake.Node
	catalog catalogdomain.Service
	balance balancedomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&balancedomain.Account{},
		&balancedomain.Transaction{},
		&catalogdomain.Entry{},
		&subscriptiondomain.Subscription{},
		&subscriptiondomain.DailyUsage{},
		&packdomain.Grant{},
		&packdomain.PromotionGrant{},
		&purchasedomain.Purchase{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	catalogSvc := catalogservice.NewService(catalogservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: catalogrepo.Provide(),
	})
	balanceSvc := balanceservice.NewService(balanceservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: balancerepo.Provide(),
	})
	subscriptionSvc := subscriptionservice.NewService(subscriptionservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: subscriptionrepo.Provide(),
	})
	packSvc := packservice.NewService(packservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: packrepo.Provide(),
	})

	svc := &Service{
		db:    db,
		log:   log,
		genID: node,
		clock: fake,
		repo:  purchaserepo.Provide(),

		catalog:      catalogSvc,
		balance:      balanceSvc,
		subscription: subscriptionSvc,
		pack:         packSvc,
	}
	return &fixture{svc: svc, db: db, fake: fake, node: node, catalog: catalogSvc, balance: balanceSvc}
}

func (f *fixture) catalogEntry(t *testing.T, kind catalogdomain.Kind, price int64, config any) *catalogdomain.Entry {
	t.Helper()
	raw, err := json.Marshal(config)
	require.NoError(t, err)
	entry, err := f.catalog.Create(context.Background(), catalogdomain.CreateEntryRequest{
		Kind:   kind,
		Name:   "test " + string(kind),
		Price:  price,
		Config: raw,
	})
	require.NoError(t, err)
	return entry
}

func (f *fixture) createPurchase(t *testing.T, accountID snowflake.ID, catalogID snowflake.ID) *purchasedomain.Purchase {
	t.Helper()
	p, err := f.svc.Create(context.Background(), purchasedomain.CreateRequest{
		AccountID:     accountID,
		CatalogID:     catalogID,
		PaymentMethod: purchasedomain.MethodOrangeMoney,
	})
	require.NoError(t, err)
	return p
}

func TestCreate_PendingWithReference(t *testing.T) {
	f := newFixture(t)
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})

	p := f.createPurchase(t, f.node.Generate(), entry.ID)
	assert.Equal(t, purchasedomain.StatusPending, p.Status)
	assert.Equal(t, purchasedomain.PaymentPending, p.PaymentStatus)
	assert.Equal(t, int64(50000), p.Amount)
	assert.Equal(t, "XOF", p.Currency)
	assert.Contains(t, p.PaymentReference, "EH-")
}

func TestCreate_InactiveCatalogRefused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})
	require.NoError(t, f.catalog.Deactivate(ctx, entry.ID))

	_, err := f.svc.Create(ctx, purchasedomain.CreateRequest{
		AccountID:     f.node.Generate(),
		CatalogID:     entry.ID,
		PaymentMethod: purchasedomain.MethodMTNMoMo,
	})
	assert.ErrorIs(t, err, catalogdomain.ErrEntryInactive)
}

func TestComplete_CreditsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})

	p := f.createPurchase(t, accountID, entry.ID)
	_, err := f.svc.AttachProof(ctx, p.ID, "https://receipts.example/om/123")
	require.NoError(t, err)

	adminID := f.node.Generate()
	completed, err := f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID, AdminID: adminID})
	require.NoError(t, err)
	assert.Equal(t, purchasedomain.StatusCompleted, completed.Status)
	assert.Equal(t, purchasedomain.PaymentPaid, completed.PaymentStatus)
	require.NotNil(t, completed.CompletedAt)

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	// Retried completion is a no-op, not a double credit.
	again, err := f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID, AdminID: adminID})
	require.NoError(t, err)
	assert.Equal(t, purchasedomain.StatusCompleted, again.Status)

	balance, err = f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	var txns []balancedomain.Transaction
	require.NoError(t, f.db.Where("account_id = ?", accountID).Find(&txns).Error)
	require.Len(t, txns, 1)
	assert.Equal(t, balancedomain.TransactionTypePurchase, txns[0].Type)
	assert.Equal(t, int64(100), txns[0].Amount)
}

func TestComplete_BonusCreditsSeparateTransaction(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 90000, catalogdomain.CreditConfig{Credits: 200, BonusCredits: 20})

	p := f.createPurchase(t, accountID, entry.ID)
	_, err := f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID})
	require.NoError(t, err)

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(220), balance)

	var txns []balancedomain.Transaction
	require.NoError(t, f.db.Where("account_id = ?", accountID).Order("id").Find(&txns).Error)
	require.Len(t, txns, 2)
	assert.Equal(t, balancedomain.TransactionTypePurchase, txns[0].Type)
	assert.Equal(t, balancedomain.TransactionTypeBonus, txns[1].Type)
}

func TestComplete_CVPackGrantsQuota(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindCVPack, 75000, catalogdomain.CVPackConfig{ProfileQuota: 50, DurationDays: 90})

	p := f.createPurchase(t, accountID, entry.ID)
	_, err := f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID})
	require.NoError(t, err)

	var grants []packdomain.Grant
	require.NoError(t, f.db.Where("account_id = ?", accountID).Find(&grants).Error)
	require.Len(t, grants, 1)
	assert.Equal(t, p.ID, grants[0].PurchaseID)
	assert.Equal(t, int64(50), grants[0].ProfilesRemaining)
}

func TestComplete_EnterprisePackActivatesSubscription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindEnterprisePack, 500000, catalogdomain.EnterpriseConfig{
		MonthlyCVQuota:       200,
		MonthlyMatchingQuota: 50,
		DurationDays:         30,
	})

	p := f.createPurchase(t, accountID, entry.ID)
	_, err := f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID})
	require.NoError(t, err)

	var subs []subscriptiondomain.Subscription
	require.NoError(t, f.db.Where("account_id = ?", accountID).Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, subscriptiondomain.StatusActive, subs[0].Status)
}

func TestCancel_NeverCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})

	p := f.createPurchase(t, accountID, entry.ID)

	_, err := f.svc.Cancel(ctx, p.ID, "")
	assert.ErrorIs(t, err, purchasedomain.ErrReasonRequired)

	cancelled, err := f.svc.Cancel(ctx, p.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, purchasedomain.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)

	// Terminal record refuses further transitions.
	_, err = f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID})
	assert.ErrorIs(t, err, purchasedomain.ErrAlreadyTerminal)
	_, err = f.svc.Cancel(ctx, p.ID, "again")
	assert.ErrorIs(t, err, purchasedomain.ErrAlreadyTerminal)

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestAttachProof(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})
	p := f.createPurchase(t, f.node.Generate(), entry.ID)

	_, err := f.svc.AttachProof(ctx, p.ID, "  ")
	assert.ErrorIs(t, err, purchasedomain.ErrProofRequired)

	updated, err := f.svc.AttachProof(ctx, p.ID, "https://receipts.example/om/1")
	require.NoError(t, err)
	assert.Equal(t, purchasedomain.StatusWaitingProof, updated.Status)

	// Re-attaching replaces the proof.
	updated, err = f.svc.AttachProof(ctx, p.ID, "https://receipts.example/om/2")
	require.NoError(t, err)
	assert.Equal(t, "https://receipts.example/om/2", updated.ProofURL)
}

func TestCompleteByReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})
	p := f.createPurchase(t, accountID, entry.ID)

	completed, err := f.svc.CompleteByReference(ctx, p.PaymentReference, "OM-TXN-42")
	require.NoError(t, err)
	assert.Equal(t, purchasedomain.StatusCompleted, completed.Status)
	assert.Equal(t, "OM-TXN-42", completed.ProviderTransactionID)

	_, err = f.svc.CompleteByReference(ctx, "EH-UNKNOWN", "OM-TXN-43")
	assert.ErrorIs(t, err, purchasedomain.ErrNotFound)
}

func TestZeroCreditScenario(t *testing.T) {
	// Account with no credits buys a 100-credit pack for 50000 XOF,
	// attaches proof, admin completes: balance is exactly 100.
	f := newFixture(t)
	ctx := context.Background()
	accountID := f.node.Generate()
	entry := f.catalogEntry(t, catalogdomain.KindCreditPackage, 50000, catalogdomain.CreditConfig{Credits: 100})

	balance, err := f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	require.Zero(t, balance)

	p := f.createPurchase(t, accountID, entry.ID)
	_, err = f.svc.AttachProof(ctx, p.ID, "https://receipts.example/momo/777")
	require.NoError(t, err)
	_, err = f.svc.Complete(ctx, purchasedomain.CompleteRequest{ID: p.ID, AdminID: f.node.Generate()})
	require.NoError(t, err)

	balance, err = f.balance.GetBalance(ctx, accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}
