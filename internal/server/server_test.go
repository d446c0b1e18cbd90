package server

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	auditservice "github.com/emploihub/emploihub/internal/audit/service"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	balancerepo "github.com/emploihub/emploihub/internal/balance/repository"
	balanceservice "github.com/emploihub/emploihub/internal/balance/service"
	cartdomain "github.com/emploihub/emploihub/internal/cart/domain"
	cartservice "github.com/emploihub/emploihub/internal/cart/service"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	catalogrepo "github.com/emploihub/emploihub/internal/catalog/repository"
	catalogservice "github.com/emploihub/emploihub/internal/catalog/service"
	"github.com/emploihub/emploihub/internal/clock"
	"github.com/emploihub/emploihub/internal/config"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	packrepo "github.com/emploihub/emploihub/internal/pack/repository"
	packservice "github.com/emploihub/emploihub/internal/pack/service"
	"github.com/emploihub/emploihub/internal/payment/adapters"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	paymentservice "github.com/emploihub/emploihub/internal/payment/service"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	purchaserepo "github.com/emploihub/emploihub/internal/purchase/repository"
	purchaseservice "github.com/emploihub/emploihub/internal/purchase/service"
	quotaservice "github.com/emploihub/emploihub/internal/quota/service"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	subscriptionrepo "github.com/emploihub/emploihub/internal/subscription/repository"
	subscriptionservice "github.com/emploihub/emploihub/internal/subscription/service"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	usageservice "github.com/emploihub/emploihub/internal/usage/service"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const adminSecret = "admin-test-secret"

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

type fixture struct {
	srv     *Server
	engine  *gin.Engine
	db      *gorm.DB
	node    *snowflake.Node
	balance balancedomain.Service
	catalog catalogdomain.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
		&usagedomain.Event{},
		&purchasedomain.Purchase{},
		&paymentdomain.EventRecord{},
		&cartdomain.Item{},
		&auditdomain.Entry{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	cfg := config.Config{
		AdminJWTSecret: adminSecret,
		Webhook:        config.WebhookConfig{OrangeMoneySecret: "om-secret"},
		Quota:          config.QuotaConfig{CVViewCost: 1, MatchingAICost: 5, ExportCost: 2},
	}

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
	usageSvc := usageservice.NewService(usageservice.ServiceParam{DB: db, Log: log})
	quotaSvc := quotaservice.NewService(quotaservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Config: cfg,
		Balance: balanceSvc, Subscription: subscriptionSvc, Pack: packSvc, Usage: usageSvc,
	})
	purchaseSvc := purchaseservice.NewService(purchaseservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Repo: purchaserepo.Provide(),
		Catalog: catalogSvc, Balance: balanceSvc, Subscription: subscriptionSvc, Pack: packSvc,
	})
	paymentSvc := paymentservice.NewService(paymentservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Config: cfg,
		Adapters: []paymentdomain.Adapter{adapters.NewOrangeMoney(), adapters.NewMTNMoMo()},
		Purchase: purchaseSvc,
	})
	cartSvc := cartservice.NewService(cartservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake, Purchase: purchaseSvc,
	})
	auditSvc := auditservice.NewService(auditservice.ServiceParam{
		DB: db, Log: log, GenID: node, Clock: fake,
	})

	engine := NewEngine(log, nil)
	srv := NewServer(ServerParams{
		Gin: engine, Cfg: cfg, Log: log, GenID: node,
		BalanceSvc: balanceSvc, CatalogSvc: catalogSvc, PurchaseSvc: purchaseSvc,
		SubscriptionSvc: subscriptionSvc, PackSvc: packSvc, QuotaSvc: quotaSvc,
		UsageSvc: usageSvc, PaymentSvc: paymentSvc, CartSvc: cartSvc, AuditSvc: auditSvc,
	})
	registerRoutes(srv)

	return &fixture{srv: srv, engine: engine, db: db, node: node, balance: balanceSvc, catalog: catalogSvc}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) adminHeader(t *testing.T) http.Header {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "admin",
		"sub":  f.node.Generate().String(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(adminSecret))
	require.NoError(t, err)
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (f *fixture) creditEntry(t *testing.T, credits, price int64) *catalogdomain.Entry {
	t.Helper()
	raw, err := json.Marshal(catalogdomain.CreditConfig{Credits: credits})
	require.NoError(t, err)
	entry, err := f.catalog.Create(context.Background(), catalogdomain.CreateEntryRequest{
		Kind: catalogdomain.KindCreditPackage, Name: "starter", Price: price, Config: raw,
	})
	require.NoError(t, err)
	return entry
}

func errType(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Type
}

func TestPurchaseLifecycleOverHTTP(t *testing.T) {
	f := newFixture(t)
	accountID := f.node.Generate()
	entry := f.creditEntry(t, 100, 50000)

	rec := f.do(t, http.MethodPost, "/api/v1/purchases", gin.H{
		"account_id":     accountID.String(),
		"catalog_id":     entry.ID.String(),
		"payment_method": "orange_money",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		PurchaseID       string `json:"purchase_id"`
		PaymentReference string `json:"payment_reference"`
		Status           string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "pending", created.Status)
	assert.Contains(t, created.PaymentReference, "EH-")

	rec = f.do(t, http.MethodPost, "/api/v1/purchases/"+created.PurchaseID+"/proof", gin.H{
		"proof_url": "https://cdn.example.test/proof.jpg",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/admin/v1/purchases/"+created.PurchaseID+"/complete",
		gin.H{"notes": "proof checked"}, f.adminHeader(t))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%s/balance", accountID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		CreditsBalance int64 `json:"credits_balance"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, int64(100), balance.CreditsBalance)

	// Completion left an audit trail.
	entries, err := f.srv.auditSvc.List(context.Background(), auditdomain.ListRequest{Action: "purchase_completed"})
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestErrorTaxonomy(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/purchases/not-a-snowflake", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errType(t, rec))

	rec = f.do(t, http.MethodGet, "/api/v1/purchases/"+f.node.Generate().String(), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errType(t, rec))

	// Cancelling twice is a conflict, not a repeatable mutation.
	accountID := f.node.Generate()
	entry := f.creditEntry(t, 100, 50000)
	rec = f.do(t, http.MethodPost, "/api/v1/purchases", gin.H{
		"account_id":     accountID.String(),
		"catalog_id":     entry.ID.String(),
		"payment_method": "orange_money",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		PurchaseID string `json:"purchase_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = f.do(t, http.MethodPost, "/api/v1/purchases/"+created.PurchaseID+"/cancel",
		gin.H{"reason": "changed my mind"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = f.do(t, http.MethodPost, "/api/v1/purchases/"+created.PurchaseID+"/cancel",
		gin.H{"reason": "again"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", errType(t, rec))
}

func TestAdminAuth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/admin/v1/catalog", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/v1/catalog", nil,
		http.Header{"Authorization": []string{"Bearer garbage"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	recruiter, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "recruiter",
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(adminSecret))
	require.NoError(t, err)
	rec = f.do(t, http.MethodGet, "/admin/v1/catalog", nil,
		http.Header{"Authorization": []string{"Bearer " + recruiter}})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, http.MethodGet, "/admin/v1/catalog", nil, f.adminHeader(t))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConsumeUsageReturnsDecision(t *testing.T) {
	f := newFixture(t)
	accountID := f.node.Generate()

	// A denial is still a 200: the caller reads the decision.
	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/accounts/%s/usage", accountID),
		gin.H{"feature_type": "cv_view"}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var decision struct {
		Allowed bool   `json:"allowed"`
		Reason  string `json:"reason"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "insufficient_credits", decision.Reason)

	_, err := f.balance.ApplyTransaction(context.Background(), balancedomain.ApplyTransactionRequest{
		AccountID: accountID, Type: balancedomain.TransactionTypeAdminAdd, Amount: 10,
	})
	require.NoError(t, err)

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/accounts/%s/usage", accountID),
		gin.H{"feature_type": "cv_view"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.True(t, decision.Allowed)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/accounts/%s/usage", accountID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var usage struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usage))
	assert.Len(t, usage.Items, 1)
}

func TestWebhookEndpoint(t *testing.T) {
	f := newFixture(t)
	accountID := f.node.Generate()
	entry := f.creditEntry(t, 100, 50000)

	p, err := f.srv.purchaseSvc.Create(context.Background(), purchasedomain.CreateRequest{
		AccountID: accountID, CatalogID: entry.ID, PaymentMethod: purchasedomain.MethodOrangeMoney,
	})
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(
		`{"txnid":"OM-1","reference":%q,"amount":"50000","currency":"XOF","status":"SUCCESS"}`,
		p.PaymentReference))

	req := httptest.NewRequest(http.MethodPost, "/webhooks/orange_money", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/orange_money", bytes.NewReader(body))
	req.Header.Set(webhookSignatureHeader, sign("om-secret", body))
	rec = httptest.NewRecorder()
	f.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	balance, err := f.balance.GetBalance(context.Background(), accountID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)
}

func TestCartOverHTTP(t *testing.T) {
	f := newFixture(t)
	recruiterID := f.node.Generate()
	candidateID := f.node.Generate()

	rec := f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/carts/%s/items", recruiterID), gin.H{
		"candidate_id":       candidateID.String(),
		"price_at_selection": 5000,
		"experience_level":   "senior",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Same candidate again while live is a conflict.
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/carts/%s/items", recruiterID), gin.H{
		"candidate_id":       candidateID.String(),
		"price_at_selection": 5000,
		"experience_level":   "senior",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/v1/carts/%s", recruiterID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cart struct {
		Items []json.RawMessage `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Len(t, cart.Items, 1)

	entry := f.creditEntry(t, 100, 50000)
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/v1/carts/%s/convert", recruiterID), gin.H{
		"catalog_id":     entry.ID.String(),
		"payment_method": "orange_money",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}
