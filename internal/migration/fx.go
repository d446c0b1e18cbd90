package migration

import (
	auditdomain "github.com/emploihub/emploihub/internal/audit/domain"
	balancedomain "github.com/emploihub/emploihub/internal/balance/domain"
	cartdomain "github.com/emploihub/emploihub/internal/cart/domain"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"github.com/emploihub/emploihub/internal/config"
	packdomain "github.com/emploihub/emploihub/internal/pack/domain"
	paymentdomain "github.com/emploihub/emploihub/internal/payment/domain"
	purchasedomain "github.com/emploihub/emploihub/internal/purchase/domain"
	"github.com/emploihub/emploihub/internal/seed"
	subscriptiondomain "github.com/emploihub/emploihub/internal/subscription/domain"
	usagedomain "github.com/emploihub/emploihub/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are dev conveniences; gorm derives the
			// schema from the models there.
			if err := conn.AutoMigrate(
				&balancedomain.Account{},
				&balancedomain.Transaction{},
				&catalogdomain.Entry{},
				&purchasedomain.Purchase{},
				&subscriptiondomain.Subscription{},
				&subscriptiondomain.DailyUsage{},
				&packdomain.Grant{},
				&packdomain.PromotionGrant{},
				&usagedomain.Event{},
				&paymentdomain.EventRecord{},
				&cartdomain.Item{},
				&auditdomain.Entry{},
			); err != nil {
				return err
			}
		}

		if cfg.Seed.DefaultCatalog {
			return seed.EnsureDefaultCatalog(conn)
		}
		return nil
	}),
)
