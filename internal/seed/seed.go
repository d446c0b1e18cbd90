// Package seed bootstraps reference data so a fresh install has a
// sellable catalog out of the box.
package seed

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/emploihub/emploihub/internal/catalog/domain"
	"gorm.io/gorm"
)

type defaultEntry struct {
	kind         catalogdomain.Kind
	name         string
	description  string
	price        int64
	displayOrder int
	config       any
}

var defaultCatalog = []defaultEntry{
	{
		kind:         catalogdomain.KindCreditPackage,
		name:         "Pack Découverte",
		description:  "100 crédits pour démarrer",
		price:        5000,
		displayOrder: 1,
		config:       catalogdomain.CreditConfig{Credits: 100},
	},
	{
		kind:         catalogdomain.KindCreditPackage,
		name:         "Pack Standard",
		description:  "500 crédits + 50 offerts",
		price:        20000,
		displayOrder: 2,
		config:       catalogdomain.CreditConfig{Credits: 500, BonusCredits: 50},
	},
	{
		kind:         catalogdomain.KindCreditPackage,
		name:         "Pack Premium",
		description:  "1500 crédits + 250 offerts",
		price:        50000,
		displayOrder: 3,
		config:       catalogdomain.CreditConfig{Credits: 1500, BonusCredits: 250},
	},
	{
		kind:         catalogdomain.KindCVPack,
		name:         "Pack CV 50",
		description:  "50 profils consultables pendant 30 jours",
		price:        15000,
		displayOrder: 4,
		config:       catalogdomain.CVPackConfig{ProfileQuota: 50, DurationDays: 30},
	},
	{
		kind:         catalogdomain.KindCVPack,
		name:         "Pack CV 200",
		description:  "200 profils consultables pendant 60 jours",
		price:        45000,
		displayOrder: 5,
		config:       catalogdomain.CVPackConfig{ProfileQuota: 200, DurationDays: 60},
	},
	{
		kind:         catalogdomain.KindEnterprisePack,
		name:         "Entreprise Essentiel",
		description:  "200 CV et 50 matchings IA par mois",
		price:        100000,
		displayOrder: 6,
		config: catalogdomain.EnterpriseConfig{
			MonthlyCVQuota:       200,
			MonthlyMatchingQuota: 50,
			DailyCVCap:           20,
			DurationDays:         30,
		},
	},
	{
		kind:         catalogdomain.KindEnterprisePack,
		name:         "Entreprise Illimité",
		description:  "CV et matching IA illimités, activation après validation",
		price:        500000,
		displayOrder: 7,
		config: catalogdomain.EnterpriseConfig{
			UnlimitedCV:       true,
			UnlimitedMatching: true,
			DurationDays:      30,
			RequiresApproval:  true,
		},
	},
	{
		kind:         catalogdomain.KindPromotionPack,
		name:         "Promotion Formateur",
		description:  "3 formations mises en avant pendant 30 jours",
		price:        25000,
		displayOrder: 8,
		config:       catalogdomain.PromotionConfig{MaxActivePromotions: 3, DurationDays: 30},
	},
}

// EnsureDefaultCatalog inserts the default catalog once. An install that
// already has entries, active or not, is left untouched.
func EnsureDefaultCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&catalogdomain.Entry{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		for _, def := range defaultCatalog {
			raw, err := json.Marshal(def.config)
			if err != nil {
				return err
			}
			entry := catalogdomain.Entry{
				ID:           node.Generate(),
				Kind:         def.kind,
				Name:         def.name,
				Description:  def.description,
				Price:        def.price,
				Currency:     "XOF",
				Active:       true,
				DisplayOrder: def.displayOrder,
				Config:       raw,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
