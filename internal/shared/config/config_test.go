package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "billing",
		Password: "secret",
		Database: "billing",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=billing password=secret dbname=billing sslmode=require",
		cfg.DSN(),
	)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Billing: BillingConfig{
				SkipTrialIfSubscribedBefore: 30,
				LockTTL:                     30 * time.Second,
				Products: []ProductConfig{
					{
						Type: "user",
						Plans: []PlanConfig{
							{ID: "pro", Name: "Pro", StripePriceID: "price_123", TrialDays: 14, Active: true},
						},
					},
				},
			},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("negative trial threshold", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.SkipTrialIfSubscribedBefore = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("plan without price", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.Products[0].Plans[0].StripePriceID = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("product without type", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.Products[0].Type = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative trial days", func(t *testing.T) {
		cfg := valid()
		cfg.Billing.Products[0].Plans[0].TrialDays = -7
		assert.Error(t, cfg.Validate())
	})
}
