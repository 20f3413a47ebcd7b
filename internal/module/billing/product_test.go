package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalogValidation(t *testing.T) {
	valid := func() *Product {
		return &Product{
			Type: ProductTypeUser,
			Plans: []*Plan{
				{ID: "basic", StripePriceID: "price_basic", Active: true},
			},
		}
	}

	t.Run("accepts a valid product", func(t *testing.T) {
		catalog, err := NewCatalog(valid())
		require.NoError(t, err)
		p, err := catalog.Product(ProductTypeUser)
		require.NoError(t, err)
		assert.Equal(t, ProductTypeUser, p.Type)
	})

	t.Run("rejects unknown product type", func(t *testing.T) {
		p := valid()
		p.Type = "enterprise"
		_, err := NewCatalog(p)
		assert.ErrorContains(t, err, "unknown product type")
	})

	t.Run("rejects duplicate product type", func(t *testing.T) {
		_, err := NewCatalog(valid(), valid())
		assert.ErrorContains(t, err, "duplicate product type")
	})

	t.Run("rejects plan without price", func(t *testing.T) {
		p := valid()
		p.Plans[0].StripePriceID = ""
		_, err := NewCatalog(p)
		assert.ErrorContains(t, err, "without id or price")
	})

	t.Run("rejects duplicate plan", func(t *testing.T) {
		p := valid()
		p.Plans = append(p.Plans, &Plan{ID: "basic", StripePriceID: "price_other"})
		_, err := NewCatalog(p)
		assert.ErrorContains(t, err, "duplicate plan")
	})

	t.Run("unconfigured product type", func(t *testing.T) {
		catalog, err := NewCatalog(valid())
		require.NoError(t, err)
		_, err = catalog.Product(ProductTypeTeam)
		assert.ErrorIs(t, err, ErrProductNotConfigured)
	})
}

func TestProductPlanLookup(t *testing.T) {
	p := &Product{
		Type: ProductTypeUser,
		Plans: []*Plan{
			{ID: "basic", StripePriceID: "price_basic", Active: true},
			{ID: "legacy", StripePriceID: "price_legacy", Active: false},
		},
	}

	plan, err := p.Plan("basic")
	require.NoError(t, err)
	assert.Equal(t, "price_basic", plan.StripePriceID)

	_, err = p.Plan("nope")
	assert.ErrorIs(t, err, ErrPlanNotFound)

	active := p.ActivePlans()
	require.Len(t, active, 1)
	assert.Equal(t, "basic", active[0].ID)
}

func TestDefaultSeatCount(t *testing.T) {
	catalog, err := NewCatalog(&Product{
		Type:           ProductTypeTeam,
		ChargesPerSeat: true,
		Plans: []*Plan{
			{ID: "team", StripePriceID: "price_team", Active: true},
		},
	})
	require.NoError(t, err)

	p, err := catalog.Product(ProductTypeTeam)
	require.NoError(t, err)
	require.NotNil(t, p.SeatCount)

	n, err := p.SeatCount(context.Background(), &Billable{Seats: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}
