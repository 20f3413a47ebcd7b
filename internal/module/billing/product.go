package billing

import (
	"context"
	"fmt"
)

// ProductType identifies which kind of billable a product serves. It is a
// closed enumeration; configuration referencing any other value is rejected
// at startup.
type ProductType string

const (
	ProductTypeUser ProductType = "user"
	ProductTypeTeam ProductType = "team"
)

// Valid reports whether the product type is one of the known values.
func (t ProductType) Valid() bool {
	return t == ProductTypeUser || t == ProductTypeTeam
}

// Plan is a catalog entry describing a pricing tier.
type Plan struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	StripePriceID string `json:"-"`
	TrialDays     int    `json:"trial_days"`
	Active        bool   `json:"active"`
}

// SeatCountFunc computes the billed quantity for a per-seat product.
type SeatCountFunc func(ctx context.Context, billable *Billable) (int64, error)

// Product bundles the billing configuration for one product type.
type Product struct {
	Type           ProductType
	ChargesPerSeat bool
	SeatCount      SeatCountFunc
	Plans          []*Plan
}

// Plan returns the plan with the given ID, or ErrPlanNotFound.
func (p *Product) Plan(id string) (*Plan, error) {
	for _, plan := range p.Plans {
		if plan.ID == id {
			return plan, nil
		}
	}
	return nil, ErrPlanNotFound
}

// ActivePlans returns the plans currently offered for the product.
func (p *Product) ActivePlans() []*Plan {
	active := make([]*Plan, 0, len(p.Plans))
	for _, plan := range p.Plans {
		if plan.Active {
			active = append(active, plan)
		}
	}
	return active
}

// Catalog is the set of products resolved once at startup.
type Catalog struct {
	products map[ProductType]*Product
}

// NewCatalog builds and validates a catalog.
func NewCatalog(products ...*Product) (*Catalog, error) {
	catalog := &Catalog{products: make(map[ProductType]*Product, len(products))}
	for _, p := range products {
		if !p.Type.Valid() {
			return nil, fmt.Errorf("unknown product type %q", p.Type)
		}
		if _, exists := catalog.products[p.Type]; exists {
			return nil, fmt.Errorf("duplicate product type %q", p.Type)
		}
		if p.ChargesPerSeat && p.SeatCount == nil {
			p.SeatCount = defaultSeatCount
		}
		seen := make(map[string]bool, len(p.Plans))
		for _, plan := range p.Plans {
			if plan.ID == "" || plan.StripePriceID == "" {
				return nil, fmt.Errorf("product %q has a plan without id or price", p.Type)
			}
			if seen[plan.ID] {
				return nil, fmt.Errorf("product %q has duplicate plan %q", p.Type, plan.ID)
			}
			seen[plan.ID] = true
		}
		catalog.products[p.Type] = p
	}
	return catalog, nil
}

// Product returns the product for the given type, or ErrProductNotConfigured.
func (c *Catalog) Product(t ProductType) (*Product, error) {
	p, ok := c.products[t]
	if !ok {
		return nil, ErrProductNotConfigured
	}
	return p, nil
}

func defaultSeatCount(_ context.Context, billable *Billable) (int64, error) {
	return int64(billable.Seats), nil
}
