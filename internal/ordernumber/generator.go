package ordernumber

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/metrics"
)

// Order numbers look like 20260828-000042-17: the local date, a 6-digit
// per-day sequence and a 2-digit random suffix. The sequence keeps numbers
// sortable and readable; it is not race-free, so uniqueness comes from the
// suffix plus the existence check below.
const (
	maxRedraws       = 100
	narrowSuffixSize = 100
	wideSuffixSize   = 10000
)

// Store answers the two questions the generator has for the orders table.
type Store interface {
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	OrderNumberExists(ctx context.Context, orderNumber string) (bool, error)
}

// Generator allocates unique order numbers. The clock and random source are
// injectable for deterministic tests.
type Generator struct {
	store   Store
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
	intn    func(n int) int
}

func NewGenerator(store Store, m *metrics.CheckoutMetrics) (*Generator, error) {
	if store == nil {
		return nil, errors.New("order number store is required")
	}
	return &Generator{
		store:   store,
		metrics: m,
		now:     time.Now,
		intn:    rand.Intn,
	}, nil
}

// Next returns an order number that does not exist in the orders table at
// the time of the check. The 2-digit suffix is redrawn up to 100 times on
// collision, then widened to 4 digits for one final draw.
func (g *Generator) Next(ctx context.Context) (string, error) {
	now := g.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	count, err := g.store.CountCreatedSince(ctx, midnight)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting today's orders")
	}

	prefix := fmt.Sprintf("%s-%06d", now.Format("20060102"), count+1)

	attempts := 0
	for ; attempts < maxRedraws; attempts++ {
		candidate := fmt.Sprintf("%s-%02d", prefix, g.intn(narrowSuffixSize))
		exists, err := g.store.OrderNumberExists(ctx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking order number uniqueness")
		}
		if !exists {
			g.metrics.ObserveOrderNumberDraws(attempts + 1)
			return candidate, nil
		}
	}

	// The narrow space is exhausted for this prefix; widen the suffix so
	// termination is overwhelmingly likely.
	candidate := fmt.Sprintf("%s-%04d", prefix, g.intn(wideSuffixSize))
	exists, err := g.store.OrderNumberExists(ctx, candidate)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking widened order number uniqueness")
	}
	if exists {
		return "", pkgerrors.New(pkgerrors.CodeOrderNumberExhausted, "order number suffix space exhausted")
	}
	g.metrics.ObserveOrderNumberDraws(attempts + 1)
	return candidate, nil
}
