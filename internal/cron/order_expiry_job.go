package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/logger"
)

const defaultPaymentTTL = 24 * time.Hour

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type unpaidOrderExpirer interface {
	ExpireUnpaidOrders(ctx context.Context, ttl time.Duration) (int, error)
}

// OrderExpiryJobParams configure the unpaid order sweep.
type OrderExpiryJobParams struct {
	Logger   *logger.Logger
	Payments unpaidOrderExpirer
	TTL      time.Duration
}

// NewOrderExpiryJob builds the cron job that expires online orders whose
// payment never completed. The payments service owns the per-order work:
// marking the payment failed, cancelling the order and releasing stock.
func NewOrderExpiryJob(params OrderExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Payments == nil {
		return nil, fmt.Errorf("payments expirer required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultPaymentTTL
	}
	return &orderExpiryJob{
		logg:     params.Logger,
		payments: params.Payments,
		ttl:      ttl,
	}, nil
}

type orderExpiryJob struct {
	logg     *logger.Logger
	payments unpaidOrderExpirer
	ttl      time.Duration
}

func (j *orderExpiryJob) Name() string { return "order-expiry" }

func (j *orderExpiryJob) Run(ctx context.Context) error {
	expired, err := j.payments.ExpireUnpaidOrders(ctx, j.ttl)
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"ttl":           j.ttl.String(),
		"orders_closed": expired,
	})
	if err != nil {
		j.logg.Error(logCtx, "order expiry sweep finished with errors", err)
		return fmt.Errorf("order expiry: %w", err)
	}
	j.logg.Info(logCtx, "order expiry sweep complete")
	return nil
}
