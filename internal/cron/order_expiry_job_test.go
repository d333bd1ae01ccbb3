package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harnoorlabs/aromas-backend/pkg/logger"
)

type fakeExpirer struct {
	ttl     time.Duration
	expired int
	err     error
	called  int
}

func (f *fakeExpirer) ExpireUnpaidOrders(ctx context.Context, ttl time.Duration) (int, error) {
	f.called++
	f.ttl = ttl
	return f.expired, f.err
}

func TestOrderExpiryJobRunsSweep(t *testing.T) {
	expirer := &fakeExpirer{expired: 3}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: expirer,
		TTL:      6 * time.Hour,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.called != 1 {
		t.Fatalf("expected one sweep, got %d", expirer.called)
	}
	if expirer.ttl != 6*time.Hour {
		t.Fatalf("expected ttl 6h, got %s", expirer.ttl)
	}
}

func TestOrderExpiryJobDefaultsTTL(t *testing.T) {
	expirer := &fakeExpirer{}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: expirer,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if expirer.ttl != defaultPaymentTTL {
		t.Fatalf("expected default ttl, got %s", expirer.ttl)
	}
}

func TestOrderExpiryJobPropagatesErrors(t *testing.T) {
	expirer := &fakeExpirer{err: errors.New("boom")}
	job, err := NewOrderExpiryJob(OrderExpiryJobParams{
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
		Payments: expirer,
	})
	if err != nil {
		t.Fatalf("NewOrderExpiryJob: %v", err)
	}

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
