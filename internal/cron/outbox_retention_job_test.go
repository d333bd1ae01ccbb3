package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/harnoorlabs/aromas-backend/pkg/logger"
)

type recordingOutboxRepo struct {
	cutoff      time.Time
	minAttempts int
	calls       int
	err         error
}

func (r *recordingOutboxRepo) DeletePublishedBefore(_ context.Context, _ *gorm.DB, cutoff time.Time, minAttemptCount int) (int64, error) {
	r.calls++
	r.cutoff = cutoff
	r.minAttempts = minAttemptCount
	if r.err != nil {
		return 0, r.err
	}
	return 7, nil
}

func buildOutboxRetentionJob(t *testing.T, repo *recordingOutboxRepo, minAttempts int) *outboxRetentionJob {
	t.Helper()
	built, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "cron-test", Output: io.Discard}),
		DB:          passthroughTxRunner{},
		Repository:  repo,
		MinAttempts: minAttempts,
	})
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	job, ok := built.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("unexpected job type %T", built)
	}
	return job
}

func TestOutboxRetentionReapsWithDefaults(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &recordingOutboxRepo{}
	job := buildOutboxRetentionJob(t, repo, 0)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := now.Add(-outboxRetentionDays * 24 * time.Hour)
	if !repo.cutoff.Equal(want) {
		t.Fatalf("expected cutoff %s, got %s", want, repo.cutoff)
	}
	if repo.minAttempts != outboxMinAttempts {
		t.Fatalf("expected default min attempts %d, got %d", outboxMinAttempts, repo.minAttempts)
	}
	if repo.calls != 1 {
		t.Fatalf("expected a single delete, got %d", repo.calls)
	}
}

func TestOutboxRetentionPassesConfiguredMinAttempts(t *testing.T) {
	repo := &recordingOutboxRepo{}
	job := buildOutboxRetentionJob(t, repo, 12)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if repo.minAttempts != 12 {
		t.Fatalf("expected min attempts 12, got %d", repo.minAttempts)
	}
}

func TestOutboxRetentionPropagatesError(t *testing.T) {
	repo := &recordingOutboxRepo{err: errors.New("boom")}
	job := buildOutboxRetentionJob(t, repo, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
