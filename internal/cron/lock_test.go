package cron

import (
	"context"
	"testing"
	"time"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value.(string)
	return true, nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func TestRedisLockAcquireIsExclusive(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	first, err := NewRedisLock(store, "lock", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	second, err := NewRedisLock(store, "lock", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}

	held, err := first.Acquire(ctx)
	if err != nil || !held {
		t.Fatalf("expected first acquire to succeed, got held=%v err=%v", held, err)
	}
	held, err = second.Acquire(ctx)
	if err != nil || held {
		t.Fatalf("expected second acquire to fail, got held=%v err=%v", held, err)
	}
}

func TestRedisLockReleaseOnlyFreesOwnLease(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()

	lock, err := NewRedisLock(store, "lock", time.Minute)
	if err != nil {
		t.Fatalf("new lock: %v", err)
	}
	if _, err := lock.Acquire(ctx); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// Simulate another instance taking over after the lease expired.
	store.values["lock"] = "someone-else"
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if store.values["lock"] != "someone-else" {
		t.Fatal("release must not free a lease it no longer owns")
	}

	store.values["lock"] = lock.token
	if err := lock.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, ok := store.values["lock"]; ok {
		t.Fatal("expected owned lease to be freed")
	}
}
