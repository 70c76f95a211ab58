package ai

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryQuota_WithinAndOverLimit(t *testing.T) {
	q := NewInMemoryQuota(2, time.Hour)
	ctx := context.Background()

	for i, want := range []bool{true, true, false} {
		ok, err := q.Take(ctx, "203.0.113.7")
		if err != nil {
			t.Fatalf("Take() error = %v", err)
		}
		if ok != want {
			t.Errorf("Take() #%d = %v, want %v", i+1, ok, want)
		}
	}

	ok, _ := q.Take(ctx, "198.51.100.1")
	if !ok {
		t.Error("Take() for a different key should be allowed")
	}
}

func TestInMemoryQuota_WindowResets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := NewInMemoryQuota(1, time.Hour)
	q.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := q.Take(ctx, "k"); !ok {
		t.Fatal("first Take() should be allowed")
	}
	if ok, _ := q.Take(ctx, "k"); ok {
		t.Fatal("second Take() in the same window should be denied")
	}

	now = now.Add(time.Hour)
	if ok, _ := q.Take(ctx, "k"); !ok {
		t.Error("Take() after the window should be allowed")
	}
	if got := q.Used("k"); got != 1 {
		t.Errorf("Used() = %d, want 1", got)
	}
}

func TestInMemoryQuota_Unlimited(t *testing.T) {
	q := NewInMemoryQuota(0, time.Hour)
	for range 100 {
		if ok, _ := q.Take(context.Background(), "k"); !ok {
			t.Fatal("Take() with limit 0 should always be allowed")
		}
	}
}

func TestRedisQuota_NilClient(t *testing.T) {
	q := NewRedisQuota(nil, 5, time.Hour)
	if _, err := q.Take(context.Background(), "k"); err == nil {
		t.Fatal("Take() should fail with a nil client")
	}
}

func TestUnlimitedQuota(t *testing.T) {
	ok, err := UnlimitedQuota{}.Take(context.Background(), "anything")
	if err != nil || !ok {
		t.Errorf("Take() = %v, %v; want true, nil", ok, err)
	}
}

func TestInMemoryQuota_Refund(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	q := NewInMemoryQuota(1, time.Hour)
	q.now = func() time.Time { return now }
	ctx := context.Background()

	if err := q.Refund(ctx, "k"); err != nil {
		t.Fatalf("Refund() on an unknown key error = %v", err)
	}
	if ok, _ := q.Take(ctx, "k"); !ok {
		t.Fatal("first Take() should be allowed")
	}
	if err := q.Refund(ctx, "k"); err != nil {
		t.Fatalf("Refund() error = %v", err)
	}
	if got := q.Used("k"); got != 0 {
		t.Fatalf("Used() after refund = %d, want 0", got)
	}
	if err := q.Refund(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if got := q.Used("k"); got != 0 {
		t.Errorf("Used() = %d, refunds must not go below zero", got)
	}
	if ok, _ := q.Take(ctx, "k"); !ok {
		t.Error("Take() after a refund should be allowed")
	}
}

func TestRedisQuota_RefundNilClient(t *testing.T) {
	if err := NewRedisQuota(nil, 5, time.Hour).Refund(context.Background(), "k"); err == nil {
		t.Fatal("Refund() should fail with a nil client")
	}
	if err := NewRedisQuota(nil, 0, time.Hour).Refund(context.Background(), "k"); err != nil {
		t.Errorf("Refund() with no limit error = %v, want nil", err)
	}
}
