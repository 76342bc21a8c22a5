package repo

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestNotificationsStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	count, maxAt, err := NotificationsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected zero stats, got count=%d maxAt=%v", count, maxAt)
	}

	for i := 0; i < 3; i++ {
		if _, err := CreateNotification(ctx, db, "u1", uuid.NewString(), "2025-10-24", "msg"); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := CreateNotification(ctx, db, "other", uuid.NewString(), "2025-10-24", "not mine"); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	count, maxAt, err = NotificationsStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("NotificationsStats: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d; want 3", count)
	}
	if maxAt == nil || maxAt.IsZero() {
		t.Fatalf("maxUpdatedAt not populated: %v", maxAt)
	}
}

func TestSaleStats(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	count, maxAt, err := SaleStats(ctx, db, "missing")
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if count != 0 || maxAt != nil {
		t.Fatalf("expected zero stats, got count=%d maxAt=%v", count, maxAt)
	}

	sale := newRepoSale(t, db, "400", "400")

	count, maxAt, err = SaleStats(ctx, db, sale.ID)
	if err != nil {
		t.Fatalf("SaleStats: %v", err)
	}
	if count != 2 {
		t.Fatalf("count = %d; want 2", count)
	}
	if maxAt == nil || maxAt.IsZero() {
		t.Fatalf("maxUpdatedAt not populated: %v", maxAt)
	}
}
