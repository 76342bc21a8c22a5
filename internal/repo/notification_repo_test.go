package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestCreateNotification_DuplicateDayIsRejected(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	entryID := uuid.NewString()

	first, err := CreateNotification(ctx, db, "u1", entryID, "2025-10-24", "Reminder: \"Tour\" is in 3 days")
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.ID == "" || first.Read {
		t.Fatalf("unexpected notification: %+v", first)
	}

	// Same entry, same day → unique index fires.
	if _, err := CreateNotification(ctx, db, "u1", entryID, "2025-10-24", "again"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	// Same entry, different day is fine.
	if _, err := CreateNotification(ctx, db, "u1", entryID, "2025-10-25", "next day"); err != nil {
		t.Fatalf("different day: %v", err)
	}

	// Different entry, same day is fine.
	if _, err := CreateNotification(ctx, db, "u1", uuid.NewString(), "2025-10-24", "other entry"); err != nil {
		t.Fatalf("different entry: %v", err)
	}
}

func TestNotificationExists(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	entryID := uuid.NewString()

	exists, err := NotificationExists(ctx, db, entryID, "2025-10-24")
	if err != nil || exists {
		t.Fatalf("expected no row yet: exists=%v err=%v", exists, err)
	}

	if _, err := CreateNotification(ctx, db, "u1", entryID, "2025-10-24", "msg"); err != nil {
		t.Fatalf("create: %v", err)
	}

	exists, err = NotificationExists(ctx, db, entryID, "2025-10-24")
	if err != nil || !exists {
		t.Fatalf("expected existing row: exists=%v err=%v", exists, err)
	}
}

func TestListNotificationsPage_And_Count(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := CreateNotification(ctx, db, "u1", uuid.NewString(), fmt.Sprintf("2025-10-%02d", i+1), "msg"); err != nil {
			t.Fatalf("seed %d: %v", i, err)
		}
	}
	if _, err := CreateNotification(ctx, db, "other", uuid.NewString(), "2025-10-01", "not mine"); err != nil {
		t.Fatalf("seed other: %v", err)
	}

	total, err := CountNotifications(ctx, db, "u1")
	if err != nil || total != 5 {
		t.Fatalf("count = %d err=%v; want 5", total, err)
	}

	page, err := ListNotificationsPage(ctx, db, "u1", 0, 3)
	if err != nil {
		t.Fatalf("ListNotificationsPage: %v", err)
	}
	if len(page) != 3 {
		t.Fatalf("page len = %d; want 3", len(page))
	}
	for _, n := range page {
		if n.RecipientID != "u1" {
			t.Fatalf("leaked row for %q", n.RecipientID)
		}
	}

	rest, err := ListNotificationsPage(ctx, db, "u1", 3, 3)
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(rest) != 2 {
		t.Fatalf("second page len = %d; want 2", len(rest))
	}
}

func TestMarkNotificationRead_Ownership(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	n, err := CreateNotification(ctx, db, "u1", uuid.NewString(), "2025-10-24", "msg")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := MarkNotificationRead(ctx, db, n.ID, "intruder"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign recipient, got %v", err)
	}
	if err := MarkNotificationRead(ctx, db, n.ID, "u1"); err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}

	var read bool
	db.Raw("SELECT read FROM notifications WHERE id = ?", n.ID).Scan(&read)
	if !read {
		t.Fatalf("read flag not persisted")
	}
}

func Test_isUniqueViolation(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{gorm.ErrDuplicatedKey, true},
		{errors.New("UNIQUE constraint failed: notifications.agenda_entry_id"), true},
		{errors.New("duplicate key value violates unique constraint \"ux\""), true},
		{errors.New("constraint failed: UNIQUE constraint failed"), true},
		{errors.New("connection reset"), false},
	}
	for _, tc := range cases {
		if got := isUniqueViolation(tc.err); got != tc.want {
			t.Fatalf("isUniqueViolation(%v) = %v; want %v", tc.err, got, tc.want)
		}
	}
}
