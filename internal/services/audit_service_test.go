package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
)

func TestAudit_DeleteWritesSnapshotThenDeletes(t *testing.T) {
	db := newTestDB(t)
	sale := seedSale(t, db, "1000", "200", "400", "400")

	fixed := time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC)
	svc := &AuditService{DB: db, Now: func() time.Time { return fixed }}

	snap, err := svc.DeleteSale(context.Background(), sale.ID, "tour")
	if err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	// Snapshot mirrors the pre-deletion ledger state.
	if snap.SaleID != sale.ID || snap.Category != "tour" {
		t.Fatalf("snapshot identity = %s/%s", snap.SaleID, snap.Category)
	}
	if !snap.TotalPrice.Equal(sale.TotalPrice) ||
		!snap.DepositBaseline.Equal(sale.DepositBaseline) ||
		!snap.DepositPaid.Equal(sale.DepositPaid) ||
		!snap.OutstandingBalance.Equal(sale.OutstandingBalance) {
		t.Fatalf("snapshot ledger fields do not match sale")
	}
	if !snap.DeletedAt.Equal(fixed) {
		t.Fatalf("DeletedAt = %v; want injected clock %v", snap.DeletedAt, fixed)
	}

	var installments []domain.Installment
	if err := json.Unmarshal([]byte(snap.Installments), &installments); err != nil {
		t.Fatalf("decode snapshot schedule: %v", err)
	}
	if len(installments) != 2 {
		t.Fatalf("snapshot installments = %d; want 2", len(installments))
	}
	for i, in := range installments {
		if in.SequenceNumber != i+1 || in.SaleID != sale.ID {
			t.Fatalf("snapshot installment %d = %+v", i, in)
		}
	}

	// Sale and its installments are gone.
	var saleCount, instCount int64
	db.Model(&domain.Sale{}).Where("id = ?", sale.ID).Count(&saleCount)
	db.Model(&domain.Installment{}).Where("sale_id = ?", sale.ID).Count(&instCount)
	if saleCount != 0 || instCount != 0 {
		t.Fatalf("sale/installments survived delete: %d/%d", saleCount, instCount)
	}

	// And the snapshot row is durably persisted.
	var snapCount int64
	db.Model(&domain.AuditSnapshot{}).Where("sale_id = ?", sale.ID).Count(&snapCount)
	if snapCount != 1 {
		t.Fatalf("snapshot rows = %d; want 1", snapCount)
	}
}

func TestAudit_SaleNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := &AuditService{DB: db}

	_, err := svc.DeleteSale(context.Background(), "missing", "ticket")
	if !errors.Is(err, ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound, got %v", err)
	}

	var snapCount int64
	db.Model(&domain.AuditSnapshot{}).Count(&snapCount)
	if snapCount != 0 {
		t.Fatalf("snapshot written for missing sale")
	}
}

func TestAudit_BlankCategoryRejected(t *testing.T) {
	db := newTestDB(t)
	sale := seedSale(t, db, "500", "100", "200", "200")
	svc := &AuditService{DB: db}

	_, err := svc.DeleteSale(context.Background(), sale.ID, "   ")
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}

	var saleCount int64
	db.Model(&domain.Sale{}).Where("id = ?", sale.ID).Count(&saleCount)
	if saleCount != 1 {
		t.Fatalf("sale deleted despite invalid category")
	}
}

// When the snapshot cannot be written the delete must not proceed: prefer an
// orphaned, undeleted record over silent data loss.
func TestAudit_SnapshotFailureBlocksDelete(t *testing.T) {
	// Migrate everything except audit_snapshots so the snapshot insert fails.
	dsn := fmt.Sprintf("file:audit_partial_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(&domain.Sale{}, &domain.Installment{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	sale := seedSale(t, db, "1000", "200", "400", "400")
	svc := &AuditService{DB: db}

	_, err = svc.DeleteSale(context.Background(), sale.ID, "ticket")
	if err == nil {
		t.Fatalf("expected error when snapshot table is missing")
	}
	if errors.Is(err, ErrSaleNotFound) || errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("unexpected sentinel mapping: %v", err)
	}

	// Fail closed: the sale survives.
	var saleCount int64
	db.Model(&domain.Sale{}).Where("id = ?", sale.ID).Count(&saleCount)
	if saleCount != 1 {
		t.Fatalf("sale deleted although snapshot write failed")
	}
}

// Force a failure on the delete itself: the transaction must also roll back
// the already-written snapshot so neither side is observable without the
// other.
func TestAudit_DeleteFailureRollsBackSnapshot(t *testing.T) {
	db := newTestDB(t)
	sale := seedSale(t, db, "1000", "200", "400", "400")

	if err := db.Callback().Delete().Before("gorm:delete").Register("force_err_on_sales_delete", func(tx *gorm.DB) {
		if tx.Statement != nil && strings.Contains(tx.Statement.Table, "sales") {
			tx.AddError(errors.New("forced delete failure"))
		}
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	svc := &AuditService{DB: db}
	if _, err := svc.DeleteSale(context.Background(), sale.ID, "tour"); err == nil {
		t.Fatalf("expected forced delete failure")
	}

	var snapCount, saleCount int64
	db.Model(&domain.AuditSnapshot{}).Where("sale_id = ?", sale.ID).Count(&snapCount)
	db.Model(&domain.Sale{}).Where("id = ?", sale.ID).Count(&saleCount)
	if snapCount != 0 {
		t.Fatalf("snapshot visible without its delete")
	}
	if saleCount != 1 {
		t.Fatalf("sale missing after rolled-back delete")
	}
}
