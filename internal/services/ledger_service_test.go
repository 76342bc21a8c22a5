package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/domain"
	"github.com/mirkodgzconsulting/gibravotravel-sub005/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := db.AutoMigrate(
		&domain.Sale{}, &domain.Installment{},
		&domain.AgendaEntry{}, &domain.Reminder{}, &domain.Notification{},
		&domain.AuditSnapshot{},
	); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

// seedSale inserts a sale with the given total, baseline, and installment
// amounts (all unpaid) and returns it with installments loaded.
func seedSale(t *testing.T, db *gorm.DB, total, baseline string, amounts ...string) *domain.Sale {
	t.Helper()
	sale := &domain.Sale{
		ID:              uuid.NewString(),
		CustomerID:      "cust-1",
		Description:     "Rome bus tour",
		TotalPrice:      dec(t, total),
		DepositBaseline: dec(t, baseline),
		DepositPaid:     dec(t, baseline),
	}
	sale.OutstandingBalance = sale.TotalPrice.Sub(sale.DepositPaid)
	for i, a := range amounts {
		sale.Installments = append(sale.Installments, domain.Installment{
			ID:             uuid.NewString(),
			SaleID:         sale.ID,
			SequenceNumber: i + 1,
			Amount:         dec(t, a),
		})
	}
	if err := repo.CreateSale(context.Background(), db, sale); err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return sale
}

func TestLedger_ScenarioBalances(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	sale := seedSale(t, db, "1000", "200", "400", "400")

	if !sale.DepositPaid.Equal(dec(t, "200")) || !sale.OutstandingBalance.Equal(dec(t, "800")) {
		t.Fatalf("seed state: paid=%s outstanding=%s", sale.DepositPaid, sale.OutstandingBalance)
	}

	got, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true)
	if err != nil {
		t.Fatalf("mark first paid: %v", err)
	}
	if !got.DepositPaid.Equal(dec(t, "600")) || !got.OutstandingBalance.Equal(dec(t, "400")) {
		t.Fatalf("after first: paid=%s outstanding=%s", got.DepositPaid, got.OutstandingBalance)
	}

	got, err = svc.SetInstallmentPaid(context.Background(), sale.Installments[1].ID, true)
	if err != nil {
		t.Fatalf("mark second paid: %v", err)
	}
	if !got.DepositPaid.Equal(dec(t, "1000")) || !got.OutstandingBalance.Equal(dec(t, "0")) {
		t.Fatalf("after second: paid=%s outstanding=%s", got.DepositPaid, got.OutstandingBalance)
	}
}

func TestLedger_InvariantHoldsAfterEveryToggle(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	sale := seedSale(t, db, "900", "100", "200", "300", "300")

	toggles := []struct {
		idx  int
		paid bool
	}{
		{0, true}, {2, true}, {0, false}, {1, true}, {0, true}, {2, false},
	}
	for _, tg := range toggles {
		got, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[tg.idx].ID, tg.paid)
		if err != nil {
			t.Fatalf("toggle seq=%d paid=%v: %v", tg.idx+1, tg.paid, err)
		}

		want := got.DepositBaseline
		for _, in := range got.Installments {
			if in.Paid {
				want = want.Add(in.Amount)
			}
		}
		if !got.DepositPaid.Equal(want) {
			t.Fatalf("depositPaid=%s; want baseline+paid=%s", got.DepositPaid, want)
		}
		wantOut := got.TotalPrice.Sub(got.DepositPaid)
		if wantOut.IsNegative() {
			wantOut = decimal.Zero
		}
		if !got.OutstandingBalance.Equal(wantOut) {
			t.Fatalf("outstanding=%s; want %s", got.OutstandingBalance, wantOut)
		}
	}
}

func TestLedger_SetPaidIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	sale := seedSale(t, db, "1000", "200", "400", "400")

	first, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if !first.DepositPaid.Equal(second.DepositPaid) ||
		!first.OutstandingBalance.Equal(second.OutstandingBalance) {
		t.Fatalf("repeat toggle changed state: %s/%s vs %s/%s",
			first.DepositPaid, first.OutstandingBalance,
			second.DepositPaid, second.OutstandingBalance)
	}
}

func TestLedger_UnpayRestoresBalance(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	sale := seedSale(t, db, "1000", "200", "400", "400")

	if _, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true); err != nil {
		t.Fatalf("pay: %v", err)
	}
	got, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, false)
	if err != nil {
		t.Fatalf("unpay: %v", err)
	}
	if !got.DepositPaid.Equal(dec(t, "200")) || !got.OutstandingBalance.Equal(dec(t, "800")) {
		t.Fatalf("after unpay: paid=%s outstanding=%s", got.DepositPaid, got.OutstandingBalance)
	}
}

func TestLedger_ReturnsInstallmentsInSequenceOrder(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	sale := seedSale(t, db, "600", "0", "100", "200", "300")

	got, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[2].ID, true)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if len(got.Installments) != 3 {
		t.Fatalf("want 3 installments, got %d", len(got.Installments))
	}
	for i, in := range got.Installments {
		if in.SequenceNumber != i+1 {
			t.Fatalf("position %d has sequence %d", i, in.SequenceNumber)
		}
	}
}

func TestLedger_InstallmentNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}

	_, err := svc.SetInstallmentPaid(context.Background(), "missing", true)
	if !errors.Is(err, ErrInstallmentNotFound) {
		t.Fatalf("expected ErrInstallmentNotFound, got %v", err)
	}
}

func TestLedger_IntegrityViolationAbortsWithoutWriting(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	// Schedule sums to 700 but total is 1000 with baseline 200: off by 100.
	sale := seedSale(t, db, "1000", "200", "400", "300")

	_, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true)
	if !errors.Is(err, ErrDataIntegrity) {
		t.Fatalf("expected ErrDataIntegrity, got %v", err)
	}

	// The installment flag must be untouched.
	var in domain.Installment
	if err := db.Where("id = ?", sale.Installments[0].ID).First(&in).Error; err != nil {
		t.Fatalf("reload installment: %v", err)
	}
	if in.Paid {
		t.Fatalf("installment was written despite integrity failure")
	}
}

func TestLedger_SubCentRoundingTolerated(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	// 50.00 + 50.01 = 100.01 vs total 100.00: within the 0.01 epsilon.
	sale := seedSale(t, db, "100.00", "0", "50.00", "50.01")

	if _, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	got, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[1].ID, true)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	// depositPaid overshoots the total by a cent; outstanding clamps at zero.
	if !got.OutstandingBalance.Equal(decimal.Zero) {
		t.Fatalf("outstanding=%s; want 0", got.OutstandingBalance)
	}
}

func TestLedger_ConcurrentModificationAfterRetries(t *testing.T) {
	db := newTestDB(t)
	sale := seedSale(t, db, "1000", "200", "400", "400")

	// Fail every sale update with a version conflict; the service should
	// exhaust its retry budget and surface ErrConcurrentModification.
	if err := db.Callback().Update().Before("gorm:update").Register("force_sale_conflict", func(tx *gorm.DB) {
		if tx.Statement != nil && strings.Contains(tx.Statement.Table, "sales") {
			tx.AddError(repo.ErrVersionConflict)
		}
	}); err != nil {
		t.Fatalf("register callback: %v", err)
	}

	svc := &LedgerService{DB: db, MaxRetries: 3}
	_, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true)
	if !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	// The rollback must also have undone the installment write.
	var in domain.Installment
	if err := db.Where("id = ?", sale.Installments[0].ID).First(&in).Error; err != nil {
		t.Fatalf("reload installment: %v", err)
	}
	if in.Paid {
		t.Fatalf("installment write leaked out of rolled-back transaction")
	}
}

func TestLedger_VersionBumpsOnEveryToggle(t *testing.T) {
	db := newTestDB(t)
	svc := &LedgerService{DB: db}
	sale := seedSale(t, db, "1000", "200", "400", "400")

	if _, err := svc.SetInstallmentPaid(context.Background(), sale.Installments[0].ID, true); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	var reloaded domain.Sale
	if err := db.Where("id = ?", sale.ID).First(&reloaded).Error; err != nil {
		t.Fatalf("reload sale: %v", err)
	}
	if reloaded.Version != sale.Version+1 {
		t.Fatalf("version=%d; want %d", reloaded.Version, sale.Version+1)
	}
}
