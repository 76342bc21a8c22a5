// Package domain defines the persistence models for sales, installments,
// agenda entries, reminders, notifications, and audit snapshots. These types
// are mapped with GORM and form the core data layer of the back-office
// application.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale represents a purchased travel service (ticket or tour) together with
// its payment ledger. Monetary fields use decimal arithmetic so repeated
// recomputation never accumulates floating-point drift.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - CustomerID: identifier of the buying customer; indexed for retrieval.
//   - Description: short human-readable label for the sold service.
//   - TotalPrice: full price of the sale (>= 0).
//   - DepositBaseline: the portion of TotalPrice paid at sale creation,
//     independent of any installment. Fixed at creation and never re-derived
//     from mutable state.
//   - DepositPaid: derived, = DepositBaseline + sum of paid installment amounts.
//   - OutstandingBalance: derived, = max(0, TotalPrice - DepositPaid).
//   - Version: optimistic-lock counter bumped on every ledger recompute.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Sale struct {
	ID                 string          `json:"id"          gorm:"type:char(36);primaryKey"`
	CustomerID         string          `json:"customer_id" gorm:"type:varchar(64);not null;index:idx_customer_sales"`
	Description        string          `json:"description" gorm:"type:varchar(255);not null;default:''"`
	TotalPrice         decimal.Decimal `json:"total_price"         gorm:"type:decimal(12,2);not null"`
	DepositBaseline    decimal.Decimal `json:"deposit_baseline"    gorm:"type:decimal(12,2);not null"`
	DepositPaid        decimal.Decimal `json:"deposit_paid"        gorm:"type:decimal(12,2);not null"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance" gorm:"type:decimal(12,2);not null"`
	Version            int64           `json:"-"           gorm:"not null;default:0"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Installments is the sale's payment schedule, ordered by SequenceNumber.
	Installments []Installment `json:"installments" gorm:"foreignKey:SaleID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Sale.
func (Sale) TableName() string { return "sales" }

// Installment is one scheduled partial payment belonging to exactly one Sale.
// SequenceNumber values are 1-based, contiguous, and unique within a sale.
// Only the Paid flag is mutated after creation.
type Installment struct {
	ID             string          `json:"id"      gorm:"type:char(36);primaryKey"`
	SaleID         string          `json:"sale_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_installment_sale_seq,priority:1"`
	SequenceNumber int             `json:"sequence_number" gorm:"not null;uniqueIndex:ux_installment_sale_seq,priority:2"`
	Amount         decimal.Decimal `json:"amount"  gorm:"type:decimal(12,2);not null"`
	Paid           bool            `json:"paid"    gorm:"not null;default:false"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Installment.
func (Installment) TableName() string { return "installments" }

// AgendaEntry is a personal calendar item owned by a user. The reminder
// scheduler only reads entries; the agenda UI owns their lifecycle.
type AgendaEntry struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	OwnerID   string    `json:"owner_id"  gorm:"type:varchar(64);not null;index:idx_owner_agenda"`
	Title     string    `json:"title"     gorm:"type:varchar(255);not null;default:''"`
	OccursAt  time.Time `json:"occurs_at" gorm:"not null;index"`
	Active    bool      `json:"active"    gorm:"not null;default:true"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Reminder is the optional notify-N-days-before policy for this entry.
	Reminder *Reminder `json:"reminder,omitempty" gorm:"foreignKey:AgendaEntryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AgendaEntry.
func (AgendaEntry) TableName() string { return "agenda_entries" }

// Reminder attaches a "notify N days before" policy to exactly one agenda
// entry. DaysBefore is clamped to [0,5]; 0 means "fire on the day itself".
type Reminder struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	AgendaEntryID string    `json:"agenda_entry_id" gorm:"type:char(36);not null;uniqueIndex:ux_reminder_entry"`
	DaysBefore    int       `json:"days_before"     gorm:"not null;default:0;check:days_before BETWEEN 0 AND 5"`
	Active        bool      `json:"active"          gorm:"not null;default:true"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Reminder.
func (Reminder) TableName() string { return "reminders" }

// Notification is the durable record that a reminder fired for an agenda
// entry on a given calendar day. The (agenda_entry_id, fire_date) pair is
// unique: the scheduler relies on that constraint to stay idempotent across
// repeated and concurrent ticks.
//
// FireDate is stored as a YYYY-MM-DD string so the composite unique index is
// portable across drivers and unaffected by time-of-day precision.
type Notification struct {
	ID            string    `json:"id"              gorm:"type:char(36);primaryKey"`
	RecipientID   string    `json:"recipient_id"    gorm:"type:varchar(64);not null;index:idx_recipient_notifications"`
	AgendaEntryID string    `json:"agenda_entry_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_notification_entry_day,priority:1"`
	FireDate      string    `json:"fire_date"       gorm:"type:char(10);not null;uniqueIndex:ux_notification_entry_day,priority:2"`
	Message       string    `json:"message"         gorm:"type:text;not null"`
	Read          bool      `json:"read"            gorm:"not null;default:false"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Notification.
func (Notification) TableName() string { return "notifications" }

// AuditSnapshot preserves a sale and its installments at the moment of
// deletion. Rows are immutable once written and are never deleted by the
// application. Installments holds the JSON-serialized schedule exactly as it
// stood before the delete.
type AuditSnapshot struct {
	ID                 string          `json:"id"       gorm:"type:char(36);primaryKey"`
	SaleID             string          `json:"sale_id"  gorm:"type:char(36);not null;index"`
	Category           string          `json:"category" gorm:"type:varchar(64);not null"`
	CustomerID         string          `json:"customer_id" gorm:"type:varchar(64);not null"`
	Description        string          `json:"description" gorm:"type:varchar(255);not null;default:''"`
	TotalPrice         decimal.Decimal `json:"total_price"         gorm:"type:decimal(12,2);not null"`
	DepositBaseline    decimal.Decimal `json:"deposit_baseline"    gorm:"type:decimal(12,2);not null"`
	DepositPaid        decimal.Decimal `json:"deposit_paid"        gorm:"type:decimal(12,2);not null"`
	OutstandingBalance decimal.Decimal `json:"outstanding_balance" gorm:"type:decimal(12,2);not null"`
	Installments       string          `json:"installments" gorm:"type:text;not null"`
	DeletedAt          time.Time       `json:"deleted_at"   gorm:"not null"`
	CreatedAt          time.Time       `json:"created_at"`
}

// TableName returns the database table name for AuditSnapshot.
func (AuditSnapshot) TableName() string { return "audit_snapshots" }
