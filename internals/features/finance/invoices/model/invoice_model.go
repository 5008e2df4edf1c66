// file: internals/features/finance/invoices/model/invoice_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ==============================
   ENUM — status invoice
============================== */

type InvoiceStatus string

const (
	InvoiceStatusActive InvoiceStatus = "active"
	InvoiceStatusClosed InvoiceStatus = "closed"
	// "deleted" tidak pernah disimpan di kolom status; di DB diwakili
	// invoice_deleted_at (soft delete) dan hanya muncul di response.
	InvoiceStatusDeleted InvoiceStatus = "deleted"
)

/* ==============================================
   MODEL — invoice tagihan per siswa per term
============================================== */

type Invoice struct {
	// PK
	InvoiceID uuid.UUID `gorm:"column:invoice_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"invoice_id"`

	// Referensi opaque; siswa/sesi/term/kelas sudah divalidasi oleh caller
	InvoiceStudentID uuid.UUID `gorm:"column:invoice_student_id;type:uuid;not null;index:idx_invoices_student_term,priority:1" json:"invoice_student_id"`
	InvoiceSessionID uuid.UUID `gorm:"column:invoice_session_id;type:uuid;not null;index" json:"invoice_session_id"`
	InvoiceTermID    uuid.UUID `gorm:"column:invoice_term_id;type:uuid;not null;index:idx_invoices_student_term,priority:2" json:"invoice_term_id"`
	InvoiceClassID   uuid.UUID `gorm:"column:invoice_class_id;type:uuid;not null;index" json:"invoice_class_id"`

	// Carry-forward dari term sebelumnya; boleh negatif (kredit)
	InvoiceBalanceFromPreviousTerm decimal.Decimal `gorm:"column:invoice_balance_from_previous_term;type:numeric(18,2);not null;default:0" json:"invoice_balance_from_previous_term"`

	InvoiceStatus InvoiceStatus `gorm:"column:invoice_status;type:varchar(20);not null;default:'active';index" json:"invoice_status"`

	// Relasi: items & receipts milik eksklusif invoice ini
	InvoiceItems    []InvoiceItem `gorm:"foreignKey:InvoiceItemInvoiceID;references:InvoiceID" json:"invoice_items"`
	InvoiceReceipts []Receipt     `gorm:"foreignKey:ReceiptInvoiceID;references:InvoiceID" json:"invoice_receipts"`

	// Audit
	InvoiceCreatedAt time.Time      `gorm:"column:invoice_created_at;type:timestamptz;not null;default:now()" json:"invoice_created_at"`
	InvoiceUpdatedAt time.Time      `gorm:"column:invoice_updated_at;type:timestamptz;not null;default:now()" json:"invoice_updated_at"`
	InvoiceDeletedAt gorm.DeletedAt `gorm:"column:invoice_deleted_at;type:timestamptz;index" json:"-"`
}

func (Invoice) TableName() string { return "invoices" }

/* ======================================
   HOOKS — default status & timestamps
====================================== */

func (m *Invoice) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.InvoiceStatus == "" {
		m.InvoiceStatus = InvoiceStatusActive
	}
	if m.InvoiceCreatedAt.IsZero() {
		m.InvoiceCreatedAt = now
	}
	m.InvoiceUpdatedAt = now
	return nil
}

func (m *Invoice) BeforeUpdate(tx *gorm.DB) error {
	tx.Statement.SetColumn("InvoiceUpdatedAt", time.Now())
	return nil
}

// EffectiveStatus memetakan soft delete ke status "deleted" untuk response.
func (m *Invoice) EffectiveStatus() InvoiceStatus {
	if m.InvoiceDeletedAt.Valid {
		return InvoiceStatusDeleted
	}
	return m.InvoiceStatus
}
