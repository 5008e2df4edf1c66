// file: internals/features/finance/invoices/model/receipt_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ==============================================
   MODEL — bukti pembayaran terhadap invoice
============================================== */

type Receipt struct {
	// PK
	ReceiptID uuid.UUID `gorm:"column:receipt_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"receipt_id"`

	// FK → invoices(invoice_id)
	ReceiptInvoiceID uuid.UUID `gorm:"column:receipt_invoice_id;type:uuid;not null;index" json:"receipt_invoice_id"`

	// Nominal harus > 0; tidak ada cek terhadap sisa tagihan:
	// overpayment sah dan menghasilkan saldo kredit.
	ReceiptAmount decimal.Decimal `gorm:"column:receipt_amount;type:numeric(18,2);not null;check:receipt_amount>0" json:"receipt_amount"`

	// Tanggal kalender (tanpa jam)
	ReceiptPaymentDate time.Time `gorm:"column:receipt_payment_date;type:date;not null" json:"receipt_payment_date"`

	ReceiptComment *string `gorm:"column:receipt_comment;type:text" json:"receipt_comment,omitempty"`

	// Audit
	ReceiptCreatedAt time.Time      `gorm:"column:receipt_created_at;type:timestamptz;not null;default:now()" json:"receipt_created_at"`
	ReceiptUpdatedAt time.Time      `gorm:"column:receipt_updated_at;type:timestamptz;not null;default:now()" json:"receipt_updated_at"`
	ReceiptDeletedAt gorm.DeletedAt `gorm:"column:receipt_deleted_at;type:timestamptz;index" json:"-"`
}

func (Receipt) TableName() string { return "receipts" }

func (m *Receipt) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.ReceiptCreatedAt.IsZero() {
		m.ReceiptCreatedAt = now
	}
	m.ReceiptUpdatedAt = now
	return nil
}
