// file: internals/features/finance/invoices/model/invoice_item_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

/* ==============================================
   MODEL — satu baris tagihan pada invoice
============================================== */

type InvoiceItem struct {
	// PK
	InvoiceItemID uuid.UUID `gorm:"column:invoice_item_id;type:uuid;primaryKey;default:gen_random_uuid()" json:"invoice_item_id"`

	// FK → invoices(invoice_id)
	InvoiceItemInvoiceID uuid.UUID `gorm:"column:invoice_item_invoice_id;type:uuid;not null;index" json:"invoice_item_invoice_id"`

	InvoiceItemDescription string `gorm:"column:invoice_item_description;type:varchar(255);not null" json:"invoice_item_description"`

	// Nominal; nol diperbolehkan, negatif tidak
	InvoiceItemAmount decimal.Decimal `gorm:"column:invoice_item_amount;type:numeric(18,2);not null;check:invoice_item_amount>=0" json:"invoice_item_amount"`

	// Audit
	InvoiceItemCreatedAt time.Time      `gorm:"column:invoice_item_created_at;type:timestamptz;not null;default:now()" json:"invoice_item_created_at"`
	InvoiceItemUpdatedAt time.Time      `gorm:"column:invoice_item_updated_at;type:timestamptz;not null;default:now()" json:"invoice_item_updated_at"`
	InvoiceItemDeletedAt gorm.DeletedAt `gorm:"column:invoice_item_deleted_at;type:timestamptz;index" json:"-"`
}

func (InvoiceItem) TableName() string { return "invoice_items" }

func (m *InvoiceItem) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if m.InvoiceItemCreatedAt.IsZero() {
		m.InvoiceItemCreatedAt = now
	}
	m.InvoiceItemUpdatedAt = now
	return nil
}
