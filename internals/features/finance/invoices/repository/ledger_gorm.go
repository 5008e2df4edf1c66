// file: internals/features/finance/invoices/repository/ledger_gorm.go
package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	invoices "sekolahku_backend/internals/features/finance/invoices/model"
	"sekolahku_backend/internals/helpers/apperr"
)

/* ==============================================
   LEDGER STORE — implementasi GORM/Postgres
============================================== */

type GormLedger struct {
	DB *gorm.DB
}

func NewGormLedger(db *gorm.DB) *GormLedger {
	return &GormLedger{DB: db}
}

// lockInvoice mengambil invoice dengan SELECT ... FOR UPDATE sehingga dua
// mutasi konkuren ke invoice yang sama tidak pernah saling menimpa.
func lockInvoice(tx *gorm.DB, invoiceID uuid.UUID) (*invoices.Invoice, error) {
	var inv invoices.Invoice
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&inv, "invoice_id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice %s tidak ditemukan", invoiceID)
		}
		return nil, err
	}
	return &inv, nil
}

func preloadAggregate(db *gorm.DB, includeDeleted bool) *gorm.DB {
	itemScope := func(d *gorm.DB) *gorm.DB { return d.Order("invoice_item_created_at ASC") }
	receiptScope := func(d *gorm.DB) *gorm.DB { return d.Order("receipt_created_at ASC") }
	if includeDeleted {
		itemScope = func(d *gorm.DB) *gorm.DB { return d.Unscoped().Order("invoice_item_created_at ASC") }
		receiptScope = func(d *gorm.DB) *gorm.DB { return d.Unscoped().Order("receipt_created_at ASC") }
	}
	return db.Preload("InvoiceItems", itemScope).Preload("InvoiceReceipts", receiptScope)
}

func (r *GormLedger) reload(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error) {
	var inv invoices.Invoice
	err := preloadAggregate(r.DB.WithContext(ctx), false).
		Take(&inv, "invoice_id = ?", invoiceID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("invoice %s tidak ditemukan", invoiceID)
		}
		return nil, err
	}
	return &inv, nil
}

/* ===================== CRUD ===================== */

func (r *GormLedger) Create(ctx context.Context, inv *invoices.Invoice) (*invoices.Invoice, error) {
	if inv.InvoiceID == uuid.Nil {
		inv.InvoiceID = uuid.New()
	}
	if err := r.DB.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return r.reload(ctx, inv.InvoiceID)
}

func (r *GormLedger) Get(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error) {
	return r.reload(ctx, invoiceID)
}

func (r *GormLedger) UpdateBalance(ctx context.Context, invoiceID uuid.UUID, balance decimal.Decimal) (*invoices.Invoice, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		return tx.Model(inv).
			Update("invoice_balance_from_previous_term", balance).Error
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, invoiceID)
}

func (r *GormLedger) AddItem(ctx context.Context, invoiceID uuid.UUID, description string, amount decimal.Decimal) (*invoices.Invoice, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Validation("invoice_item_description tidak boleh kosong")
	}
	if amount.IsNegative() {
		return nil, apperr.Validation("invoice_item_amount tidak boleh negatif")
	}
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockInvoice(tx, invoiceID); err != nil {
			return err
		}
		item := invoices.InvoiceItem{
			InvoiceItemID:          uuid.New(),
			InvoiceItemInvoiceID:   invoiceID,
			InvoiceItemDescription: strings.TrimSpace(description),
			InvoiceItemAmount:      amount,
		}
		return tx.Create(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, invoiceID)
}

func (r *GormLedger) RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*invoices.Invoice, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockInvoice(tx, invoiceID); err != nil {
			return err
		}
		res := tx.Where("invoice_item_id = ? AND invoice_item_invoice_id = ?", itemID, invoiceID).
			Delete(&invoices.InvoiceItem{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("invoice item %s tidak ditemukan", itemID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, invoiceID)
}

func (r *GormLedger) AddReceipt(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, comment *string) (*invoices.Invoice, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("receipt_amount harus lebih besar dari nol")
	}
	if paymentDate.IsZero() {
		return nil, apperr.Validation("receipt_payment_date wajib diisi")
	}
	// Tidak ada cek terhadap sisa tagihan: overpayment sah (saldo kredit).
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockInvoice(tx, invoiceID); err != nil {
			return err
		}
		rc := invoices.Receipt{
			ReceiptID:          uuid.New(),
			ReceiptInvoiceID:   invoiceID,
			ReceiptAmount:      amount,
			ReceiptPaymentDate: paymentDate,
			ReceiptComment:     comment,
		}
		return tx.Create(&rc).Error
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, invoiceID)
}

func (r *GormLedger) Close(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error) {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		return tx.Model(inv).
			Update("invoice_status", invoices.InvoiceStatusClosed).Error
	})
	if err != nil {
		return nil, err
	}
	return r.reload(ctx, invoiceID)
}

// Delete: soft delete + cascade ke items & receipts dalam satu transaksi.
func (r *GormLedger) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := lockInvoice(tx, invoiceID)
		if err != nil {
			return err
		}
		if err := tx.Where("invoice_item_invoice_id = ?", invoiceID).
			Delete(&invoices.InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("receipt_invoice_id = ?", invoiceID).
			Delete(&invoices.Receipt{}).Error; err != nil {
			return err
		}
		return tx.Delete(inv).Error
	})
}

func (r *GormLedger) List(ctx context.Context, f ListFilter) ([]invoices.Invoice, error) {
	q := r.DB.WithContext(ctx).Model(&invoices.Invoice{})
	if f.IncludeDeleted {
		q = q.Unscoped()
	}
	if f.StudentID != nil {
		q = q.Where("invoice_student_id = ?", *f.StudentID)
	}
	if f.SessionID != nil {
		q = q.Where("invoice_session_id = ?", *f.SessionID)
	}
	if f.TermID != nil {
		q = q.Where("invoice_term_id = ?", *f.TermID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var list []invoices.Invoice
	err := preloadAggregate(q, f.IncludeDeleted).
		Order("invoice_student_id ASC, invoice_term_id ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *GormLedger) LatestActiveForStudent(ctx context.Context, studentID uuid.UUID) (*invoices.Invoice, error) {
	var inv invoices.Invoice
	err := preloadAggregate(r.DB.WithContext(ctx), false).
		Where("invoice_student_id = ? AND invoice_status = ?", studentID, invoices.InvoiceStatusActive).
		Order("invoice_created_at DESC").
		First(&inv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &inv, nil
}
