// file: internals/features/finance/invoices/repository/ledger_memory.go
package repository

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	invoices "sekolahku_backend/internals/features/finance/invoices/model"
	"sekolahku_backend/internals/helpers/apperr"
)

/* ==============================================
   LEDGER STORE — implementasi memori
   Dipakai test service dan deployment tanpa DB.
============================================== */

type MemoryLedger struct {
	mu    sync.RWMutex // lindungi maps
	locks map[uuid.UUID]*sync.Mutex
	data  map[uuid.UUID]*invoices.Invoice // invoice hidup
	trash map[uuid.UUID]*invoices.Invoice // invoice terhapus (soft delete)
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		locks: make(map[uuid.UUID]*sync.Mutex),
		data:  make(map[uuid.UUID]*invoices.Invoice),
		trash: make(map[uuid.UUID]*invoices.Invoice),
	}
}

// lockFor: mutex per invoice; mutasi ke invoice yang sama berurutan,
// invoice berbeda jalan paralel.
func (r *MemoryLedger) lockFor(invoiceID uuid.UUID) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[invoiceID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[invoiceID] = l
	}
	return l
}

func copyInvoice(src *invoices.Invoice) *invoices.Invoice {
	dst := *src
	dst.InvoiceItems = append([]invoices.InvoiceItem(nil), src.InvoiceItems...)
	dst.InvoiceReceipts = append([]invoices.Receipt(nil), src.InvoiceReceipts...)
	return &dst
}

/* ===================== CRUD ===================== */

func (r *MemoryLedger) Create(ctx context.Context, inv *invoices.Invoice) (*invoices.Invoice, error) {
	now := time.Now()
	stored := copyInvoice(inv)
	if stored.InvoiceID == uuid.Nil {
		stored.InvoiceID = uuid.New()
	}
	if stored.InvoiceStatus == "" {
		stored.InvoiceStatus = invoices.InvoiceStatusActive
	}
	stored.InvoiceCreatedAt = now
	stored.InvoiceUpdatedAt = now

	r.mu.Lock()
	r.data[stored.InvoiceID] = stored
	r.mu.Unlock()
	return copyInvoice(stored), nil
}

func (r *MemoryLedger) Get(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inv, ok := r.data[invoiceID]
	if !ok {
		return nil, apperr.NotFound("invoice %s tidak ditemukan", invoiceID)
	}
	return copyInvoice(inv), nil
}

// mutate menjalankan fn atas invoice hidup di bawah mutex per invoice.
func (r *MemoryLedger) mutate(invoiceID uuid.UUID, fn func(inv *invoices.Invoice) error) (*invoices.Invoice, error) {
	l := r.lockFor(invoiceID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.data[invoiceID]
	if !ok {
		return nil, apperr.NotFound("invoice %s tidak ditemukan", invoiceID)
	}
	if err := fn(inv); err != nil {
		return nil, err
	}
	inv.InvoiceUpdatedAt = time.Now()
	return copyInvoice(inv), nil
}

func (r *MemoryLedger) UpdateBalance(ctx context.Context, invoiceID uuid.UUID, balance decimal.Decimal) (*invoices.Invoice, error) {
	return r.mutate(invoiceID, func(inv *invoices.Invoice) error {
		inv.InvoiceBalanceFromPreviousTerm = balance
		return nil
	})
}

func (r *MemoryLedger) AddItem(ctx context.Context, invoiceID uuid.UUID, description string, amount decimal.Decimal) (*invoices.Invoice, error) {
	if strings.TrimSpace(description) == "" {
		return nil, apperr.Validation("invoice_item_description tidak boleh kosong")
	}
	if amount.IsNegative() {
		return nil, apperr.Validation("invoice_item_amount tidak boleh negatif")
	}
	return r.mutate(invoiceID, func(inv *invoices.Invoice) error {
		now := time.Now()
		inv.InvoiceItems = append(inv.InvoiceItems, invoices.InvoiceItem{
			InvoiceItemID:          uuid.New(),
			InvoiceItemInvoiceID:   invoiceID,
			InvoiceItemDescription: strings.TrimSpace(description),
			InvoiceItemAmount:      amount,
			InvoiceItemCreatedAt:   now,
			InvoiceItemUpdatedAt:   now,
		})
		return nil
	})
}

func (r *MemoryLedger) RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*invoices.Invoice, error) {
	return r.mutate(invoiceID, func(inv *invoices.Invoice) error {
		for i, it := range inv.InvoiceItems {
			if it.InvoiceItemID == itemID {
				inv.InvoiceItems = append(inv.InvoiceItems[:i], inv.InvoiceItems[i+1:]...)
				return nil
			}
		}
		return apperr.NotFound("invoice item %s tidak ditemukan", itemID)
	})
}

func (r *MemoryLedger) AddReceipt(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, comment *string) (*invoices.Invoice, error) {
	if !amount.IsPositive() {
		return nil, apperr.Validation("receipt_amount harus lebih besar dari nol")
	}
	if paymentDate.IsZero() {
		return nil, apperr.Validation("receipt_payment_date wajib diisi")
	}
	return r.mutate(invoiceID, func(inv *invoices.Invoice) error {
		now := time.Now()
		inv.InvoiceReceipts = append(inv.InvoiceReceipts, invoices.Receipt{
			ReceiptID:          uuid.New(),
			ReceiptInvoiceID:   invoiceID,
			ReceiptAmount:      amount,
			ReceiptPaymentDate: paymentDate,
			ReceiptComment:     comment,
			ReceiptCreatedAt:   now,
			ReceiptUpdatedAt:   now,
		})
		return nil
	})
}

func (r *MemoryLedger) Close(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error) {
	return r.mutate(invoiceID, func(inv *invoices.Invoice) error {
		inv.InvoiceStatus = invoices.InvoiceStatusClosed
		return nil
	})
}

func (r *MemoryLedger) Delete(ctx context.Context, invoiceID uuid.UUID) error {
	l := r.lockFor(invoiceID)
	l.Lock()
	defer l.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.data[invoiceID]
	if !ok {
		// sudah terhapus / tidak pernah ada → NotFound, bukan sukses diam-diam
		return apperr.NotFound("invoice %s tidak ditemukan", invoiceID)
	}
	inv.InvoiceDeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	delete(r.data, invoiceID)
	r.trash[invoiceID] = inv
	return nil
}

func matchFilter(inv *invoices.Invoice, f ListFilter) bool {
	if f.StudentID != nil && inv.InvoiceStudentID != *f.StudentID {
		return false
	}
	if f.SessionID != nil && inv.InvoiceSessionID != *f.SessionID {
		return false
	}
	if f.TermID != nil && inv.InvoiceTermID != *f.TermID {
		return false
	}
	return true
}

func (r *MemoryLedger) List(ctx context.Context, f ListFilter) ([]invoices.Invoice, error) {
	r.mu.RLock()
	out := make([]invoices.Invoice, 0, len(r.data))
	for _, inv := range r.data {
		if matchFilter(inv, f) {
			out = append(out, *copyInvoice(inv))
		}
	}
	if f.IncludeDeleted {
		for _, inv := range r.trash {
			if matchFilter(inv, f) {
				out = append(out, *copyInvoice(inv))
			}
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if c := bytes.Compare(a.InvoiceStudentID[:], b.InvoiceStudentID[:]); c != 0 {
			return c < 0
		}
		if c := bytes.Compare(a.InvoiceTermID[:], b.InvoiceTermID[:]); c != 0 {
			return c < 0
		}
		return a.InvoiceCreatedAt.Before(b.InvoiceCreatedAt)
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []invoices.Invoice{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MemoryLedger) LatestActiveForStudent(ctx context.Context, studentID uuid.UUID) (*invoices.Invoice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *invoices.Invoice
	for _, inv := range r.data {
		if inv.InvoiceStudentID != studentID || inv.InvoiceStatus != invoices.InvoiceStatusActive {
			continue
		}
		if latest == nil || inv.InvoiceCreatedAt.After(latest.InvoiceCreatedAt) {
			latest = inv
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyInvoice(latest), nil
}
