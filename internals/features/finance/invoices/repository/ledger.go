// file: internals/features/finance/invoices/repository/ledger.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	invoices "sekolahku_backend/internals/features/finance/invoices/model"
)

/* ==============================================
   LEDGER STORE — kontrak penyimpanan agregat
   (invoice + items + receipts sebagai satu unit)
============================================== */

// ListFilter membatasi hasil List; semua field opsional.
type ListFilter struct {
	StudentID      *uuid.UUID
	SessionID      *uuid.UUID
	TermID         *uuid.UUID
	IncludeDeleted bool
	Limit          int // 0 = tanpa batas
	Offset         int
}

// Ledger menyimpan agregat invoice. Semua mutasi ke invoice yang sama
// diserialisasi (row lock di Postgres, mutex per invoice di memori);
// pembaca tidak pernah melihat mutasi setengah jadi.
type Ledger interface {
	Create(ctx context.Context, inv *invoices.Invoice) (*invoices.Invoice, error)
	Get(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error)
	UpdateBalance(ctx context.Context, invoiceID uuid.UUID, balance decimal.Decimal) (*invoices.Invoice, error)
	AddItem(ctx context.Context, invoiceID uuid.UUID, description string, amount decimal.Decimal) (*invoices.Invoice, error)
	RemoveItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*invoices.Invoice, error)
	AddReceipt(ctx context.Context, invoiceID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, comment *string) (*invoices.Invoice, error)

	// Close menandai invoice aktif sebagai closed (dipakai rollover antar term).
	Close(ctx context.Context, invoiceID uuid.UUID) (*invoices.Invoice, error)

	// Delete = soft delete, cascade ke items & receipts dalam satu transaksi.
	// Invoice yang sudah terhapus mengembalikan NotFound, bukan sukses diam-diam.
	Delete(ctx context.Context, invoiceID uuid.UUID) error

	// List terurut: student id dulu, lalu term id (deterministik).
	List(ctx context.Context, f ListFilter) ([]invoices.Invoice, error)

	// LatestActiveForStudent mengembalikan (nil, nil) bila siswa belum punya
	// invoice aktif.
	LatestActiveForStudent(ctx context.Context, studentID uuid.UUID) (*invoices.Invoice, error)
}
