// file: internals/features/finance/invoices/service/invoice_service.go
package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sekolahku_backend/internals/features/finance/invoices/dto"
	invoices "sekolahku_backend/internals/features/finance/invoices/model"
	"sekolahku_backend/internals/features/finance/invoices/repository"
	"sekolahku_backend/internals/helpers/apperr"
)

var validate = validator.New()

/* ==============================================
   INVOICE SERVICE — orkestrasi ledger + balance engine
   Setiap mutasi mengembalikan InvoiceView dengan total
   yang dihitung ulang (tidak pernah record mentah).
============================================== */

type InvoiceService struct {
	ledger repository.Ledger
	log    *logrus.Entry
}

func NewInvoiceService(ledger repository.Ledger) *InvoiceService {
	return &InvoiceService{
		ledger: ledger,
		log:    logrus.WithField("component", "invoice_service"),
	}
}

func (s *InvoiceService) view(inv *invoices.Invoice) *dto.InvoiceView {
	v := dto.ToInvoiceView(*inv, ComputeTotals(*inv))
	return &v
}

/* ===================== CREATE ===================== */

func (s *InvoiceService) CreateInvoice(ctx context.Context, req dto.InvoiceCreateDTO) (*dto.InvoiceView, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("payload create invoice tidak valid: %v", err)
	}
	carry, err := dto.ParseOptionalAmount("invoice_balance_from_previous_term", req.InvoiceBalanceFromPreviousTerm)
	if err != nil {
		return nil, err
	}

	inv, err := s.ledger.Create(ctx, &invoices.Invoice{
		InvoiceStudentID:               req.InvoiceStudentID,
		InvoiceSessionID:               req.InvoiceSessionID,
		InvoiceTermID:                  req.InvoiceTermID,
		InvoiceClassID:                 req.InvoiceClassID,
		InvoiceBalanceFromPreviousTerm: carry,
		InvoiceStatus:                  invoices.InvoiceStatusActive,
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"invoice_id": inv.InvoiceID,
		"student_id": inv.InvoiceStudentID,
		"term_id":    inv.InvoiceTermID,
	}).Info("invoice dibuat")
	return s.view(inv), nil
}

// CreateInvoicesBulk: satu percobaan independen per siswa; kegagalan satu
// siswa tidak membatalkan yang lain (partial success memang diharapkan).
type BulkResult struct {
	StudentID uuid.UUID
	Invoice   *dto.InvoiceView
	Err       error
}

func (s *InvoiceService) CreateInvoicesBulk(ctx context.Context, req dto.InvoiceBulkCreateDTO) ([]BulkResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("payload bulk create tidak valid: %v", err)
	}

	results := make([]BulkResult, 0, len(req.InvoiceStudentIDs))
	for _, studentID := range req.InvoiceStudentIDs {
		view, err := s.CreateInvoice(ctx, dto.InvoiceCreateDTO{
			InvoiceStudentID:               studentID,
			InvoiceSessionID:               req.InvoiceSessionID,
			InvoiceTermID:                  req.InvoiceTermID,
			InvoiceClassID:                 req.InvoiceClassID,
			InvoiceBalanceFromPreviousTerm: req.InvoiceBalanceFromPreviousTerm,
		})
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"student_id": studentID,
			}).WithError(err).Warn("bulk create: invoice siswa gagal")
		}
		results = append(results, BulkResult{StudentID: studentID, Invoice: view, Err: err})
	}
	return results, nil
}

// RolloverInvoice membuka invoice term baru untuk siswa: invoice aktif
// sebelumnya ditutup dan sisa saldonya dipindahkan sebagai carry-forward.
// Siswa tanpa invoice aktif mendapat carry-forward 0.
func (s *InvoiceService) RolloverInvoice(ctx context.Context, req dto.InvoiceRolloverDTO) (*dto.InvoiceView, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("payload rollover tidak valid: %v", err)
	}

	prev, err := s.ledger.LatestActiveForStudent(ctx, req.InvoiceStudentID)
	if err != nil {
		return nil, err
	}

	carry := "0"
	if prev != nil {
		carry = ComputeTotals(*prev).CurrentBalance.String()
	}

	view, err := s.CreateInvoice(ctx, dto.InvoiceCreateDTO{
		InvoiceStudentID:               req.InvoiceStudentID,
		InvoiceSessionID:               req.InvoiceSessionID,
		InvoiceTermID:                  req.InvoiceTermID,
		InvoiceClassID:                 req.InvoiceClassID,
		InvoiceBalanceFromPreviousTerm: carry,
	})
	if err != nil {
		return nil, err
	}

	if prev != nil {
		if _, err := s.ledger.Close(ctx, prev.InvoiceID); err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"closed_invoice_id": prev.InvoiceID,
			"new_invoice_id":    view.InvoiceID,
			"carry_forward":     carry,
		}).Info("rollover invoice antar term")
	}
	return view, nil
}

/* ===================== MUTATIONS ===================== */

func (s *InvoiceService) EditInvoice(ctx context.Context, invoiceID uuid.UUID, req dto.InvoiceUpdateDTO) (*dto.InvoiceView, error) {
	// Partial update: hanya carry-forward yang bisa berubah setelah create.
	if req.InvoiceBalanceFromPreviousTerm == nil {
		return s.ViewInvoice(ctx, invoiceID)
	}
	carry, err := dto.ParseAmount("invoice_balance_from_previous_term", *req.InvoiceBalanceFromPreviousTerm)
	if err != nil {
		return nil, err
	}
	inv, err := s.ledger.UpdateBalance(ctx, invoiceID, carry)
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

func (s *InvoiceService) AddInvoiceItem(ctx context.Context, invoiceID uuid.UUID, req dto.InvoiceItemCreateDTO) (*dto.InvoiceView, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("payload item tidak valid: %v", err)
	}
	amount, err := dto.ParseAmount("invoice_item_amount", req.InvoiceItemAmount)
	if err != nil {
		return nil, err
	}
	inv, err := s.ledger.AddItem(ctx, invoiceID, req.InvoiceItemDescription, amount)
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

func (s *InvoiceService) RemoveInvoiceItem(ctx context.Context, invoiceID, itemID uuid.UUID) (*dto.InvoiceView, error) {
	inv, err := s.ledger.RemoveItem(ctx, invoiceID, itemID)
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

func (s *InvoiceService) RecordPayment(ctx context.Context, invoiceID uuid.UUID, req dto.ReceiptCreateDTO) (*dto.InvoiceView, error) {
	if err := validate.Struct(req); err != nil {
		return nil, apperr.Validation("payload pembayaran tidak valid: %v", err)
	}
	amount, err := dto.ParseAmount("receipt_amount", req.ReceiptAmount)
	if err != nil {
		return nil, err
	}
	paidAt, err := dto.ParsePaymentDate(req.ReceiptPaymentDate)
	if err != nil {
		return nil, err
	}
	// Overpayment tidak pernah ditolak; saldo negatif = kredit siswa.
	inv, err := s.ledger.AddReceipt(ctx, invoiceID, amount, paidAt, req.ReceiptComment)
	if err != nil {
		return nil, err
	}

	totals := ComputeTotals(*inv)
	if totals.CurrentBalance.IsNegative() {
		s.log.WithFields(logrus.Fields{
			"invoice_id":      invoiceID,
			"current_balance": totals.CurrentBalance,
		}).Info("pembayaran melebihi tagihan, saldo kredit")
	}
	v := dto.ToInvoiceView(*inv, totals)
	return &v, nil
}

/* ===================== READS & DELETE ===================== */

func (s *InvoiceService) ViewInvoice(ctx context.Context, invoiceID uuid.UUID) (*dto.InvoiceView, error) {
	inv, err := s.ledger.Get(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.view(inv), nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, f repository.ListFilter) ([]dto.InvoiceView, error) {
	list, err := s.ledger.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceView, 0, len(list))
	for _, inv := range list {
		out = append(out, dto.ToInvoiceView(inv, ComputeTotals(inv)))
	}
	return out, nil
}

func (s *InvoiceService) DeleteInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	if err := s.ledger.Delete(ctx, invoiceID); err != nil {
		return err
	}
	s.log.WithField("invoice_id", invoiceID).Info("invoice dihapus (cascade items & receipts)")
	return nil
}
