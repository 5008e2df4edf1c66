// file: internals/features/finance/invoices/dto/invoice_dto.go
package dto

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	invoices "sekolahku_backend/internals/features/finance/invoices/model"
	"sekolahku_backend/internals/helpers/apperr"
)

////////////////////////////////////////////////////////////////////////////////
// INVOICES — DTO
////////////////////////////////////////////////////////////////////////////////

// Create (satu invoice untuk satu siswa)
type InvoiceCreateDTO struct {
	InvoiceStudentID uuid.UUID `json:"invoice_student_id" validate:"required"`
	InvoiceSessionID uuid.UUID `json:"invoice_session_id" validate:"required"`
	InvoiceTermID    uuid.UUID `json:"invoice_term_id" validate:"required"`
	InvoiceClassID   uuid.UUID `json:"invoice_class_id" validate:"required"`

	// String desimal ("200", "-150.50"); kosong dianggap "0"
	InvoiceBalanceFromPreviousTerm string `json:"invoice_balance_from_previous_term,omitempty"`
}

// Update (partial) — hanya carry-forward yang boleh diubah setelah create
type InvoiceUpdateDTO struct {
	InvoiceBalanceFromPreviousTerm *string `json:"invoice_balance_from_previous_term,omitempty"`
}

// Bulk create — satu percobaan independen per siswa
type InvoiceBulkCreateDTO struct {
	InvoiceStudentIDs              []uuid.UUID `json:"invoice_student_ids" validate:"required,min=1"`
	InvoiceSessionID               uuid.UUID   `json:"invoice_session_id" validate:"required"`
	InvoiceTermID                  uuid.UUID   `json:"invoice_term_id" validate:"required"`
	InvoiceClassID                 uuid.UUID   `json:"invoice_class_id" validate:"required"`
	InvoiceBalanceFromPreviousTerm string      `json:"invoice_balance_from_previous_term,omitempty"`
}

// Rollover — tutup invoice aktif sebelumnya, pindahkan saldo ke term baru
type InvoiceRolloverDTO struct {
	InvoiceStudentID uuid.UUID `json:"invoice_student_id" validate:"required"`
	InvoiceSessionID uuid.UUID `json:"invoice_session_id" validate:"required"`
	InvoiceTermID    uuid.UUID `json:"invoice_term_id" validate:"required"`
	InvoiceClassID   uuid.UUID `json:"invoice_class_id" validate:"required"`
}

////////////////////////////////////////////////////////////////////////////////
// ITEMS & RECEIPTS — DTO
////////////////////////////////////////////////////////////////////////////////

type InvoiceItemCreateDTO struct {
	InvoiceItemDescription string `json:"invoice_item_description" validate:"required"`
	InvoiceItemAmount      string `json:"invoice_item_amount" validate:"required"`
}

type ReceiptCreateDTO struct {
	ReceiptAmount      string  `json:"receipt_amount" validate:"required"`
	ReceiptPaymentDate string  `json:"receipt_payment_date" validate:"required"` // YYYY-MM-DD
	ReceiptComment     *string `json:"receipt_comment,omitempty"`
}

////////////////////////////////////////////////////////////////////////////////
// TOTALS & VIEW — response
////////////////////////////////////////////////////////////////////////////////

// InvoiceTotals adalah hasil murni balance engine (I1–I3).
type InvoiceTotals struct {
	TotalPayable   decimal.Decimal `json:"total_payable"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
}

type InvoiceItemResponse struct {
	InvoiceItemID          uuid.UUID       `json:"invoice_item_id"`
	InvoiceItemInvoiceID   uuid.UUID       `json:"invoice_item_invoice_id"`
	InvoiceItemDescription string          `json:"invoice_item_description"`
	InvoiceItemAmount      decimal.Decimal `json:"invoice_item_amount"`
	InvoiceItemCreatedAt   time.Time       `json:"invoice_item_created_at"`
}

type ReceiptResponse struct {
	ReceiptID          uuid.UUID       `json:"receipt_id"`
	ReceiptInvoiceID   uuid.UUID       `json:"receipt_invoice_id"`
	ReceiptAmount      decimal.Decimal `json:"receipt_amount"`
	ReceiptPaymentDate string          `json:"receipt_payment_date"` // YYYY-MM-DD
	ReceiptComment     *string         `json:"receipt_comment,omitempty"`
	ReceiptCreatedAt   time.Time       `json:"receipt_created_at"`
}

// InvoiceView = snapshot invoice + total turunan; selalu hasil hitung ulang,
// tidak pernah dibaca dari kolom tersimpan.
type InvoiceView struct {
	InvoiceID                      uuid.UUID             `json:"invoice_id"`
	InvoiceStudentID               uuid.UUID             `json:"invoice_student_id"`
	InvoiceSessionID               uuid.UUID             `json:"invoice_session_id"`
	InvoiceTermID                  uuid.UUID             `json:"invoice_term_id"`
	InvoiceClassID                 uuid.UUID             `json:"invoice_class_id"`
	InvoiceBalanceFromPreviousTerm decimal.Decimal       `json:"invoice_balance_from_previous_term"`
	InvoiceItems                   []InvoiceItemResponse `json:"invoice_items"`
	InvoiceReceipts                []ReceiptResponse     `json:"invoice_receipts"`
	TotalPayable                   decimal.Decimal       `json:"total_payable"`
	TotalPaid                      decimal.Decimal       `json:"total_paid"`
	CurrentBalance                 decimal.Decimal       `json:"current_balance"`
	InvoiceStatus                  string                `json:"invoice_status"`
	InvoiceCreatedAt               time.Time             `json:"invoice_created_at"`
	InvoiceUpdatedAt               time.Time             `json:"invoice_updated_at"`
}

////////////////////////////////////////////////////////////////////////////////
// PARSERS — string desimal/tanggal → tipe domain
////////////////////////////////////////////////////////////////////////////////

const paymentDateLayout = "2006-01-02"

// ParseAmount menerima string desimal apa pun tandanya; validasi rentang
// (>=0, >0) menjadi urusan ledger store.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, apperr.Validation("%s wajib berupa angka desimal", field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, apperr.Validation("%s bukan angka desimal yang valid: %q", field, raw)
	}
	return d, nil
}

// ParseOptionalAmount: kosong → 0 (dipakai carry-forward saat create).
func ParseOptionalAmount(field, raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(field, raw)
}

func ParsePaymentDate(raw string) (time.Time, error) {
	t, err := time.Parse(paymentDateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.Validation("receipt_payment_date bukan tanggal YYYY-MM-DD yang valid: %q", raw)
	}
	return t, nil
}

////////////////////////////////////////////////////////////////////////////////
// MAPPERS — Model -> Response
////////////////////////////////////////////////////////////////////////////////

func ToInvoiceItemResponse(m invoices.InvoiceItem) InvoiceItemResponse {
	return InvoiceItemResponse{
		InvoiceItemID:          m.InvoiceItemID,
		InvoiceItemInvoiceID:   m.InvoiceItemInvoiceID,
		InvoiceItemDescription: m.InvoiceItemDescription,
		InvoiceItemAmount:      m.InvoiceItemAmount,
		InvoiceItemCreatedAt:   m.InvoiceItemCreatedAt,
	}
}

func ToReceiptResponse(m invoices.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ReceiptID:          m.ReceiptID,
		ReceiptInvoiceID:   m.ReceiptInvoiceID,
		ReceiptAmount:      m.ReceiptAmount,
		ReceiptPaymentDate: m.ReceiptPaymentDate.Format(paymentDateLayout),
		ReceiptComment:     m.ReceiptComment,
		ReceiptCreatedAt:   m.ReceiptCreatedAt,
	}
}

func ToInvoiceView(m invoices.Invoice, t InvoiceTotals) InvoiceView {
	items := make([]InvoiceItemResponse, 0, len(m.InvoiceItems))
	for _, it := range m.InvoiceItems {
		items = append(items, ToInvoiceItemResponse(it))
	}
	receipts := make([]ReceiptResponse, 0, len(m.InvoiceReceipts))
	for _, r := range m.InvoiceReceipts {
		receipts = append(receipts, ToReceiptResponse(r))
	}
	return InvoiceView{
		InvoiceID:                      m.InvoiceID,
		InvoiceStudentID:               m.InvoiceStudentID,
		InvoiceSessionID:               m.InvoiceSessionID,
		InvoiceTermID:                  m.InvoiceTermID,
		InvoiceClassID:                 m.InvoiceClassID,
		InvoiceBalanceFromPreviousTerm: m.InvoiceBalanceFromPreviousTerm,
		InvoiceItems:                   items,
		InvoiceReceipts:                receipts,
		TotalPayable:                   t.TotalPayable,
		TotalPaid:                      t.TotalPaid,
		CurrentBalance:                 t.CurrentBalance,
		InvoiceStatus:                  string(m.EffectiveStatus()),
		InvoiceCreatedAt:               m.InvoiceCreatedAt,
		InvoiceUpdatedAt:               m.InvoiceUpdatedAt,
	}
}
