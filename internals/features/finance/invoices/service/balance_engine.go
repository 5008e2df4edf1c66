// file: internals/features/finance/invoices/service/balance_engine.go
package service

import (
	"github.com/shopspring/decimal"

	"sekolahku_backend/internals/features/finance/invoices/dto"
	invoices "sekolahku_backend/internals/features/finance/invoices/model"
)

/* ==============================================
   BALANCE ENGINE — hitungan murni, tanpa efek samping

   total_payable   = carry_forward + Σ item.amount
   total_paid      = Σ receipt.amount
   current_balance = total_payable − total_paid

   current_balance boleh negatif = saldo kredit (kelebihan bayar).
============================================== */

// ComputeTotals menghitung ulang total turunan dari isi invoice.
// Aritmetika desimal eksak; tidak pernah gagal untuk invoice yang
// sudah lolos validasi ledger store.
func ComputeTotals(inv invoices.Invoice) dto.InvoiceTotals {
	payable := inv.InvoiceBalanceFromPreviousTerm
	for _, it := range inv.InvoiceItems {
		payable = payable.Add(it.InvoiceItemAmount)
	}

	paid := decimal.Zero
	for _, rc := range inv.InvoiceReceipts {
		paid = paid.Add(rc.ReceiptAmount)
	}

	return dto.InvoiceTotals{
		TotalPayable:   payable,
		TotalPaid:      paid,
		CurrentBalance: payable.Sub(paid),
	}
}
