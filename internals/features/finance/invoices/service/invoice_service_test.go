// file: internals/features/finance/invoices/service/invoice_service_test.go
package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sekolahku_backend/internals/features/finance/invoices/dto"
	"sekolahku_backend/internals/features/finance/invoices/repository"
	"sekolahku_backend/internals/helpers/apperr"
)

func newTestService() *InvoiceService {
	return NewInvoiceService(repository.NewMemoryLedger())
}

func createInvoice(t *testing.T, s *InvoiceService, carry string) *dto.InvoiceView {
	t.Helper()
	view, err := s.CreateInvoice(context.Background(), dto.InvoiceCreateDTO{
		InvoiceStudentID:               uuid.New(),
		InvoiceSessionID:               uuid.New(),
		InvoiceTermID:                  uuid.New(),
		InvoiceClassID:                 uuid.New(),
		InvoiceBalanceFromPreviousTerm: carry,
	})
	require.NoError(t, err)
	return view
}

/* ===================== create & edit ===================== */

func TestCreateInvoice_StartsEmptyAndActive(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "200")

	assert.Equal(t, "active", view.InvoiceStatus)
	assert.Empty(t, view.InvoiceItems)
	assert.Empty(t, view.InvoiceReceipts)
	assert.Equal(t, "200", view.InvoiceBalanceFromPreviousTerm.String())
	assert.Equal(t, "200", view.TotalPayable.String())
}

func TestCreateInvoice_RejectsMalformedCarryForward(t *testing.T) {
	s := newTestService()
	_, err := s.CreateInvoice(context.Background(), dto.InvoiceCreateDTO{
		InvoiceStudentID:               uuid.New(),
		InvoiceSessionID:               uuid.New(),
		InvoiceTermID:                  uuid.New(),
		InvoiceClassID:                 uuid.New(),
		InvoiceBalanceFromPreviousTerm: "seratus",
	})
	assert.True(t, apperr.IsValidation(err))
}

func TestEditInvoice_ChangesCarryForwardOnly(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")

	carry := "350.25"
	updated, err := s.EditInvoice(context.Background(), view.InvoiceID, dto.InvoiceUpdateDTO{
		InvoiceBalanceFromPreviousTerm: &carry,
	})
	require.NoError(t, err)
	assert.Equal(t, "350.25", updated.InvoiceBalanceFromPreviousTerm.String())
	assert.Equal(t, "350.25", updated.TotalPayable.String())
	// referensi siswa/term tidak pernah berubah lewat edit
	assert.Equal(t, view.InvoiceStudentID, updated.InvoiceStudentID)
	assert.Equal(t, view.InvoiceTermID, updated.InvoiceTermID)
}

func TestEditInvoice_NilBalanceIsReadOnly(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "75")

	same, err := s.EditInvoice(context.Background(), view.InvoiceID, dto.InvoiceUpdateDTO{})
	require.NoError(t, err)
	assert.Equal(t, "75", same.InvoiceBalanceFromPreviousTerm.String())
}

func TestEditInvoice_NotFound(t *testing.T) {
	s := newTestService()
	carry := "10"
	_, err := s.EditInvoice(context.Background(), uuid.New(), dto.InvoiceUpdateDTO{
		InvoiceBalanceFromPreviousTerm: &carry,
	})
	assert.True(t, apperr.IsNotFound(err))
}

/* ===================== items & payments ===================== */

func TestAddInvoiceItem_RecomputesTotals(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	view, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "1000",
	})
	require.NoError(t, err)
	view, err = s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Library Fee",
		InvoiceItemAmount:      "50",
	})
	require.NoError(t, err)

	assert.Len(t, view.InvoiceItems, 2)
	assert.Equal(t, "1050", view.TotalPayable.String())
	assert.Equal(t, "1050", view.CurrentBalance.String())
}

func TestAddInvoiceItem_Validation(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "   ",
		InvoiceItemAmount:      "100",
	})
	assert.True(t, apperr.IsValidation(err), "deskripsi kosong harus ditolak")

	_, err = s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Uniform",
		InvoiceItemAmount:      "-5",
	})
	assert.True(t, apperr.IsValidation(err), "nominal negatif harus ditolak")

	_, err = s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Uniform",
		InvoiceItemAmount:      "abc",
	})
	assert.True(t, apperr.IsValidation(err), "nominal non-angka harus ditolak")

	// nol diperbolehkan (waiver)
	zero, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Scholarship placeholder",
		InvoiceItemAmount:      "0",
	})
	require.NoError(t, err)
	assert.Len(t, zero.InvoiceItems, 1)
}

func TestRemoveInvoiceItem(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	view, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "1000",
	})
	require.NoError(t, err)
	itemID := view.InvoiceItems[0].InvoiceItemID

	view, err = s.RemoveInvoiceItem(ctx, view.InvoiceID, itemID)
	require.NoError(t, err)
	assert.Empty(t, view.InvoiceItems)
	assert.True(t, view.TotalPayable.IsZero())

	_, err = s.RemoveInvoiceItem(ctx, view.InvoiceID, itemID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestRecordPayment_ReducesBalance(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "1000",
	})
	require.NoError(t, err)
	_, err = s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Library Fee",
		InvoiceItemAmount:      "50",
	})
	require.NoError(t, err)

	view, err = s.RecordPayment(ctx, view.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "500",
		ReceiptPaymentDate: "2026-01-15",
	})
	require.NoError(t, err)

	assert.Equal(t, "500", view.TotalPaid.String())
	assert.Equal(t, "550", view.CurrentBalance.String())
	require.Len(t, view.InvoiceReceipts, 1)
	assert.Equal(t, "2026-01-15", view.InvoiceReceipts[0].ReceiptPaymentDate)
}

func TestRecordPayment_FullyPaid(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "500",
	})
	require.NoError(t, err)

	view, err = s.RecordPayment(ctx, view.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "500",
		ReceiptPaymentDate: "2026-02-01",
	})
	require.NoError(t, err)
	assert.True(t, view.CurrentBalance.IsZero())
}

func TestRecordPayment_OverpaymentAllowed(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "300",
	})
	require.NoError(t, err)

	// bayar 400 atas tagihan 300 → sukses, saldo kredit -100
	view, err = s.RecordPayment(ctx, view.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "400",
		ReceiptPaymentDate: "2026-03-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "-100", view.CurrentBalance.String())
}

func TestRecordPayment_Validation(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	_, err := s.RecordPayment(ctx, view.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "0",
		ReceiptPaymentDate: "2026-01-01",
	})
	assert.True(t, apperr.IsValidation(err), "nominal nol harus ditolak")

	_, err = s.RecordPayment(ctx, view.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "100",
		ReceiptPaymentDate: "15-01-2026",
	})
	assert.True(t, apperr.IsValidation(err), "format tanggal salah harus ditolak")
}

/* ===================== view, delete, list ===================== */

func TestViewInvoice_IdempotentTotals(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "200")
	ctx := context.Background()

	_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "1000",
	})
	require.NoError(t, err)

	first, err := s.ViewInvoice(ctx, view.InvoiceID)
	require.NoError(t, err)
	second, err := s.ViewInvoice(ctx, view.InvoiceID)
	require.NoError(t, err)

	assert.Equal(t, first.TotalPayable.String(), second.TotalPayable.String())
	assert.Equal(t, first.TotalPaid.String(), second.TotalPaid.String())
	assert.Equal(t, first.CurrentBalance.String(), second.CurrentBalance.String())
}

func TestDeleteInvoice_CascadesAndGetFails(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition Fee",
		InvoiceItemAmount:      "1000",
	})
	require.NoError(t, err)
	_, err = s.RecordPayment(ctx, view.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "100",
		ReceiptPaymentDate: "2026-01-01",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteInvoice(ctx, view.InvoiceID))

	_, err = s.ViewInvoice(ctx, view.InvoiceID)
	assert.True(t, apperr.IsNotFound(err))

	// item/receipt ikut hilang dari setiap lookup; delete kedua → NotFound
	_, err = s.RemoveInvoiceItem(ctx, view.InvoiceID, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
	err = s.DeleteInvoice(ctx, view.InvoiceID)
	assert.True(t, apperr.IsNotFound(err))
}

func TestListInvoices_OrderedByStudentThenTerm(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	studentA := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	studentB := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	term1 := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	term2 := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	session := uuid.New()
	class := uuid.New()

	// insert dengan urutan acak
	for _, pair := range []struct{ student, term uuid.UUID }{
		{studentB, term2},
		{studentA, term2},
		{studentB, term1},
		{studentA, term1},
	} {
		_, err := s.CreateInvoice(ctx, dto.InvoiceCreateDTO{
			InvoiceStudentID: pair.student,
			InvoiceSessionID: session,
			InvoiceTermID:    pair.term,
			InvoiceClassID:   class,
		})
		require.NoError(t, err)
	}

	list, err := s.ListInvoices(ctx, repository.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 4)

	assert.Equal(t, studentA, list[0].InvoiceStudentID)
	assert.Equal(t, term1, list[0].InvoiceTermID)
	assert.Equal(t, studentA, list[1].InvoiceStudentID)
	assert.Equal(t, term2, list[1].InvoiceTermID)
	assert.Equal(t, studentB, list[2].InvoiceStudentID)
	assert.Equal(t, term1, list[2].InvoiceTermID)
	assert.Equal(t, studentB, list[3].InvoiceStudentID)
	assert.Equal(t, term2, list[3].InvoiceTermID)
}

func TestListInvoices_ExcludesDeletedByDefault(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	kept := createInvoice(t, s, "0")
	gone := createInvoice(t, s, "0")
	require.NoError(t, s.DeleteInvoice(ctx, gone.InvoiceID))

	list, err := s.ListInvoices(ctx, repository.ListFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.InvoiceID, list[0].InvoiceID)

	all, err := s.ListInvoices(ctx, repository.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	for _, v := range all {
		if v.InvoiceID == gone.InvoiceID {
			assert.Equal(t, "deleted", v.InvoiceStatus)
		}
	}
}

func TestListInvoices_FilterByStudent(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	target := createInvoice(t, s, "0")
	createInvoice(t, s, "0")

	list, err := s.ListInvoices(ctx, repository.ListFilter{StudentID: &target.InvoiceStudentID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, target.InvoiceID, list[0].InvoiceID)
}

/* ===================== bulk & rollover ===================== */

func TestCreateInvoicesBulk_PartialSuccess(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	ok1 := uuid.New()
	ok2 := uuid.New()
	bad := uuid.Nil // gagal validasi, tidak boleh menggagalkan siswa lain

	results, err := s.CreateInvoicesBulk(ctx, dto.InvoiceBulkCreateDTO{
		InvoiceStudentIDs: []uuid.UUID{ok1, bad, ok2},
		InvoiceSessionID:  uuid.New(),
		InvoiceTermID:     uuid.New(),
		InvoiceClassID:    uuid.New(),
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Invoice)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Invoice)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, ok2, results[2].StudentID)

	list, err := s.ListInvoices(ctx, repository.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestRolloverInvoice_TransfersBalanceAndClosesPrevious(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	studentID := uuid.New()
	session := uuid.New()
	class := uuid.New()

	prev, err := s.CreateInvoice(ctx, dto.InvoiceCreateDTO{
		InvoiceStudentID: studentID,
		InvoiceSessionID: session,
		InvoiceTermID:    uuid.New(),
		InvoiceClassID:   class,
	})
	require.NoError(t, err)
	_, err = s.AddInvoiceItem(ctx, prev.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Tuition",
		InvoiceItemAmount:      "1000",
	})
	require.NoError(t, err)
	_, err = s.AddInvoiceItem(ctx, prev.InvoiceID, dto.InvoiceItemCreateDTO{
		InvoiceItemDescription: "Books",
		InvoiceItemAmount:      "200",
	})
	require.NoError(t, err)
	_, err = s.RecordPayment(ctx, prev.InvoiceID, dto.ReceiptCreateDTO{
		ReceiptAmount:      "500",
		ReceiptPaymentDate: "2026-04-01",
	})
	require.NoError(t, err)

	next, err := s.RolloverInvoice(ctx, dto.InvoiceRolloverDTO{
		InvoiceStudentID: studentID,
		InvoiceSessionID: session,
		InvoiceTermID:    uuid.New(),
		InvoiceClassID:   class,
	})
	require.NoError(t, err)

	// saldo 700 (1200 - 500) pindah sebagai carry-forward
	assert.Equal(t, "700", next.InvoiceBalanceFromPreviousTerm.String())
	assert.Equal(t, "active", next.InvoiceStatus)

	closed, err := s.ViewInvoice(ctx, prev.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "closed", closed.InvoiceStatus)
}

func TestRolloverInvoice_FirstInvoiceHasZeroCarry(t *testing.T) {
	s := newTestService()
	view, err := s.RolloverInvoice(context.Background(), dto.InvoiceRolloverDTO{
		InvoiceStudentID: uuid.New(),
		InvoiceSessionID: uuid.New(),
		InvoiceTermID:    uuid.New(),
		InvoiceClassID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.True(t, view.InvoiceBalanceFromPreviousTerm.IsZero())
}

func TestRolloverInvoice_OtherStudentsUntouched(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	other := createInvoice(t, s, "0")

	_, err := s.RolloverInvoice(ctx, dto.InvoiceRolloverDTO{
		InvoiceStudentID: uuid.New(),
		InvoiceSessionID: uuid.New(),
		InvoiceTermID:    uuid.New(),
		InvoiceClassID:   uuid.New(),
	})
	require.NoError(t, err)

	still, err := s.ViewInvoice(ctx, other.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "active", still.InvoiceStatus)
}

/* ===================== concurrency ===================== */

func TestConcurrentAddItem_NoLostUpdates(t *testing.T) {
	s := newTestService()
	view := createInvoice(t, s, "0")
	ctx := context.Background()

	const n = 25
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := s.AddInvoiceItem(ctx, view.InvoiceID, dto.InvoiceItemCreateDTO{
				InvoiceItemDescription: fmt.Sprintf("Fee %d", i),
				InvoiceItemAmount:      "10",
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := s.ViewInvoice(ctx, view.InvoiceID)
	require.NoError(t, err)
	assert.Len(t, final.InvoiceItems, n)
	assert.Equal(t, "250", final.TotalPayable.String())
}
