// file: internals/helpers/apperr/apperr.go
package apperr

import (
	"errors"
	"fmt"
)

/* ==============================
   Taksonomi error domain
============================== */

// Sentinel untuk errors.Is.
var (
	// ErrValidation: input cacat (deskripsi kosong, nominal bukan angka,
	// tanggal tidak valid). Dikembalikan ke caller, tidak pernah di-retry.
	ErrValidation = errors.New("validation error")

	// ErrNotFound: id invoice/item/receipt tidak ada atau sudah dihapus.
	ErrNotFound = errors.New("not found")
)

// Error membungkus sentinel dengan pesan yang bisa ditampilkan ke caller.
type Error struct {
	Kind error  // ErrValidation | ErrNotFound
	Msg  string // pesan untuk caller
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
