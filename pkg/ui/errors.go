package ui

import rerrors "github.com/vango-dev/rover/internal/errors"

// Sentinel errors, matched with errors.Is.
var (
	ErrUnknownNode      = rerrors.New("R020")
	ErrNotFinalized     = rerrors.New("R021")
	ErrAlreadyFinalized = rerrors.New("R022")
	ErrNotLeaf          = rerrors.New("R023")
	ErrNotContainer     = rerrors.New("R024")
	ErrRenderInBatch    = rerrors.New("R025")
	ErrHasParent        = rerrors.New("R026")
	ErrAlreadyMounted   = rerrors.New("R027")
	ErrContainsItself   = rerrors.New("R028")
	ErrNotMounted       = rerrors.New("R029")
)

func nodeErr(code string, id NodeID) error {
	return rerrors.New(code).WithDetail(id.String())
}
