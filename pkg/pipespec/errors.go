package pipespec

import (
	"errors"
	"fmt"
)

// ErrNoSheets indicates an extraction run was started with no sheet
// selection.
var ErrNoSheets = errors.New("no sheets selected")

// ErrCancelled indicates the run was cancelled; results sealed before
// the cancellation are still returned alongside it.
var ErrCancelled = errors.New("extraction cancelled")

// SheetError describes a failure contained at the sheet boundary. The
// sheet still contributes a (possibly empty) result; the error exists
// for logging.
type SheetError struct {
	Sheet string
	Stage string // "viewport", "candidates", "attributes"
	Err   error
}

func (e *SheetError) Error() string {
	return fmt.Sprintf("sheet %q (%s): %v", e.Sheet, e.Stage, e.Err)
}

func (e *SheetError) Unwrap() error {
	return e.Err
}
