package cmd

import (
	"errors"
	"maps"
	"slices"

	oerrors "github.com/opmodel/modpipe/internal/errors"
	"github.com/opmodel/modpipe/internal/output"
)

// ExitError wraps an error with an exit code.
type ExitError = oerrors.ExitError

// ExitCodeFromError determines the appropriate exit code for an error.
func ExitCodeFromError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	switch {
	case errors.Is(err, oerrors.ErrValidation):
		return ExitValidationError
	case errors.Is(err, oerrors.ErrNotFound):
		return ExitNotFound
	default:
		return ExitGeneralError
	}
}

// exitErrorFor wraps err with the exit code its sentinel maps to.
func exitErrorFor(err error, printed bool) *ExitError {
	return &ExitError{Code: ExitCodeFromError(err), Err: err, Printed: printed}
}

// printError logs err at error level, with its location and hint when it
// carries details.
func printError(msg string, err error) {
	var detail *oerrors.DetailError
	if errors.As(err, &detail) {
		keyvals := []any{"error", detail.Message}
		if detail.Location != "" {
			keyvals = append(keyvals, "location", detail.Location)
		}
		for _, k := range slices.Sorted(maps.Keys(detail.Context)) {
			keyvals = append(keyvals, k, detail.Context[k])
		}
		output.Error(msg, keyvals...)
		if detail.Hint != "" {
			output.Info(detail.Hint)
		}
		return
	}
	output.Error(msg, "error", err)
}
