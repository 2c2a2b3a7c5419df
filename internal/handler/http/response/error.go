package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/validator"
)

// detailer is implemented by errors that carry structured context,
// e.g. an insufficient balance reporting what was left.
type detailer interface {
	Details() map[string]string
}

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var appErr *apperror.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperror.KindInternal {
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
		return
	}

	var details map[string]string
	var d detailer
	if errors.As(err, &d) {
		details = d.Details()
	}

	writeError(w, appErr.Kind.HTTPStatus(), appErr.Code, appErr.Message, details)
}
