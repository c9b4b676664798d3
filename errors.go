package analyst

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a request, message or decision failed validation.
	ErrValidation = errors.New("validation error")

	// ErrClassificationUnavailable indicates the completion collaborator could
	// not produce a usable intent decision. Recovered by the keyword fallback.
	ErrClassificationUnavailable = errors.New("classification unavailable")

	// ErrUnknownSpecialist indicates a specialist reference has no bound handler.
	ErrUnknownSpecialist = errors.New("unknown specialist")

	// ErrInvalidTable indicates the instruction targets a table the handler is
	// not bound to.
	ErrInvalidTable = errors.New("invalid table")

	// ErrInvalidParameters indicates query parameters the handler cannot serve.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrStoreUnavailable indicates the tabular store or message log failed.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrSynthesisUnavailable indicates the completion collaborator failed
	// while producing the final reply.
	ErrSynthesisUnavailable = errors.New("synthesis unavailable")

	// ErrNotFound indicates the requested session or table does not exist.
	ErrNotFound = errors.New("not found")
)

// ErrorKind is the stable, loggable name of a failure in the error taxonomy.
type ErrorKind string

const (
	KindNone                      ErrorKind = ""
	KindClassificationUnavailable ErrorKind = "classification_unavailable"
	KindUnknownSpecialist         ErrorKind = "unknown_specialist"
	KindInvalidTable              ErrorKind = "invalid_table"
	KindInvalidParameters         ErrorKind = "invalid_parameters"
	KindStoreUnavailable          ErrorKind = "store_unavailable"
	KindSynthesisUnavailable      ErrorKind = "synthesis_unavailable"
	KindInternal                  ErrorKind = "internal"
)

// KindOf maps err to its ErrorKind. A nil error maps to KindNone and an error
// outside the taxonomy maps to KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrClassificationUnavailable):
		return KindClassificationUnavailable
	case errors.Is(err, ErrUnknownSpecialist):
		return KindUnknownSpecialist
	case errors.Is(err, ErrInvalidTable):
		return KindInvalidTable
	case errors.Is(err, ErrInvalidParameters), errors.Is(err, ErrValidation):
		return KindInvalidParameters
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrNotFound):
		return KindStoreUnavailable
	case errors.Is(err, ErrSynthesisUnavailable):
		return KindSynthesisUnavailable
	default:
		return KindInternal
	}
}
