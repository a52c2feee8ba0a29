package pipeline

import "errors"

// Validation errors. Callers map these to client errors; they are never
// produced by a backend.
var (
	ErrEmptyProjectID    = errors.New("projectId is required")
	ErrMissingDocumentID = errors.New("document id is required")
	ErrEmptyDocument     = errors.New("document has no text to index")
	ErrEmptyQuery        = errors.New("query is required")
)

// Operations named in OpError messages.
const (
	OpIndexAnswer    = "index answer"
	OpSearch         = "search"
	OpCreate         = "create collection"
	OpConnect        = "connect to vector store"
	OpRemoveDocument = "remove document"
)

// OpError wraps a backend failure with the operation that hit it. Its message
// is "Failed to <op>: <cause>".
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "Failed to " + e.Op + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is one of the validation sentinels.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyProjectID) ||
		errors.Is(err, ErrMissingDocumentID) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrEmptyQuery)
}
