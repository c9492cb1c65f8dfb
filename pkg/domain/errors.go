package domain

import "fmt"

// Error kinds surfaced at the API boundary. Each is a
// distinct type so callers can type-switch or errors.As to recover the
// structured payload the HTTP layer needs.

// ValidationError carries a field -> message map.
type ValidationError struct {
	Errors map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %d error(s)", len(e.Errors))
}

// NewValidationError builds a ValidationError from a single field/message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Errors: map[string]string{field: message}}
}

// SearchParseError carries the per-key error map produced by the query
// compiler.
type SearchParseError struct {
	Errors map[string]string
}

func (e *SearchParseError) Error() string {
	return fmt.Sprintf("search parse failed: %d error(s)", len(e.Errors))
}

// ReadOnlyModeError is returned for any mutating request when the
// instance is running with readonly=1.
type ReadOnlyModeError struct{}

func (e *ReadOnlyModeError) Error() string {
	return "This OLD is running in read-only mode"
}

// ReadOnlyResourceError is returned for any write against a backup
// collection.
type ReadOnlyResourceError struct{}

func (e *ReadOnlyResourceError) Error() string {
	return "This resource is read-only."
}

// UnauthenticatedError indicates no authenticated user.
type UnauthenticatedError struct{}

func (e *UnauthenticatedError) Error() string { return "authentication required" }

// UnauthorizedError carries the id of the referent the user could not
// access.
type UnauthorizedError struct {
	ReferentID int64
	Kind       string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized access to %s %d", e.Kind, e.ReferentID)
}

// NotFoundError carries the resource kind and id.
type NotFoundError struct {
	Kind string
	ID   interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("There is no %s with id %v", e.Kind, e.ID)
}

// ToolNotInstalledError names the missing external tool.
type ToolNotInstalledError struct {
	Tool string
}

func (e *ToolNotInstalledError) Error() string {
	return fmt.Sprintf("%s is not installed.", e.Tool)
}

// CircularReferenceError is raised when collection content expansion
// detects a cycle.
type CircularReferenceError struct {
	Cycle []int64
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference detected: %v", e.Cycle)
}

// NotNewError is returned when an update's fields are all unchanged from
// the current state.
type NotNewError struct{}

func (e *NotNewError) Error() string {
	return "the submitted data were not new"
}

// CorpusNotTreebankedError is returned when tgrep2 search is attempted
// against a corpus with no current compiled .t2c index.
type CorpusNotTreebankedError struct {
	CorpusID int64
}

func (e *CorpusNotTreebankedError) Error() string {
	return fmt.Sprintf("Corpus %d has not been written to file as a treebank", e.CorpusID)
}

// NotCompiledError is returned when applydown/applyup/runtests/parse is
// attempted against a Phonology, Morphology or MorphologicalParser with
// no current compiled binary on disk.
type NotCompiledError struct {
	Kind string
	ID   int64
}

func (e *NotCompiledError) Error() string {
	return fmt.Sprintf("%s %d has not been compiled", e.Kind, e.ID)
}

// ToolTimeoutError is returned when an external toolkit invocation
// (foma, flookup, tgrep2, estimate-ngram) exceeds its configured
// timeout. Compilers catch this and set their own *_succeeded=false.
type ToolTimeoutError struct {
	Tool    string
	Timeout string
}

func (e *ToolTimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Tool, e.Timeout)
}
