package document

import (
	"fmt"
	"strings"

	"github.com/tidemark-io/tidemark/kit/platform/errors"
)

var (
	// ErrDocumentIDRequired is when a document is written without an ID.
	ErrDocumentIDRequired = &errors.Error{
		Code: errors.EInvalid,
		Msg:  "document id is required",
	}

	// ErrDocumentNotFound is when the requested document does not exist.
	ErrDocumentNotFound = &errors.Error{
		Code: errors.ENotFound,
		Msg:  "document not found",
	}

	// ErrDocumentExists is when a create collides with a stored document.
	// Overwriting here could reassign the document's workspace; updates go
	// through UpdateDocument.
	ErrDocumentExists = &errors.Error{
		Code: errors.EConflict,
		Msg:  "document already exists",
	}
)

// CrossWorkspaceReferenceError reports that at least one declared reference
// points at a document outside the expected workspace. The offending IDs are
// listed for diagnostics.
func CrossWorkspaceReferenceError(ids []string) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  fmt.Sprintf("references must belong to the same workspace: %s", strings.Join(ids, ", ")),
	}
}

// MissingReferenceError reports a reference to a document that does not
// exist. Only raised in strict mode.
func MissingReferenceError(ids []string) *errors.Error {
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  fmt.Sprintf("referenced documents do not exist: %s", strings.Join(ids, ", ")),
	}
}

// ErrCorruptDocument is when a stored document cannot be decoded.
func ErrCorruptDocument(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "corrupt document stored",
		Err:  err,
	}
}

// ErrInternalServiceError is used when the error comes from the underlying
// store.
func ErrInternalServiceError(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Err:  err,
	}
}
