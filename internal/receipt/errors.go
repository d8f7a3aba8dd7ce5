package receipt

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed receipt operation for the caller
type ErrorKind string

const (
	KindNoFileProvided     ErrorKind = "no_file_provided"
	KindExtraction         ErrorKind = "extraction_error"
	KindNoTextFound        ErrorKind = "no_text_found"
	KindStructuringService ErrorKind = "structuring_service_error"
	KindMalformedResponse  ErrorKind = "malformed_ai_response"
	KindNoItemsExtracted   ErrorKind = "no_items_extracted"
	KindPersistence        ErrorKind = "persistence_error"
	KindNotFound           ErrorKind = "not_found"
	KindInvalidInput       ErrorKind = "invalid_input"
)

// Error is returned by every Service operation that fails. ExtractedText and
// RawResponse carry diagnostics for the extraction failures that have them.
type Error struct {
	Kind          ErrorKind
	Message       string
	ExtractedText string
	RawResponse   string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a receipt error, or "" for any other error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func newError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// httpStatus maps an error kind to the response status code
func httpStatus(kind ErrorKind) int {
	switch kind {
	case KindNoFileProvided, KindNoTextFound, KindNoItemsExtracted, KindInvalidInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindStructuringService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
