package errors

import (
	"context"
	"errors"
)

// Error kinds shared by the clustering, recommendation and search layers.
const (
	CodeEmbedding        = "embedding_error"
	CodeVectorIndex      = "vector_index_unavailable"
	CodeDegenerateCorpus = "degenerate_corpus"
	CodeStoreFetch       = "store_fetch_error"
	CodeClustering       = "clustering_failure"
	CodeTimeout          = "timeout"
	CodeInvalidInput     = "invalid_input"
	CodeConfig           = "config_error"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the outermost AppError code. Deadline and cancellation
// errors anywhere in the chain are reported as CodeTimeout.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return CodeTimeout
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "unknown"
}
