package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks rejected input: missing title/content, invalid or
	// oversized media, empty comment text.
	ErrValidation = errors.New("validation error")
	// ErrAuthorization marks operations attempted without a resolved user.
	ErrAuthorization = errors.New("authorization error")
	// ErrUpload marks a failure in either phase of the two-phase media upload.
	ErrUpload = errors.New("upload error")
	// ErrPersistence marks a failed insert/update/delete against the store.
	ErrPersistence = errors.New("persistence error")
	// ErrNotFound marks lookups for records that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks retryable failures with no better classification.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
