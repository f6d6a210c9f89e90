package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound  = errors.New("variant session not found")
	ErrGroupNotFound    = errors.New("option group not found")
	ErrRowNotFound      = errors.New("variant row not found")
	ErrInvalidDirection = errors.New("direction must be up or down")
	ErrExportDisabled   = errors.New("export storage not configured")
	ErrImageTooLarge    = errors.New("image exceeds the upload size limit")
)

// InvalidNumberError reports a row field that cannot be sent as a number.
type InvalidNumberError struct {
	SKU   string
	Field string
	Value string
}

func (e *InvalidNumberError) Error() string {
	return fmt.Sprintf("variant %s: %s %q is not a valid number", e.SKU, e.Field, e.Value)
}

// RemoteError is a failed call to the store API. Message is what the admin
// is shown.
type RemoteError struct {
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }
