// Package errors defines stable error codes for all glsel failure modes.
package errors

import (
	"errors"
	"fmt"
)

// Code represents a stable error code
type Code string

const (
	// ConfigMissing indicates required configuration is absent
	ConfigMissing Code = "CONFIG_MISSING"
	// RemoteCountFailed indicates the total-count query against a scope failed
	RemoteCountFailed Code = "REMOTE_COUNT_FAILED"
	// RemoteFetchFailed indicates a page fetch failed after exhausting retries
	RemoteFetchFailed Code = "REMOTE_FETCH_FAILED"
	// StorageFailed indicates a cache store operation failed
	StorageFailed Code = "STORAGE_FAILED"
	// PickerFailed indicates the external picker could not run
	PickerFailed Code = "PICKER_FAILED"
)

// Error is a glsel error with a stable code and optional cause
type Error struct {
	Code    Code
	Message string
	cause   error
}

// New creates a new Error
func New(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// CodeOf extracts the code from an error, or empty if it carries none
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// SuggestedFixes maps error codes to remediation hints shown to the user
var SuggestedFixes = map[Code]string{
	ConfigMissing:     "set GITLAB_TOKEN (or token in the config file) and base_url for self-hosted instances",
	RemoteCountFailed: "check base_url, network reachability and that the token can read the configured groups",
	RemoteFetchFailed: "transient GitLab errors are retried automatically; re-run, or lower max_concurrent",
	PickerFailed:      "install fzf or re-run with --query and --print",
}
