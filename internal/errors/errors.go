package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// StoreUnavailable indicates the incident store could not be reached
	StoreUnavailable ErrorCode = "STORE_UNAVAILABLE"
	// SearchUnavailable indicates the search backend could not be reached
	SearchUnavailable ErrorCode = "SEARCH_UNAVAILABLE"
	// AnswerUnavailable indicates the answer synthesis service failed
	AnswerUnavailable ErrorCode = "ANSWER_UNAVAILABLE"
	// QueryInvalid indicates the query text could not be processed
	QueryInvalid ErrorCode = "QUERY_INVALID"
	// IntentInvalid indicates an unknown intent name
	IntentInvalid ErrorCode = "INTENT_INVALID"
	// ConfigInvalid indicates a malformed configuration
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ImportFailed indicates an incident data import could not complete
	ImportFailed ErrorCode = "IMPORT_FAILED"
	// AuthDenied indicates a missing or invalid access token
	AuthDenied ErrorCode = "AUTH_DENIED"
	// Timeout indicates an operation timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// IkbError represents an IKB error with code, message, and suggestions
type IkbError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new IkbError
func New(code ErrorCode, message string, cause error) *IkbError {
	return &IkbError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *IkbError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *IkbError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *IkbError) WithDetails(details interface{}) *IkbError {
	e.Details = details
	return e
}

// CodeOf returns the error code of err if it is an IkbError, or
// InternalError otherwise.
func CodeOf(err error) ErrorCode {
	if e, ok := err.(*IkbError); ok {
		return e.Code
	}
	return InternalError
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StoreUnavailable: {
		{
			Type:        RunCommand,
			Command:     "ikb status",
			Safe:        true,
			Description: "Check incident store path and schema",
		},
	},
	SearchUnavailable: {
		{
			Type:        RunCommand,
			Command:     "ikb status",
			Safe:        true,
			Description: "Check search index state",
		},
	},
	ImportFailed: {
		{
			Type:        RunCommand,
			Command:     "ikb import --dry-run <file>",
			Safe:        true,
			Description: "Validate the import file without writing",
		},
	},
	AnswerUnavailable: {
		{
			Type:        RunCommand,
			Command:     "ikb ask --no-answer <question>",
			Safe:        true,
			Description: "Retrieve documents without answer synthesis",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
