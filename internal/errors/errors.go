package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// InvalidRequest indicates a malformed request body or parameter
	InvalidRequest ErrorCode = "INVALID_REQUEST"
	// SourceTooLarge indicates submitted source exceeds the configured limit
	SourceTooLarge ErrorCode = "SOURCE_TOO_LARGE"
	// Unauthorized indicates a missing or invalid API token
	Unauthorized ErrorCode = "UNAUTHORIZED"
	// NotFound indicates a stored analysis or route doesn't exist
	NotFound ErrorCode = "NOT_FOUND"
	// HistoryDisabled indicates a history operation while history is off
	HistoryDisabled ErrorCode = "HISTORY_DISABLED"
	// ManifestInvalid indicates the program manifest can't be read or parsed
	ManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// SuiteInvalid indicates an eval suite file can't be read or parsed
	SuiteInvalid ErrorCode = "SUITE_INVALID"
	// StorageUnavailable indicates the history database can't be opened
	StorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"
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

// Drilldown represents a suggested follow-up command
type Drilldown struct {
	Label string `json:"label"`
	Query string `json:"query"`
}

// StbError represents an STB error with code, message, and suggestions
type StbError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	Drilldowns     []Drilldown `json:"drilldowns,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// NewStbError creates a new StbError
func NewStbError(code ErrorCode, message string, cause error, suggestedFixes []FixAction, drilldowns []Drilldown) *StbError {
	return &StbError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: suggestedFixes,
		Drilldowns:     drilldowns,
	}
}

// Error implements the error interface
func (e *StbError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *StbError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *StbError) WithDetails(details interface{}) *StbError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	StorageUnavailable: {
		{
			Type:        RunCommand,
			Command:     "stb init",
			Safe:        true,
			Description: "Initialize the .stb workspace and history database",
		},
	},
	HistoryDisabled: {
		{
			Type:        RunCommand,
			Command:     "stb config set history.enabled true",
			Safe:        true,
			Description: "Enable analysis history for this workspace",
		},
	},
	Unauthorized: {
		{
			Type:        RunCommand,
			Command:     "stb token create --name ci --scopes write",
			Safe:        true,
			Description: "Create an API token and send it as a Bearer credential",
		},
	},
	ManifestInvalid: {
		{
			Type:        RunCommand,
			Command:     "stb batch --validate",
			Safe:        true,
			Description: "Check the program manifest without analyzing",
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
