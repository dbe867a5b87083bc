// Package types defines core data types and enums shared across the
// document translator and placeholder restoration pipeline.
package types

// Config holds the application configuration. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	DeepLAPIKey     string `json:"deepl_api_key"`
	DeepLBaseURL    string `json:"deepl_base_url"`    // api.deepl.com or api-free.deepl.com
	Concurrency     int    `json:"concurrency"`       // concurrent document jobs, default 2
	RequestPacingMS int    `json:"request_pacing_ms"` // delay between API requests
	OutputDir       string `json:"output_dir"`
	TempDir         string `json:"temp_dir"`
	StrictMode      bool   `json:"strict_mode"` // abort a document on placeholder count mismatch
	RawPatch        bool   `json:"raw_patch"`   // use the byte-level patch strategy
	ReportDir       string `json:"report_dir"`
}

// LanguagePair describes one supported translation direction.
type LanguagePair struct {
	Name   string `json:"name"`
	Source string `json:"source"` // DeepL source language code, e.g. "RU"
	Target string `json:"target"` // DeepL target language code, e.g. "EN-US"
}

// DefaultLanguagePairs returns the built-in translation directions.
func DefaultLanguagePairs() []LanguagePair {
	return []LanguagePair{
		{Name: "Russian -> English (US)", Source: "RU", Target: "EN-US"},
		{Name: "English -> Russian", Source: "EN", Target: "RU"},
		{Name: "German -> Russian", Source: "DE", Target: "RU"},
	}
}

// ReconcileMode governs behavior when canonical and candidate placeholder
// sequence lengths differ.
type ReconcileMode int

const (
	// ModeStrict aborts the document when the counts differ.
	ModeStrict ReconcileMode = iota
	// ModeTolerant truncates the longer sequence to the shorter length
	// and records the discrepancy as a warning.
	ModeTolerant
)

// String returns the string representation of ReconcileMode
func (m ReconcileMode) String() string {
	switch m {
	case ModeStrict:
		return "strict"
	case ModeTolerant:
		return "tolerant"
	default:
		return "unknown"
	}
}

// PatchStrategy selects how reconciled substitutions are written back
// into the document.
type PatchStrategy int

const (
	// PatchStructured rewrites each affected paragraph as a single run.
	// Intra-paragraph run formatting in patched paragraphs is not preserved.
	PatchStructured PatchStrategy = iota
	// PatchRaw replaces occurrence substrings inside the serialized part XML,
	// first match then consume. Formatting is preserved but the strategy is
	// fragile when the translation engine split a placeholder across runs.
	PatchRaw
)

// String returns the string representation of PatchStrategy
func (s PatchStrategy) String() string {
	switch s {
	case PatchStructured:
		return "structured"
	case PatchRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// DocumentOutcome classifies the result of processing a single document.
type DocumentOutcome string

const (
	OutcomeSuccess DocumentOutcome = "success"
	OutcomeWarning DocumentOutcome = "warning" // completed with warnings (truncation, unrepairable occurrences)
	OutcomeFailed  DocumentOutcome = "failed"
	OutcomeSkipped DocumentOutcome = "skipped" // output already exists
)

// ErrorCode enumerates error categories used across the application.
type ErrorCode string

const (
	ErrNetwork        ErrorCode = "NETWORK_ERROR"
	ErrAuth           ErrorCode = "AUTH_ERROR"
	ErrQuota          ErrorCode = "QUOTA_EXCEEDED"
	ErrRateLimit      ErrorCode = "API_RATE_LIMIT"
	ErrAPICall        ErrorCode = "API_CALL_ERROR"
	ErrDocumentRead   ErrorCode = "DOCUMENT_READ_ERROR"
	ErrDocumentWrite  ErrorCode = "DOCUMENT_WRITE_ERROR"
	ErrLengthMismatch ErrorCode = "PLACEHOLDER_LENGTH_MISMATCH"
	ErrInvalidInput   ErrorCode = "INVALID_INPUT"
	ErrConfig         ErrorCode = "CONFIG_ERROR"
	ErrInternal       ErrorCode = "INTERNAL_ERROR"
)

// AppError is the application error type carrying a code and an optional cause.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface for AppError
func (e *AppError) Error() string {
	if e.Details != "" {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Unwrap returns the underlying cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new AppError with the given code, message, and optional cause
func NewAppError(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewAppErrorWithDetails creates a new AppError with details
func NewAppErrorWithDetails(code ErrorCode, message, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}
