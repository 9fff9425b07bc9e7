// Package errors defines the application error taxonomy and the structured
// logger used across skillscope. An AppError pairs a coarse category (used
// for policy decisions such as retry eligibility) with a stable machine
// code and an optional key-value context that flows into log records.
package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// ErrorType is the coarse error category.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeAI         ErrorType = "ai"
	ErrorTypeSearch     ErrorType = "search"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeInternal   ErrorType = "internal"
)

// Stable machine-readable error codes. Codes are part of the log contract;
// renaming one breaks downstream alerting.
const (
	ErrCodeFileNotFound      = "FILE_NOT_FOUND"
	ErrCodeFileNotReadable   = "FILE_NOT_READABLE"
	ErrCodeInvalidFormat     = "INVALID_FORMAT"
	ErrCodeAIServiceFailed   = "AI_SERVICE_FAILED"
	ErrCodeEmptyCompletion   = "AI_EMPTY_COMPLETION"
	ErrCodeSearchFailed      = "SEARCH_FAILED"
	ErrCodeStorageFailed     = "STORAGE_FAILED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeMissingAPIKey     = "MISSING_API_KEY"
	ErrCodePlaceholderAPIKey = "PLACEHOLDER_API_KEY"
	ErrCodeNetworkTimeout    = "NETWORK_TIMEOUT"
	ErrCodeInvalidConfig     = "INVALID_CONFIG"
)

// AppError is the structured error carried across package boundaries.
type AppError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]any
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// WithContext attaches a key-value pair that LogError will emit alongside
// the error fields. Returns the receiver for chaining.
func (e *AppError) WithContext(key string, value any) *AppError {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

func typed(t ErrorType) func(code, message string, cause error) *AppError {
	return func(code, message string, cause error) *AppError {
		return &AppError{Type: t, Code: code, Message: message, Cause: cause}
	}
}

// Per-category constructors.
var (
	NewValidationError = typed(ErrorTypeValidation)
	NewIOError         = typed(ErrorTypeIO)
	NewAIError         = typed(ErrorTypeAI)
	NewSearchError     = typed(ErrorTypeSearch)
	NewNetworkError    = typed(ErrorTypeNetwork)
	NewConfigError     = typed(ErrorTypeConfig)
	NewStorageError    = typed(ErrorTypeStorage)
	NewInternalError   = typed(ErrorTypeInternal)
)

// Logger wraps slog with AppError-aware logging. All output is JSON on
// stdout so log collectors need no special parsing rules.
type Logger struct {
	logger *slog.Logger
}

// NewLogger creates a JSON logger at the given level.
func NewLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{logger: slog.New(handler)}
}

// New creates a logger from a textual level name (debug/info/warn/error).
func New(level string) (*Logger, error) {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}
	return NewLogger(slogLevel), nil
}

// LogError logs an error at error level. For an AppError the category,
// code and attached context become individual log fields; any other error
// is logged under a single "error" key.
func (l *Logger) LogError(err error, message string, args ...any) {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		l.logger.Error(message, append([]any{"error", err.Error()}, args...)...)
		return
	}

	fields := make([]any, 0, 6+2*len(appErr.Context)+len(args))
	fields = append(fields,
		"error_type", appErr.Type,
		"error_code", appErr.Code,
		"error_message", appErr.Message,
	)
	for key, value := range appErr.Context {
		fields = append(fields, key, value)
	}
	fields = append(fields, args...)
	l.logger.Error(message, fields...)
}

func (l *Logger) Info(message string, args ...any)  { l.logger.Info(message, args...) }
func (l *Logger) Debug(message string, args ...any) { l.logger.Debug(message, args...) }
func (l *Logger) Warn(message string, args ...any)  { l.logger.Warn(message, args...) }
