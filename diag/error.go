package diag

import (
	"fmt"
	"strings"
)

// Standard diagnostic codes reported by the plugin framework.
const (
	// CodeDuplicateIdentifier indicates a create on an occupied identifier
	CodeDuplicateIdentifier = "DUPLICATE_IDENTIFIER"

	// CodeUnknownIdentifier indicates an extend or replace on an empty identifier
	CodeUnknownIdentifier = "UNKNOWN_IDENTIFIER"

	// CodeInvalidIdentifier indicates an empty plugin identifier
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"

	// CodeInvalidImplementation indicates a create without a usable constructor
	CodeInvalidImplementation = "INVALID_IMPLEMENTATION"

	// CodeInvalidCallback indicates a missing extension callback
	CodeInvalidCallback = "INVALID_CALLBACK"

	// CodeInvalidExtensionResult indicates an extend callback that did not return an augmentation
	CodeInvalidExtensionResult = "INVALID_EXTENSION_RESULT"

	// CodeInvalidReplacement indicates a replace callback that did not return an implementation
	CodeInvalidReplacement = "INVALID_REPLACEMENT"

	// CodeInvalidReceiver indicates an attempt to chain a non-callable value
	CodeInvalidReceiver = "INVALID_RECEIVER"

	// CodeInvalidMergeInput indicates a deep merge of something that is not a bag
	CodeInvalidMergeInput = "INVALID_MERGE_INPUT"

	// CodeConflict indicates the registry slot changed while a callback was running
	CodeConflict = "CONFLICT"

	// CodeUnsupported indicates a setting or option the layer does not support
	CodeUnsupported = "UNSUPPORTED"
)

// Error is a structured diagnostic for invalid framework usage.
// It names the plugin and operation involved, carries a standard code,
// and keeps the template arguments used to build its message.
type Error struct {
	// Plugin is the identifier the operation targeted, if any
	Plugin string

	// Operation is the framework operation that failed (create, extend, replace, chain, extend-bag)
	Operation string

	// Code is a standard diagnostic code constant
	Code string

	// Message is the human-readable description
	Message string

	// Details contains additional context as key-value pairs
	Details map[string]any

	// Cause is the underlying error, if any
	Cause error
}

// New creates a diagnostic with an explicit message.
func New(plugin, operation, code, message string) *Error {
	return &Error{
		Plugin:    plugin,
		Operation: operation,
		Code:      code,
		Message:   message,
	}
}

// Newf creates a diagnostic whose message is the template registered for
// code, formatted with args. The args are kept as Details.
//
// Example:
//
//	err := diag.Newf("popover", "create", diag.CodeDuplicateIdentifier,
//	    map[string]any{"@id": "popover"})
func Newf(plugin, operation, code string, args map[string]any) *Error {
	return &Error{
		Plugin:    plugin,
		Operation: operation,
		Code:      code,
		Message:   Format(Template(code), args),
		Details:   args,
	}
}

// WithCause adds an underlying error and returns the same instance.
func (e *Error) WithCause(err error) *Error {
	e.Cause = err
	return e
}

// WithDetails adds context and returns the same instance.
// Existing detail keys are overwritten.
func (e *Error) WithDetails(details map[string]any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// Error formats the diagnostic as "plugin [operation/code]: message: cause".
func (e *Error) Error() string {
	var parts []string

	head := fmt.Sprintf("[%s/%s]", e.Operation, e.Code)
	if e.Plugin != "" {
		head = e.Plugin + " " + head
	}
	parts = append(parts, head)

	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code. Plugin and Operation are compared only
// when the target sets them, so the code sentinels below match any plugin.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != e.Code {
		return false
	}
	if t.Plugin != "" && t.Plugin != e.Plugin {
		return false
	}
	if t.Operation != "" && t.Operation != e.Operation {
		return false
	}
	return true
}

// Sentinels for errors.Is checks, one per code.
var (
	ErrDuplicateIdentifier    = &Error{Code: CodeDuplicateIdentifier}
	ErrUnknownIdentifier      = &Error{Code: CodeUnknownIdentifier}
	ErrInvalidIdentifier      = &Error{Code: CodeInvalidIdentifier}
	ErrInvalidImplementation  = &Error{Code: CodeInvalidImplementation}
	ErrInvalidCallback        = &Error{Code: CodeInvalidCallback}
	ErrInvalidExtensionResult = &Error{Code: CodeInvalidExtensionResult}
	ErrInvalidReplacement     = &Error{Code: CodeInvalidReplacement}
	ErrInvalidReceiver        = &Error{Code: CodeInvalidReceiver}
	ErrInvalidMergeInput      = &Error{Code: CodeInvalidMergeInput}
	ErrConflict               = &Error{Code: CodeConflict}
	ErrUnsupported            = &Error{Code: CodeUnsupported}
)
