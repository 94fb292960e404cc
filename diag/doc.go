// Package diag provides the diagnostics channel for the plugin framework.
//
// # Overview
//
// Invalid use of the framework (an unknown identifier, a duplicate create,
// a callback returning the wrong payload) is never raised as a panic. The
// framework builds a structured *Error, reports it on a Channel, and returns
// it to the caller alongside a nil result. Callers check the result.
//
// # Error Codes
//
//   - CodeDuplicateIdentifier: create on an occupied identifier
//   - CodeUnknownIdentifier: extend or replace on an empty identifier
//   - CodeInvalidIdentifier: empty identifier
//   - CodeInvalidImplementation: create without a constructor
//   - CodeInvalidCallback: extend or replace without a callback
//   - CodeInvalidExtensionResult: extend callback returned something other than an augmentation
//   - CodeInvalidReplacement: replace callback returned something other than an implementation
//   - CodeInvalidReceiver: chaining a non-callable value
//   - CodeInvalidMergeInput: deep merge of a value that is not a bag (deferred)
//   - CodeConflict: slot replaced while a callback ran
//   - CodeUnsupported: unsupported setting or option (warning)
//
// # Messages
//
// Each code has a message template with "@name" placeholders, registered in
// a process-wide template registry:
//
//	diag.RegisterTemplate(diag.CodeUnknownIdentifier, "Kein Plugin namens @id")
//
// # Channel
//
// A Channel records every report in a bounded history. Reports are logged
// through slog only when developer diagnostics are on (the "dev" setting);
// otherwise they are silent. Deferred reports are delivered to the fatal
// handler on a separate goroutine regardless of dev mode:
//
//	ch := diag.NewChannel(diag.WithDev(true), diag.WithLogger(logger))
//	if _, err := reg.Extend(ctx, "popover", cb); errors.Is(err, diag.ErrUnknownIdentifier) {
//	    // popover was never created
//	}
package diag
