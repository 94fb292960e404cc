package plugkit

import "github.com/zero-day-ai/plugkit/diag"

// Sentinel errors for registration failures, for use with errors.Is:
//
//	if _, err := plugkit.CreatePlugin(ctx, "popover", impl); errors.Is(err, plugkit.ErrDuplicateIdentifier) {
//	    // use ReplacePlugin instead
//	}
//
// Every registration error is a *diag.Error; use errors.As to reach the
// plugin identifier, operation and message arguments.
var (
	// ErrDuplicateIdentifier indicates CreatePlugin was called for a taken identifier.
	ErrDuplicateIdentifier = diag.ErrDuplicateIdentifier

	// ErrUnknownIdentifier indicates ExtendPlugin or ReplacePlugin was called
	// for an identifier nothing was created under.
	ErrUnknownIdentifier = diag.ErrUnknownIdentifier

	// ErrInvalidIdentifier indicates an empty identifier.
	ErrInvalidIdentifier = diag.ErrInvalidIdentifier

	// ErrInvalidImplementation indicates an implementation without a constructor.
	ErrInvalidImplementation = diag.ErrInvalidImplementation

	// ErrInvalidCallback indicates a nil extension callback.
	ErrInvalidCallback = diag.ErrInvalidCallback

	// ErrInvalidExtensionResult indicates an extension callback that did not
	// return an augmentation.
	ErrInvalidExtensionResult = diag.ErrInvalidExtensionResult

	// ErrInvalidReplacement indicates a replacement callback that did not
	// return a new implementation.
	ErrInvalidReplacement = diag.ErrInvalidReplacement

	// ErrConflict indicates the identifier changed hands while its extension
	// callback ran.
	ErrConflict = diag.ErrConflict
)
