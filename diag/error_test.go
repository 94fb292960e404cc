package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "with plugin",
			err:  New("popover", "create", CodeDuplicateIdentifier, "already exists"),
			want: "popover [create/DUPLICATE_IDENTIFIER]: already exists",
		},
		{
			name: "without plugin",
			err:  New("", "extend-bag", CodeInvalidMergeInput, "bad input"),
			want: "[extend-bag/INVALID_MERGE_INPUT]: bad input",
		},
		{
			name: "with cause",
			err:  New("tooltip", "extend", CodeInvalidCallback, "no callback").WithCause(errors.New("nil func")),
			want: "tooltip [extend/INVALID_CALLBACK]: no callback: nil func",
		},
		{
			name: "without message",
			err:  &Error{Operation: "replace", Code: CodeConflict},
			want: "[replace/CONFLICT]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorIsMatchesByCode(t *testing.T) {
	err := Newf("popover", "extend", CodeUnknownIdentifier, map[string]any{"@id": "popover"})

	assert.True(t, errors.Is(err, ErrUnknownIdentifier))
	assert.False(t, errors.Is(err, ErrDuplicateIdentifier))
	assert.True(t, errors.Is(err, &Error{Plugin: "popover", Code: CodeUnknownIdentifier}))
	assert.False(t, errors.Is(err, &Error{Plugin: "tooltip", Code: CodeUnknownIdentifier}))
	assert.False(t, errors.Is(err, &Error{Operation: "create", Code: CodeUnknownIdentifier}))

	wrapped := fmt.Errorf("loading site defaults: %w", err)
	assert.True(t, errors.Is(wrapped, ErrUnknownIdentifier))

	var target *Error
	require.True(t, errors.As(wrapped, &target))
	assert.Equal(t, "popover", target.Plugin)
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := New("x", "create", CodeInvalidImplementation, "bad").WithCause(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestNewfUsesRegisteredTemplate(t *testing.T) {
	err := Newf("popover", "create", CodeDuplicateIdentifier, map[string]any{"@id": "popover"})

	assert.Equal(t, "Specified plugin identifier already exists: popover. Use ReplacePlugin() instead.", err.Message)
	assert.Equal(t, "popover", err.Details["@id"])
}

func TestWithDetailsMerges(t *testing.T) {
	err := New("", "op", CodeConflict, "m").
		WithDetails(map[string]any{"a": 1}).
		WithDetails(map[string]any{"b": 2, "a": 3})

	assert.Equal(t, map[string]any{"a": 3, "b": 2}, err.Details)
}
