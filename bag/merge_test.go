package bag

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/plugkit/diag"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		dst  *Bag
		src  *Bag
		want *Bag
	}{
		{
			name: "new keys appended",
			dst:  Of("a", 1),
			src:  Of("b", 2),
			want: Of("a", 1, "b", 2),
		},
		{
			name: "scalar replaced",
			dst:  Of("a", 1),
			src:  Of("a", "x"),
			want: Of("a", "x"),
		},
		{
			name: "nested bags merged key by key",
			dst:  Of("DEFAULTS", Of("enabled", false, "html", false)),
			src:  Of("DEFAULTS", Of("enabled", true)),
			want: Of("DEFAULTS", Of("enabled", true, "html", false)),
		},
		{
			name: "slices replaced outright",
			dst:  Of("list", []any{1, 2, 3}),
			src:  Of("list", []any{9}),
			want: Of("list", []any{9}),
		},
		{
			name: "bag replaces scalar",
			dst:  Of("a", 1),
			src:  Of("a", Of("x", 1)),
			want: Of("a", Of("x", 1)),
		},
		{
			name: "nil value is kept",
			dst:  Of("a", 1),
			src:  Of("a", nil),
			want: Of("a", nil),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.dst, tt.src)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMergeDoesNotShareSourceBags(t *testing.T) {
	src := Of("DEFAULTS", Of("enabled", true))
	dst := Merge(New(), src)

	dst.Bag("DEFAULTS").Set("enabled", false)
	assert.Equal(t, true, src.Bag("DEFAULTS").Value("enabled"))
}

func TestMergeValueCopiesPreviousBag(t *testing.T) {
	prev := Of("x", 1)
	got := MergeValue(prev, Of("y", 2)).(*Bag)

	assert.Equal(t, Of("x", 1, "y", 2), got)
	assert.Equal(t, Of("x", 1), prev)
}

func TestExtendAcceptsMaps(t *testing.T) {
	dst := Of("a", 1)
	Extend(dst, map[string]any{"b": map[string]any{"c": 3}})

	v, ok := dst.Lookup("b.c")
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestExtendReportsUnsupportedInputLater(t *testing.T) {
	fatal := make(chan *diag.Error, 1)
	ch := diag.NewChannel(diag.WithFatalHandler(func(err *diag.Error) {
		fatal <- err
	}))
	old := diag.Default()
	diag.SetDefault(ch)
	defer diag.SetDefault(old)

	dst := Of("a", 1)
	got := Extend(dst, 42)

	assert.Same(t, dst, got)
	assert.Equal(t, Of("a", 1), dst)

	select {
	case err := <-fatal:
		assert.Equal(t, diag.CodeInvalidMergeInput, err.Code)
		assert.Equal(t, "int", err.Details["type"])
	case <-time.After(time.Second):
		t.Fatal("deferred report was not delivered")
	}
}

func TestDiffAndIntersect(t *testing.T) {
	a := Of("x", 1, "y", 2, "z", 3)
	b := Of("y", 0)
	c := Of("y", 0, "z", 0)

	assert.Equal(t, Of("x", 1), Diff(a, b, c))
	assert.Equal(t, Of("y", 2), Intersect(a, b, c))
	assert.Equal(t, a, Diff(a))
}
