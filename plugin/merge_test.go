package plugin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zero-day-ai/plugkit/bag"
	"github.com/zero-day-ai/plugkit/settings"
)

func noopCtor(*Call) (any, error) { return nil, nil }

func TestMergeIsNonDestructive(t *testing.T) {
	impl := NewImplementation(noopCtor).
		WithStatic("VERSION", "3.3.7").
		WithStatic("DEFAULTS", bag.Of(
			"animation", true,
			"placement", "right",
			"delay", bag.Of("show", 0, "hide", 0),
		))

	impl.merge(Augmentation{Static: bag.Of(
		"DEFAULTS", bag.Of("placement", "left", "delay", bag.Of("hide", 100)),
	)})

	d := impl.Defaults()
	assert.Equal(t, []string{"animation", "placement", "delay"}, d.Keys())
	assert.Equal(t, true, d.Value("animation"))
	assert.Equal(t, "left", d.Value("placement"))
	assert.Equal(t, 0, d.Bag("delay").Value("show"))
	assert.Equal(t, 100, d.Bag("delay").Value("hide"))

	v, ok := impl.StaticValue("VERSION")
	assert.True(t, ok)
	assert.Equal(t, "3.3.7", v)
}

func TestMergeReplacesSlicesAndScalars(t *testing.T) {
	impl := NewImplementation(noopCtor).
		WithStatic("DEFAULTS", bag.Of("trigger", []any{"hover", "focus"}, "title", "a"))

	impl.merge(Augmentation{Static: bag.Of("DEFAULTS", bag.Of("trigger", []any{"click"}, "title", nil))})

	d := impl.Defaults()
	assert.Equal(t, []any{"click"}, d.Value("trigger"))
	assert.True(t, d.Has("title"))
	assert.Nil(t, d.Value("title"))
}

func TestMergeDoesNotAliasSource(t *testing.T) {
	impl := NewImplementation(noopCtor)
	src := bag.Of("DEFAULTS", bag.Of("enabled", true))

	impl.merge(Augmentation{Static: src})
	src.Bag("DEFAULTS").Set("enabled", false)

	v, _ := impl.StaticValue("DEFAULTS.enabled")
	assert.Equal(t, true, v)
}

func TestStaticAndPrototypeStayIsolated(t *testing.T) {
	impl := NewImplementation(noopCtor).
		WithStatic("show", "static data").
		WithMethod("show", func(*Call) (any, error) { return "proto", nil })

	proto, static := impl.merge(Augmentation{
		Proto:  bag.Of("hide", Func(func(*Call) (any, error) { return "hidden", nil })),
		Static: bag.Of("DEFAULTS", bag.Of("enabled", true)),
	})

	assert.Equal(t, []string{"hide"}, proto)
	assert.Equal(t, []string{"DEFAULTS"}, static)

	assert.False(t, impl.Static().Has("hide"))
	assert.False(t, impl.Proto().Has("DEFAULTS"))
	v, _ := impl.StaticValue("show")
	assert.Equal(t, "static data", v)

	inst, err := impl.New()
	require.NoError(t, err)
	got, err := inst.Call("show")
	require.NoError(t, err)
	assert.Equal(t, "proto", got)
	got, err = inst.Call("hide")
	require.NoError(t, err)
	assert.Equal(t, "hidden", got)
}

func TestSameNameOnBothSurfacesStaysIsolated(t *testing.T) {
	impl := NewImplementation(noopCtor).
		WithStatic("m", bag.Of("a", 1)).
		WithMethod("m", constant(3))

	impl.merge(Augmentation{
		Proto:  bag.Of("m", times(2)),
		Static: bag.Of("m", bag.Of("b", 2)),
	})

	m, ok := impl.StaticValue("m")
	require.True(t, ok)
	assert.Equal(t, `{"a":1,"b":2}`, m.(*bag.Bag).String())
	assert.Nil(t, impl.StaticMember("m"), "static m holds data, not a method")

	inst, err := impl.New()
	require.NoError(t, err)
	got, err := inst.Call("m")
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestMergeChainsCallables(t *testing.T) {
	impl := NewImplementation(noopCtor).
		WithMethod("value", constant(10))

	impl.merge(Augmentation{Proto: bag.Of("value", plus(1))})
	impl.merge(Augmentation{Proto: bag.Of("value", times(2))})

	inst, err := impl.New()
	require.NoError(t, err)
	got, err := inst.Call("value")
	require.NoError(t, err)
	assert.Equal(t, 22, got)
}

func TestCallableOverDataDropsData(t *testing.T) {
	impl := NewImplementation(noopCtor).WithProto("title", "plain")

	impl.merge(Augmentation{Proto: bag.Of("title", Func(func(c *Call) (any, error) {
		assert.False(t, c.HasSuper())
		return "computed", nil
	}))})

	inst, err := impl.New()
	require.NoError(t, err)
	got, err := inst.Call("title")
	require.NoError(t, err)
	assert.Equal(t, "computed", got)
}

func TestDefaultsScenario(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(WithSettings(settings.New("popover_enabled", "true")))

	base := NewImplementation(noopCtor).
		WithStatic("DEFAULTS", bag.Of(
			"animation", true,
			"enabled", false,
			"placement", "right",
			"trigger", "click",
		))
	_, err := reg.Create(ctx, "popover", base)
	require.NoError(t, err)

	got, err := reg.Extend(ctx, "popover", Extension(func(s *settings.Settings) *bag.Bag {
		return bag.Of("DEFAULTS", bag.Of("enabled", s.Bool("popover_enabled")))
	}))
	require.NoError(t, err)
	assert.Same(t, base, got)

	d := got.Defaults()
	assert.Equal(t, true, d.Value("enabled"))
	assert.Equal(t, true, d.Value("animation"))
	assert.Equal(t, "right", d.Value("placement"))
	assert.Equal(t, "click", d.Value("trigger"))
}

func TestAugmentationFromBag(t *testing.T) {
	raw := bag.Of(
		"DEFAULTS", bag.Of("enabled", true),
		"prototype", bag.Of("show", Func(noopCtor)),
	)

	aug := AugmentationFromBag(raw)
	assert.Equal(t, []string{"DEFAULTS"}, aug.Static.Keys())
	assert.Equal(t, []string{"show"}, aug.Proto.Keys())
	assert.True(t, raw.Has("prototype"))

	aug = AugmentationFromBag(bag.Of("prototype", "not a bag", "x", 1))
	assert.Nil(t, aug.Proto)
	assert.Equal(t, []string{"x"}, aug.Static.Keys())

	aug = AugmentationFromBag(nil)
	assert.Nil(t, aug.Proto)
	assert.Nil(t, aug.Static)
}
