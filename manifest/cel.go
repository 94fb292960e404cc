package manifest

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/zero-day-ai/plugkit/bag"
)

// exprPrefix marks a string value as a CEL expression.
const exprPrefix = "="

// newEnv declares the single variable manifests can read.
func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("settings", cel.MapType(cel.StringType, cel.DynType)),
	)
}

// compile validates the manifest and compiles every expression in it.
func (m *Manifest) compile() error {
	env, err := newEnv()
	if err != nil {
		return fmt.Errorf("failed to create expression environment: %w", err)
	}

	for i, ext := range m.Extensions {
		if ext == nil {
			return fmt.Errorf("%w: extensions[%d] is empty", ErrInvalidManifest, i)
		}
		if ext.Plugin == "" {
			return fmt.Errorf("%w: extensions[%d]: plugin is required", ErrInvalidManifest, i)
		}

		if strings.TrimSpace(ext.When) != "" {
			prg, outType, err := compileExpr(env, ext.When)
			if err != nil {
				return fmt.Errorf("%w: extensions[%d] (%s) when: %v", ErrInvalidManifest, i, ext.Plugin, err)
			}
			if outType != "bool" && outType != "dyn" {
				return fmt.Errorf("%w: extensions[%d] (%s) when: condition has type %s, not bool",
					ErrInvalidManifest, i, ext.Plugin, outType)
			}
			ext.cond = prg
		}

		ext.computed = nil
		for _, surface := range []struct {
			proto bool
			b     *bag.Bag
		}{{false, ext.Static}, {true, ext.Prototype}} {
			if err := collect(env, ext, surface.b, "", surface.proto); err != nil {
				return fmt.Errorf("%w: extensions[%d] (%s) %v", ErrInvalidManifest, i, ext.Plugin, err)
			}
		}
	}
	return nil
}

// collect walks b, compiling every expression string and unescaping "=="
// literals in place.
func collect(env *cel.Env, ext *Extension, b *bag.Bag, prefix string, proto bool) error {
	var walkErr error
	b.Each(func(key string, v any) bool {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch t := v.(type) {
		case *bag.Bag:
			walkErr = collect(env, ext, t, path, proto)
		case string:
			if !strings.HasPrefix(t, exprPrefix) {
				return true
			}
			if strings.HasPrefix(t, exprPrefix+exprPrefix) {
				b.Set(key, t[len(exprPrefix):])
				return true
			}
			prg, _, err := compileExpr(env, t[len(exprPrefix):])
			if err != nil {
				cv := computedValue{proto: proto, path: path}
				walkErr = fmt.Errorf("%s: %v", cv.label(), err)
				break
			}
			ext.computed = append(ext.computed, computedValue{proto: proto, path: path, prg: prg})
		}
		return walkErr == nil
	})
	return walkErr
}

func compileExpr(env *cel.Env, expr string) (cel.Program, string, error) {
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, "", iss.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, "", err
	}
	return prg, ast.OutputType().String(), nil
}

var (
	listType = reflect.TypeOf([]any{})
	mapType  = reflect.TypeOf(map[string]any{})
)

// evaluate runs prg and converts the result to a bag-friendly Go value.
func evaluate(prg cel.Program, vars map[string]any) (any, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return nil, err
	}
	return nativeValue(out)
}

func nativeValue(v ref.Val) (any, error) {
	if _, ok := v.(types.Null); ok {
		return nil, nil
	}
	switch t := v.Value().(type) {
	case bool, string, float64, nil:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	}

	if l, err := v.ConvertToNative(listType); err == nil {
		return bag.Convert(l), nil
	}
	if m, err := v.ConvertToNative(mapType); err == nil {
		return bag.Convert(m), nil
	}
	return v.Value(), nil
}
