package diag

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// TemplateRegistry stores the message template used for each diagnostic code.
// Templates use "@name", "%name" and "!name" placeholders whose values are
// supplied per report.
type TemplateRegistry struct {
	mu        sync.RWMutex
	templates map[string]string
}

// globalTemplates is the package-level registry used by RegisterTemplate,
// Template and Newf. Defaults are installed by init in defaults.go.
var globalTemplates = &TemplateRegistry{
	templates: make(map[string]string),
}

// RegisterTemplate sets the message template for a code, replacing any
// template already registered for it.
func RegisterTemplate(code, template string) {
	globalTemplates.mu.Lock()
	defer globalTemplates.mu.Unlock()

	globalTemplates.templates[code] = template
}

// Template returns the template registered for code. Unknown codes fall back
// to the code itself so a report is never empty.
func Template(code string) string {
	globalTemplates.mu.RLock()
	defer globalTemplates.mu.RUnlock()

	if t, ok := globalTemplates.templates[code]; ok {
		return t
	}
	return code
}

// Format substitutes placeholders in template with values from args.
// Keys include their sigil ("@id", "%name", "!raw"); longer keys are replaced
// first so "@id" never clobbers "@identifier". Maps, slices and structs are
// rendered as JSON; fmt.Stringer values use their String method.
//
// Example:
//
//	diag.Format("Unknown plugin: @id", map[string]any{"@id": "popover"})
//	// "Unknown plugin: popover"
func Format(template string, args map[string]any) string {
	if len(args) == 0 {
		return template
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, render(args[k]))
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func render(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		return fmt.Sprintf("func(%s)", rv.Type())
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		if data, err := json.Marshal(v); err == nil {
			return string(data)
		}
	}
	return fmt.Sprintf("%v", v)
}
