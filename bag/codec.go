package bag

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a YAML mapping into the bag, keeping document order.
// Nested mappings become bags.
func (b *Bag) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("bag: expected a mapping at line %d, got %s", node.Line, kindName(node.Kind))
	}
	if b.vals == nil {
		b.vals = make(map[string]any)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		var key string
		if err := node.Content[i].Decode(&key); err != nil {
			return fmt.Errorf("bag: decode key at line %d: %w", node.Content[i].Line, err)
		}
		v, err := decodeNode(node.Content[i+1])
		if err != nil {
			return fmt.Errorf("bag: member %q: %w", key, err)
		}
		b.Set(key, v)
	}
	return nil
}

func decodeNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.MappingNode:
		nested := New()
		if err := nested.UnmarshalYAML(node); err != nil {
			return nil, err
		}
		return nested, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, c := range node.Content {
			v, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.AliasNode:
		return decodeNode(node.Alias)
	default:
		var v any
		if err := node.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	case yaml.DocumentNode:
		return "document"
	default:
		return "mapping"
	}
}

// MarshalYAML encodes the bag as an ordered YAML mapping.
func (b *Bag) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range b.keys {
		var vn yaml.Node
		if err := vn.Encode(b.vals[k]); err != nil {
			return nil, fmt.Errorf("bag: encode member %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&vn,
		)
	}
	return node, nil
}

// UnmarshalJSON decodes a JSON object into the bag, keeping member order.
// JSON is parsed through the YAML decoder, which accepts it as a subset.
func (b *Bag) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("bag: %w", err)
	}
	return b.UnmarshalYAML(&node)
}

// MarshalJSON encodes the bag as an ordered JSON object. Callable members
// cannot be represented and are encoded as null.
func (b *Bag) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalJSONValue(b.vals[k])
		if err != nil {
			return nil, fmt.Errorf("bag: encode member %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalJSONValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case *Bag:
		return t.MarshalJSON()
	case []any:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			eb, err := marshalJSONValue(e)
			if err != nil {
				return nil, err
			}
			buf.Write(eb)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		if _, ok := err.(*json.UnsupportedTypeError); ok {
			return []byte("null"), nil
		}
		return nil, err
	}
	return data, nil
}
