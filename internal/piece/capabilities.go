package piece

import (
	"bytes"
	"fmt"
	"iter"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Capabilities is an insertion-ordered mapping from capability name to
// capability. Names are unique; setting an existing name replaces the
// value and keeps its position. The zero value is an empty mapping.
type Capabilities[T Capability] struct {
	names []string
	items map[string]T
}

// NewCapabilities builds a mapping keyed by each item's name, in the
// given order.
func NewCapabilities[T Capability](items ...T) Capabilities[T] {
	var c Capabilities[T]
	for _, item := range items {
		c.Set(item.GetName(), item)
	}
	return c
}

// Len returns the number of entries.
func (c Capabilities[T]) Len() int {
	return len(c.names)
}

// Get returns the capability stored under name.
func (c Capabilities[T]) Get(name string) (T, bool) {
	v, ok := c.items[name]
	return v, ok
}

// Set stores v under name.
func (c *Capabilities[T]) Set(name string, v T) {
	if c.items == nil {
		c.items = make(map[string]T)
	}
	if _, exists := c.items[name]; !exists {
		c.names = append(c.names, name)
	}
	c.items[name] = v
}

// Names returns the keys in insertion order.
func (c Capabilities[T]) Names() []string {
	names := make([]string, len(c.names))
	copy(names, c.names)
	return names
}

// Values returns the capabilities in insertion order.
func (c Capabilities[T]) Values() []T {
	values := make([]T, 0, len(c.names))
	for _, name := range c.names {
		values = append(values, c.items[name])
	}
	return values
}

// All iterates over name/capability pairs in insertion order.
func (c Capabilities[T]) All() iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		for _, name := range c.names {
			if !yield(name, c.items[name]) {
				return
			}
		}
	}
}

// MarshalJSON encodes the mapping as a JSON object, keys in order.
func (c Capabilities[T]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range c.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(c.items[name])
		if err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes either a JSON object (name -> capability, order
// preserved) or an array of capabilities keyed by their own names.
func (c *Capabilities[T]) UnmarshalJSON(data []byte) error {
	*c = Capabilities[T]{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		var list []T
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		for _, item := range list {
			c.Set(item.GetName(), item)
		}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	if _, err := dec.Token(); err != nil {
		return err
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected capability name, got %v", tok)
		}
		var v T
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("failed to decode %q: %w", name, err)
		}
		c.Set(name, v)
	}
	_, err := dec.Token()
	return err
}

// MarshalYAML encodes the mapping as an ordered YAML mapping.
func (c Capabilities[T]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, name := range c.names {
		var value yaml.Node
		if err := value.Encode(c.items[name]); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&value,
		)
	}
	return node, nil
}

// UnmarshalYAML accepts a mapping or a sequence, like UnmarshalJSON.
func (c *Capabilities[T]) UnmarshalYAML(node *yaml.Node) error {
	*c = Capabilities[T]{}

	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			name := node.Content[i].Value
			var v T
			if err := node.Content[i+1].Decode(&v); err != nil {
				return fmt.Errorf("line %d: failed to decode %q: %w", node.Content[i].Line, name, err)
			}
			c.Set(name, v)
		}
	case yaml.SequenceNode:
		for _, item := range node.Content {
			var v T
			if err := item.Decode(&v); err != nil {
				return fmt.Errorf("line %d: %w", item.Line, err)
			}
			c.Set(v.GetName(), v)
		}
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("line %d: expected mapping of capabilities", node.Line)
		}
	default:
		return fmt.Errorf("line %d: expected mapping of capabilities", node.Line)
	}
	return nil
}
