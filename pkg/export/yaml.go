// Package export renders variants as YAML and reads them back.
//
// Hashes become mappings whose keys appear in traversal order, arrays become
// sequences and scalars keep their type through explicit tags, so a string
// "10" and the integer 10 stay distinct.
package export

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/chazu/uds/pkg/variant"
)

// Binding is a named variable for Encode.
type Binding struct {
	Name  string
	Value *variant.Variant
}

// Node converts v to a YAML node.
func Node(v *variant.Variant) *yaml.Node {
	switch v.Kind() {
	case variant.KindInt:
		return scalar("!!int", strconv.FormatInt(v.Int(), 10))
	case variant.KindNum:
		return scalar("!!float", formatFloat(v.Num()))
	case variant.KindStr:
		return scalar("!!str", v.Str())
	case variant.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 0; i < v.Len(); i++ {
			n.Content = append(n.Content, Node(v.Elem(i)))
		}
		return n
	case variant.KindHash:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.Store().Each(func(k, val *variant.Variant) bool {
			n.Content = append(n.Content, Node(k), Node(val))
			return true
		})
		return n
	default:
		return scalar("!!null", "~")
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	// Keep a decimal point so the value reads back as a float.
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		s += ".0"
	}
	return s
}

// Marshal renders v as a YAML document.
func Marshal(v *variant.Variant) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, Node(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes vars as one YAML mapping from variable name to value, in the
// given order.
func Encode(w io.Writer, vars []Binding) error {
	doc := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, b := range vars {
		doc.Content = append(doc.Content, scalar("!!str", b.Name), Node(b.Value))
	}
	return encode(w, doc)
}

func encode(w io.Writer, n *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return enc.Close()
}

// Unmarshal parses a YAML document into a variant. Mappings become hashes,
// sequences arrays. Booleans map to 1 and 0, null to unset.
func Unmarshal(data []byte) (*variant.Variant, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	return FromNode(&doc)
}

// FromNode converts a YAML node to a variant. Aliases are expanded; an
// alias inside the collection its anchor names is an error.
func FromNode(n *yaml.Node) (*variant.Variant, error) {
	return fromNode(n, make(map[*yaml.Node]bool))
}

// expanding holds the anchored collections currently being converted.
func fromNode(n *yaml.Node, expanding map[*yaml.Node]bool) (*variant.Variant, error) {
	switch n.Kind {
	case 0:
		return variant.New(), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return variant.New(), nil
		}
		return fromNode(n.Content[0], expanding)
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("export: line %d: unknown anchor %q", n.Line, n.Value)
		}
		if expanding[n.Alias] {
			return nil, fmt.Errorf("export: line %d: alias *%s refers to itself", n.Line, n.Value)
		}
		return fromNode(n.Alias, expanding)
	case yaml.SequenceNode:
		if n.Anchor != "" {
			expanding[n] = true
			defer delete(expanding, n)
		}
		elems := make([]*variant.Variant, len(n.Content))
		for i, c := range n.Content {
			e, err := fromNode(c, expanding)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return variant.NewArray(elems...), nil
	case yaml.MappingNode:
		if n.Anchor != "" {
			expanding[n] = true
			defer delete(expanding, n)
		}
		h := variant.NewHash()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, err := fromNode(n.Content[i], expanding)
			if err != nil {
				return nil, err
			}
			v, err := fromNode(n.Content[i+1], expanding)
			if err != nil {
				return nil, err
			}
			variant.FindOrInsert(h, k).Set(v)
		}
		return h, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return nil, fmt.Errorf("export: line %d: unsupported node kind %d", n.Line, n.Kind)
}

// UnmarshalBindings parses a document written by Encode: a mapping from
// variable name to value. The result keeps the document's order.
func UnmarshalBindings(data []byte) ([]Binding, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("export: line %d: expected a mapping of variable names", root.Line)
	}

	vars := make([]Binding, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Kind != yaml.ScalarNode || key.Value == "" {
			return nil, fmt.Errorf("export: line %d: variable name must be a non-empty scalar", key.Line)
		}
		v, err := FromNode(root.Content[i+1])
		if err != nil {
			return nil, err
		}
		vars = append(vars, Binding{Name: key.Value, Value: v})
	}
	return vars, nil
}

func fromScalar(n *yaml.Node) (*variant.Variant, error) {
	switch n.ShortTag() {
	case "!!null":
		return variant.New(), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, fmt.Errorf("export: line %d: %w", n.Line, err)
		}
		return variant.NewInt(i), nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("export: line %d: %w", n.Line, err)
		}
		return variant.NewNum(f), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("export: line %d: %w", n.Line, err)
		}
		if b {
			return variant.NewInt(1), nil
		}
		return variant.NewInt(0), nil
	default:
		return variant.NewStr(n.Value), nil
	}
}
