package image

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/uds/pkg/variant"
)

// node is the CBOR form of a variant. Hash elements are written in traversal
// order so that a decoded hash enumerates exactly like the original.
type node struct {
	Kind  variant.Kind `cbor:"1,keyasint"`
	Int   int64        `cbor:"2,keyasint,omitempty"`
	Num   float64      `cbor:"3,keyasint,omitempty"`
	Str   string       `cbor:"4,keyasint,omitempty"`
	Elems []node       `cbor:"5,keyasint,omitempty"`
	Pairs []pair       `cbor:"6,keyasint,omitempty"`
	// Coll is the collation a non-empty hash was built with.
	Coll variant.Collation `cbor:"7,keyasint,omitempty"`
}

type pair struct {
	Key   node `cbor:"1,keyasint"`
	Value node `cbor:"2,keyasint"`
}

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("image: failed to create CBOR enc mode: %v", err))
	}
	encMode = em
}

// MarshalVariant encodes v, including nested hashes and arrays, as CBOR.
func MarshalVariant(v *variant.Variant) ([]byte, error) {
	return encMode.Marshal(toNode(v))
}

// UnmarshalVariant decodes a variant written by MarshalVariant. Hashes are
// rebuilt under the collation they were encoded with.
func UnmarshalVariant(data []byte) (*variant.Variant, error) {
	var n node
	if err := cbor.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("image: unmarshal variant: %w", err)
	}
	return fromNode(&n)
}

func toNode(v *variant.Variant) node {
	n := node{Kind: v.Kind()}
	switch v.Kind() {
	case variant.KindInt:
		n.Int = v.Int()
	case variant.KindNum:
		n.Num = v.Num()
	case variant.KindStr:
		n.Str = v.Str()
	case variant.KindArray:
		n.Elems = make([]node, v.Len())
		for i := range n.Elems {
			n.Elems[i] = toNode(v.Elem(i))
		}
	case variant.KindHash:
		if variant.Count(v) > 0 {
			n.Coll = variant.CollationOf(v)
		}
		v.Store().Each(func(k, val *variant.Variant) bool {
			n.Pairs = append(n.Pairs, pair{Key: toNode(k), Value: toNode(val)})
			return true
		})
	}
	return n
}

func fromNode(n *node) (*variant.Variant, error) {
	switch n.Kind {
	case variant.KindUnset:
		return variant.New(), nil
	case variant.KindInt:
		return variant.NewInt(n.Int), nil
	case variant.KindNum:
		return variant.NewNum(n.Num), nil
	case variant.KindStr:
		return variant.NewStr(n.Str), nil
	case variant.KindArray:
		elems := make([]*variant.Variant, len(n.Elems))
		for i := range n.Elems {
			e, err := fromNode(&n.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return variant.NewArray(elems...), nil
	case variant.KindHash:
		h := variant.NewHash()
		for i := range n.Pairs {
			k, err := fromNode(&n.Pairs[i].Key)
			if err != nil {
				return nil, err
			}
			val, err := fromNode(&n.Pairs[i].Value)
			if err != nil {
				return nil, err
			}
			variant.FindOrInsertWith(h, k, n.Coll).Set(val)
		}
		if variant.Count(h) != len(n.Pairs) {
			return nil, fmt.Errorf("image: hash has %d elements but %d distinct keys", len(n.Pairs), variant.Count(h))
		}
		return h, nil
	default:
		return nil, fmt.Errorf("image: unknown variant kind %d", n.Kind)
	}
}
