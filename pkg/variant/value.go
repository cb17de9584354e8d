// Package variant provides the runtime's dynamically typed value and the
// associative ("user-defined structure") container built on top of it.
//
// A Variant is a tagged value. Most kinds are plain scalars; the Hash kind
// owns an ordered key/value store whose keys are themselves Variants. Hashes
// come into existence implicitly the first time a keyed access reaches an
// unset variable (or an array, which is promoted with its contents), so
// statements like
//
//	foo("name") = "x"
//	foo.bar.baz = 1
//
// work without any declaration.
package variant

import (
	"strconv"
)

// Kind identifies the type of value held by a Variant.
type Kind uint8

const (
	KindUnset Kind = iota // Default value of a fresh variable
	KindInt
	KindNum
	KindStr
	KindArray
	KindHash
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindInt:
		return "int"
	case KindNum:
		return "num"
	case KindStr:
		return "str"
	case KindArray:
		return "array"
	case KindHash:
		return "hash"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Variant is the runtime representation of a variable's value.
// The zero Variant is unset and ready to use.
type Variant struct {
	kind Kind
	i    int64
	n    float64
	s    string
	arr  []*Variant
	hash *Store // nil iff the hash holds no elements
}

// New returns a fresh unset variant.
func New() *Variant {
	return &Variant{}
}

// NewInt returns an integer variant.
func NewInt(i int64) *Variant {
	return &Variant{kind: KindInt, i: i}
}

// NewNum returns a numeric (floating point) variant.
func NewNum(n float64) *Variant {
	return &Variant{kind: KindNum, n: n}
}

// NewStr returns a string variant.
func NewStr(s string) *Variant {
	return &Variant{kind: KindStr, s: s}
}

// NewArray returns an array variant holding deep copies of elems.
func NewArray(elems ...*Variant) *Variant {
	v := &Variant{kind: KindArray, arr: make([]*Variant, len(elems))}
	for i, e := range elems {
		v.arr[i] = e.Clone()
	}
	return v
}

// NewHash returns an empty associative variant.
func NewHash() *Variant {
	return &Variant{kind: KindHash}
}

// Kind returns the current kind of the variant.
func (v *Variant) Kind() Kind {
	return v.kind
}

// IsHash reports whether v is an associative variant.
func (v *Variant) IsHash() bool { return v.kind == KindHash }

// IsArray reports whether v is an array.
func (v *Variant) IsArray() bool { return v.kind == KindArray }

// IsStr reports whether v is a string.
func (v *Variant) IsStr() bool { return v.kind == KindStr }

// IsZero reports whether the variant is in its default state: unset, a zero
// number, an empty string, an empty array or an empty hash. Keyed access on a
// zero variant silently turns it into a hash.
func (v *Variant) IsZero() bool {
	switch v.kind {
	case KindUnset:
		return true
	case KindInt:
		return v.i == 0
	case KindNum:
		return v.n == 0
	case KindStr:
		return v.s == ""
	case KindArray:
		return len(v.arr) == 0
	case KindHash:
		return v.hash.Count() == 0
	default:
		return false
	}
}

// Int returns the integer content. Numbers are truncated, strings parsed and
// hashes report their element count.
func (v *Variant) Int() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindNum:
		return int64(v.n)
	case KindStr:
		n, _ := strconv.ParseInt(v.s, 10, 64)
		return n
	case KindArray:
		return int64(len(v.arr))
	case KindHash:
		return int64(ToInt(v))
	default:
		return 0
	}
}

// Num returns the numeric content.
func (v *Variant) Num() float64 {
	switch v.kind {
	case KindNum:
		return v.n
	case KindInt:
		return float64(v.i)
	case KindStr:
		f, _ := strconv.ParseFloat(v.s, 64)
		return f
	default:
		return float64(v.Int())
	}
}

// Str returns the string content of a string variant, or the written form of
// any other kind.
func (v *Variant) Str() string {
	if v.kind == KindStr {
		return v.s
	}
	return v.String()
}

// Len returns the length of a string, or the number of array elements or
// hash entries.
func (v *Variant) Len() int {
	switch v.kind {
	case KindStr:
		return len(v.s)
	case KindArray:
		return len(v.arr)
	case KindHash:
		return ToInt(v)
	default:
		return 0
	}
}

// Elem returns the array element at index i, or nil when out of range.
func (v *Variant) Elem(i int) *Variant {
	if v.kind != KindArray || i < 0 || i >= len(v.arr) {
		return nil
	}
	return v.arr[i]
}

// Store returns the hash's store, or nil when the variant is not a hash or
// holds no elements.
func (v *Variant) Store() *Store {
	if v.kind != KindHash {
		return nil
	}
	return v.hash
}

// SetInt replaces the content with an integer.
func (v *Variant) SetInt(i int64) {
	v.Free()
	v.kind, v.i = KindInt, i
}

// SetNum replaces the content with a number.
func (v *Variant) SetNum(n float64) {
	v.Free()
	v.kind, v.n = KindNum, n
}

// SetStr replaces the content with a string.
func (v *Variant) SetStr(s string) {
	v.Free()
	v.kind, v.s = KindStr, s
}

// Set replaces the content of v with a deep copy of src. Hashes are copied
// element by element, so v and src never share storage afterwards.
func (v *Variant) Set(src *Variant) {
	if v == src {
		return
	}
	if src.kind == KindHash {
		Assign(v, src)
		return
	}
	// src may live inside v, so copy before releasing anything.
	var arr []*Variant
	if src.kind == KindArray {
		arr = make([]*Variant, len(src.arr))
		for i, e := range src.arr {
			arr[i] = e.Clone()
		}
	}
	kind, i, n, s := src.kind, src.i, src.n, src.s
	v.Free()
	v.kind, v.i, v.n, v.s, v.arr = kind, i, n, s, arr
}

// Clone returns a deep copy of v.
func (v *Variant) Clone() *Variant {
	c := New()
	c.Set(v)
	return c
}

// Free releases the content of v, leaving it unset. Hash elements are
// destroyed before the handle is dropped.
func (v *Variant) Free() {
	switch v.kind {
	case KindHash:
		freeHash(v)
	case KindArray:
		for _, e := range v.arr {
			e.Free()
		}
	}
	*v = Variant{}
}

// toHash resets v to an empty hash in place.
func (v *Variant) toHash() {
	v.Free()
	v.kind = KindHash
}
