package variant

import "fmt"

// OperandKind classifies the instruction at a cursor's position as far as
// field resolution cares.
type OperandKind uint8

const (
	OperandOther  OperandKind = iota
	OperandField              // Opens a nested field access: a.b
	OperandString             // A string literal usable as a key
)

// Cursor is a forward reader over compiled instructions.
type Cursor interface {
	// Peek classifies the next instruction without consuming it.
	Peek() OperandKind
	// Skip consumes the next instruction.
	Skip()
	// EvalStr consumes the next instruction and stores its string value in dst.
	EvalStr(dst *Variant) error
}

// Resolve walks the chain of field accesses at the cursor, starting at base,
// and returns the slot named by the last segment. Missing fields are created;
// an unset base becomes a hash. With no field markers pending, base itself is
// returned.
func Resolve(base *Variant, cur Cursor) (*Variant, error) {
	return ResolveLimit(base, cur, 0)
}

// ResolveLimit is Resolve with a bound on the number of chained segments.
// A limit of 0 means unlimited.
func ResolveLimit(base *Variant, cur Cursor, limit int) (*Variant, error) {
	depth := 0
	for cur.Peek() == OperandField {
		cur.Skip()
		if cur.Peek() != OperandString {
			return nil, fmt.Errorf("field access without string key: %w", ErrMalformedProgram)
		}
		depth++
		if limit > 0 && depth > limit {
			return nil, fmt.Errorf("field chain deeper than %d: %w", limit, ErrMalformedProgram)
		}

		key := New()
		if err := cur.EvalStr(key); err != nil {
			return nil, err
		}
		if err := ensureHash(base); err != nil {
			return nil, err
		}
		base = FindOrInsert(base, key)
		key.Free()
	}
	return base, nil
}
