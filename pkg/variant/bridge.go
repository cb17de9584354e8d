package variant

// PromoteArray converts a non-empty array variant into a hash in place. Each
// element i is stored under the integer key i, so NthKey(i) yields i in order
// since integer keys sort before every string key.
func PromoteArray(base *Variant) {
	if base.kind != KindArray {
		return
	}
	saved := base.arr
	base.arr = nil
	base.toHash()
	if len(saved) == 0 {
		return
	}
	base.hash = newStore()
	for i, elem := range saved {
		// Array elements are exclusively owned; move them.
		e := newIntElement(i)
		e.Value = elem
		base.hash.insertElement(e)
	}
}

// ensureHash makes base a hash so that it can be keyed: zero values become an
// empty hash, non-empty arrays are promoted with their contents, hashes are
// left alone. Anything else is a type mismatch and base is not modified.
func ensureHash(base *Variant) error {
	switch {
	case base.kind == KindHash:
		return nil
	case base.kind == KindArray && len(base.arr) > 0:
		PromoteArray(base)
		return nil
	case base.IsZero():
		base.toHash()
		return nil
	default:
		return typeMismatch(base.kind)
	}
}

// Get returns the slot stored under key in base, creating it when missing.
// This is the keyed accessor behind foo(key): an unset or zero base turns
// into a hash, a non-empty array is promoted first.
func Get(base, key *Variant) (*Variant, error) {
	if err := ensureHash(base); err != nil {
		return nil, err
	}
	return FindOrInsert(base, key), nil
}
