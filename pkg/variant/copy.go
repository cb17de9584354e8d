package variant

import "strconv"

// SummaryTag prefixes the scalar summary of a hash.
const SummaryTag = "UDS"

// Assign makes dest an independent copy of the hash src: every element's key
// and value is deep-copied, in traversal order, into a fresh store. Assigning
// a variant to itself is a no-op. A non-hash src leaves dest an empty hash.
func Assign(dest, src *Variant) {
	if dest == src {
		return
	}
	// Build the copy first; src may be nested inside dest.
	var store *Store
	if src.kind == KindHash && src.hash != nil && src.hash.Count() > 0 {
		store = newStoreWith(src.hash.fold.coll)
		src.hash.Each(func(k, v *Variant) bool {
			e := newElement(k)
			e.Value.Set(v)
			store.insertElement(e)
			return true
		})
	}
	dest.toHash()
	dest.hash = store
}

// ClearInPlace destroys every element of v and leaves it an empty hash,
// whatever it held before.
func ClearInPlace(v *Variant) {
	v.toHash()
}

// ToInt returns the number of elements of a hash, the value used when a hash
// appears in a numeric context.
func ToInt(v *Variant) int {
	return Count(v)
}

// Summary returns the fixed scalar form of a hash, e.g. "UDS:3". It reports
// the element count, not the content.
func Summary(v *Variant) string {
	return SummaryTag + ":" + strconv.Itoa(ToInt(v))
}
