package variant

import (
	"math"
	"strings"
)

// rank orders kinds for cross-type comparison. Unset, Int and Num share a
// rank and compare by numeric value.
func rank(k Kind) int {
	switch k {
	case KindUnset, KindInt, KindNum:
		return 0
	case KindStr:
		return 1
	case KindArray:
		return 2
	case KindHash:
		return 3
	default:
		return 4
	}
}

// Compare defines a total order over all variants and returns -1, 0 or +1.
//
// Numbers (and unset, which counts as 0) come first and compare by value; an
// Int and a Num of equal value order Int first so the order stays total.
// Strings follow and compare byte-wise. Arrays compare element by element and
// then by length. Hashes compare by element count and then pairwise by key
// and value in traversal order.
func Compare(a, b *Variant) int {
	ra, rb := rank(a.kind), rank(b.kind)
	if ra != rb {
		return sign(ra - rb)
	}
	switch ra {
	case 0:
		return compareNumeric(a, b)
	case 1:
		return strings.Compare(a.s, b.s)
	case 2:
		return compareArrays(a, b)
	case 3:
		return compareHashes(a, b)
	}
	return 0
}

// Equal reports whether a and b compare equal.
func Equal(a, b *Variant) bool {
	return Compare(a, b) == 0
}

func compareNumeric(a, b *Variant) int {
	if a.kind != KindNum && b.kind != KindNum {
		ai, bi := a.i, b.i
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	}
	af, bf := a.Num(), b.Num()
	// NaN sorts below every other number.
	if an, bn := math.IsNaN(af), math.IsNaN(bf); an || bn {
		switch {
		case an && bn:
			return 0
		case an:
			return -1
		}
		return 1
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	}
	// Same value, different representation.
	ka, kb := numKind(a.kind), numKind(b.kind)
	return sign(int(ka) - int(kb))
}

// numKind folds unset into Int so that unset and 0 are the same key.
func numKind(k Kind) Kind {
	if k == KindUnset {
		return KindInt
	}
	return k
}

func compareArrays(a, b *Variant) int {
	n := min(len(a.arr), len(b.arr))
	for i := 0; i < n; i++ {
		if c := Compare(a.arr[i], b.arr[i]); c != 0 {
			return c
		}
	}
	return sign(len(a.arr) - len(b.arr))
}

func compareHashes(a, b *Variant) int {
	ca, cb := ToInt(a), ToInt(b)
	if ca != cb {
		return sign(ca - cb)
	}
	if ca == 0 {
		return 0
	}
	ea, eb := a.hash.elements(), b.hash.elements()
	for i := range ea {
		if c := a.hash.compareKeys(ea[i].Key, eb[i].Key); c != 0 {
			return c
		}
		if c := Compare(ea[i].Value, eb[i].Value); c != 0 {
			return c
		}
	}
	return 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
