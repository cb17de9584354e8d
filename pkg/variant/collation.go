package variant

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Collation selects how string keys are folded before comparison.
type Collation uint8

const (
	// CollateASCII folds A-Z to a-z byte by byte, like strcasecmp.
	CollateASCII Collation = iota
	// CollateUnicode applies full Unicode case folding ("Straße" == "STRASSE").
	CollateUnicode
)

var collation = CollateASCII

// SetCollation selects the string-key collation for stores created
// afterwards. Existing stores keep the collation they were built with.
func SetCollation(c Collation) {
	collation = c
}

// CurrentCollation returns the collation new stores will use.
func CurrentCollation() Collation {
	return collation
}

// ParseCollation maps a configuration name to a Collation.
func ParseCollation(name string) (Collation, error) {
	switch name {
	case "", "ascii":
		return CollateASCII, nil
	case "unicode":
		return CollateUnicode, nil
	default:
		return CollateASCII, fmt.Errorf("unknown collation %q", name)
	}
}

// String returns the configuration name of the collation.
func (c Collation) String() string {
	if c == CollateUnicode {
		return "unicode"
	}
	return "ascii"
}

// folder compares strings case-insensitively under one collation.
type folder struct {
	coll  Collation
	caser cases.Caser
}

func newFolder(c Collation) *folder {
	f := &folder{coll: c}
	if c == CollateUnicode {
		f.caser = cases.Fold()
	}
	return f
}

func (f *folder) compare(a, b string) int {
	if f.coll == CollateUnicode {
		return strings.Compare(f.caser.String(a), f.caser.String(b))
	}
	return compareFoldASCII(a, b)
}

func compareFoldASCII(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ca, cb := lowerASCII(a[i]), lowerASCII(b[i])
		if ca != cb {
			return sign(int(ca) - int(cb))
		}
	}
	return sign(len(a) - len(b))
}

func lowerASCII(c byte) byte {
	if 'A' <= c && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
