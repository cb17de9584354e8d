package variant

import (
	"io"
	"strconv"
	"strings"
)

// Serialize writes the contents of the hash v as [key=value,...] in
// traversal order. Keys and values are rendered by Write. Variants of other
// kinds produce no output.
func Serialize(w io.StringWriter, v *Variant) error {
	if v.kind != KindHash {
		return nil
	}
	if _, err := w.WriteString("["); err != nil {
		return err
	}
	var err error
	first := true
	v.hash.Each(func(key, value *Variant) bool {
		if !first {
			if _, err = w.WriteString(","); err != nil {
				return false
			}
		}
		first = false
		if err = Write(w, key); err != nil {
			return false
		}
		if _, err = w.WriteString("="); err != nil {
			return false
		}
		err = Write(w, value)
		return err == nil
	})
	if err != nil {
		return err
	}
	_, err = w.WriteString("]")
	return err
}

// Write renders any variant: numbers in decimal, strings verbatim, arrays as
// [a,b,...] and hashes through Serialize. An unset variant prints as 0.
func Write(w io.StringWriter, v *Variant) error {
	switch v.kind {
	case KindUnset:
		_, err := w.WriteString("0")
		return err
	case KindInt:
		_, err := w.WriteString(strconv.FormatInt(v.i, 10))
		return err
	case KindNum:
		_, err := w.WriteString(strconv.FormatFloat(v.n, 'f', -1, 64))
		return err
	case KindStr:
		_, err := w.WriteString(v.s)
		return err
	case KindArray:
		if _, err := w.WriteString("["); err != nil {
			return err
		}
		for i, e := range v.arr {
			if i > 0 {
				if _, err := w.WriteString(","); err != nil {
					return err
				}
			}
			if err := Write(w, e); err != nil {
				return err
			}
		}
		_, err := w.WriteString("]")
		return err
	case KindHash:
		return Serialize(w, v)
	}
	return nil
}

// String returns the written form of v.
func (v *Variant) String() string {
	var sb strings.Builder
	_ = Write(&sb, v)
	return sb.String()
}
