package variant

import (
	"errors"
	"strings"
	"testing"
)

// set stores value under the string key k of h, promoting h as needed.
func set(t *testing.T, h *Variant, k string, value *Variant) {
	t.Helper()
	slot, err := Get(h, NewStr(k))
	if err != nil {
		t.Fatalf("Get(%q) error = %v", k, err)
	}
	slot.Set(value)
}

func TestScenarioOrderedKeys(t *testing.T) {
	foo := New()
	set(t, foo, "a", NewInt(1))
	set(t, foo, "b", NewInt(2))

	if Count(foo) != 2 {
		t.Errorf("Count() = %d, want 2", Count(foo))
	}
	if got := foo.String(); got != "[a=1,b=2]" {
		t.Errorf("Serialize = %q, want %q", got, "[a=1,b=2]")
	}
}

func TestScenarioFirstCasingWins(t *testing.T) {
	foo := New()
	set(t, foo, "x", NewInt(1))
	set(t, foo, "X", NewInt(99))

	if Count(foo) != 1 {
		t.Errorf("Count() = %d, want 1", Count(foo))
	}
	if got := foo.String(); got != "[x=99]" {
		t.Errorf("Serialize = %q, want %q", got, "[x=99]")
	}
}

func TestAssignIsolation(t *testing.T) {
	src := New()
	set(t, src, "name", NewStr("alice"))
	set(t, src, "tags", NewArray(NewStr("a"), NewStr("b")))
	inner, _ := Get(src, NewStr("inner"))
	set(t, inner, "depth", NewInt(2))

	dest := NewInt(42)
	Assign(dest, src)

	var sbDest, sbSrc strings.Builder
	if err := Serialize(&sbDest, dest); err != nil {
		t.Fatalf("Serialize(dest) error = %v", err)
	}
	if err := Serialize(&sbSrc, src); err != nil {
		t.Fatalf("Serialize(src) error = %v", err)
	}
	if sbDest.String() != sbSrc.String() {
		t.Errorf("dest = %q, src = %q; want equal", sbDest.String(), sbSrc.String())
	}

	// Mutate dest deeply; src must not change.
	set(t, dest, "name", NewStr("bob"))
	destInner, _ := Get(dest, NewStr("inner"))
	set(t, destInner, "depth", NewInt(3))

	if got := src.String(); got != "[inner=[depth=2],name=alice,tags=[a,b]]" {
		t.Errorf("src = %q after mutating dest", got)
	}

	// And the other way around.
	set(t, src, "extra", NewInt(1))
	if Count(dest) != 3 {
		t.Errorf("Count(dest) = %d after mutating src, want 3", Count(dest))
	}
}

func TestAssignSelf(t *testing.T) {
	x := New()
	set(t, x, "a", NewInt(1))
	set(t, x, "b", NewStr("two"))
	before := x.String()
	store := x.Store()

	Assign(x, x)

	if got := x.String(); got != before {
		t.Errorf("after self assign = %q, want %q", got, before)
	}
	if x.Store() != store {
		t.Error("self assign replaced the store")
	}
}

func TestAssignFromNestedChild(t *testing.T) {
	x := New()
	child, _ := Get(x, NewStr("child"))
	set(t, child, "v", NewInt(5))
	set(t, x, "other", NewInt(1))

	x.Set(child)

	if got := x.String(); got != "[v=5]" {
		t.Errorf("x = %q, want %q", got, "[v=5]")
	}
}

func TestAssignEmptySource(t *testing.T) {
	dest := NewStr("text")
	Assign(dest, NewHash())

	if !dest.IsHash() {
		t.Errorf("Kind() = %v, want hash", dest.Kind())
	}
	if Count(dest) != 0 || dest.Store() != nil {
		t.Error("dest should be an empty hash with a nil handle")
	}
}

func TestClearInPlaceFromScalar(t *testing.T) {
	v := NewNum(3.5)
	ClearInPlace(v)
	if !v.IsHash() || Count(v) != 0 {
		t.Errorf("ClearInPlace(num) = %v (%v), want empty hash", v, v.Kind())
	}
}

func TestSummary(t *testing.T) {
	h := New()
	if got := Summary(NewHash()); got != "UDS:0" {
		t.Errorf("Summary(empty) = %q, want %q", got, "UDS:0")
	}
	set(t, h, "a", NewInt(1))
	set(t, h, "b", NewInt(1))
	set(t, h, "c", NewInt(1))
	if got := Summary(h); got != "UDS:3" {
		t.Errorf("Summary = %q, want %q", got, "UDS:3")
	}
	if ToInt(h) != 3 || h.Int() != 3 {
		t.Errorf("ToInt = %d, Int() = %d; want 3", ToInt(h), h.Int())
	}
}

func TestWrite(t *testing.T) {
	tests := []struct {
		v    *Variant
		want string
	}{
		{New(), "0"},
		{NewInt(-12), "-12"},
		{NewNum(2.5), "2.5"},
		{NewNum(100), "100"},
		{NewStr("hi there"), "hi there"},
		{NewArray(NewInt(1), NewStr("x"), NewArray()), "[1,x,[]]"},
		{NewHash(), "[]"},
	}
	for _, tt := range tests {
		var sb strings.Builder
		if err := Write(&sb, tt.v); err != nil {
			t.Errorf("Write(%v) error = %v", tt.v.Kind(), err)
			continue
		}
		if sb.String() != tt.want {
			t.Errorf("Write(%v) = %q, want %q", tt.v.Kind(), sb.String(), tt.want)
		}
	}
}

func TestSerializeNonHash(t *testing.T) {
	var sb strings.Builder
	if err := Serialize(&sb, NewInt(5)); err != nil {
		t.Fatalf("Serialize() error = %v", err)
	}
	if sb.Len() != 0 {
		t.Errorf("Serialize(int) wrote %q, want nothing", sb.String())
	}
}

// failingWriter fails after n writes.
type failingWriter struct {
	n int
}

var errWrite = errors.New("write failed")

func (w *failingWriter) WriteString(s string) (int, error) {
	if w.n == 0 {
		return 0, errWrite
	}
	w.n--
	return len(s), nil
}

func TestSerializeWriterError(t *testing.T) {
	h := New()
	set(t, h, "a", NewInt(1))
	set(t, h, "b", NewInt(2))

	for n := 0; n < 9; n++ {
		err := Serialize(&failingWriter{n: n}, h)
		if !errors.Is(err, errWrite) {
			t.Errorf("Serialize with writer failing after %d writes: error = %v, want errWrite", n, err)
		}
	}
}
