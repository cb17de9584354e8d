package variant

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// element is a key/value pair owned by a Store. The key is fixed once the
// element is inserted; the value is mutated in place through the slot
// returned by FindOrInsert.
type element struct {
	Key   *Variant
	Value *Variant
}

// newElement returns an element owning a deep copy of key and an unset value.
func newElement(key *Variant) *element {
	return &element{Key: key.Clone(), Value: New()}
}

// newIntElement returns an element keyed by the integer i.
func newIntElement(i int) *element {
	return &element{Key: NewInt(int64(i)), Value: New()}
}

// free destroys the element's key and value.
func (e *element) free() {
	e.Key.Free()
	if e.Value != nil {
		e.Value.Free()
	}
}

// Store is the ordered key/value container behind a hash variant. Elements
// are kept in comparator order: string keys compare case-insensitively,
// everything else falls back to Compare.
//
// A nil *Store is a valid empty store for every method. Stores are only
// modified through the package-level functions, which keep a hash's handle
// nil exactly when it holds no elements.
type Store struct {
	tree *redblacktree.Tree
	fold *folder
}

func newStore() *Store {
	return newStoreWith(collation)
}

func newStoreWith(c Collation) *Store {
	s := &Store{fold: newFolder(c)}
	s.tree = redblacktree.NewWith(s.compareEntries)
	return s
}

func (s *Store) compareEntries(a, b interface{}) int {
	return s.compareKeys(a.(*Variant), b.(*Variant))
}

// compareKeys is the element comparator.
func (s *Store) compareKeys(a, b *Variant) int {
	if a.kind == KindStr && b.kind == KindStr {
		return s.fold.compare(a.s, b.s)
	}
	return Compare(a, b)
}

// findOrInsert returns the value slot for key, inserting a new element with
// an unset value when no equivalent key exists. The key is copied, so the
// caller keeps ownership of its argument.
func (s *Store) findOrInsert(key *Variant) *Variant {
	if found, ok := s.tree.Get(key); ok {
		return found.(*element).Value
	}
	e := newElement(key)
	s.tree.Put(e.Key, e)
	return e.Value
}

// insertElement adds a prebuilt element. The key must not be present.
func (s *Store) insertElement(e *element) {
	s.tree.Put(e.Key, e)
}

// Lookup returns the value slot for key without inserting.
func (s *Store) Lookup(key *Variant) (*Variant, bool) {
	if s == nil {
		return nil, false
	}
	found, ok := s.tree.Get(key)
	if !ok {
		return nil, false
	}
	return found.(*element).Value, true
}

// Count returns the number of elements.
func (s *Store) Count() int {
	if s == nil {
		return 0
	}
	return s.tree.Size()
}

// IsEmpty reports whether the store holds no elements.
func (s *Store) IsEmpty() bool {
	return s.Count() == 0
}

// Each calls fn for every element in comparator order until fn returns
// false. fn may read and modify values but must not insert into s.
func (s *Store) Each(fn func(key, value *Variant) bool) {
	if s == nil {
		return
	}
	it := s.tree.Iterator()
	for it.Next() {
		e := it.Value().(*element)
		if !fn(e.Key, e.Value) {
			return
		}
	}
}

// NthKey returns the key at position index in comparator order, or nil if
// index is out of range.
func (s *Store) NthKey(index int) *Variant {
	if index < 0 || index >= s.Count() {
		return nil
	}
	var key *Variant
	n := 0
	s.Each(func(k, _ *Variant) bool {
		if n == index {
			key = k
			return false
		}
		n++
		return true
	})
	return key
}

// Keys returns the keys in comparator order. The keys are owned by the store.
func (s *Store) Keys() []*Variant {
	keys := make([]*Variant, 0, s.Count())
	s.Each(func(k, _ *Variant) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

func (s *Store) elements() []*element {
	if s == nil {
		return nil
	}
	elems := make([]*element, 0, s.tree.Size())
	it := s.tree.Iterator()
	for it.Next() {
		elems = append(elems, it.Value().(*element))
	}
	return elems
}

// clear destroys every element along with its key and value.
func (s *Store) clear() {
	if s == nil {
		return
	}
	for _, e := range s.elements() {
		e.free()
	}
	s.tree.Clear()
}

// FindOrInsert returns the slot for key in the hash base, creating the store
// on first insert. base must already be a hash; use Get for accesses that may
// need to promote it.
func FindOrInsert(base, key *Variant) *Variant {
	return FindOrInsertWith(base, key, collation)
}

// FindOrInsertWith is FindOrInsert for a hash whose store, if this call
// creates it, uses collation c instead of the current one. An existing store
// keeps its collation.
func FindOrInsertWith(base, key *Variant, c Collation) *Variant {
	if base.kind != KindHash {
		panic("variant: FindOrInsert on " + base.kind.String())
	}
	if base.hash == nil {
		base.hash = newStoreWith(c)
	}
	return base.hash.findOrInsert(key)
}

// CollationOf returns the collation of the hash v's store, or the current
// collation when v has no elements or is not a hash.
func CollationOf(v *Variant) Collation {
	if s := v.Store(); s != nil {
		return s.fold.coll
	}
	return collation
}

// Count returns the number of elements of a hash variant; 0 for other kinds.
func Count(v *Variant) int {
	return v.Store().Count()
}

// NthKey returns the key at position index of a hash variant, or nil.
func NthKey(v *Variant, index int) *Variant {
	return v.Store().NthKey(index)
}

// Lookup returns the value stored under key in a hash variant without
// creating it.
func Lookup(v *Variant, key *Variant) (*Variant, bool) {
	return v.Store().Lookup(key)
}

// freeHash destroys every element and drops the handle.
func freeHash(v *Variant) {
	v.hash.clear()
	v.hash = nil
}
