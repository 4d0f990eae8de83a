// Copyright © 2018 The ELPS authors

package lang

// hashBucket holds the entries whose keys share a hash.  Buckets are never
// modified once they are stored in a map.
type hashBucket struct {
	entries []*MapEntry
}

func (b *hashBucket) index(key interface{}) int {
	for i, e := range b.entries {
		if Equiv(e.key, key) {
			return i
		}
	}
	return -1
}

func (b *hashBucket) with(i int, e *MapEntry) *hashBucket {
	entries := make([]*MapEntry, len(b.entries))
	copy(entries, b.entries)
	if i < 0 {
		entries = append(entries, e)
	} else {
		entries[i] = e
	}
	return &hashBucket{entries: entries}
}

func (b *hashBucket) without(i int) *hashBucket {
	entries := make([]*MapEntry, 0, len(b.entries)-1)
	entries = append(entries, b.entries[:i]...)
	entries = append(entries, b.entries[i+1:]...)
	return &hashBucket{entries: entries}
}

func compareHashes(a, b interface{}) int {
	x, y := a.(uint32), b.(uint32)
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

var emptyBuckets = NewTreeMap(compareHashes)

// PersistentHashMap is an immutable unordered map.  Entries are grouped into
// collision buckets held in a tree map ordered by key hash.
type PersistentHashMap struct {
	meta    IPersistentMap
	buckets *PersistentTreeMap
	cnt     int
}

// EmptyHashMap is the empty hash map without metadata.
var EmptyHashMap = &PersistentHashMap{buckets: emptyBuckets}

// MapOf returns a map holding the alternating keys and values in keyvals.
// Later keys replace earlier equal keys.
func MapOf(keyvals ...interface{}) (*PersistentHashMap, error) {
	if len(keyvals)%2 != 0 {
		return nil, IllegalArgumentf("No value supplied for key: %s", PrintString(keyvals[len(keyvals)-1]))
	}
	m := EmptyHashMap
	for i := 0; i < len(keyvals); i += 2 {
		m = m.Assoc(keyvals[i], keyvals[i+1])
	}
	return m, nil
}

func (m *PersistentHashMap) bucket(h uint32) *hashBucket {
	b, _ := m.buckets.ValAt(h).(*hashBucket)
	return b
}

// Count implements Counted.
func (m *PersistentHashMap) Count() int {
	return m.cnt
}

// Assoc returns a map with key mapped to val.  When key already maps to an
// identical value the receiver itself is returned.
func (m *PersistentHashMap) Assoc(key, val interface{}) *PersistentHashMap {
	h := Hash(key)
	b := m.bucket(h)
	if b == nil {
		b = &hashBucket{entries: []*MapEntry{NewMapEntry(key, val)}}
		return &PersistentHashMap{meta: m.meta, buckets: m.buckets.Assoc(h, b), cnt: m.cnt + 1}
	}
	i := b.index(key)
	if i >= 0 {
		if Identical(b.entries[i].val, val) {
			return m
		}
		b = b.with(i, NewMapEntry(b.entries[i].key, val))
		return &PersistentHashMap{meta: m.meta, buckets: m.buckets.Assoc(h, b), cnt: m.cnt}
	}
	b = b.with(-1, NewMapEntry(key, val))
	return &PersistentHashMap{meta: m.meta, buckets: m.buckets.Assoc(h, b), cnt: m.cnt + 1}
}

// Without returns a map without key.  The receiver is returned when key is
// absent.
func (m *PersistentHashMap) Without(key interface{}) *PersistentHashMap {
	h := Hash(key)
	b := m.bucket(h)
	if b == nil {
		return m
	}
	i := b.index(key)
	if i < 0 {
		return m
	}
	var buckets *PersistentTreeMap
	if len(b.entries) == 1 {
		buckets = m.buckets.Without(h)
	} else {
		buckets = m.buckets.Assoc(h, b.without(i))
	}
	return &PersistentHashMap{meta: m.meta, buckets: buckets, cnt: m.cnt - 1}
}

// EntryAt returns the entry for key, or nil when key is absent.
func (m *PersistentHashMap) EntryAt(key interface{}) *MapEntry {
	b := m.bucket(Hash(key))
	if b == nil {
		return nil
	}
	if i := b.index(key); i >= 0 {
		return b.entries[i]
	}
	return nil
}

// ValAt returns the value for key, or nil when key is absent.
func (m *PersistentHashMap) ValAt(key interface{}) interface{} {
	return m.ValAtOr(key, nil)
}

// ValAtOr returns the value for key, or notFound when key is absent.
func (m *PersistentHashMap) ValAtOr(key, notFound interface{}) interface{} {
	e := m.EntryAt(key)
	if e == nil {
		return notFound
	}
	return e.val
}

// ContainsKey reports whether key is present.
func (m *PersistentHashMap) ContainsKey(key interface{}) bool {
	return m.EntryAt(key) != nil
}

// Seq returns the map's entries in an unspecified but stable order.
func (m *PersistentHashMap) Seq() Seq {
	buckets := m.buckets.Seq()
	if buckets == nil {
		return nil
	}
	return &hashMapSeq{buckets: buckets, cnt: m.cnt}
}

// Keys returns the map's keys.
func (m *PersistentHashMap) Keys() Seq {
	return KeySeq(m.Seq())
}

// Vals returns the map's values.
func (m *PersistentHashMap) Vals() Seq {
	return ValSeq(m.Seq())
}

// Empty returns the empty hash map carrying m's metadata.
func (m *PersistentHashMap) Empty() *PersistentHashMap {
	return EmptyHashMap.WithMeta(m.meta)
}

// Meta implements IMeta.
func (m *PersistentHashMap) Meta() IPersistentMap {
	return m.meta
}

// WithMeta returns a copy of m carrying meta.
func (m *PersistentHashMap) WithMeta(meta IPersistentMap) *PersistentHashMap {
	if meta == m.meta {
		return m
	}
	return &PersistentHashMap{meta: meta, buckets: m.buckets, cnt: m.cnt}
}

// Equiv implements Equiver.
func (m *PersistentHashMap) Equiv(o interface{}) bool {
	return mapEquiv(m, o)
}

// Hash implements Hasher.
func (m *PersistentHashMap) Hash() uint32 {
	return mapHash(m)
}

// Invoke looks up its first argument, with an optional not-found value.
func (m *PersistentHashMap) Invoke(t *Thread, args ...interface{}) (interface{}, error) {
	return invokeMap(m, args)
}

func (m *PersistentHashMap) String() string {
	return PrintString(m)
}

// hashMapSeq walks each collision bucket in hash order.
type hashMapSeq struct {
	buckets Seq
	i       int
	cnt     int
}

func (s *hashMapSeq) sequential() {}

func (s *hashMapSeq) entries() []*MapEntry {
	return s.buckets.First().(*MapEntry).val.(*hashBucket).entries
}

func (s *hashMapSeq) First() interface{} {
	return s.entries()[s.i]
}

func (s *hashMapSeq) Next() Seq {
	if s.i+1 < len(s.entries()) {
		return &hashMapSeq{buckets: s.buckets, i: s.i + 1, cnt: s.cnt - 1}
	}
	next := s.buckets.Next()
	if next == nil {
		return nil
	}
	return &hashMapSeq{buckets: next, cnt: s.cnt - 1}
}

func (s *hashMapSeq) Count() int                { return s.cnt }
func (s *hashMapSeq) Equiv(o interface{}) bool { return SeqEquiv(s, o) }
func (s *hashMapSeq) Hash() uint32             { return SeqHash(s) }
func (s *hashMapSeq) String() string           { return PrintString(s) }
