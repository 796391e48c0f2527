package table

// tableSize maps directly to the uint16 hash space.
const tableSize = 65536

const (
	none = iota
	// presentMarker: some longer key passes through this prefix.
	presentMarker
	// elemMarker: this prefix is itself a complete key.
	elemMarker
)

// PrefixTable stores key-value pairs and supports walking all stored
// keys that are a prefix of a probe. A fixed 2^16-slot marker array,
// hashed with h = h<<2 + b per key byte, lets the walk bail out as
// soon as no stored key can match, without touching the map. Designed
// for short keys such as file magic numbers.
type PrefixTable[T any] struct {
	table [tableSize]byte
	elems map[string]T
}

func New[T any]() *PrefixTable[T] {
	return &PrefixTable[T]{
		elems: make(map[string]T),
	}
}

// Insert adds a key-value pair, marking every prefix of the key on
// the way. An elemMarker set by a shorter key is never downgraded.
func (t *PrefixTable[T]) Insert(key []byte, v T) {
	var h uint16
	for _, b := range key {
		h = h<<2 + uint16(b)
		t.table[h] = max(t.table[h], presentMarker)
	}
	t.table[h] = elemMarker
	t.elems[string(key)] = v
}

func (t *PrefixTable[T]) Get(key []byte) (T, bool) {
	v, found := t.elems[string(key)]
	return v, found
}

// Walk calls onMatch for every stored key that is a prefix of key,
// shortest first, stopping early when onMatch returns true or when
// the marker array rules out any longer match.
func (t *PrefixTable[T]) Walk(key []byte, onMatch func(T) bool) {
	var h uint16
	for i, b := range key {
		h = h<<2 + uint16(b)

		switch t.table[h] {
		case none:
			return
		case elemMarker:
			if v, ok := t.elems[string(key[:i+1])]; ok && onMatch(v) {
				return
			}
		}
	}
}

func (t *PrefixTable[T]) Size() int {
	return len(t.elems)
}
