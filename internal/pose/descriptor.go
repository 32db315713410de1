package pose

import (
	"fmt"
)

// Descriptor addresses one pose: frame index and figure index.
type Descriptor struct {
	Frame  int `json:"frame"`
	Figure int `json:"figure"`
}

func (d Descriptor) String() string {
	return fmt.Sprintf("(%d,%d)", d.Frame, d.Figure)
}

// DescriptorMap associates values with descriptors and remembers insertion
// order, so iteration is deterministic.
type DescriptorMap[V any] struct {
	index  map[Descriptor]int
	keys   []Descriptor
	values []V
}

// NewDescriptorMap creates an empty map with room for capacity entries.
func NewDescriptorMap[V any](capacity int) *DescriptorMap[V] {
	return &DescriptorMap[V]{
		index:  make(map[Descriptor]int, capacity),
		keys:   make([]Descriptor, 0, capacity),
		values: make([]V, 0, capacity),
	}
}

// Set stores v under d. Overwriting keeps the original position.
func (m *DescriptorMap[V]) Set(d Descriptor, v V) {
	if i, ok := m.index[d]; ok {
		m.values[i] = v
		return
	}
	m.index[d] = len(m.keys)
	m.keys = append(m.keys, d)
	m.values = append(m.values, v)
}

// Get returns the value stored under d.
func (m *DescriptorMap[V]) Get(d Descriptor) (V, bool) {
	if i, ok := m.index[d]; ok {
		return m.values[i], true
	}
	var zero V
	return zero, false
}

// Has reports whether d is present.
func (m *DescriptorMap[V]) Has(d Descriptor) bool {
	_, ok := m.index[d]
	return ok
}

// Len is the number of entries.
func (m *DescriptorMap[V]) Len() int {
	return len(m.keys)
}

// Keys returns the descriptors in insertion order.
func (m *DescriptorMap[V]) Keys() []Descriptor {
	out := make([]Descriptor, len(m.keys))
	copy(out, m.keys)
	return out
}

// Range calls fn for every entry in insertion order until fn returns false.
func (m *DescriptorMap[V]) Range(fn func(Descriptor, V) bool) {
	for i, d := range m.keys {
		if !fn(d, m.values[i]) {
			return
		}
	}
}

// DescriptorEntry is the serialized form of one map entry.
type DescriptorEntry[V any] struct {
	Descriptor
	Value V `json:"value"`
}

// Entries returns the entries in insertion order.
func (m *DescriptorMap[V]) Entries() []DescriptorEntry[V] {
	out := make([]DescriptorEntry[V], len(m.keys))
	for i, d := range m.keys {
		out[i] = DescriptorEntry[V]{Descriptor: d, Value: m.values[i]}
	}
	return out
}
