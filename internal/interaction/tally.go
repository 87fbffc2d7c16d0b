package interaction

import (
	"bytes"
	"encoding/json"
	"iter"
)

// Number is the value constraint of a Tally.
type Number interface {
	~int | ~int64 | ~float64
}

// Entry is one key/value pair of a Tally.
type Entry[V Number] struct {
	Key   string `json:"key"`
	Value V      `json:"value"`
}

// Tally is an increment-only map that remembers first-seen key order.
// Keys are never removed. The zero value is ready to use.
type Tally[V Number] struct {
	keys   []string
	values map[string]V
}

// Add increments key by v, inserting it with value v when absent.
func (t *Tally[V]) Add(key string, v V) {
	if t.values == nil {
		t.values = make(map[string]V)
	}
	if _, found := t.values[key]; !found {
		t.keys = append(t.keys, key)
	}
	t.values[key] += v
}

// Get returns the value stored for key.
func (t Tally[V]) Get(key string) (V, bool) {
	v, found := t.values[key]
	return v, found
}

// Len returns the number of distinct keys.
func (t Tally[V]) Len() int {
	return len(t.keys)
}

// Sum adds up all values.
func (t Tally[V]) Sum() V {
	var sum V
	for _, k := range t.keys {
		sum += t.values[k]
	}
	return sum
}

// All iterates over the entries in first-seen order.
func (t Tally[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, k := range t.keys {
			if !yield(k, t.values[k]) {
				return
			}
		}
	}
}

// Entries returns the entries in first-seen order.
func (t Tally[V]) Entries() []Entry[V] {
	entries := make([]Entry[V], 0, len(t.keys))
	for k, v := range t.All() {
		entries = append(entries, Entry[V]{Key: k, Value: v})
	}
	return entries
}

// Clone returns a deep copy of t.
func (t Tally[V]) Clone() Tally[V] {
	c := Tally[V]{keys: make([]string, len(t.keys)), values: make(map[string]V, len(t.values))}
	copy(c.keys, t.keys)
	for k, v := range t.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON encodes t as a JSON object with keys in first-seen order.
func (t Tally[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range t.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(t.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
