package identity

import (
	"sort"

	"github.com/twmb/murmur3"
)

const (
	_hashSeed uint64 = 23
	_hashFold uint64 = 31
)

// Accumulator is a commutative folding accumulator.
type Accumulator uint64

// NewAccumulator creates a new Accumulator with a default seed value.
//
//go:nosplit
func NewAccumulator() Accumulator {
	return Accumulator(_hashSeed)
}

// NewAccumulatorWithSeed creates a new Accumulator with the provided seed value.
//
//go:nosplit
func NewAccumulatorWithSeed(seed uint64) Accumulator {
	return Accumulator(seed)
}

// AddString hashes str and folds it into the accumulator.
//
//go:nosplit
func (a Accumulator) AddString(str string) Accumulator {
	return a + (Accumulator(murmur3.StringSum64(str)) * Accumulator(_hashFold))
}

// AddUint64 folds u64 into the accumulator.
//
//go:nosplit
func (a Accumulator) AddUint64(u64 uint64) Accumulator {
	return a + Accumulator(u64*_hashFold)
}

// Value returns the accumulated value.
//
//go:nosplit
func (a Accumulator) Value() uint64 {
	return uint64(a)
}

// StringStringMap returns a hash of m that does not depend on iteration
// order. Every pair is hashed with a seed derived from its key, so swapping
// a key with its value changes the result.
func StringStringMap(m map[string]string) uint64 {
	acc := NewAccumulator()
	for k, v := range m {
		acc = acc.AddUint64(NewAccumulatorWithSeed(murmur3.StringSum64(k)).AddString(v).Value())
	}
	return acc.Value()
}

// NameAndKeys returns a hash of a metric name and its label keys. The keys
// are hashed in sorted order together with their position, so the result
// does not depend on the order of keys but does on their names.
func NameAndKeys(name string, keys []string) uint64 {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	acc := NewAccumulatorWithSeed(murmur3.StringSum64(name))
	for i, k := range sorted {
		acc = acc.AddUint64(NewAccumulatorWithSeed(uint64(i) + 1).AddString(k).Value())
	}
	return acc.Value()
}
