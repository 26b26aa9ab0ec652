// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package index

import (
	"errors"
	"math"
	"sort"

	"github.com/omtools/omseed/omseed/kmer"
	"github.com/omtools/omseed/omseed/util"
)

// ErrTooManyCombinations means the number of keys in a query window
// exceeds the limit, it's only used internally for switching to
// the linear scan of stored keys.
var ErrTooManyCombinations = errors.New("seed database: too many key combinations")

// ErrInvalidTableRange means the size range is invalid for building a table.
var ErrInvalidTableRange = errors.New("seed database: invalid size range for the conversion table")

// ConversionTable quantizes distances into non-uniform buckets.
//
// Bucket 0 holds all values smaller than minSize, bucket i (i>0) holds
// values in [starts[i], starts[i+1]), and the last one holds everything
// up to the maximum value.
type ConversionTable struct {
	Ear     float64
	Measure float64
	MinSize int64
	MaxSize int64

	starts []int64
}

// NewConversionTable creates a table for the given error tolerance and size range.
// The bucket width starts with minSize, and is widened to 2*(v*ear+measure)
// at the boundary v whenever that is larger, so a bucket is never narrower
// than the window of a query at that magnitude.
func NewConversionTable(ear float64, measure float64, minSize int64, maxSize int64) (*ConversionTable, error) {
	if minSize < 1 || maxSize < minSize || ear < 0 || measure < 0 {
		return nil, ErrInvalidTableRange
	}

	starts := make([]int64, 0, 64)
	starts = append(starts, math.MinInt64)

	cur := minSize
	gap := float64(minSize)
	var slack float64
	var next int64
	for {
		starts = append(starts, cur)

		slack = 2 * (float64(cur)*ear + measure)
		if slack > gap {
			gap = slack
		}
		next = cur + int64(math.Ceil(gap))
		if next > maxSize || next < cur { // the latter for overflow
			break
		}
		cur = next
	}

	return &ConversionTable{
		Ear:     ear,
		Measure: measure,
		MinSize: minSize,
		MaxSize: maxSize,
		starts:  starts,
	}, nil
}

// NumBuckets returns the number of buckets.
func (t *ConversionTable) NumBuckets() int {
	return len(t.starts)
}

// Bucket returns the index of the bucket containing v.
func (t *ConversionTable) Bucket(v float64) int32 {
	// the first start is always <= v
	i := sort.Search(len(t.starts), func(i int) bool { return float64(t.starts[i]) > v })
	if i == 0 {
		return 0
	}
	return int32(i - 1)
}

// GetKey quantizes the distances of a k-mer.
func (t *ConversionTable) GetKey(km *kmer.Kmer) *SeedTableKey {
	key := make([]int32, km.K())
	for i := range key {
		key[i] = t.Bucket(float64(km.Size(i)))
	}
	return &SeedTableKey{key: key}
}

// GetBoundKey quantizes a bound vector.
func (t *ConversionTable) GetBoundKey(bound []float64) *SeedTableKey {
	key := make([]int32, len(bound))
	for i, v := range bound {
		key[i] = t.Bucket(v)
	}
	return &SeedTableKey{key: key}
}

// SeedTableKey is a quantized k-mer.
type SeedTableKey struct {
	key []int32
}

// Key returns the bucket indexes. Do not modify it.
func (k *SeedTableKey) Key() []int32 {
	return k.key
}

// Hash returns the hash value of the key.
func (k *SeedTableKey) Hash() uint64 {
	return util.HashInt32s(k.key)
}

// Equal tells if two keys are identical.
func (k *SeedTableKey) Equal(o *SeedTableKey) bool {
	if len(k.key) != len(o.key) {
		return false
	}
	for i, v := range k.key {
		if o.key[i] != v {
			return false
		}
	}
	return true
}

// Within tells if lo[i] <= key[i] <= hi[i] for every dimension.
func (k *SeedTableKey) Within(lo, hi *SeedTableKey) bool {
	for i, v := range k.key {
		if v < lo.key[i] || v > hi.key[i] {
			return false
		}
	}
	return true
}

// combinations returns the number of keys in [lo, hi].
// ErrTooManyCombinations is returned once the product reaches limit.
func combinations(lo, hi *SeedTableKey, limit int) (int, error) {
	n := 1
	var c int
	for i, v := range lo.key {
		c = int(hi.key[i]-v) + 1
		if c <= 0 {
			return 0, nil
		}
		// n*c >= limit, i.e., n >= ceil(limit/c), without overflow
		if n >= (limit-1)/c+1 {
			return 0, ErrTooManyCombinations
		}
		n *= c
	}
	return n, nil
}

// keyIterator walks all keys in [lo, hi] lazily, the last dimension changes fastest.
type keyIterator struct {
	lo, hi []int32
	cur    []int32
	first  bool
	done   bool
}

func newKeyIterator(lo, hi *SeedTableKey) *keyIterator {
	cur := make([]int32, len(lo.key))
	copy(cur, lo.key)
	done := false
	for i, v := range lo.key {
		if v > hi.key[i] {
			done = true
			break
		}
	}
	return &keyIterator{lo: lo.key, hi: hi.key, cur: cur, first: true, done: done}
}

// Next moves to the next key, and returns false if there's no more keys.
func (it *keyIterator) Next() bool {
	if it.done {
		return false
	}
	if it.first {
		it.first = false
		return true
	}
	for i := len(it.cur) - 1; i >= 0; i-- {
		if it.cur[i] < it.hi[i] {
			it.cur[i]++
			return true
		}
		it.cur[i] = it.lo[i]
	}
	it.done = true
	return false
}

// Key returns the current key. It's reused in the next call of Next().
func (it *keyIterator) Key() *SeedTableKey {
	return &SeedTableKey{key: it.cur}
}
