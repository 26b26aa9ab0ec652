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
	"math"
	"testing"

	"github.com/omtools/omseed/omseed/kmer"
)

func TestConversionTable(t *testing.T) {
	ear := 0.05
	measure := 500.0
	var minSize, maxSize int64 = 1000, 1000000

	table, err := NewConversionTable(ear, measure, minSize, maxSize)
	if err != nil {
		t.Fatal(err)
	}
	t.Logf("number of buckets: %d", table.NumBuckets())

	starts := table.starts
	if starts[0] != math.MinInt64 || starts[1] != minSize {
		t.Errorf("unexpected first buckets: %v", starts[:2])
	}
	var w int64
	for i := 1; i < len(starts)-1; i++ {
		w = starts[i+1] - starts[i]
		if w < minSize {
			t.Errorf("bucket %d is narrower than minSize: %d", i, w)
		}
		if float64(w) < 2*(float64(starts[i])*ear+measure) {
			t.Errorf("bucket %d is narrower than the window: %d", i, w)
		}
		if starts[i+1] > maxSize {
			t.Errorf("bucket %d starts after maxSize: %d", i+1, starts[i+1])
		}
	}

	// monotone
	var prev int32
	for v := -100.0; v < 2e6; v += 777 {
		b := table.Bucket(v)
		if b < prev {
			t.Errorf("Bucket is not monotone at %f", v)
			break
		}
		prev = b
	}
	if table.Bucket(0) != 0 || table.Bucket(999.9) != 0 || table.Bucket(1000) != 1 {
		t.Errorf("unexpected buckets of small values")
	}
	last := int32(table.NumBuckets() - 1)
	if table.Bucket(float64(maxSize)) != last || table.Bucket(math.MaxInt64) != last {
		t.Errorf("the last bucket should absorb large values")
	}

	if _, err = NewConversionTable(ear, measure, 0, 10); err != ErrInvalidTableRange {
		t.Errorf("expected ErrInvalidTableRange, returned %v", err)
	}
}

func TestSeedTableKey(t *testing.T) {
	table, err := NewConversionTable(0.1, 10, 100, 10000)
	if err != nil {
		t.Fatal(err)
	}
	a := table.GetKey(kmer.MustNew("a", 0, []int64{150, 2000, 9000}))
	b := table.GetKey(kmer.MustNew("b", 3, []int64{150, 2000, 9000}))
	c := table.GetKey(kmer.MustNew("c", 0, []int64{9000, 2000, 150}))

	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Errorf("keys of the same sizes should be equal: %v, %v", a.Key(), b.Key())
	}
	if a.Equal(c) {
		t.Errorf("keys should be different: %v, %v", a.Key(), c.Key())
	}

	q := kmer.MustNew("q", 0, []int64{150, 2000, 9000})
	bd := kmer.NewBounds(q, 0.1, 10)
	lo, hi := table.GetBoundKey(bd.Small), table.GetBoundKey(bd.Large)
	if !a.Within(lo, hi) {
		t.Errorf("key %v should be within %v-%v", a.Key(), lo.Key(), hi.Key())
	}
}

func TestCombinations(t *testing.T) {
	lo := &SeedTableKey{key: []int32{0, 0, 0}}
	hi := &SeedTableKey{key: []int32{9, 9, 9}}

	if _, err := combinations(lo, hi, 1000); err != ErrTooManyCombinations {
		t.Errorf("expected ErrTooManyCombinations, returned %v", err)
	}
	n, err := combinations(lo, hi, 1001)
	if err != nil || n != 1000 {
		t.Errorf("expected 1000, returned %d, %v", n, err)
	}

	// no overflow
	k := 40
	lo = &SeedTableKey{key: make([]int32, k)}
	hi = &SeedTableKey{key: make([]int32, k)}
	for i := range hi.key {
		hi.key[i] = 1 << 20
	}
	if _, err = combinations(lo, hi, math.MaxInt); err != ErrTooManyCombinations {
		t.Errorf("expected ErrTooManyCombinations, returned %v", err)
	}

	// empty range
	lo = &SeedTableKey{key: []int32{3, 0}}
	hi = &SeedTableKey{key: []int32{2, 5}}
	if n, err = combinations(lo, hi, 10); err != nil || n != 0 {
		t.Errorf("expected 0, returned %d, %v", n, err)
	}
}

func TestKeyIterator(t *testing.T) {
	lo := &SeedTableKey{key: []int32{1, 5, 2}}
	hi := &SeedTableKey{key: []int32{2, 7, 2}}

	seen := make(map[[3]int32]struct{})
	it := newKeyIterator(lo, hi)
	var key []int32
	for it.Next() {
		key = it.Key().Key()
		if !it.Key().Within(lo, hi) {
			t.Errorf("key out of range: %v", key)
		}
		seen[[3]int32{key[0], key[1], key[2]}] = struct{}{}
	}
	if len(seen) != 2*3*1 {
		t.Errorf("expected %d keys, returned %d", 6, len(seen))
	}
	if it.Next() {
		t.Errorf("iterator should stay exhausted")
	}

	it = newKeyIterator(&SeedTableKey{key: []int32{3}}, &SeedTableKey{key: []int32{2}})
	if it.Next() {
		t.Errorf("empty range should yield no keys")
	}
}
