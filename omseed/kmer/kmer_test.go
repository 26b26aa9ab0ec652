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

package kmer

import (
	"testing"
)

func TestBoundsExample(t *testing.T) {
	db := MustNew("ref", 10, []int64{100, 200, 150})

	q := MustNew("mol", 0, []int64{105, 190, 140})
	b := NewBounds(q, 0.1, 5)
	t.Logf("bounds: %s", b)
	if !LimitRange(db, b) {
		t.Errorf("%s should be in the window of %s", db, q)
	}

	q = MustNew("mol", 0, []int64{200, 200, 150})
	b = NewBounds(q, 0.1, 5)
	if LimitRange(db, b) {
		t.Errorf("%s should not be in the window of %s", db, q)
	}
}

func TestLimitRangeBoundary(t *testing.T) {
	// ear and measure are exact in binary, so the bounds are integers:
	// small = 100*0.75-4 = 71, large = 100*1.25+4 = 129
	q := MustNew("mol", 0, []int64{100, 100, 100})
	b := NewBounds(q, 0.25, 4)

	if !LimitRange(MustNew("ref", 0, []int64{71, 71, 71}), b) {
		t.Errorf("lower boundary should be included")
	}
	if !LimitRange(MustNew("ref", 0, []int64{129, 129, 129}), b) {
		t.Errorf("upper boundary should be included")
	}
	if LimitRange(MustNew("ref", 0, []int64{71, 70, 71}), b) {
		t.Errorf("one unit below the lower boundary should be excluded")
	}
	if LimitRange(MustNew("ref", 0, []int64{129, 129, 130}), b) {
		t.Errorf("one unit above the upper boundary should be excluded")
	}
	if LimitRange(MustNew("ref", 0, []int64{100, 100}), b) {
		t.Errorf("k-mers with different k should be excluded")
	}
}

func TestKmerImmutable(t *testing.T) {
	sizes := []int64{1, 2, 3}
	km := MustNew("a", 0, sizes)
	sizes[0] = 100
	if km.Size(0) != 1 {
		t.Errorf("sizes should be copied in New")
	}
	s := km.Sizes()
	s[1] = 100
	if km.Size(1) != 2 {
		t.Errorf("Sizes() should return a copy")
	}

	if _, err := New("a", 0, nil); err != ErrEmptyKmer {
		t.Errorf("expected ErrEmptyKmer, returned %v", err)
	}
}

func TestEqualCompare(t *testing.T) {
	a := MustNew("a", 1, []int64{1, 2, 3})
	b := MustNew("a", 1, []int64{1, 2, 3})
	c := MustNew("a", 2, []int64{1, 2, 3})
	if !Equal(a, b) {
		t.Errorf("%s and %s should be equal", a, b)
	}
	if Equal(a, c) {
		t.Errorf("%s and %s should not be equal", a, c)
	}

	d := MustNew("a", 1, []int64{1, 5, 0})
	if Compare(a, d, 0) != 0 || Compare(a, d, 1) != -1 || Compare(a, d, 2) != 1 {
		t.Errorf("Compare error")
	}
}

func TestFromDistancesJoin(t *testing.T) {
	kmers := FromDistances("m", []int64{10, 20, 30, 40}, 2)
	if len(kmers) != 3 {
		t.Errorf("expected 3 k-mers, returned %d", len(kmers))
		return
	}

	j, err := Join(kmers[0], kmers[1])
	if err != nil {
		t.Error(err)
		return
	}
	j, err = Join(j, kmers[2])
	if err != nil {
		t.Error(err)
		return
	}
	if !Equal(j, MustNew("m", 0, []int64{10, 20, 30, 40})) {
		t.Errorf("unexpected joined k-mer: %s", j)
	}
	if j.Span() != 100 {
		t.Errorf("unexpected span: %d", j.Span())
	}

	if _, err = Join(kmers[0], kmers[2]); err != ErrNotAdjacent {
		t.Errorf("expected ErrNotAdjacent, returned %v", err)
	}

	r := kmers[0].Reverse()
	if r.Size(0) != 20 || r.Size(1) != 10 {
		t.Errorf("unexpected reversed k-mer: %s", r)
	}
}

func TestFromDistancesMaxSize(t *testing.T) {
	distances := []int64{10, 20, 500, 30, 40, 50}

	kmers := FromDistancesMaxSize("m", distances, 2, 100)
	// windows containing 500 are skipped
	if len(kmers) != 3 {
		t.Errorf("expected 3 k-mers, returned %d", len(kmers))
		return
	}
	for i, pos := range []int{0, 3, 4} {
		if kmers[i].Pos != pos {
			t.Errorf("expected position %d, returned %d", pos, kmers[i].Pos)
		}
	}

	if len(FromDistancesMaxSize("m", distances, 2, 0)) != 5 {
		t.Errorf("maxSize 0 should not filter any k-mer")
	}
	if len(FromDistancesMaxSize("m", distances, 4, 100)) != 0 {
		t.Errorf("expected no k-mers")
	}
}
