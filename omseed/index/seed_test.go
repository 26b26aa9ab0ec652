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
	"testing"

	"github.com/omtools/omseed/omseed/kmer"
)

func TestNewSeed(t *testing.T) {
	target := kmer.MustNew("ref", 10, []int64{100, 200, 150})

	s, ok := NewSeed(target, kmer.MustNew("mol", 0, []int64{105, 190, 140}), 0.1, 5)
	if !ok {
		t.Errorf("expected a valid seed")
	} else {
		t.Logf("seed: %s", s)
	}
	if _, ok = NewSeed(target, kmer.MustNew("mol", 0, []int64{200, 200, 150}), 0.1, 5); ok {
		t.Errorf("expected an invalid seed")
	}
}

func TestSeeds(t *testing.T) {
	kmers := kmer.FromDistances("ref", []int64{100, 200, 150, 300, 100, 200, 150}, 3)
	db := mustBuild(t, kmers, 3, ModeBinned, 0.05, 10)

	q := kmer.MustNew("mol", 0, []int64{102, 198, 151})
	seeds, err := db.Seeds(q, 0.05, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(seeds) != 2 {
		t.Errorf("expected 2 seeds, returned %d", len(seeds))
	}
	for _, s := range seeds {
		if _, ok := NewSeed(s.Target, s.Query, 0.05, 10); !ok {
			t.Errorf("invalid seed: %s", s)
		}
	}
}

func TestSeedJoin(t *testing.T) {
	ref := kmer.FromDistances("ref", []int64{10, 20, 30, 40, 50, 60}, 2)
	mol := kmer.FromDistances("mol", []int64{11, 21, 31, 41, 51, 61}, 2)

	seeds := []*Seed{
		{Target: ref[2], Query: mol[1]}, // the middle one comes first
		{Target: ref[1], Query: mol[0]},
		{Target: ref[3], Query: mol[2]},
		{Target: ref[4], Query: mol[4]}, // not collinear
		{Target: ref[3], Query: mol[2]}, // duplicate
	}

	joined := SeedJoin(seeds)
	if len(joined) != 2 {
		t.Fatalf("expected 2 seeds, returned %d: %v", len(joined), joined)
	}

	s := joined[0]
	if s.K() != 4 {
		t.Errorf("expected 4 distances, returned %d: %s", s.K(), s)
	}
	if !kmer.Equal(s.Target, kmer.MustNew("ref", 1, []int64{20, 30, 40, 50})) {
		t.Errorf("unexpected target: %s", s.Target)
	}
	if !kmer.Equal(s.Query, kmer.MustNew("mol", 0, []int64{11, 21, 31, 41})) {
		t.Errorf("unexpected query: %s", s.Query)
	}
	if joined[1] != seeds[3] {
		t.Errorf("the single seed should be kept as it is")
	}

	// different sources are not joined
	other := kmer.MustNew("ref2", 2, []int64{30, 40})
	joined = SeedJoin([]*Seed{
		{Target: ref[1], Query: mol[0]},
		{Target: other, Query: mol[1]},
	})
	if len(joined) != 2 {
		t.Errorf("seeds on different sources should not be joined")
	}
}
