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
	"sort"

	"github.com/omtools/omseed/omseed/kmer"
	"github.com/pkg/errors"
)

// KmerList returns all k-mers in the database within the window of q, i.e.,
// for every dimension i,
//
//	q[i]*(1-ear) - measure <= c[i] <= q[i]*(1+ear) + measure.
//
// Results are sorted by source and position.
func (db *SeedDatabase) KmerList(q *kmer.Kmer, ear float64, measure float64) ([]*kmer.Kmer, error) {
	if db.snap == nil {
		return nil, ErrDatabaseNotBuilt
	}
	if q.K() != db.k {
		return nil, errors.Wrapf(ErrKmerSizeMismatch, "query: %s, expected k: %d", q, db.k)
	}

	b := kmer.NewBounds(q, ear, measure)

	var hits []*kmer.Kmer
	switch db.snap.mode {
	case ModeBinned:
		hits = db.searchBins(b)
	default:
		hits = db.searchSortedLists(b)
	}

	sortKmers(hits)
	return hits, nil
}

// Query is like KmerList but uses the parameters set by SetParameters.
func (db *SeedDatabase) Query(q *kmer.Kmer) ([]*kmer.Kmer, error) {
	return db.KmerList(q, db.ear, db.measure)
}

// searchSortedLists finds the ranges in all dimensions,
// and intersects them one by one.
func (db *SeedDatabase) searchSortedLists(b *kmer.Bounds) []*kmer.Kmer {
	var cands []*kmer.Kmer
	var list, sub []*kmer.Kmer
	var lo, hi int
	var small, large float64
	for i, sorted := range db.snap.sorted {
		list = sorted
		small, large = b.Small[i], b.Large[i]

		// the first one >= small, and the first one > large,
		// equal elements on the boundaries are all included.
		lo = sort.Search(len(list), func(j int) bool { return float64(list[j].Size(i)) >= small })
		hi = sort.Search(len(list), func(j int) bool { return float64(list[j].Size(i)) > large })
		if lo >= hi {
			return nil
		}
		sub = list[lo:hi]

		if i == 0 {
			cands = sub
			continue
		}

		cands = intersectKmers(cands, sub)
		if len(cands) == 0 {
			return nil
		}
	}

	hits := make([]*kmer.Kmer, 0, len(cands))
	for _, km := range cands {
		if kmer.LimitRange(km, b) {
			hits = append(hits, km)
		}
	}
	return hits
}

// intersectKmers returns k-mers in both lists, the smaller one is hashed.
// It always returns a new slice.
func intersectKmers(a, b []*kmer.Kmer) []*kmer.Kmer {
	if len(a) > len(b) {
		a, b = b, a
	}
	set := make(map[*kmer.Kmer]struct{}, len(a))
	for _, km := range a {
		set[km] = struct{}{}
	}
	r := make([]*kmer.Kmer, 0, len(a))
	var ok bool
	for _, km := range b {
		if _, ok = set[km]; ok {
			r = append(r, km)
		}
	}
	return r
}

// searchBins enumerates keys in the window if there are not too many,
// otherwise it scans all stored keys.
func (db *SeedDatabase) searchBins(b *kmer.Bounds) []*kmer.Kmer {
	snap := db.snap
	lo := snap.table.GetBoundKey(b.Small)
	hi := snap.table.GetBoundKey(b.Large)

	limit := db.maxCombinations
	if len(snap.keys) < limit {
		limit = len(snap.keys)
	}

	hits := make([]*kmer.Kmer, 0, 8)
	check := func(bn *bin) {
		if !bn.key.Within(lo, hi) {
			return
		}
		for _, km := range bn.kmers {
			if kmer.LimitRange(km, b) {
				hits = append(hits, km)
			}
		}
	}

	_, err := combinations(lo, hi, limit)
	if err == ErrTooManyCombinations {
		for _, bn := range snap.keys {
			check(bn)
		}
		return hits
	}

	it := newKeyIterator(lo, hi)
	var key *SeedTableKey
	for it.Next() {
		key = it.Key()
		for _, bn := range snap.bins[key.Hash()] {
			if bn.key.Equal(key) {
				check(bn)
			}
		}
	}
	return hits
}

// sortKmers sorts k-mers by source, position and then distances.
func sortKmers(kmers []*kmer.Kmer) {
	sort.SliceStable(kmers, func(i, j int) bool {
		a, b := kmers[i], kmers[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Pos != b.Pos {
			return a.Pos < b.Pos
		}
		var c int
		for d := 0; d < a.K() && d < b.K(); d++ {
			if c = kmer.Compare(a, b, d); c != 0 {
				return c < 0
			}
		}
		return a.K() < b.K()
	})
}
