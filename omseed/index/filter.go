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
	"github.com/omtools/omseed/omseed/kmer"
	"github.com/omtools/omseed/omseed/util"
	"github.com/pkg/errors"
	"github.com/rdleal/intervalst/interval"
)

// Filter removes k-mers from repetitive regions. For each k-mer, it counts
// other k-mers of the same source starting within maxSignalConsidered
// signals and falling in its window, and keeps the k-mer if the count
// is <= maxSeedNumber. The order of k-mers is kept.
func Filter(kmers []*kmer.Kmer, ear float64, measure float64, maxSeedNumber int, maxSignalConsidered int) ([]*kmer.Kmer, error) {
	if maxSignalConsidered < 0 {
		maxSignalConsidered = 0
	}

	// source -> position -> indexes of k-mers
	locs := make(map[string]map[int][]int, 8)
	var ok bool
	var m map[int][]int
	for i, km := range kmers {
		if m, ok = locs[km.Source]; !ok {
			m = make(map[int][]int, 1024)
			locs[km.Source] = m
		}
		m[km.Pos] = append(m[km.Pos], i)
	}

	// an interval tree of positions for each source
	cmpFn := func(x, y int) int { return x - y }
	trees := make(map[string]*interval.SearchTree[int, int], len(locs))
	positions := make([]int, 0, 1024)
	for source, m := range locs {
		positions = positions[:0]
		for pos := range m {
			positions = append(positions, pos)
		}
		util.UniqInts(&positions) // sorted, so the tree is built in a fixed order

		tree := interval.NewSearchTree[int, int](cmpFn)
		for _, pos := range positions {
			if err := tree.Insert(pos, pos+1, pos); err != nil {
				return nil, errors.Wrapf(err, "indexing position %d of %s", pos, source)
			}
		}
		trees[source] = tree
	}

	kept := make([]*kmer.Kmer, 0, len(kmers))
	var b *kmer.Bounds
	var n int
	var neighbors []int
	for i, km := range kmers {
		b = kmer.NewBounds(km, ear, measure)

		neighbors, ok = trees[km.Source].AllIntersections(km.Pos-maxSignalConsidered, km.Pos+maxSignalConsidered+1)
		n = 0
		if ok {
		COUNT:
			for _, pos := range neighbors {
				if pos < km.Pos-maxSignalConsidered || pos > km.Pos+maxSignalConsidered {
					continue
				}
				for _, j := range locs[km.Source][pos] {
					if j == i {
						continue
					}
					if kmer.LimitRange(kmers[j], b) {
						n++
						if n > maxSeedNumber {
							break COUNT
						}
					}
				}
			}
		}

		if n <= maxSeedNumber {
			kept = append(kept, km)
		}
	}
	return kept, nil
}
