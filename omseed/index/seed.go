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
	"fmt"

	"github.com/omtools/omseed/omseed/kmer"
)

// Seed is a pair of matched k-mers, one from the database (target)
// and one from the query.
type Seed struct {
	Target *kmer.Kmer
	Query  *kmer.Kmer
}

func (s *Seed) String() string {
	return fmt.Sprintf("%s vs %s", s.Query, s.Target)
}

// K returns the number of distances of the seed.
func (s *Seed) K() int {
	return s.Query.K()
}

// NewSeed pairs two k-mers if the target is in the window of the query.
func NewSeed(target, query *kmer.Kmer, ear float64, measure float64) (*Seed, bool) {
	if !kmer.LimitRange(target, kmer.NewBounds(query, ear, measure)) {
		return nil, false
	}
	return &Seed{Target: target, Query: query}, true
}

// Seeds searches a query k-mer and returns the seeds.
func (db *SeedDatabase) Seeds(q *kmer.Kmer, ear float64, measure float64) ([]*Seed, error) {
	hits, err := db.KmerList(q, ear, measure)
	if err != nil {
		return nil, err
	}
	seeds := make([]*Seed, len(hits))
	for i, km := range hits {
		seeds[i] = &Seed{Target: km, Query: q}
	}
	return seeds, nil
}

// joinKey locates seeds on the same pair of sources and the same target position.
type joinKey struct {
	target string
	query  string
	pos    int
}

// SeedJoin joins collinear seeds, where both the target and query k-mers
// of the next seed start exactly one signal later, into longer seeds.
//
// Seeds are visited in the input order, a chain is extended from the first
// visited seed backward and forward, and seeds used in a chain are removed
// from the index, so each seed belongs to only one joined seed.
func SeedJoin(seeds []*Seed) []*Seed {
	if len(seeds) < 2 {
		return seeds
	}

	// target position -> query position -> seed
	m := make(map[joinKey]map[int]*Seed, len(seeds))
	var key joinKey
	var ok bool
	var qs map[int]*Seed
	for _, s := range seeds {
		key = joinKey{target: s.Target.Source, query: s.Query.Source, pos: s.Target.Pos}
		if qs, ok = m[key]; !ok {
			qs = make(map[int]*Seed, 1)
			m[key] = qs
		}
		if _, ok = qs[s.Query.Pos]; !ok { // the first one wins
			qs[s.Query.Pos] = s
		}
	}

	take := func(target, query string, tpos, qpos int) *Seed {
		key := joinKey{target: target, query: query, pos: tpos}
		qs, ok := m[key]
		if !ok {
			return nil
		}
		s, ok := qs[qpos]
		if !ok {
			return nil
		}
		delete(qs, qpos)
		if len(qs) == 0 {
			delete(m, key)
		}
		return s
	}

	joined := make([]*Seed, 0, len(seeds))
	var first, last, s *Seed
	var chain []*Seed
	for _, s0 := range seeds {
		first = take(s0.Target.Source, s0.Query.Source, s0.Target.Pos, s0.Query.Pos)
		if first == nil || first != s0 { // used, or a duplicate
			continue
		}

		// backward
		chain = chain[:0]
		for {
			s = take(first.Target.Source, first.Query.Source, first.Target.Pos-1, first.Query.Pos-1)
			if s == nil {
				break
			}
			chain = append(chain, s)
			first = s
		}
		// reverse the backward part, and append s0
		for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
			chain[i], chain[j] = chain[j], chain[i]
		}
		chain = append(chain, s0)

		// forward
		last = s0
		for {
			s = take(last.Target.Source, last.Query.Source, last.Target.Pos+1, last.Query.Pos+1)
			if s == nil {
				break
			}
			chain = append(chain, s)
			last = s
		}

		joined = append(joined, joinChain(chain))
	}

	return joined
}

// joinChain merges a chain of collinear seeds.
func joinChain(chain []*Seed) *Seed {
	if len(chain) == 1 {
		return chain[0]
	}
	t, q := chain[0].Target, chain[0].Query
	var err error
	for _, s := range chain[1:] {
		if t, err = kmer.Join(t, s.Target); err != nil {
			panic(err) // positions are checked in SeedJoin
		}
		if q, err = kmer.Join(q, s.Query); err != nil {
			panic(err)
		}
	}
	return &Seed{Target: t, Query: q}
}
