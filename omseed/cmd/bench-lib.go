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

package cmd

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/omtools/omseed/omseed/index"
	"github.com/omtools/omseed/omseed/kmer"
	"github.com/omtools/omseed/omseed/util"
	"github.com/shenwei356/xopen"
	"gonum.org/v1/gonum/stat"
)

// OpticalMap is a map of labels, represented with distances between adjacent labels.
type OpticalMap struct {
	Name      string
	Distances []int64
}

// simulateRefs creates random reference maps. Distances mostly follow an
// exponential distribution, with occasional long regions without signals.
func simulateRefs(r *rand.Rand, n int, length int, maxNoSignal int64) []*OpticalMap {
	refs := make([]*OpticalMap, n)
	for i := 0; i < n; i++ {
		distances := make([]int64, length)
		for j := range distances {
			if maxNoSignal > 0 && r.Float64() < 0.001 {
				distances[j] = maxNoSignal + 1 + r.Int63n(maxNoSignal)
				continue
			}
			distances[j] = 500 + int64(r.ExpFloat64()*4000)
		}
		refs[i] = &OpticalMap{Name: fmt.Sprintf("ref_%d", i+1), Distances: distances}
	}
	return refs
}

// simulateQueries creates query maps from random regions of references,
// with each distance shifted by at most half of the error tolerance.
// If bothStrands is true, about half of them are read from the reverse strand.
// Query names are "query_<i>_<ref>:<start>:<strand>".
func simulateQueries(r *rand.Rand, refs []*OpticalMap, n int, length int,
	ear float64, measure float64, bothStrands bool) []*OpticalMap {
	queries := make([]*OpticalMap, 0, n)
	var ref *OpticalMap
	var start int
	var tol int64
	var strand byte
	for i := 0; i < n; i++ {
		ref = refs[r.Intn(len(refs))]
		start = r.Intn(len(ref.Distances) - length + 1)

		distances := make([]int64, length)
		for j, d := range ref.Distances[start : start+length] {
			tol = int64((float64(d)*ear + measure) / 2)
			if tol > 0 {
				d += r.Int63n(2*tol+1) - tol
			}
			if d < 1 {
				d = 1
			}
			distances[j] = d
		}

		strand = '+'
		if bothStrands && r.Intn(2) == 1 {
			util.ReverseInt64s(distances)
			strand = '-'
		}

		queries = append(queries, &OpticalMap{
			Name:      fmt.Sprintf("query_%d_%s:%d:%c", i+1, ref.Name, start, strand),
			Distances: distances,
		})
	}
	return queries
}

// queryKmers creates k-mers of query maps. If bothStrands is true,
// the reverse of every k-mer is also added and marked in the returned map.
func queryKmers(queries []*OpticalMap, k int, bothStrands bool) ([]*kmer.Kmer, map[*kmer.Kmer]bool) {
	n := 0
	for _, q := range queries {
		if len(q.Distances) >= k {
			n += len(q.Distances) - k + 1
		}
	}
	if bothStrands {
		n *= 2
	}

	kmers := make([]*kmer.Kmer, 0, n)
	reversed := make(map[*kmer.Kmer]bool, n/2)
	var rkm *kmer.Kmer
	for _, q := range queries {
		for _, km := range kmer.FromDistances(q.Name, q.Distances, k) {
			kmers = append(kmers, km)
			if bothStrands {
				rkm = km.Reverse()
				kmers = append(kmers, rkm)
				reversed[rkm] = true
			}
		}
	}
	return kmers, reversed
}

// meanStdev returns 0s instead of NaNs for empty or single values.
func meanStdev(values []float64) (float64, float64) {
	mean, std := stat.MeanStdDev(values, nil)
	if math.IsNaN(mean) {
		mean = 0
	}
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// searchKmers searches all k-mers with a MultiThreadSeedDatabase.
// Results are passed to fn in the order of completion.
func searchKmers(mdb *index.MultiThreadSeedDatabase, kmers []*kmer.Kmer, fn func(*index.SeedingResultNode) error) error {
	var node *index.SeedingResultNode
	var err error
	for _, q := range kmers {
		// all workers are busy, wait for a result
		for !mdb.StartNext(q) {
			if node, err = mdb.GetNextResult(); err != nil {
				return err
			}
			if err = fn(node); err != nil {
				return err
			}
		}
	}

	// the remaining ones
	for {
		node, err = mdb.GetNextResult()
		if err == index.ErrNoTaskInFlight {
			return nil
		}
		if err != nil {
			return err
		}
		if err = fn(node); err != nil {
			return err
		}
	}
}

func bruteForceSearch(kmers []*kmer.Kmer, q *kmer.Kmer, ear float64, measure float64) []*kmer.Kmer {
	b := kmer.NewBounds(q, ear, measure)
	hits := make([]*kmer.Kmer, 0, 8)
	for _, km := range kmers {
		if kmer.LimitRange(km, b) {
			hits = append(hits, km)
		}
	}
	return hits
}

// sameMatches checks if two lists have the same k-mers, regardless of the order.
func sameMatches(a, b []*kmer.Kmer) bool {
	if len(a) != len(b) {
		return false
	}
	m := make(map[*kmer.Kmer]int, len(a))
	for _, km := range a {
		m[km]++
	}
	for _, km := range b {
		if m[km] == 0 {
			return false
		}
		m[km]--
	}
	return true
}

// writeMatchCounts writes the number of matches of each query k-mer.
func writeMatchCounts(file string, kmers []*kmer.Kmer, counts []float64, reversed map[*kmer.Kmer]bool) error {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return err
	}
	defer outfh.Close()

	fmt.Fprintf(outfh, "query\tpos\tstrand\tmatches\n")
	var strand byte
	for i, c := range counts {
		strand = '+'
		if reversed[kmers[i]] {
			strand = '-'
		}
		fmt.Fprintf(outfh, "%s\t%d\t%c\t%d\n", kmers[i].Source, kmers[i].Pos, strand, int(c))
	}
	return nil
}
