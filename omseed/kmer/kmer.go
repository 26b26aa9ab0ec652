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

// Package kmer provides k-mers of optical maps, i.e., ordered windows of
// k consecutive inter-label distances, and the tolerance test used in seeding.
package kmer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/omtools/omseed/omseed/util"
)

// ErrEmptyKmer means no sizes are given.
var ErrEmptyKmer = errors.New("kmer: no sizes given")

// ErrNotAdjacent means two k-mers can not be joined.
var ErrNotAdjacent = errors.New("kmer: k-mers are not adjacent")

// Kmer is a window of k consecutive distances between labels,
// anchored at a position of a source (molecule or reference).
// It should not be modified after being created.
type Kmer struct {
	Source string // identifier of the source sequence
	Pos    int    // position of the first signal in the source

	sizes []int64
}

// New creates a new Kmer. The sizes are copied.
func New(source string, pos int, sizes []int64) (*Kmer, error) {
	if len(sizes) == 0 {
		return nil, ErrEmptyKmer
	}
	s := make([]int64, len(sizes))
	copy(s, sizes)
	return &Kmer{Source: source, Pos: pos, sizes: s}, nil
}

// MustNew is like New but panics on error.
func MustNew(source string, pos int, sizes []int64) *Kmer {
	km, err := New(source, pos, sizes)
	if err != nil {
		panic(err)
	}
	return km
}

// FromDistances creates all k-mers of a source from its distance array.
func FromDistances(source string, distances []int64, k int) []*Kmer {
	if k < 1 || len(distances) < k {
		return nil
	}
	kmers := make([]*Kmer, 0, len(distances)-k+1)
	for i := 0; i+k <= len(distances); i++ {
		kmers = append(kmers, &Kmer{Source: source, Pos: i, sizes: append([]int64(nil), distances[i:i+k]...)})
	}
	return kmers
}

// FromDistancesMaxSize is similar to FromDistances, but skips k-mers
// containing a distance larger than maxSize, i.e., a region without signals.
// maxSize <= 0 means no limit.
func FromDistancesMaxSize(source string, distances []int64, k int, maxSize int64) []*Kmer {
	if maxSize <= 0 {
		return FromDistances(source, distances, k)
	}
	if k < 1 || len(distances) < k {
		return nil
	}
	kmers := make([]*Kmer, 0, len(distances)-k+1)
	var last int = -1 // the last position of a long distance
	for i, d := range distances {
		if d > maxSize {
			last = i
		}
		if i+1 < k || i-k+1 <= last {
			continue
		}
		kmers = append(kmers, &Kmer{Source: source, Pos: i - k + 1, sizes: append([]int64(nil), distances[i-k+1:i+1]...)})
	}
	return kmers
}

// K returns the number of distances.
func (km *Kmer) K() int {
	return len(km.sizes)
}

// Size returns the i-th distance.
func (km *Kmer) Size(i int) int64 {
	return km.sizes[i]
}

// Sizes returns a copy of the distances.
func (km *Kmer) Sizes() []int64 {
	s := make([]int64, len(km.sizes))
	copy(s, km.sizes)
	return s
}

// Span returns the sum of all distances.
func (km *Kmer) Span() int64 {
	var sum int64
	for _, s := range km.sizes {
		sum += s
	}
	return sum
}

// Reverse returns the k-mer read from the opposite strand.
func (km *Kmer) Reverse() *Kmer {
	s := km.Sizes()
	util.ReverseInt64s(s)
	return &Kmer{Source: km.Source, Pos: km.Pos, sizes: s}
}

// Scaled returns a bound vector with v[i] = sizes[i]*ratio + shift.
func (km *Kmer) Scaled(ratio float64, shift float64) []float64 {
	v := make([]float64, len(km.sizes))
	for i, s := range km.sizes {
		v[i] = float64(s)*ratio + shift
	}
	return v
}

func (km *Kmer) String() string {
	var b strings.Builder
	b.WriteString(km.Source)
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(km.Pos))
	b.WriteByte('[')
	for i, s := range km.sizes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(s, 10))
	}
	b.WriteByte(']')
	return b.String()
}

// Equal tells if two k-mers have the same source, position and distances.
func Equal(a, b *Kmer) bool {
	if a.Source != b.Source || a.Pos != b.Pos || len(a.sizes) != len(b.sizes) {
		return false
	}
	for i, s := range a.sizes {
		if b.sizes[i] != s {
			return false
		}
	}
	return true
}

// Compare compares the i-th distances of two k-mers.
func Compare(a, b *Kmer, i int) int {
	if a.sizes[i] < b.sizes[i] {
		return -1
	}
	if a.sizes[i] > b.sizes[i] {
		return 1
	}
	return 0
}

// Join extends a with the last distance of b,
// where b must start exactly one signal after a in the same source.
func Join(a, b *Kmer) (*Kmer, error) {
	if a.Source != b.Source || b.Pos != a.Pos+1 {
		return nil, ErrNotAdjacent
	}
	s := make([]int64, len(a.sizes), len(a.sizes)+1)
	copy(s, a.sizes)
	s = append(s, b.sizes[len(b.sizes)-1])
	return &Kmer{Source: a.Source, Pos: a.Pos, sizes: s}, nil
}

// Bounds is the tolerance window of a query k-mer.
type Bounds struct {
	Small []float64
	Large []float64
}

// NewBounds computes the window of a query k-mer with
// the relative error ear and the absolute error measure:
//
//	small[i] = q[i]*(1-ear) - measure
//	large[i] = q[i]*(1+ear) + measure
func NewBounds(q *Kmer, ear float64, measure float64) *Bounds {
	return &Bounds{
		Small: q.Scaled(1-ear, -measure),
		Large: q.Scaled(1+ear, measure),
	}
}

// K returns the number of dimensions.
func (b *Bounds) K() int {
	return len(b.Small)
}

func (b *Bounds) String() string {
	return fmt.Sprintf("%v-%v", b.Small, b.Large)
}

// LimitRange tells if every distance of c falls in the window, boundaries included.
func LimitRange(c *Kmer, b *Bounds) bool {
	if len(c.sizes) != len(b.Small) {
		return false
	}
	var v float64
	for i, s := range c.sizes {
		v = float64(s)
		if v < b.Small[i] || v > b.Large[i] {
			return false
		}
	}
	return true
}
