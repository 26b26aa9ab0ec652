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

// Package index provides the seed database for searching k-mers of
// optical maps within a relative (ear) and absolute (measure) error.
package index

import (
	"math"
	"runtime"
	"strings"

	"github.com/omtools/omseed/omseed/kmer"
	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
	"github.com/twotwotwo/sorts"
)

var log = logging.MustGetLogger("omseed")

// ErrInvalidSeedingMode means the seeding mode is not one of -1, 1, 2.
var ErrInvalidSeedingMode = errors.New("seed database: invalid seeding mode, available: -1, 1, 2")

// ErrKmerSizeMismatch means the k-mer has a different k with the database.
var ErrKmerSizeMismatch = errors.New("seed database: k-mer size mismatch")

// ErrDatabaseNotBuilt means Build() is not called before querying.
var ErrDatabaseNotBuilt = errors.New("seed database: database not built")

// ErrDatabaseBuilt means Build() is called more than once.
var ErrDatabaseBuilt = errors.New("seed database: database already built")

// Threads is the default concurrency number of MultiThreadSeedDatabase.
var Threads = runtime.NumCPU()

// Mode is the indexing strategy.
type Mode int

const (
	// ModeAuto chooses ModeSortedList for k > AutoModeK, otherwise ModeBinned.
	ModeAuto Mode = -1
	// ModeSortedList keeps a sorted copy of k-mers for each dimension, for larger k.
	ModeSortedList Mode = 1
	// ModeBinned stores quantized k-mers in a hash map, for small k.
	ModeBinned Mode = 2
)

// AutoModeK is the largest k using ModeBinned in ModeAuto.
const AutoModeK = 10

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeSortedList:
		return "sorted-list"
	case ModeBinned:
		return "binned"
	}
	return "unknown"
}

// CheckMode returns ErrInvalidSeedingMode for unsupported values.
func CheckMode(m Mode) error {
	switch m {
	case ModeAuto, ModeSortedList, ModeBinned:
		return nil
	}
	return errors.Wrapf(ErrInvalidSeedingMode, "%d", int(m))
}

// ParseMode parses a mode from its value or name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "-1", "auto":
		return ModeAuto, nil
	case "1", "sorted-list":
		return ModeSortedList, nil
	case "2", "binned":
		return ModeBinned, nil
	}
	return ModeAuto, errors.Wrapf(ErrInvalidSeedingMode, "%s", s)
}

// ResolveMode returns the concrete mode for k-mers of size k.
func ResolveMode(m Mode, k int) Mode {
	if m != ModeAuto {
		return m
	}
	if k > AutoModeK {
		return ModeSortedList
	}
	return ModeBinned
}

// snapshot holds the read-only data of a built database,
// which is shared by all copies of the database.
type snapshot struct {
	mode Mode

	// ModeSortedList, one list for each dimension
	sorted [][]*kmer.Kmer

	// ModeBinned
	table *ConversionTable
	bins  map[uint64][]*bin // hash of key -> bins, collisions are rare
	keys  []*bin            // all bins, for scanning keys
}

// bin is a bucket of k-mers sharing the same key.
type bin struct {
	key   *SeedTableKey
	kmers []*kmer.Kmer
}

// SeedDatabase is an index of k-mers supporting searching k-mers
// within error tolerance.
//
// Build() must be called before querying. After that, the database
// can be copied with Copy() for concurrent querying.
type SeedDatabase struct {
	k     int
	mode  Mode // resolved mode
	kmers []*kmer.Kmer

	// default parameters of Query(), also used in building the table
	ear     float64
	measure float64

	maxCombinations int

	snap *snapshot
}

// NewSeedDatabase creates a new database from k-mers of the same size k.
// The mode is resolved here, ModeAuto becomes ModeSortedList or ModeBinned.
func NewSeedDatabase(kmers []*kmer.Kmer, k int, mode Mode) (*SeedDatabase, error) {
	if err := CheckMode(mode); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, errors.Wrapf(ErrKmerSizeMismatch, "k: %d", k)
	}
	for _, km := range kmers {
		if km.K() != k {
			return nil, errors.Wrapf(ErrKmerSizeMismatch, "%s, expected k: %d", km, k)
		}
	}

	return &SeedDatabase{
		k:     k,
		mode:  ResolveMode(mode, k),
		kmers: kmers,

		ear:     DefaultSeedingOptions.Ear,
		measure: float64(DefaultSeedingOptions.Measure),

		maxCombinations: DefaultSeedingOptions.MaxCombinations,
	}, nil
}

// NewSeedDatabaseWithOptions creates a new database with the options.
func NewSeedDatabaseWithOptions(kmers []*kmer.Kmer, opt *SeedingOptions) (*SeedDatabase, error) {
	if err := CheckSeedingOptions(opt); err != nil {
		return nil, err
	}
	db, err := NewSeedDatabase(kmers, opt.K, opt.Mode)
	if err != nil {
		return nil, err
	}
	db.SetParameters(opt.Ear, float64(opt.Measure))
	db.SetMaxCombinations(opt.MaxCombinations)
	return db, nil
}

// SetParameters sets the default error tolerance used in Query().
// It also affects the bucket widths if it's called before Build().
func (db *SeedDatabase) SetParameters(ear float64, measure float64) {
	db.ear = ear
	db.measure = measure
}

// SetMaxCombinations sets the maximum number of keys to enumerate in ModeBinned.
func (db *SeedDatabase) SetMaxCombinations(n int) {
	db.maxCombinations = n
}

// K returns the k-mer size.
func (db *SeedDatabase) K() int {
	return db.k
}

// Mode returns the resolved mode.
func (db *SeedDatabase) Mode() Mode {
	return db.mode
}

// Ear returns the relative error used in Query().
func (db *SeedDatabase) Ear() float64 {
	return db.ear
}

// Measure returns the absolute error used in Query().
func (db *SeedDatabase) Measure() float64 {
	return db.measure
}

// NumKmers returns the number of k-mers.
func (db *SeedDatabase) NumKmers() int {
	return len(db.kmers)
}

// NumKeys returns the number of distinct keys in ModeBinned, or 0.
func (db *SeedDatabase) NumKeys() int {
	if db.snap == nil {
		return 0
	}
	return len(db.snap.keys)
}

// Kmers returns the k-mers in the database. Do not modify it.
func (db *SeedDatabase) Kmers() []*kmer.Kmer {
	return db.kmers
}

// Built tells if the database is built.
func (db *SeedDatabase) Built() bool {
	return db.snap != nil
}

// Build builds the index. It can only be called once,
// the index is never modified after that.
func (db *SeedDatabase) Build() error {
	if db.snap != nil {
		return ErrDatabaseBuilt
	}

	snap := &snapshot{mode: db.mode}
	switch db.mode {
	case ModeSortedList:
		snap.sorted = buildSortedLists(db.kmers, db.k)
	case ModeBinned:
		var err error
		snap.table, err = newTableForKmers(db.kmers, db.ear, db.measure)
		if err != nil {
			return err
		}
		snap.bins, snap.keys = buildBins(db.kmers, snap.table)
	default:
		log.Warningf("seed database: unknown seeding mode: %d, sorted lists are used", int(db.mode))
		db.mode = ModeSortedList
		snap.mode = ModeSortedList
		snap.sorted = buildSortedLists(db.kmers, db.k)
	}

	db.snap = snap
	return nil
}

// Copy returns a new database sharing the built index,
// with its own parameters.
func (db *SeedDatabase) Copy() *SeedDatabase {
	db2 := *db
	return &db2
}

// kmersByDim sorts k-mers by the distance of a dimension.
type kmersByDim struct {
	kmers []*kmer.Kmer
	i     int
}

func (s kmersByDim) Len() int           { return len(s.kmers) }
func (s kmersByDim) Less(i, j int) bool { return s.kmers[i].Size(s.i) < s.kmers[j].Size(s.i) }
func (s kmersByDim) Swap(i, j int)      { s.kmers[i], s.kmers[j] = s.kmers[j], s.kmers[i] }

func buildSortedLists(kmers []*kmer.Kmer, k int) [][]*kmer.Kmer {
	lists := make([][]*kmer.Kmer, k)
	for i := range lists {
		list := make([]*kmer.Kmer, len(kmers))
		copy(list, kmers)
		sorts.Quicksort(kmersByDim{kmers: list, i: i})
		lists[i] = list
	}
	return lists
}

// newTableForKmers creates a conversion table covering the distances of all k-mers.
func newTableForKmers(kmers []*kmer.Kmer, ear float64, measure float64) (*ConversionTable, error) {
	var minSize int64 = math.MaxInt64
	var maxSize int64 = 1
	var s int64
	for _, km := range kmers {
		for i := 0; i < km.K(); i++ {
			s = km.Size(i)
			if s > 0 && s < minSize {
				minSize = s
			}
			if s > maxSize {
				maxSize = s
			}
		}
	}
	if minSize > maxSize {
		minSize = maxSize
	}
	return NewConversionTable(ear, measure, minSize, maxSize)
}

func buildBins(kmers []*kmer.Kmer, table *ConversionTable) (map[uint64][]*bin, []*bin) {
	bins := make(map[uint64][]*bin, len(kmers))
	keys := make([]*bin, 0, len(kmers))

	var key *SeedTableKey
	var h uint64
	var b *bin
	var found bool
	for _, km := range kmers {
		key = table.GetKey(km)
		h = key.Hash()

		found = false
		for _, b = range bins[h] {
			if b.key.Equal(key) {
				b.kmers = append(b.kmers, km)
				found = true
				break
			}
		}
		if !found {
			b = &bin{key: key, kmers: []*kmer.Kmer{km}}
			bins[h] = append(bins[h], b)
			keys = append(keys, b)
		}
	}
	return bins, keys
}
