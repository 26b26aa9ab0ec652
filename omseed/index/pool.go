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
	"sync"

	"github.com/omtools/omseed/omseed/kmer"
	"github.com/pkg/errors"
)

// ErrNoTaskInFlight means GetNextResult() is called with no running query.
var ErrNoTaskInFlight = errors.New("seed database: no query in flight")

// ErrPoolClosed means the MultiThreadSeedDatabase is closed.
var ErrPoolClosed = errors.New("seed database: pool closed")

// SeedDatabaseWrapper runs one query at a time on its own copy of a database.
type SeedDatabaseWrapper struct {
	db      *SeedDatabase
	ear     float64
	measure float64
	kmer    *kmer.Kmer
}

// NewSeedDatabaseWrapper creates a wrapper on a copy of the database.
func NewSeedDatabaseWrapper(db *SeedDatabase, measure float64, ear float64) *SeedDatabaseWrapper {
	return &SeedDatabaseWrapper{db: db.Copy(), ear: ear, measure: measure}
}

// SetKmer sets the k-mer for the next Call().
func (w *SeedDatabaseWrapper) SetKmer(q *kmer.Kmer) {
	w.kmer = q
}

// Kmer returns the current k-mer.
func (w *SeedDatabaseWrapper) Kmer() *kmer.Kmer {
	return w.kmer
}

// Call searches the current k-mer.
func (w *SeedDatabaseWrapper) Call() ([]*kmer.Kmer, error) {
	return w.db.KmerList(w.kmer, w.ear, w.measure)
}

// SeedingResultNode is the result of a query.
type SeedingResultNode struct {
	Kmer    *kmer.Kmer   // the query
	Matches []*kmer.Kmer // matched k-mers in the database
	Err     error

	Slot int // index of the worker
}

// MultiThreadSeedDatabase searches k-mers with a fixed number of workers,
// each owning a copy of the database.
//
// Example:
//
//	mdb, _ := NewMultiThreadSeedDatabase(db, 8, measure, ear)
//	defer mdb.Close()
//
//	for _, q := range queries {
//		for !mdb.StartNext(q) { // all workers are busy
//			r, _ := mdb.GetNextResult()
//			// handle r
//		}
//	}
//	for mdb.Status() != -1 {
//		r, _ := mdb.GetNextResult()
//		// handle r
//	}
//
// Results come in the order of completion, not submission.
// StartNext, GetNextResult and Status should be called from one goroutine.
type MultiThreadSeedDatabase struct {
	wrappers []*SeedDatabaseWrapper

	jobs    []chan *kmer.Kmer       // one for each worker
	free    chan int                // idle workers
	results chan *SeedingResultNode // finished queries

	inflight int
	closed   bool
	wg       sync.WaitGroup
}

// NewMultiThreadSeedDatabase starts threads workers on copies of a built database.
func NewMultiThreadSeedDatabase(db *SeedDatabase, threads int, measure float64, ear float64) (*MultiThreadSeedDatabase, error) {
	if !db.Built() {
		return nil, ErrDatabaseNotBuilt
	}
	if threads < 1 {
		threads = Threads
	}

	mdb := &MultiThreadSeedDatabase{
		wrappers: make([]*SeedDatabaseWrapper, threads),
		jobs:     make([]chan *kmer.Kmer, threads),
		free:     make(chan int, threads),
		results:  make(chan *SeedingResultNode, threads),
	}

	for i := 0; i < threads; i++ {
		mdb.wrappers[i] = NewSeedDatabaseWrapper(db, measure, ear)
		mdb.jobs[i] = make(chan *kmer.Kmer, 1)
		mdb.free <- i

		mdb.wg.Add(1)
		go func(i int) {
			defer mdb.wg.Done()
			w := mdb.wrappers[i]
			for q := range mdb.jobs[i] {
				w.SetKmer(q)
				matches, err := w.Call()
				mdb.results <- &SeedingResultNode{Kmer: q, Matches: matches, Err: err, Slot: i}
			}
		}(i)
	}

	return mdb, nil
}

// Threads returns the number of workers.
func (mdb *MultiThreadSeedDatabase) Threads() int {
	return len(mdb.wrappers)
}

// StartNext submits a query to an idle worker. It never blocks,
// and returns false if all workers are busy or the pool is closed,
// then GetNextResult() should be called before retrying.
func (mdb *MultiThreadSeedDatabase) StartNext(q *kmer.Kmer) bool {
	if mdb.closed {
		return false
	}
	select {
	case i := <-mdb.free:
		mdb.inflight++
		mdb.jobs[i] <- q // never blocks, the worker is idle
		return true
	default:
		return false
	}
}

// GetNextResult waits for any running query to finish,
// and frees its worker.
func (mdb *MultiThreadSeedDatabase) GetNextResult() (*SeedingResultNode, error) {
	if mdb.inflight == 0 {
		return nil, ErrNoTaskInFlight
	}
	r := <-mdb.results
	mdb.inflight--
	mdb.free <- r.Slot
	return r, nil
}

// Status returns -1 if no query is running, 1 if some results are ready,
// and 0 if queries are running but none finished.
func (mdb *MultiThreadSeedDatabase) Status() int {
	if mdb.inflight == 0 {
		return -1
	}
	if len(mdb.results) > 0 {
		return 1
	}
	return 0
}

// Close stops all workers. Unretrieved results are dropped.
func (mdb *MultiThreadSeedDatabase) Close() error {
	if mdb.closed {
		return ErrPoolClosed
	}
	mdb.closed = true
	for _, ch := range mdb.jobs {
		close(ch)
	}
	mdb.wg.Wait()
	mdb.inflight = 0
	return nil
}
