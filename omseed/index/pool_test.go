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
	"math/rand"
	"testing"

	"github.com/omtools/omseed/omseed/kmer"
)

func TestMultiThreadSeedDatabase(t *testing.T) {
	k := 3
	ear := 0.05
	measure := 500.0
	r := rand.New(rand.NewSource(7))
	kmers := randomKmers(r, 4, 300, k)

	for _, mode := range []Mode{ModeSortedList, ModeBinned} {
		db := mustBuild(t, kmers, k, mode, ear, measure)

		threads := 4
		mdb, err := NewMultiThreadSeedDatabase(db, threads, measure, ear)
		if err != nil {
			t.Fatal(err)
		}
		if mdb.Status() != -1 {
			t.Errorf("a new pool should be idle")
		}

		nQueries := 257
		queries := make([]*kmer.Kmer, nQueries)
		submitted := make(map[*kmer.Kmer]int, nQueries)
		for i := range queries {
			queries[i] = perturb(r, kmers[r.Intn(len(kmers))], 700)
			submitted[queries[i]]++
		}

		received := make(map[*kmer.Kmer]int, nQueries)
		var nResults int
		handle := func(node *SeedingResultNode) {
			nResults++
			received[node.Kmer]++
			if node.Err != nil {
				t.Error(node.Err)
				return
			}
			expected, _ := db.KmerList(node.Kmer, ear, measure)
			if !sameKmers(expected, node.Matches) {
				t.Errorf("unexpected matches of %s", node.Kmer)
			}
		}

		for _, q := range queries {
			for !mdb.StartNext(q) {
				node, err := mdb.GetNextResult()
				if err != nil {
					t.Fatal(err)
				}
				handle(node)
			}
		}
		for mdb.Status() != -1 {
			node, err := mdb.GetNextResult()
			if err != nil {
				t.Fatal(err)
			}
			handle(node)
		}

		if nResults != nQueries {
			t.Errorf("expected %d results, returned %d", nQueries, nResults)
		}
		for q, n := range submitted {
			if received[q] != n {
				t.Errorf("query %s: submitted %d times, received %d times", q, n, received[q])
			}
		}

		if _, err = mdb.GetNextResult(); err != ErrNoTaskInFlight {
			t.Errorf("expected ErrNoTaskInFlight, returned %v", err)
		}

		if err = mdb.Close(); err != nil {
			t.Error(err)
		}
		if mdb.StartNext(queries[0]) {
			t.Errorf("a closed pool should not accept queries")
		}
		if err = mdb.Close(); err != ErrPoolClosed {
			t.Errorf("expected ErrPoolClosed, returned %v", err)
		}
	}
}

func TestMultiThreadSeedDatabaseBackpressure(t *testing.T) {
	ref := kmer.MustNew("ref", 0, []int64{100, 200, 150})
	db := mustBuild(t, []*kmer.Kmer{ref}, 3, ModeBinned, 0.1, 5)

	threads := 3
	mdb, err := NewMultiThreadSeedDatabase(db, threads, 5, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	defer mdb.Close()

	for i := 0; i < threads; i++ {
		if !mdb.StartNext(ref) {
			t.Fatalf("worker %d should be idle", i)
		}
	}
	// slots are only freed by GetNextResult
	if mdb.StartNext(ref) {
		t.Errorf("all workers should be busy")
	}
	if s := mdb.Status(); s == -1 {
		t.Errorf("the pool should not be idle")
	}

	node, err := mdb.GetNextResult()
	if err != nil {
		t.Fatal(err)
	}
	if len(node.Matches) != 1 {
		t.Errorf("expected one match, returned %d", len(node.Matches))
	}
	if !mdb.StartNext(ref) {
		t.Errorf("a worker should be freed after GetNextResult")
	}

	n := 0
	for mdb.Status() != -1 {
		if _, err = mdb.GetNextResult(); err != nil {
			t.Fatal(err)
		}
		n++
	}
	if n != threads {
		t.Errorf("expected %d results to drain, returned %d", threads, n)
	}
}

func TestMultiThreadSeedDatabaseNotBuilt(t *testing.T) {
	db, err := NewSeedDatabase(nil, 3, ModeAuto)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = NewMultiThreadSeedDatabase(db, 2, 5, 0.1); err != ErrDatabaseNotBuilt {
		t.Errorf("expected ErrDatabaseNotBuilt, returned %v", err)
	}
}
