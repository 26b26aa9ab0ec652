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
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/omtools/omseed/omseed/kmer"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
)

// Magic number for checking file format
var Magic = [8]byte{'.', 'o', 'm', 's', 'e', 'e', 'd', 'b'}

// MainVersion is use for checking compatibility
var MainVersion uint8 = 0

// MinorVersion is less important
var MinorVersion uint8 = 1

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("seed database: invalid binary format")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("seed database: broken file")

// ErrVersionMismatch means version mismatch between files and program
var ErrVersionMismatch = errors.New("seed database: version mismatch")

// MaxK is the largest k accepted when reading a file.
const MaxK = 1 << 16

// MaxSourceNameLen is the maximum length of a source name in a file.
const MaxSourceNameLen = 1 << 16

// the maximum initial capacity of slices allocated from counts in a file
const maxPrealloc = 1 << 20

var be = binary.BigEndian

// WriteToFile writes the k-mers and parameters of a database to a file,
// optional with file extension of .gz, .xz, .zst, .bz2.
// The index itself is not saved, it's rebuilt in NewFromFile.
//
// Header (48 bytes):
//
//	Magic number, 8 bytes, ".omseedb".
//	Main and minor versions, 2 bytes.
//	Seeding mode, 1 byte, signed.
//	Blank, 5 bytes.
//	K, 8 bytes.
//	Ear, 8 bytes, float64 bits.
//	Measure, 8 bytes, float64 bits.
//	MaxCombinations, 8 bytes.
//
// Sources:
//
//	Number of sources, 8 bytes.
//	For each source: length (4 bytes) and the name.
//
// K-mers:
//
//	Number of k-mers, 8 bytes.
//	For each k-mer: source index (4 bytes), position (8 bytes), k sizes (8 bytes each).
func (db *SeedDatabase) WriteToFile(file string) (int, error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return 0, err
	}

	N, err := db.write(outfh)
	if err != nil {
		outfh.Close()
		return N, errors.Wrapf(err, "writing seed database: %s", file)
	}

	return N, outfh.Close()
}

func (db *SeedDatabase) write(w io.Writer) (int, error) {
	if db.k > MaxK {
		return 0, errors.Wrapf(ErrKmerSizeMismatch, "k: %d, maximum: %d", db.k, MaxK)
	}
	var N int
	buf := make([]byte, 48)

	// header
	copy(buf[:8], Magic[:])
	buf[8] = MainVersion
	buf[9] = MinorVersion
	buf[10] = uint8(int8(db.mode))
	be.PutUint64(buf[16:24], uint64(db.k))
	be.PutUint64(buf[24:32], math.Float64bits(db.ear))
	be.PutUint64(buf[32:40], math.Float64bits(db.measure))
	be.PutUint64(buf[40:48], uint64(db.maxCombinations))
	n, err := w.Write(buf)
	N += n
	if err != nil {
		return N, err
	}

	// sources, in the order of appearance
	sources := make([]string, 0, 8)
	source2idx := make(map[string]uint32, 8)
	var ok bool
	for _, km := range db.kmers {
		if _, ok = source2idx[km.Source]; !ok {
			source2idx[km.Source] = uint32(len(sources))
			sources = append(sources, km.Source)
		}
	}
	be.PutUint64(buf[:8], uint64(len(sources)))
	n, err = w.Write(buf[:8])
	N += n
	if err != nil {
		return N, err
	}
	for _, s := range sources {
		if len(s) > MaxSourceNameLen {
			return N, fmt.Errorf("source name too long (%d > %d): %s...", len(s), MaxSourceNameLen, s[:64])
		}
		be.PutUint32(buf[:4], uint32(len(s)))
		n, err = w.Write(buf[:4])
		N += n
		if err != nil {
			return N, err
		}
		n, err = io.WriteString(w, s)
		N += n
		if err != nil {
			return N, err
		}
	}

	// k-mers
	be.PutUint64(buf[:8], uint64(len(db.kmers)))
	n, err = w.Write(buf[:8])
	N += n
	if err != nil {
		return N, err
	}
	data := make([]byte, 12+8*db.k)
	var i, j int
	for _, km := range db.kmers {
		be.PutUint32(data[:4], source2idx[km.Source])
		be.PutUint64(data[4:12], uint64(km.Pos))
		j = 12
		for i = 0; i < db.k; i++ {
			be.PutUint64(data[j:j+8], uint64(km.Size(i)))
			j += 8
		}
		n, err = w.Write(data)
		N += n
		if err != nil {
			return N, err
		}
	}

	return N, nil
}

// NewFromFile reads a database written by WriteToFile and builds it.
func NewFromFile(file string) (*SeedDatabase, error) {
	ok, err := pathutil.Exists(file)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("seed database file not found: %s", file)
	}

	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading seed database: %s", file)
	}
	defer fh.Close()

	db, err := read(fh)
	if err != nil {
		return nil, errors.Wrapf(err, "reading seed database: %s", file)
	}

	if err = db.Build(); err != nil {
		return nil, err
	}
	return db, nil
}

func read(r io.Reader) (*SeedDatabase, error) {
	buf := make([]byte, 48)

	// header
	_, err := io.ReadFull(r, buf)
	if err != nil {
		return nil, ErrBrokenFile
	}
	same := true
	for i := 0; i < 8; i++ {
		if Magic[i] != buf[i] {
			same = false
			break
		}
	}
	if !same {
		return nil, ErrInvalidFileFormat
	}
	if MainVersion != buf[8] {
		return nil, ErrVersionMismatch
	}

	db := &SeedDatabase{
		// the mode is not checked here, unknown ones are handled in Build()
		mode:            Mode(int8(buf[10])),
		k:               int(be.Uint64(buf[16:24])),
		ear:             math.Float64frombits(be.Uint64(buf[24:32])),
		measure:         math.Float64frombits(be.Uint64(buf[32:40])),
		maxCombinations: int(be.Uint64(buf[40:48])),
	}
	if db.k < 1 || db.k > MaxK {
		return nil, ErrInvalidFileFormat
	}
	db.mode = ResolveMode(db.mode, db.k)

	// sources
	if _, err = io.ReadFull(r, buf[:8]); err != nil {
		return nil, ErrBrokenFile
	}
	nSources := be.Uint64(buf[:8])
	sources := make([]string, 0, preallocSize(nSources))
	var l uint32
	var name []byte
	for i := uint64(0); i < nSources; i++ {
		if _, err = io.ReadFull(r, buf[:4]); err != nil {
			return nil, ErrBrokenFile
		}
		l = be.Uint32(buf[:4])
		if l > MaxSourceNameLen {
			return nil, ErrInvalidFileFormat
		}
		name = make([]byte, l)
		if _, err = io.ReadFull(r, name); err != nil {
			return nil, ErrBrokenFile
		}
		sources = append(sources, string(name))
	}

	// k-mers
	if _, err = io.ReadFull(r, buf[:8]); err != nil {
		return nil, ErrBrokenFile
	}
	nKmers := be.Uint64(buf[:8])
	db.kmers = make([]*kmer.Kmer, 0, preallocSize(nKmers))
	data := make([]byte, 12+8*db.k)
	sizes := make([]int64, db.k)
	var idx uint32
	var i, j int
	for n := uint64(0); n < nKmers; n++ {
		if _, err = io.ReadFull(r, data); err != nil {
			return nil, ErrBrokenFile
		}
		idx = be.Uint32(data[:4])
		if int(idx) >= len(sources) {
			return nil, ErrInvalidFileFormat
		}
		j = 12
		for i = 0; i < db.k; i++ {
			sizes[i] = int64(be.Uint64(data[j : j+8]))
			j += 8
		}
		km, err := kmer.New(sources[idx], int(int64(be.Uint64(data[4:12]))), sizes)
		if err != nil {
			return nil, err
		}
		db.kmers = append(db.kmers, km)
	}

	return db, nil
}

// preallocSize limits the capacity of slices sized by untrusted counts.
func preallocSize(n uint64) int {
	if n > maxPrealloc {
		return maxPrealloc
	}
	return int(n)
}
