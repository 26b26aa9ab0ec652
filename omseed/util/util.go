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

package util

import (
	"encoding/binary"
	"sync"

	"github.com/twotwotwo/sorts/sortutil"
	"github.com/zeebo/wyhash"
)

// seed of wyhash for hashing quantized keys.
const hashSeed uint64 = 1

var poolHashBuf = &sync.Pool{New: func() interface{} {
	tmp := make([]byte, 0, 128)
	return &tmp
}}

// HashInt32s returns the wyhash of a list of int32 values,
// which are packed in little endian.
// It's safe for concurrent use.
func HashInt32s(vals []int32) uint64 {
	buf := poolHashBuf.Get().(*[]byte)
	b := (*buf)[:0]
	for _, v := range vals {
		b = binary.LittleEndian.AppendUint32(b, uint32(v))
	}
	h := wyhash.Hash(b, hashSeed)
	*buf = b
	poolHashBuf.Put(buf)
	return h
}

// UniqInts sorts and removes duplicates in an int list.
func UniqInts(list *[]int) {
	if len(*list) == 0 || len(*list) == 1 {
		return
	}

	sortutil.Ints(*list)

	var i, j int
	var p, v int
	var flag bool
	p = (*list)[0]
	for i = 1; i < len(*list); i++ {
		v = (*list)[i]
		if v == p {
			if !flag {
				j = i // mark insertion position
				flag = true
			}
			continue
		}

		if flag { // need to insert to previous position
			(*list)[j] = v
			j++
		}
		p = v
	}
	if j > 0 {
		*list = (*list)[:j]
	}
}

// ReverseInt64s reverses a list of int64s in place.
func ReverseInt64s(s []int64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
