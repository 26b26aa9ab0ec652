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
	"runtime"
)

// SeedingOptions contains all options used in seeding.
// The TOML keys are the option names used by the aligners.
type SeedingOptions struct {
	Mode        Mode  `toml:"seedingmode"` // -1 for auto, 1 for sorted lists, 2 for binning
	K           int   `toml:"k"`           // number of distances in a k-mer
	MaxNoSignal int64 `toml:"maxnosignal"` // maximum no-signal region, used when creating k-mers
	Threads     int   `toml:"thread"`      // number of workers for MultiThreadSeedDatabase

	Ear     float64 `toml:"ear"`  // relative error
	Measure int64   `toml:"meas"` // absolute error

	// the maximum number of keys to enumerate in binning mode,
	// larger windows fall back to scanning stored keys.
	MaxCombinations int `toml:"maxcombinations"`
}

// DefaultSeedingOptions contains default option values.
var DefaultSeedingOptions = SeedingOptions{
	Mode:        ModeAuto,
	K:           3,
	MaxNoSignal: 10000,
	Threads:     runtime.NumCPU(),

	Ear:     0.05,
	Measure: 500,

	MaxCombinations: 10000,
}

// CheckSeedingOptions checks the values of options.
func CheckSeedingOptions(opt *SeedingOptions) error {
	if err := CheckMode(opt.Mode); err != nil {
		return err
	}
	if opt.K < 1 {
		return fmt.Errorf("invalid k: %d, should be >= 1", opt.K)
	}
	if opt.Threads < 1 {
		return fmt.Errorf("invalid number of threads: %d, should be >= 1", opt.Threads)
	}
	if opt.Ear < 0 || opt.Ear >= 1 {
		return fmt.Errorf("invalid ear: %f, valid range: [0, 1)", opt.Ear)
	}
	if opt.Measure < 0 {
		return fmt.Errorf("invalid meas: %d, should be >= 0", opt.Measure)
	}
	if opt.MaxNoSignal < 0 {
		return fmt.Errorf("invalid maxnosignal: %d, should be >= 0", opt.MaxNoSignal)
	}
	if opt.MaxCombinations < 1 {
		return fmt.Errorf("invalid maxcombinations: %d, should be >= 1", opt.MaxCombinations)
	}
	return nil
}
