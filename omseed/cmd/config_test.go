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
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/omtools/omseed/omseed/index"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts"
)

func TestGetSeedingOptions(t *testing.T) {
	maxProcs, threads, gomaxprocs := sorts.MaxProcs, index.Threads, runtime.GOMAXPROCS(0)
	defer func() {
		sorts.MaxProcs, index.Threads = maxProcs, threads
		runtime.GOMAXPROCS(gomaxprocs)
	}()

	file := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(file, []byte("k = 4\nthread = 3\near = 0.1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{Use: "test"}
		cmd.Flags().IntP("threads", "j", runtime.NumCPU(), "")
		addSeedingFlags(cmd)
		if err := cmd.ParseFlags(args); err != nil {
			t.Fatal(err)
		}
		return cmd
	}

	// values in the file are used, and the number of threads is applied
	opt := &Options{NumCPUs: 8, ConfigFile: file}
	sopt := getSeedingOptions(newCmd("-k", "5"), opt)
	if sopt.K != 5 {
		t.Errorf("the flag should take precedence, expected k=5, returned %d", sopt.K)
	}
	if sopt.Ear != 0.1 {
		t.Errorf("expected ear=0.1, returned %f", sopt.Ear)
	}
	if sopt.Threads != 3 || opt.NumCPUs != 3 || sorts.MaxProcs != 3 || index.Threads != 3 {
		t.Errorf("expected 3 threads, returned %d, %d, %d, %d",
			sopt.Threads, opt.NumCPUs, sorts.MaxProcs, index.Threads)
	}

	// the flag overrides the file
	opt = &Options{NumCPUs: 2, ConfigFile: file}
	sopt = getSeedingOptions(newCmd("--threads", "2"), opt)
	if sopt.Threads != 2 || opt.NumCPUs != 2 {
		t.Errorf("expected 2 threads, returned %d, %d", sopt.Threads, opt.NumCPUs)
	}
	if sopt.K != 4 {
		t.Errorf("expected k=4, returned %d", sopt.K)
	}
}
