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
	"github.com/mitchellh/go-homedir"
	"github.com/omtools/omseed/omseed/index"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
)

// readSeedingOptions overwrites values in opt with the ones in a TOML file.
// The file can be plain or compressed, and "~" is expanded.
//
// An example:
//
//	seedingmode = -1
//	k = 3
//	ear = 0.05
//	meas = 500
func readSeedingOptions(file string, opt *index.SeedingOptions) error {
	file, err := homedir.Expand(file)
	if err != nil {
		return errors.Wrapf(err, "expanding path: %s", file)
	}

	fh, err := xopen.Ropen(file)
	if err != nil {
		return errors.Wrapf(err, "reading config file: %s", file)
	}
	defer fh.Close()

	dec := toml.NewDecoder(fh)
	dec.DisallowUnknownFields()
	if err = dec.Decode(opt); err != nil {
		return errors.Wrapf(err, "parsing config file: %s", file)
	}
	return nil
}

// getSeedingOptions merges seeding options from default values,
// the config file, and explicitly given flags, in the order of priority.
func getSeedingOptions(cmd *cobra.Command, opt *Options) *index.SeedingOptions {
	sopt := index.DefaultSeedingOptions
	sopt.Threads = opt.NumCPUs

	if opt.ConfigFile != "" {
		checkError(readSeedingOptions(opt.ConfigFile, &sopt))
		if opt.Verbose {
			log.Infof("seeding options loaded from %s", opt.ConfigFile)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("threads") {
		sopt.Threads = opt.NumCPUs
	}
	if flags.Changed("seeding-mode") {
		mode, err := index.ParseMode(getFlagString(cmd, "seeding-mode"))
		checkError(err)
		sopt.Mode = mode
	}
	if flags.Changed("kmer") {
		sopt.K = getFlagPositiveInt(cmd, "kmer")
	}
	if flags.Changed("ear") {
		sopt.Ear = getFlagNonNegativeFloat64(cmd, "ear")
	}
	if flags.Changed("meas") {
		sopt.Measure = getFlagNonNegativeInt64(cmd, "meas")
	}
	if flags.Changed("max-no-signal") {
		sopt.MaxNoSignal = getFlagNonNegativeInt64(cmd, "max-no-signal")
	}
	if flags.Changed("max-combinations") {
		sopt.MaxCombinations = getFlagPositiveInt(cmd, "max-combinations")
	}

	checkError(index.CheckSeedingOptions(&sopt))

	// the number of threads might come from the config file
	if sopt.Threads != opt.NumCPUs {
		opt.NumCPUs = sopt.Threads
		setThreads(sopt.Threads)
	}
	return &sopt
}

// addSeedingFlags adds flags of seeding options to a command.
func addSeedingFlags(cmd *cobra.Command) {
	d := index.DefaultSeedingOptions

	cmd.Flags().StringP("seeding-mode", "M", "-1",
		formatFlagUsage(`Seeding mode: -1 (auto), 1 (sorted lists, for large k), 2 (binning, for small k). `+
			`In the auto mode, sorted lists are used for k > 10.`))

	cmd.Flags().IntP("kmer", "k", d.K,
		formatFlagUsage(`Number of consecutive distances in a k-mer.`))

	cmd.Flags().Float64P("ear", "e", d.Ear,
		formatFlagUsage(`Relative error of distances.`))

	cmd.Flags().Int64P("meas", "m", d.Measure,
		formatFlagUsage(`Absolute error of distances (bp).`))

	cmd.Flags().Int64P("max-no-signal", "", d.MaxNoSignal,
		formatFlagUsage(`K-mers containing a distance longer than this are not created (0 for no limit).`))

	cmd.Flags().IntP("max-combinations", "", d.MaxCombinations,
		formatFlagUsage(`Maximum number of keys to enumerate in the binning mode, `+
			`larger search windows scan all stored keys instead.`))
}
