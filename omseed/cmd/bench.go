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
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/omtools/omseed/omseed/index"
	"github.com/omtools/omseed/omseed/kmer"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark seeding with simulated optical maps",
	Long: `Benchmark seeding with simulated optical maps

Steps:
  1. Simulating reference maps, i.e., distances between adjacent labels.
  2. Creating k-mers of references, and building the seed database.
  3. Simulating query maps from random regions of references,
     with distances perturbed within the error tolerance,
     optionally from both strands (-b/--both-strands).
  4. Searching k-mers of queries with multiple threads, k-mers are
     also searched reversed with -b/--both-strands.
  5. Optionally, checking results with brute-force searching,
     and joining collinear seeds.

Seeding options can be given via flags, or a TOML config file (-c/--config),
where flags explicitly given take precedence.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		// ---------------------------------------------------------------
		// flags

		sopt := getSeedingOptions(cmd, opt)

		nRefs := getFlagPositiveInt(cmd, "refs")
		refLen := getFlagPositiveInt(cmd, "ref-len")
		nQueries := getFlagPositiveInt(cmd, "queries")
		queryLen := getFlagPositiveInt(cmd, "query-len")
		seed := getFlagInt(cmd, "seed")
		check := getFlagBool(cmd, "check")
		join := getFlagBool(cmd, "join")
		bothStrands := getFlagBool(cmd, "both-strands")
		maxSeeds := getFlagNonNegativeInt(cmd, "filter-max-seeds")
		window := getFlagNonNegativeInt(cmd, "filter-window")
		outFile := getFlagString(cmd, "out-file")
		outStats := getFlagString(cmd, "out-stats")

		if queryLen < sopt.K {
			checkError(fmt.Errorf("the value of --query-len (%d) should be >= k (%d)", queryLen, sopt.K))
		}
		if queryLen > refLen {
			checkError(fmt.Errorf("the value of --query-len (%d) should be <= --ref-len (%d)", queryLen, refLen))
		}

		if opt.Verbose {
			log.Infof("omseed v%s", VERSION)
			log.Info("  https://github.com/omtools/omseed")
			log.Info()
			log.Infof("seeding options:")
			log.Infof("  seeding mode: %s, k: %d, ear: %.4f, meas: %d", sopt.Mode, sopt.K, sopt.Ear, sopt.Measure)
			log.Infof("  max no-signal: %d, max combinations: %d, threads: %d", sopt.MaxNoSignal, sopt.MaxCombinations, sopt.Threads)
			log.Info()
		}

		r := rand.New(rand.NewSource(int64(seed)))
		ear := sopt.Ear
		measure := float64(sopt.Measure)

		// ---------------------------------------------------------------
		// references

		var timeStep time.Time
		timeStep = time.Now()
		refs := simulateRefs(r, nRefs, refLen, sopt.MaxNoSignal)
		kmers := make([]*kmer.Kmer, 0, nRefs*refLen)
		for _, ref := range refs {
			kmers = append(kmers, kmer.FromDistancesMaxSize(ref.Name, ref.Distances, sopt.K, sopt.MaxNoSignal)...)
		}
		if opt.Verbose {
			log.Infof("%s k-mers created from %d reference maps in %s",
				humanize.Comma(int64(len(kmers))), nRefs, time.Since(timeStep))
		}

		if maxSeeds > 0 {
			timeStep = time.Now()
			n := len(kmers)
			var err error
			kmers, err = index.Filter(kmers, ear, measure, maxSeeds, window)
			checkError(err)
			if opt.Verbose {
				log.Infof("%s repetitive k-mers filtered out in %s",
					humanize.Comma(int64(n-len(kmers))), time.Since(timeStep))
			}
		}

		// ---------------------------------------------------------------
		// database

		timeStep = time.Now()
		db, err := index.NewSeedDatabaseWithOptions(kmers, sopt)
		checkError(err)
		checkError(db.Build())
		if opt.Verbose {
			log.Infof("seed database built in %s mode in %s", db.Mode(), time.Since(timeStep))
			if db.Mode() == index.ModeBinned {
				log.Infof("  %s distinct keys", humanize.Comma(int64(db.NumKeys())))
			}
		}

		if outFile != "" {
			timeStep = time.Now()
			n, err := db.WriteToFile(outFile)
			checkError(err)
			if opt.Verbose {
				log.Infof("seed database (%s) saved to %s in %s",
					humanize.Bytes(uint64(n)), outFile, time.Since(timeStep))
			}
		}

		// ---------------------------------------------------------------
		// queries

		queries := simulateQueries(r, refs, nQueries, queryLen, ear, measure, bothStrands)
		qkmers, reversed := queryKmers(queries, sopt.K, bothStrands)
		if opt.Verbose {
			log.Infof("searching %s k-mers of %d query maps", humanize.Comma(int64(len(qkmers))), nQueries)
		}

		mdb, err := index.NewMultiThreadSeedDatabase(db, sopt.Threads, measure, ear)
		checkError(err)

		var pbs *mpb.Progress
		var bar *mpb.Bar
		if opt.Verbose {
			pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
			bar = pbs.AddBar(int64(len(qkmers)),
				mpb.PrependDecorators(
					decor.Name("searched k-mers: ", decor.WC{W: len("searched k-mers: "), C: decor.DindentRight}),
					decor.Name("", decor.WCSyncSpaceR),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
					decor.EwmaETA(decor.ET_STYLE_GO, 10),
					decor.OnComplete(decor.Name(""), ". done"),
				),
			)
		}

		searched := make([]*kmer.Kmer, 0, len(qkmers)) // in the order of completion
		matchCounts := make([]float64, 0, len(qkmers))
		var seeds []*index.Seed
		var nMismatched int
		var nRevHits int
		timeStep = time.Now()
		timeLast := timeStep

		err = searchKmers(mdb, qkmers, func(node *index.SeedingResultNode) error {
			if node.Err != nil {
				return node.Err
			}
			searched = append(searched, node.Kmer)
			matchCounts = append(matchCounts, float64(len(node.Matches)))

			if check && !sameMatches(node.Matches, bruteForceSearch(kmers, node.Kmer, ear, measure)) {
				nMismatched++
				log.Warningf("unmatched results with brute-force searching: %s", node.Kmer)
			}

			if reversed[node.Kmer] {
				if len(node.Matches) > 0 {
					nRevHits++
				}
			} else if join { // collinear seeds are only joined on the forward strand
				for _, m := range node.Matches {
					seeds = append(seeds, &index.Seed{Target: m, Query: node.Kmer})
				}
			}

			if opt.Verbose {
				bar.EwmaIncrBy(1, time.Since(timeLast))
				timeLast = time.Now()
			}
			return nil
		})
		checkError(err)
		checkError(mdb.Close())
		if opt.Verbose {
			pbs.Wait()
		}
		elapsed := time.Since(timeStep)

		// ---------------------------------------------------------------
		// summary

		outfh := bufio.NewWriter(os.Stdout)

		mean, std := meanStdev(matchCounts)
		var nHits int
		for _, c := range matchCounts {
			if c > 0 {
				nHits++
			}
		}

		fmt.Fprintf(outfh, "mode\t%s\n", db.Mode())
		fmt.Fprintf(outfh, "database k-mers\t%s\n", humanize.Comma(int64(db.NumKmers())))
		fmt.Fprintf(outfh, "query k-mers\t%s\n", humanize.Comma(int64(len(qkmers))))
		fmt.Fprintf(outfh, "query k-mers with matches\t%s\n", humanize.Comma(int64(nHits)))
		if bothStrands {
			fmt.Fprintf(outfh, "  on the reverse strand\t%s\n", humanize.Comma(int64(nRevHits)))
		}
		fmt.Fprintf(outfh, "matches per k-mer\t%.2f ± %.2f\n", mean, std)
		fmt.Fprintf(outfh, "search time\t%s\n", elapsed)
		if len(qkmers) > 0 {
			fmt.Fprintf(outfh, "speed\t%.0f k-mers/s\n", float64(len(qkmers))/elapsed.Seconds())
		}
		if check {
			fmt.Fprintf(outfh, "mismatched with brute-force\t%d\n", nMismatched)
		}
		if join {
			joined := index.SeedJoin(seeds)
			lens := make([]float64, len(joined))
			spans := make([]float64, len(joined))
			for i, s := range joined {
				lens[i] = float64(s.K())
				spans[i] = float64(s.Target.Span())
			}
			meanLen, stdLen := meanStdev(lens)
			meanSpan, stdSpan := meanStdev(spans)
			fmt.Fprintf(outfh, "seeds\t%s\n", humanize.Comma(int64(len(seeds))))
			fmt.Fprintf(outfh, "joined seeds\t%s\n", humanize.Comma(int64(len(joined))))
			fmt.Fprintf(outfh, "joined seed length\t%.2f ± %.2f\n", meanLen, stdLen)
			fmt.Fprintf(outfh, "joined seed span (bp)\t%.0f ± %.0f\n", meanSpan, stdSpan)
		}

		checkError(outfh.Flush())

		if outStats != "" {
			checkError(writeMatchCounts(outStats, searched, matchCounts, reversed))
			if opt.Verbose {
				log.Infof("numbers of matches saved to %s", outStats)
			}
		}

		if nMismatched > 0 {
			checkError(fmt.Errorf("%d k-mers have unmatched results with brute-force searching", nMismatched))
		}
	},
}

func init() {
	RootCmd.AddCommand(benchCmd)

	addSeedingFlags(benchCmd)

	// -----------------------------  simulation  -----------------------------

	benchCmd.Flags().IntP("refs", "r", 10,
		formatFlagUsage(`Number of simulated reference maps.`))

	benchCmd.Flags().IntP("ref-len", "l", 5000,
		formatFlagUsage(`Number of distances in a reference map.`))

	benchCmd.Flags().IntP("queries", "q", 200,
		formatFlagUsage(`Number of simulated query maps.`))

	benchCmd.Flags().IntP("query-len", "L", 30,
		formatFlagUsage(`Number of distances in a query map.`))

	benchCmd.Flags().IntP("seed", "s", 1,
		formatFlagUsage(`Seed for the random number generator.`))

	// -----------------------------  filter  -----------------------------

	benchCmd.Flags().IntP("filter-max-seeds", "", 0,
		formatFlagUsage(`Filtering out reference k-mers with more than this number of similar k-mers nearby (0 for no filtering).`))

	benchCmd.Flags().IntP("filter-window", "", 10,
		formatFlagUsage(`Maximum distance (number of signals) of nearby k-mers considered in filtering.`))

	// -----------------------------  others  -----------------------------

	benchCmd.Flags().BoolP("check", "", false,
		formatFlagUsage(`Check search results with brute-force searching.`))

	benchCmd.Flags().BoolP("both-strands", "b", false,
		formatFlagUsage(`Simulate query maps from both strands, and also search k-mers of query maps reversed.`))

	benchCmd.Flags().BoolP("join", "", false,
		formatFlagUsage(`Join collinear seeds.`))

	benchCmd.Flags().StringP("out-file", "o", "",
		formatFlagUsage(`Save the seed database to a file, gzip-compressed if it ends with ".gz".`))

	benchCmd.Flags().StringP("out-stats", "", "",
		formatFlagUsage(`Save the number of matches of each query k-mer to a tab-delimited file, `+
			`compressed according to the file extension.`))

	benchCmd.SetUsageTemplate(usageTemplate("[-k <k>] [-e <ear>] [-m <meas>] [-c <config.toml>]"))
}
