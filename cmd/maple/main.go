/*
maple places and refines sequences on a phylogenetic tree using a
maximum-likelihood region-list algorithm, reading a diff-format alignment
against a reference sequence.

usage: maple [flags]... <maple_file>

positional arguments:

	<maple_file>	MAPLE-format diff alignment (reference + per-sample mutations)

flags:

	-o string
	  	output prefix (default derived from <maple_file>)
	-model string
	  	substitution model [JC|GTR|UNREST] (default "GTR")
	-max_sweeps int
	  	maximum number of SPR refinement sweeps (default 20)
	-min_blength float
	  	minimum branch length (default 1e-9)
	-max_blength float
	  	maximum branch length (default 1.0)
	-pseudocount_interval int
	  	samples placed between mutation matrix re-estimations (default 100)

examples:

	maple -o run1 alignment.maple
*/
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"maple/internal/config"
	"maple/internal/engine"
	"maple/internal/mapleio"
)

const (
	Version      = "v0.1.0"
	ErrorMessage = "maple encountered an error ::"
	TimeFormat   = "2006-01-02_15-04-05"
)

// Args collects the parsed command line, the way camus.Args does.
type Args struct {
	prefix   string
	mapleFile string
	cfg      config.Config
}

func Usage() {
	fmt.Fprint(flag.CommandLine.Output(), // nolint
		"usage: maple [flags]... <maple_file>\n",
		"\n",
		"positional arguments:\n\n",
		"  <maple_file>\t\tMAPLE-format diff alignment\n",
		"\n",
		"flags:\n\n",
	)
	flag.PrintDefaults()
	fmt.Fprint(flag.CommandLine.Output(), // nolint
		"\n",
		"examples:\n\n",
		"\tmaple -o run1 alignment.maple\n\n",
	)
}

func parseArgs() Args {
	flag.Usage = Usage
	prefix := flag.String("o", "", "output prefix")
	model := flag.String("model", "GTR", "substitution `model` [JC|GTR|UNREST]")
	maxSweeps := flag.Int("max_sweeps", 20, "maximum number of SPR refinement sweeps")
	minBlength := flag.Float64("min_blength", 1e-9, "minimum branch length")
	maxBlength := flag.Float64("max_blength", 1.0, "maximum branch length")
	pseudoInterval := flag.Int("pseudocount_interval", 100, "samples placed between mutation matrix re-estimations")
	help := flag.Bool("h", false, "prints help and exits")
	ver := flag.Bool("v", false, "prints version number and exits")
	flag.Parse()
	if *help {
		Usage()
		os.Exit(0)
	}
	if *ver {
		fmt.Printf("maple %s\n", Version)
		os.Exit(0)
	}
	if flag.NArg() != 1 {
		parserError("exactly one positional argument required: <maple_file>")
	}
	cfg := config.Default()
	cfg.ModelName = *model
	cfg.MaxSPRSweeps = *maxSweeps
	cfg.MinBlength = *minBlength
	cfg.MaxBlength = *maxBlength
	cfg.PseudocountUpdateInterval = *pseudoInterval
	return Args{
		prefix:    *prefix,
		mapleFile: flag.Arg(0),
		cfg:       cfg,
	}
}

// parserError prints message and usage, then exits (status code 1), matching
// camus's parserError.
func parserError(message string) {
	fmt.Fprintln(os.Stderr, message+"\n")
	Usage()
	os.Exit(1)
}

func defaultPrefix(mapleFile string) string {
	parts := strings.Split(mapleFile, string(os.PathSeparator))
	name := parts[len(parts)-1]
	if dot := strings.LastIndex(name, "."); dot > 0 {
		name = name[:dot]
	}
	return fmt.Sprintf("maple_%s_%s", name, time.Now().Local().Format(TimeFormat))
}

func main() {
	var exit int
	defer func() {
		os.Exit(exit)
	}()
	buf := &bytes.Buffer{} // capture pre logfile setup logging
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(io.MultiWriter(os.Stderr, buf))
	args := parseArgs()
	if args.prefix == "" {
		args.prefix = defaultPrefix(args.mapleFile)
		log.Printf("output prefix was not set, using %q", args.prefix)
	}
	if logf, err := os.Create(fmt.Sprintf("%s.log", args.prefix)); err == nil {
		logf.Write(buf.Bytes()) // nolint
		log.SetOutput(io.MultiWriter(os.Stderr, logf))
		defer func() {
			log.SetOutput(os.Stderr)
			_ = logf.Close()
		}()
	} else {
		log.Printf("failed to create log file %s.log, %s", args.prefix, err) // should continue to log to stderr
	}
	log.Printf("maple %s", Version)
	log.Printf("invoked as: maple %s", strings.Join(os.Args[1:], " "))
	if err := run(args); err != nil {
		log.Printf("%s %s", ErrorMessage, err)
		exit = 1
	}
}

func run(args Args) error {
	f, err := os.Open(args.mapleFile)
	if err != nil {
		return err
	}
	defer f.Close() // nolint

	ref, mapleSamples, err := mapleio.ReadMaple(f)
	if err != nil {
		return err
	}
	cfg := args.cfg.WithGenomeLength(ref.Len())
	if err := cfg.Validate(); err != nil {
		return err
	}

	samples := make([]engine.Sample, len(mapleSamples))
	for i, s := range mapleSamples {
		samples[i] = engine.Sample{Name: s.Name, Mutations: s.Mutations}
	}

	tree, result, runErr := engine.Run(ref, samples, cfg)
	log.Printf("placed %d samples, %d model re-estimations, %d SPR sweeps (total improvement %.4f)",
		result.PlacedCount, result.ModelReestimations, result.SPRSweeps, result.TotalSPRImprovement)

	// Write whatever tree exists, even on error, so partial progress is
	// never silently discarded (spec.md section 7's recover-and-report
	// policy for invariant violations).
	if tree != nil {
		if werr := mapleio.WriteNewickFile(fmt.Sprintf("%s.nwk", args.prefix), tree); werr != nil {
			log.Printf("failed to write %s.nwk, %s", args.prefix, werr)
		}
	}
	if runErr != nil {
		return runErr
	}

	stats := make([]mapleio.SweepStat, len(result.SweepImprovements))
	for i, improvement := range result.SweepImprovements {
		stats[i] = mapleio.SweepStat{Sweep: i + 1, Improvement: improvement}
	}
	csvFile, err := os.Create(fmt.Sprintf("%s.csv", args.prefix))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := csvFile.Close(); cerr != nil {
			log.Printf("error closing %s.csv, %s", args.prefix, cerr)
		}
	}()
	if err := mapleio.WriteSPRDiagnosticsCSV(csvFile, stats); err != nil {
		return err
	}
	if err := mapleio.WriteConvergencePlot(stats, args.prefix); err != nil {
		return err
	}
	return nil
}
