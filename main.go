// flare-report evaluates lens flare in 2D sensor intensity frames.
//
// Pixels are banded by intensity thresholds into background, flare,
// direct illumination and light source, and the flare band is reduced
// to the F_raw / F_norm / F_final metrics. All input and output is
// file based.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/flare.report/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "evaluate":
		handleEvaluate(args)
	case "generate":
		handleGenerate(args)
	case "batch":
		handleBatch(args)
	case "history":
		handleHistory(args)
	case "presets":
		handlePresets(args)
	case "version":
		fmt.Printf("flare-report version %s (%s, built %s)\n",
			version.Version, version.GitSHA, version.BuildTime)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`flare-report - lens flare evaluation for 2D sensor frames

Usage: flare-report <command> [options]

Commands:
  evaluate   Evaluate a single frame and write reports
  generate   Generate a synthetic test frame
  batch      Evaluate every frame in a directory
  history    Inspect recorded evaluation runs
  presets    List built-in parameter presets
  version    Print version information
  help       Show this help

Examples:
  flare-report evaluate -input capture.csv -json report.json
  flare-report evaluate -input capture.png -preset high_sensitivity -advanced -text -
  flare-report generate -out synthetic.csv -severity severe -seed 42
  flare-report batch -input ./frames -out-csv summary.csv -html report.html
  flare-report history -db runs.db -limit 10

Run 'flare-report <command> -h' for command options.`)
}
