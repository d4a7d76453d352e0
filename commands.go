package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/flare.report/internal/batch"
	"github.com/banshee-data/flare.report/internal/config"
	"github.com/banshee-data/flare.report/internal/flare"
	"github.com/banshee-data/flare.report/internal/frame"
	"github.com/banshee-data/flare.report/internal/fsutil"
	"github.com/banshee-data/flare.report/internal/history"
	"github.com/banshee-data/flare.report/internal/monitoring"
	"github.com/banshee-data/flare.report/internal/render"
	"github.com/banshee-data/flare.report/internal/report"
	"github.com/banshee-data/flare.report/internal/synth"
)

func fatalf(format string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", v...)
	os.Exit(1)
}

// paramFlags registers per-parameter override flags on a FlagSet and
// later reports only the ones the user actually set.
type paramFlags struct {
	offset      *float64
	signal      *float64
	direct      *float64
	light       *float64
	pitch       *float64
	beta        *float64
	lightAmount *float64
	bitDepth    *int
}

func registerParamFlags(fs *flag.FlagSet) *paramFlags {
	return &paramFlags{
		offset:      fs.Float64("offset", config.DefaultOffset, "Sensor black level in ADU"),
		signal:      fs.Float64("signal-threshold", config.DefaultSignalThreshold, "Flare band floor above the offset, in ADU"),
		direct:      fs.Float64("direct-threshold", config.DefaultDirectThreshold, "Direct illumination band floor in ADU"),
		light:       fs.Float64("light-threshold", config.DefaultLightThreshold, "Light source band floor in ADU"),
		pitch:       fs.Float64("pixel-pitch", config.DefaultPixelPitch, "Pixel pitch in µm"),
		beta:        fs.Float64("beta", config.DefaultBetaCoverage, "Coverage exponent for F_final"),
		lightAmount: fs.Float64("light-amount", config.DefaultLightAmount, "Legacy flare value scale factor"),
		bitDepth:    fs.Int("bit-depth", config.DefaultBitDepth, "Sensor bit depth (8-16)"),
	}
}

// overlay returns an EvalConfig holding only the flags set on the
// command line, so unset flags never shadow preset or file values.
func (p *paramFlags) overlay(fs *flag.FlagSet) *config.EvalConfig {
	cfg := config.Empty()
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "offset":
			cfg.Offset = p.offset
		case "signal-threshold":
			cfg.SignalThreshold = p.signal
		case "direct-threshold":
			cfg.DirectThreshold = p.direct
		case "light-threshold":
			cfg.LightThreshold = p.light
		case "pixel-pitch":
			cfg.PixelPitch = p.pitch
		case "beta":
			cfg.BetaCoverage = p.beta
		case "light-amount":
			cfg.LightAmount = p.lightAmount
		case "bit-depth":
			cfg.BitDepth = p.bitDepth
		}
	})
	return cfg
}

// resolveConfig stacks preset, config file and CLI flag overrides,
// later layers winning, and validates the result.
func resolveConfig(preset, configPath string, overlay *config.EvalConfig) (*config.EvalConfig, error) {
	cfg := config.Empty()

	if preset != "" {
		if err := config.ApplyPreset(cfg, preset); err != nil {
			return nil, err
		}
	}
	if configPath != "" {
		fileCfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		cfg.Merge(fileCfg)
	}
	cfg.Merge(overlay)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openHistory(path string) *history.RunStore {
	if err := fsutil.EnsureParent(path); err != nil {
		fatalf("History database: %v", err)
	}
	db, err := history.Open(path)
	if err != nil {
		fatalf("History database: %v", err)
	}
	if err := db.MigrateUp(); err != nil {
		fatalf("History database migration: %v", err)
	}
	return history.NewRunStore(db)
}

func handleEvaluate(args []string) {
	fs := flag.NewFlagSet("evaluate", flag.ExitOnError)
	input := fs.String("input", "", "Input frame (.csv, .pgm or .png) (required)")
	rgb := fs.Bool("rgb", false, "Treat CSV input as interleaved R,G,B columns and convert to luminance")
	configPath := fs.String("config", "", "JSON parameter file")
	preset := fs.String("preset", "", "Built-in parameter preset (see 'presets')")
	advanced := fs.Bool("advanced", false, "Compute postprocessed metrics")
	jsonOut := fs.String("json", "", "Write JSON report to path")
	csvOut := fs.String("csv", "", "Write metric CSV to path")
	textOut := fs.String("text", "", "Write text summary to path ('-' for stdout)")
	overlayOut := fs.String("overlay", "", "Write band overlay to path (.png or .ppm)")
	maskOut := fs.String("mask", "", "Write flare mask PGM to path")
	heatmapOut := fs.String("heatmap", "", "Write intensity heatmap PNG to path")
	colormap := fs.String("colormap", "viridis", "Heatmap colormap (viridis, jet, hot, gray)")
	histOut := fs.String("histogram", "", "Write intensity histogram PNG to path")
	profileOut := fs.String("row-profile", "", "Write row intensity profile PNG to path")
	profileRow := fs.Int("row", -1, "Row index for -row-profile (default: middle row)")
	dbPath := fs.String("db", "", "Record the run in this history database")
	quiet := fs.Bool("quiet", false, "Suppress diagnostic logging")
	params := registerParamFlags(fs)
	fs.Parse(args)

	if *quiet {
		monitoring.SetLogger(nil)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := resolveConfig(*preset, *configPath, params.overlay(fs))
	if err != nil {
		fatalf("Configuration: %v", err)
	}
	evalParams := cfg.Params()

	var f *frame.Frame
	if *rgb {
		if strings.ToLower(filepath.Ext(*input)) != ".csv" {
			fatalf("Load %s: -rgb applies to CSV input only", *input)
		}
		f, err = frame.LoadCSVRGB(*input)
	} else {
		f, err = frame.Load(*input, cfg.GetBitDepth())
	}
	if err != nil {
		fatalf("Load %s: %v", *input, err)
	}
	if err := f.Validate(cfg.GetBitDepth()); err != nil {
		fatalf("Frame %s: %v", *input, err)
	}
	monitoring.Logf("evaluate: %s (%dx%d)", *input, f.Width, f.Height)

	start := time.Now()
	res, err := flare.Evaluate(f, evalParams)
	if err != nil {
		fatalf("Evaluate: %v", err)
	}

	doc := &report.Document{Source: *input, Result: res}
	if *advanced {
		doc.Advanced = flare.ComputeAdvanced(res, evalParams)
	}
	monitoring.Logf("evaluate: F_norm=%.6g F_final=%.6g in %v", res.FNorm, res.FFinal, time.Since(start))

	// Without an explicit output the summary goes to stdout.
	if *jsonOut == "" && *csvOut == "" && *textOut == "" && *overlayOut == "" &&
		*maskOut == "" && *heatmapOut == "" && *histOut == "" && *profileOut == "" {
		*textOut = "-"
	}

	writeOutput := func(path, what string, write func(string) error) {
		if path == "" {
			return
		}
		if err := fsutil.EnsureParent(path); err != nil {
			fatalf("Write %s: %v", what, err)
		}
		if err := write(path); err != nil {
			fatalf("Write %s: %v", what, err)
		}
	}

	if *textOut == "-" {
		if err := report.WriteText(doc, os.Stdout); err != nil {
			fatalf("Write summary: %v", err)
		}
	} else {
		writeOutput(*textOut, "summary", func(p string) error { return report.WriteTextFile(doc, p) })
	}
	writeOutput(*jsonOut, "JSON report", func(p string) error { return report.WriteJSON(doc, p) })
	writeOutput(*csvOut, "CSV report", func(p string) error { return report.WriteCSV(res, p) })
	writeOutput(*overlayOut, "band overlay", func(p string) error {
		if strings.ToLower(filepath.Ext(p)) == ".ppm" {
			return render.SaveBandOverlayPPM(res, p)
		}
		return render.SaveBandOverlayPNG(res, p)
	})
	writeOutput(*maskOut, "flare mask", func(p string) error { return render.SaveFlareMaskPGM(res, p) })
	writeOutput(*heatmapOut, "heatmap", func(p string) error { return render.SaveHeatmapPNG(f, p, *colormap) })
	writeOutput(*histOut, "histogram", func(p string) error { return report.SaveHistogramPNG(f, evalParams, p) })
	writeOutput(*profileOut, "row profile", func(p string) error {
		row := *profileRow
		if row < 0 {
			row = f.Height / 2
		}
		return report.SaveRowProfilePNG(f, row, evalParams, p)
	})

	if *dbPath != "" {
		store := openHistory(*dbPath)
		run, err := history.NewRun(filepath.Base(*input), res, doc.Advanced, evalParams)
		if err == nil {
			err = store.Insert(run)
		}
		if err != nil {
			fatalf("Record run: %v", err)
		}
		monitoring.Logf("evaluate: recorded run %s", run.RunID)
	}
}

func handleGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	out := fs.String("out", "", "Output frame path (.csv, .pgm or .png) (required)")
	width := fs.Int("width", 512, "Frame width in pixels")
	height := fs.Int("height", 512, "Frame height in pixels")
	bitDepth := fs.Int("bit-depth", 10, "Sensor bit depth (8-16)")
	severity := fs.String("severity", "", "Flare severity preset: minimal, standard, or severe")
	lights := fs.Int("lights", 3, "Number of light sources")
	lightRadius := fs.Int("light-radius", 3, "Light source disc radius in pixels")
	noise := fs.Float64("noise", 2, "Gaussian read noise standard deviation")
	hotPixels := fs.Int("hot-pixels", 0, "Number of random hot pixels")
	noCross := fs.Bool("no-cross", false, "Disable diffraction spike patterns")
	seed := fs.Int64("seed", 0, "Random seed (0 uses the current time)")
	fs.Parse(args)

	if *out == "" {
		fmt.Fprintln(os.Stderr, "Error: -out is required")
		fs.Usage()
		os.Exit(1)
	}

	opts := synth.DefaultOptions()
	opts.Width = *width
	opts.Height = *height
	opts.BitDepth = *bitDepth
	opts.LightCount = *lights
	opts.LightRadius = *lightRadius
	opts.NoiseStd = *noise
	opts.HotPixels = *hotPixels
	opts.CrossPattern = !*noCross
	opts.Seed = *seed
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}
	if *severity != "" {
		if err := opts.ApplySeverity(*severity); err != nil {
			fatalf("Generate: %v", err)
		}
		if *hotPixels != 0 {
			opts.HotPixels = *hotPixels
		}
	}

	f, err := synth.Generate(opts)
	if err != nil {
		fatalf("Generate: %v", err)
	}

	if err := fsutil.EnsureParent(*out); err != nil {
		fatalf("Write frame: %v", err)
	}
	maxValue := float64(int(1)<<*bitDepth - 1)
	switch strings.ToLower(filepath.Ext(*out)) {
	case ".csv":
		err = frame.SaveCSV(f, *out, 1)
	case ".pgm":
		err = frame.SavePGM(f, *out)
	case ".png":
		err = frame.SavePNG(f, *out, maxValue)
	default:
		fatalf("Generate: unsupported output format %q (want .csv, .pgm or .png)", filepath.Ext(*out))
	}
	if err != nil {
		fatalf("Write frame: %v", err)
	}
	monitoring.Logf("generate: wrote %dx%d frame (seed %d) to %s", *width, *height, opts.Seed, *out)
}

func handleBatch(args []string) {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	input := fs.String("input", "", "Directory of frame files (required)")
	configPath := fs.String("config", "", "JSON parameter file")
	preset := fs.String("preset", "", "Built-in parameter preset (see 'presets')")
	outCSV := fs.String("out-csv", "", "Write per-file summary CSV to path")
	htmlOut := fs.String("html", "", "Write interactive HTML report to path")
	advanced := fs.Bool("advanced", false, "Compute postprocessed metrics per frame")
	workers := fs.Int("workers", 0, "Concurrent evaluations (0 = NumCPU)")
	dbPath := fs.String("db", "", "Record every run in this history database")
	quiet := fs.Bool("quiet", false, "Suppress diagnostic logging")
	params := registerParamFlags(fs)
	fs.Parse(args)

	if *quiet {
		monitoring.SetLogger(nil)
	}
	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -input is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := resolveConfig(*preset, *configPath, params.overlay(fs))
	if err != nil {
		fatalf("Configuration: %v", err)
	}

	opts := batch.Options{
		Params:   cfg.Params(),
		BitDepth: cfg.GetBitDepth(),
		Workers:  *workers,
		Advanced: *advanced,
	}
	if *dbPath != "" {
		opts.Store = openHistory(*dbPath)
	}

	sum, err := batch.Run(*input, opts)
	if err != nil {
		fatalf("Batch: %v", err)
	}

	if *outCSV != "" {
		if err := fsutil.EnsureParent(*outCSV); err != nil {
			fatalf("Write summary CSV: %v", err)
		}
		out, err := os.Create(*outCSV)
		if err != nil {
			fatalf("Write summary CSV: %v", err)
		}
		if err := batch.WriteSummaryCSV(out, sum); err != nil {
			out.Close()
			fatalf("Write summary CSV: %v", err)
		}
		if err := out.Close(); err != nil {
			fatalf("Write summary CSV: %v", err)
		}
	}

	if *htmlOut != "" {
		entries := sum.Entries()
		if len(entries) == 0 {
			fatalf("HTML report: no successful evaluations")
		}
		if err := fsutil.EnsureParent(*htmlOut); err != nil {
			fatalf("Write HTML report: %v", err)
		}
		if err := report.WriteBatchHTML(entries, *htmlOut); err != nil {
			fatalf("Write HTML report: %v", err)
		}
	}

	if err := batch.WriteAggregateText(os.Stdout, batch.Summarize(sum)); err != nil {
		fatalf("Batch summary: %v", err)
	}
	if failed := sum.Failed(); len(failed) > 0 {
		os.Exit(1)
	}
}

func handleHistory(args []string) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	dbPath := fs.String("db", "", "History database path (required)")
	limit := fs.Int("limit", 20, "Maximum runs to list")
	source := fs.String("source", "", "List runs for this source file only")
	runID := fs.String("run", "", "Show a single run as JSON")
	fs.Parse(args)

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -db is required")
		fs.Usage()
		os.Exit(1)
	}
	if !fsutil.Exists(*dbPath) {
		fatalf("History database %s does not exist", *dbPath)
	}
	store := openHistory(*dbPath)

	if *runID != "" {
		run, err := store.Get(*runID)
		if err != nil {
			fatalf("History: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(run); err != nil {
			fatalf("History: %v", err)
		}
		return
	}

	var runs []*history.Run
	var err error
	if *source != "" {
		runs, err = store.ListBySource(*source)
	} else {
		runs, err = store.ListRecent(*limit)
	}
	if err != nil {
		fatalf("History: %v", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return
	}

	fmt.Printf("%-36s  %-24s  %10s  %10s  %5s  %s\n",
		"RUN", "SOURCE", "F_NORM", "F_FINAL", "GRADE", "WHEN")
	for _, r := range runs {
		fmt.Printf("%-36s  %-24s  %10.4g  %10.4g  %5s  %s\n",
			r.RunID, r.SourceFile, r.FNorm, r.FFinal, r.QualityGrade,
			time.Unix(0, r.CreatedAt).Format(time.RFC3339))
	}
}

func handlePresets(args []string) {
	fs := flag.NewFlagSet("presets", flag.ExitOnError)
	fs.Parse(args)

	for _, key := range config.PresetKeys() {
		p, err := config.GetPreset(key)
		if err != nil {
			fatalf("Presets: %v", err)
		}
		c := p.Config
		fmt.Printf("%s - %s\n", key, p.Description)
		fmt.Printf("    offset %g, signal %g, direct %g, light %g, pitch %gµm, %d-bit\n",
			c.GetOffset(), c.GetSignalThreshold(), c.GetDirectThreshold(),
			c.GetLightThreshold(), c.GetPixelPitch(), c.GetBitDepth())
	}
}
