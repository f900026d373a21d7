package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pasfront/internal/config"
	"pasfront/internal/diag"
	"pasfront/internal/diagfmt"
	"pasfront/internal/driver"
	"pasfront/internal/observ"
	"pasfront/internal/source"
	"pasfront/internal/trace"
)

// addTargetFlags registers the flags that override the project target.
func addTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("compiler", "", "toolchain, e.g. DCC32, DCC64, DCCOSX64")
	cmd.Flags().String("compiler-version", "", "compiler version, e.g. VER350 or 35.0")
}

// addProjectFlags registers target, preprocessor and search flags.
func addProjectFlags(cmd *cobra.Command) {
	addTargetFlags(cmd)
	cmd.Flags().StringSliceP("define", "D", nil, "additional conditional symbols")
	cmd.Flags().StringSliceP("include", "I", nil, "additional include directories")
	cmd.Flags().StringSliceP("search", "U", nil, "additional unit search directories")
	cmd.Flags().String("stdlib", "", "standard library root directory")
	cmd.Flags().Bool("cache", false, "reuse preprocessed token streams between runs")
}

// loadConfig reads --config or discovers the project file, then applies
// the command line overrides that exist on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg *config.Config
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.Discover(".")
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if v, _ := flags.GetString("compiler"); v != "" {
		cfg.Toolchain.Compiler = v
	}
	if v, _ := flags.GetString("compiler-version"); v != "" {
		cfg.Toolchain.Version = v
	}
	if v, _ := flags.GetStringSlice("define"); len(v) > 0 {
		cfg.Preprocessor.Defines = append(cfg.Preprocessor.Defines, v...)
	}
	if v, _ := flags.GetStringSlice("include"); len(v) > 0 {
		cfg.Paths.Include = append(cfg.Paths.Include, v...)
	}
	if v, _ := flags.GetStringSlice("search"); len(v) > 0 {
		cfg.Paths.Search = append(cfg.Paths.Search, v...)
	}
	if v, _ := flags.GetString("stdlib"); v != "" {
		cfg.Paths.StandardLibrary = v
	}
	if jobs, _ := cmd.Root().PersistentFlags().GetInt("jobs"); jobs > 0 {
		cfg.Analysis.Jobs = jobs
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// analyzeOptions builds driver options for cmd from the project file and
// the global flags.
func analyzeOptions(cmd *cobra.Command) (driver.AnalyzeOptions, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return driver.AnalyzeOptions{}, err
	}
	opts, err := driver.OptionsFromConfig(cfg)
	if err != nil {
		return driver.AnalyzeOptions{}, err
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return driver.AnalyzeOptions{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	opts.MaxDiagnostics = maxDiagnostics
	opts.Tracer = trace.FromContext(cmd.Context())

	if useCache, _ := cmd.Flags().GetBool("cache"); useCache {
		var cache *driver.DiskCache
		if cfg.Paths.Cache != "" {
			cache, err = driver.OpenDiskCacheAt(cfg.Paths.Cache)
		} else {
			cache, err = driver.OpenDiskCache("pasfront")
		}
		if err != nil {
			return driver.AnalyzeOptions{}, fmt.Errorf("token cache: %w", err)
		}
		opts.Cache = cache
	}
	return opts, nil
}

type outputSettings struct {
	color      bool
	quiet      bool
	timings    bool
	diagFormat string
	pathMode   diagfmt.PathMode
}

func readOutputSettings(cmd *cobra.Command) (outputSettings, error) {
	flags := cmd.Root().PersistentFlags()
	colorFlag, err := flags.GetString("color")
	if err != nil {
		return outputSettings{}, fmt.Errorf("failed to get color flag: %w", err)
	}
	var s outputSettings
	switch colorFlag {
	case "on":
		s.color = true
	case "off":
	case "auto":
		s.color = isTerminal(os.Stderr)
	default:
		return outputSettings{}, fmt.Errorf("invalid --color value %q (expected auto|on|off)", colorFlag)
	}
	s.quiet, _ = flags.GetBool("quiet")
	s.timings, _ = flags.GetBool("timings")

	s.diagFormat, _ = flags.GetString("diagnostics-format")
	if s.diagFormat != "pretty" && s.diagFormat != "json" {
		return outputSettings{}, fmt.Errorf("invalid --diagnostics-format value %q (expected pretty|json)", s.diagFormat)
	}
	mode, _ := flags.GetString("path-mode")
	pm, ok := diagfmt.ParsePathMode(mode)
	if !ok {
		return outputSettings{}, fmt.Errorf("invalid --path-mode value %q", mode)
	}
	s.pathMode = pm
	return s, nil
}

// reportDiagnostics prints bag on stderr. Timings are printed as a table
// in pretty mode and carried as a diagnostic in JSON mode. It returns
// errReported when the bag holds errors.
func reportDiagnostics(cmd *cobra.Command, s outputSettings, bag *diag.Bag, fs *source.FileSet, kind, path string, timings *observ.Report) error {
	out := cmd.ErrOrStderr()
	if s.quiet {
		quiet := diag.NewBag(bag.Len() + 1)
		for _, d := range bag.Items() {
			if d.Severity == diag.SevError {
				quiet.Add(d)
			}
		}
		bag = quiet
	}
	bag.Sort()
	bag.Dedup()

	var err error
	switch s.diagFormat {
	case "json":
		if s.timings && timings != nil {
			driver.AppendTimings(bag, kind, path, *timings)
		}
		err = diagfmt.JSON(out, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         s.pathMode,
			IncludeNotes:     true,
		})
	default:
		err = diagfmt.Pretty(out, bag, fs, diagfmt.PrettyOpts{
			Color:     s.color,
			Context:   2,
			PathMode:  s.pathMode,
			ShowNotes: true,
		})
		if err == nil && s.timings && timings != nil {
			printTimings(out, kind, *timings)
		}
	}
	if err != nil {
		return err
	}
	if bag.HasErrors() {
		return errReported
	}
	return nil
}
