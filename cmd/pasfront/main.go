package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"pasfront/internal/version"
)

// errReported is returned when a command already printed its errors as
// diagnostics; main only sets the exit status.
var errReported = errors.New("errors reported")

var rootCmd = &cobra.Command{
	Use:   "pasfront",
	Short: "Delphi source front end",
	Long: `pasfront lexes, preprocesses and analyses Delphi / Object Pascal sources
and dumps tokens, directive results, symbol tables and intrinsic types`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := startProfiling(cmd); err != nil {
			return err
		}
		cleanup, err := setupTracing(cmd)
		if err != nil {
			return err
		}
		traceCleanup = cleanup
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if traceCleanup != nil {
			traceCleanup(false)
			traceCleanup = nil
		}
		stopProfiling(cmd)
	},
}

var traceCleanup func(failed bool)

func init() {
	rootCmd.Version = version.Current().Version

	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(preprocessCmd)
	rootCmd.AddCommand(symbolsCmd)
	rootCmd.AddCommand(typesCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "only print errors")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to keep")
	flags.String("diagnostics-format", "pretty", "diagnostics format on stderr (pretty|json)")
	flags.String("path-mode", "auto", "how paths are printed (auto|absolute|relative|basename)")
	flags.String("config", "", "project file (default: pasfront.toml or pasfront.yaml above the working directory)")
	flags.Int("jobs", 0, "parallel workers (0 = GOMAXPROCS)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.Int("trace-ring-size", 4096, "events kept in ring mode")
	flags.String("cpuprofile", "", "write a CPU profile to file")
	flags.String("memprofile", "", "write a heap profile to file on exit")
	flags.String("runtime-trace", "", "write a Go runtime execution trace to file")
}

// main runs the root command. Any error exits with status 1.
func main() {
	if err := rootCmd.Execute(); err != nil {
		if traceCleanup != nil {
			traceCleanup(true)
		}
		stopProfiling(rootCmd)
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "pasfront: %v\n", err)
		}
		os.Exit(1)
	}
}

// isTerminal reports whether f is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
