package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pasfront/internal/diagfmt"
	"pasfront/internal/driver"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [flags] source...",
	Short: "Build and dump the symbol table of a set of units",
	Long: `Symbols parses the given units, everything they use and the standard
library, declares every name and resolves references. The table of the
given units is printed; unresolved references are listed per unit`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSymbols,
}

func init() {
	addProjectFlags(symbolsCmd)
	symbolsCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	symbolsCmd.Flags().Bool("members", true, "list type members and routine parameters")
	symbolsCmd.Flags().Bool("stdlib-units", false, "list standard library units too")
	symbolsCmd.Flags().String("ui", "auto", "progress UI (auto|on|off)")
}

func runSymbols(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unknown format: %s", format)
	}
	members, _ := cmd.Flags().GetBool("members")
	stdlibUnits, _ := cmd.Flags().GetBool("stdlib-units")
	uiFlag, _ := cmd.Flags().GetString("ui")
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	settings, err := readOutputSettings(cmd)
	if err != nil {
		return err
	}
	opts, err := analyzeOptions(cmd)
	if err != nil {
		return err
	}

	var res *driver.AnalyzeResult
	var buildErr error
	if shouldUseTUI(mode) && !settings.quiet {
		res, buildErr = runAnalyzeWithUI(cmd.Context(), "analyzing "+strings.Join(args, ", "), args, opts)
	} else {
		res, buildErr = driver.Analyze(cmd.Context(), args, opts)
	}
	if res == nil {
		return buildErr
	}

	if res.Table != nil {
		out := diagfmt.SymbolsOpts{
			IncludeStdlib: stdlibUnits,
			Members:       members,
			PathMode:      settings.pathMode,
		}
		if format == "json" {
			err = diagfmt.FormatSymbolsJSON(cmd.OutOrStdout(), res.Table, out)
		} else {
			err = diagfmt.FormatSymbolsPretty(cmd.OutOrStdout(), res.Table, out)
		}
		if err != nil {
			return err
		}
	}

	reportErr := reportDiagnostics(cmd, settings, res.Bag, res.FileSet, "symbols", strings.Join(args, " "), &res.Timings)
	if buildErr != nil {
		if errors.Is(reportErr, errReported) || reportErr == nil {
			return buildErr
		}
		return errors.Join(buildErr, reportErr)
	}
	return reportErr
}
