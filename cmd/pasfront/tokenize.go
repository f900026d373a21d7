package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pasfront/internal/diagfmt"
	"pasfront/internal/driver"
	"pasfront/internal/observ"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.pas",
	Short: "Tokenize a Delphi source file",
	Long: `Tokenize lexes one file without running its compiler directives.
Comments and directives are listed as hidden tokens`,
	Args: cobra.ExactArgs(1),
	RunE: runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	tokenizeCmd.Flags().Bool("hidden", true, "include comments and directives")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	hidden, err := cmd.Flags().GetBool("hidden")
	if err != nil {
		return fmt.Errorf("failed to get hidden flag: %w", err)
	}
	maxDiagnostics, err := cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	settings, err := readOutputSettings(cmd)
	if err != nil {
		return err
	}

	started := time.Now()
	result, err := driver.Tokenize(filePath, maxDiagnostics)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}
	timings := observ.Single("lex", time.Since(started), fmt.Sprintf("%d tokens", len(result.Tokens)))

	opts := diagfmt.TokenOpts{ShowHidden: hidden, PathMode: settings.pathMode}
	switch format {
	case "pretty":
		err = diagfmt.FormatTokensPretty(cmd.OutOrStdout(), result.Tokens, result.FileSet, opts)
	case "json":
		err = diagfmt.FormatTokensJSON(cmd.OutOrStdout(), result.Tokens, result.FileSet, opts)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	if err != nil {
		return err
	}
	return reportDiagnostics(cmd, settings, result.Bag, result.FileSet, "tokenize", filePath, &timings)
}
