package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pasfront/internal/diag"
	"pasfront/internal/diagfmt"
	"pasfront/internal/driver"
	"pasfront/internal/observ"
	"pasfront/internal/source"
)

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [flags] path",
	Short: "Run the compiler directives of a file or directory",
	Long: `Preprocess evaluates conditional compilation, includes and switches and
prints the final token stream. A directory is walked for .pas, .dpr and .dpk files`,
	Args: cobra.ExactArgs(1),
	RunE: runPreprocess,
}

func init() {
	addProjectFlags(preprocessCmd)
	preprocessCmd.Flags().String("format", "text", "output format (text|pretty|json)")
	preprocessCmd.Flags().Bool("hidden", false, "include comments and directives")
}

type preprocessPayload struct {
	Path     string                `json:"path"`
	Cached   bool                  `json:"cached,omitempty"`
	Defines  []string              `json:"defines,omitempty"`
	Includes []includePayload      `json:"includes,omitempty"`
	Tokens   []diagfmt.TokenOutput `json:"tokens"`
}

type includePayload struct {
	Path  string `json:"path"`
	Hash  string `json:"hash"`
	Depth int    `json:"depth"`
}

func runPreprocess(cmd *cobra.Command, args []string) error {
	path := args[0]
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	switch format {
	case "text", "pretty", "json":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
	hidden, err := cmd.Flags().GetBool("hidden")
	if err != nil {
		return fmt.Errorf("failed to get hidden flag: %w", err)
	}
	settings, err := readOutputSettings(cmd)
	if err != nil {
		return err
	}
	opts, err := analyzeOptions(cmd)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	started := time.Now()
	var (
		fs      *source.FileSet
		results []*driver.PreprocessResult
	)
	if info.IsDir() {
		fs, results, err = driver.PreprocessDir(cmd.Context(), path, opts.Options)
		if err != nil {
			return err
		}
	} else {
		res, err := driver.Preprocess(cmd.Context(), path, opts.Options)
		if err != nil {
			return err
		}
		fs, results = res.FileSet, []*driver.PreprocessResult{res}
	}
	timings := observ.Single("preprocess", time.Since(started), fmt.Sprintf("%d files", len(results)))

	tokOpts := diagfmt.TokenOpts{ShowHidden: hidden, PathMode: settings.pathMode}
	if err := writePreprocessed(cmd.OutOrStdout(), format, results, fs, tokOpts, len(results) > 1); err != nil {
		return err
	}

	bag := diag.NewBag(opts.MaxDiagnostics)
	for _, res := range results {
		bag.Merge(res.Bag)
	}
	return reportDiagnostics(cmd, settings, bag, fs, "preprocess", path, &timings)
}

func writePreprocessed(out io.Writer, format string, results []*driver.PreprocessResult, fs *source.FileSet, opts diagfmt.TokenOpts, headers bool) error {
	if format == "json" {
		payloads := make([]preprocessPayload, 0, len(results))
		for _, res := range results {
			if res.File == nil || res.Result == nil {
				continue
			}
			p := preprocessPayload{
				Path:    diagfmt.FormatPath(res.File.Path, opts.PathMode, opts.BaseDir),
				Cached:  res.Cached,
				Defines: res.Result.Defines,
				Tokens:  diagfmt.BuildTokensOutput(res.Result.Tokens, fs, opts),
			}
			for _, inc := range res.Result.Includes {
				p.Includes = append(p.Includes, includePayload{
					Path:  diagfmt.FormatPath(inc.Path, opts.PathMode, opts.BaseDir),
					Hash:  hex.EncodeToString(inc.Hash[:]),
					Depth: inc.Depth,
				})
			}
			payloads = append(payloads, p)
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(payloads)
	}

	for _, res := range results {
		if res.File == nil || res.Result == nil {
			continue
		}
		if headers {
			fmt.Fprintf(out, "== %s ==\n", diagfmt.FormatPath(res.File.Path, opts.PathMode, opts.BaseDir))
		}
		if format == "pretty" {
			if err := diagfmt.FormatTokensPretty(out, res.Result.Tokens, fs, opts); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintln(out, codeText(res, opts.ShowHidden)); err != nil {
			return err
		}
	}
	return nil
}

// codeText joins the token texts of a result with single spaces.
func codeText(res *driver.PreprocessResult, hidden bool) string {
	if !hidden {
		return res.Result.CodeText()
	}
	parts := make([]string, 0, len(res.Result.Tokens))
	for _, tok := range res.Result.Tokens {
		if tok.IsEOF() {
			break
		}
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}
