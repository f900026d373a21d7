package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"pasfront/internal/toolchain"
	"pasfront/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show pasfront build information and supported compilers",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().Bool("hash", false, "include git commit hash")
	versionCmd.Flags().Bool("message", false, "include git commit message")
	versionCmd.Flags().Bool("date", false, "include build timestamp")
	versionCmd.Flags().Bool("full", false, "show all build metadata and the supported compilers")
	versionCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

// versionPayload is the JSON form; optional parts are omitted unless asked for.
type versionPayload struct {
	Tool           string   `json:"tool"`
	Version        string   `json:"version"`
	GitCommit      string   `json:"git_commit,omitempty"`
	GitMessage     string   `json:"git_message,omitempty"`
	BuildDate      string   `json:"build_date,omitempty"`
	Compilers      []string `json:"compilers,omitempty"`
	DefaultVersion string   `json:"default_compiler_version,omitempty"`
}

func runVersion(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	format, err := flags.GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	full, err := flags.GetBool("full")
	if err != nil {
		return fmt.Errorf("failed to get full flag: %w", err)
	}
	want := map[string]bool{"full": full}
	for _, name := range []string{"hash", "message", "date"} {
		v, err := flags.GetBool(name)
		if err != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, err)
		}
		want[name] = v || full
	}

	payload := buildVersionPayload(version.Current(), want)
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(payload)
	case "pretty":
		settings, err := readOutputSettings(cmd)
		if err != nil {
			return err
		}
		printVersion(cmd.OutOrStdout(), payload, settings.color)
		return nil
	}
	return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
}

func buildVersionPayload(info version.Info, want map[string]bool) versionPayload {
	p := versionPayload{Tool: "pasfront", Version: info.Version}
	if want["hash"] {
		p.GitCommit = valueOrUnknown(info.GitCommit)
	}
	if want["message"] {
		p.GitMessage = valueOrUnknown(info.GitMessage)
	}
	if want["date"] {
		p.BuildDate = valueOrUnknown(info.BuildDate)
	}
	if want["full"] {
		for _, tc := range toolchain.All() {
			p.Compilers = append(p.Compilers, tc.String())
		}
		p.DefaultVersion = toolchain.Latest.Symbol()
	}
	return p
}

func printVersion(out io.Writer, p versionPayload, useColor bool) {
	saved := color.NoColor
	color.NoColor = !useColor
	defer func() { color.NoColor = saved }()

	fmt.Fprintf(out, "pasfront %s\n", version.Colored(p.Version))
	for _, row := range [][2]string{
		{"commit", p.GitCommit},
		{"message", p.GitMessage},
		{"built", p.BuildDate},
		{"targets", strings.Join(p.Compilers, " ")},
		{"default", p.DefaultVersion},
	} {
		if row[1] != "" {
			fmt.Fprintf(out, "%-8s %s\n", row[0]+":", row[1])
		}
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
