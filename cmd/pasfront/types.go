package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pasfront/internal/diagfmt"
	"pasfront/internal/types"
)

var typesCmd = &cobra.Command{
	Use:   "types [flags]",
	Short: "List the intrinsic types of a target",
	Long: `Types prints every intrinsic type and alias with the image, kind and size
it has for the selected compiler and version`,
	Args: cobra.NoArgs,
	RunE: runTypes,
}

func init() {
	addTargetFlags(typesCmd)
	typesCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTypes(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	target, err := cfg.Target()
	if err != nil {
		return err
	}

	f := types.NewFactory(target.Toolchain, target.Version)
	switch format {
	case "pretty":
		return diagfmt.FormatTypesPretty(cmd.OutOrStdout(), f)
	case "json":
		return diagfmt.FormatTypesJSON(cmd.OutOrStdout(), f)
	}
	return fmt.Errorf("unknown format: %s", format)
}
