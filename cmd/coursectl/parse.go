package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/courseforge/site/internal/curriculum"
)

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Print a curriculum document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if pretty, _ := cmd.Flags().GetBool("pretty"); pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(curriculum.Parse(raw))
		},
	}
	cmd.Flags().Bool("pretty", true, "indent the JSON output")
	return cmd
}
