package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/courseforge/site/internal/curriculum"
)

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format FILE",
		Short: "Rewrite a curriculum document in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), curriculum.Format(curriculum.Parse(raw)))
			return err
		},
	}
}
