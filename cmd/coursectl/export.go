package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/courseforge/site/internal/curriculum"
	"github.com/courseforge/site/internal/export"
)

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Export a curriculum document as PDF, XLSX or text",
		Long: `Export renders FILE in the chosen format. Without --out the file is named
after the course title in the current directory; --out - writes to standard
output. A PDF that cannot be rendered falls back to plain text.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatFlag, _ := cmd.Flags().GetString("format")
			out, _ := cmd.Flags().GetString("out")

			format, err := export.ParseFormat(formatFlag)
			if err != nil {
				return err
			}
			raw, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			c := curriculum.Parse(raw)

			if out == "-" {
				_, err := export.Write(cmd.OutOrStdout(), format, c, raw)
				return err
			}
			if out == "" {
				out = format.Filename(c)
			}
			return writeFile(cmd, out, format, c, raw)
		},
	}
	cmd.Flags().StringP("format", "f", "pdf", "output format: pdf, xlsx or txt")
	cmd.Flags().StringP("out", "o", "", "output path, or - for stdout")
	return cmd
}

func writeFile(cmd *cobra.Command, path string, format export.Format, c curriculum.ParsedCurriculum, raw string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	written, err := export.Write(f, format, c, raw)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("exporting %s: %w", path, err)
	}
	if written != format {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s export failed, wrote %s instead\n", format, written)
	}
	_, err = io.WriteString(cmd.ErrOrStderr(), "wrote "+path+"\n")
	return err
}
