// Package main is the entry point for coursectl, a command-line tool for
// working with generated curricula offline.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coursectl",
		Short: "Parse, normalize and export curriculum documents",
		Long: `coursectl works with the Markdown curricula produced by the course generator.
It parses a document into structured JSON, rewrites it in canonical form, and
exports it as PDF, XLSX or plain text.

FILE may be "-" to read from standard input.`,
		SilenceUsage: true,
	}
	root.AddCommand(newParseCmd(), newFormatCmd(), newExportCmd(), newVersionCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// readInput reads path, or standard input when path is "-".
func readInput(cmd *cobra.Command, path string) (string, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}
