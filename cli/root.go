// Package cli implements the converteasy command line using Cobra.
// "serve" runs the HTTP service; every conversion direction also has a
// standalone command that converts one file and exits.
package cli

import (
	"fmt"
	"os"

	"converteasy/tasks"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "converteasy",
		Short: "Convert documents between office formats",
		Long: `converteasy converts Word documents to HTML and PDF files to Word or
PowerPoint. Each conversion tries an ordered list of backends and keeps the
first usable output.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ./converteasy.yaml if present)")

	root.AddCommand(
		newServeCommand(opts),
		newStatusCommand(opts),
		newConvertCommand(opts, tasks.DirectionDocToHTML, "Convert a .docx document to HTML"),
		newConvertCommand(opts, tasks.DirectionPDFToDoc, "Convert a PDF to a .docx document"),
		newConvertCommand(opts, tasks.DirectionPDFToPPT, "Convert a PDF to a .pptx presentation, one slide per page"),
	)

	return root
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	if err := NewRootCommand(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
