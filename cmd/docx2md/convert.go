// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docx2md/internal/convert"
	"github.com/pdiddy/docx2md/internal/pandoc"
	"github.com/pdiddy/docx2md/internal/ui"
)

var convertCmd = &cobra.Command{
	Use:   "convert INPUT [OUTPUT]",
	Short: "Convert a Word document to Markdown+LaTeX",
	Long: `Convert transforms one .docx file into Markdown+LaTeX: pandoc produces
the document body, OMML equations are lifted to LaTeX, and the rewrite
chain repairs delimiters, tables, figures and image references.

OUTPUT defaults to the input path with a .md extension.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	input := args[0]
	output := strings.TrimSuffix(input, filepath.Ext(input)) + ".md"
	if len(args) > 1 {
		output = args[1]
	}

	conv := pandoc.New(cfg.Pandoc.Path)
	if !conv.Available() {
		return fmt.Errorf("pandoc not found in PATH: install pandoc or set pandoc.path in the config")
	}

	fmt.Fprintf(os.Stdout, "converting %s -> %s\n", input, output)
	outcome, err := convert.ConvertDocument(conv, input, output, cfg, os.Stdout)
	if err != nil {
		return err
	}

	for _, d := range outcome.Diagnostics {
		fmt.Fprintln(os.Stdout, d)
	}

	body := fmt.Sprintf("Output file: %s\nImages extracted: %d\nEquations converted: %d\nTables converted: %d",
		output, outcome.Stats.ImagesProcessed, outcome.Stats.Equations(), outcome.Stats.TablesProcessed)
	style := ui.Success
	if len(outcome.Diagnostics) > 0 {
		body += fmt.Sprintf("\nMath diagnostics: %d", len(outcome.Diagnostics))
		style = ui.Warning
	}
	fmt.Fprintln(os.Stdout, ui.Panel("Conversion Complete", body, style))
	return nil
}
