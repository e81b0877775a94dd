package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/internal/ui"
)

var fixDelimitersCmd = &cobra.Command{
	Use:   "fix-delimiters FILE [OUTPUT]",
	Short: "Rewrite math delimiters in a Markdown file to canonical form",
	Long: `Fix-delimiters scans FILE for math regions, rewrites their delimiters
to the canonical pairs, and validates the result. Code spans and fenced
blocks are never touched. Problems are printed as diagnostics; they never
fail the command.

OUTPUT defaults to overwriting FILE.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runFixDelimiters,
}

func init() {
	fixDelimitersCmd.Flags().String("inline-delimiters", "", `canonical inline pair as "open,close" (default "$,$")`)
	fixDelimitersCmd.Flags().String("display-delimiters", "", `canonical display pair as "open,close" (default "$$,$$")`)

	rootCmd.AddCommand(fixDelimitersCmd)
}

// splitPair parses a "open,close" flag value into a delimiter pair.
func splitPair(s string) ([]string, error) {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid delimiter pair %q: want \"open,close\"", s)
	}
	return parts, nil
}

func runFixDelimiters(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if v, _ := cmd.Flags().GetString("inline-delimiters"); v != "" {
		pair, err := splitPair(v)
		if err != nil {
			return err
		}
		cfg.Equations.InlineDelimiters = pair
	}
	if v, _ := cmd.Flags().GetString("display-delimiters"); v != "" {
		pair, err := splitPair(v)
		if err != nil {
			return err
		}
		cfg.Equations.DisplayDelimiters = pair
	}

	input := args[0]
	output := input
	if len(args) > 1 {
		output = args[1]
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	engine := equations.NewEngine(equations.NewOptions(cfg.Equations))
	res := engine.Fix(equations.Document{Path: input, Text: string(data)})

	if err := os.WriteFile(output, []byte(res.Text), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	for _, d := range res.Diagnostics {
		fmt.Fprintln(os.Stdout, d)
	}

	body := fmt.Sprintf("Output file: %s\nInline equations fixed: %d\nDisplay equations fixed: %d",
		output, res.InlineRewritten, res.DisplayRewritten)
	style := ui.Success
	if len(res.Diagnostics) > 0 {
		body += fmt.Sprintf("\nDiagnostics: %d", len(res.Diagnostics))
		style = ui.Warning
	}
	fmt.Fprintln(os.Stdout, ui.Panel("Delimiter Fixing Complete", body, style))
	return nil
}
