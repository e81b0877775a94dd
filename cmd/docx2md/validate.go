package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docx2md/internal/equations"
	"github.com/pdiddy/docx2md/internal/ui"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check math regions in a Markdown file without rewriting",
	Long: `Validate scans FILE and reports structural math problems as
"path:line:col: severity: message" lines. The file is never modified.

The command exits non-zero when errors are found. With --strict,
warnings also fail.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "treat warnings as failures")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	strict, _ := cmd.Flags().GetBool("strict")

	input := args[0]
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	opts := equations.NewOptions(cfg.Equations)
	doc := equations.Document{Path: input, Text: string(data)}
	diags := equations.NewEngine(opts).Check(doc)

	for _, d := range diags {
		fmt.Fprintln(os.Stdout, d)
	}

	inline, display, envs := 0, 0, 0
	for _, seg := range equations.Scan(doc, opts) {
		switch seg.Kind {
		case equations.MathInline:
			inline++
		case equations.MathDisplay:
			display++
		case equations.MathEnvironment:
			envs++
		}
	}

	errs, warns := 0, 0
	for _, d := range diags {
		if d.Severity == equations.SeverityError {
			errs++
		} else {
			warns++
		}
	}

	counts := fmt.Sprintf("Inline equations: %d\nDisplay equations: %d\nMath environments: %d", inline, display, envs)
	switch {
	case errs == 0 && warns == 0:
		fmt.Fprintln(os.Stdout, ui.Panel("Validation Passed", counts, ui.Success))
	case errs == 0:
		body := fmt.Sprintf("%s\nWarnings: %d", counts, warns)
		fmt.Fprintln(os.Stdout, ui.Panel("Validation Passed", body, ui.Warning))
	default:
		body := fmt.Sprintf("%s\nErrors: %d\nWarnings: %d", counts, errs, warns)
		fmt.Fprintln(os.Stdout, ui.Panel("Validation Failed", body, ui.Error))
	}

	if errs > 0 {
		return fmt.Errorf("%d error(s) found in %s", errs, input)
	}
	if strict && warns > 0 {
		return fmt.Errorf("%d warning(s) found in %s (strict mode)", warns, input)
	}
	return nil
}
