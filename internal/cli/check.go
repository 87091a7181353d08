package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
)

// CheckResult holds document check results.
type CheckResult struct {
	Valid   bool                `json:"valid"`
	Results []ir.ValidateResult `json:"results"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Check an interchange against its schema",
		Long: `Parse an interchange and run the document checks: required
elements, element lengths and codes, segment counts and envelope
control numbers.

Exit codes:
  0 - No errors (warnings may be reported)
  1 - The document failed to parse or has errors
  2 - Command error (unreadable input, bad config)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCheck(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	env, err := loadEnvironment(opts, formatter)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, formatter, path)
	if err != nil {
		return err
	}
	doc, err := env.parseDocument(formatter, raw)
	if err != nil {
		return err
	}

	results := document.Check(doc)
	if results == nil {
		results = []ir.ValidateResult{}
	}
	result := CheckResult{Valid: !ir.HasErrors(results), Results: results}

	var b strings.Builder
	if result.Valid {
		b.WriteString("✓ Document is valid\n")
	} else {
		b.WriteString("✗ Check failed\n")
	}
	for _, r := range results {
		fmt.Fprintf(&b, "  %s %s\n", r.Severity, r.Error())
	}
	if err := formatter.Report(result, b.String()); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("check failed with %d error(s)", len(ir.ErrorsOnly(results))))
	}
	return nil
}
