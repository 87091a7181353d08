package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/claims"
	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
)

// DecodeResult is a decoded interchange in snapshot form.
type DecodeResult struct {
	Envelope claims.Envelope `json:"envelope"`
	Batches  []BatchSummary  `json:"batches"`
}

// BatchSummary is one decoded transaction.
type BatchSummary struct {
	ControlNumber string         `json:"control_number"`
	GraphHash     string         `json:"graph_hash"`
	Claims        int            `json:"claims"`
	Graph         map[string]any `json:"graph"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <file>",
		Short: "Translate 837P transactions into claims",
		Long: `Parse an interchange and translate each 837P transaction into the
claim model: billing providers, subscribers, patients, claims and
service lines. JSON output carries the full claim graph and its hash.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDecode(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	env, err := loadEnvironment(opts, formatter)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, formatter, path)
	if err != nil {
		return err
	}
	ic, err := env.decode(formatter, raw)
	if err != nil {
		return err
	}

	result := DecodeResult{Envelope: ic.Envelope, Batches: []BatchSummary{}}
	var b strings.Builder
	fmt.Fprintf(&b, "✓ Decoded %d batch(es) from %s to %s, ISA13 %d\n",
		len(ic.Batches), ic.Envelope.SenderID, ic.Envelope.ReceiverID, ic.Envelope.ControlNumber)
	for _, batch := range ic.Batches {
		hash, err := ir.GraphHash(batch)
		if err != nil {
			return outputError(formatter, ExitFailure, ErrCodeTranslate, "failed to hash claim graph", err)
		}
		summary := BatchSummary{
			ControlNumber: batch.ControlNumber.OrElse(""),
			GraphHash:     hash,
			Claims:        countClaims(batch),
			Graph:         ir.Snapshot(batch),
		}
		result.Batches = append(result.Batches, summary)
		fmt.Fprintf(&b, "  ST02 %s: %d billing provider(s), %d claim(s), %s\n",
			summary.ControlNumber, batch.BillingProviders.Len(), summary.Claims, summary.GraphHash)
	}
	return formatter.Report(result, b.String())
}

func countClaims(b *claims.Batch) int {
	n := 0
	for _, bp := range b.BillingProviders.Items() {
		for _, sub := range bp.Subscribers.Items() {
			n += sub.Claims.Len()
			for _, pat := range sub.Patients.Items() {
				n += pat.Claims.Len()
			}
		}
	}
	return n
}

// TranslateOptions holds flags for the translate command.
type TranslateOptions struct {
	*RootOptions
	Output string
}

// NewTranslateCommand creates the translate command.
func NewTranslateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranslateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "translate <file>",
		Short: "Decode claims and encode them as a new interchange",
		Long: `Decode the 837P transactions of an interchange and encode them again
with the configured output delimiters (output.delimiters and
output.suffix in the config file). Envelope control numbers are kept and
hierarchical levels are renumbered.

Examples:
  machete translate claims.x12 -o normalized.x12
  machete translate claims.x12 --config machete.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")

	return cmd
}

func runTranslate(opts *TranslateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, formatter, path)
	if err != nil {
		return err
	}
	ic, err := env.decode(formatter, raw)
	if err != nil {
		return err
	}
	if env.cfg.Output.Delimiters != "" || env.cfg.Output.Suffix != "" {
		d, err := env.cfg.Delimiters()
		if err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeGeneric, "invalid output delimiters", err)
		}
		ic.Delimiters = d
	}

	doc, err := env.professional.Encode(ic)
	if err != nil {
		return outputError(formatter, ExitFailure, ErrCodeTranslate, "failed to encode claims", err)
	}
	out, err := document.Marshal(doc)
	if err != nil {
		return outputError(formatter, ExitFailure, ErrCodeWriteFailed, "failed to write document", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0o644); err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write output", err)
		}
		formatter.VerboseLog("Wrote %d bytes to %s", len(out), opts.Output)
		return formatter.Report(map[string]any{"output": opts.Output, "size": len(out)},
			fmt.Sprintf("✓ Wrote %d batch(es) to %s\n", len(ic.Batches), opts.Output))
	}
	return formatter.Report(map[string]any{"document": string(out)}, string(out))
}

// InspectOptions holds flags for the inspect command.
type InspectOptions struct {
	*RootOptions
	Batch int
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InspectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Dump the decoded claim model",
		Long: `Decode an interchange and dump the Go values of one batch, including
which fields are present and which are missing. Intended for debugging
translation rules; the output format is not stable.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(opts, args[0], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Batch, "batch", 0, "batch index to dump")

	return cmd
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func runInspect(opts *InspectOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(opts.RootOptions, formatter)
	if err != nil {
		return err
	}
	raw, err := readInput(cmd, formatter, path)
	if err != nil {
		return err
	}
	ic, err := env.decode(formatter, raw)
	if err != nil {
		return err
	}
	if opts.Batch < 0 || opts.Batch >= len(ic.Batches) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("batch %d not found, interchange has %d", opts.Batch, len(ic.Batches)), nil)
		return NewExitError(ExitCommandError, "batch not found")
	}
	dump := dumper.Sdump(ic.Batches[opts.Batch])
	return formatter.Report(map[string]string{"dump": dump}, dump)
}
