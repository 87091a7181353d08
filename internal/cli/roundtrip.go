package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/document"
)

// RoundTripOptions holds flags for the roundtrip command.
type RoundTripOptions struct {
	*RootOptions
	Translate bool   // decode to claims and encode back
	Output    string // write the regenerated document here
}

// RoundTripResult reports whether the regenerated document matches.
type RoundTripResult struct {
	Identical bool `json:"identical"`
	Size      int  `json:"size"`
	Offset    int  `json:"offset,omitempty"` // first differing byte
}

// NewRoundTripCommand creates the roundtrip command.
func NewRoundTripCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RoundTripOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "roundtrip <file>",
		Short: "Verify a document writes back byte-identical",
		Long: `Parse an interchange and write it back with its own delimiters.
With --translate the document is decoded to claims and encoded again,
exercising both translation directions.

Exit codes:
  0 - Output is byte-identical to the input
  1 - Output differs, or the input failed to parse or translate
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoundTrip(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Translate, "translate", false, "round trip through the claim model")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the regenerated document to this file")

	return cmd
}

func runRoundTrip(opts *RoundTripOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	env, err := loadEnvironment(opts.RootOptions, formatter)
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

	if opts.Translate {
		ic, err := env.professional.Decode(doc)
		if err != nil {
			return outputError(formatter, ExitFailure, ErrCodeTranslate, "failed to decode claims", err)
		}
		if doc, err = env.professional.Encode(ic); err != nil {
			return outputError(formatter, ExitFailure, ErrCodeTranslate, "failed to encode claims", err)
		}
	}
	out, err := document.Marshal(doc)
	if err != nil {
		return outputError(formatter, ExitFailure, ErrCodeWriteFailed, "failed to write document", err)
	}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, out, 0o644); err != nil {
			return outputError(formatter, ExitCommandError, ErrCodeWriteFailed, "failed to write output", err)
		}
	}

	result := RoundTripResult{Identical: bytes.Equal(out, raw), Size: len(out)}
	if !result.Identical {
		result.Offset = firstDifference(out, raw)
		_ = formatter.Error(ErrCodeMismatch, fmt.Sprintf("output differs from input at byte %d", result.Offset), result)
		return NewExitError(ExitFailure, "roundtrip mismatch")
	}
	return formatter.Report(result, fmt.Sprintf("✓ Roundtrip identical (%d bytes)\n", result.Size))
}

func firstDifference(a, b []byte) int {
	n := min(len(a), len(b))
	for i := range n {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
