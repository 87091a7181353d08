package cli

import (
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/config"
)

// ConfigEnv names the environment variable holding the config file path
// used when --config is not given.
const ConfigEnv = "MACHETE_CONFIG"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{FormatText, FormatJSON}

// NewRootCommand creates the root command for the machete CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "machete",
		Short: "Machete - X12 837 claims toolkit",
		Long: `Parse, check, translate and archive X12 837 health care claim
interchanges against a declarative CUE schema catalog.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			cfg, err := opts.settings()
			if err != nil {
				return err
			}
			return setupLogger(cmd, cfg, opts.Verbose)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "config file (default $"+ConfigEnv+")")

	cmd.AddCommand(NewParseCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))
	cmd.AddCommand(NewRoundTripCommand(opts))
	cmd.AddCommand(NewDecodeCommand(opts))
	cmd.AddCommand(NewTranslateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewArchiveCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// settings loads the configuration once: the --config file, then the
// file named by MACHETE_CONFIG, then the defaults.
func (o *RootOptions) settings() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	path := o.Config
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	if path == "" {
		o.cfg = config.Default()
		return o.cfg, nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.cfg = cfg
	return cfg, nil
}

// setupLogger installs a text handler on stderr at the configured level,
// or debug when verbose.
func setupLogger(cmd *cobra.Command, cfg *config.Config, verbose bool) error {
	level, err := cfg.Level()
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	return nil
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
