package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/store"
)

// ArchiveOptions holds flags for the archive commands.
type ArchiveOptions struct {
	*RootOptions
	DB    string // archive DSN, overrides the config file
	Limit int
}

// ArchiveShow is an archived interchange with its transactions.
type ArchiveShow struct {
	Interchange  store.Interchange   `json:"interchange"`
	Transactions []store.Transaction `json:"transactions"`
}

// NewArchiveCommand creates the archive command group.
func NewArchiveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ArchiveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Archive decoded interchanges",
		Long: `Store decoded interchanges in SQLite or PostgreSQL. Interchanges are
keyed by the hash of their bytes, so putting the same file twice is a
no-op. Each transaction is stored as canonical JSON with its graph hash.

Examples:
  machete archive put claims.x12
  machete archive list --db postgres://localhost/claims
  machete archive find 3f5a...`,
	}

	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "archive DSN (default from config)")

	cmd.AddCommand(&cobra.Command{
		Use:           "put <file>",
		Short:         "Decode and archive an interchange",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchivePut(opts, args[0], cmd)
		},
	})

	list := &cobra.Command{
		Use:           "list",
		Short:         "List archived interchanges, oldest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveList(opts, cmd)
		},
	}
	list.Flags().IntVar(&opts.Limit, "limit", 50, "maximum number of interchanges")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:           "show <id>",
		Short:         "Show an archived interchange and its transactions",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveShow(opts, args[0], cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "find <graph-hash>",
		Short:         "Find transactions with an identical claim graph",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArchiveFind(opts, args[0], cmd)
		},
	})

	return cmd
}

func openArchive(opts *ArchiveOptions, formatter *OutputFormatter) (*store.Store, error) {
	dsn := opts.DB
	if dsn == "" {
		cfg, err := opts.settings()
		if err != nil {
			return nil, err
		}
		dsn = cfg.Archive
	}
	formatter.VerboseLog("Opening archive %s", dsn)
	st, err := store.Open(dsn)
	if err != nil {
		return nil, outputError(formatter, ExitCommandError, ErrCodeArchive, "failed to open archive", err)
	}
	return st, nil
}

func runArchivePut(opts *ArchiveOptions, path string, cmd *cobra.Command) error {
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
	rec, err := store.NewRecord(raw, ic)
	if err != nil {
		return outputError(formatter, ExitFailure, ErrCodeArchive, "failed to build archive record", err)
	}

	st, err := openArchive(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	row, inserted, err := st.Put(cmd.Context(), rec)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeArchive, "failed to archive interchange", err)
	}
	text := fmt.Sprintf("✓ Archived %s (%d transaction(s))\n", row.ID, row.TransactionCount)
	if !inserted {
		text = fmt.Sprintf("✓ Already archived %s at %s\n", row.ID, row.ArchivedAt)
	}
	return formatter.Report(map[string]any{"interchange": row, "inserted": inserted}, text)
}

func runArchiveList(opts *ArchiveOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openArchive(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	rows, err := st.List(cmd.Context(), opts.Limit)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeArchive, "failed to list archive", err)
	}
	var b strings.Builder
	if len(rows) == 0 {
		b.WriteString("No interchanges archived.\n")
	}
	for _, r := range rows {
		fmt.Fprintf(&b, "%s  %s  %s -> %s  ISA13 %d  %d transaction(s)\n",
			r.ArchivedAt, r.ID, r.SenderID, r.ReceiverID, r.ControlNumber, r.TransactionCount)
	}
	return formatter.Report(rows, b.String())
}

func runArchiveShow(opts *ArchiveOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openArchive(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	row, err := st.Get(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("interchange %s not found", id), nil)
		return WrapExitError(ExitFailure, "interchange not found", err)
	}
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeArchive, "failed to read archive", err)
	}
	txs, err := st.Transactions(cmd.Context(), id)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeArchive, "failed to read transactions", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n  sender %s receiver %s usage %s\n  ISA13 %d GS06 %d, %d bytes, archived %s (run %s)\n",
		row.ID, row.SenderID, row.ReceiverID, row.Usage, row.ControlNumber, row.GroupControlNumber,
		row.Size, row.ArchivedAt, row.RunID)
	for _, tx := range txs {
		fmt.Fprintf(&b, "  [%d] %s ST02 %s %s\n", tx.Seq, tx.TransactionSet, tx.ControlNumber, tx.GraphHash)
	}
	return formatter.Report(ArchiveShow{Interchange: row, Transactions: txs}, b.String())
}

func runArchiveFind(opts *ArchiveOptions, hash string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openArchive(opts, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	txs, err := st.FindGraph(cmd.Context(), hash)
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeArchive, "failed to search archive", err)
	}
	var b strings.Builder
	if len(txs) == 0 {
		b.WriteString("No matching transactions.\n")
	}
	for _, tx := range txs {
		fmt.Fprintf(&b, "%s [%d] ST02 %s\n", tx.InterchangeID, tx.Seq, tx.ControlNumber)
	}
	return formatter.Report(txs, b.String())
}
