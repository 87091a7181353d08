package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
)

// CatalogEntry describes one transaction of a catalog.
type CatalogEntry struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	Version string `json:"version,omitempty"`
	Title   string `json:"title,omitempty"`
}

// CatalogValidation holds catalog validation results.
type CatalogValidation struct {
	Valid        bool                `json:"valid"`
	Transactions []string            `json:"transactions"`
	Results      []ir.ValidateResult `json:"results"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with schema catalogs",
		Long: `Inspect and validate CUE schema catalogs. Without a directory argument
the catalog named in the config file is used, or the built-in 837P and
837I catalog.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:           "validate [dir]",
		Short:         "Compile and validate a catalog",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogValidate(rootOpts, args, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "list [dir]",
		Short:         "List the transactions of a catalog",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(rootOpts, args, cmd)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "schema",
		Short:         "Print the CUE definitions catalogs are checked against",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogSchema(rootOpts, cmd)
		},
	})

	return cmd
}

func loadCatalog(opts *RootOptions, formatter *OutputFormatter, args []string) (*schema.Catalog, error) {
	var (
		cat *schema.Catalog
		err error
	)
	if len(args) == 1 {
		formatter.VerboseLog("Loading catalog from %s", args[0])
		cat, err = schema.LoadDir(args[0])
	} else {
		cfg, cerr := opts.settings()
		if cerr != nil {
			return nil, cerr
		}
		cat, err = cfg.LoadCatalog()
	}
	if err != nil {
		return nil, outputError(formatter, ExitFailure, ErrCodeCatalog, "failed to load catalog", err)
	}
	return cat, nil
}

func runCatalogValidate(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := loadCatalog(opts, formatter, args)
	if err != nil {
		return err
	}
	results := schema.Validate(cat)
	if results == nil {
		results = []ir.ValidateResult{}
	}
	result := CatalogValidation{
		Valid:        !ir.HasErrors(results),
		Transactions: cat.TransactionNames(),
		Results:      results,
	}

	var b strings.Builder
	if result.Valid {
		fmt.Fprintf(&b, "✓ Catalog valid: %s\n", strings.Join(result.Transactions, ", "))
	} else {
		b.WriteString("✗ Catalog invalid\n")
	}
	for _, r := range results {
		fmt.Fprintf(&b, "  %s %s\n", r.Severity, r.Error())
	}
	if err := formatter.Report(result, b.String()); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("catalog has %d error(s)", len(ir.ErrorsOnly(results))))
	}
	return nil
}

func runCatalogList(opts *RootOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := loadCatalog(opts, formatter, args)
	if err != nil {
		return err
	}
	entries := []CatalogEntry{}
	var b strings.Builder
	for _, name := range cat.TransactionNames() {
		tx, _ := cat.Transaction(name)
		entries = append(entries, CatalogEntry{Name: tx.Name, ID: tx.ID, Version: tx.Version, Title: tx.Title})
		fmt.Fprintf(&b, "%-6s %s %s  %s\n", tx.Name, tx.ID, tx.Version, tx.Title)
	}
	return formatter.Report(entries, b.String())
}

func runCatalogSchema(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	src, err := schema.SchemaSource()
	if err != nil {
		return outputError(formatter, ExitCommandError, ErrCodeCatalog, "failed to read schema", err)
	}
	return formatter.Report(map[string]string{"schema": string(src)}, string(src))
}
