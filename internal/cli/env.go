package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GeekSage/Machete/internal/claims"
	"github.com/GeekSage/Machete/internal/config"
	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/x12"
)

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input could not be read
	ErrCodeParseFailed = "E003" // Tokenizing or binding failed
	ErrCodeCheckFailed = "E004" // Document checks reported errors
	ErrCodeNotFound    = "E005" // Path or record not found
	ErrCodeTranslate   = "E006" // Translation failed
	ErrCodeWriteFailed = "E007" // Output could not be written
	ErrCodeArchive     = "E008" // Archive unavailable or failed
	ErrCodeCatalog     = "E009" // Catalog could not be loaded or is invalid
	ErrCodeMismatch    = "E010" // Roundtrip output differs from input
)

// environment is what most commands need: the configuration, the catalog
// it names, and the 837P translators compiled against it.
type environment struct {
	cfg          *config.Config
	catalog      *schema.Catalog
	professional *claims.Professional
}

func loadEnvironment(opts *RootOptions, formatter *OutputFormatter) (*environment, error) {
	cfg, err := opts.settings()
	if err != nil {
		return nil, err
	}
	cat, err := cfg.LoadCatalog()
	if err != nil {
		return nil, outputError(formatter, ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}
	dir, err := cfg.LoadDirectory()
	if err != nil {
		return nil, outputError(formatter, ExitCommandError, ErrCodeNotFound, "failed to load payer directory", err)
	}
	p, err := claims.NewProfessional(cat, dir)
	if err != nil {
		return nil, outputError(formatter, ExitCommandError, ErrCodeCatalog, "failed to compile 837P translators", err)
	}
	formatter.VerboseLog("Catalog transactions: %v", cat.TransactionNames())
	return &environment{cfg: cfg, catalog: cat, professional: p}, nil
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, formatter *OutputFormatter, path string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		code := ErrCodeReadFailed
		if os.IsNotExist(err) {
			code = ErrCodeNotFound
		}
		return nil, outputError(formatter, ExitCommandError, code, "failed to read input", err)
	}
	formatter.VerboseLog("Read %d bytes from %s", len(data), path)
	return data, nil
}

// parseDocument tokenizes and binds raw against the interchange schema.
func (e *environment) parseDocument(formatter *OutputFormatter, raw []byte) (*document.Document, error) {
	doc, err := document.Parse(bytes.NewReader(raw), e.professional.Schema())
	if err != nil {
		return nil, outputError(formatter, ExitFailure, ErrCodeParseFailed, "failed to parse document", err)
	}
	return doc, nil
}

// decode parses raw and translates its 837P transactions.
func (e *environment) decode(formatter *OutputFormatter, raw []byte) (*claims.Interchange, error) {
	doc, err := e.parseDocument(formatter, raw)
	if err != nil {
		return nil, err
	}
	ic, err := e.professional.Decode(doc)
	if err != nil {
		return nil, outputError(formatter, ExitFailure, ErrCodeTranslate, "failed to decode claims", err)
	}
	return ic, nil
}

// outputError reports err through the formatter and returns the matching
// exit error. Wire and binding errors carry their code as details.
func outputError(formatter *OutputFormatter, exit int, code, message string, err error) error {
	_ = formatter.Error(code, fmt.Sprintf("%s: %v", message, err), errorDetails(err))
	return WrapExitError(exit, message, err)
}

func errorDetails(err error) any {
	if code, ok := x12.CodeOf(err); ok {
		return map[string]string{"code": string(code)}
	}
	if code, ok := document.CodeOf(err); ok {
		return map[string]string{"code": string(code)}
	}
	return nil
}
