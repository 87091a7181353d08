package harness

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/GeekSage/Machete/internal/claims"
	"github.com/GeekSage/Machete/internal/document"
	"github.com/GeekSage/Machete/internal/ir"
	"github.com/GeekSage/Machete/internal/schema"
	"github.com/GeekSage/Machete/internal/store"
	"github.com/GeekSage/Machete/internal/testutil"
	"github.com/GeekSage/Machete/internal/translate"
	"github.com/GeekSage/Machete/internal/x12"
)

// CodeTranslationFailure is reported for scenarios whose document binds
// but does not translate.
const CodeTranslationFailure = "TRANSLATION_FAILURE"

// archiveEpoch is the fixed archive time of harness runs.
var archiveEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Harness runs scenarios against one catalog.
type Harness struct {
	catalog *schema.Catalog
	logger  *slog.Logger
}

// New returns a harness over cat. Logs are discarded unless logger is set.
func New(cat *schema.Catalog, logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{catalog: cat, logger: logger}
}

// Run executes a scenario against the built-in catalog.
func Run(s *Scenario) (*Result, error) {
	cat, err := schema.Builtin()
	if err != nil {
		return nil, err
	}
	return New(cat, nil).Run(s)
}

// Run executes a scenario. The error return is for problems with the
// scenario itself (unreadable files, a catalog without 837P); pipeline
// failures are recorded in the result.
func (h *Harness) Run(s *Scenario) (*Result, error) {
	var dir *claims.Directory
	if s.Directory != "" {
		d, err := claims.LoadDirectory(s.Directory)
		if err != nil {
			return nil, err
		}
		dir = d
	}
	p, err := claims.NewProfessional(h.catalog, dir)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.Input)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	log := h.logger.With("scenario", s.Name)
	result := NewResult()

	doc, err := document.Parse(bytes.NewReader(raw), p.Schema())
	if err != nil {
		h.failed(s, result, errorCode(err), err)
		return result, nil
	}
	ic, err := p.Decode(doc)
	if err != nil {
		h.failed(s, result, CodeTranslationFailure, err)
		return result, nil
	}
	if s.Expect.Error != "" {
		result.AddError("expected error %s, document was accepted", s.Expect.Error)
		return result, nil
	}

	result.Batches = len(ic.Batches)
	result.Snapshot = Snapshot(ic)
	if want := s.Expect.Batches; want != nil && *want != result.Batches {
		result.AddError("expected %d batches, decoded %d", *want, result.Batches)
	}

	if s.Expect.Conformant {
		for _, r := range ir.ErrorsOnly(document.Check(doc)) {
			result.AddError("check: %s", r.Error())
		}
	}
	if s.Expect.RoundTrip {
		out, err := document.Marshal(doc)
		switch {
		case err != nil:
			result.AddError("write: %v", err)
		case !bytes.Equal(out, raw):
			result.AddError("roundtrip: written document differs from input")
		}
	}

	encoded, err := p.Encode(ic)
	if err == nil {
		result.Output, err = document.Marshal(encoded)
	}
	switch {
	case err != nil:
		result.AddError("encode: %v", err)
	case s.Expect.TranslateRoundTrip && !bytes.Equal(result.Output, raw):
		result.AddError("translate roundtrip: encoded document differs from input")
	}

	if s.Expect.Archive {
		h.archive(raw, ic, result)
	}

	for _, err := range EvaluateAssertions(result.Snapshot, s.Assertions) {
		result.AddError("%v", err)
	}
	log.Debug("scenario finished", "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

func (h *Harness) failed(s *Scenario, result *Result, code string, err error) {
	switch {
	case s.Expect.Error == "":
		result.AddError("unexpected failure: %v", err)
	case s.Expect.Error != code:
		result.AddError("expected error %s, got %s: %v", s.Expect.Error, code, err)
	}
}

// archive puts the interchange twice into a fresh in-memory store: the
// first put must insert, the second must find it.
func (h *Harness) archive(raw []byte, ic *claims.Interchange, result *Result) {
	seq := testutil.NewControlSequence()
	st, err := store.Open(":memory:",
		store.WithClock(func() time.Time { return archiveEpoch }),
		store.WithRunIDs(func() (uuid.UUID, error) {
			var id uuid.UUID
			binary.BigEndian.PutUint64(id[8:], uint64(seq.Next()))
			return id, nil
		}),
	)
	if err != nil {
		result.AddError("archive: %v", err)
		return
	}
	defer st.Close()

	rec, err := store.NewRecord(raw, ic)
	if err != nil {
		result.AddError("archive: %v", err)
		return
	}
	ctx := context.Background()
	if _, inserted, err := st.Put(ctx, rec); err != nil || !inserted {
		result.AddError("archive: first put inserted=%t err=%v", inserted, err)
		return
	}
	if _, inserted, err := st.Put(ctx, rec); err != nil || inserted {
		result.AddError("archive: second put inserted=%t err=%v", inserted, err)
		return
	}
	txs, err := st.Transactions(ctx, rec.Interchange.ID)
	if err != nil || len(txs) != len(ic.Batches) {
		result.AddError("archive: %d transactions stored, want %d (err=%v)", len(txs), len(ic.Batches), err)
	}
}

// Snapshot converts a decoded interchange to the form assertion paths
// walk.
func Snapshot(ic *claims.Interchange) map[string]any {
	batches := make([]any, len(ic.Batches))
	for i, b := range ic.Batches {
		batches[i] = ir.Snapshot(b)
	}
	return map[string]any{"batches": batches}
}

// errorCode returns the code of a wire, binding or translation error.
func errorCode(err error) string {
	if code, ok := x12.CodeOf(err); ok {
		return string(code)
	}
	if code, ok := document.CodeOf(err); ok {
		return string(code)
	}
	if translate.IsTranslationFailure(err) {
		return CodeTranslationFailure
	}
	return ""
}
