package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Put archives rec. The interchange ID is the content hash, so a document
// already in the archive is left untouched: Put then returns the stored
// row and false. Run ID and archive time are assigned when empty.
func (s *Store) Put(ctx context.Context, rec Record) (Interchange, bool, error) {
	ic := rec.Interchange
	if ic.ID == "" {
		return Interchange{}, false, fmt.Errorf("put interchange: empty id")
	}
	if ic.RunID == "" {
		id, err := s.runID()
		if err != nil {
			return Interchange{}, false, fmt.Errorf("put interchange: run id: %w", err)
		}
		ic.RunID = id.String()
	}
	if ic.ArchivedAt == "" {
		ic.ArchivedAt = s.now().UTC().Format(time.RFC3339Nano)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Interchange{}, false, fmt.Errorf("put interchange: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO interchanges
		(id, run_id, sender_id, receiver_id, control_number, group_control_number,
		 usage_indicator, byte_size, transaction_count, engine_version, snapshot_version, archived_at)
		VALUES (:id, :run_id, :sender_id, :receiver_id, :control_number, :group_control_number,
		 :usage_indicator, :byte_size, :transaction_count, :engine_version, :snapshot_version, :archived_at)
		ON CONFLICT (id) DO NOTHING
	`, ic)
	if err != nil {
		return Interchange{}, false, fmt.Errorf("put interchange: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Interchange{}, false, fmt.Errorf("put interchange: %w", err)
	}
	if n == 0 {
		if err := tx.Rollback(); err != nil {
			return Interchange{}, false, fmt.Errorf("put interchange: %w", err)
		}
		existing, err := s.Get(ctx, ic.ID)
		if err != nil {
			return Interchange{}, false, err
		}
		slog.Debug("interchange already archived", "id", ic.ID, "run_id", existing.RunID)
		return existing, false, nil
	}

	for _, t := range rec.Transactions {
		t.InterchangeID = ic.ID
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO transactions
			(interchange_id, seq, control_number, transaction_set, graph_hash, graph)
			VALUES (:interchange_id, :seq, :control_number, :transaction_set, :graph_hash, :graph)
		`, t); err != nil {
			return Interchange{}, false, fmt.Errorf("put transaction %d: %w", t.Seq, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return Interchange{}, false, fmt.Errorf("put interchange: %w", err)
	}
	slog.Debug("archived interchange", "id", ic.ID, "run_id", ic.RunID, "transactions", len(rec.Transactions))
	return ic, true, nil
}
