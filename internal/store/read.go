package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no interchange has the requested ID.
var ErrNotFound = errors.New("interchange not found")

const interchangeColumns = `id, run_id, sender_id, receiver_id, control_number, group_control_number,
	usage_indicator, byte_size, transaction_count, engine_version, snapshot_version, archived_at`

// Get returns the interchange with id.
func (s *Store) Get(ctx context.Context, id string) (Interchange, error) {
	var ic Interchange
	err := s.db.GetContext(ctx, &ic, s.db.Rebind(`
		SELECT `+interchangeColumns+`
		FROM interchanges
		WHERE id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return Interchange{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Interchange{}, fmt.Errorf("get %s: %w", id, err)
	}
	return ic, nil
}

// List returns up to limit interchanges, oldest first. A limit of zero or
// less returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]Interchange, error) {
	query := `
		SELECT ` + interchangeColumns + `
		FROM interchanges
		ORDER BY archived_at ASC, id ASC`
	var args []any
	if limit > 0 {
		query += `
		LIMIT ?`
		args = append(args, limit)
	}
	out := []Interchange{}
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list interchanges: %w", err)
	}
	return out, nil
}

// Transactions returns the archived transactions of interchange id in
// document order.
func (s *Store) Transactions(ctx context.Context, id string) ([]Transaction, error) {
	out := []Transaction{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT interchange_id, seq, control_number, transaction_set, graph_hash, graph
		FROM transactions
		WHERE interchange_id = ?
		ORDER BY seq ASC
	`), id)
	if err != nil {
		return nil, fmt.Errorf("list transactions of %s: %w", id, err)
	}
	return out, nil
}

// FindGraph returns every archived transaction whose entity graph hashes
// to hash, across interchanges.
func (s *Store) FindGraph(ctx context.Context, hash string) ([]Transaction, error) {
	out := []Transaction{}
	err := s.db.SelectContext(ctx, &out, s.db.Rebind(`
		SELECT interchange_id, seq, control_number, transaction_set, graph_hash, graph
		FROM transactions
		WHERE graph_hash = ?
		ORDER BY interchange_id ASC, seq ASC
	`), hash)
	if err != nil {
		return nil, fmt.Errorf("find graph %s: %w", hash, err)
	}
	return out, nil
}
