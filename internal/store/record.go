package store

import (
	"fmt"

	"github.com/GeekSage/Machete/internal/claims"
	"github.com/GeekSage/Machete/internal/ir"
)

// Interchange is one archived interchange.
type Interchange struct {
	ID                 string `db:"id" json:"id"`
	RunID              string `db:"run_id" json:"run_id"`
	SenderID           string `db:"sender_id" json:"sender_id"`
	ReceiverID         string `db:"receiver_id" json:"receiver_id"`
	ControlNumber      int64  `db:"control_number" json:"control_number"`
	GroupControlNumber int64  `db:"group_control_number" json:"group_control_number"`
	Usage              string `db:"usage_indicator" json:"usage"`
	Size               int64  `db:"byte_size" json:"size"`
	TransactionCount   int    `db:"transaction_count" json:"transaction_count"`
	EngineVersion      string `db:"engine_version" json:"engine_version"`
	SnapshotVersion    string `db:"snapshot_version" json:"snapshot_version"`
	ArchivedAt         string `db:"archived_at" json:"archived_at"`
}

// Transaction is one decoded transaction of an archived interchange.
type Transaction struct {
	InterchangeID  string `db:"interchange_id" json:"interchange_id"`
	Seq            int    `db:"seq" json:"seq"`
	ControlNumber  string `db:"control_number" json:"control_number"`
	TransactionSet string `db:"transaction_set" json:"transaction_set"`
	GraphHash      string `db:"graph_hash" json:"graph_hash"`
	Graph          string `db:"graph" json:"graph"`
}

// Record is an interchange with its transactions, ready to put.
type Record struct {
	Interchange  Interchange
	Transactions []Transaction
}

// NewRecord builds the archive record of a decoded 837P interchange read
// from raw.
func NewRecord(raw []byte, ic *claims.Interchange) (Record, error) {
	id := ir.DocumentHash(raw)
	rec := Record{
		Interchange: Interchange{
			ID:                 id,
			SenderID:           ic.Envelope.SenderID,
			ReceiverID:         ic.Envelope.ReceiverID,
			ControlNumber:      ic.Envelope.ControlNumber,
			GroupControlNumber: ic.Envelope.GroupControlNumber,
			Usage:              ic.Envelope.Usage,
			Size:               int64(len(raw)),
			TransactionCount:   len(ic.Batches),
			EngineVersion:      ir.EngineVersion,
			SnapshotVersion:    ir.SnapshotVersion,
		},
	}
	for i, batch := range ic.Batches {
		graph, err := ir.MarshalCanonical(ir.Snapshot(batch))
		if err != nil {
			return Record{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		hash, err := ir.GraphHash(batch)
		if err != nil {
			return Record{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		rec.Transactions = append(rec.Transactions, Transaction{
			InterchangeID:  id,
			Seq:            i,
			ControlNumber:  batch.ControlNumber.OrElse(""),
			TransactionSet: claims.TransactionName,
			GraphHash:      hash,
			Graph:          string(graph),
		})
	}
	return rec, nil
}
