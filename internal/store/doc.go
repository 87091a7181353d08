// Package store archives processed interchanges.
//
// An archive row is keyed by the content hash of the raw interchange bytes,
// so putting the same document twice is a no-op. Each interchange keeps its
// envelope control numbers and, per decoded transaction, the canonical JSON
// of the translated entity graph with its graph hash.
//
// # Drivers
//
//   - sqlite3 (default): any DSN that is not a postgres URL is a file path.
//     WAL mode, NORMAL synchronous, 5-second busy timeout.
//   - postgres: "postgres://" and "postgresql://" DSNs, via lib/pq.
//
// Queries are written with "?" placeholders and rebound for the driver.
// Listings are ordered by archived_at, then id, so results are stable.
package store
