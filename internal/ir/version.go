package ir

// Version constants recorded alongside archived documents.
const (
	// SnapshotVersion is the version of the Snapshot/MarshalCanonical layout.
	SnapshotVersion = "1"

	// EngineVersion is the machete engine version.
	EngineVersion = "0.1.0"
)
