package snapshots

// LogID identifies a hierarchy log independently of any particular storage
// path schema. For tenanted storage it is the raw bytes of the tenant uuid.
type LogID []byte

type ObjectType uint8

const (
	ObjectUndefined ObjectType = iota
	ObjectSnapshotData
	ObjectCheckpoint
	ObjectPathSnapshots
	ObjectPathCheckpoints
)

const (
	HeadSnapshotIndex = ^uint32(0)
)

// LogIDFromPathFunc recovers the log identity from a storage path, returning
// nil if the path does not carry one.
type LogIDFromPathFunc func(storagePath string) LogID

// ObjectIndexFromPathFunc classifies a storage path and extracts the object
// number from its base name.
type ObjectIndexFromPathFunc func(storagePath string) (ObjectType, uint32, error)
