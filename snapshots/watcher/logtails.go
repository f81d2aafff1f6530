package watcher

import (
	"math/rand"
	"slices"

	azStorageBlob "github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/forestrie/go-hierarchy/snapshots"
)

// LogTail records the newest (highest numbered) snapshot path in a log. It is
// used to represent both the most recent snapshot blob, and the most recent
// checkpoint blob
type LogTail struct {
	LogID  snapshots.LogID
	Path   string
	Number uint32
	OType  snapshots.ObjectType
	LastID string
}

// LogTailCollator is used to collate the most recently modified snapshot blob paths for all tenants in a given time horizon
type LogTailCollator struct {
	Snapshots        map[string]*LogTail
	Checkpoints      map[string]*LogTail
	Path2LogID       snapshots.LogIDFromPathFunc
	Path2ObjectIndex snapshots.ObjectIndexFromPathFunc
}

// NewLogTailCollator creates a log tail collator
func NewLogTailCollator(
	path2LogID snapshots.LogIDFromPathFunc,
	path2ObjectIndex snapshots.ObjectIndexFromPathFunc,
) LogTailCollator {
	return LogTailCollator{
		Snapshots:        make(map[string]*LogTail),
		Checkpoints:      make(map[string]*LogTail),
		Path2LogID:       path2LogID,
		Path2ObjectIndex: path2ObjectIndex,
	}
}

// sortMapOfLogTails returns a lexically sorted list of the keys to map of
// LogTails It's not a stable sort, keys that are in the right place to start
// with may move as a result of this call.
func sortMapOfLogTails(m map[string]*LogTail) []string {
	// The go lang community seems pretty divided on O(1)iterators, and I think this is still "the way"
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// shuffleMapOfLogTails returns the list of keys shuffled using rand.Shuffle
// This should be used to avoid odd biases due to fixed order treatment of tenants.
func shuffleMapOfLogTails(m map[string]*LogTail) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	rand.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	return keys
}

// SnapshotLogs returns the keys of the snapshots map specifically shuffled to
// avoid biasing service based on lexical order of tenant identities or go lang
// default key ordering
func (c LogTailCollator) SnapshotLogs() []string {
	return shuffleMapOfLogTails(c.Snapshots)
}

// SortedSnapshotLogs returns the keys of the snapshots map in sorted order
func (c LogTailCollator) SortedSnapshotLogs() []string {
	return sortMapOfLogTails(c.Snapshots)
}

// CheckpointedLogs returns the keys of the checkpoints map specifically shuffled to
// avoid biasing service based on lexical order of tenant identities or go lang
// default key ordering
func (c LogTailCollator) CheckpointedLogs() []string {
	return shuffleMapOfLogTails(c.Checkpoints)
}

// SortedCheckpointedLogs returns the keys of the checkpoints map in sorted order
func (c LogTailCollator) SortedCheckpointedLogs() []string {
	return sortMapOfLogTails(c.Checkpoints)
}

func (c LogTailCollator) SortedTails(otype snapshots.ObjectType) []*LogTail {

	var tails []*LogTail

	m := c.tails(otype)
	if m == nil {
		return nil
	}

	for _, logid := range sortMapOfLogTails(m) {
		tails = append(tails, m[string(logid)])
	}
	return tails
}

func (c LogTailCollator) Tail(logid snapshots.LogID, otype snapshots.ObjectType) *LogTail {
	m := c.tails(otype)
	if m == nil {
		return nil
	}
	return m[string(logid)]
}

func (c LogTailCollator) tails(otype snapshots.ObjectType) map[string]*LogTail {
	switch otype {
	case snapshots.ObjectSnapshotData:
		return c.Snapshots
	case snapshots.ObjectCheckpoint:
		return c.Checkpoints
	default:
		return nil
	}
}

// CollatePath considers the path of a snapshot or checkpoint blob and replaces the tail if appropriate.
// The lastid should be provided by the caller if it is known, the empty string may be used if it is not known.
func (c *LogTailCollator) CollatePath(storagePath string, lastid string) error {
	otype, number, err := c.Path2ObjectIndex(storagePath)
	if err != nil {
		return err
	}

	// if it is missing, it will be the empty string that is set
	logID := c.Path2LogID(storagePath)
	if logID == nil {
		return nil // no log ID, nothing to do
	}

	m := c.tails(otype)
	if m == nil {
		return nil
	}

	cur, ok := m[string(logID)]
	if !ok {
		lt := &LogTail{
			OType:  otype,
			LogID:  logID,
			Path:   storagePath,
			Number: number,
			LastID: lastid,
		}
		m[string(logID)] = lt
		return nil
	}
	if number <= cur.Number {
		return nil
	}
	cur.Path = storagePath
	cur.Number = number
	cur.LastID = lastid
	return nil
}

// CollatePage processes a single page of azure blob filter results and
// collates the most recent LogTail's for each log represented in the page.
func (c *LogTailCollator) CollatePage(page []*azStorageBlob.FilterBlobItem) error {
	for _, it := range page {
		err := c.CollatePath(*it.Name, "")
		if err != nil {
			return err
		}
	}
	return nil
}
