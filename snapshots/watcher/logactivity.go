package watcher

import "github.com/forestrie/go-hierarchy/snapshots"

// LogActivity represents the per log output of the watch command
type LogActivity struct {
	// Snapshot is the index of the most recently produced snapshot
	Snapshot int `json:"snapshotindex"`
	// LogID is the identity of the most recently changed log
	// Note that encoding/json encodes the bytes as base64
	LogID snapshots.LogID `json:"logid"`

	// IDCommitted is the idtimestamp watermark for the most recent snapshot of the log
	IDCommitted string `json:"idcommitted"`
	// IDConfirmed is the idtimestamp watermark for the most recent snapshot to be checkpointed.
	IDConfirmed  string `json:"idconfirmed"`
	LastModified string `json:"lastmodified"`
	// SnapshotURL is the remote path to the most recently changed snapshot
	SnapshotURL string `json:"snapshot"`
	// CheckpointURL is the remote path to the most recently changed checkpoint
	CheckpointURL string `json:"checkpoint"`
}

// SnapshotActivities merges the collated snapshot and checkpoint tails into
// per log activity summaries. Logs are reported in log id order so that
// repeated collations diff cleanly. A log with a checkpoint but no snapshot
// in the collation horizon is not reported, the snapshot is the activity.
func (c LogTailCollator) SnapshotActivities() []LogActivity {
	var activities []LogActivity
	for _, k := range sortMapOfLogTails(c.Snapshots) {
		lt := c.Snapshots[k]
		a := LogActivity{
			Snapshot:    int(lt.Number),
			LogID:       lt.LogID,
			IDCommitted: lt.LastID,
			SnapshotURL: lt.Path,
		}
		if cp := c.Checkpoints[k]; cp != nil {
			a.IDConfirmed = cp.LastID
			a.CheckpointURL = cp.Path
		}
		activities = append(activities, a)
	}
	return activities
}
