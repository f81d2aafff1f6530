package snapshots

import (
	"errors"
	"fmt"
)

const (
	// TagKeyLastID tags a blob with the hex encoded, epoch prefixed
	// idtimestamp watermark it covers. Listing on this tag supports efficient
	// discovery of "snapshots to be checkpointed" both internally and by
	// independent verifiers.
	TagKeyLastID = "lastid"
)

var (
	ErrLastIDTagMissing = errors.New("the lastid tag was not present on the blob")
)

// SetLastIDTag records the idtimestamp watermark on the blob tags. The tag
// value sorts lexically in watermark order because the encoding is fixed
// width hex.
func SetLastIDTag(tags map[string]string, id uint64, epoch uint8) {
	tags[TagKeyLastID] = IDTimestampToHex(id, epoch)
}

// GetLastIDTag recovers the idtimestamp watermark and epoch from the blob
// tags.
func GetLastIDTag(tags map[string]string) (uint64, uint8, error) {
	lastid, ok := tags[TagKeyLastID]
	if !ok {
		return 0, 0, ErrLastIDTagMissing
	}
	id, epoch, err := SplitIDTimestampHex(lastid)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s", err, lastid)
	}
	return id, epoch, nil
}
