package snapshots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastIDTagRoundTrip(t *testing.T) {
	tags := map[string]string{}
	SetLastIDTag(tags, 1<<63|17, 1)

	// the tag value is the fixed width hex encoding so that lexical tag
	// comparisons order by watermark
	assert.Equal(t, tags[TagKeyLastID], IDTimestampToHex(1<<63|17, 1))

	id, epoch, err := GetLastIDTag(tags)
	assert.NoError(t, err)
	assert.Equal(t, id, uint64(1<<63|17))
	assert.Equal(t, epoch, uint8(1))
}

func TestLastIDTagOrdering(t *testing.T) {
	a := map[string]string{}
	b := map[string]string{}
	SetLastIDTag(a, 1000<<20, 1)
	SetLastIDTag(b, 1001<<20, 1)
	assert.Less(t, a[TagKeyLastID], b[TagKeyLastID])
}

func TestGetLastIDTagMissing(t *testing.T) {
	_, _, err := GetLastIDTag(map[string]string{})
	assert.ErrorIs(t, err, ErrLastIDTagMissing)
}

func TestGetLastIDTagGarbage(t *testing.T) {
	_, _, err := GetLastIDTag(map[string]string{TagKeyLastID: "zz"})
	assert.Error(t, err)
	// the offending value is included for diagnosis
	assert.ErrorContains(t, err, "zz")
}
