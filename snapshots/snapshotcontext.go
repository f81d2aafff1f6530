package snapshots

import (
	"fmt"

	"github.com/forestrie/go-hierarchy/bloom"
	"github.com/forestrie/go-hierarchy/hierarchy"
)

// SnapshotContext keeps together the data, the decoded header and the blob
// store metadata for one snapshot in a tenants series.
type SnapshotContext struct {
	TenantIdentity string

	// Creating is true when the context addresses a snapshot index that has
	// not been written yet. CommitContext relies on this to select the
	// correct optimistic concurrency guard.
	Creating bool

	LogBlobContext

	Start SnapshotStart
}

// EncodeView serializes the hierarchy into the context, replacing any
// previously held data, and stamps the watermark into both the header and
// the blob tags.
//
// lastID is the idtimestamp of the most recent change covered by the view. A
// bitsPerElement of 0 omits the bloom prescreen region.
//
// The hierarchy is recorded in the order it presents its nodes. No shape
// validation is performed here, use hierarchy.CheckShape first when the input
// is not already trusted.
func (sc *SnapshotContext) EncodeView(h hierarchy.Hierarchy, lastID uint64, bitsPerElement uint64) error {

	sc.Start.LastID = lastID

	data, err := EncodeSnapshot(sc.Start, h, bitsPerElement)
	if err != nil {
		return err
	}
	// EncodeSnapshot derives the region size from the node count, the header
	// it wrote is authoritative.
	if err = sc.Start.UnmarshalBinary(data); err != nil {
		return err
	}
	sc.Data = data

	if sc.Tags == nil {
		sc.Tags = map[string]string{}
	}
	SetLastIDTag(sc.Tags, lastID, uint8(sc.Start.CommitmentEpoch))

	return nil
}

// NodeCount returns the number of node records held by the context. It is
// derived from the data length alone, a context that has not been read (or
// encoded) has a count of 0.
func (sc *SnapshotContext) NodeCount() uint64 {
	return NodeCountFromBlobSize(len(sc.Data), sc.Start.BloomBytes)
}

// Node returns the (nodeID, depth) pair at position i of the recorded
// traversal. No range checks are performed, out of range will panic. Use
// NodeCount to establish the valid range.
func (sc *SnapshotContext) Node(i uint64) (uint64, uint32) {
	return DecodeNodeRecord(IndexedNodeRecord(sc.Data[NodesStart(sc.Start.BloomBytes):], i))
}

// Hierarchy decodes the full view held by the context. The result supports
// hierarchy.Filter directly, so a redacted replacement view can be derived
// from it and re-encoded with EncodeView.
func (sc *SnapshotContext) Hierarchy() (*hierarchy.ArrayHierarchy, error) {
	_, h, err := DecodeSnapshot(sc.Data)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// MaybeContains consults the bloom prescreen region for nodeID. A false
// result is definitive. A true result means the records must be examined,
// and is the unconditional answer for snapshots encoded without a prescreen
// region. The prescreen is only an I/O optimization, it has no bearing on
// the correctness of the recorded view.
func (sc *SnapshotContext) MaybeContains(nodeID uint64) (bool, error) {
	if sc.Start.BloomBytes == 0 {
		return true, nil
	}
	end := NodesStart(sc.Start.BloomBytes)
	if uint64(len(sc.Data)) < end {
		return false, fmt.Errorf(
			"%w: %d bytes, bloom region ends at %d", ErrBloomRegionInvalid, len(sc.Data), end)
	}
	return bloom.MaybeContainsV1(sc.Data[StartHeaderEnd:end], nodeID)
}
