package snapshots

import (
	"encoding/binary"
	"hash"

	"github.com/forestrie/go-hierarchy/hierarchy"
)

// ViewDigestDomainV1 is the domain separation prefix for the v1 view digest.
// It guards against a digest over the flattened node records being confused
// with any other hash our systems produce over the same byte values.
const ViewDigestDomainV1 = uint8(0x01)

// ViewState defines the details we include in our signed commitment to a
// snapshot of the hierarchy.
type ViewState struct {
	// The index of the snapshot blob the commitment binds. Note that snapshots
	// are complete views rather than increments, so unlike an append only log
	// a later snapshot does not reproduce an earlier one. The index is
	// attested so that a verifier knows exactly which blob to fetch when
	// re-computing the digest.
	SnapshotIndex uint32 `cbor:"1,keyasint"`

	// The number of node records in the snapshot. Committed to so that a
	// verifier can cross check the blob length before re-computing the
	// digest.
	NodeCount uint64 `cbor:"2,keyasint"`

	// ViewDigest is the domain separated digest over the node records in
	// their stored order. See CalculateViewDigest.
	ViewDigest []byte `cbor:"3,keyasint"`

	// Timestamp is the unix time (milliseconds) read at the time the view was
	// signed. Including it allows for the same view to be re-signed.
	Timestamp int64 `cbor:"4,keyasint"`

	// The system unique timestamp value for the most recent change included
	// in the snapshot. This is the watermark carried in the snapshot header
	// and the lastid blob tag.
	IDTimestamp uint64 `cbor:"5,keyasint"`

	// The current idtimestamp epoch (~17 year cadence. We use the unix epoch
	// as our base but roll twice as fast. so we are on epoch 1 in 2024)
	CommitmentEpoch uint32 `cbor:"6,keyasint"`
}

// CalculateViewDigest returns the digest committing to the node records of h.
//
// The digest is computed as:
//
//	H( domain_u8 || count_be8 || (nodeID_be8 || depth_be4)* )
//
// The records are visited in their stored order, which is the depth first
// pre order of the forest. Any hierarchy producing the same node sequence
// produces the same digest, regardless of how its backing arrays were
// obtained.
func CalculateViewDigest(hasher hash.Hash, h hierarchy.Hierarchy) ([]byte, error) {
	if h == nil {
		return nil, hierarchy.ErrInvalidArgument
	}
	hasher.Reset()
	_, _ = hasher.Write([]byte{ViewDigestDomainV1})
	hashWriteUint64(hasher, h.Size())
	for i := uint64(0); i < h.Size(); i++ {
		hashWriteUint64(hasher, h.NodeID(i))
		hashWriteUint32(hasher, h.Depth(i))
	}
	return hasher.Sum(nil), nil
}

// hashWriteUint64 writes a uint64 to a hasher in bigendian layout - most
// significant byte first.
func hashWriteUint64(hasher hash.Hash, value uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], value)
	_, _ = hasher.Write(b[:])
}

func hashWriteUint32(hasher hash.Hash, value uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], value)
	_, _ = hasher.Write(b[:])
}
