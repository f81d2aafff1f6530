package snapshots

// Snapshot blobs are strictly sized: a fixed 32 byte header, an optional
// bloom prescreen region whose length is declared in the header, and then
// one fixed width record per retained node, in depth first pre order.
//
// Knowing only the relative resource name of the blob and its size, the node
// count and the exact location of every record can be derived computationally.
// Nothing in the body needs to be decoded to place the blob in the series.
//
// The snapshotstart is the 32 byte header field encoding the small amount of
// book keeping required to interpret the rest of the blob.
import (
	"encoding/binary"
	"errors"
)

const (

	// SnapshotStart layout
	//
	// .     | magic |<reserved>| lastid | bloom sz |<reserved>| version | epoch  |<reserved>| snap i |
	// .     | 0   3 | 4      7 | 8    15| 16     19| 20       | 21 - 22 | 23   26| 27       | 28 - 31|
	// bytes |   4   |    4     |    8   |     4    |    1     |     2   |    4   |     1    |    4   |
	//
	// The header is always considered as a big endian value for ordering
	// purposes. The reserved zero bytes can be used in later versions. Because
	// if we shift the version field left, even without incrementing it, the
	// resulting value is numerically larger than all of those for previous
	// versions.

	SnapshotStartMagicFirstByte = 0
	SnapshotStartMagicSize      = 4
	SnapshotStartMagicEnd       = SnapshotStartMagicFirstByte + SnapshotStartMagicSize
	// gap 4 - 7
	SnapshotStartLastIDFirstByte = 8
	SnapshotStartLastIDSize      = 8 // 64 bits
	SnapshotStartLastIDEnd       = SnapshotStartLastIDFirstByte + SnapshotStartLastIDSize

	SnapshotStartBloomBytesFirstByte = SnapshotStartLastIDEnd
	SnapshotStartBloomBytesSize      = 4 // 32 bit
	SnapshotStartBloomBytesEnd       = SnapshotStartBloomBytesFirstByte + SnapshotStartBloomBytesSize
	// gap 20 - 21
	SnapshotStartVersionFirstByte = 21
	SnapshotStartVersionSize      = 2 // 16 bit
	SnapshotStartVersionEnd       = SnapshotStartVersionFirstByte + SnapshotStartVersionSize
	SnapshotStartEpochFirstByte   = SnapshotStartVersionEnd
	SnapshotStartEpochSize        = 4 // 32 bit
	SnapshotStartEpochEnd         = SnapshotStartEpochFirstByte + SnapshotStartEpochSize
	// gap 27, was considered for a record width code, reserved for now
	SnapshotStartIndexFirstByte = 28
	SnapshotStartIndexSize      = 4
	SnapshotStartIndexEnd       = SnapshotStartIndexFirstByte + SnapshotStartIndexSize // 32 bit

	// SnapshotStartMagic identifies a hierarchy snapshot header. The '1'
	// doubles as a format generation marker, it changes only if the layout of
	// the 32 byte header itself changes.
	SnapshotStartMagic = "HSN1"

	SnapshotCurrentVersion = uint16(0)
)

var (
	ErrSnapshotFixedHeaderMissing  = errors.New("the fixed header for the snapshot is missing")
	ErrSnapshotFixedHeaderBadMagic = errors.New("the fixed header for the snapshot has the wrong magic")
	ErrSnapshotHeaderVersion       = errors.New("the snapshot header version is not supported")
)

// SnapshotStart defines the values encoded in the header field of every
// snapshot blob. The header field is written to the first 32 bytes of the
// blob.
type SnapshotStart struct {
	Version         uint16
	CommitmentEpoch uint32
	SnapshotIndex   uint32
	LastID          uint64
	BloomBytes      uint32
}

func NewSnapshotStart(lastID uint64, commitmentEpoch uint32, snapshotIndex uint32, bloomBytes uint32) SnapshotStart {
	return SnapshotStart{
		Version:         SnapshotCurrentVersion,
		CommitmentEpoch: commitmentEpoch,
		SnapshotIndex:   snapshotIndex,
		LastID:          lastID,
		BloomBytes:      bloomBytes,
	}
}

func (ss SnapshotStart) MarshalBinary() ([]byte, error) {
	return EncodeSnapshotStart(ss.LastID, ss.Version, ss.CommitmentEpoch, ss.SnapshotIndex, ss.BloomBytes), nil
}

func (ss *SnapshotStart) UnmarshalBinary(b []byte) error {
	return DecodeSnapshotStart(ss, b)
}

// EncodeSnapshotStart encodes the snapshot details in the prescribed header
// record format
//
// .     | magic |<reserved>| lastid | bloom sz |<reserved>| version | epoch  |<reserved>| snap i |
// .     | 0   3 | 4      7 | 8    15| 16     19| 20       | 21 - 22 | 23   26| 27       | 28 - 31|
func EncodeSnapshotStart(lastID uint64, version uint16, epoch uint32, snapshotIndex uint32, bloomBytes uint32) []byte {

	start := make([]byte, StartHeaderSize)

	copy(start[SnapshotStartMagicFirstByte:SnapshotStartMagicEnd], SnapshotStartMagic)
	binary.BigEndian.PutUint64(start[SnapshotStartLastIDFirstByte:SnapshotStartLastIDEnd], lastID)
	binary.BigEndian.PutUint32(start[SnapshotStartBloomBytesFirstByte:SnapshotStartBloomBytesEnd], bloomBytes)
	binary.BigEndian.PutUint16(start[SnapshotStartVersionFirstByte:SnapshotStartVersionEnd], version)
	binary.BigEndian.PutUint32(start[SnapshotStartEpochFirstByte:SnapshotStartEpochEnd], epoch)
	binary.BigEndian.PutUint32(start[SnapshotStartIndexFirstByte:SnapshotStartIndexEnd], snapshotIndex)
	return start
}

func DecodeSnapshotStart(ss *SnapshotStart, start []byte) error {
	if len(start) < StartHeaderSize {
		return ErrSnapshotFixedHeaderMissing
	}
	if string(start[SnapshotStartMagicFirstByte:SnapshotStartMagicEnd]) != SnapshotStartMagic {
		return ErrSnapshotFixedHeaderBadMagic
	}

	ss.LastID = binary.BigEndian.Uint64(start[SnapshotStartLastIDFirstByte:SnapshotStartLastIDEnd])
	ss.BloomBytes = binary.BigEndian.Uint32(start[SnapshotStartBloomBytesFirstByte:SnapshotStartBloomBytesEnd])
	ss.Version = binary.BigEndian.Uint16(start[SnapshotStartVersionFirstByte:SnapshotStartVersionEnd])
	ss.CommitmentEpoch = binary.BigEndian.Uint32(start[SnapshotStartEpochFirstByte:SnapshotStartEpochEnd])
	ss.SnapshotIndex = binary.BigEndian.Uint32(start[SnapshotStartIndexFirstByte:SnapshotStartIndexEnd])

	if ss.Version > SnapshotCurrentVersion {
		return ErrSnapshotHeaderVersion
	}

	return nil
}
