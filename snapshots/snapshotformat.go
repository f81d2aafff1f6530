package snapshots

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/forestrie/go-hierarchy/bloom"
	"github.com/forestrie/go-hierarchy/hierarchy"
)

const (
	// NodeRecordBytes defines the width of ALL node records in the snapshot.
	// This fixed width makes it possible to compute node counts based on
	// knowing only the header and the number of bytes in the blob.
	NodeRecordBytes = 16
	// NodeRecordSizeLogBase2 supports shift based record arithmetic.
	NodeRecordSizeLogBase2 = 4

	// Node record layout
	//
	// .     | node id | depth  | <reserved> |
	// .     | 0     7 | 8 - 11 | 12      15 |
	// bytes |    8    |    4   |      4     |
	//
	// The reserved bytes allow the depth field to widen in a later version
	// without changing the record width.

	NodeRecordIDFirstByte = 0
	NodeRecordIDSize      = 8
	NodeRecordIDEnd       = NodeRecordIDFirstByte + NodeRecordIDSize

	NodeRecordDepthFirstByte = NodeRecordIDEnd
	NodeRecordDepthSize      = 4
	NodeRecordDepthEnd       = NodeRecordDepthFirstByte + NodeRecordDepthSize

	// StartHeaderSize is the size of the fixed snapshot header field.
	StartHeaderSize = 32
	StartHeaderEnd  = StartHeaderSize

	// SnapshotBloomBPE is the default bits per element used when an encoded
	// snapshot includes a prescreen region. 10 bits per element gives a false
	// positive rate of roughly 1% at the default hash count.
	SnapshotBloomBPE = 10
	// SnapshotBloomK is the default hash count, chosen as ln(2) * bpe rounded
	// to the nearest integer.
	SnapshotBloomK = 7
)

var (
	ErrSnapshotDataLengthInvalid = errors.New("the length of data is incorrect given the snapshot header")
	ErrBloomRegionInvalid        = errors.New("the bloom region declared by the snapshot header does not fit the data")
)

// NodeCountFromBlobSize returns the number of node records in a snapshot blob
// of the given size. The bloomBytes must be taken from the decoded header.
// Sizes that do not fall on a record boundary are truncated, use
// CheckSnapshotDataLength where that would mask corruption.
func NodeCountFromBlobSize(size int, bloomBytes uint32) uint64 {
	body := size - StartHeaderSize - int(bloomBytes)
	if body <= 0 {
		return 0
	}
	return uint64(body) >> NodeRecordSizeLogBase2
}

// NodesStart returns the index of the first byte of node record data.
func NodesStart(bloomBytes uint32) uint64 {
	return StartHeaderEnd + uint64(bloomBytes)
}

// SnapshotDataBytes returns the exact serialized size of a snapshot holding
// nodeCount records and a bloom region of bloomBytes.
func SnapshotDataBytes(nodeCount uint64, bloomBytes uint32) uint64 {
	return NodesStart(bloomBytes) + nodeCount*NodeRecordBytes
}

// CheckSnapshotDataLength verifies that the data length is consistent with
// the provided header and returns the node count.
func CheckSnapshotDataLength(start SnapshotStart, data []byte) (uint64, error) {
	nodesStart := NodesStart(start.BloomBytes)
	if uint64(len(data)) < nodesStart {
		return 0, fmt.Errorf(
			"%w: %d bytes, bloom region ends at %d", ErrBloomRegionInvalid, len(data), nodesStart)
	}
	body := uint64(len(data)) - nodesStart
	if body%NodeRecordBytes != 0 {
		return 0, fmt.Errorf(
			"%w: %d trailing bytes", ErrSnapshotDataLengthInvalid, body%NodeRecordBytes)
	}
	return body >> NodeRecordSizeLogBase2, nil
}

// IndexedNodeRecord returns the record bytes for node index i. No range
// checks are performed, out of range will panic. This function assumes
// nodeData is sliced to the start of the record section.
func IndexedNodeRecord(nodeData []byte, i uint64) []byte {
	return nodeData[i<<NodeRecordSizeLogBase2 : (i<<NodeRecordSizeLogBase2)+NodeRecordBytes]
}

// PutNodeRecord writes the record for node index i. As for IndexedNodeRecord,
// the burden of a range check is on the caller.
func PutNodeRecord(nodeData []byte, i uint64, nodeID uint64, depth uint32) {
	record := IndexedNodeRecord(nodeData, i)
	binary.BigEndian.PutUint64(record[NodeRecordIDFirstByte:NodeRecordIDEnd], nodeID)
	binary.BigEndian.PutUint32(record[NodeRecordDepthFirstByte:NodeRecordDepthEnd], depth)
	clear(record[NodeRecordDepthEnd:NodeRecordBytes])
}

// DecodeNodeRecord unpacks the (nodeID, depth) pair from a single record.
func DecodeNodeRecord(record []byte) (uint64, uint32) {
	return binary.BigEndian.Uint64(record[NodeRecordIDFirstByte:NodeRecordIDEnd]),
		binary.BigEndian.Uint32(record[NodeRecordDepthFirstByte:NodeRecordDepthEnd])
}

// SnapshotBloomBytes returns the byte length of the bloom prescreen region
// for a snapshot with the given node count, or 0 when either argument is 0.
// The region length is what gets recorded in SnapshotStart.BloomBytes.
func SnapshotBloomBytes(nodeCount uint64, bitsPerElement uint64) (uint32, error) {
	if nodeCount == 0 || bitsPerElement == 0 {
		return 0, nil
	}
	if err := bloom.CheckBPE(bitsPerElement); err != nil {
		return 0, err
	}
	mBits := bloom.MBitsSafeCast(bloom.MBitsV1(nodeCount, bitsPerElement))
	if mBits == 0 {
		return 0, bloom.ErrMBitsOverflow
	}
	regionBytes := bloom.RegionBytesV1(mBits)
	if regionBytes > uint64(^uint32(0)) {
		return 0, bloom.ErrMBitsOverflow
	}
	return uint32(regionBytes), nil
}

// EncodeSnapshot serializes the hierarchy into the snapshot blob format.
//
// The caller provides the header book keeping values via start. The
// BloomBytes value on start is ignored: it is recomputed here from the node
// count and bitsPerElement, and the returned data carries the corrected
// header. A bitsPerElement of 0 omits the prescreen region entirely.
//
// The records are written in the order the hierarchy presents them, which is
// expected to be depth first pre order. No shape validation is performed, use
// hierarchy.CheckShape first when the input is not already trusted.
func EncodeSnapshot(start SnapshotStart, h hierarchy.Hierarchy, bitsPerElement uint64) ([]byte, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil hierarchy", hierarchy.ErrInvalidArgument)
	}

	nodeCount := h.Size()

	bloomBytes, err := SnapshotBloomBytes(nodeCount, bitsPerElement)
	if err != nil {
		return nil, err
	}
	start.BloomBytes = bloomBytes

	data := make([]byte, SnapshotDataBytes(nodeCount, bloomBytes))

	header, err := start.MarshalBinary()
	if err != nil {
		return nil, err
	}
	copy(data[:StartHeaderEnd], header)

	var region []byte
	if bloomBytes > 0 {
		region = data[StartHeaderEnd:NodesStart(bloomBytes)]
		if err = bloom.InitV1(region, nodeCount, bitsPerElement, SnapshotBloomK); err != nil {
			return nil, err
		}
	}

	nodeData := data[NodesStart(bloomBytes):]
	for i := uint64(0); i < nodeCount; i++ {
		nodeID := h.NodeID(i)
		PutNodeRecord(nodeData, i, nodeID, h.Depth(i))
		if region == nil {
			continue
		}
		if err = bloom.InsertV1(region, nodeID); err != nil {
			return nil, err
		}
	}

	return data, nil
}

// DecodeSnapshot recovers the header and the hierarchy from snapshot blob
// data. The returned hierarchy aliases freshly allocated slices, it does not
// retain data.
func DecodeSnapshot(data []byte) (SnapshotStart, *hierarchy.ArrayHierarchy, error) {
	start := SnapshotStart{}
	if err := start.UnmarshalBinary(data); err != nil {
		return SnapshotStart{}, nil, err
	}

	nodeCount, err := CheckSnapshotDataLength(start, data)
	if err != nil {
		return SnapshotStart{}, nil, err
	}

	nodeIDs := make([]uint64, nodeCount)
	depths := make([]uint32, nodeCount)

	nodeData := data[NodesStart(start.BloomBytes):]
	for i := uint64(0); i < nodeCount; i++ {
		nodeIDs[i], depths[i] = DecodeNodeRecord(IndexedNodeRecord(nodeData, i))
	}

	h, err := hierarchy.NewArrayHierarchy(nodeIDs, depths)
	if err != nil {
		return SnapshotStart{}, nil, err
	}
	return start, h, nil
}
