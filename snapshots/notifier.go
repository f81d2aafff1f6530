package snapshots

import (
	"context"

	"github.com/datatrails/go-datatrails-common/azbus"
	dtcbor "github.com/datatrails/go-datatrails-common/cbor"
	"github.com/datatrails/go-datatrails-common/logger"
)

// Sender is the messaging surface the notifier requires. azbus.Sender
// satisfies it.
type Sender interface {
	Send(ctx context.Context, msg []byte, opts ...azbus.OutMessageOption) error
}

// SnapshotCommitEvent is published after a snapshot blob commit succeeds. It
// carries enough for a consumer to fetch the new blob without a list
// operation, and the watermark so that checkpointers can decide if the
// snapshot needs a new signature without fetching anything at all.
type SnapshotCommitEvent struct {
	TenantIdentity string `cbor:"1,keyasint"`
	SnapshotIndex  uint32 `cbor:"2,keyasint"`
	NodeCount      uint64 `cbor:"3,keyasint"`
	// LastID is the hex encoded, epoch prefixed, idtimestamp watermark. It
	// matches the lastid tag on the committed blob.
	LastID   string `cbor:"4,keyasint"`
	BlobPath string `cbor:"5,keyasint"`
}

// CommitNotifier publishes SnapshotCommitEvent's on behalf of a committer.
// Delivery is best effort: a commit whose notification fails is still
// committed, and the tag based discovery in the watcher will find it on the
// next poll.
type CommitNotifier struct {
	log    logger.Logger
	sender Sender
	codec  dtcbor.CBORCodec
}

func NewCommitNotifier(log logger.Logger, sender Sender) (*CommitNotifier, error) {
	codec, err := dtcbor.NewCBORCodec(
		dtcbor.NewDeterministicEncOpts(),
		dtcbor.NewDeterministicDecOpts(),
	)
	if err != nil {
		return nil, err
	}
	n := &CommitNotifier{
		log:    log,
		sender: sender,
		codec:  codec,
	}
	return n, nil
}

// Notify publishes the commit event for the provided context. The context
// must have been committed first, notifying an uncommitted context would
// advertise a blob that does not exist.
func (n *CommitNotifier) Notify(ctx context.Context, sc SnapshotContext) error {
	event := SnapshotCommitEvent{
		TenantIdentity: sc.TenantIdentity,
		SnapshotIndex:  sc.Start.SnapshotIndex,
		NodeCount:      sc.NodeCount(),
		LastID:         IDTimestampToHex(sc.Start.LastID, uint8(sc.Start.CommitmentEpoch)),
		BlobPath:       sc.BlobPath,
	}
	b, err := n.codec.MarshalCBOR(event)
	if err != nil {
		return err
	}
	n.log.Debugf("notify: %s %d %s", event.TenantIdentity, event.SnapshotIndex, event.LastID)
	return n.sender.Send(ctx, b)
}

// DecodeSnapshotCommitEvent decodes a message produced by Notify.
func DecodeSnapshotCommitEvent(codec dtcbor.CBORCodec, msg []byte) (SnapshotCommitEvent, error) {
	var event SnapshotCommitEvent
	err := codec.UnmarshalInto(msg, &event)
	if err != nil {
		return SnapshotCommitEvent{}, err
	}
	return event, nil
}
