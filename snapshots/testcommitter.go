//go:build integration && azurite

package snapshots

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/azkeys"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-hierarchy/hierarchy"
	"github.com/forestrie/go-hierarchy/hierarchytesting"
	"github.com/stretchr/testify/require"
)

type TestViewCommitterConfig struct {
	CommitmentEpoch    uint32
	CheckpointOnCommit bool
}

type TestViewCommitter struct {
	cfg           TestViewCommitterConfig
	log           logger.Logger
	g             hierarchytesting.TestGenerator
	tc            hierarchytesting.TestContext
	committer     SnapshotCommitter
	LastCommitted SnapshotContext

	// Forest accumulates the synthetic log. Each AddNodes call extends it and
	// snapshots the whole of it, the way a production snapshotter views a
	// growing log.
	Forest *hierarchy.ArrayHierarchy

	CheckpointIssuer string
	ViewSigner       ViewSigner
	CoseSigner       *azkeys.TestCoseSigner
	CheckpointerKey  *ecdsa.PrivateKey
}

// NewTestViewCommitter creates a minimal view committer for use with
// integration tests that need to populate snapshot series.
func NewTestViewCommitter(
	cfg TestViewCommitterConfig,
	tc hierarchytesting.TestContext,
	g hierarchytesting.TestGenerator,
) (TestViewCommitter, error) {

	log := logger.Sugar.WithServiceName("viewbuilderv1")
	c := TestViewCommitter{
		cfg: cfg,
		log: logger.Sugar.WithServiceName("TestViewCommitter"),
		tc:  tc,
		g:   g,
		committer: *NewSnapshotCommitter(
			SnapshotCommitterConfig{CommitmentEpoch: cfg.CommitmentEpoch}, log, tc.GetStorer()),
	}
	if !c.cfg.CheckpointOnCommit {
		return c, nil
	}

	c.CheckpointIssuer = "checkpoints.synsation.org"
	key := TestGenerateECKey(tc.T, elliptic.P256())
	c.CheckpointerKey = &key
	c.CoseSigner = azkeys.NewTestCoseSigner(tc.T, key)
	codec, err := NewViewSignerCodec()
	require.NoError(tc.T, err)
	c.ViewSigner = NewViewSigner(c.CheckpointIssuer, codec)
	return c, nil
}

func (c *TestViewCommitter) GetCurrentContext(
	ctx context.Context, tenantIdentity string) (SnapshotContext, error) {
	return c.committer.GetCurrentContext(ctx, tenantIdentity)
}

// ContextCommitted checkpoints the committed snapshot if the committer is
// configured with CheckpointOnCommit
func (c *TestViewCommitter) ContextCommitted(
	ctx context.Context, tenantIdentity string, sc SnapshotContext) error {
	if !c.cfg.CheckpointOnCommit {
		return nil
	}

	nodeCount := sc.NodeCount()
	if nodeCount == 0 {
		return errors.New("no nodes to checkpoint")
	}
	h, err := sc.Hierarchy()
	if err != nil {
		return err
	}
	digest, err := CalculateViewDigest(sha256.New(), h)
	if err != nil {
		return err
	}

	state := ViewState{
		SnapshotIndex:   sc.Start.SnapshotIndex,
		NodeCount:       nodeCount,
		ViewDigest:      digest,
		Timestamp:       time.Now().UnixMilli(),
		CommitmentEpoch: c.cfg.CommitmentEpoch,
		IDTimestamp:     sc.Start.LastID,
	}

	subject := TenantSnapshotBlobPath(tenantIdentity, uint64(sc.Start.SnapshotIndex))
	publicKey, err := c.CoseSigner.PublicKey()
	if err != nil {
		return fmt.Errorf("unable to get public key for signing key %w", err)
	}

	keyIdentifier := c.CoseSigner.KeyIdentifier()
	data, err := c.ViewSigner.Sign1(c.CoseSigner, keyIdentifier, publicKey, subject, state, nil)
	if err != nil {
		return err
	}

	blobPath := TenantCheckpointBlobPath(tenantIdentity, sc.Start.SnapshotIndex)

	// Ensure we set the tag for the watermark covered by the checkpoint. This
	// supports efficient discovery of "snapshots to be checkpointed" both
	// internally and by independent verifiers.

	lastid := IDTimestampToHex(state.IDTimestamp, uint8(sc.Start.CommitmentEpoch))
	tags := map[string]string{}
	tags[TagKeyLastID] = lastid

	// just put it hard, without the etag check
	_, err = c.committer.Store.Put(ctx, blobPath, azblob.NewBytesReaderCloser(data), azblob.WithTags(tags))
	if err != nil {
		return err
	}
	return nil
}

// AddNodes extends the synthetic log by count nodes and commits a snapshot of
// the result.
func (c *TestViewCommitter) AddNodes(
	ctx context.Context, tenantIdentity string, count int) error {
	if count == 0 {
		return nil
	}
	sc, err := c.committer.GetCurrentContext(ctx, tenantIdentity)
	if err != nil {
		c.log.Infof("AddNodes: %v", err)
		return err
	}

	if c.Forest == nil {
		c.Forest = c.g.GenerateForest(count)
	} else {
		c.Forest = c.g.GrowForest(c.Forest, count)
	}

	lastID := c.Forest.NodeID(c.Forest.Size() - 1)
	err = sc.EncodeView(c.Forest, lastID, SnapshotBloomBPE)
	if err != nil {
		c.log.Infof("AddNodes: %v", err)
		return err
	}

	c.LastCommitted = sc

	_, err = c.committer.CommitContext(ctx, sc)
	if err != nil {
		c.log.Infof("AddNodes: %v", err)
		return err
	}
	err = c.ContextCommitted(ctx, tenantIdentity, sc)
	if err != nil {
		return err
	}

	return nil
}
