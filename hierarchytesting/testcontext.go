package hierarchytesting

import (
	"context"
	"strings"
	"testing"

	"github.com/datatrails/go-datatrails-common/azblob"
	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/stretchr/testify/require"
)

// TestContext bundles the logger and emulator backed blob store shared by the
// azurite gated tests.
type TestContext struct {
	Log    logger.Logger
	Storer *azblob.Storer
	T      *testing.T
}

type TestConfig struct {
	// StartTimeMS seeds the companion data generator and anchors its synthetic
	// idtimestamps. Force it to a fixed value so the generated forests are the
	// same from run to run.
	StartTimeMS     int64
	NodeRate        int
	TestLabelPrefix string
	Container       string // can be "", defaults to the normalized TestLabelPrefix
}

// normalizeContainerName makes a legal azure container name from a test label.
// Container names are lower case and can't contain underscores, test names
// routinely have both.
func normalizeContainerName(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), "_", "")
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	c := TestContext{
		T: t,
	}
	logger.New("INFO")
	c.Log = logger.Sugar.WithServiceName(cfg.TestLabelPrefix)

	container := cfg.Container
	if container == "" {
		container = cfg.TestLabelPrefix
	}
	container = normalizeContainerName(container)

	var err error
	c.Storer, err = azblob.NewDev(azblob.NewDevConfigFromEnv(), container)
	if err != nil {
		t.Fatalf("failed to connect to blob store emulator: %v", err)
	}
	// Each test label gets its own container, creating it on an already
	// existing container errors and that is fine.
	client := c.Storer.GetServiceClient()
	_, _ = client.CreateContainer(context.Background(), container, nil)

	return c
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

func (c *TestContext) GetStorer() *azblob.Storer {
	return c.Storer
}

// DeleteBlobsByPrefix removes every blob under the prefix. Tests use it to
// guarantee a clean tenant regardless of what earlier runs left in the shared
// emulator container.
func (c *TestContext) DeleteBlobsByPrefix(blobPrefixPath string) {
	var marker azblob.ListMarker
	for {
		r, err := c.Storer.List(
			context.Background(),
			azblob.WithListPrefix(blobPrefixPath), azblob.WithListMarker(marker))
		require.NoError(c.T, err)

		// Deleting what the page listed doesn't disturb the continuation
		// marker, it addresses a position not a snapshot.
		for _, it := range r.Items {
			require.NoError(c.T, c.Storer.Delete(context.Background(), *it.Name))
		}
		if len(r.Items) == 0 || r.Marker == nil {
			return
		}
		marker = r.Marker
	}
}
