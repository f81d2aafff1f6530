package snapshots

import (
	"testing"

	"github.com/forestrie/go-hierarchy/hierarchytesting"
)

func NewAzuriteTestContext(
	t *testing.T,
	testLabelPrefix string,
) (hierarchytesting.TestContext, hierarchytesting.TestGenerator, hierarchytesting.TestConfig) {
	cfg := hierarchytesting.TestConfig{
		StartTimeMS: (1698342521) * 1000, NodeRate: 500,
		TestLabelPrefix: testLabelPrefix,
	}

	tc := hierarchytesting.NewTestContext(t, cfg)
	g := hierarchytesting.NewTestGenerator(
		t, cfg.StartTimeMS/1000,
		hierarchytesting.TestGeneratorConfig{
			StartTimeMS:     cfg.StartTimeMS,
			NodeRate:        cfg.NodeRate,
			TestLabelPrefix: cfg.TestLabelPrefix,
		})
	return tc, g, cfg
}
