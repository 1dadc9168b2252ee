package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDefaultScenarios(t *testing.T) {
	scenarios := BuildDefaultScenarios(DefaultConfig())
	require.Len(t, scenarios, 5)

	assert.Equal(t, "Current Settings", scenarios[0].Name)
	assert.Equal(t, 100, scenarios[1].Config.PopulationSize)
	assert.InDelta(t, 0.1, scenarios[2].Config.MutationRate, 1e-9)
	assert.Equal(t, 300, scenarios[3].Config.Generations)
	assert.Equal(t, 0.0, scenarios[4].Config.CrossoverRate)
}

func TestBuildDefaultScenarios_SkipsNoOps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutationRate = 1
	cfg.CrossoverRate = 0
	cfg.Generations = 0

	scenarios := BuildDefaultScenarios(cfg)
	assert.Len(t, scenarios, 2)
}

func TestCompareScenarios(t *testing.T) {
	cat := mustCatalog(t, testCovers()...)
	base := testConfig()
	base.Generations = 5
	scenarios := BuildDefaultScenarios(base)

	results, err := CompareScenarios(context.Background(), scenarios, cat, testSheet, 12)
	require.NoError(t, err)
	require.Len(t, results, len(scenarios))

	for i, r := range results {
		assert.Equal(t, scenarios[i].Name, r.Scenario.Name)
		assert.Equal(t, r.Result.SheetsUsed(), r.SheetsUsed)
		assert.Equal(t, 0, r.UnplacedCount)
		assert.Greater(t, r.WastePercent, 0.0)
		assert.Less(t, r.WastePercent, 100.0)
	}

	best := BestComparison(results)
	require.GreaterOrEqual(t, best, 0)
	for _, r := range results {
		assert.False(t, r.Fitness.Less(results[best].Fitness))
	}
}

func TestCompareScenarios_InvalidConfig(t *testing.T) {
	cat := mustCatalog(t, item(10, 10))
	bad := DefaultConfig()
	bad.PopulationSize = 0

	_, err := CompareScenarios(context.Background(), []ComparisonScenario{{Name: "bad", Config: bad}}, cat, testSheet, 1)
	assert.ErrorContains(t, err, `scenario "bad"`)
}

func TestBestComparison_Empty(t *testing.T) {
	assert.Equal(t, -1, BestComparison(nil))
}
