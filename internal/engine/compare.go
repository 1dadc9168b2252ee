package engine

import (
	"context"
	"fmt"

	"github.com/piwi3910/CoverCut/internal/model"
)

// ComparisonScenario defines a named set of search parameters to compare.
type ComparisonScenario struct {
	Name   string
	Config Config
}

// ComparisonResult holds the run result and computed statistics
// for a single scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        Result
	SheetsUsed    int
	Fitness       Fitness
	WastePercent  float64
	UnplacedCount int
}

// CompareScenarios runs the search for each scenario with the same seed and
// returns the results in scenario order. This enables side-by-side comparison
// of different parameters (e.g., population size, mutation rate, etc.).
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, catalog *model.Catalog, sheet model.Sheet, seed int64) ([]ComparisonResult, error) {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		ga, err := NewGA(scenario.Config, sheet, catalog, NewRand(seed))
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}
		result, err := ga.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("scenario %q: %w", scenario.Name, err)
		}

		wastePercent := 0.0
		if result.SheetsUsed() > 0 {
			wastePercent = 100.0 - result.Best.Layout.Efficiency()
		}

		results = append(results, ComparisonResult{
			Scenario:      scenario,
			Result:        result,
			SheetsUsed:    result.SheetsUsed(),
			Fitness:       result.Best.Fitness,
			WastePercent:  wastePercent,
			UnplacedCount: len(result.Unplaced()),
		})
	}

	return results, nil
}

// BestComparison returns the index of the result with the best fitness, or -1
// when results is empty. Ties keep the earlier scenario.
func BestComparison(results []ComparisonResult) int {
	best := -1
	for i, r := range results {
		if best < 0 || r.Fitness.Less(results[best].Fitness) {
			best = i
		}
	}
	return best
}

// BuildDefaultScenarios generates a set of comparison scenarios based on
// the current parameters, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base Config) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{
			Name:   "Current Settings",
			Config: base,
		},
	}

	// Scenario: Double population
	bigger := base
	bigger.PopulationSize = base.PopulationSize * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("Population %d", bigger.PopulationSize),
		Config: bigger,
	})

	// Scenario: Ten times the mutation rate, capped at 1
	if base.MutationRate < 1 {
		mut := base
		mut.MutationRate = base.MutationRate * 10
		if mut.MutationRate == 0 {
			mut.MutationRate = 0.1
		}
		if mut.MutationRate > 1 {
			mut.MutationRate = 1
		}
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("Mutation %.2f", mut.MutationRate),
			Config: mut,
		})
	}

	// Scenario: Twice as many generations
	if base.Generations > 0 {
		longer := base
		longer.Generations = base.Generations * 2
		scenarios = append(scenarios, ComparisonScenario{
			Name:   fmt.Sprintf("%d Generations", longer.Generations),
			Config: longer,
		})
	}

	// Scenario: No crossover, mutation only
	if base.CrossoverRate > 0 {
		noCross := base
		noCross.CrossoverRate = 0
		scenarios = append(scenarios, ComparisonScenario{
			Name:   "No Crossover",
			Config: noCross,
		})
	}

	return scenarios
}
