package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piwi3910/CoverCut/internal/model"
)

// scriptedRand replays fixed draws. Intn values are reduced modulo n.
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (s *scriptedRand) Intn(n int) int {
	if len(s.ints) == 0 {
		panic("scriptedRand: out of ints")
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v % n
}

func (s *scriptedRand) Float64() float64 {
	if len(s.floats) == 0 {
		panic("scriptedRand: out of floats")
	}
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func (s *scriptedRand) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func testCovers() []model.ItemInput {
	return model.ExpandCovers([]model.Cover{
		{Kind: model.KindBook, Size: "A5", Quantity: 4},
		{Kind: model.KindNotebook, Size: "A4", Quantity: 3},
		{Kind: model.KindBook, Size: "A6", Binding: model.BindingCustomSpine, Spine: 3, Quantity: 5},
		{Kind: model.KindBook, Size: "Pocket", Quantity: 2},
	})
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 15
	cfg.CheckInvariants = true
	return cfg
}

var testSheet = model.Sheet{Width: 100, Height: 70}

func newTestGA(t *testing.T, cfg Config, seed int64) *GA {
	t.Helper()
	cat := mustCatalog(t, testCovers()...)
	ga, err := NewGA(cfg, testSheet, cat, NewRand(seed))
	require.NoError(t, err)
	return ga
}

func TestNewGA_RejectsInvalidInput(t *testing.T) {
	cat := mustCatalog(t, item(10, 10))

	_, err := NewGA(DefaultConfig(), model.Sheet{Width: 0, Height: 10}, cat, nil)
	var invalid *model.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "sheet.width", invalid.Field)

	_, err = NewGA(DefaultConfig(), testSheet, nil, nil)
	assert.True(t, errors.Is(err, model.ErrEmptyCatalog))

	cfg := DefaultConfig()
	cfg.PopulationSize = 0
	_, err = NewGA(cfg, testSheet, cat, nil)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "population_size", invalid.Field)

	cfg = DefaultConfig()
	cfg.MutationRate = 1.5
	_, err = NewGA(cfg, testSheet, cat, nil)
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "mutation_rate", invalid.Field)
}

func TestOptimize_EmptyCatalog(t *testing.T) {
	_, err := Optimize(context.Background(), nil, testSheet, DefaultConfig(), 1)
	assert.True(t, errors.Is(err, model.ErrEmptyCatalog))
}

func TestOrderChild(t *testing.T) {
	base := []int{0, 1, 2, 3, 4, 5, 6, 7}
	donor := []int{7, 6, 5, 4, 3, 2, 1, 0}

	child := orderChild(base, donor, 2, 4)
	assert.Equal(t, []int{6, 5, 2, 3, 4, 1, 0, 7}, child)
}

func TestOrderCrossover_SegmentPreservation(t *testing.T) {
	// Cut points 1 and 3 map to the distinct pair (1, 4).
	ga := &GA{config: DefaultConfig(), rng: &scriptedRand{ints: []int{1, 3}}}
	a := []int{0, 1, 2, 3, 4, 5}
	b := []int{5, 3, 1, 4, 0, 2}

	c1, c2 := ga.orderCrossover(a, b)
	assert.Equal(t, a[1:5], c1[1:5])
	assert.Equal(t, b[1:5], c2[1:5])
	require.NoError(t, ValidatePermutation(c1, 6))
	require.NoError(t, ValidatePermutation(c2, 6))
}

func TestOrderCrossover_RandomizedInvariants(t *testing.T) {
	rng := NewRand(99)
	for n := 2; n < 30; n++ {
		for trial := 0; trial < 20; trial++ {
			a, b := rng.Perm(n), rng.Perm(n)
			lo, hi := distinctPair(rng, n)
			if lo > hi {
				lo, hi = hi, lo
			}
			c1, c2 := orderChild(a, b, lo, hi), orderChild(b, a, lo, hi)

			require.NoError(t, ValidatePermutation(c1, n))
			require.NoError(t, ValidatePermutation(c2, n))
			assert.Equal(t, a[lo:hi+1], c1[lo:hi+1])
			assert.Equal(t, b[lo:hi+1], c2[lo:hi+1])
		}
	}
}

func TestOrderCrossover_ShortOrdersAreCopied(t *testing.T) {
	ga := &GA{config: DefaultConfig(), rng: &scriptedRand{}}
	a := []int{0}
	c1, c2 := ga.orderCrossover(a, []int{0})
	assert.Equal(t, []int{0}, c1)
	assert.Equal(t, []int{0}, c2)
	c1[0] = 9
	assert.Equal(t, 0, a[0])
}

func TestMutate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MutationRate = 0.5

	ga := &GA{config: cfg, rng: &scriptedRand{floats: []float64{0.9}}}
	genes := []int{0, 1, 2, 3}
	ga.mutate(genes)
	assert.Equal(t, []int{0, 1, 2, 3}, genes, "trial failed, no swap")

	// Positions 3 and 0: the second draw of 0 stays below 3.
	ga = &GA{config: cfg, rng: &scriptedRand{floats: []float64{0.1}, ints: []int{3, 0}}}
	ga.mutate(genes)
	assert.Equal(t, []int{3, 1, 2, 0}, genes)

	// Second draw equal to the first is shifted so the positions differ.
	ga = &GA{config: cfg, rng: &scriptedRand{floats: []float64{0.1}, ints: []int{1, 1}}}
	ga.mutate(genes)
	assert.Equal(t, []int{3, 2, 1, 0}, genes)
}

func TestTournamentSelect_PicksFittest(t *testing.T) {
	population := []Candidate{
		{Genes: []int{0}, Fitness: Feasible(3)},
		{Genes: []int{1}, Fitness: Infeasible()},
		{Genes: []int{2}, Fitness: Feasible(1.5)},
	}
	ga := &GA{config: DefaultConfig(), rng: NewRand(5)}
	for i := 0; i < 20; i++ {
		winner := ga.tournamentSelect(population)
		assert.Equal(t, 2, winner.Genes[0])
	}
}

func TestTournamentSelect_SamplesWithoutReplacement(t *testing.T) {
	population := []Candidate{
		{Genes: []int{0}, Fitness: Feasible(1)},
		{Genes: []int{1}, Fitness: Feasible(2)},
		{Genes: []int{2}, Fitness: Feasible(3)},
		{Genes: []int{3}, Fitness: Feasible(4)},
	}
	// These draws pick indices 3, 2 and 1 without reusing any.
	ga := &GA{config: DefaultConfig(), rng: &scriptedRand{ints: []int{3, 1, 0}}}
	winner := ga.tournamentSelect(population)
	assert.Equal(t, 1, winner.Genes[0])
}

func TestTournamentSelect_ReusesScratchPool(t *testing.T) {
	population := make([]Candidate, 8)
	for i := range population {
		population[i] = Candidate{Genes: []int{i}, Fitness: Feasible(float64(i + 1))}
	}
	ga := &GA{config: DefaultConfig(), rng: NewRand(12)}

	ga.tournamentSelect(population)
	pool := ga.pool
	for i := 0; i < 50; i++ {
		ga.tournamentSelect(population)
	}
	require.Len(t, ga.pool, len(population))
	assert.Same(t, &pool[0], &ga.pool[0], "pool is allocated once per population size")
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, ga.pool, "swaps are undone after each draw")

	// Same draws as a fresh pool.
	fresh := &GA{config: DefaultConfig(), rng: &scriptedRand{ints: []int{7, 6, 5}}}
	reused := &GA{config: DefaultConfig(), rng: &scriptedRand{ints: []int{7, 6, 5, 7, 6, 5}}}
	reused.tournamentSelect(population)
	assert.Equal(t, fresh.tournamentSelect(population).Genes, reused.tournamentSelect(population).Genes)
}

func TestReproduce_ElitismAndPermutations(t *testing.T) {
	ga := newTestGA(t, testConfig(), 17)
	population := ga.initPopulation()
	require.NoError(t, ga.evaluatePopulation(context.Background(), population))

	best := population[4].Clone()
	next, err := ga.reproduce(population, best)
	require.NoError(t, err)

	require.Len(t, next, ga.config.PopulationSize)
	assert.Equal(t, best.Genes, next[0].Genes)
	next[0].Genes[0], next[0].Genes[1] = next[0].Genes[1], next[0].Genes[0]
	assert.NotEqual(t, best.Genes, next[0].Genes, "elite must not alias the snapshot")

	for _, c := range next {
		require.NoError(t, ValidatePermutation(c.Genes, ga.catalog.Len()))
	}
}

func TestReproduce_OddPopulationTruncates(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 4
	ga := newTestGA(t, cfg, 3)
	population := ga.initPopulation()
	require.NoError(t, ga.evaluatePopulation(context.Background(), population))

	next, err := ga.reproduce(population, population[0].Clone())
	require.NoError(t, err)
	assert.Len(t, next, 4)
}

func TestValidatePermutation(t *testing.T) {
	assert.NoError(t, ValidatePermutation([]int{2, 0, 1}, 3))
	assert.Error(t, ValidatePermutation([]int{0, 1}, 3))
	assert.Error(t, ValidatePermutation([]int{0, 0, 1}, 3))
	assert.Error(t, ValidatePermutation([]int{0, 1, 3}, 3))
	assert.Error(t, ValidatePermutation([]int{0, -1, 2}, 3))
}

func TestRun_SingleCandidateSingleGeneration(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PopulationSize = 1
	cfg.Generations = 1
	ga := newTestGA(t, cfg, 42)

	res, err := ga.Run(context.Background())
	require.NoError(t, err)

	expected := NewRand(42).Perm(ga.catalog.Len())
	assert.Equal(t, expected, res.Best.Genes)
	assert.Equal(t, 1, res.Generations)
	assert.Equal(t, StopCompleted, res.Stopped)
	assert.True(t, res.Feasible())
}

func TestRun_ZeroGenerationsEvaluatesInitialCandidate(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 0
	ga := newTestGA(t, cfg, 8)

	res, err := ga.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Generations)
	assert.Empty(t, res.History)
	assert.True(t, res.Feasible())
	assert.Equal(t, NewRand(8).Perm(ga.catalog.Len()), res.Best.Genes)
}

func TestRun_BestNeverGetsWorse(t *testing.T) {
	ga := newTestGA(t, testConfig(), 1)

	res, err := ga.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.History, 15)

	for i := 1; i < len(res.History); i++ {
		prev, cur := res.History[i-1].Best, res.History[i].Best
		assert.False(t, prev.Less(cur), "generation %d best %s worse than %s", i, cur, prev)
		assert.False(t, res.History[i].BestInGen.Less(cur))
	}
	assert.Equal(t, res.History[len(res.History)-1].Best, res.Best.Fitness)
}

func TestRun_BestLayoutIsConsistent(t *testing.T) {
	ga := newTestGA(t, testConfig(), 2)

	res, err := ga.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, ValidatePermutation(res.Best.Genes, ga.catalog.Len()))
	require.NoError(t, res.Best.Layout.Validate())
	assert.Equal(t, ga.catalog.Len(), res.Best.Layout.PlacedCount())
	assert.Empty(t, res.Unplaced())
	assert.NotEmpty(t, res.RunID)

	// The stored layout is what the genes produce.
	again := res.Best.Clone()
	Evaluate(&again, testSheet, ga.catalog)
	if diff := cmp.Diff(res.Best.Layout, again.Layout); diff != "" {
		t.Errorf("best layout differs from re-evaluation (-stored +fresh):\n%s", diff)
	}
	assert.Equal(t, res.Best.Fitness, again.Fitness)
}

func TestRun_DeterministicAcrossWorkers(t *testing.T) {
	cfg := testConfig()
	seq, err := newTestGA(t, cfg, 77).Run(context.Background())
	require.NoError(t, err)

	cfg.Workers = 4
	par, err := newTestGA(t, cfg, 77).Run(context.Background())
	require.NoError(t, err)

	opts := cmp.Options{
		cmpopts.IgnoreFields(Result{}, "RunID", "Elapsed"),
		cmpopts.IgnoreFields(GenerationStat{}, "Duration"),
	}
	if diff := cmp.Diff(seq, par, opts); diff != "" {
		t.Errorf("parallel run differs from sequential run (-seq +par):\n%s", diff)
	}
}

func TestRun_UnplaceableItemsSurface(t *testing.T) {
	inputs := append(testCovers(), model.ItemInput{Width: 150, Height: 150, Name: "poster"})
	cfg := testConfig()

	res, err := Optimize(context.Background(), inputs, testSheet, cfg, 4)
	require.NoError(t, err)
	require.Len(t, res.Unplaced(), 1)
	assert.Equal(t, "poster", res.Unplaced()[0].Name)
	assert.True(t, res.Feasible())
	assert.Equal(t, len(inputs)-1, res.Best.Layout.PlacedCount())
}

func TestRun_NoFeasibleLayout(t *testing.T) {
	inputs := []model.ItemInput{{Width: 150, Height: 150, Name: "poster"}}

	res, err := Optimize(context.Background(), inputs, testSheet, testConfig(), 4)
	require.NoError(t, err)
	assert.False(t, res.Feasible())
	assert.Equal(t, 0, res.SheetsUsed())
	assert.Len(t, res.Unplaced(), 1)
}

func TestRun_Cancelled(t *testing.T) {
	ga := newTestGA(t, testConfig(), 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := ga.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, res.Stopped)
	assert.Equal(t, 0, res.Generations)
	require.NoError(t, ValidatePermutation(res.Best.Genes, ga.catalog.Len()))
	assert.True(t, res.Feasible(), "best so far is evaluated even when cancelled early")
}

func TestRun_PatienceStopsEarly(t *testing.T) {
	cfg := testConfig()
	cfg.Generations = 1000
	cfg.Patience = 3
	cat := mustCatalog(t, item(40, 30))
	ga, err := NewGA(cfg, testSheet, cat, NewRand(6))
	require.NoError(t, err)

	res, err := ga.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StopConverged, res.Stopped)
	assert.Equal(t, 4, res.Generations)
	assert.True(t, res.History[0].Improved)
	assert.False(t, res.History[3].Improved)
}

func TestRun_RecordsMetrics(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 6
	cfg.Generations = 3
	ga := newTestGA(t, cfg, 9)
	reg := prometheus.NewRegistry()
	ga.Metrics = NewMetrics(reg)

	res, err := ga.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3.0, testutil.ToFloat64(ga.Metrics.Generations))
	assert.Equal(t, 18.0, testutil.ToFloat64(ga.Metrics.Evaluations))
	assert.Equal(t, float64(res.SheetsUsed()), testutil.ToFloat64(ga.Metrics.BestSheets))
	assert.InDelta(t, res.Best.Fitness.Score, testutil.ToFloat64(ga.Metrics.BestFitness), 1e-9)
	assert.Equal(t, 1, testutil.CollectAndCount(ga.Metrics.GenerationDuration))
}

func TestRun_InfeasibleRunReportsInfiniteFitness(t *testing.T) {
	cfg := testConfig()
	cfg.PopulationSize = 4
	cfg.Generations = 2
	cat := mustCatalog(t, model.ItemInput{Width: 150, Height: 150, Name: "poster"})
	ga, err := NewGA(cfg, testSheet, cat, NewRand(4))
	require.NoError(t, err)
	ga.Metrics = NewMetrics(prometheus.NewRegistry())

	res, err := ga.Run(context.Background())
	require.NoError(t, err)
	require.False(t, res.Feasible())

	assert.True(t, math.IsInf(testutil.ToFloat64(ga.Metrics.BestFitness), 1))
	assert.Equal(t, 0.0, testutil.ToFloat64(ga.Metrics.BestSheets))
}

func TestConfigFromAppConfig(t *testing.T) {
	app := model.DefaultAppConfig()
	app.Patience = 5
	app.Workers = 3
	app.TournamentSize = 0

	cfg := ConfigFromAppConfig(app)
	assert.Equal(t, 60, cfg.PopulationSize)
	assert.Equal(t, 80, cfg.Generations)
	assert.Equal(t, 0.7, cfg.CrossoverRate)
	assert.Equal(t, 0.01, cfg.MutationRate)
	assert.Equal(t, 3, cfg.TournamentSize)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 5, cfg.Patience)
}
