package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	"github.com/piwi3910/CoverCut/internal/model"
)

// Config holds parameters for the genetic optimizer.
type Config struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	CrossoverRate  float64 `json:"crossover_rate"`
	MutationRate   float64 `json:"mutation_rate"`
	TournamentSize int     `json:"tournament_size"`

	// Workers is the number of goroutines packing candidates in parallel.
	// Values below 2 evaluate sequentially.
	Workers int `json:"workers"`

	// Patience stops the run after this many generations without an
	// improvement of the best layout. Zero always runs every generation.
	Patience int `json:"patience"`

	// CheckInvariants validates every crossover child as a permutation.
	CheckInvariants bool `json:"check_invariants,omitempty"`
}

// DefaultConfig returns the standard search parameters.
func DefaultConfig() Config {
	return Config{
		PopulationSize: 50,
		Generations:    150,
		CrossoverRate:  0.7,
		MutationRate:   0.01,
		TournamentSize: 3,
		Workers:        1,
	}
}

// ConfigFromAppConfig builds a Config from the saved application defaults.
func ConfigFromAppConfig(c model.AppConfig) Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = c.PopulationSize
	cfg.Generations = c.Generations
	cfg.CrossoverRate = c.CrossoverRate
	cfg.MutationRate = c.MutationRate
	if c.TournamentSize > 0 {
		cfg.TournamentSize = c.TournamentSize
	}
	cfg.Workers = c.Workers
	cfg.Patience = c.Patience
	return cfg
}

func (c Config) validate() error {
	switch {
	case c.PopulationSize < 1:
		return &model.InvalidInputError{Field: "population_size", Value: float64(c.PopulationSize)}
	case c.Generations < 0:
		return &model.InvalidInputError{Field: "generations", Value: float64(c.Generations)}
	case c.CrossoverRate < 0 || c.CrossoverRate > 1:
		return &model.InvalidInputError{Field: "crossover_rate", Value: c.CrossoverRate}
	case c.MutationRate < 0 || c.MutationRate > 1:
		return &model.InvalidInputError{Field: "mutation_rate", Value: c.MutationRate}
	case c.TournamentSize < 1:
		return &model.InvalidInputError{Field: "tournament_size", Value: float64(c.TournamentSize)}
	case c.Workers < 0:
		return &model.InvalidInputError{Field: "workers", Value: float64(c.Workers)}
	case c.Patience < 0:
		return &model.InvalidInputError{Field: "patience", Value: float64(c.Patience)}
	}
	return nil
}

// Candidate is one item order together with the layout and fitness it
// produced when last evaluated.
type Candidate struct {
	Genes   []int        `json:"genes"`
	Layout  model.Layout `json:"layout"`
	Fitness Fitness      `json:"fitness"`
}

// Clone returns a deep copy sharing no storage with c.
func (c Candidate) Clone() Candidate {
	return Candidate{
		Genes:   append([]int(nil), c.Genes...),
		Layout:  c.Layout.Clone(),
		Fitness: c.Fitness,
	}
}

// StopReason says why a run ended.
type StopReason string

const (
	StopCompleted StopReason = "completed" // Ran every configured generation
	StopConverged StopReason = "converged" // Patience exhausted
	StopCancelled StopReason = "cancelled" // Context done
)

// GenerationStat summarizes one generation after evaluation. Best and
// BestSheets describe the best layout seen so far; BestInGen only this
// generation. MeanScore averages the feasible candidates.
type GenerationStat struct {
	Generation int           `json:"generation"`
	Best       Fitness       `json:"best"`
	BestInGen  Fitness       `json:"best_in_gen"`
	MeanScore  float64       `json:"mean_score"`
	Infeasible int           `json:"infeasible"`
	BestSheets int           `json:"best_sheets"`
	Improved   bool          `json:"improved"`
	Duration   time.Duration `json:"duration"`
}

// Result is the outcome of a run.
type Result struct {
	RunID       string           `json:"run_id"`
	Best        Candidate        `json:"best"`
	History     []GenerationStat `json:"history"`
	Generations int              `json:"generations"` // Generations actually evaluated
	Stopped     StopReason       `json:"stopped"`
	Elapsed     time.Duration    `json:"elapsed"`
}

// Feasible reports whether the best layout used at least one sheet.
func (r Result) Feasible() bool {
	return r.Best.Fitness.Feasible
}

// SheetsUsed returns the sheet count of the best layout.
func (r Result) SheetsUsed() int {
	return r.Best.Layout.SheetCount()
}

// Unplaced returns the items that fit the sheet in neither orientation.
func (r Result) Unplaced() []model.ItemSpec {
	return r.Best.Layout.Unplaced
}

// GA is a genetic search over item orders. A GA is not safe for concurrent
// use; create one per run.
type GA struct {
	config  Config
	sheet   model.Sheet
	catalog *model.Catalog
	rng     Rand

	// Tournament scratch: pool is the identity permutation between calls,
	// swaps records the positions drawn so they can be undone.
	pool  []int
	swaps []int

	// Metrics, when set, receives per-generation progress.
	Metrics *Metrics
}

// NewGA validates the inputs and returns a GA ready to Run.
func NewGA(config Config, sheet model.Sheet, catalog *model.Catalog, rng Rand) (*GA, error) {
	if err := sheet.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, model.ErrEmptyCatalog
	}
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("genetic config: %w", err)
	}
	if rng == nil {
		rng = NewRand(0)
	}
	return &GA{config: config, sheet: sheet, catalog: catalog, rng: rng}, nil
}

// Run evolves the population for the configured number of generations and
// returns the best candidate seen. The context is checked between
// generations; when it is done Run returns the best so far along with the
// context's error.
func (g *GA) Run(ctx context.Context) (Result, error) {
	logger := klog.FromContext(ctx).WithValues("items", g.catalog.Len())
	start := time.Now()
	res := Result{RunID: uuid.NewString(), Stopped: StopCompleted}

	logger.V(1).Info("Starting optimization",
		"runID", res.RunID,
		"population", g.config.PopulationSize,
		"generations", g.config.Generations,
		"crossover", g.config.CrossoverRate,
		"mutation", g.config.MutationRate,
		"sheet", fmt.Sprintf("%gx%g", g.sheet.Width, g.sheet.Height))

	population := g.initPopulation()
	var best Candidate
	hasBest := false
	stale := 0

	finish := func() Result {
		if !hasBest {
			best = population[0].Clone()
			Evaluate(&best, g.sheet, g.catalog)
			g.Metrics.observeEvaluations(1)
		}
		res.Best = best
		res.Elapsed = time.Since(start)
		return res
	}

	for gen := 0; gen < g.config.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			res.Stopped = StopCancelled
			logger.Info("Optimization cancelled", "generation", gen, "best", best.Fitness)
			return finish(), err
		}
		genStart := time.Now()

		if err := g.evaluatePopulation(ctx, population); err != nil {
			res.Stopped = StopCancelled
			return finish(), err
		}

		stat := GenerationStat{Generation: gen}
		var feasibleSum float64
		genBest := 0
		for i := range population {
			c := &population[i]
			if c.Fitness.Less(population[genBest].Fitness) {
				genBest = i
			}
			if c.Fitness.Feasible {
				feasibleSum += c.Fitness.Score
			} else {
				stat.Infeasible++
			}
			if !hasBest || c.Fitness.Less(best.Fitness) {
				best = c.Clone()
				hasBest = true
				stat.Improved = true
			}
		}
		if n := len(population) - stat.Infeasible; n > 0 {
			stat.MeanScore = feasibleSum / float64(n)
		}
		stat.BestInGen = population[genBest].Fitness
		stat.Best = best.Fitness
		stat.BestSheets = best.Layout.SheetCount()
		res.Generations = gen + 1

		if stat.Improved {
			stale = 0
			logger.V(2).Info("New best layout", "generation", gen, "fitness", best.Fitness, "sheets", stat.BestSheets)
		} else {
			stale++
		}

		converged := g.config.Patience > 0 && stale >= g.config.Patience
		if !converged && gen < g.config.Generations-1 {
			next, err := g.reproduce(population, best)
			if err != nil {
				return finish(), err
			}
			population = next
		}

		stat.Duration = time.Since(genStart)
		res.History = append(res.History, stat)
		g.Metrics.observeGeneration(stat, best)

		if gen%10 == 0 {
			logger.Info("Progress", "generation", gen, "of", g.config.Generations, "best", best.Fitness)
		}
		if converged {
			res.Stopped = StopConverged
			logger.Info("Stopping early", "generation", gen, "patience", g.config.Patience, "best", best.Fitness)
			break
		}
	}

	out := finish()
	logger.V(1).Info("Optimization finished",
		"runID", out.RunID,
		"stopped", out.Stopped,
		"generations", out.Generations,
		"sheets", out.SheetsUsed(),
		"fitness", out.Best.Fitness,
		"unplaced", len(out.Unplaced()),
		"elapsed", out.Elapsed)
	return out, nil
}

// initPopulation creates PopulationSize independent random orders.
func (g *GA) initPopulation() []Candidate {
	n := g.catalog.Len()
	population := make([]Candidate, g.config.PopulationSize)
	for i := range population {
		population[i] = Candidate{Genes: g.rng.Perm(n)}
	}
	return population
}

// evaluatePopulation packs and scores every candidate. Each candidate only
// touches its own storage, so with Workers > 1 they are evaluated in parallel.
func (g *GA) evaluatePopulation(ctx context.Context, population []Candidate) error {
	if g.config.Workers < 2 {
		for i := range population {
			Evaluate(&population[i], g.sheet, g.catalog)
		}
		g.Metrics.observeEvaluations(len(population))
		return nil
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Workers)
	for i := range population {
		c := &population[i]
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			Evaluate(c, g.sheet, g.catalog)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	g.Metrics.observeEvaluations(len(population))
	return nil
}

// reproduce builds the next population: the best snapshot first, then
// children of tournament-selected parent pairs.
func (g *GA) reproduce(population []Candidate, best Candidate) ([]Candidate, error) {
	size := g.config.PopulationSize
	next := make([]Candidate, 0, size+1)
	next = append(next, best.Clone())

	for len(next) < size {
		p1 := g.tournamentSelect(population)
		p2 := g.tournamentSelect(population)

		var genes1, genes2 []int
		if g.rng.Float64() < g.config.CrossoverRate {
			genes1, genes2 = g.orderCrossover(p1.Genes, p2.Genes)
			if g.config.CheckInvariants {
				n := g.catalog.Len()
				if err := ValidatePermutation(genes1, n); err != nil {
					return nil, fmt.Errorf("crossover child: %w", err)
				}
				if err := ValidatePermutation(genes2, n); err != nil {
					return nil, fmt.Errorf("crossover child: %w", err)
				}
			}
		} else {
			genes1 = append([]int(nil), p1.Genes...)
			genes2 = append([]int(nil), p2.Genes...)
		}

		g.mutate(genes1)
		g.mutate(genes2)
		next = append(next, Candidate{Genes: genes1}, Candidate{Genes: genes2})
	}
	return next[:size], nil
}

// tournamentSelect samples TournamentSize distinct candidates and returns the
// fittest. Ties go to the first one drawn.
func (g *GA) tournamentSelect(population []Candidate) *Candidate {
	n := len(population)
	k := g.config.TournamentSize
	if k > n {
		k = n
	}
	if len(g.pool) != n {
		g.pool = make([]int, n)
		for i := range g.pool {
			g.pool[i] = i
		}
	}
	g.swaps = g.swaps[:0]

	var best *Candidate
	for i := 0; i < k; i++ {
		j := i + g.rng.Intn(n-i)
		g.pool[i], g.pool[j] = g.pool[j], g.pool[i]
		g.swaps = append(g.swaps, j)
		c := &population[g.pool[i]]
		if best == nil || c.Fitness.Less(best.Fitness) {
			best = c
		}
	}
	for i := len(g.swaps) - 1; i >= 0; i-- {
		j := g.swaps[i]
		g.pool[i], g.pool[j] = g.pool[j], g.pool[i]
	}
	return best
}

// orderCrossover draws two distinct cut points and returns both OX children.
// Orders shorter than two are returned as copies.
func (g *GA) orderCrossover(a, b []int) ([]int, []int) {
	n := len(a)
	if n < 2 {
		return append([]int(nil), a...), append([]int(nil), b...)
	}
	lo, hi := distinctPair(g.rng, n)
	if lo > hi {
		lo, hi = hi, lo
	}
	return orderChild(a, b, lo, hi), orderChild(b, a, lo, hi)
}

// orderChild keeps base[lo..hi] in place and fills the remaining positions,
// starting after hi and wrapping, with the donor's genes in the donor's order
// beginning after hi.
func orderChild(base, donor []int, lo, hi int) []int {
	n := len(base)
	child := make([]int, n)
	present := make(map[int]bool, n)
	for i := lo; i <= hi; i++ {
		child[i] = base[i]
		present[base[i]] = true
	}
	pos := (hi + 1) % n
	for k := 1; k <= n; k++ {
		gene := donor[(hi+k)%n]
		if present[gene] {
			continue
		}
		child[pos] = gene
		present[gene] = true
		pos = (pos + 1) % n
	}
	return child
}

// mutate swaps two distinct positions with probability MutationRate.
func (g *GA) mutate(genes []int) {
	if g.rng.Float64() >= g.config.MutationRate || len(genes) < 2 {
		return
	}
	i, j := distinctPair(g.rng, len(genes))
	genes[i], genes[j] = genes[j], genes[i]
}

// ValidatePermutation returns an error unless genes holds each of 0..n-1 exactly once.
func ValidatePermutation(genes []int, n int) error {
	if len(genes) != n {
		return fmt.Errorf("permutation has %d genes, want %d", len(genes), n)
	}
	seen := make([]bool, n)
	for pos, id := range genes {
		if id < 0 || id >= n {
			return fmt.Errorf("gene %d at position %d out of range [0,%d)", id, pos, n)
		}
		if seen[id] {
			return fmt.Errorf("gene %d repeated at position %d", id, pos)
		}
		seen[id] = true
	}
	return nil
}

// Optimize builds a catalog from items and runs the genetic search with
// the given seed.
func Optimize(ctx context.Context, items []model.ItemInput, sheet model.Sheet, config Config, seed int64) (Result, error) {
	catalog, err := model.NewCatalog(items)
	if err != nil {
		return Result{}, fmt.Errorf("building catalog: %w", err)
	}
	ga, err := NewGA(config, sheet, catalog, NewRand(seed))
	if err != nil {
		return Result{}, err
	}
	return ga.Run(ctx)
}
