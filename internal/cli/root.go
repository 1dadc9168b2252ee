// Package cli implements the covercut command line.
package cli

import (
	"flag"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"github.com/piwi3910/CoverCut/internal/engine"
	"github.com/piwi3910/CoverCut/internal/model"
	"github.com/piwi3910/CoverCut/internal/project"
)

const version = "1.0.0"

// globalOptions are shared by every subcommand.
type globalOptions struct {
	configPath string
}

// NewRootCommand builds the covercut command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "covercut",
		Short: "Lay out book and notebook covers on sheets",
		Long: `covercut packs the flat cover pieces of a list of books and notebooks
onto as few sheets as possible, searching placement orders with a genetic
algorithm, and renders the best layout as PDF, labels, DXF and a chart.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(out)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", project.DefaultConfigPath(), "path to the JSON config file")
	addKlogFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newOptimizeCommand(opts),
		newCompareCommand(opts),
		newSizesCommand(),
		newConfigCommand(opts),
	)
	return cmd
}

// addKlogFlags exposes -v, --vmodule, --logtostderr and the other klog flags.
func addKlogFlags(fs *pflag.FlagSet) {
	goFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(goFlags)
	fs.AddGoFlagSet(goFlags)
}

func (o *globalOptions) loadConfig() (model.AppConfig, error) {
	cfg, err := project.LoadAppConfig(o.configPath)
	if err != nil {
		return model.AppConfig{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// searchFlags are the genetic search parameters shared by optimize and compare.
type searchFlags struct {
	sheetWidth     float64
	sheetHeight    float64
	population     int
	generations    int
	crossover      float64
	mutation       float64
	tournament     int
	seed           int64
	workers        int
	patience       int
	checkInvariant bool
}

func (s *searchFlags) register(fs *pflag.FlagSet) {
	d := model.DefaultAppConfig()
	fs.Float64Var(&s.sheetWidth, "sheet-width", d.SheetWidth, "sheet width in cm")
	fs.Float64Var(&s.sheetHeight, "sheet-height", d.SheetHeight, "sheet height in cm")
	fs.IntVar(&s.population, "population", d.PopulationSize, "candidates per generation")
	fs.IntVar(&s.generations, "generations", d.Generations, "number of generations")
	fs.Float64Var(&s.crossover, "crossover", d.CrossoverRate, "crossover probability per pair")
	fs.Float64Var(&s.mutation, "mutation", d.MutationRate, "swap mutation probability per child")
	fs.IntVar(&s.tournament, "tournament", d.TournamentSize, "tournament size for parent selection")
	fs.Int64Var(&s.seed, "seed", d.Seed, "random seed, 0 picks one from the clock")
	fs.IntVar(&s.workers, "workers", d.Workers, "goroutines packing candidates in parallel")
	fs.IntVar(&s.patience, "patience", d.Patience, "stop after this many generations without improvement, 0 disables")
	fs.BoolVar(&s.checkInvariant, "check-invariants", false, "validate every offspring as a permutation")
}

// apply overlays the flags the user set explicitly onto the loaded config.
func (s *searchFlags) apply(fs *pflag.FlagSet, cfg *model.AppConfig) {
	if fs.Changed("sheet-width") {
		cfg.SheetWidth = s.sheetWidth
	}
	if fs.Changed("sheet-height") {
		cfg.SheetHeight = s.sheetHeight
	}
	if fs.Changed("population") {
		cfg.PopulationSize = s.population
	}
	if fs.Changed("generations") {
		cfg.Generations = s.generations
	}
	if fs.Changed("crossover") {
		cfg.CrossoverRate = s.crossover
	}
	if fs.Changed("mutation") {
		cfg.MutationRate = s.mutation
	}
	if fs.Changed("tournament") {
		cfg.TournamentSize = s.tournament
	}
	if fs.Changed("seed") {
		cfg.Seed = s.seed
	}
	if fs.Changed("workers") {
		cfg.Workers = s.workers
	}
	if fs.Changed("patience") {
		cfg.Patience = s.patience
	}
}

// engineConfig converts the merged settings into search parameters.
func (s *searchFlags) engineConfig(cfg model.AppConfig) engine.Config {
	ec := engine.ConfigFromAppConfig(cfg)
	ec.CheckInvariants = s.checkInvariant
	return ec
}
