package model

// AppConfig holds application-wide preferences and default settings.
type AppConfig struct {
	// Default sheet the covers are cut from (cm)
	SheetWidth  float64 `json:"sheet_width"`
	SheetHeight float64 `json:"sheet_height"`

	// Genetic search defaults
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	CrossoverRate  float64 `json:"crossover_rate"`
	MutationRate   float64 `json:"mutation_rate"`
	TournamentSize int     `json:"tournament_size"`
	Seed           int64   `json:"seed"`     // 0 = seed from the clock
	Workers        int     `json:"workers"`  // 0 or 1 = sequential evaluation
	Patience       int     `json:"patience"` // generations without improvement, 0 = disabled

	// Cover defaults
	DefaultSpine float64 `json:"default_spine"`

	// Output preferences
	OutputDir      string   `json:"output_dir"`
	RecentProjects []string `json:"recent_projects"`
	Theme          string   `json:"theme"` // "light", "dark", "system"
}

// DefaultAppConfig returns an AppConfig populated with the values the
// optimizer is normally run with: a 100 x 70 cm sheet, 60 candidates over
// 80 generations.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		SheetWidth:     100,
		SheetHeight:    70,
		PopulationSize: 60,
		Generations:    80,
		CrossoverRate:  0.7,
		MutationRate:   0.01,
		TournamentSize: 3,
		Seed:           0,
		Workers:        1,
		Patience:       0,
		DefaultSpine:   DefaultSpiralSpine,
		OutputDir:      ".",
		RecentProjects: []string{},
		Theme:          "system",
	}
}

// Sheet returns the configured default sheet.
func (c AppConfig) Sheet() Sheet {
	return Sheet{Width: c.SheetWidth, Height: c.SheetHeight}
}

// AddRecentProject records path at the front of the recent list, dropping
// duplicates and keeping at most ten entries.
func (c *AppConfig) AddRecentProject(path string) {
	out := []string{path}
	for _, p := range c.RecentProjects {
		if p != path {
			out = append(out, p)
		}
	}
	if len(out) > 10 {
		out = out[:10]
	}
	c.RecentProjects = out
}
