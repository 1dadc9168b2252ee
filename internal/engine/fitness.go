package engine

import (
	"fmt"

	"github.com/piwi3910/CoverCut/internal/model"
)

// Fitness scores a candidate layout; lower is better. A layout with no
// sheets is infeasible and ranks behind every feasible score.
type Fitness struct {
	Feasible bool    `json:"feasible"`
	Score    float64 `json:"score"`
}

// Feasible returns a finite fitness with the given score.
func Feasible(score float64) Fitness {
	return Fitness{Feasible: true, Score: score}
}

// Infeasible returns the fitness of a layout that used no sheets.
func Infeasible() Fitness {
	return Fitness{}
}

// Less reports whether f ranks strictly ahead of other.
func (f Fitness) Less(other Fitness) bool {
	if f.Feasible != other.Feasible {
		return f.Feasible
	}
	if !f.Feasible {
		return false
	}
	return f.Score < other.Score
}

func (f Fitness) String() string {
	if !f.Feasible {
		return "infeasible"
	}
	return fmt.Sprintf("%.4f", f.Score)
}

// Score computes the fitness of a layout: the number of sheets plus the
// unused fraction of the last sheet's height.
func Score(l model.Layout) Fitness {
	if l.SheetCount() == 0 {
		return Infeasible()
	}
	return Feasible(float64(l.SheetCount()) + (1 - l.LastSheetUtilization()))
}

// Evaluate packs the candidate's genes, stores the layout and fitness on the
// candidate and returns the fitness. Evaluating the same genes twice yields
// the same result.
func Evaluate(c *Candidate, sheet model.Sheet, catalog *model.Catalog) Fitness {
	c.Layout = Pack(c.Genes, sheet, catalog)
	c.Fitness = Score(c.Layout)
	return c.Fitness
}
