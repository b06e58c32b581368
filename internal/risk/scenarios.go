package risk

import (
	"riskPlanner/internal/domain"
)

// ScenarioRow is one line of the scenario table: a single root-to-leaf path
// through the day.
type ScenarioRow struct {
	PathPattern   string            `json:"path_pattern"`
	Probability   float64           `json:"probability"`
	TotalPnlCents int64             `json:"total_pnl_cents"`
	Wins          int               `json:"wins"`
	Losses        int               `json:"losses"`
	Status        domain.LeafStatus `json:"status"`
}

// ScenarioSummary aggregates a tree's leaves into the numbers a trader reads
// off a plan preview.
type ScenarioSummary struct {
	Rows []ScenarioRow `json:"rows"`

	ExpectedValueCents int64   `json:"expected_value_cents"`
	BestCaseCents      int64   `json:"best_case_cents"`
	WorstCaseCents     int64   `json:"worst_case_cents"`
	ProfitProbability  float64 `json:"profit_probability"`
	LossProbability    float64 `json:"loss_probability"`
	// UnresolvedProbability is the mass sitting under "continues" leaves, where
	// the depth cap truncated the path before the outcome resolved.
	UnresolvedProbability float64 `json:"unresolved_probability"`
	TotalProbability      float64 `json:"total_probability"`
	LeafCount             int     `json:"leaf_count"`
	MaxDepth              int     `json:"max_depth"`
}

// Summarize flattens a tree into its scenario table and aggregate statistics.
// A nil tree yields a zero summary.
func Summarize(tree *domain.Tree) ScenarioSummary {
	var s ScenarioSummary
	if tree == nil {
		return s
	}
	s.LeafCount = len(tree.Leaves)
	s.MaxDepth = tree.MaxDepth
	s.Rows = make([]ScenarioRow, 0, len(tree.Leaves))

	expected := 0.0
	for i, leaf := range tree.Leaves {
		s.Rows = append(s.Rows, ScenarioRow{
			PathPattern:   leaf.PathPattern,
			Probability:   leaf.Probability,
			TotalPnlCents: leaf.TotalPnlCents,
			Wins:          leaf.Wins,
			Losses:        leaf.Losses,
			Status:        leaf.Status,
		})

		expected += leaf.Probability * float64(leaf.TotalPnlCents)
		s.TotalProbability += leaf.Probability
		if leaf.TotalPnlCents > 0 {
			s.ProfitProbability += leaf.Probability
		} else if leaf.TotalPnlCents < 0 {
			s.LossProbability += leaf.Probability
		}
		if leaf.Status == domain.LeafContinues {
			s.UnresolvedProbability += leaf.Probability
		}
		if i == 0 || leaf.TotalPnlCents > s.BestCaseCents {
			s.BestCaseCents = leaf.TotalPnlCents
		}
		if i == 0 || leaf.TotalPnlCents < s.WorstCaseCents {
			s.WorstCaseCents = leaf.TotalPnlCents
		}
	}
	s.ExpectedValueCents = domain.RoundCents(expected)
	return s
}
