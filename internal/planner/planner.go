package planner

import (
	"sort"

	"pdf-epub-converter/internal/domain"
)

// Score adjustments applied when re-ranking the canonical sequences against
// a concrete analysis.
const (
	missingOCRPenalty    = 30
	rawExtractionPenalty = 10
	qualityOCRBonus      = 15
	balancedBonus        = 5
	highComplexity       = 4
)

// templates maps each strategy to its canonical step sequence and base
// quality/cost estimates.
var templates = map[domain.Strategy]domain.PipelinePlan{
	domain.StrategyFast: {
		Strategy:         domain.StrategyFast,
		Steps:            []string{domain.StepAnalyze, domain.StepConvertFast},
		EstimatedQuality: 70,
		EstimatedCost:    1,
	},
	domain.StrategyBalanced: {
		Strategy:         domain.StrategyBalanced,
		Steps:            []string{domain.StepAnalyze, domain.StepConvertBalanced},
		EstimatedQuality: 85,
		EstimatedCost:    2,
	},
	domain.StrategyQuality: {
		Strategy:         domain.StrategyQuality,
		Steps:            []string{domain.StepAnalyze, domain.StepConvertQuality},
		EstimatedQuality: 95,
		EstimatedCost:    3,
	},
}

// StrategyPlanner turns a document analysis into an ordered pipeline plan
// and can rank the candidate plans for callers that offer alternatives.
type StrategyPlanner struct{}

// New creates a new strategy planner
func New() *StrategyPlanner {
	return &StrategyPlanner{}
}

// Plan returns the canonical pipeline for the analysis's recommended
// strategy.
func (p *StrategyPlanner) Plan(analysis *domain.DocumentAnalysis) domain.PipelinePlan {
	template, ok := templates[analysis.RecommendedStrategy]
	if !ok {
		template = templates[domain.StrategyFast]
	}
	return clone(template)
}

// Rank re-scores all three canonical sequences against the analysis and
// returns them sorted by adjusted quality, best first. The executed plan is
// chosen independently; this list exists so callers can offer alternatives.
func (p *StrategyPlanner) Rank(analysis *domain.DocumentAnalysis) []domain.PipelinePlan {
	ranked := make([]domain.PipelinePlan, 0, len(templates))
	for _, strategy := range []domain.Strategy{domain.StrategyFast, domain.StrategyBalanced, domain.StrategyQuality} {
		plan := clone(templates[strategy])
		plan.EstimatedQuality = clampQuality(p.score(plan, analysis))
		ranked = append(ranked, plan)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].EstimatedQuality > ranked[j].EstimatedQuality
	})
	return ranked
}

// score adjusts a template's base quality estimate using analysis signals.
func (p *StrategyPlanner) score(plan domain.PipelinePlan, analysis *domain.DocumentAnalysis) int {
	quality := plan.EstimatedQuality

	// Only the quality sequence can fall back to OCR; without extractable
	// text the others lose most of their value.
	if !analysis.TextExtractable && plan.Strategy != domain.StrategyQuality {
		quality -= missingOCRPenalty
	}

	// The fast sequence drops images entirely.
	if analysis.ImageCount > 0 && plan.Strategy == domain.StrategyFast {
		quality -= rawExtractionPenalty
	}

	if analysis.ComplexityScore >= highComplexity {
		switch plan.Strategy {
		case domain.StrategyQuality:
			quality += qualityOCRBonus
		case domain.StrategyBalanced:
			quality += balancedBonus
		}
	}

	return quality
}

func clampQuality(q int) int {
	if q < 0 {
		return 0
	}
	if q > 100 {
		return 100
	}
	return q
}

func clone(plan domain.PipelinePlan) domain.PipelinePlan {
	out := plan
	out.Steps = append([]string(nil), plan.Steps...)
	return out
}
