package risk

import "github.com/MikeSquared-Agency/callscope/internal/analysis"

// Feature names in model column order.
var FeatureNames = []string{"urgency", "sentiment", "behavior", "category"}

const (
	minCategoryCalls    = 3
	defaultCategoryRisk = 0.5
)

func EncodeUrgency(u analysis.Urgency) float64 {
	switch u {
	case analysis.UrgencyLow:
		return 0
	case analysis.UrgencyHigh:
		return 2
	default:
		return 1
	}
}

func EncodeSentiment(s analysis.Sentiment) float64 {
	switch s {
	case analysis.SentimentPositive:
		return 0
	case analysis.SentimentNegative:
		return 2
	default:
		return 1
	}
}

// EncodeBehavior maps unknown to the neutral midpoint.
func EncodeBehavior(b analysis.AgentBehavior) float64 {
	switch b {
	case analysis.BehaviorPolite:
		return 0
	case analysis.BehaviorRude:
		return 2
	default:
		return 1
	}
}

// CategoryRisks returns the unresolved rate per category over calls,
// counting a call once for every category it carries. Categories seen on
// fewer than three calls are absent from the map.
func CategoryRisks(calls []analysis.CallAnalysis) map[analysis.Category]float64 {
	total := make(map[analysis.Category]int)
	unresolved := make(map[analysis.Category]int)
	for _, c := range calls {
		seen := make(map[analysis.Category]bool, len(c.IssueCategory))
		for _, cat := range c.IssueCategory {
			if seen[cat] {
				continue
			}
			seen[cat] = true
			total[cat]++
			if c.CallOutcome != analysis.OutcomeResolved {
				unresolved[cat]++
			}
		}
	}

	out := make(map[analysis.Category]float64, len(total))
	for cat, n := range total {
		if n < minCategoryCalls {
			continue
		}
		out[cat] = float64(unresolved[cat]) / float64(n)
	}
	return out
}

// CategoryRisk averages the risk of every category the call carries. A
// category without enough history contributes the 0.5 default.
func CategoryRisk(c analysis.CallAnalysis, risks map[analysis.Category]float64) float64 {
	if len(c.IssueCategory) == 0 {
		return defaultCategoryRisk
	}
	sum := 0.0
	for _, cat := range c.IssueCategory {
		r, ok := risks[cat]
		if !ok {
			r = defaultCategoryRisk
		}
		sum += r
	}
	return sum / float64(len(c.IssueCategory))
}

// Features encodes every call into a feature row and a label, 1 when unresolved.
func Features(calls []analysis.CallAnalysis) ([][]float64, []float64) {
	risks := CategoryRisks(calls)
	x := make([][]float64, len(calls))
	y := make([]float64, len(calls))
	for i, c := range calls {
		x[i] = []float64{
			EncodeUrgency(c.Urgency),
			EncodeSentiment(c.Sentiment),
			EncodeBehavior(c.AgentBehavior),
			CategoryRisk(c, risks),
		}
		if c.CallOutcome != analysis.OutcomeResolved {
			y[i] = 1
		}
	}
	return x, y
}
