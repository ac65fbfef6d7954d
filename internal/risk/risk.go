// Package risk scores the share of calls likely to end unresolved.
package risk

import (
	"math"

	"github.com/MikeSquared-Agency/callscope/internal/analysis"
)

const (
	MinCalls = 10

	LevelLow              = "Low"
	LevelMedium           = "Medium"
	LevelHigh             = "High"
	LevelInsufficientData = "InsufficientData"

	insufficientMessage = "Need at least 10 calls for prediction"

	regularization = 1.0
)

type Factor struct {
	Name        string  `json:"name"`
	Impact      string  `json:"impact"`
	Coefficient float64 `json:"coefficient"`
}

type Assessment struct {
	RiskScore      float64 `json:"risk_score"`
	Level          string  `json:"level"`
	TopFactor      *Factor `json:"top_factor,omitempty"`
	TotalCallsUsed int     `json:"total_calls_used"`
	Message        string  `json:"message,omitempty"`
}

// Compute fits a logistic model over the full call history and reports
// the mean predicted probability of an unresolved call on a 0-100 scale.
func Compute(calls []analysis.CallAnalysis) Assessment {
	if len(calls) < MinCalls {
		return Assessment{
			Level:          LevelInsufficientData,
			TotalCallsUsed: len(calls),
			Message:        insufficientMessage,
		}
	}

	x, y := Features(calls)

	positives := 0.0
	for _, v := range y {
		positives += v
	}
	if positives == 0 || positives == float64(len(y)) {
		// one class only; nothing to fit
		score := 100 * positives / float64(len(y))
		return Assessment{RiskScore: score, Level: Level(score), TotalCallsUsed: len(calls)}
	}

	model := Fit(x, y, regularization)

	sum := 0.0
	for _, row := range x {
		sum += model.Predict(row)
	}
	score := clamp(round(100*sum/float64(len(x)), 1), 0, 100)

	return Assessment{
		RiskScore:      score,
		Level:          Level(score),
		TopFactor:      topFactor(model.Coef),
		TotalCallsUsed: len(calls),
	}
}

// Level buckets a 0-100 score.
func Level(score float64) string {
	switch {
	case score < 30:
		return LevelLow
	case score < 60:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func topFactor(coef []float64) *Factor {
	if len(coef) == 0 {
		return nil
	}
	top := 0
	for j := range coef {
		if math.Abs(coef[j]) > math.Abs(coef[top]) {
			top = j
		}
	}
	impact := "decreases"
	if coef[top] > 0 {
		impact = "increases"
	}
	return &Factor{
		Name:        FeatureNames[top],
		Impact:      impact,
		Coefficient: round(coef[top], 3),
	}
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
