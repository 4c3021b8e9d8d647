package analysis

import (
	"math"
	"slices"
)

// Bucket is the traffic-light classification of a score.
type Bucket string

const (
	BucketGreen  Bucket = "green"
	BucketYellow Bucket = "yellow"
	BucketRed    Bucket = "red"
)

// Thresholds are the minimum scores for the green and yellow buckets.
type Thresholds struct {
	Green  int
	Yellow int
}

// DefaultThresholds puts 80+ in green, 50-79 in yellow and the rest in red.
var DefaultThresholds = Thresholds{Green: 80, Yellow: 50}

// Score is the weighted summary of a Report.
type Score struct {
	Score           int      `json:"score"`
	Status          Bucket   `json:"status"`
	Recommendations []string `json:"recommendations"`
}

// ScoreEngine turns a Report into a Score.
type ScoreEngine struct {
	thresholds Thresholds
}

// NewScoreEngine returns a ScoreEngine using the given bucket thresholds.
func NewScoreEngine(thresholds Thresholds) *ScoreEngine {
	return &ScoreEngine{thresholds: thresholds}
}

// Score computes round(100 * sum(weight * statusValue) / sum(weight)) over
// the checks in report. A check's weight is taken from weights when present
// and from its Result otherwise; negative or non-finite weights count as
// zero. A report with no weight at all scores 0. The result is always within
// [0, 100].
func (e *ScoreEngine) Score(report Report, weights map[string]float64) Score {
	order := reportOrder(report)

	resolved := effectiveWeights(report, order, weights)

	// Weights only matter relative to each other, so scale by the largest
	// to keep the sums finite.
	var largest float64
	for _, w := range resolved {
		largest = max(largest, w)
	}

	var weighted, total float64
	for _, id := range order {
		w := resolved[id]
		if largest > 0 {
			w /= largest
		}
		weighted += w * report.Checks[id].Status.Value()
		total += w
	}

	score := 0
	if total > 0 {
		score = min(max(int(math.Round(100*weighted/total)), 0), 100)
	}

	return Score{
		Score:           score,
		Status:          e.Bucket(score),
		Recommendations: recommendations(report, order),
	}
}

// effectiveWeights resolves the weight of every check in order.
func effectiveWeights(report Report, order []string, overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(order))
	for _, id := range order {
		w := report.Checks[id].Weight
		if override, ok := overrides[id]; ok {
			w = override
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			w = 0
		}
		out[id] = w
	}
	return out
}

// Bucket classifies a score against the engine's thresholds.
func (e *ScoreEngine) Bucket(score int) Bucket {
	switch {
	case score >= e.thresholds.Green:
		return BucketGreen
	case score >= e.thresholds.Yellow:
		return BucketYellow
	default:
		return BucketRed
	}
}

// recommendations lists the fix hints of non-passing checks, warnings before
// failures, each group in run order.
func recommendations(report Report, order []string) []string {
	pending := make([]CheckReport, 0, len(order))
	for _, id := range order {
		cr := report.Checks[id]
		if cr.Status != StatusPass && cr.FixHint != "" {
			pending = append(pending, cr)
		}
	}

	slices.SortStableFunc(pending, func(a, b CheckReport) int {
		return a.Status.severity() - b.Status.severity()
	})

	out := make([]string, len(pending))
	for i, cr := range pending {
		out[i] = cr.FixHint
	}
	return out
}

// reportOrder returns the run order recorded in the report, falling back to
// sorted ids for reports assembled without one.
func reportOrder(report Report) []string {
	if len(report.Order) == len(report.Checks) {
		return report.Order
	}

	ids := make([]string, 0, len(report.Checks))
	for id := range report.Checks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
