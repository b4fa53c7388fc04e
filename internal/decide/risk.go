package decide

// Risk is one identified risk with its 1-3 severity and likelihood axes.
// Weight defaults to 1.0 when unset.
type Risk struct {
	Type       string  `json:"type"`
	Text       string  `json:"text"`
	Severity   int     `json:"severity"`
	Likelihood int     `json:"likelihood"`
	Weight     float64 `json:"weight,omitempty"`
}

// riskBucket maps an aggregate risk ceiling to a penalty percentage.
type riskBucket struct {
	max float64
	pct float64
}

// Ordered, inclusive upper bounds. An aggregate of exactly 20 lands in the
// first bucket, 35 in the second, anything above in the third.
var riskBuckets = []riskBucket{
	{max: 20, pct: 5},
	{max: 35, pct: 10},
	{max: 9999, pct: 15},
}

func clampAxis(v int) float64 {
	if v < 1 {
		return 1
	}
	if v > 3 {
		return 3
	}
	return float64(v)
}

// AggregateRisk sums severity x likelihood x weight over all risks.
func AggregateRisk(risks []Risk) float64 {
	agg := 0.0
	for _, r := range risks {
		w := r.Weight
		if w == 0 {
			w = 1.0
		}
		agg += clampAxis(r.Severity) * clampAxis(r.Likelihood) * w
	}
	return agg
}

// PenaltyPct maps an aggregate risk score to its percentage deduction. No
// risks means no deduction.
func PenaltyPct(agg float64) float64 {
	if agg <= 0 {
		return 0
	}
	for _, b := range riskBuckets {
		if agg <= b.max {
			return b.pct
		}
	}
	return riskBuckets[len(riskBuckets)-1].pct
}
