package domain

import "math"

// Score maps a selected choice to its point value for the question:
// (selectedWeight / maxWeight) * questionWeight, rounded to 2 decimals.
//
// Legacy bare-string choices unmarshal to weight 1, so for them any listed
// choice yields the full question weight. A choice text absent from the
// question scores 0, as does a question whose weights are all 0 (the
// normalization is undefined there and must not produce NaN).
//
// Score is pure: re-scoring the same pair always yields the same value, which
// matters because answers are recomputed when replaced.
func Score(q Question, chosenText string) float64 {
	var selected, max float64
	for _, c := range q.Choices {
		if c.Weight > max {
			max = c.Weight
		}
		if c.Text == chosenText {
			selected = c.Weight
		}
	}
	if max == 0 {
		return 0
	}
	weight := q.Weight
	if weight == 0 {
		weight = 1
	}
	return round2(selected / max * weight)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
