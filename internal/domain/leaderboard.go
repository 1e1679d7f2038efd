package domain

import "sort"

// Aggregate reduces an answer log into per-team totals, sorted by total
// descending. Ties keep the order teams were first seen in the input, so the
// result is deterministic for a given log ordering. Totals are independent of
// input order; only tie placement depends on it.
//
// The leaderboard has no state of its own and is recomputed from scratch on
// every call, so it is always consistent with the recorded answers.
func Aggregate(answers []Answer) []TeamScore {
	totals := make(map[string]float64)
	order := make([]string, 0)
	for _, a := range answers {
		if _, seen := totals[a.TeamName]; !seen {
			order = append(order, a.TeamName)
		}
		totals[a.TeamName] += a.PointValue()
	}

	entries := make([]TeamScore, 0, len(order))
	for _, team := range order {
		entries = append(entries, TeamScore{TeamName: team, Total: round2(totals[team])})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Total > entries[j].Total
	})
	return entries
}
