// Package scoring compares ranked predictions with an official finishing order.
//
// A prediction earns one point for every position where the predicted runner is the
// runner that finished there. There is no credit for a correct runner in the wrong place.
package scoring

import "ultrafantasi/internal/models"

// Score counts the positions i < models.SelectionSize where predicted[i] equals official[i].
// An empty id never matches.
func Score(predicted, official []string) int {
	n := min(len(predicted), len(official), models.SelectionSize)
	points := 0
	for i := 0; i < n; i++ {
		if predicted[i] != "" && predicted[i] == official[i] {
			points++
		}
	}
	return points
}

// Predictions lays selections out by rank. Slots with no selection, an out-of-range rank or
// a missing runner record are left empty.
func Predictions(sels []models.Selection) []string {
	out := make([]string, models.SelectionSize)
	for _, s := range sels {
		if s.Rank < 1 || s.Rank > models.SelectionSize || s.Runner == nil {
			continue
		}
		out[s.Rank-1] = s.Runner.ID
	}
	return out
}

// RacePoints scores one user's selections for a race. Only a complete selection is
// scored; anything else, or a malformed official order, is worth zero.
func RacePoints(sels []models.Selection, official []string) (points int, complete bool) {
	if len(sels) != models.SelectionSize || len(official) != models.SelectionSize {
		return 0, false
	}
	return Score(Predictions(sels), official), true
}
