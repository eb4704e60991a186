package scoring

import (
	"fmt"
	"testing"

	"ultrafantasi/internal/models"
)

func ids(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func selections(runnerIDs []string) []models.Selection {
	sels := make([]models.Selection, 0, len(runnerIDs))
	for i, id := range runnerIDs {
		sels = append(sels, models.Selection{RunnerID: id, Rank: i + 1, Runner: &models.Runner{ID: id}})
	}
	return sels
}

func TestScore(t *testing.T) {
	official := ids("r", 10)

	reversed := make([]string, 10)
	for i, id := range official {
		reversed[9-i] = id
	}
	swapped := append([]string{}, official...)
	swapped[1], swapped[2] = swapped[2], swapped[1]

	cases := []struct {
		name      string
		predicted []string
		want      int
	}{
		{"exact", official, 10},
		{"reversed", reversed, 0},
		{"swap_2_3", swapped, 8},
		{"none_in_field", ids("x", 10), 0},
		{"short_prediction", official[:4], 4},
		{"empty_slots", []string{"", "r2", "", "r4", "", "", "", "", "", ""}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Score(tc.predicted, official); got != tc.want {
				t.Errorf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreIgnoresRunnersOutsideBothLists(t *testing.T) {
	official := ids("r", 10)
	predicted := append([]string{}, official...)
	predicted[3] = "stranger-a"
	predicted[7] = "stranger-b"

	relabeled := append([]string{}, predicted...)
	relabeled[3] = "someone-else"
	relabeled[7] = "another"

	if a, b := Score(predicted, official), Score(relabeled, official); a != b || a != 8 {
		t.Errorf("relabeling changed score: %d vs %d", a, b)
	}
}

func TestScoreBounds(t *testing.T) {
	official := ids("r", 10)
	for shift := 0; shift < 10; shift++ {
		predicted := make([]string, 10)
		for i := range predicted {
			predicted[i] = official[(i+shift)%10]
		}
		got := Score(predicted, official)
		if got < 0 || got > 10 {
			t.Fatalf("score %d out of range", got)
		}
		want := 0
		if shift == 0 {
			want = 10
		}
		if got != want {
			t.Errorf("shift %d: score %d, want %d", shift, got, want)
		}
	}
}

func TestRacePoints(t *testing.T) {
	official := ids("r", 10)

	t.Run("complete", func(t *testing.T) {
		points, complete := RacePoints(selections(official), official)
		if points != 10 || !complete {
			t.Errorf("RacePoints = %d, %v", points, complete)
		}
	})

	t.Run("seven_selections_score_zero", func(t *testing.T) {
		points, complete := RacePoints(selections(official[:7]), official)
		if points != 0 || complete {
			t.Errorf("RacePoints = %d, %v", points, complete)
		}
	})

	t.Run("deleted_runner_is_a_miss", func(t *testing.T) {
		sels := selections(official)
		sels[0].Runner = nil
		points, _ := RacePoints(sels, official)
		if points != 9 {
			t.Errorf("RacePoints = %d, want 9", points)
		}
	})

	t.Run("placed_by_rank_not_order", func(t *testing.T) {
		sels := selections(official)
		sels[0], sels[9] = sels[9], sels[0]
		points, _ := RacePoints(sels, official)
		if points != 10 {
			t.Errorf("RacePoints = %d, want 10", points)
		}
	})

	t.Run("malformed_official", func(t *testing.T) {
		points, complete := RacePoints(selections(official), official[:9])
		if points != 0 || complete {
			t.Errorf("RacePoints = %d, %v", points, complete)
		}
	})
}
