package leaderboard

import (
	"fmt"
	"testing"

	"ultrafantasi/internal/models"
)

func runnerIDs(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return out
}

func picks(userID, raceID string, ids []string) []models.Selection {
	sels := make([]models.Selection, len(ids))
	for i, id := range ids {
		sels[i] = models.Selection{
			UserID:   userID,
			RaceID:   raceID,
			RunnerID: id,
			Rank:     i + 1,
			Runner:   &models.Runner{ID: id},
		}
	}
	return sels
}

func result(t *testing.T, raceID string, ids []string) models.OfficialResult {
	t.Helper()
	r, err := models.NewOfficialResult(raceID, ids)
	if err != nil {
		t.Fatalf("NewOfficialResult: %v", err)
	}
	return r
}

func reversed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func TestBuildGlobal(t *testing.T) {
	o := runnerIDs("r", 10)
	swapped := append([]string{}, o...)
	swapped[1], swapped[2] = swapped[2], swapped[1]

	users := []models.User{{ID: "b"}, {ID: "a"}, {ID: "c"}, {ID: "d"}, {ID: "e"}}
	races := []models.Race{{ID: "scored"}, {ID: "pending"}}
	results := []models.OfficialResult{result(t, "scored", o)}

	var sels []models.Selection
	sels = append(sels, picks("a", "scored", o)...)
	sels = append(sels, picks("b", "scored", reversed(o))...)
	sels = append(sels, picks("c", "scored", swapped)...)
	sels = append(sels, picks("d", "scored", o[:7])...)
	sels = append(sels, picks("a", "pending", o)...)

	board, err := BuildGlobal(users, races, results, sels)
	if err != nil {
		t.Fatalf("BuildGlobal: %v", err)
	}

	wantOrder := []string{"a", "c", "b", "d", "e"}
	wantTotal := map[string]int{"a": 10, "c": 8, "b": 0, "d": 0, "e": 0}
	if len(board) != len(wantOrder) {
		t.Fatalf("board has %d entries", len(board))
	}
	for i, entry := range board {
		if entry.User.ID != wantOrder[i] {
			t.Errorf("position %d: user %s, want %s", i+1, entry.User.ID, wantOrder[i])
		}
		if entry.Total != wantTotal[entry.User.ID] {
			t.Errorf("user %s total %d, want %d", entry.User.ID, entry.Total, wantTotal[entry.User.ID])
		}
		if len(entry.RaceScores) != len(races) {
			t.Errorf("user %s has %d race scores, want %d", entry.User.ID, len(entry.RaceScores), len(races))
		}
		sum := 0
		for _, rs := range entry.RaceScores {
			sum += rs.Points
		}
		if sum != entry.Total {
			t.Errorf("user %s total %d != sum of race scores %d", entry.User.ID, entry.Total, sum)
		}
		pending := entry.RaceScores["pending"]
		if pending.Scored || pending.Points != 0 {
			t.Errorf("unscored race contributed %+v", pending)
		}
		if !entry.RaceScores["scored"].Scored {
			t.Errorf("scored race not marked scored for %s", entry.User.ID)
		}
	}
}

func TestBuildGlobalKeepsInputOrderForTies(t *testing.T) {
	users := []models.User{{ID: "z"}, {ID: "y"}, {ID: "x"}}
	board, err := BuildGlobal(users, []models.Race{{ID: "r"}}, nil, nil)
	if err != nil {
		t.Fatalf("BuildGlobal: %v", err)
	}
	for i, want := range []string{"z", "y", "x"} {
		if board[i].User.ID != want {
			t.Errorf("position %d = %s, want %s", i+1, board[i].User.ID, want)
		}
	}
}

func TestBuildGlobalNoRaces(t *testing.T) {
	board, err := BuildGlobal([]models.User{{ID: "a"}}, nil, nil, nil)
	if err != nil {
		t.Fatalf("BuildGlobal: %v", err)
	}
	if len(board) != 1 || board[0].Total != 0 || len(board[0].RaceScores) != 0 {
		t.Errorf("unexpected board %+v", board)
	}
}

func TestBuildRace(t *testing.T) {
	o := runnerIDs("r", 10)
	res := result(t, "race", o)

	t.Run("no_result_is_empty", func(t *testing.T) {
		board, err := BuildRace(nil, picks("a", "race", o))
		if err != nil {
			t.Fatalf("BuildRace: %v", err)
		}
		if board == nil || len(board) != 0 {
			t.Fatalf("board = %#v, want empty", board)
		}
	})

	t.Run("ranked_and_stable", func(t *testing.T) {
		nick := "speedy"
		var sels []models.Selection
		sels = append(sels, picks("a", "race", reversed(o))...)
		sels = append(sels, picks("b", "race", o)...)
		sels = append(sels, picks("c", "race", reversed(o))...)
		partial := picks("d", "race", o[:3])
		for i := range partial {
			partial[i].User = &models.User{ID: "d", Name: "Dee", Nickname: &nick}
		}
		sels = append(sels, partial...)

		board, err := BuildRace(&res, sels)
		if err != nil {
			t.Fatalf("BuildRace: %v", err)
		}
		want := []struct {
			id     string
			points int
		}{{"b", 10}, {"a", 0}, {"c", 0}, {"d", 0}}
		if len(board) != len(want) {
			t.Fatalf("board has %d entries", len(board))
		}
		for i, w := range want {
			if board[i].User.ID != w.id || board[i].Points != w.points {
				t.Errorf("position %d = %s/%d, want %s/%d", i+1, board[i].User.ID, board[i].Points, w.id, w.points)
			}
			if len(board[i].Predictions) != models.SelectionSize {
				t.Errorf("user %s has %d prediction slots", board[i].User.ID, len(board[i].Predictions))
			}
		}
		d := board[3]
		if d.User.DisplayName != "speedy" {
			t.Errorf("display name = %q", d.User.DisplayName)
		}
		if d.Predictions[2] == nil || d.Predictions[3] != nil {
			t.Errorf("partial predictions laid out wrong: %v", d.Predictions)
		}
	})
}
