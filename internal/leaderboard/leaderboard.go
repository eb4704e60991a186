// Package leaderboard ranks users by points across all races and within one race.
package leaderboard

import (
	"sort"

	"ultrafantasi/internal/models"
	"ultrafantasi/internal/scoring"
)

// Player is the public view of a user on a leaderboard.
type Player struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Nickname       *string `json:"nickname"`
	DisplayName    string  `json:"displayName"`
	ProfilePicture *string `json:"profilePicture"`
}

func playerOf(u models.User) Player {
	return Player{
		ID:             u.ID,
		Name:           u.Name,
		Nickname:       u.Nickname,
		DisplayName:    u.DisplayName(),
		ProfilePicture: u.ProfilePicture,
	}
}

// RaceScore is one user's points for one race.
type RaceScore struct {
	Race   models.Race `json:"race"`
	Points int         `json:"points"`
	// Scored is false while the race has no official result.
	Scored bool `json:"scored"`
}

// GlobalEntry is a user's row on the global leaderboard.
type GlobalEntry struct {
	User       Player               `json:"user"`
	Total      int                  `json:"total"`
	RaceScores map[string]RaceScore `json:"raceScores"`
}

// RaceEntry is a user's row on a race leaderboard.
type RaceEntry struct {
	User Player `json:"user"`
	// Predictions has one slot per rank; a slot is nil when the runner is unknown.
	Predictions []*models.Runner `json:"predictions"`
	Points      int              `json:"points"`
}

// BuildGlobal scores every user against every race. Users keep their input order among
// equal totals.
func BuildGlobal(users []models.User, races []models.Race, results []models.OfficialResult, sels []models.Selection) ([]GlobalEntry, error) {
	official := make(map[string][]string, len(results))
	for _, r := range results {
		ids, err := r.RunnerIDs()
		if err != nil {
			return nil, err
		}
		official[r.RaceID] = ids
	}

	byUserRace := map[string]map[string][]models.Selection{}
	for _, s := range sels {
		m, ok := byUserRace[s.UserID]
		if !ok {
			m = map[string][]models.Selection{}
			byUserRace[s.UserID] = m
		}
		m[s.RaceID] = append(m[s.RaceID], s)
	}

	board := make([]GlobalEntry, 0, len(users))
	for _, u := range users {
		entry := GlobalEntry{
			User:       playerOf(u),
			RaceScores: make(map[string]RaceScore, len(races)),
		}
		for _, race := range races {
			score := RaceScore{Race: race}
			if top10, ok := official[race.ID]; ok {
				score.Scored = true
				score.Points, _ = scoring.RacePoints(byUserRace[u.ID][race.ID], top10)
			}
			entry.RaceScores[race.ID] = score
			entry.Total += score.Points
		}
		board = append(board, entry)
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Total > board[j].Total
	})
	return board, nil
}

// BuildRace ranks the users who picked runners for a race. It returns an empty board
// when result is nil. sels must be grouped by user; users keep first-seen order among
// equal points.
func BuildRace(result *models.OfficialResult, sels []models.Selection) ([]RaceEntry, error) {
	board := []RaceEntry{}
	if result == nil {
		return board, nil
	}
	top10, err := result.RunnerIDs()
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var grouped [][]models.Selection
	for _, s := range sels {
		i, ok := index[s.UserID]
		if !ok {
			i = len(board)
			index[s.UserID] = i
			player := Player{ID: s.UserID}
			if s.User != nil {
				player = playerOf(*s.User)
			}
			board = append(board, RaceEntry{
				User:        player,
				Predictions: make([]*models.Runner, models.SelectionSize),
			})
			grouped = append(grouped, nil)
		}
		grouped[i] = append(grouped[i], s)
		if s.Rank >= 1 && s.Rank <= models.SelectionSize {
			board[i].Predictions[s.Rank-1] = s.Runner
		}
	}

	for i := range board {
		board[i].Points, _ = scoring.RacePoints(grouped[i], top10)
	}

	sort.SliceStable(board, func(i, j int) bool {
		return board[i].Points > board[j].Points
	})
	return board, nil
}
