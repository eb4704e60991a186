// Package selection validates and stores users' ranked picks for a race.
package selection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
)

// ErrRaceStarted is returned for submissions at or after the race start.
var ErrRaceStarted = fmt.Errorf("race has started, selections are locked: %w", apperr.ErrConflict)

type Store interface {
	GetRace(ctx context.Context, id string) (*models.Race, error)
	MissingFromRace(ctx context.Context, raceID string, runnerIDs []string) ([]string, error)
	ReplaceSelections(ctx context.Context, userID, raceID string, runnerIDs []string) error
	UserRaceSelections(ctx context.Context, userID, raceID string) ([]models.Selection, error)
	UserSelections(ctx context.Context, userID string) ([]models.Selection, error)
}

type Manager struct {
	store Store
	now   func() time.Time
}

// NewManager returns a Manager; now defaults to time.Now.
func NewManager(s Store, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{store: s, now: now}
}

// Validate checks the shape of a submission: exactly models.SelectionSize distinct,
// non-empty runner ids.
func Validate(runnerIDs []string) error {
	return ValidateRanking("runnerIds", runnerIDs)
}

// ValidateRanking checks that ids is a full top list of distinct runners. field names
// the list in error messages.
func ValidateRanking(field string, ids []string) error {
	if len(ids) != models.SelectionSize {
		return apperr.Validation("%s must contain exactly %d runner ids, got %d", field, models.SelectionSize, len(ids))
	}
	seen := make(map[string]int, len(ids))
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return apperr.Validation("%s[%d] is empty", field, i)
		}
		if prev, ok := seen[id]; ok {
			return apperr.Validation("runner %s is ranked twice in %s (positions %d and %d)", id, field, prev+1, i+1)
		}
		seen[id] = i
	}
	return nil
}

// Submit replaces the user's selection for the race with runnerIDs, ranked by position.
// The race must exist, must not have started, and every runner must be in its field.
func (m *Manager) Submit(ctx context.Context, userID, raceID string, runnerIDs []string) error {
	if err := Validate(runnerIDs); err != nil {
		return err
	}
	race, err := m.store.GetRace(ctx, raceID)
	if err != nil {
		return err
	}
	if race.Started(m.now()) {
		logger.Info("[SELECTION] late submission by user %s for race %s rejected", userID, raceID)
		return ErrRaceStarted
	}
	missing, err := m.store.MissingFromRace(ctx, raceID, runnerIDs)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return apperr.Validation("runners not in race %s: %s", raceID, strings.Join(missing, ", "))
	}
	if err := m.store.ReplaceSelections(ctx, userID, raceID, runnerIDs); err != nil {
		return fmt.Errorf("submit selection: %w", err)
	}
	logger.Debug("[SELECTION] user %s submitted top %d for race %s", userID, len(runnerIDs), raceID)
	return nil
}

// ForRace returns the user's ranked selection for the race, possibly empty.
func (m *Manager) ForRace(ctx context.Context, userID, raceID string) ([]models.Selection, error) {
	return m.store.UserRaceSelections(ctx, userID, raceID)
}

// ForUser returns the user's selections across all races.
func (m *Manager) ForUser(ctx context.Context, userID string) ([]models.Selection, error) {
	return m.store.UserSelections(ctx, userID)
}
