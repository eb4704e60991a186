package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"ultrafantasi/internal/models"
)

// ReplaceSelections deletes the user's picks for the race and inserts runnerIDs ranked by
// position. Both steps share one transaction, so readers never see an empty selection
// caused by a failed insert, and concurrent replacements for the same key do not interleave.
func (s *Store) ReplaceSelections(ctx context.Context, userID, raceID string, runnerIDs []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockKey(tx, "selection:"+userID+":"+raceID); err != nil {
			return err
		}
		if err := tx.Where("user_id = ? AND race_id = ?", userID, raceID).Delete(&models.Selection{}).Error; err != nil {
			return fmt.Errorf("failed to delete previous selection: %w", err)
		}
		rows := make([]models.Selection, 0, len(runnerIDs))
		for i, runnerID := range runnerIDs {
			rows = append(rows, models.Selection{
				UserID:   userID,
				RaceID:   raceID,
				RunnerID: runnerID,
				Rank:     i + 1,
			})
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Create(&rows).Error; err != nil {
			return fmt.Errorf("failed to insert selection: %w", err)
		}
		return nil
	})
}

// UserRaceSelections returns the user's picks for one race, rank ascending.
func (s *Store) UserRaceSelections(ctx context.Context, userID, raceID string) ([]models.Selection, error) {
	var sels []models.Selection
	err := s.db.WithContext(ctx).
		Preload("Runner").
		Where("user_id = ? AND race_id = ?", userID, raceID).
		Order("rank ASC").
		Find(&sels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selection: %w", err)
	}
	return sels, nil
}

// UserSelections returns all of the user's picks grouped by race, rank ascending.
func (s *Store) UserSelections(ctx context.Context, userID string) ([]models.Selection, error) {
	var sels []models.Selection
	err := s.db.WithContext(ctx).
		Preload("Runner").
		Where("user_id = ?", userID).
		Order("race_id ASC, rank ASC").
		Find(&sels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selections: %w", err)
	}
	return sels, nil
}

// RaceSelections returns every pick for the race with user and runner, ordered by user then rank.
func (s *Store) RaceSelections(ctx context.Context, raceID string) ([]models.Selection, error) {
	var sels []models.Selection
	err := s.db.WithContext(ctx).
		Preload("User").
		Preload("Runner").
		Where("race_id = ?", raceID).
		Order("user_id ASC, rank ASC").
		Find(&sels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selections for race %s: %w", raceID, err)
	}
	return sels, nil
}

// AllSelections returns every pick with its runner, ordered by user, race and rank.
func (s *Store) AllSelections(ctx context.Context) ([]models.Selection, error) {
	var sels []models.Selection
	err := s.db.WithContext(ctx).
		Preload("Runner").
		Order("user_id ASC, race_id ASC, rank ASC").
		Find(&sels).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch selections: %w", err)
	}
	return sels, nil
}
