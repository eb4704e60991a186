package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"ultrafantasi/internal/models"
)

// UpsertOfficialResult creates the race's result or overwrites its top 10.
func (s *Store) UpsertOfficialResult(ctx context.Context, raceID string, top10 []string) (*models.OfficialResult, error) {
	res, err := models.NewOfficialResult(raceID, top10)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "race_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"top10", "updated_at"}),
	}).Create(&res).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save official result: %w", err)
	}
	return s.GetOfficialResult(ctx, raceID)
}

func (s *Store) GetOfficialResult(ctx context.Context, raceID string) (*models.OfficialResult, error) {
	var res models.OfficialResult
	if err := s.db.WithContext(ctx).First(&res, "race_id = ?", raceID).Error; err != nil {
		return nil, wrap(err, "official result for race "+raceID)
	}
	return &res, nil
}

func (s *Store) ListOfficialResults(ctx context.Context) ([]models.OfficialResult, error) {
	var results []models.OfficialResult
	if err := s.db.WithContext(ctx).Order("race_id ASC").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list official results: %w", err)
	}
	return results, nil
}
