package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/models"
)

func (s *Store) CreateRace(ctx context.Context, r *models.Race) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create race: %w", err)
	}
	return nil
}

func (s *Store) UpdateRace(ctx context.Context, id string, fields map[string]any) (*models.Race, error) {
	res := s.db.WithContext(ctx).Model(&models.Race{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update race %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("race %s", id)
	}
	return s.GetRace(ctx, id)
}

func (s *Store) GetRace(ctx context.Context, id string) (*models.Race, error) {
	var r models.Race
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "race "+id)
	}
	return &r, nil
}

// ListRaces returns races, most recent start first.
func (s *Store) ListRaces(ctx context.Context) ([]models.Race, error) {
	var races []models.Race
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true}).
		Order("id ASC").
		Find(&races).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	return races, nil
}

// RaceRunners returns the field of a race. An unknown race has an empty field.
func (s *Store) RaceRunners(ctx context.Context, raceID string) ([]models.Runner, error) {
	var runners []models.Runner
	err := s.db.WithContext(ctx).
		Joins("JOIN race_runners ON race_runners.runner_id = runners.id").
		Where("race_runners.race_id = ?", raceID).
		Order("runners.lastname ASC, runners.firstname ASC, runners.id ASC").
		Find(&runners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runners for race %s: %w", raceID, err)
	}
	return runners, nil
}

// AddRaceRunners creates the runners without an id and links all of them to the race.
func (s *Store) AddRaceRunners(ctx context.Context, raceID string, runners []models.Runner) ([]models.Runner, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var race models.Race
		if err := tx.First(&race, "id = ?", raceID).Error; err != nil {
			return wrap(err, "race "+raceID)
		}
		for i := range runners {
			if runners[i].ID == "" {
				if err := tx.Create(&runners[i]).Error; err != nil {
					return fmt.Errorf("failed to create runner: %w", err)
				}
				continue
			}
			var existing models.Runner
			if err := tx.First(&existing, "id = ?", runners[i].ID).Error; err != nil {
				return wrap(err, "runner "+runners[i].ID)
			}
			runners[i] = existing
		}
		if len(runners) == 0 {
			return nil
		}
		if err := tx.Model(&race).Association("Runners").Append(runners); err != nil {
			return fmt.Errorf("failed to add runners to race %s: %w", raceID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return runners, nil
}

// MissingFromRace returns the ids in runnerIDs that are not in the race field.
func (s *Store) MissingFromRace(ctx context.Context, raceID string, runnerIDs []string) ([]string, error) {
	var present []string
	err := s.db.WithContext(ctx).Table("race_runners").
		Where("race_id = ? AND runner_id IN ?", raceID, runnerIDs).
		Pluck("runner_id", &present).Error
	if err != nil {
		return nil, fmt.Errorf("failed to check race field: %w", err)
	}
	in := make(map[string]bool, len(present))
	for _, id := range present {
		in[id] = true
	}
	var missing []string
	for _, id := range runnerIDs {
		if !in[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
