package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/models"
)

func (s *Store) ListRunners(ctx context.Context) ([]models.Runner, error) {
	var runners []models.Runner
	err := s.db.WithContext(ctx).Order("lastname ASC, firstname ASC, id ASC").Find(&runners).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list runners: %w", err)
	}
	return runners, nil
}

func (s *Store) GetRunner(ctx context.Context, id string) (*models.Runner, error) {
	var r models.Runner
	if err := s.db.WithContext(ctx).First(&r, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "runner "+id)
	}
	return &r, nil
}

func (s *Store) CreateRunner(ctx context.Context, r *models.Runner) error {
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}
	return nil
}

func (s *Store) UpdateRunner(ctx context.Context, id string, fields map[string]any) (*models.Runner, error) {
	if len(fields) > 0 {
		res := s.db.WithContext(ctx).Model(&models.Runner{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, fmt.Errorf("failed to update runner %s: %w", id, res.Error)
		}
	}
	return s.GetRunner(ctx, id)
}

// RunnerClaimedBy returns the runner claimed by userID, or nil when there is none.
func (s *Store) RunnerClaimedBy(ctx context.Context, userID string) (*models.Runner, error) {
	var r models.Runner
	err := s.db.WithContext(ctx).Where("claimed_by_user_id = ?", userID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up claimed runner: %w", err)
	}
	return &r, nil
}

// ClaimRunner sets the claimer only while the runner is unclaimed. With exclusive set the
// user must not already hold another runner.
func (s *Store) ClaimRunner(ctx context.Context, runnerID, userID string, exclusive bool) (*models.Runner, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockKey(tx, "claim:"+userID); err != nil {
			return err
		}
		if exclusive {
			var n int64
			if err := tx.Model(&models.Runner{}).Where("claimed_by_user_id = ?", userID).Count(&n).Error; err != nil {
				return fmt.Errorf("failed to count claims: %w", err)
			}
			if n > 0 {
				return apperr.Conflict("you have already claimed a runner")
			}
		}
		res := tx.Model(&models.Runner{}).
			Where("id = ? AND claimed_by_user_id IS NULL", runnerID).
			Update("claimed_by_user_id", userID)
		if res.Error != nil {
			return fmt.Errorf("failed to claim runner %s: %w", runnerID, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("runner already claimed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRunner(ctx, runnerID)
}

func (s *Store) UnclaimRunner(ctx context.Context, runnerID string) (*models.Runner, error) {
	err := s.db.WithContext(ctx).Model(&models.Runner{}).
		Where("id = ?", runnerID).
		Update("claimed_by_user_id", nil).Error
	if err != nil {
		return nil, fmt.Errorf("failed to unclaim runner %s: %w", runnerID, err)
	}
	return s.GetRunner(ctx, runnerID)
}

// SetProfilePicture stores ref on the runner and on the acting user in one transaction.
func (s *Store) SetProfilePicture(ctx context.Context, runnerID, userID, ref string) (*models.Runner, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Runner{}).Where("id = ?", runnerID).Update("profile_picture", ref).Error; err != nil {
			return fmt.Errorf("failed to set runner picture: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("profile_picture", ref).Error; err != nil {
			return fmt.Errorf("failed to set user picture: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetRunner(ctx, runnerID)
}
