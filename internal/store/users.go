package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/models"
)

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, wrap(err, "user "+id)
	}
	return &u, nil
}

func (s *Store) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "external_id = ?", externalID).Error; err != nil {
		return nil, wrap(err, "user with external id "+externalID)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Create(u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict("user with external id %s already exists", u.ExternalID)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// ListUsers returns every user in creation order.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Order("created_at ASC, id ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, id string, fields map[string]any) (*models.User, error) {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("user %s", id)
	}
	return s.GetUser(ctx, id)
}
