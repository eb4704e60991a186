// Package users keeps player accounts in step with the identities the login proxy forwards.
package users

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/auth"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
)

const (
	MinNickname = 2
	MaxNickname = 32
)

type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error)
	CreateUser(ctx context.Context, u *models.User) error
	UpdateUser(ctx context.Context, id string, fields map[string]any) (*models.User, error)
}

type Service struct {
	store Store
}

func NewService(s Store) *Service {
	return &Service{store: s}
}

// Ensure returns the user for id, creating it on first sight. Email and name follow the
// identity provider.
func (s *Service) Ensure(ctx context.Context, id auth.Identity) (*models.User, error) {
	u, err := s.store.GetUserByExternalID(ctx, id.Subject)
	switch {
	case err == nil:
		return s.refresh(ctx, u, id)
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}

	u = &models.User{ExternalID: id.Subject, Email: id.Email, Name: id.Name}
	if err := s.store.CreateUser(ctx, u); err != nil {
		// A concurrent request may have created the same account.
		if existing, getErr := s.store.GetUserByExternalID(ctx, id.Subject); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	logger.Info("[USERS] created user %s (%s)", u.ID, u.Email)
	return u, nil
}

func (s *Service) refresh(ctx context.Context, u *models.User, id auth.Identity) (*models.User, error) {
	fields := map[string]any{}
	if id.Email != "" && id.Email != u.Email {
		fields["email"] = id.Email
	}
	if id.Name != "" && id.Name != u.Name {
		fields["name"] = id.Name
	}
	if len(fields) == 0 {
		return u, nil
	}
	return s.store.UpdateUser(ctx, u.ID, fields)
}

// SetNickname stores nickname after trimming. It must be MinNickname to MaxNickname
// characters long.
func (s *Service) SetNickname(ctx context.Context, userID, nickname string) (*models.User, error) {
	nickname = strings.TrimSpace(nickname)
	if n := utf8.RuneCountInString(nickname); n < MinNickname || n > MaxNickname {
		return nil, apperr.Validation("nickname must be %d-%d characters", MinNickname, MaxNickname)
	}
	return s.store.UpdateUser(ctx, userID, map[string]any{"nickname": nickname})
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}
