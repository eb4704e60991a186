// Package runners lists runner profiles and handles claiming and editing them.
package runners

import (
	"context"
	"strings"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
)

type Store interface {
	ListRunners(ctx context.Context) ([]models.Runner, error)
	GetRunner(ctx context.Context, id string) (*models.Runner, error)
	UpdateRunner(ctx context.Context, id string, fields map[string]any) (*models.Runner, error)
	RunnerClaimedBy(ctx context.Context, userID string) (*models.Runner, error)
	ClaimRunner(ctx context.Context, runnerID, userID string, exclusive bool) (*models.Runner, error)
	UnclaimRunner(ctx context.Context, runnerID string) (*models.Runner, error)
	SetProfilePicture(ctx context.Context, runnerID, userID, ref string) (*models.Runner, error)
}

type Admins interface {
	IsAdmin(u *models.User) bool
}

type Service struct {
	store  Store
	admins Admins
	policy ClaimPolicy
}

func NewService(s Store, admins Admins, policy ClaimPolicy) *Service {
	if policy == nil {
		policy = NameSimilarity{Threshold: 0.5}
	}
	return &Service{store: s, admins: admins, policy: policy}
}

// Patch lists the runner fields a claimer may edit. Nil fields are left alone; an empty
// social link clears it.
type Patch struct {
	Firstname *string `json:"firstname"`
	Lastname  *string `json:"lastname"`
	Gender    *string `json:"gender"`
	Distance  *string `json:"distance"`
	Category  *string `json:"category"`
	Instagram *string `json:"instagram"`
	Strava    *string `json:"strava"`
	DUV       *string `json:"duv"`
	UTMB      *string `json:"utmb"`
	ITRA      *string `json:"itra"`
	NEDA      *string `json:"neda"`
}

func (p Patch) fields() (map[string]any, error) {
	fields := map[string]any{}
	for col, v := range map[string]*string{"firstname": p.Firstname, "lastname": p.Lastname} {
		if v == nil {
			continue
		}
		name := strings.TrimSpace(*v)
		if name == "" {
			return nil, apperr.Validation("%s must not be empty", col)
		}
		fields[col] = name
	}
	for col, v := range map[string]*string{"gender": p.Gender, "distance": p.Distance, "category": p.Category} {
		if v != nil {
			fields[col] = strings.TrimSpace(*v)
		}
	}
	links := map[string]*string{
		"instagram": p.Instagram, "strava": p.Strava,
		"duv": p.DUV, "utmb": p.UTMB, "itra": p.ITRA, "neda": p.NEDA,
	}
	for col, v := range links {
		if v == nil {
			continue
		}
		if link := strings.TrimSpace(*v); link != "" {
			fields[col] = link
		} else {
			fields[col] = nil
		}
	}
	return fields, nil
}

func (s *Service) List(ctx context.Context) ([]models.Runner, error) {
	return s.store.ListRunners(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Runner, error) {
	return s.store.GetRunner(ctx, id)
}

// ClaimedBy returns the runner userID has claimed, or nil.
func (s *Service) ClaimedBy(ctx context.Context, userID string) (*models.Runner, error) {
	return s.store.RunnerClaimedBy(ctx, userID)
}

// Claim links the runner profile to u. Admins may claim any number of runners and skip
// the claim policy.
func (s *Service) Claim(ctx context.Context, u *models.User, runnerID string) (*models.Runner, error) {
	r, err := s.store.GetRunner(ctx, runnerID)
	if err != nil {
		return nil, err
	}
	if r.ClaimedByUserID != nil {
		return nil, apperr.Conflict("runner already claimed")
	}
	admin := s.admins.IsAdmin(u)
	if !admin && !s.policy.Eligible(u, r) {
		return nil, apperr.Forbidden("runner name must be similar to your name to claim")
	}
	claimed, err := s.store.ClaimRunner(ctx, runnerID, u.ID, !admin)
	if err != nil {
		return nil, err
	}
	logger.Info("[RUNNERS] user %s claimed runner %s (%s)", u.ID, claimed.ID, claimed.FullName())
	return claimed, nil
}

func (s *Service) Unclaim(ctx context.Context, u *models.User, runnerID string) (*models.Runner, error) {
	r, err := s.store.GetRunner(ctx, runnerID)
	if err != nil {
		return nil, err
	}
	if !s.isClaimer(u, r) && !s.admins.IsAdmin(u) {
		return nil, apperr.Forbidden("only the claimer or an admin can unclaim this runner")
	}
	return s.store.UnclaimRunner(ctx, runnerID)
}

// Update edits runner metadata. Runners claimed by someone else are admin only.
func (s *Service) Update(ctx context.Context, u *models.User, runnerID string, p Patch) (*models.Runner, error) {
	fields, err := p.fields()
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetRunner(ctx, runnerID)
	if err != nil {
		return nil, err
	}
	if r.ClaimedByUserID != nil && !s.isClaimer(u, r) && !s.admins.IsAdmin(u) {
		return nil, apperr.Forbidden("only the claimer or an admin can edit this runner")
	}
	return s.store.UpdateRunner(ctx, runnerID, fields)
}

// SetProfilePicture records ref as the picture of the runner and of u.
func (s *Service) SetProfilePicture(ctx context.Context, u *models.User, runnerID, ref string) (*models.Runner, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperr.Validation("picture reference is required")
	}
	r, err := s.store.GetRunner(ctx, runnerID)
	if err != nil {
		return nil, err
	}
	if !s.isClaimer(u, r) && !s.admins.IsAdmin(u) {
		return nil, apperr.Forbidden("only the claimer or an admin can set a profile picture")
	}
	return s.store.SetProfilePicture(ctx, runnerID, u.ID, ref)
}

func (s *Service) isClaimer(u *models.User, r *models.Runner) bool {
	return r.ClaimedByUserID != nil && *r.ClaimedByUserID == u.ID
}
