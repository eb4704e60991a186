// Package races manages races, their fields and their official results.
package races

import (
	"context"
	"errors"
	"strings"
	"time"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
	"ultrafantasi/internal/selection"
)

type Store interface {
	CreateRace(ctx context.Context, r *models.Race) error
	UpdateRace(ctx context.Context, id string, fields map[string]any) (*models.Race, error)
	GetRace(ctx context.Context, id string) (*models.Race, error)
	MissingFromRace(ctx context.Context, raceID string, runnerIDs []string) ([]string, error)
	ListRaces(ctx context.Context) ([]models.Race, error)
	RaceRunners(ctx context.Context, raceID string) ([]models.Runner, error)
	AddRaceRunners(ctx context.Context, raceID string, runners []models.Runner) ([]models.Runner, error)
	UpsertOfficialResult(ctx context.Context, raceID string, top10 []string) (*models.OfficialResult, error)
	GetOfficialResult(ctx context.Context, raceID string) (*models.OfficialResult, error)
}

// ResultNotifier is told about every published result.
type ResultNotifier interface {
	NotifyResultPublished(ctx context.Context, race models.Race) error
}

type Service struct {
	store     Store
	notifiers []ResultNotifier
	now       func() time.Time
}

func NewService(s Store, notifiers ...ResultNotifier) *Service {
	return &Service{store: s, notifiers: notifiers, now: time.Now}
}

// Input is a race as sent by admins.
type Input struct {
	Name   string            `json:"name"`
	Date   time.Time         `json:"date"`
	Status models.RaceStatus `json:"status"`
}

func (in Input) validate() (Input, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, apperr.Validation("name is required")
	}
	if in.Date.IsZero() {
		return in, apperr.Validation("date is required")
	}
	if in.Status == "" {
		in.Status = models.RaceUpcoming
	}
	if !in.Status.Valid() {
		return in, apperr.Validation("status must be %q or %q", models.RaceUpcoming, models.RaceFinished)
	}
	return in, nil
}

// View is a race with its phase at the time it was read.
type View struct {
	models.Race
	Phase  models.Phase `json:"phase"`
	Scored bool         `json:"scored"`
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Race, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	r := &models.Race{Name: in.Name, Date: in.Date, Status: in.Status}
	if err := s.store.CreateRace(ctx, r); err != nil {
		return nil, err
	}
	logger.Info("[RACES] created race %s (%s) on %s", r.ID, r.Name, r.Date.Format(time.RFC3339))
	return r, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Race, error) {
	in, err := in.validate()
	if err != nil {
		return nil, err
	}
	return s.store.UpdateRace(ctx, id, map[string]any{
		"name":   in.Name,
		"date":   in.Date,
		"status": in.Status,
	})
}

func (s *Service) List(ctx context.Context) ([]models.Race, error) {
	return s.store.ListRaces(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	r, err := s.store.GetRace(ctx, id)
	if err != nil {
		return nil, err
	}
	scored := true
	if _, err := s.store.GetOfficialResult(ctx, id); err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		scored = false
	}
	return &View{Race: *r, Phase: r.Phase(s.now(), scored), Scored: scored}, nil
}

// Runners returns the race field, empty for an unknown race.
func (s *Service) Runners(ctx context.Context, raceID string) ([]models.Runner, error) {
	return s.store.RaceRunners(ctx, raceID)
}

// RunnerInput adds a runner to a field. With ID set the existing runner is linked and the
// other fields are ignored.
type RunnerInput struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Gender    string `json:"gender"`
	Distance  string `json:"distance"`
	Category  string `json:"category"`
}

func (s *Service) AddRunners(ctx context.Context, raceID string, in []RunnerInput) ([]models.Runner, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("at least one runner is required")
	}
	runners := make([]models.Runner, len(in))
	for i, ri := range in {
		if id := strings.TrimSpace(ri.ID); id != "" {
			runners[i] = models.Runner{ID: id}
			continue
		}
		first, last := strings.TrimSpace(ri.Firstname), strings.TrimSpace(ri.Lastname)
		if first == "" || last == "" {
			return nil, apperr.Validation("runners[%d]: firstname and lastname are required", i)
		}
		runners[i] = models.Runner{
			Firstname: first,
			Lastname:  last,
			Gender:    strings.TrimSpace(ri.Gender),
			Distance:  strings.TrimSpace(ri.Distance),
			Category:  strings.TrimSpace(ri.Category),
		}
	}
	added, err := s.store.AddRaceRunners(ctx, raceID, runners)
	if err != nil {
		return nil, err
	}
	logger.Info("[RACES] added %d runners to race %s", len(added), raceID)
	return added, nil
}

// PublishResult stores the official top 10 for the race, replacing any earlier result.
// Notifiers run in the background and never fail the publish.
func (s *Service) PublishResult(ctx context.Context, raceID string, top10 []string) (*models.OfficialResult, error) {
	if err := selection.ValidateRanking("top10", top10); err != nil {
		return nil, err
	}
	race, err := s.store.GetRace(ctx, raceID)
	if err != nil {
		return nil, err
	}
	missing, err := s.store.MissingFromRace(ctx, raceID, top10)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("top10 runners not in race %s: %s", raceID, strings.Join(missing, ", "))
	}
	res, err := s.store.UpsertOfficialResult(ctx, raceID, top10)
	if err != nil {
		return nil, err
	}
	logger.Info("[RACES] official result published for race %s (%s)", race.ID, race.Name)

	for _, n := range s.notifiers {
		go func(n ResultNotifier) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := n.NotifyResultPublished(ctx, *race); err != nil {
				logger.Warn("[RACES] result notification for race %s failed: %v", race.ID, err)
			}
		}(n)
	}
	return res, nil
}

// Result returns the published result for the race.
func (s *Service) Result(ctx context.Context, raceID string) (*models.OfficialResult, error) {
	return s.store.GetOfficialResult(ctx, raceID)
}
