package leaderboard

import (
	"context"
	"errors"
	"time"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/models"
)

type Store interface {
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRaces(ctx context.Context) ([]models.Race, error)
	ListOfficialResults(ctx context.Context) ([]models.OfficialResult, error)
	AllSelections(ctx context.Context) ([]models.Selection, error)
	GetOfficialResult(ctx context.Context, raceID string) (*models.OfficialResult, error)
	RaceSelections(ctx context.Context, raceID string) ([]models.Selection, error)
}

type Aggregator struct {
	store Store
}

func NewAggregator(s Store) *Aggregator {
	return &Aggregator{store: s}
}

// Snapshot is a global leaderboard together with the races it covers.
type Snapshot struct {
	GeneratedAt time.Time
	Races       []models.Race
	Entries     []GlobalEntry
}

func (a *Aggregator) Snapshot(ctx context.Context) (*Snapshot, error) {
	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	races, err := a.store.ListRaces(ctx)
	if err != nil {
		return nil, err
	}
	results, err := a.store.ListOfficialResults(ctx)
	if err != nil {
		return nil, err
	}
	sels, err := a.store.AllSelections(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := BuildGlobal(users, races, results, sels)
	if err != nil {
		return nil, err
	}
	return &Snapshot{GeneratedAt: time.Now(), Races: races, Entries: entries}, nil
}

// Global returns every user ranked by total points across all races.
func (a *Aggregator) Global(ctx context.Context) ([]GlobalEntry, error) {
	snap, err := a.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Entries, nil
}

// Race returns the race leaderboard, empty until an official result is published.
func (a *Aggregator) Race(ctx context.Context, raceID string) ([]RaceEntry, error) {
	result, err := a.store.GetOfficialResult(ctx, raceID)
	if errors.Is(err, apperr.ErrNotFound) {
		return []RaceEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	sels, err := a.store.RaceSelections(ctx, raceID)
	if err != nil {
		return nil, err
	}
	return BuildRace(result, sels)
}
