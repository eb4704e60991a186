// Package storetest opens throwaway SQLite stores and seeds fixtures for tests.
package storetest

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"ultrafantasi/internal/config"
	"ultrafantasi/internal/models"
	"ultrafantasi/internal/store"
)

// New opens a migrated store backed by a file in t.TempDir.
func New(t testing.TB) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), config.DBConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func User(t testing.TB, s *store.Store, name string) models.User {
	t.Helper()
	u := models.User{ExternalID: "ext-" + name, Email: name + "@example.com", Name: name}
	if err := s.CreateUser(context.Background(), &u); err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

// Race creates a race starting at start with n fresh runners in its field.
// Runner ids are returned in creation order.
func Race(t testing.TB, s *store.Store, name string, start time.Time, n int) (models.Race, []string) {
	t.Helper()
	ctx := context.Background()
	race := models.Race{Name: name, Date: start, Status: models.RaceUpcoming}
	if err := s.CreateRace(ctx, &race); err != nil {
		t.Fatalf("create race %s: %v", name, err)
	}
	runners := make([]models.Runner, n)
	for i := range runners {
		runners[i] = models.Runner{Firstname: "Runner", Lastname: fmt.Sprintf("%s-%02d", name, i+1)}
	}
	added, err := s.AddRaceRunners(ctx, race.ID, runners)
	if err != nil {
		t.Fatalf("add runners to %s: %v", name, err)
	}
	ids := make([]string, len(added))
	for i, r := range added {
		ids[i] = r.ID
	}
	return race, ids
}

// Reversed returns a reversed copy of ids.
func Reversed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}
