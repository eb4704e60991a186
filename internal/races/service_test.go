package races

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/models"
	"ultrafantasi/internal/store/storetest"
)

type recordingNotifier struct {
	mu    sync.Mutex
	races []string
	done  chan struct{}
}

func (n *recordingNotifier) NotifyResultPublished(_ context.Context, race models.Race) error {
	n.mu.Lock()
	n.races = append(n.races, race.ID)
	n.mu.Unlock()
	n.done <- struct{}{}
	return errors.New("telegram is down")
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := NewService(s)
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	t.Run("validation", func(t *testing.T) {
		bad := []Input{
			{Name: " ", Date: now},
			{Name: "Ecotrail"},
			{Name: "Ecotrail", Date: now, Status: "cancelled"},
		}
		for _, in := range bad {
			if _, err := svc.Create(ctx, in); !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("Create(%+v): expected validation error, got %v", in, err)
			}
		}
	})

	race, err := svc.Create(ctx, Input{Name: " Ecotrail ", Date: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if race.Name != "Ecotrail" || race.Status != models.RaceUpcoming {
		t.Fatalf("unexpected race %+v", race)
	}

	view, err := svc.Get(ctx, race.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Phase != models.PhaseUpcoming || view.Scored {
		t.Fatalf("phase = %s scored = %v", view.Phase, view.Scored)
	}

	updated, err := svc.Update(ctx, race.ID, Input{Name: "Ecotrail Oslo", Date: now.Add(-time.Hour), Status: models.RaceFinished})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Name != "Ecotrail Oslo" || updated.Status != models.RaceFinished {
		t.Fatalf("unexpected race %+v", updated)
	}
	view, _ = svc.Get(ctx, race.ID)
	if view.Phase != models.PhaseStarted {
		t.Fatalf("phase after start = %s", view.Phase)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Update(ctx, "missing", Input{Name: "x", Date: now}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddRunners(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	svc := NewService(s)
	race, existing := storetest.Race(t, s, "ut4m", time.Now().Add(time.Hour), 1)
	other, err := svc.Create(ctx, Input{Name: "Other", Date: time.Now().Add(time.Hour)})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	added, err := svc.AddRunners(ctx, other.ID, []RunnerInput{
		{ID: existing[0]},
		{Firstname: "Jim", Lastname: "Walmsley", Distance: "100M"},
	})
	if err != nil {
		t.Fatalf("AddRunners: %v", err)
	}
	if len(added) != 2 || added[0].ID != existing[0] || added[1].ID == "" {
		t.Fatalf("unexpected runners %+v", added)
	}

	field, err := svc.Runners(ctx, other.ID)
	if err != nil {
		t.Fatalf("Runners: %v", err)
	}
	if len(field) != 2 {
		t.Fatalf("field has %d runners", len(field))
	}
	first, _ := svc.Runners(ctx, race.ID)
	if len(first) != 1 {
		t.Fatalf("original field changed to %d runners", len(first))
	}
	if none, err := svc.Runners(ctx, "missing"); err != nil || len(none) != 0 {
		t.Fatalf("unknown race field = %v, %v", none, err)
	}

	if _, err := svc.AddRunners(ctx, other.ID, []RunnerInput{{Firstname: "Solo"}}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := svc.AddRunners(ctx, "missing", []RunnerInput{{Firstname: "A", Lastname: "B"}}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPublishResult(t *testing.T) {
	ctx := context.Background()
	s := storetest.New(t)
	n := &recordingNotifier{done: make(chan struct{}, 4)}
	svc := NewService(s, n)
	race, ids := storetest.Race(t, s, "lavaredo", time.Now().Add(-time.Hour), 12)

	if _, err := svc.Result(ctx, race.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found before publish, got %v", err)
	}

	dup := append([]string{}, ids[:10]...)
	dup[9] = dup[0]
	for name, top := range map[string][]string{"short": ids[:9], "duplicate": dup} {
		if _, err := svc.PublishResult(ctx, race.ID, top); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
	if _, err := svc.PublishResult(ctx, "missing", ids[:10]); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	t.Run("runner_outside_field", func(t *testing.T) {
		_, other := storetest.Race(t, s, "other", time.Now().Add(time.Hour), 1)
		top := append([]string{}, ids[:9]...)
		for _, extra := range []string{other[0], "no-such-runner"} {
			_, err := svc.PublishResult(ctx, race.ID, append(top, extra))
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("%s: expected validation error, got %v", extra, err)
			}
		}
		if _, err := svc.Result(ctx, race.ID); !errors.Is(err, apperr.ErrNotFound) {
			t.Fatalf("result stored after rejected publish: %v", err)
		}
	})

	if _, err := svc.PublishResult(ctx, race.ID, ids[:10]); err != nil {
		t.Fatalf("PublishResult: %v", err)
	}
	second := storetest.Reversed(ids[2:])
	res, err := svc.PublishResult(ctx, race.ID, second)
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	got, err := res.RunnerIDs()
	if err != nil {
		t.Fatalf("RunnerIDs: %v", err)
	}
	if !reflect.DeepEqual(got, second) {
		t.Fatalf("stored top10 = %v, want %v", got, second)
	}

	for i := 0; i < 2; i++ {
		select {
		case <-n.done:
		case <-time.After(5 * time.Second):
			t.Fatal("notifier not called")
		}
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.races) != 2 || n.races[0] != race.ID {
		t.Fatalf("notified races = %v", n.races)
	}

	view, err := svc.Get(ctx, race.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Phase != models.PhaseScored {
		t.Fatalf("phase = %s, want scored", view.Phase)
	}
}
