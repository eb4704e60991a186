package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ultrafantasi/internal/apperr"
	"ultrafantasi/internal/auth"
	"ultrafantasi/internal/config"
	"ultrafantasi/internal/export"
	"ultrafantasi/internal/leaderboard"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
	"ultrafantasi/internal/races"
	"ultrafantasi/internal/runners"
	"ultrafantasi/internal/selection"
	"ultrafantasi/internal/users"
	"ultrafantasi/internal/util"
)

const maxBody = 1 << 20

// Services are the operations the HTTP API exposes.
type Services struct {
	Users       *users.Service
	Runners     *runners.Service
	Races       *races.Service
	Selections  *selection.Manager
	Leaderboard *leaderboard.Aggregator
	Admins      auth.Admins
}

type server struct {
	cfg config.Config
	Services
}

func New(cfg config.Config, svc Services) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           Routes(cfg, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Routes builds the API handler.
func Routes(cfg config.Config, svc Services) http.Handler {
	s := &server{cfg: cfg, Services: svc}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "ts": util.NowISO()})
	})

	mux.HandleFunc("GET /auth/me", s.authed(s.me))
	mux.HandleFunc("POST /me/nickname", s.authed(s.setNickname))

	mux.HandleFunc("GET /runners", s.listRunners)
	mux.HandleFunc("PATCH /runners/{id}", s.authed(s.updateRunner))
	mux.HandleFunc("POST /runners/{id}/claim", s.authed(s.claimRunner))
	mux.HandleFunc("POST /runners/{id}/unclaim", s.authed(s.unclaimRunner))
	mux.HandleFunc("POST /runners/{id}/profile-picture", s.authed(s.setProfilePicture))

	mux.HandleFunc("GET /races", s.listRaces)
	mux.HandleFunc("POST /races", s.admin(s.createRace))
	mux.HandleFunc("GET /races/{raceID}", s.getRace)
	mux.HandleFunc("PATCH /races/{raceID}", s.admin(s.updateRace))
	mux.HandleFunc("GET /races/{raceID}/runners", s.raceRunners)
	mux.HandleFunc("POST /races/{raceID}/runners", s.admin(s.addRaceRunners))

	mux.HandleFunc("POST /races/{raceID}/selections", s.authed(s.submitSelection))
	mux.HandleFunc("GET /races/{raceID}/selections/me", s.authed(s.myRaceSelection))
	mux.HandleFunc("GET /selections/me", s.authed(s.mySelections))

	mux.HandleFunc("POST /races/{raceID}/official-result", s.admin(s.publishResult))
	mux.HandleFunc("GET /races/{raceID}/official-result", s.officialResult)

	mux.HandleFunc("GET /races/{raceID}/leaderboard", s.raceLeaderboard)
	mux.HandleFunc("GET /leaderboard", s.globalLeaderboard)

	// CSV export (admin link with token = HMAC)
	mux.HandleFunc("GET /export/leaderboard.csv", s.exportCSV)

	return mux
}

type userHandler func(w http.ResponseWriter, r *http.Request, u *models.User)

// authed resolves the signed identity headers to a user before calling h.
func (s *server) authed(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := auth.FromRequest(r, s.cfg.IdentitySecret)
		if err != nil {
			writeError(w, err)
			return
		}
		u, err := s.Users.Ensure(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		h(w, r.WithContext(auth.WithUser(r.Context(), u)), u)
	}
}

func (s *server) admin(h userHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, u *models.User) {
		if !s.Admins.IsAdmin(u) {
			writeError(w, apperr.Forbidden("admin only"))
			return
		}
		h(w, r, u)
	})
}

func (s *server) me(w http.ResponseWriter, r *http.Request, u *models.User) {
	claimed, err := s.Runners.ClaimedBy(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		*models.User
		DisplayName   string         `json:"displayName"`
		IsAdmin       bool           `json:"isAdmin"`
		ClaimedRunner *models.Runner `json:"claimedRunner"`
	}{u, u.DisplayName(), s.Admins.IsAdmin(u), claimed})
}

func (s *server) setNickname(w http.ResponseWriter, r *http.Request, u *models.User) {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updated, err := s.Users.SetNickname(r.Context(), u.ID, req.Nickname)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "nickname": updated.Nickname})
}

func (s *server) listRunners(w http.ResponseWriter, r *http.Request) {
	list, err := s.Runners.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *server) updateRunner(w http.ResponseWriter, r *http.Request, u *models.User) {
	var p runners.Patch
	if err := decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	runner, err := s.Runners.Update(r.Context(), u, r.PathValue("id"), p)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runner)
}

func (s *server) claimRunner(w http.ResponseWriter, r *http.Request, u *models.User) {
	runner, err := s.Runners.Claim(r.Context(), u, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "runner": runner})
}

func (s *server) unclaimRunner(w http.ResponseWriter, r *http.Request, u *models.User) {
	runner, err := s.Runners.Unclaim(r.Context(), u, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "runner": runner})
}

func (s *server) setProfilePicture(w http.ResponseWriter, r *http.Request, u *models.User) {
	var req struct {
		Ref string `json:"ref"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	runner, err := s.Runners.SetProfilePicture(r.Context(), u, r.PathValue("id"), req.Ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "runner": runner})
}

type raceRequest struct {
	Name   string            `json:"name"`
	Date   string            `json:"date"`
	Status models.RaceStatus `json:"status"`
}

// input accepts RFC 3339 timestamps and plain dates.
func (req raceRequest) input() (races.Input, error) {
	in := races.Input{Name: req.Name, Status: req.Status}
	raw := strings.TrimSpace(req.Date)
	if raw == "" {
		return in, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			in.Date = t
			return in, nil
		}
	}
	return in, apperr.Validation("date %q is not a valid date", raw)
}

func (s *server) listRaces(w http.ResponseWriter, r *http.Request) {
	list, err := s.Races.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *server) createRace(w http.ResponseWriter, r *http.Request, _ *models.User) {
	var req raceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return
	}
	race, err := s.Races.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, race)
}

func (s *server) getRace(w http.ResponseWriter, r *http.Request) {
	view, err := s.Races.Get(r.Context(), r.PathValue("raceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *server) updateRace(w http.ResponseWriter, r *http.Request, _ *models.User) {
	var req raceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	in, err := req.input()
	if err != nil {
		writeError(w, err)
		return
	}
	race, err := s.Races.Update(r.Context(), r.PathValue("raceID"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, race)
}

func (s *server) raceRunners(w http.ResponseWriter, r *http.Request) {
	field, err := s.Races.Runners(r.Context(), r.PathValue("raceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(field))
}

func (s *server) addRaceRunners(w http.ResponseWriter, r *http.Request, _ *models.User) {
	var req struct {
		Runners []races.RunnerInput `json:"runners"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	added, err := s.Races.AddRunners(r.Context(), r.PathValue("raceID"), req.Runners)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *server) submitSelection(w http.ResponseWriter, r *http.Request, u *models.User) {
	var req struct {
		RunnerIDs []string `json:"runnerIds"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Selections.Submit(r.Context(), u.ID, r.PathValue("raceID"), req.RunnerIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true})
}

func (s *server) myRaceSelection(w http.ResponseWriter, r *http.Request, u *models.User) {
	sels, err := s.Selections.ForRace(r.Context(), u.ID, r.PathValue("raceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sels))
}

func (s *server) mySelections(w http.ResponseWriter, r *http.Request, u *models.User) {
	sels, err := s.Selections.ForUser(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(sels))
}

func (s *server) publishResult(w http.ResponseWriter, r *http.Request, _ *models.User) {
	var req struct {
		Top10 []string `json:"top10"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.Races.PublishResult(r.Context(), r.PathValue("raceID"), req.Top10)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": res})
}

func (s *server) officialResult(w http.ResponseWriter, r *http.Request) {
	res, err := s.Races.Result(r.Context(), r.PathValue("raceID"))
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) raceLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.Leaderboard.Race(r.Context(), r.PathValue("raceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (s *server) globalLeaderboard(w http.ResponseWriter, r *http.Request) {
	board, err := s.Leaderboard.Global(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(board))
}

func (s *server) exportCSV(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, apperr.Validation("token required"))
		return
	}
	if !auth.ValidExportToken(s.cfg.IdentitySecret, token) {
		writeError(w, apperr.Forbidden("invalid token"))
		return
	}
	snap, err := s.Leaderboard.Snapshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)
	if err := export.WriteCSV(w, snap.Races, snap.Entries); err != nil {
		logger.Error("[HTTP] write leaderboard csv: %v", err)
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("[HTTP] encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	msg := err.Error()
	if !apperr.Public(err) {
		logger.Error("[HTTP] %v", err)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
