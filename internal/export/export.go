// Package export renders the global leaderboard as a grid for spreadsheets and CSV.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"ultrafantasi/internal/leaderboard"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
)

// Sink receives the rendered leaderboard grid, header row first.
type Sink interface {
	WriteLeaderboard(ctx context.Context, grid [][]string) error
}

type Snapshotter interface {
	Snapshot(ctx context.Context) (*leaderboard.Snapshot, error)
}

// Grid lays out entries with one column per race, oldest race first.
func Grid(races []models.Race, entries []leaderboard.GlobalEntry) [][]string {
	cols := append([]models.Race(nil), races...)
	sort.SliceStable(cols, func(i, j int) bool { return cols[i].Date.Before(cols[j].Date) })

	header := []string{"Rank", "Name", "Total"}
	for _, r := range cols {
		header = append(header, r.Name)
	}
	grid := [][]string{header}
	for i, e := range entries {
		row := []string{strconv.Itoa(i + 1), e.User.DisplayName, strconv.Itoa(e.Total)}
		for _, r := range cols {
			rs, ok := e.RaceScores[r.ID]
			if !ok || !rs.Scored {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.Itoa(rs.Points))
		}
		grid = append(grid, row)
	}
	return grid
}

func WriteCSV(w io.Writer, races []models.Race, entries []leaderboard.GlobalEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Grid(races, entries)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// Job pushes a fresh leaderboard snapshot to a sink.
type Job struct {
	source Snapshotter
	sink   Sink
}

func NewJob(source Snapshotter, sink Sink) *Job {
	return &Job{source: source, sink: sink}
}

func (j *Job) Run(ctx context.Context) error {
	snap, err := j.source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("build leaderboard snapshot: %w", err)
	}
	grid := Grid(snap.Races, snap.Entries)
	if err := j.sink.WriteLeaderboard(ctx, grid); err != nil {
		return fmt.Errorf("write leaderboard: %w", err)
	}
	logger.Info("[EXPORT] leaderboard exported: %d players, %d races", len(snap.Entries), len(snap.Races))
	return nil
}
