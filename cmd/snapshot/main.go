package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/joho/godotenv"

	"ultrafantasi/internal/config"
	"ultrafantasi/internal/export"
	"ultrafantasi/internal/leaderboard"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/sheets"
	"ultrafantasi/internal/store"
)

// Reused across warm invocations.
var job *export.Job

// handler exports the global leaderboard when EventBridge fires the schedule.
func handler(ctx context.Context, event events.CloudWatchEvent) error {
	logger.Info("[LAMBDA] exporting leaderboard at %s", event.Time)

	if job == nil {
		if err := initJob(ctx); err != nil {
			return fmt.Errorf("failed to initialize export: %w", err)
		}
	}

	if err := job.Run(ctx); err != nil {
		logger.Error("[LAMBDA_ERROR] export failed: %v", err)
		return err
	}
	logger.Info("[LAMBDA_SUCCESS] leaderboard exported")
	return nil
}

func initJob(ctx context.Context) error {
	logger.Info("[LAMBDA] initializing store and sheets client...")

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	logger.SetLevelFromString(cfg.LogLevel)
	if !cfg.SheetsEnabled() {
		return fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID and GOOGLE_SERVICE_ACCOUNT_JSON are required")
	}

	cfg.DB, err = config.ResolveDBSecret(ctx, cfg.DB)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	sh, err := sheets.New(context.Background(), cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
	if err != nil {
		_ = st.Close()
		return err
	}

	job = export.NewJob(leaderboard.NewAggregator(st), sh)
	logger.Info("[LAMBDA] export initialized")
	return nil
}

func main() {
	// Lambda injects its environment; a .env file only exists for local invokes.
	_ = godotenv.Load()
	lambda.Start(handler)
}
