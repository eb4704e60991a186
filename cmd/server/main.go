package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ultrafantasi/internal/auth"
	"ultrafantasi/internal/config"
	"ultrafantasi/internal/export"
	"ultrafantasi/internal/leaderboard"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/races"
	"ultrafantasi/internal/runners"
	"ultrafantasi/internal/scheduler"
	"ultrafantasi/internal/selection"
	"ultrafantasi/internal/server"
	"ultrafantasi/internal/sheets"
	"ultrafantasi/internal/store"
	"ultrafantasi/internal/tgbot"
	"ultrafantasi/internal/users"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("config: %v", err)
		os.Exit(1)
	}
	logger.SetLevelFromString(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg.DB, err = config.ResolveDBSecret(ctx, cfg.DB)
	if err != nil {
		logger.Error("db secret: %v", err)
		os.Exit(1)
	}
	st, err := store.Open(ctx, cfg.DB)
	if err != nil {
		logger.Error("store: %v", err)
		os.Exit(1)
	}
	defer st.Close()

	policy, err := runners.NewClaimPolicy(cfg.ClaimPolicy)
	if err != nil {
		logger.Error("claim policy: %v", err)
		os.Exit(1)
	}

	admins := auth.Admins{Emails: cfg.AdminEmails}
	boards := leaderboard.NewAggregator(st)
	var notifiers []races.ResultNotifier

	var botApp *tgbot.App
	if cfg.TelegramToken != "" {
		botApp, err = tgbot.New(cfg, boards, st)
		if err != nil {
			logger.Error("telegram: %v", err)
			os.Exit(1)
		}
		notifiers = append(notifiers, botApp)
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}

	var sched *scheduler.Scheduler
	if cfg.ExportEnabled {
		sheetsClient, err := sheets.New(ctx, cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
		if err != nil {
			logger.Error("sheets: %v", err)
			os.Exit(1)
		}
		sched, err = scheduler.New(cfg.ExportCron, export.NewJob(boards, sheetsClient))
		if err != nil {
			logger.Error("scheduler: %v", err)
			os.Exit(1)
		}
		sched.Start()
		logger.Info("leaderboard export to sheet %s scheduled (%s)", sheetsClient.SpreadsheetID(), cfg.ExportCron)
	}

	httpSrv := server.New(cfg, server.Services{
		Users:       users.NewService(st),
		Runners:     runners.NewService(st, admins, policy),
		Races:       races.NewService(st, notifiers...),
		Selections:  selection.NewManager(st, nil),
		Leaderboard: boards,
		Admins:      admins,
	})

	// Start HTTP server
	go func() {
		logger.Info("HTTP listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server: %v", err)
			cancel()
		}
	}()

	// Start Telegram
	if botApp != nil {
		go func() {
			if err := botApp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("bot stopped: %v", err)
			}
		}()
	}

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down...")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	if sched != nil {
		sched.Stop(ctxTimeout)
	}
	_ = httpSrv.Shutdown(ctxTimeout)

	logger.Info("bye")
}
