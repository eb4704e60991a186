package tgbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"ultrafantasi/internal/auth"
	"ultrafantasi/internal/config"
	"ultrafantasi/internal/leaderboard"
	"ultrafantasi/internal/logger"
	"ultrafantasi/internal/models"
)

const topN = 10

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Leaderboards interface {
	Global(ctx context.Context) ([]leaderboard.GlobalEntry, error)
	Race(ctx context.Context, raceID string) ([]leaderboard.RaceEntry, error)
}

type Races interface {
	ListRaces(ctx context.Context) ([]models.Race, error)
}

type App struct {
	cfg    config.Config
	bot    botAPI
	boards Leaderboards
	races  Races
	now    func() time.Time
	pause  time.Duration
}

func New(cfg config.Config, boards Leaderboards, races Races) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return newApp(cfg, b, boards, races), nil
}

func newApp(cfg config.Config, b botAPI, boards Leaderboards, races Races) *App {
	return &App{
		cfg:    cfg,
		bot:    b,
		boards: boards,
		races:  races,
		now:    time.Now,
		pause:  35 * time.Millisecond,
	}
}

func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	defer a.bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return errors.New("telegram updates channel closed")
			}
			if upd.Message == nil || upd.Message.From == nil {
				continue
			}
			if err := a.handleMessage(ctx, upd.Message); err != nil {
				logger.Warn("[BOT] handle message: %v", err)
			}
		}
	}
}

func (a *App) SendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := a.bot.Send(msg)
	return err
}

func (a *App) isAdmin(tgID int64) bool {
	return a.cfg.AdminTGIDs[tgID]
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	reply, err := a.reply(ctx, m.From.ID, m.Text)
	if err != nil {
		logger.Error("[BOT] command %q from %d: %v", m.Text, m.From.ID, err)
		reply = "Something went wrong, try again later."
	}
	if reply == "" {
		return nil
	}
	return a.SendText(m.Chat.ID, reply)
}

// reply returns the answer to a command sent by tgID.
func (a *App) reply(ctx context.Context, tgID int64, txt string) (string, error) {
	cmd, arg := parseCommand(txt)
	switch cmd {
	case "/start", "/help":
		return a.help(tgID), nil
	case "/races":
		return a.showRaces(ctx)
	case "/leaderboard":
		board, err := a.boards.Global(ctx)
		if err != nil {
			return "", err
		}
		return formatGlobal(board, topN), nil
	case "/race":
		if arg == "" {
			return "Usage: /race <race id>", nil
		}
		board, err := a.boards.Race(ctx, arg)
		if err != nil {
			return "", err
		}
		return formatRace(arg, board, topN), nil
	case "/export":
		if !a.isAdmin(tgID) {
			return "Access denied.", nil
		}
		return "📤 CSV export: " + a.exportURL(), nil
	case "":
		return "", nil
	default:
		return "Unknown command. Send /help for the list.", nil
	}
}

// parseCommand splits "/race@ultrabot abc" into "/race" and "abc".
func parseCommand(txt string) (cmd, arg string) {
	txt = strings.TrimSpace(txt)
	if !strings.HasPrefix(txt, "/") {
		return "", ""
	}
	cmd, arg, _ = strings.Cut(txt, " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return strings.ToLower(cmd), strings.TrimSpace(arg)
}

func (a *App) help(tgID int64) string {
	lines := []string{
		"🏃 Ultrafantasi",
		"/races - races and their ids",
		"/leaderboard - overall top 10",
		"/race <id> - top 10 for one race",
	}
	if a.isAdmin(tgID) {
		lines = append(lines, "/export - CSV link for the full leaderboard")
	}
	return strings.Join(lines, "\n")
}

func (a *App) showRaces(ctx context.Context) (string, error) {
	list, err := a.races.ListRaces(ctx)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "No races yet.", nil
	}
	now := a.now()
	b := strings.Builder{}
	b.WriteString("📅 Races")
	for _, r := range list {
		mark := "🟢"
		if r.Started(now) {
			mark = "🔒"
		}
		fmt.Fprintf(&b, "\n%s %s (%s)\n   id: %s", mark, r.Name, r.Date.UTC().Format("2006-01-02 15:04 MST"), r.ID)
	}
	return b.String(), nil
}

func (a *App) exportURL() string {
	base := a.cfg.BasePublicURL
	if base == "" {
		base = "http://localhost" + a.cfg.HTTPAddr
	}
	return base + "/export/leaderboard.csv?token=" + auth.ExportToken(a.cfg.IdentitySecret)
}

// ---------- Notifications ----------

// NotifyResultPublished posts the race leaderboard to the admins and the channel.
func (a *App) NotifyResultPublished(ctx context.Context, race models.Race) error {
	board, err := a.boards.Race(ctx, race.ID)
	if err != nil {
		return err
	}
	text := "🏁 Official result published: " + race.Name + "\n\n" + formatRace(race.Name, board, topN)

	var errs []error
	sent := 0
	for _, id := range a.recipients() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := a.SendText(id, text); err != nil {
			errs = append(errs, fmt.Errorf("send to %d: %w", id, err))
			continue
		}
		sent++
		time.Sleep(a.pause) // simple anti-flood
	}
	logger.Info("[BOT] result for race %s sent to %d chats", race.ID, sent)
	return errors.Join(errs...)
}

func (a *App) recipients() []int64 {
	var ids []int64
	if a.cfg.TelegramChannelID != 0 {
		ids = append(ids, a.cfg.TelegramChannelID)
	}
	for id := range a.cfg.AdminTGIDs {
		if id != a.cfg.TelegramChannelID {
			ids = append(ids, id)
		}
	}
	return ids
}

// ---------- Formatting ----------

func formatGlobal(board []leaderboard.GlobalEntry, n int) string {
	if len(board) == 0 {
		return "No players yet."
	}
	b := strings.Builder{}
	b.WriteString("🏆 Leaderboard")
	for i, e := range board[:min(n, len(board))] {
		fmt.Fprintf(&b, "\n%s %s - %d pts", place(i), e.User.DisplayName, e.Total)
	}
	return b.String()
}

func formatRace(name string, board []leaderboard.RaceEntry, n int) string {
	if len(board) == 0 {
		return "No scores for " + name + " yet."
	}
	b := strings.Builder{}
	b.WriteString("🏆 " + name)
	for i, e := range board[:min(n, len(board))] {
		fmt.Fprintf(&b, "\n%s %s - %d/%d", place(i), e.User.DisplayName, e.Points, models.SelectionSize)
	}
	return b.String()
}

func place(i int) string {
	switch i {
	case 0:
		return "🥇"
	case 1:
		return "🥈"
	case 2:
		return "🥉"
	default:
		return fmt.Sprintf("%d.", i+1)
	}
}
