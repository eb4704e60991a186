package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"ultrafantasi/internal/util"
)

type Config struct {
	HTTPAddr      string
	BasePublicURL string

	// Signs identity headers from the auth proxy and export links.
	IdentitySecret string
	AdminEmails    map[string]bool

	DB DBConfig

	ClaimPolicy string

	TelegramToken     string
	TelegramChannelID int64
	AdminTGIDs        map[int64]bool

	SpreadsheetID            string
	GoogleServiceAccountJSON string

	ExportEnabled bool
	ExportCron    string

	LogLevel string
}

type DBConfig struct {
	Driver     string // postgres | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SecretARN  string
	SQLitePath string
}

// DSN builds the postgres connection string.
func (d DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func FromEnv() (Config, error) {
	var c Config

	c.HTTPAddr = firstNonEmpty(env("HTTP_ADDR"), ":4000")
	c.BasePublicURL = strings.TrimRight(env("BASE_PUBLIC_URL"), "/")

	c.IdentitySecret = env("IDENTITY_SECRET")
	c.AdminEmails = parseEmails(os.Getenv("ADMIN_EMAILS"))

	c.DB = DBConfig{
		Driver:     strings.ToLower(firstNonEmpty(env("DB_DRIVER"), "postgres")),
		Host:       env("DB_HOST"),
		Port:       firstNonEmpty(env("DB_PORT"), "5432"),
		User:       env("DB_USER"),
		Password:   env("DB_PASSWORD"),
		Name:       env("DB_NAME"),
		SSLMode:    firstNonEmpty(env("DB_SSLMODE"), "require"),
		SecretARN:  env("DB_SECRET_ARN"),
		SQLitePath: firstNonEmpty(env("SQLITE_PATH"), "data/ultrafantasi.db"),
	}

	c.ClaimPolicy = firstNonEmpty(env("CLAIM_POLICY"), "name-similarity")

	c.TelegramToken = env("TELEGRAM_BOT_TOKEN")
	if raw := env("TELEGRAM_CHANNEL_ID"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return c, fmt.Errorf("TELEGRAM_CHANNEL_ID: %w", err)
		}
		c.TelegramChannelID = id
	}
	c.AdminTGIDs = parseAdminIDs(os.Getenv("ADMIN_TG_IDS"))

	c.SpreadsheetID = env("GOOGLE_SHEETS_SPREADSHEET_ID")
	c.GoogleServiceAccountJSON = env("GOOGLE_SERVICE_ACCOUNT_JSON")

	c.ExportEnabled = util.NormalizeBool(env("EXPORT_ENABLED"))
	c.ExportCron = firstNonEmpty(env("EXPORT_CRON"), "*/15 * * * *")

	c.LogLevel = firstNonEmpty(env("LOG_LEVEL"), "INFO")

	if c.IdentitySecret == "" {
		return c, fmt.Errorf("IDENTITY_SECRET is empty")
	}
	switch c.DB.Driver {
	case "postgres":
		if c.DB.SecretARN == "" && (c.DB.Host == "" || c.DB.Name == "") {
			return c, fmt.Errorf("DB_HOST and DB_NAME are required unless DB_SECRET_ARN is set")
		}
	case "sqlite":
	default:
		return c, fmt.Errorf("unknown DB_DRIVER: %s", c.DB.Driver)
	}
	if c.ExportEnabled && c.SpreadsheetID == "" {
		return c, fmt.Errorf("EXPORT_ENABLED requires GOOGLE_SHEETS_SPREADSHEET_ID")
	}

	return c, nil
}

// SheetsEnabled reports whether leaderboard export to Google Sheets is configured.
func (c Config) SheetsEnabled() bool {
	return c.SpreadsheetID != "" && c.GoogleServiceAccountJSON != ""
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseEmails(raw string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(raw, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		m[p] = true
	}
	return m
}

func parseAdminIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
