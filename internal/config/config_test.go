package config

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

func TestFromEnv(t *testing.T) {
	t.Run("sqlite_defaults", func(t *testing.T) {
		t.Setenv("IDENTITY_SECRET", "s3cret")
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("ADMIN_EMAILS", " Admin@Example.com, ,ops@example.com")
		t.Setenv("ADMIN_TG_IDS", "1, x, 2")
		t.Setenv("HTTP_ADDR", "")
		t.Setenv("CLAIM_POLICY", "")
		t.Setenv("EXPORT_ENABLED", "")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")

		c, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv: %v", err)
		}
		if c.HTTPAddr != ":4000" {
			t.Errorf("HTTPAddr = %q", c.HTTPAddr)
		}
		if c.ClaimPolicy != "name-similarity" {
			t.Errorf("ClaimPolicy = %q", c.ClaimPolicy)
		}
		if !c.AdminEmails["admin@example.com"] || !c.AdminEmails["ops@example.com"] {
			t.Errorf("admin emails not parsed: %v", c.AdminEmails)
		}
		if len(c.AdminEmails) != 2 {
			t.Error("unexpected admin")
		}
		if len(c.AdminTGIDs) != 2 || !c.AdminTGIDs[1] || !c.AdminTGIDs[2] {
			t.Errorf("AdminTGIDs = %v", c.AdminTGIDs)
		}
		if c.SheetsEnabled() {
			t.Error("sheets should be disabled")
		}
	})

	t.Run("missing_secret", func(t *testing.T) {
		t.Setenv("IDENTITY_SECRET", "")
		t.Setenv("DB_DRIVER", "sqlite")
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("postgres_requires_host", func(t *testing.T) {
		t.Setenv("IDENTITY_SECRET", "s3cret")
		t.Setenv("DB_DRIVER", "postgres")
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_SECRET_ARN", "")
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("unknown_driver", func(t *testing.T) {
		t.Setenv("IDENTITY_SECRET", "s3cret")
		t.Setenv("DB_DRIVER", "mongo")
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("export_requires_spreadsheet", func(t *testing.T) {
		t.Setenv("IDENTITY_SECRET", "s3cret")
		t.Setenv("DB_DRIVER", "sqlite")
		t.Setenv("EXPORT_ENABLED", "true")
		t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
		if _, err := FromEnv(); err == nil {
			t.Fatal("expected error")
		}
	})
}

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: &f.value}, nil
}

func TestResolveDBSecret(t *testing.T) {
	db := DBConfig{Driver: "postgres", SecretARN: "arn:secret", SSLMode: "require"}

	got, err := resolveDBSecret(context.Background(), fakeSecrets{
		value: `{"host":"db.internal","port":5432,"username":"app","password":"pw","dbname":"fantasy"}`,
	}, db)
	if err != nil {
		t.Fatalf("resolveDBSecret: %v", err)
	}
	if got.Host != "db.internal" || got.Port != "5432" || got.User != "app" || got.Password != "pw" || got.Name != "fantasy" {
		t.Errorf("unexpected creds: %+v", got)
	}
	want := "host=db.internal port=5432 user=app password=pw dbname=fantasy sslmode=require"
	if got.DSN() != want {
		t.Errorf("DSN = %q, want %q", got.DSN(), want)
	}

	if _, err := resolveDBSecret(context.Background(), fakeSecrets{err: errors.New("denied")}, db); err == nil {
		t.Error("expected error from client")
	}
	if _, err := resolveDBSecret(context.Background(), fakeSecrets{value: "not json"}, db); err == nil {
		t.Error("expected decode error")
	}
}
