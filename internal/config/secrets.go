package config

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// secretGetter is the slice of the Secrets Manager client we use.
type secretGetter interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// ResolveDBSecret fills DB credentials from Secrets Manager when DB_SECRET_ARN is set.
func ResolveDBSecret(ctx context.Context, db DBConfig) (DBConfig, error) {
	if db.SecretARN == "" {
		return db, nil
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return db, fmt.Errorf("load aws config: %w", err)
	}
	return resolveDBSecret(ctx, secretsmanager.NewFromConfig(cfg), db)
}

func resolveDBSecret(ctx context.Context, client secretGetter, db DBConfig) (DBConfig, error) {
	arn := db.SecretARN
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: &arn,
	})
	if err != nil {
		return db, fmt.Errorf("get db secret: %w", err)
	}
	if result.SecretString == nil {
		return db, fmt.Errorf("db secret %s has no string value", arn)
	}

	var creds map[string]any
	if err := json.Unmarshal([]byte(*result.SecretString), &creds); err != nil {
		return db, fmt.Errorf("decode db secret: %w", err)
	}

	// RDS-managed secrets store the port as a number.
	set := func(dst *string, key string) {
		v, ok := creds[key]
		if !ok || v == nil {
			return
		}
		*dst = fmt.Sprint(v)
	}
	set(&db.Host, "host")
	set(&db.Port, "port")
	set(&db.User, "username")
	set(&db.Password, "password")
	set(&db.Name, "dbname")
	return db, nil
}
