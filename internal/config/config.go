package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DotenvFile is read (if present) before the environment is consulted.
// Variables already set in the environment win over the file.
var DotenvFile = ".env"

type Config struct {
	DatabaseURL  string   // CRESITE_DATABASE_URL (required)
	GRPCAddr     string   // CRESITE_GRPC_ADDR (default ":9090")
	HTTPAddr     string   // CRESITE_HTTP_ADDR (default ":8080")
	NATSURL      string   // CRESITE_NATS_URL (optional, empty = in-process events only)
	AuthToken    string   // CRESITE_AUTH_TOKEN (optional, empty = admin auth disabled)
	WebhookToken string   // CRESITE_WEBHOOK_TOKEN (optional, empty = use AuthToken)
	CORSOrigins  []string // CRESITE_CORS_ORIGINS (default "*")

	// Featured feed
	FeaturedLimit int // CRESITE_FEATURED_LIMIT (default 6)

	// Property detail cache
	RedisAddr     string        // CRESITE_REDIS_ADDR (enables the cache when set)
	RedisPassword string        // CRESITE_REDIS_PASSWORD
	RedisDB       int           // CRESITE_REDIS_DB (default 0)
	RedisTTL      time.Duration // CRESITE_REDIS_TTL (default 5m)

	// Backup sync settings
	SyncInterval   time.Duration // CRESITE_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // CRESITE_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // CRESITE_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // CRESITE_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // CRESITE_SYNC_S3_KEY (default "cresite/backup.jsonl")
	SyncGitRepo    string        // CRESITE_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // CRESITE_SYNC_GIT_FILE (default "cresite.jsonl")
	SyncGitBranch  string        // CRESITE_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	if err := godotenv.Load(DotenvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", DotenvFile, err)
	}

	c := &Config{
		DatabaseURL:    os.Getenv("CRESITE_DATABASE_URL"),
		GRPCAddr:       envOrDefault("CRESITE_GRPC_ADDR", ":9090"),
		HTTPAddr:       envOrDefault("CRESITE_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("CRESITE_NATS_URL"),
		AuthToken:      os.Getenv("CRESITE_AUTH_TOKEN"),
		WebhookToken:   os.Getenv("CRESITE_WEBHOOK_TOKEN"),
		CORSOrigins:    splitList(envOrDefault("CRESITE_CORS_ORIGINS", "*")),
		RedisAddr:      os.Getenv("CRESITE_REDIS_ADDR"),
		RedisPassword:  os.Getenv("CRESITE_REDIS_PASSWORD"),
		SyncS3Bucket:   os.Getenv("CRESITE_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("CRESITE_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("CRESITE_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("CRESITE_SYNC_S3_KEY", "cresite/backup.jsonl"),
		SyncGitRepo:    os.Getenv("CRESITE_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("CRESITE_SYNC_GIT_FILE", "cresite.jsonl"),
		SyncGitBranch:  envOrDefault("CRESITE_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("CRESITE_DATABASE_URL is required")
	}
	if c.WebhookToken == "" {
		c.WebhookToken = c.AuthToken
	}

	var err error
	if c.FeaturedLimit, err = envInt("CRESITE_FEATURED_LIMIT", 6); err != nil {
		return nil, err
	}
	if c.FeaturedLimit < 1 {
		return nil, fmt.Errorf("CRESITE_FEATURED_LIMIT must be at least 1, got %d", c.FeaturedLimit)
	}
	if c.RedisDB, err = envInt("CRESITE_REDIS_DB", 0); err != nil {
		return nil, err
	}
	if c.RedisTTL, err = envDuration("CRESITE_REDIS_TTL", "5m"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = envDuration("CRESITE_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
