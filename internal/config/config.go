// SPDX-License-Identifier: AGPL-3.0-only
package config

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/onixai/feedengine/internal/database"

	_ "github.com/lib/pq"
)

type AppConfig struct {
	ListenAddr string
	// UserScope selects the persisted state scope this instance owns. The
	// engine assumes a single active scheduling owner per scope.
	UserScope string
	Lang      string
	// SelfName is the display name attached to the end user's own comments.
	SelfName string

	TextGenURL     string
	TextGenToken   string
	TextGenTimeout time.Duration

	// StateFile enables the JSON file store when no database is configured.
	StateFile string

	Retention      time.Duration
	MinPostDelay   time.Duration
	MaxPostDelay   time.Duration
	SimMinInterval time.Duration
	SimMaxInterval time.Duration
	MaxSeedLikes   int

	ProactiveEnabled bool

	// DBInitErr records a failed database bootstrap so handlers can report
	// it instead of crashing the process.
	DBInitErr error
}

func Load() *AppConfig {
	return &AppConfig{
		ListenAddr:       getEnv("FEED_LISTEN_ADDR", ":8080"),
		UserScope:        getEnv("FEED_USER_SCOPE", "local"),
		Lang:             getEnv("FEED_LANG", "es"),
		SelfName:         getEnv("FEED_SELF_NAME", "Tú"),
		TextGenURL:       getEnv("AI_API_URL", "http://localhost:3001/api"),
		TextGenToken:     os.Getenv("AI_API_TOKEN"),
		TextGenTimeout:   getDuration("AI_TIMEOUT", 30*time.Second),
		StateFile:        getEnv("FEED_STATE_FILE", "data/feed_state.json"),
		Retention:        getDuration("FEED_RETENTION", 7*24*time.Hour),
		MinPostDelay:     getDuration("FEED_MIN_POST_DELAY", 2*time.Minute),
		MaxPostDelay:     getDuration("FEED_MAX_POST_DELAY", 5*time.Hour),
		SimMinInterval:   getDuration("FEED_SIM_MIN_INTERVAL", 35*time.Second),
		SimMaxInterval:   getDuration("FEED_SIM_MAX_INTERVAL", 90*time.Second),
		MaxSeedLikes:     getInt("FEED_MAX_SEED_LIKES", 2),
		ProactiveEnabled: getBool("FEED_PROACTIVE_ENABLED", false),
	}
}

// LoadDatabase opens the Postgres connection and runs migrations, exactly
// once at startup. DATABASE_URL takes precedence over the POSTGRES_* parts.
func LoadDatabase() (*database.Queries, *sql.DB, error) {
	connectDbUrl := os.Getenv("DATABASE_URL")
	if connectDbUrl == "" {
		dbName := os.Getenv("POSTGRES_DB")
		dbUserName := os.Getenv("POSTGRES_USER")
		dbPassword := os.Getenv("POSTGRES_PASSWORD")
		dbHost := getEnv("POSTGRES_HOST", "db")

		if dbName == "" || dbUserName == "" || dbPassword == "" {
			return nil, nil, fmt.Errorf("Failed to load the database environment configuration.")
		}
		connectDbUrl = fmt.Sprintf("postgres://%v:%v@%v:5432/%v?sslmode=disable", dbUserName, dbPassword, dbHost, dbName)
	}

	db, err := sql.Open("postgres", connectDbUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("Failed to connect to the DB. Error: %v", err)
	}

	migrationsDir := "./sql/schema"
	if err := goose.Up(db, migrationsDir); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	version, err := goose.EnsureDBVersion(db)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get DB version: %v", err)
	}
	fmt.Printf("Migrations applied successfully. Current DB version: %d\n", version)

	return database.New(db), db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		fmt.Printf("Invalid duration for %s: %v, using default %v\n", key, err, fallback)
		return fallback
	}
	return d
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Printf("Invalid integer for %s: %v, using default %d\n", key, err, fallback)
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
