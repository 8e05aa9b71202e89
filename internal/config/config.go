// Package config loads server settings from .env, the environment and an
// optional YAML file of ingest overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/credix-app/credix/backend/internal/ledger"
)

// Data backends.
const (
	BackendMemory    = "memory"
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

type Config struct {
	// HTTP Server
	Port            string
	AllowedOrigins  []string
	MaxRequestBytes int

	// Backend selection
	DataBackend        string
	GoogleCloudProject string
	SQLiteDBPath       string
	WatchPollInterval  time.Duration

	// Auth
	SkipAuth       bool
	FirebaseAPIKey string

	// Asset host
	AssetsBucket string

	// Search
	AlgoliaAppID     string
	AlgoliaAPIKey    string
	AlgoliaIndexName string

	LogLevel string

	// Ingest overrides from CREDIX_CONFIG
	ConfigFile string
	Ingest     IngestOverrides
}

// IngestOverrides extends the built-in header spellings and aliases.
type IngestOverrides struct {
	CardHeaders    []string          `yaml:"card_headers"`
	SegmentAliases map[string]string `yaml:"segment_aliases"`
}

type fileConfig struct {
	Ingest IngestOverrides `yaml:"ingest"`
}

// Load reads .env (if present) and the environment, then the YAML file named
// by CREDIX_CONFIG.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8111"),
		AllowedOrigins:  splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MaxRequestBytes: getEnvInt("MAX_REQUEST_BYTES", 10<<20),

		DataBackend:        getEnv("DATA_BACKEND", BackendMemory),
		GoogleCloudProject: getEnv("GOOGLE_CLOUD_PROJECT", ""),
		SQLiteDBPath:       getEnv("SQLITE_DB_PATH", "./data/credix.db"),
		WatchPollInterval:  getEnvDuration("WATCH_POLL_INTERVAL", 2*time.Second),

		SkipAuth:       getEnvBool("SKIP_AUTH", false),
		FirebaseAPIKey: getEnv("FIREBASE_API_KEY", ""),

		AssetsBucket: getEnv("ASSETS_BUCKET", ""),

		AlgoliaAppID:     getEnv("ALGOLIA_APP_ID", ""),
		AlgoliaAPIKey:    getEnv("ALGOLIA_API_KEY", ""),
		AlgoliaIndexName: getEnv("ALGOLIA_INDEX_NAME", "credix_spends"),

		LogLevel:   getEnv("LOG_LEVEL", "info"),
		ConfigFile: getEnv("CREDIX_CONFIG", ""),
	}

	if cfg.ConfigFile != "" {
		overrides, err := LoadIngestOverrides(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg.Ingest = overrides
	}
	return cfg, nil
}

// LoadIngestOverrides reads the ingest section of a YAML config file.
func LoadIngestOverrides(path string) (IngestOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return IngestOverrides{}, fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return IngestOverrides{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return fc.Ingest, nil
}

// ResolveSegmentAliases resolves configured alias targets to canonical segments.
func (o IngestOverrides) ResolveSegmentAliases() (map[string]ledger.SegmentName, error) {
	out := make(map[string]ledger.SegmentName, len(o.SegmentAliases))
	for alias, target := range o.SegmentAliases {
		seg, ok := parseSegment(target)
		if !ok {
			return nil, fmt.Errorf("segment alias %q points to unknown segment %q", alias, target)
		}
		out[alias] = seg
	}
	return out, nil
}

func parseSegment(s string) (ledger.SegmentName, bool) {
	for _, seg := range ledger.Segments {
		if strings.EqualFold(string(seg), strings.TrimSpace(s)) {
			return seg, true
		}
	}
	return "", false
}

// UseFirebaseAuth reports whether identity goes to Firebase. Without a
// project the in-process local provider is used.
func (c *Config) UseFirebaseAuth() bool {
	return !c.SkipAuth && c.GoogleCloudProject != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.MaxRequestBytes <= 0 {
		errors = append(errors, fmt.Sprintf("invalid max request bytes %d: must be positive", c.MaxRequestBytes))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendFirestore:
		if c.GoogleCloudProject == "" {
			errors = append(errors, "GOOGLE_CLOUD_PROJECT is required when using firestore backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
			}
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [%s %s %s]",
			c.DataBackend, BackendMemory, BackendFirestore, BackendSQLite))
	}

	if c.UseFirebaseAuth() && c.FirebaseAPIKey == "" {
		errors = append(errors, "FIREBASE_API_KEY is required for password login against Firebase")
	}

	if c.WatchPollInterval < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid watch poll interval %v: must be at least 100ms", c.WatchPollInterval))
	}

	if (c.AlgoliaAppID == "") != (c.AlgoliaAPIKey == "") {
		errors = append(errors, "ALGOLIA_APP_ID and ALGOLIA_API_KEY must be set together")
	}

	if _, err := c.Ingest.ResolveSegmentAliases(); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
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
