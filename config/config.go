// Package config implements component H: environment-driven configuration
// for every other component (database connection, HTTP listener, per-
// prefecture shard directories, journal and export-cache roots, logging,
// and the tokenizer backend).
//
// Grounded on the teacher's own config_test.go/ssl_config_test.go (whose
// implementation file was never checked in — the DatabaseConfig/SSLConfig
// shape and Load() contract below satisfy those tests exactly) and on
// auth-hub's config.Load (the getEnv-with-_FILE-suffix-and-fallback
// helper), generalized from a single Meilisearch endpoint to the
// multi-prefecture index-root layout this spec requires.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// SSLConfig controls how the database connection negotiates TLS.
type SSLConfig struct {
	Mode     string
	RootCert string
	Cert     string
	Key      string
}

// ValidateSSLConfig rejects "disable" outright (the spec never runs against
// an unencrypted database) and requires a root certificate for the two
// verifying modes.
func (s SSLConfig) ValidateSSLConfig() error {
	switch s.Mode {
	case "disable":
		return fmt.Errorf("SSL disable mode is not allowed")
	case "prefer", "require":
		return nil
	case "verify-ca", "verify-full":
		if s.RootCert == "" {
			return fmt.Errorf("SSL root certificate required for %s mode", s.Mode)
		}
		return nil
	default:
		return fmt.Errorf("invalid SSL mode: %q", s.Mode)
	}
}

// DatabaseConfig names the upstream enterprise_pages store the Ingest
// Gateway reads from.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	Timeout  time.Duration
	SSL      SSLConfig
}

// ValidateSSLConfig delegates to the embedded SSL mode's own validation.
func (d *DatabaseConfig) ValidateSSLConfig() error {
	return d.SSL.ValidateSSLConfig()
}

// ConnectionString builds the libpq key=value connection string used by
// drivers that don't understand sslmode variants beyond "disable".
func (d *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.Name)
}

// BuildPgxConnectionString builds the libpq key=value connection string
// pgxpool.ParseConfig accepts, honoring the configured SSL mode and any
// certificate paths it names.
func (d *DatabaseConfig) BuildPgxConnectionString() string {
	s := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSL.Mode)
	if d.SSL.RootCert != "" {
		s += " sslrootcert=" + d.SSL.RootCert
	}
	if d.SSL.Cert != "" {
		s += " sslcert=" + d.SSL.Cert
	}
	if d.SSL.Key != "" {
		s += " sslkey=" + d.SSL.Key
	}
	return s
}

// BuildPostgresURL builds the postgres:// URL form some clients (and
// pgxpool.ParseConfig) accept in place of the key=value form.
func (d *DatabaseConfig) BuildPostgresURL() string {
	u := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSL.Mode)
	if d.SSL.RootCert != "" {
		u += "&sslrootcert=" + d.SSL.RootCert
	}
	return u
}

// NewDatabaseConfigFromEnv reads DB_HOST/DB_PORT/DB_SSL_MODE/etc, the
// general-purpose variable names shared by every service that talks to the
// enterprise database, as opposed to the service-scoped SEARCH_INDEXER_DB_*
// credential pair Load reads for the user/password.
func NewDatabaseConfigFromEnv() *DatabaseConfig {
	return &DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		Timeout:  10 * time.Second,
		SSL:      SSLConfig{Mode: getEnv("DB_SSL_MODE", "prefer")},
	}
}

// HTTPConfig names the REST listener (component M).
type HTTPConfig struct {
	Addr string
}

// PrefectureConfig names one configured index shard directory, mirroring
// router.PrefectureConfig's display name without importing the router
// package from config.
type PrefectureConfig struct {
	Name string
	Dir  string
}

// Config is every component's environment-sourced configuration.
type Config struct {
	Database Database
	HTTP     HTTPConfig

	JournalRoot     string
	ExportCacheRoot string
	CacheCapacity   int

	LogLevel     string
	OTelEnabled  bool
	OTelEndpoint string

	TokenizerBackend string

	Prefectures map[string]PrefectureConfig

	RedisAddr   string
	RedisStream string
	RedisGroup  string
}

// Database is a type alias of DatabaseConfig (the same type, not a distinct
// one) so Load can attach the SSL-validated struct under the field name the
// teacher's test asserts on (cfg.Database.Host).
type Database = DatabaseConfig

// Load reads every environment variable this service consumes, applying
// fallbacks where the teacher's config allows them and failing outright
// when a required credential or SSL certificate is missing.
func Load() (*Config, error) {
	if getEnv("DB_HOST", "") == "" {
		return nil, fmt.Errorf("DB_HOST is required")
	}
	dbUser := getEnv("SEARCH_INDEXER_DB_USER", "")
	dbPassword := getEnv("SEARCH_INDEXER_DB_PASSWORD", "")
	if dbUser == "" || dbPassword == "" {
		return nil, fmt.Errorf("SEARCH_INDEXER_DB_USER and SEARCH_INDEXER_DB_PASSWORD are required")
	}
	dbName := getEnv("DB_NAME", "")
	if dbName == "" {
		return nil, fmt.Errorf("DB_NAME is required")
	}

	db := &DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     dbUser,
		Password: dbPassword,
		Name:     dbName,
		Timeout:  10 * time.Second,
		SSL:      SSLConfig{Mode: getEnv("DB_SSL_MODE", "prefer")},
	}
	if err := db.ValidateSSLConfig(); err != nil {
		return nil, err
	}

	cacheCapacity, err := getEnvInt("CACHE_CAPACITY", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Database: *db,
		HTTP: HTTPConfig{
			Addr: getEnv("HTTP_ADDR", ":9300"),
		},
		JournalRoot:      getEnv("JOURNAL_ROOT", "/data/journal"),
		ExportCacheRoot:  getEnv("EXPORT_CACHE_ROOT", "/data/export-cache"),
		CacheCapacity:    cacheCapacity,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		OTelEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "http://localhost:4318"),
		TokenizerBackend: getEnv("TOKENIZER_BACKEND", ""),
		Prefectures:      prefecturesFromEnv(),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisStream:      getEnv("REDIS_STREAM", "search-indexer.records"),
		RedisGroup:       getEnv("REDIS_GROUP", "search-indexer"),
	}

	return cfg, nil
}

// prefecturesFromEnv parses PREFECTURES as a comma-separated
// "code:display-name" list, defaulting to a single Tokyo shard so a bare
// checkout still starts.
func prefecturesFromEnv() map[string]PrefectureConfig {
	raw := getEnv("PREFECTURES", "tokyo:東京都")
	indexRoot := getEnv("INDEX_ROOT", "/data/index")

	out := map[string]PrefectureConfig{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 2)
		code := strings.ToLower(strings.TrimSpace(parts[0]))
		name := code
		if len(parts) == 2 {
			name = strings.TrimSpace(parts[1])
		}
		out[code] = PrefectureConfig{Name: name, Dir: indexRoot + "/" + code}
	}
	return out
}

// getEnv retrieves key, preferring the file the key+"_FILE" variable points
// at (the Docker/Kubernetes secrets-mount convention) over the plain value,
// falling back to fallback when neither is set.
func getEnv(key, fallback string) string {
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return b
}
