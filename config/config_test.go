package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr bool
	}{
		{
			name: "valid configuration",
			envVars: map[string]string{
				"DB_HOST":                    "localhost",
				"DB_PORT":                    "5432",
				"DB_NAME":                    "testdb",
				"SEARCH_INDEXER_DB_USER":     "user",
				"SEARCH_INDEXER_DB_PASSWORD": "pass",
			},
			wantErr: false,
		},
		{
			name: "missing required env var",
			envVars: map[string]string{
				"DB_HOST": "localhost",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv()
			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer clearEnv()

			cfg, err := Load()

			if tt.wantErr {
				if err == nil {
					t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}

			if err != nil {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}

			if cfg.Database.Host != "localhost" {
				t.Errorf("Database.Host = %v, want localhost", cfg.Database.Host)
			}
			if cfg.Database.Timeout != 10*time.Second {
				t.Errorf("Database.Timeout = %v, want 10s", cfg.Database.Timeout)
			}
			if cfg.HTTP.Addr != ":9300" {
				t.Errorf("HTTP.Addr = %v, want :9300", cfg.HTTP.Addr)
			}
			if len(cfg.Prefectures) != 1 || cfg.Prefectures["tokyo"].Name != "東京都" {
				t.Errorf("Prefectures = %v, want default single tokyo shard", cfg.Prefectures)
			}
		})
	}
}

func TestLoad_InvalidSSL(t *testing.T) {
	clearEnv()
	envVars := map[string]string{
		"DB_HOST":                    "localhost",
		"DB_PORT":                    "5432",
		"DB_NAME":                    "testdb",
		"SEARCH_INDEXER_DB_USER":     "user",
		"SEARCH_INDEXER_DB_PASSWORD": "pass",
		"DB_SSL_MODE":                "disable",
	}
	for k, v := range envVars {
		os.Setenv(k, v)
	}
	defer clearEnv()

	cfg, err := Load()
	if err == nil {
		t.Fatal("expected an error for SSL disable mode")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %v", cfg)
	}
}

func TestDatabaseConfig_ConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "user",
		Password: "pass",
		Name:     "testdb",
	}

	want := "host=localhost port=5432 user=user password=pass dbname=testdb sslmode=disable"
	got := cfg.ConnectionString()

	if got != want {
		t.Errorf("ConnectionString() = %v, want %v", got, want)
	}
}

func clearEnv() {
	vars := []string{
		"DB_HOST", "DB_PORT", "DB_NAME", "SEARCH_INDEXER_DB_USER", "SEARCH_INDEXER_DB_PASSWORD",
		"DB_SSL_MODE", "HTTP_ADDR", "JOURNAL_ROOT", "EXPORT_CACHE_ROOT", "CACHE_CAPACITY",
		"LOG_LEVEL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "TOKENIZER_BACKEND",
		"PREFECTURES", "INDEX_ROOT", "REDIS_ADDR", "REDIS_STREAM", "REDIS_GROUP",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
