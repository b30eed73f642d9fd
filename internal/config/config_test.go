package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cloud-architect-quest", cfg.Name)
	assert.Equal(t, CatalogEmbedded, cfg.Catalog.Source)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, time.Minute, cfg.Session.SweepInterval)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Len(t, cfg.CORS.AllowedOrigins, 2)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("CATALOG_SOURCE", "file")
	t.Setenv("CATALOG_PATH", "/tmp/scenarios.yaml")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://quest.example")

	cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, "/tmp/scenarios.yaml", cfg.Catalog.Path)
	assert.Equal(t, []string{"https://quest.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsInconsistentCatalogSource(t *testing.T) {
	cases := map[string]map[string]string{
		"file without path":       {"CATALOG_SOURCE": "file"},
		"postgres without host":   {"CATALOG_SOURCE": "postgres"},
		"unknown source":          {"CATALOG_SOURCE": "s3"},
		"non positive idle ttl":   {"SESSION_IDLE_TTL": "0s"},
		"negative session budget": {"SESSION_MAX_ACTIVE": "-1"},
	}
	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range vars {
				t.Setenv(k, v)
			}
			_, err := Load(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := Postgres{Host: "db", Port: 5432, User: "quest", Password: "p@ss", Database: "catalog", SSLMode: "disable"}
	assert.Equal(t, "postgres://quest:p%40ss@db:5432/catalog?sslmode=disable", p.DSN())
}
