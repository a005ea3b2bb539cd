package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, StorageDriverLocal, cfg.Storage.Driver)
	assert.Equal(t, "-", cfg.Slug.Separator)
	assert.Equal(t, 12, cfg.Slug.SuffixLength)
	assert.Equal(t, 5, cfg.Slug.MaxAttempts)
	assert.True(t, cfg.Slug.OnUpdate)
	assert.Equal(t, 24*time.Hour, cfg.Views.MarkerTTL)
	assert.Equal(t, 100, cfg.Ranking.MaxPage)
	assert.Equal(t, 7, cfg.Ranking.TrendingDays)
	assert.Equal(t, 600, cfg.Upload.ImageMaxDim)
	assert.Equal(t, 80, cfg.Upload.ImageQuality)
	assert.Equal(t, 15*time.Minute, cfg.Storage.S3.Presign)
	assert.Contains(t, cfg.DSN, "tcp(127.0.0.1:3306)/publisher")
}

func TestParse_Overrides(t *testing.T) {
	content := []byte(`
port: 8080
env: production
redis_url: redis://cache:6379/2
storage:
  driver: s3
  s3:
    bucket: media
    presign_minutes: 5
    path_style: true
slug:
  suffix_length: 0
  on_update: false
views:
  marker_ttl_hours: 2
upload:
  timeout_seconds: 10
`)
	cfg, err := Parse(content)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, "redis://cache:6379/2", cfg.RedisURL)
	assert.Equal(t, StorageDriverS3, cfg.Storage.Driver)
	assert.Equal(t, "media", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, 5*time.Minute, cfg.Storage.S3.Presign)
	assert.Equal(t, 0, cfg.Slug.SuffixLength)
	assert.False(t, cfg.Slug.OnUpdate)
	assert.Equal(t, 2*time.Hour, cfg.Views.MarkerTTL)
	assert.Equal(t, 10*time.Second, cfg.Upload.Timeout)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "prot: 80\n"},
		{"bad port", "port: 70000\n"},
		{"s3 without bucket", "storage:\n  driver: s3\n"},
		{"unknown driver", "storage:\n  driver: ftp\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("port: 3000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.example.yml"))
	require.NoError(t, err)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, []string{"*.example.com", "localhost:*"}, cfg.AllowedOrigins)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.Equal(t, 60*time.Second, cfg.Upload.Timeout)
}
