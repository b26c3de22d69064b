package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octogeo/dataset"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T, cfg *Config)
		wantErr bool
	}{
		{
			name:    "partial file keeps defaults",
			content: "dataset:\n  name: hk\n  timeout: 30s\nreference:\n  latitude: 51.5\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "hk", cfg.Dataset.Name)
				assert.Equal(t, 30*time.Second, cfg.Dataset.Timeout)
				assert.Equal(t, dataset.DefaultURL, cfg.Dataset.URL)
				assert.Equal(t, "Mozilla/5.0", cfg.Dataset.Headers["User-Agent"])
				assert.Equal(t, 51.5, cfg.Reference.Latitude)
				assert.Equal(t, DefaultLongitude, cfg.Reference.Longitude)
				assert.Equal(t, DefaultChunkSize, cfg.Execution.ChunkSize)
			},
		},
		{
			name:    "execution",
			content: "execution:\n  parallelism: 2\n  chunk_size: 100\n",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 2, cfg.Execution.Parallelism)
				assert.Equal(t, 100, cfg.Execution.ChunkSize)
			},
		},
		{
			name:    "invalid chunk size",
			content: "execution:\n  chunk_size: 0\n",
			wantErr: true,
		},
		{
			name:    "invalid latitude",
			content: "reference:\n  latitude: 100\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			content: "dataset: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "octogeo.yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			cfg, err := Read(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestReadMissingFile(t *testing.T) {
	cfg, err := Read(filepath.Join(t.TempDir(), "missing.yml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
