package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("API_KEY", "")
	t.Setenv("MAX_AUDIO_BYTES", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.NotEmpty(t, cfg.APIKey)
	assert.Equal(t, int64(25*1024*1024), cfg.MaxAudioBytes)
	assert.Equal(t, int64(1024), cfg.MinAudioBytes)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("API_KEY", "secret")
	t.Setenv("MAX_AUDIO_BYTES", "1048576")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, int64(1048576), cfg.MaxAudioBytes)
}

func TestLoadRejectsBadSize(t *testing.T) {
	t.Setenv("MAX_AUDIO_BYTES", "not-a-number")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MAX_AUDIO_BYTES", "-5")
	_, err = Load()
	assert.Error(t, err)
}
