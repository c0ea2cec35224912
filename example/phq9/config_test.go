package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"api_key": "from-file",
		"model": "gpt-4o",
		"timeout": "15s",
		"max_retries": 0,
		"redis_url": "redis://localhost:6379/0"
	}`), 0o600))
	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("OPENAI_BASE_URL", "")

	conf, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", conf.APIKey)
	assert.Equal(t, "gpt-4o", conf.Model)
	assert.Equal(t, "English", conf.Lang)
	assert.Equal(t, 0, conf.maxRetries())

	timeout, err := conf.timeout()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, timeout)

	ttl, err := conf.sessionTTL()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("OPENAI_BASE_URL", "")
	conf, err := loadConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.NoError(t, err)
	assert.Empty(t, conf.APIKey)
	assert.Equal(t, "questionnaire/phq9.json", conf.Questionnaire)
	assert.Equal(t, 2, conf.maxRetries())

	conf.Timeout = "soon"
	_, err = conf.timeout()
	assert.Error(t, err)
}
