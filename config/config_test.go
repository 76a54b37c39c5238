package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZeroDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	d, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, d.MaxRetries)
	assert.Equal(t, time.Duration(0), d.MaxDelay)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	writeDefaultsFile(t, dir, "max_retries: 4\nmax_delay: 45s\n")
	t.Chdir(dir)

	d, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, d.MaxRetries)
	assert.Equal(t, 45*time.Second, d.MaxDelay)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("UNICLIENT_MAX_RETRIES", "2")
	t.Setenv("UNICLIENT_MAX_DELAY", "90s")

	d, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2, d.MaxRetries)
	assert.Equal(t, 90*time.Second, d.MaxDelay)
}

func TestLoadFromLegacyEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv(EnvLegacyTries, "6")
	t.Setenv(EnvLegacyDelay, "120")

	d, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 6, d.MaxRetries)
	assert.Equal(t, 120*time.Second, d.MaxDelay, "legacy delay is expressed in whole seconds")
}

func TestLoadPrecedence(t *testing.T) {
	t.Run("env beats legacy env", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv(EnvLegacyTries, "6")
		t.Setenv("UNICLIENT_MAX_RETRIES", "2")

		d, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 2, d.MaxRetries)
	})

	t.Run("legacy env beats file", func(t *testing.T) {
		dir := t.TempDir()
		writeDefaultsFile(t, dir, "max_retries: 4\n")
		t.Chdir(dir)
		t.Setenv(EnvLegacyTries, "6")

		d, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 6, d.MaxRetries)
	})

	t.Run("unset layers leave file values intact", func(t *testing.T) {
		dir := t.TempDir()
		writeDefaultsFile(t, dir, "max_retries: 4\nmax_delay: 45s\n")
		t.Chdir(dir)
		t.Setenv("UNICLIENT_MAX_RETRIES", "2")

		d, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 2, d.MaxRetries)
		assert.Equal(t, 45*time.Second, d.MaxDelay)
	})
}

func TestLoadInvalidValues(t *testing.T) {
	t.Run("malformed legacy tries", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv(EnvLegacyTries, "not-a-number")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed legacy delay", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv(EnvLegacyDelay, "ninety")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("negative retries rejected", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("UNICLIENT_MAX_RETRIES", "-1")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeDefaultsFile(t, dir, "max_retries: [unclosed\n")
		t.Chdir(dir)

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(&Defaults{}))
	assert.NoError(t, Validate(&Defaults{MaxRetries: 3, MaxDelay: time.Minute}))
	assert.Error(t, Validate(&Defaults{MaxRetries: -1}))
	assert.Error(t, Validate(&Defaults{MaxDelay: -time.Second}))
}

func writeDefaultsFile(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultsFile), []byte(content), 0o600))
}
