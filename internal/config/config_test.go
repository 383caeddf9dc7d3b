package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "PAYMENTS_AUTOCOMPLETE_SANDBOX_ONLY", "MESSAGING_ENABLED", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "GHS", cfg.Payments.DefaultCurrency)
	assert.Equal(t, 30*time.Second, cfg.Payments.AutoCompleteAfter)
	assert.True(t, cfg.Payments.AutoCompleteSandbox)
	assert.True(t, cfg.Messaging.Enabled)
	assert.Equal(t, "tours", cfg.Messaging.ConsumerGroup)
	assert.Len(t, cfg.Server.CORSOrigins, 2)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PAYMENTS_AUTOCOMPLETE_SUCCESS_RATE", "0.5")
	t.Setenv("PAYMENTS_AUTOCOMPLETE_TIMEOUT", "2m")
	t.Setenv("CORS_ORIGINS", "https://tours.example.com, ,https://admin.example.com")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.InDelta(t, 0.5, cfg.Payments.SuccessRate, 1e-9)
	assert.Equal(t, 2*time.Minute, cfg.Payments.AutoCompleteAfter)
	assert.Equal(t, []string{"https://tours.example.com", "https://admin.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 0, cfg.Redis.DB, "unparseable values fall back to the default")
}

func TestParseEnvFile(t *testing.T) {
	t.Setenv("TOURS_KEEP", "from-env")
	for _, key := range []string{"TOURS_PLAIN", "TOURS_QUOTED", "TOURS_SINGLE", "TOURS_EXPORTED", "TOURS_EQUALS"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	input := strings.Join([]string{
		"\ufeff# comment",
		"",
		"TOURS_PLAIN=value",
		`TOURS_QUOTED="with spaces"`,
		"TOURS_SINGLE='single'",
		"export TOURS_EXPORTED=yes",
		"TOURS_EQUALS=a=b",
		"TOURS_KEEP=from-file",
		"not a pair",
	}, "\n")

	require.NoError(t, parseEnvFile(strings.NewReader(input)))

	assert.Equal(t, "value", os.Getenv("TOURS_PLAIN"))
	assert.Equal(t, "with spaces", os.Getenv("TOURS_QUOTED"))
	assert.Equal(t, "single", os.Getenv("TOURS_SINGLE"))
	assert.Equal(t, "yes", os.Getenv("TOURS_EXPORTED"))
	assert.Equal(t, "a=b", os.Getenv("TOURS_EQUALS"))
	assert.Equal(t, "from-env", os.Getenv("TOURS_KEEP"))
}

func TestLoadEnvFile_FindsParentDirectory(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	nested := filepath.Join(root, "cmd", "server")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte("TOURS_FROM_PARENT=1\n"), 0o600))

	t.Setenv("TOURS_FROM_PARENT", "")
	os.Unsetenv("TOURS_FROM_PARENT")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := LoadEnvFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, ".env"), path)
	assert.Equal(t, "1", os.Getenv("TOURS_FROM_PARENT"))
}
