package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smallnest/researchdeck/research"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no inherited keys.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, k := range []string{
		"HOST", "PORT", "GEMINI_API_KEY", "GEMINI_API_KEY_IMAGE_GEN", "OPENAI_API_KEY",
		"OPENAI_BASE_URL", "BRAVE_API_KEY", "RESEARCHDECK_TEXT_BACKEND", "RESEARCHDECK_IMAGE_BACKEND",
		"RESEARCHDECK_STORE", "RESEARCHDECK_STORE_PATH", "RESEARCHDECK_STORE_DSN", "RESEARCHDECK_REDIS_ADDR",
		"RESEARCHDECK_LOG_LEVEL", "RESEARCHDECK_MAX_ITERATIONS", "RESEARCHDECK_CONCURRENCY", "RESEARCHDECK_QUOTA_BACKOFF", "RESEARCHDECK_CRITIQUE_FAILURE",
		"RESEARCHDECK_OBJECTIVE_TIMEOUT", "RESEARCHDECK_WRITE_TIMEOUT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "0.0.0.0:9010", cfg.Server.Addr())
	assert.Equal(t, research.DefaultMaxIterations, cfg.Research.MaxIterations)
	assert.Equal(t, 2*time.Second, cfg.Research.QuotaBackoff)
	assert.Equal(t, BackendGemini, cfg.Backend.Text)
	assert.Equal(t, StoreMemory, cfg.Store.Driver)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "researchdeck.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
research:
  max_iterations: 3
  quota_backoff: 500ms
  critique_failure: accept
backend:
  text: openai
  image: dalle
  openai_api_key: sk-file
store:
  driver: sqlite
  path: decks.db
log:
  level: debug
`), 0o644))

	t.Setenv("PORT", "9999")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Research.MaxIterations)
	assert.Equal(t, 500*time.Millisecond, cfg.Research.QuotaBackoff)
	assert.Equal(t, "sk-env", cfg.Backend.OpenAIAPIKey)
	assert.Equal(t, StoreSqlite, cfg.Store.Driver)
	assert.Equal(t, research.DefaultSpeakerPersona, cfg.Research.SpeakerPersona)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GEMINI_API_KEY=from-dotenv\nGEMINI_API_KEY_IMAGE_GEN=image-key\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("GEMINI_API_KEY_IMAGE_GEN")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Backend.GeminiAPIKey)
	assert.Equal(t, "image-key", cfg.Backend.ImageAPIKey())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [1, 2"), 0o644))
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("PORT", "ninety")
	_, err = Load("")
	assert.ErrorContains(t, err, "PORT")
}

func TestImageAPIKeyFallback(t *testing.T) {
	b := BackendConfig{GeminiAPIKey: "text"}
	assert.Equal(t, "text", b.ImageAPIKey())
	b.GeminiImageAPIKey = "image"
	assert.Equal(t, "image", b.ImageAPIKey())
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY is required")

	cfg.Backend.GeminiAPIKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Backend.Image = BackendNone
	cfg.Backend.GeminiAPIKey = ""
	cfg.Backend.Text = BackendOpenAI
	cfg.Store.Driver = StorePostgres
	cfg.Research.MaxIterations = 0
	cfg.Research.CritiqueFailure = "shrug"
	cfg.Log.Level = "loud"
	err = cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"OPENAI_API_KEY", "dsn", "max_iterations", "critique failure policy", "log level"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestValidateStorage(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateStorage(), "model keys are not needed to read projects")

	cfg.Store.Driver = "postgress"
	cfg.Server.WriteTimeout = -time.Second
	err := cfg.ValidateStorage()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store driver "postgress"`)
	assert.Contains(t, err.Error(), "write_timeout")
	assert.NotContains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoad_Timeouts(t *testing.T) {
	isolate(t)
	t.Setenv("RESEARCHDECK_OBJECTIVE_TIMEOUT", "90s")
	t.Setenv("RESEARCHDECK_WRITE_TIMEOUT", "15m")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Research.ObjectiveTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Server.WriteTimeout)

	t.Setenv("RESEARCHDECK_OBJECTIVE_TIMEOUT", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "RESEARCHDECK_OBJECTIVE_TIMEOUT")
}

func TestRunnerOptions(t *testing.T) {
	cfg := Default()
	cfg.Research.CritiqueFailure = "accept"
	opts, err := cfg.RunnerOptions()
	require.NoError(t, err)
	assert.Len(t, opts, 6)

	cfg.Research.CritiqueFailure = "acept"
	_, err = cfg.RunnerOptions()
	assert.ErrorContains(t, err, "acept")
}
