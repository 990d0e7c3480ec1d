// Package config loads researchdeck settings from an optional YAML file,
// .env files and the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendGemini = "gemini"
	BackendOpenAI = "openai"
	BackendDalle  = "dalle"
	BackendNone   = "none"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSqlite   = "sqlite"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Research ResearchConfig `yaml:"research"`
	Backend  BackendConfig  `yaml:"backend"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ResearchConfig tunes the pipeline.
type ResearchConfig struct {
	MaxIterations    int           `yaml:"max_iterations"`
	QuotaBackoff     time.Duration `yaml:"quota_backoff"`
	ObjectiveTimeout time.Duration `yaml:"objective_timeout"`
	Concurrency      int           `yaml:"concurrency"`
	CritiqueFailure  string        `yaml:"critique_failure"`
	SpeakerPersona   string        `yaml:"speaker_persona"`
	VisualPersona    string        `yaml:"visual_persona"`
}

// BackendConfig selects and authenticates the model backends.
type BackendConfig struct {
	Text  string `yaml:"text"`
	Image string `yaml:"image"`

	GeminiAPIKey      string `yaml:"gemini_api_key"`
	GeminiImageAPIKey string `yaml:"gemini_image_api_key"`
	GeminiTextModel   string `yaml:"gemini_text_model"`
	GeminiImageModel  string `yaml:"gemini_image_model"`

	OpenAIAPIKey     string `yaml:"openai_api_key"`
	OpenAIBaseURL    string `yaml:"openai_base_url"`
	OpenAITextModel  string `yaml:"openai_text_model"`
	OpenAIImageModel string `yaml:"openai_image_model"`

	BraveAPIKey string `yaml:"brave_api_key"`
}

// ImageAPIKey returns the Gemini key used for images, falling back to the
// text key.
func (b BackendConfig) ImageAPIKey() string {
	if b.GeminiImageAPIKey != "" {
		return b.GeminiImageAPIKey
	}
	return b.GeminiAPIKey
}

// StoreConfig selects project persistence.
type StoreConfig struct {
	Driver   string        `yaml:"driver"`
	Path     string        `yaml:"path"`
	DSN      string        `yaml:"dsn"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 9010, WriteTimeout: 10 * time.Minute},
		Research: ResearchConfig{
			MaxIterations:  research.DefaultMaxIterations,
			QuotaBackoff:   research.DefaultQuotaBackoff,
			Concurrency:    1,
			SpeakerPersona: research.DefaultSpeakerPersona,
			VisualPersona:  research.DefaultVisualPersona,
		},
		Backend: BackendConfig{Text: BackendGemini, Image: BackendGemini},
		Store:   StoreConfig{Driver: StoreMemory, Path: "projects"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path when
// path is not empty, then .env.local and .env, then the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// godotenv never overrides variables that are already set, so the real
	// environment wins over .env.local, which wins over .env.
	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Host, "HOST")
	setString(&c.Backend.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.Backend.GeminiImageAPIKey, "GEMINI_API_KEY_IMAGE_GEN")
	setString(&c.Backend.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.Backend.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.Backend.BraveAPIKey, "BRAVE_API_KEY")
	setString(&c.Backend.Text, "RESEARCHDECK_TEXT_BACKEND")
	setString(&c.Backend.Image, "RESEARCHDECK_IMAGE_BACKEND")
	setString(&c.Store.Driver, "RESEARCHDECK_STORE")
	setString(&c.Store.Path, "RESEARCHDECK_STORE_PATH")
	setString(&c.Store.DSN, "RESEARCHDECK_STORE_DSN")
	setString(&c.Store.Addr, "RESEARCHDECK_REDIS_ADDR")
	setString(&c.Research.CritiqueFailure, "RESEARCHDECK_CRITIQUE_FAILURE")
	setString(&c.Log.Level, "RESEARCHDECK_LOG_LEVEL")

	if err := setInt(&c.Server.Port, "PORT"); err != nil {
		return err
	}
	if err := setInt(&c.Research.MaxIterations, "RESEARCHDECK_MAX_ITERATIONS"); err != nil {
		return err
	}
	if err := setInt(&c.Research.Concurrency, "RESEARCHDECK_CONCURRENCY"); err != nil {
		return err
	}
	if err := setDuration(&c.Research.ObjectiveTimeout, "RESEARCHDECK_OBJECTIVE_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&c.Server.WriteTimeout, "RESEARCHDECK_WRITE_TIMEOUT"); err != nil {
		return err
	}
	return setDuration(&c.Research.QuotaBackoff, "RESEARCHDECK_QUOTA_BACKOFF")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	errs := c.settingErrors()
	errs = append(errs, c.backendErrors()...)
	errs = append(errs, c.storeErrors()...)
	return errors.Join(errs...)
}

// ValidateStorage is Validate without the model backends, for commands that
// only read stored projects.
func (c *Config) ValidateStorage() error {
	return errors.Join(append(c.settingErrors(), c.storeErrors()...)...)
}

func (c *Config) settingErrors() []error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d out of range", c.Server.Port))
	}
	if c.Research.MaxIterations < 1 {
		errs = append(errs, fmt.Errorf("max_iterations must be at least 1, got %d", c.Research.MaxIterations))
	}
	if c.Research.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Research.Concurrency))
	}
	if c.Research.QuotaBackoff < 0 {
		errs = append(errs, errors.New("quota_backoff must not be negative"))
	}
	if c.Research.ObjectiveTimeout < 0 {
		errs = append(errs, errors.New("objective_timeout must not be negative"))
	}
	if c.Server.WriteTimeout < 0 {
		errs = append(errs, errors.New("write_timeout must not be negative"))
	}
	if _, err := research.ParseCritiqueFailurePolicy(c.Research.CritiqueFailure); err != nil {
		errs = append(errs, err)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (c *Config) backendErrors() []error {
	var errs []error
	switch c.Backend.Text {
	case BackendGemini:
		if c.Backend.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini text backend"))
		}
	case BackendOpenAI:
		if c.Backend.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai text backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown text backend %q", c.Backend.Text))
	}

	switch c.Backend.Image {
	case BackendNone:
	case BackendGemini:
		if c.Backend.ImageAPIKey() == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY_IMAGE_GEN or GEMINI_API_KEY is required for the gemini image backend"))
		}
	case BackendDalle:
		if c.Backend.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the dalle image backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown image backend %q", c.Backend.Image))
	}
	return errs
}

func (c *Config) storeErrors() []error {
	var errs []error
	switch c.Store.Driver {
	case StoreMemory:
	case StoreFile, StoreSqlite:
		if c.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store path is required for the %s driver", c.Store.Driver))
		}
	case StoreRedis:
		if c.Store.Addr == "" {
			errs = append(errs, errors.New("store addr is required for the redis driver"))
		}
	case StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}
	return errs
}

// RunnerOptions converts the research settings into runner options.
func (c *Config) RunnerOptions() ([]research.Option, error) {
	policy, err := research.ParseCritiqueFailurePolicy(c.Research.CritiqueFailure)
	if err != nil {
		return nil, err
	}
	return []research.Option{
		research.WithMaxIterations(c.Research.MaxIterations),
		research.WithQuotaBackoff(c.Research.QuotaBackoff),
		research.WithObjectiveTimeout(c.Research.ObjectiveTimeout),
		research.WithConcurrency(c.Research.Concurrency),
		research.WithCritiqueFailurePolicy(policy),
		research.WithPersonas(c.Research.SpeakerPersona, c.Research.VisualPersona),
	}, nil
}
