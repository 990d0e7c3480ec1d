package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/smallnest/researchdeck/config"
	"github.com/smallnest/researchdeck/llms/dalle"
	"github.com/smallnest/researchdeck/llms/gemini"
	"github.com/smallnest/researchdeck/llms/langchain"
	"github.com/smallnest/researchdeck/log"
	"github.com/smallnest/researchdeck/research"
	"github.com/smallnest/researchdeck/store"
	"github.com/smallnest/researchdeck/store/file"
	"github.com/smallnest/researchdeck/store/memory"
	"github.com/smallnest/researchdeck/store/postgres"
	"github.com/smallnest/researchdeck/store/redis"
	"github.com/smallnest/researchdeck/store/sqlite"
	"github.com/smallnest/researchdeck/tool"
	"github.com/tmc/langchaingo/llms/openai"
)

type app struct {
	cfg    *config.Config
	logger log.Logger
}

// loadApp loads and validates the configuration. Commands that never call a
// model pass needModels false so that missing API keys are not reported.
func loadApp(configPath, levelOverride string, needModels bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if levelOverride != "" {
		cfg.Log.Level = levelOverride
	}
	validate := cfg.Validate
	if !needModels {
		validate = cfg.ValidateStorage
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration:\n%w", err)
	}
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := log.New(os.Stderr, level)
	log.SetDefaultLogger(logger)
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) textModel(ctx context.Context) (research.TextModel, error) {
	b := a.cfg.Backend
	switch b.Text {
	case config.BackendGemini:
		return gemini.NewText(ctx, b.GeminiAPIKey, gemini.WithModel(b.GeminiTextModel), gemini.WithLogger(log.Named(a.logger, "gemini")))
	case config.BackendOpenAI:
		opts := []openai.Option{openai.WithToken(b.OpenAIAPIKey)}
		if b.OpenAIBaseURL != "" {
			opts = append(opts, openai.WithBaseURL(b.OpenAIBaseURL))
		}
		if b.OpenAITextModel != "" {
			opts = append(opts, openai.WithModel(b.OpenAITextModel))
		}
		llm, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create openai client: %w", err)
		}
		modelOpts := []langchain.Option{langchain.WithLogger(log.Named(a.logger, "langchain"))}
		if b.BraveAPIKey != "" {
			web, err := tool.NewBraveSearch(b.BraveAPIKey)
			if err != nil {
				return nil, err
			}
			modelOpts = append(modelOpts, langchain.WithWebSearch(web))
		} else {
			a.logger.Warn("BRAVE_API_KEY not set; search passes will not be grounded on web results")
		}
		return langchain.New(llm, modelOpts...), nil
	}
	return nil, fmt.Errorf("unknown text backend %q", b.Text)
}

// noImage is the image backend used when image generation is disabled.
type noImage struct{}

func (noImage) GenerateImage(context.Context, string, string) (string, error) { return "", nil }

func (a *app) imageModel(ctx context.Context) (research.ImageModel, error) {
	b := a.cfg.Backend
	switch b.Image {
	case config.BackendNone:
		return noImage{}, nil
	case config.BackendGemini:
		return gemini.NewImage(ctx, b.ImageAPIKey(), gemini.WithModel(b.GeminiImageModel), gemini.WithLogger(log.Named(a.logger, "gemini")))
	case config.BackendDalle:
		return dalle.New(b.OpenAIAPIKey, dalle.WithBaseURL(b.OpenAIBaseURL), dalle.WithModel(b.OpenAIImageModel))
	}
	return nil, fmt.Errorf("unknown image backend %q", b.Image)
}

func (a *app) runner(ctx context.Context, observers ...research.Observer) (*research.Runner, error) {
	text, err := a.textModel(ctx)
	if err != nil {
		return nil, err
	}
	image, err := a.imageModel(ctx)
	if err != nil {
		return nil, err
	}
	opts, err := a.cfg.RunnerOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts, research.WithLogger(log.Named(a.logger, "research")))
	for _, obs := range observers {
		opts = append(opts, research.WithObserver(obs))
	}
	return research.NewRunner(text, image, opts...), nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// projectStore opens the configured store. The returned closer releases its
// connections.
func projectStore(ctx context.Context, c config.StoreConfig) (store.ProjectStore, io.Closer, error) {
	switch c.Driver {
	case config.StoreMemory:
		return memory.NewMemoryProjectStore(), nopCloser{}, nil
	case config.StoreFile:
		s, err := file.NewFileProjectStore(c.Path)
		return s, nopCloser{}, err
	case config.StoreSqlite:
		s, err := sqlite.NewSqliteProjectStore(sqlite.SqliteOptions{Path: c.Path})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.StoreRedis:
		s := redis.NewRedisProjectStore(redis.RedisOptions{
			Addr:     c.Addr,
			Password: c.Password,
			DB:       c.DB,
			Prefix:   c.Prefix,
			TTL:      c.TTL,
		})
		return s, s, nil
	case config.StorePostgres:
		s, err := postgres.NewPostgresProjectStore(ctx, postgres.PostgresOptions{ConnString: c.DSN})
		if err != nil {
			return nil, nil, err
		}
		if err := s.InitSchema(ctx); err != nil {
			s.Close()
			return nil, nil, err
		}
		return s, closerFunc(func() error { s.Close(); return nil }), nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", c.Driver)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
