package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"cv-builder/cv/convert"
	"cv-builder/cv/keywords"
	"cv-builder/cv/nlp"
	"cv-builder/cv/optimize"
	"cv-builder/cv/pipeline"
	"cv-builder/cv/render"
	"cv-builder/internal/generatedcvs"
	"cv-builder/internal/services/health"
	"cv-builder/internal/shared/config"
	"cv-builder/internal/shared/server"
	"cv-builder/internal/shared/server/middleware"
	"cv-builder/internal/shared/storage/db"
	"cv-builder/internal/shared/storage/object"
	localstore "cv-builder/internal/shared/storage/object/local"
	s3store "cv-builder/internal/shared/storage/object/s3"
	"cv-builder/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Store        object.ObjectStore
	Capabilities nlp.Capabilities
	Generator    *pipeline.Generator
	CVRepo       generatedcvs.Repo
	CVService    *generatedcvs.Service
	CVHandler    *generatedcvs.Handler
	Health       *health.Service
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*App, error) {
		if sqlDB != nil {
			sqlDB.Close()
		}
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	caps, generator, err := BuildGenerator(cfg)
	if err != nil {
		return fail(err)
	}
	features, err := DefaultFeatures(cfg)
	if err != nil {
		return fail(err)
	}

	app := &App{
		Config:       cfg,
		DB:           sqlDB,
		Store:        store,
		Capabilities: caps,
		Generator:    generator,
	}

	if sqlDB != nil {
		app.CVRepo = &generatedcvs.PGRepo{DB: sqlDB}
	} else {
		app.CVRepo = generatedcvs.NewMemoryRepo()
	}
	app.CVService = &generatedcvs.Service{
		Repo:      app.CVRepo,
		Store:     store,
		Generator: generator,
		Defaults:  features,
		TempDir:   cfg.TempDir,
	}
	app.CVHandler = generatedcvs.NewHandler(app.CVService)
	app.Health = health.NewService(caps, cfg.Converter, sqlDB)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      cfg,
		CVHandler:   app.CVHandler,
		Health:      app.Health,
		RateLimiter: middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// BuildGenerator resolves capabilities once and assembles the pipeline.
func BuildGenerator(cfg config.Config) (nlp.Capabilities, *pipeline.Generator, error) {
	caps, tagger := nlp.Detect(nlp.DetectOptions{
		DisableTagging:    cfg.DisableTagger,
		DisableStatistics: cfg.KeywordBackend == "simple",
	})
	conv, err := convert.New(convert.Options{
		Engine:     cfg.Converter,
		Binary:     cfg.ConverterBin,
		Timeout:    cfg.ConvertTimeout,
		TempRoot:   cfg.TempDir,
		ChromePath: cfg.ChromePath,
	})
	if err != nil {
		return nlp.Capabilities{}, nil, err
	}
	return caps, pipeline.New(keywords.New(caps), optimize.New(caps, tagger), conv), nil
}

// DefaultFeatures maps the CV_* toggles to pipeline features.
func DefaultFeatures(cfg config.Config) (pipeline.Features, error) {
	variant, err := render.ParseVariant(cfg.DefaultVariant)
	if err != nil {
		return pipeline.Features{}, fmt.Errorf("CV_DEFAULT_VARIANT: %w", err)
	}
	return pipeline.Features{
		InjectKeywords:     cfg.InjectKeywords,
		OptimizeStatements: cfg.OptimizeStatements,
		Variant:            variant,
		KeywordLimit:       cfg.KeywordLimit,
	}, nil
}

var openDB = buildDB

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repo", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repo", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
