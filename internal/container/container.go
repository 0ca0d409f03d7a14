// Package container wires the application's dependencies from configuration.
// Everything a command or the HTTP server needs is created here and handed
// out through getters.
package container

import (
	"context"
	"fmt"

	"fjacquet/bank-movements/internal/api"
	"fjacquet/bank-movements/internal/categorizer"
	"fjacquet/bank-movements/internal/config"
	"fjacquet/bank-movements/internal/factory"
	"fjacquet/bank-movements/internal/ingest"
	"fjacquet/bank-movements/internal/localeparse"
	"fjacquet/bank-movements/internal/logging"
	"fjacquet/bank-movements/internal/parser"
	"fjacquet/bank-movements/internal/review"
	"fjacquet/bank-movements/internal/store"
)

// Container holds the wired dependencies. It is immutable after creation.
type Container struct {
	logger      logging.Logger
	config      *config.Config
	store       store.Store
	registry    *parser.Registry
	categorizer *categorizer.Categorizer
	pipeline    *ingest.Pipeline
	engine      *review.Engine
}

// NewContainer creates and wires all dependencies, logging through a logrus
// adapter configured from cfg.Log.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger is NewContainer with an injected logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	policy, err := localeparse.ParsePolicy(cfg.Ingest.ParsePolicy)
	if err != nil {
		return nil, err
	}

	rules, err := loadRules(cfg.Classifier.RulesFile)
	if err != nil {
		return nil, err
	}
	cat := categorizer.NewCategorizer(rules, logger)

	registry, err := factory.NewRegistry(logger, policy)
	if err != nil {
		return nil, fmt.Errorf("creating bank adapters: %w", err)
	}

	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	c := &Container{
		logger:      logger,
		config:      cfg,
		store:       st,
		registry:    registry,
		categorizer: cat,
		pipeline: ingest.NewPipeline(ingest.Options{
			MaxFileSize:      cfg.Ingest.MaxFileSize,
			AllowedMIMETypes: cfg.Ingest.AllowedMIMETypes,
			MaxParallelFiles: cfg.Ingest.MaxParallelFiles,
		}, registry, cat, st.Movements(), logger),
		engine: review.NewEngine(st, logger, cfg.Review.MaxParallelCommits),
	}

	if cfg.Concepts.File != "" {
		if _, err := c.SeedConcepts(context.Background(), cfg.Concepts.File); err != nil {
			_ = st.Close()
			return nil, err
		}
	}

	logger.Info("Container initialized successfully",
		logging.F("store_driver", cfg.Store.Driver),
		logging.F("banks", len(registry.Banks())),
		logging.F("parse_policy", string(policy)))

	return c, nil
}

func loadRules(path string) ([]categorizer.Rule, error) {
	if path == "" {
		return nil, nil
	}
	rules, err := categorizer.LoadRulesYAML(path)
	if err != nil {
		return nil, fmt.Errorf("loading classifier rules: %w", err)
	}
	return rules, nil
}

func openStore(cfg config.StoreConfig, logger logging.Logger) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return store.NewMemoryStore(), nil
	case config.DriverSQLite, config.DriverPostgres:
		s, err := store.Open(cfg.Driver, cfg.DSN, logger)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", cfg.Driver)
	}
}

// SeedConcepts upserts the concept catalog from a YAML file and returns the
// number of concepts written.
func (c *Container) SeedConcepts(ctx context.Context, path string) (int, error) {
	concepts, err := store.LoadConceptsYAML(path)
	if err != nil {
		return 0, err
	}
	if err := c.store.Concepts().Upsert(ctx, concepts); err != nil {
		return 0, fmt.Errorf("seeding concepts from %s: %w", path, err)
	}
	c.logger.Info("Seeded concept catalog",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldCount, len(concepts)))
	return len(concepts), nil
}

// GetLogger returns the container's logger.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the configuration the container was built from.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the configured store.
func (c *Container) GetStore() store.Store {
	return c.store
}

// GetRegistry returns the bank adapter registry.
func (c *Container) GetRegistry() *parser.Registry {
	return c.registry
}

// GetCategorizer returns the transaction classifier.
func (c *Container) GetCategorizer() *categorizer.Categorizer {
	return c.categorizer
}

// GetPipeline returns the batch ingestion pipeline.
func (c *Container) GetPipeline() *ingest.Pipeline {
	return c.pipeline
}

// GetReviewEngine returns the review engine.
func (c *Container) GetReviewEngine() *review.Engine {
	return c.engine
}

// NewServer builds the HTTP server over the container's pipeline and engine.
func (c *Container) NewServer() *api.Server {
	return api.New(c.pipeline, c.engine, c.logger, c.config.Server.MaxRequestSize)
}

// Close releases the store.
func (c *Container) Close() error {
	if err := c.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	c.logger.Info("Container closed")
	return nil
}
