// Package di provides dependency injection container
package di

import (
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssargent/boconv/pkg/api" //nolint:depguard
	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/config"
	"github.com/ssargent/boconv/pkg/metrics"
	"github.com/ssargent/boconv/pkg/models"
	"github.com/ssargent/boconv/pkg/record"
	"github.com/ssargent/boconv/pkg/schema"
	"github.com/ssargent/boconv/pkg/storage"
	"github.com/ssargent/boconv/pkg/store"
)

// Container holds all the dependencies for the application. Components are
// built on first use.
type Container struct {
	config *config.Config
	logger *zap.Logger

	mu            sync.Mutex
	registry      *prometheus.Registry
	metrics       *metrics.Metrics
	types         *schema.Registry
	records       *record.Codec
	objects       *storage.ObjectStore
	stats         api.StatsProvider
	serverFactory api.ServerFactory
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *zap.Logger) *Container {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		config:        cfg,
		logger:        logger,
		serverFactory: api.NewServerFactory(),
	}
}

// Config returns the configuration the container was built with
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the application logger
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Registry returns the Prometheus registry the metrics are registered with
func (c *Container) Registry() *prometheus.Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registryLocked()
}

func (c *Container) registryLocked() *prometheus.Registry {
	if c.registry == nil {
		c.registry = prometheus.NewRegistry()
	}
	return c.registry
}

// Metrics returns the shared metrics collector
func (c *Container) Metrics() *metrics.Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metricsLocked()
}

func (c *Container) metricsLocked() *metrics.Metrics {
	if c.metrics == nil {
		c.metrics = metrics.New(c.registryLocked())
	}
	return c.metrics
}

// Types returns the schema registry with every sample record type registered
func (c *Container) Types() (*schema.Registry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typesLocked()
}

func (c *Container) typesLocked() (*schema.Registry, error) {
	if c.types != nil {
		return c.types, nil
	}
	mode, err := c.config.Codec.Mode()
	if err != nil {
		return nil, err
	}
	types := schema.NewRegistry(codec.NewRegistry(codec.WithTimestampMode(mode)))
	if err := models.Register(types); err != nil {
		return nil, err
	}
	c.types = types
	return types, nil
}

// Records returns the record codec
func (c *Container) Records() (*record.Codec, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.recordsLocked()
}

func (c *Container) recordsLocked() (*record.Codec, error) {
	if c.records != nil {
		return c.records, nil
	}
	types, err := c.typesLocked()
	if err != nil {
		return nil, err
	}
	c.records = record.New(types,
		record.WithLogger(c.logger),
		record.WithObserver(c.metricsLocked()))
	return c.records, nil
}

// Objects opens the configured storage engine under the data directory
func (c *Container) Objects() (*storage.ObjectStore, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.objects != nil {
		return c.objects, nil
	}
	records, err := c.recordsLocked()
	if err != nil {
		return nil, err
	}
	compression, err := c.config.Codec.FrameCompression()
	if err != nil {
		return nil, err
	}

	var frames storage.FrameStore
	switch c.config.Storage.Engine {
	case config.EnginePebble, "":
		path := filepath.Join(c.config.DataDir, "pebble")
		db, err := storage.NewDefaultStorage(path, compression)
		if err != nil {
			return nil, errors.Wrapf(err, "open pebble store at %s", path)
		}
		frames = db
		c.logger.Info("opened pebble store", zap.String("path", path))
	case config.EngineLog:
		logStore, recovery, err := storage.NewLogStorage(store.ObjectLogConfig{
			DataDir:       c.config.DataDir,
			FsyncInterval: c.config.Storage.FsyncInterval,
			Compression:   compression,
			Logger:        c.logger,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "open object log in %s", c.config.DataDir)
		}
		if recovery.FramesTruncated > 0 {
			c.logger.Warn("object log recovered",
				zap.Int64("frames_validated", recovery.FramesValidated),
				zap.Int64("bytes_dropped", recovery.FileSizeBefore-recovery.FileSizeAfter))
		}
		frames = logStore
		c.stats = logStore.Log()
	default:
		return nil, errors.Newf("unknown storage engine %q", c.config.Storage.Engine)
	}

	c.objects = storage.NewObjectStore(frames, records, storage.WithObserver(c.metricsLocked()))
	return c.objects, nil
}

// Stats returns the store statistics provider, or nil when the engine has
// none. Call after Objects.
func (c *Container) Stats() api.StatsProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// GetServerFactory returns the server factory
func (c *Container) GetServerFactory() api.ServerFactory {
	return c.serverFactory
}

// SetServerFactory allows overriding the server factory (for testing)
func (c *Container) SetServerFactory(factory api.ServerFactory) {
	c.serverFactory = factory
}

// ServerConfig derives the API server settings from the configuration
func (c *Container) ServerConfig() api.ServerConfig {
	return api.ServerConfig{
		Port:          c.config.Port,
		Bind:          c.config.Bind,
		APIKey:        c.config.Security.APIKey,
		MaxRecordSize: int64(c.config.Security.MaxRecordSize),
	}
}

// Close releases the storage engine if it was opened
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.objects == nil {
		return nil
	}
	err := c.objects.Close()
	c.objects = nil
	c.stats = nil
	return err
}
