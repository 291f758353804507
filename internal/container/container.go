// Package container wires the receipt ledger's components together and
// owns their lifecycle.
package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/application/service"
	"github.com/garyjia/receipt-ledger/internal/config"
	"github.com/garyjia/receipt-ledger/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger
	clock  service.Clock

	// Infrastructure
	db         *database.DB
	store      port.RecordStore
	extractor  port.ReceiptExtractor
	rasterizer port.DocumentRasterizer
	exporter   port.ReportExporter

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	mu     sync.Mutex
	ready  atomic.Bool
	closed atomic.Bool
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Ledger    service.LedgerService
	Capture   service.CaptureService
	Navigator service.MonthNavigator
	Summary   service.SummaryService
}

// Option customizes a Container
type Option func(*Container)

// WithClock replaces the wall clock used by the services.
func WithClock(clock service.Clock) Option {
	return func(c *Container) { c.clock = clock }
}

// WithExtractor replaces the configured extraction provider.
func WithExtractor(e port.ReceiptExtractor) Option {
	return func(c *Container) { c.extractor = e }
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	c := &Container{config: cfg, logger: logger, clock: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start initializes all components and loads the ledger:
// 1. Ledger storage
// 2. Extraction, document and export adapters
// 3. Event dispatcher
// 4. Application services
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Debug("Starting container initialization")

	bundle, err := ProvideStore(&c.config.Ledger, &c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.db = bundle.DB
	c.store = bundle.Store

	if c.extractor == nil {
		c.extractor, err = ProvideExtractor(ctx, c.config, c.logger)
		if err != nil {
			c.closeDB()
			return fmt.Errorf("failed to initialize extractor: %w", err)
		}
	}
	c.rasterizer = ProvideRasterizer(&c.config.Extraction, c.logger)
	c.exporter = ProvideExporter(c.logger)

	c.dispatcher = ProvideDispatcher(c.logger)

	c.services, err = ProvideServices(&ServiceDeps{
		Config:     c.config,
		Store:      c.store,
		Extractor:  c.extractor,
		Rasterizer: c.rasterizer,
		Exporter:   c.exporter,
		Dispatcher: c.dispatcher,
		Clock:      c.clock,
		Logger:     c.logger,
	})
	if err != nil {
		c.closeDB()
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	if _, err := c.services.Ledger.Load(ctx); err != nil {
		c.closeDB()
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	c.ready.Store(true)
	c.logger.Debug("Container started successfully",
		zap.String("backend", c.config.Ledger.Backend),
		zap.String("provider", c.config.Extraction.Provider))
	return nil
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	var errs []error

	if c.services != nil && c.services.Navigator != nil {
		c.services.Navigator.Close()
	}

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		}
	}

	if err := c.closeDB(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	c.logger.Debug("Container closed")
	return nil
}

func (c *Container) closeDB() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	if err != nil {
		c.logger.Error("Failed to close database", zap.Error(err))
	}
	c.db = nil
	return err
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Services returns the application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Clock returns the clock the services run on.
func (c *Container) Clock() service.Clock {
	return c.clock
}

// Logger returns the logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
