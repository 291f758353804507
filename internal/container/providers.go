package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/receipt-ledger/internal/application/dispatcher"
	"github.com/garyjia/receipt-ledger/internal/application/port"
	"github.com/garyjia/receipt-ledger/internal/application/service"
	"github.com/garyjia/receipt-ledger/internal/config"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/document"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/export"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/external/gemini"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/external/openai"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/receipt-ledger/internal/infrastructure/storage"
	"github.com/garyjia/receipt-ledger/pkg/database"
	"github.com/garyjia/receipt-ledger/pkg/utils"
)

// StoreBundle holds the ledger record store and, for the sqlite backend,
// the database it lives in.
type StoreBundle struct {
	DB    *database.DB
	Store port.RecordStore
}

// ProvideStore opens the configured ledger backend.
func ProvideStore(cfg *config.LedgerConfig, dbCfg *config.DatabaseConfig, logger *zap.Logger) (*StoreBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("ledger config is required")
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		db, err := database.New(database.Config{
			Path:            cfg.Path,
			MaxOpenConns:    dbCfg.MaxOpenConns,
			MaxIdleConns:    dbCfg.MaxIdleConns,
			ConnMaxLifetime: dbCfg.ConnMaxLifetime,
		}, logger)
		if err != nil {
			return nil, err
		}
		return &StoreBundle{DB: db, Store: sqlite.NewRecordStore(db.DB, logger)}, nil
	case config.BackendFile:
		return &StoreBundle{Store: storage.NewFileRecordStore(cfg.Path, logger)}, nil
	case config.BackendMemory:
		return &StoreBundle{Store: storage.NewMemoryRecordStore()}, nil
	default:
		return nil, fmt.Errorf("unknown ledger backend %q", cfg.Backend)
	}
}

// ProvideExtractor creates the configured extraction provider.
func ProvideExtractor(ctx context.Context, cfg *config.Config, logger *zap.Logger) (port.ReceiptExtractor, error) {
	switch cfg.Extraction.Provider {
	case config.ProviderGemini:
		return gemini.NewExtractor(ctx, gemini.Config{
			APIKey:      cfg.Extraction.APIKey,
			Model:       cfg.Extraction.Model,
			Temperature: cfg.Extraction.Temperature,
		}, logger)
	case config.ProviderOpenAI:
		return openai.NewExtractor(openai.Config{
			APIKey:      cfg.OpenAI.APIKey,
			Model:       cfg.OpenAI.Model,
			BaseURL:     cfg.OpenAI.BaseURL,
			Temperature: cfg.Extraction.Temperature,
			MaxTokens:   cfg.OpenAI.MaxTokens,
		}, logger), nil
	default:
		return nil, fmt.Errorf("unknown extraction provider %q", cfg.Extraction.Provider)
	}
}

// ProvideRasterizer creates the PDF rasterizer.
func ProvideRasterizer(cfg *config.ExtractionConfig, logger *zap.Logger) port.DocumentRasterizer {
	return document.NewPDFRasterizer(cfg.PDFDPI, logger)
}

// ProvideExporter creates the monthly report exporter.
func ProvideExporter(logger *zap.Logger) port.ReportExporter {
	return export.NewXLSXExporter(logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.KVLogger{Logger: logger.Named("dispatcher")}),
	)
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Config     *config.Config
	Store      port.RecordStore
	Extractor  port.ReceiptExtractor
	Rasterizer port.DocumentRasterizer
	Exporter   port.ReportExporter
	Dispatcher dispatcher.Dispatcher
	Clock      service.Clock
	Logger     *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	policy := service.CorruptPolicy(deps.Config.Ledger.CorruptPolicy)
	if !policy.IsValid() {
		return nil, fmt.Errorf("unknown corrupt policy %q", policy)
	}

	serviceLogger := utils.KVLogger{Logger: deps.Logger.Named("service")}

	ledger := service.NewLedgerService(deps.Store, deps.Dispatcher, serviceLogger,
		service.WithLedgerKey(deps.Config.Ledger.Key),
		service.WithCorruptPolicy(policy),
		service.WithLedgerClock(deps.Clock),
	)

	captureOpts := []service.CaptureOption{
		service.WithTimeout(deps.Config.Extraction.Timeout),
		service.WithCaptureClock(deps.Clock),
	}
	if deps.Rasterizer != nil {
		captureOpts = append(captureOpts, service.WithRasterizer(deps.Rasterizer))
	}

	return &ServiceBundle{
		Ledger:    ledger,
		Capture:   service.NewCaptureService(deps.Extractor, deps.Dispatcher, serviceLogger, captureOpts...),
		Navigator: service.NewMonthNavigator(deps.Dispatcher, deps.Clock, serviceLogger),
		Summary:   service.NewSummaryService(ledger, deps.Exporter, serviceLogger),
	}, nil
}
