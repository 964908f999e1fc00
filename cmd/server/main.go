// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/connection"
	"printer-service/internal/database"
	"printer-service/internal/discovery"
	"printer-service/internal/escpos"
	"printer-service/internal/handler"
	"printer-service/internal/protocol"
	"printer-service/internal/protocol/ble"
	"printer-service/internal/protocol/classic"
	"printer-service/internal/receipt"
	"printer-service/internal/repository"
	"printer-service/internal/routes"
	"printer-service/internal/service"
	"printer-service/internal/storage"
	"printer-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB
	kv       *storage.BadgerStore

	jobs         repository.JobRepository
	transports   *protocol.Registry
	manager      *connection.Manager
	scanner      *discovery.ScannerManager
	printService *service.PrintService
}

func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	utils.NewServiceLogger(logger, cfg.App.Name).LogServiceStart(cfg.App.Version,
		zap.String("environment", cfg.App.Environment),
		zap.String("paper_width", cfg.Printer.PaperWidth),
		zap.String("render_mode", cfg.Printer.RenderMode),
		zap.Bool("database_enabled", cfg.Database.Enabled),
	)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeTransports()

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initializeServer()

	return app, nil
}

// initializeStorage opens the saved-printer store
func (app *Application) initializeStorage() error {
	kv, err := storage.OpenBadger(app.config.Storage.Dir, app.logger)
	if err != nil {
		return err
	}
	app.kv = kv
	return nil
}

// initializeDatabase connects the job history database when enabled and
// otherwise keeps history in memory.
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.jobs = repository.NewMemoryJobRepository(0)
		app.logger.Info("Job history kept in memory")
		return nil
	}

	db, err := database.Connect(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.AutoMigrate {
		if err := database.NewMigrator(db, app.logger).Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	app.jobs = repository.NewJobRepository(db, app.logger)
	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeTransports registers the enabled Bluetooth transports
func (app *Application) initializeTransports() {
	app.transports = protocol.NewRegistry()
	app.scanner = discovery.NewScannerManager(app.logger)

	if app.config.Bluetooth.BLE.Enabled {
		t := ble.NewTransport(ble.NewDefaultStack(), app.config.BLE(), app.logger)
		app.transports.Register(t)
		app.scanner.RegisterScanner(t)
	}

	if app.config.Bluetooth.Classic.Enabled {
		cc := app.config.Classic()
		t := classic.NewTransport(
			classic.NewBlueZAdapter(cc.Adapter),
			classic.NewRFCOMMLink(cc.RFCOMMCommand, cc.PrivilegeHelper),
			classic.OpenSerial,
			cc,
			app.logger,
		)
		app.transports.Register(t)
		app.scanner.RegisterScanner(t)
	}

	app.logger.Info("Transports initialized",
		zap.Int("registered_transports", len(app.transports.All())))
}

// initializeServices creates the composer, connection manager and print service
func (app *Application) initializeServices() error {
	enc, err := escpos.NewEncoder(app.config.Printer.Charset)
	if err != nil {
		return err
	}

	renderer, err := receipt.NewRenderer(app.config.Printer.RenderMode, enc)
	if err != nil {
		return err
	}

	composer := receipt.NewComposer(app.logger, renderer, app.config.ReceiptOptions()).WithClock(time.Now)

	app.manager = connection.NewManager(
		app.transports,
		storage.NewSavedPrinterStore(app.kv),
		app.config.ConnectionConfig(),
		app.logger,
	)

	app.printService = service.NewPrintService(
		composer,
		app.manager,
		app.scanner,
		app.jobs,
		service.Config{
			Paper:        app.config.Paper(),
			ScanDuration: app.config.Printer.ScanDuration,
		},
		app.logger,
	)

	app.logger.Info("Services initialized successfully")
	return nil
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	var db handler.DatabaseChecker
	if app.database != nil {
		db = app.database
	}

	router := routes.NewRouter(app.config, app.logger, db, app.printService).SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      router,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized", zap.String("address", app.config.GetServerAddr()))
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown stops the server, closes the printer session and the stores
func (app *Application) shutdown() {
	utils.NewServiceLogger(app.logger, app.config.App.Name).LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.scanner.Stop()
	app.manager.ForceDisconnect(ctx)

	if err := app.kv.Close(); err != nil {
		app.logger.Error("Key-value store close error", zap.Error(err))
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start serves HTTP until a shutdown signal arrives
func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server", zap.String("address", app.server.Addr))

		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()
	return nil
}
