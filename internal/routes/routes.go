// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/handler"
	"printer-service/internal/middleware"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config       *config.Config
	logger       *zap.Logger
	db           handler.DatabaseChecker
	printService *service.PrintService
}

// NewRouter creates a new router instance. db may be nil when job history
// is not stored in a database.
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db handler.DatabaseChecker,
	printService *service.PrintService,
) *Router {
	return &Router{
		config:       config,
		logger:       logger,
		db:           db,
		printService: printService,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	switch {
	case r.config.App.Environment == "test":
		gin.SetMode(gin.TestMode)
	case r.config.IsProduction():
		gin.SetMode(gin.ReleaseMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(utils.NewServiceLogger(r.logger, "http-server")))
	router.Use(middleware.CORSMiddleware(&r.config.Security))
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.printService, r.config, r.logger)
	printerHandler := handler.NewPrinterHandler(r.printService, r.logger)
	printHandler := handler.NewPrintHandler(r.printService, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.printService, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.printService, r.logger)

	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	apiV1 := router.Group("/api/v1")
	r.addPrinterRoutes(apiV1, printerHandler, discoveryHandler)
	r.addPrintRoutes(apiV1, printHandler)

	ws := router.Group("/ws")
	ws.GET("/printers/scan", wsHandler.HandleScanStream)

	r.logger.Info("All routes configured successfully")
}

// addPrinterRoutes sets up discovery, saved printer and connection routes
func (r *Router) addPrinterRoutes(api *gin.RouterGroup, printers *handler.PrinterHandler, discovery *handler.DiscoveryHandler) {
	group := api.Group("/printers")
	{
		group.GET("/scan", discovery.ScanPrinters)
		group.POST("/scan/stop", discovery.StopScan)

		group.GET("/saved", printers.GetSavedPrinter)
		group.PUT("/saved", printers.SavePrinter)
		group.DELETE("/saved", printers.RemoveSavedPrinter)

		group.POST("/connect", printers.ConnectPrinter)
		group.POST("/disconnect", printers.DisconnectPrinter)
		group.GET("/status", printers.GetStatus)
	}
}

// addPrintRoutes sets up printing, formatting and job history routes
func (r *Router) addPrintRoutes(api *gin.RouterGroup, prints *handler.PrintHandler) {
	printGroup := api.Group("/print")
	{
		printGroup.POST("/receipt", prints.PrintReceipt)
		printGroup.POST("/report", prints.PrintReport)
		printGroup.POST("/raw", prints.PrintRaw)
	}

	format := api.Group("/format")
	{
		format.POST("/receipt", prints.FormatReceipt)
		format.POST("/report", prints.FormatReport)
	}

	api.GET("/jobs", prints.ListJobs)
}
