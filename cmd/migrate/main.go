// cmd/migrate/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/utils"
)

func main() {
	action := pflag.StringP("action", "a", "up", "migration action: up, down or version")
	configDir := pflag.StringP("config", "c", "", "directory holding config.yaml")
	pflag.Parse()

	var paths []string
	if *configDir != "" {
		paths = append(paths, *configDir)
	}

	cfg, err := config.Load(paths...)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer utils.CloseLogger(logger)

	db, err := database.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	migrator := database.NewMigrator(db, logger)

	switch *action {
	case "up":
		err = migrator.Up()
	case "down":
		err = migrator.Down()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = migrator.Version()
		if err == nil {
			logger.Info("Migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		}
	default:
		err = fmt.Errorf("unknown action: %s", *action)
	}

	if err != nil {
		logger.Error("Migration failed", zap.String("action", *action), zap.Error(err))
		os.Exit(1)
	}
}
