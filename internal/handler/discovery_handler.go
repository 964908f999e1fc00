// internal/handler/discovery_handler.go
package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// maxScanDuration caps a single scan request
const maxScanDuration = time.Minute

// DiscoveryHandler handles printer discovery requests
type DiscoveryHandler struct {
	printers *service.PrintService
	logger   *utils.ServiceLogger
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(printers *service.PrintService, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{
		printers: printers,
		logger:   utils.NewServiceLogger(logger, "discovery-handler"),
	}
}

// ScanPrinters scans BLE and Classic for the requested duration and returns
// everything found.
func (h *DiscoveryHandler) ScanPrinters(c *gin.Context) {
	duration, err := scanDuration(c)
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	devices := h.printers.ScanPrinters(c.Request.Context(), duration)
	utils.SuccessResponse(c, http.StatusOK, "Printer scan completed", gin.H{
		"devices_found": len(devices),
		"devices":       devices,
	})
}

// StopScan ends a scan in progress
func (h *DiscoveryHandler) StopScan(c *gin.Context) {
	h.printers.StopScan()
	utils.SuccessResponse(c, http.StatusOK, "Printer scan stopped", nil)
}

// scanDuration reads ?duration=5s; empty selects the configured default
func scanDuration(c *gin.Context) (time.Duration, error) {
	raw := c.Query("duration")
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("duration must be a positive duration such as 5s")
	}
	if d > maxScanDuration {
		d = maxScanDuration
	}
	return d, nil
}
