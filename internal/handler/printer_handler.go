// internal/handler/printer_handler.go
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrinterHandler manages the saved printer and its connection
type PrinterHandler struct {
	printers *service.PrintService
	logger   *utils.ServiceLogger
}

// NewPrinterHandler creates a new printer handler
func NewPrinterHandler(printers *service.PrintService, logger *zap.Logger) *PrinterHandler {
	return &PrinterHandler{
		printers: printers,
		logger:   utils.NewServiceLogger(logger, "printer-handler"),
	}
}

// ConnectRequest selects a printer to connect to
type ConnectRequest struct {
	model.PrinterDevice
	Save bool `json:"save"`
}

// GetSavedPrinter returns the saved printer, data is null when none is saved
func (h *PrinterHandler) GetSavedPrinter(c *gin.Context) {
	saved, err := h.printers.GetSavedPrinter()
	if err != nil {
		h.logger.Error("Failed to load saved printer", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load saved printer", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Saved printer retrieved", saved)
}

// SavePrinter replaces the saved printer
func (h *PrinterHandler) SavePrinter(c *gin.Context) {
	var device model.PrinterDevice
	if err := c.ShouldBindJSON(&device); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.printers.SavePrinter(device); err != nil {
		respondError(c, h.logger, "Failed to save printer", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer saved", device)
}

// RemoveSavedPrinter forgets the saved printer and closes its session
func (h *PrinterHandler) RemoveSavedPrinter(c *gin.Context) {
	if err := h.printers.RemoveSavedPrinter(c.Request.Context()); err != nil {
		h.logger.Error("Failed to remove saved printer", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to remove saved printer", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Saved printer removed", nil)
}

// ConnectPrinter opens a session to the given printer
func (h *PrinterHandler) ConnectPrinter(c *gin.Context) {
	var req ConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	if err := h.printers.ConnectPrinter(c.Request.Context(), req.PrinterDevice, req.Save); err != nil {
		respondError(c, h.logger, "Failed to connect printer", err)
		return
	}

	st, _ := h.printers.Status()
	utils.SuccessResponse(c, http.StatusOK, "Printer connected", st)
}

// DisconnectPrinter closes the bound session
func (h *PrinterHandler) DisconnectPrinter(c *gin.Context) {
	h.printers.ForceDisconnect(c.Request.Context())
	utils.SuccessResponse(c, http.StatusOK, "Printer disconnected", nil)
}

// GetStatus returns the connection state
func (h *PrinterHandler) GetStatus(c *gin.Context) {
	st, err := h.printers.Status()
	if err != nil {
		h.logger.Error("Failed to read printer status", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to read printer status", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Printer status retrieved", st)
}
