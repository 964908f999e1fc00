// internal/handler/print_handler.go
package handler

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/escpos"
	"printer-service/internal/model"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// PrintHandler formats and prints receipts
type PrintHandler struct {
	printers *service.PrintService
	logger   *utils.ServiceLogger
}

// NewPrintHandler creates a new print handler
func NewPrintHandler(printers *service.PrintService, logger *zap.Logger) *PrintHandler {
	return &PrintHandler{
		printers: printers,
		logger:   utils.NewServiceLogger(logger, "print-handler"),
	}
}

// ReceiptRequest is a sale receipt with an optional paper width ("58"|"80")
type ReceiptRequest struct {
	PaperWidth string        `json:"paperWidth"`
	Receipt    model.Receipt `json:"receipt"`
}

// ReportRequest is a sales report with an optional paper width
type ReportRequest struct {
	PaperWidth string       `json:"paperWidth"`
	Report     model.Report `json:"report"`
}

// RawRequest carries ESC/POS bytes as hex or base64
type RawRequest struct {
	Hex    string `json:"hex"`
	Base64 string `json:"base64"`
}

// FormatResponse is a composed job returned without printing
type FormatResponse struct {
	Paper   string   `json:"paper"`
	Columns int      `json:"columns"`
	Bytes   int      `json:"bytes"`
	Hex     string   `json:"hex"`
	Preview []string `json:"preview,omitempty"`
}

func formatResponse(f *service.Formatted) FormatResponse {
	return FormatResponse{
		Paper:   f.Paper.Width,
		Columns: f.Paper.Columns,
		Bytes:   len(f.Data),
		Hex:     escpos.BytesToHex(f.Data),
		Preview: f.Preview,
	}
}

// PrintReceipt prints a sale receipt on the saved printer
func (h *PrintHandler) PrintReceipt(c *gin.Context) {
	var req ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	job, err := h.printers.PrintLotteryReceipt(c.Request.Context(), req.Receipt, req.PaperWidth)
	if err != nil {
		respondError(c, h.logger, "Failed to print receipt", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Receipt printed", job)
}

// PrintReport prints a sales report on the saved printer
func (h *PrintHandler) PrintReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	job, err := h.printers.PrintSalesReport(c.Request.Context(), req.Report, req.PaperWidth)
	if err != nil {
		respondError(c, h.logger, "Failed to print report", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Report printed", job)
}

// PrintRaw sends caller-built bytes to the saved printer
func (h *PrintHandler) PrintRaw(c *gin.Context) {
	var req RawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	data, err := req.decode()
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	job, err := h.printers.PrintRaw(c.Request.Context(), data)
	if err != nil {
		respondError(c, h.logger, "Failed to print raw data", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Raw data printed", job)
}

func (r RawRequest) decode() ([]byte, error) {
	switch {
	case r.Hex != "" && r.Base64 != "":
		return nil, fmt.Errorf("only one of hex and base64 may be set")
	case r.Hex != "":
		data, err := hex.DecodeString(strings.ReplaceAll(r.Hex, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("invalid hex: %w", err)
		}
		return data, nil
	case r.Base64 != "":
		data, err := base64.StdEncoding.DecodeString(r.Base64)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("hex or base64 is required")
	}
}

// FormatReceipt returns the sale receipt bytes and a text preview
func (h *PrintHandler) FormatReceipt(c *gin.Context) {
	var req ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	f, err := h.printers.FormatLotteryReceipt(req.Receipt, req.PaperWidth)
	if err != nil {
		respondError(c, h.logger, "Failed to format receipt", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Receipt formatted", formatResponse(f))
}

// FormatReport returns the sales report bytes
func (h *PrintHandler) FormatReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	f, err := h.printers.FormatSalesReport(req.Report, req.PaperWidth)
	if err != nil {
		respondError(c, h.logger, "Failed to format report", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Report formatted", formatResponse(f))
}

// ListJobs returns the newest print jobs
func (h *PrintHandler) ListJobs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		utils.ValidationErrorResponse(c, fmt.Errorf("limit must be a positive integer"))
		return
	}

	jobs, err := h.printers.RecentJobs(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list print jobs", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list print jobs", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Print jobs retrieved", gin.H{
		"count": len(jobs),
		"jobs":  jobs,
	})
}
