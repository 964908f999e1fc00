// internal/handler/errors.go
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/connection"
	"printer-service/internal/protocol"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, connection.ErrNoPrinterConfigured):
		return http.StatusConflict
	case protocol.IsPrecondition(err):
		return http.StatusPreconditionFailed
	default:
		return http.StatusBadGateway
	}
}

func respondError(c *gin.Context, logger *utils.ServiceLogger, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(message, zap.Error(err), zap.String("request_id", utils.GetRequestID(c)))
	} else {
		logger.Warn(message, zap.Error(err), zap.String("request_id", utils.GetRequestID(c)))
	}

	if status == http.StatusBadRequest {
		utils.ValidationErrorResponse(c, err)
		return
	}
	utils.ErrorResponse(c, status, message, err)
}
