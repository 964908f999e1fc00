// internal/handler/websocket_handler.go
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"printer-service/internal/service"
	"printer-service/internal/utils"
)

const writeWait = 10 * time.Second

// WebSocketHandler streams scan results as they arrive
type WebSocketHandler struct {
	upgrader websocket.Upgrader
	printers *service.PrintService
	logger   *utils.ServiceLogger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(printers *service.PrintService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// The service binds to localhost for the POS front end
				return true
			},
		},
		printers: printers,
		logger:   utils.NewServiceLogger(logger, "websocket-handler"),
	}
}

// HandleScanStream upgrades the request and sends one printer_found message
// per printer, then scan_complete. A "stop" message from the client ends the
// scan early.
func (h *WebSocketHandler) HandleScanStream(c *gin.Context) {
	duration, err := scanDuration(c)
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer conn.Close()

	requestID := utils.GetRequestID(c)
	logger := utils.LoggerWithRequestID(h.logger.Logger, requestID).With(zap.String("remote_addr", conn.RemoteAddr().String()))
	logger.Info("Scan stream client connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pongs := make(chan struct{}, 1)
	go h.readLoop(ctx, conn, cancel, pongs, logger)

	send := func(msgType string, data interface{}) error {
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(&WebSocketMessage{
			Type:      msgType,
			Data:      data,
			Timestamp: time.Now(),
			RequestID: requestID,
		})
	}

	if err := send(MessageScanStarted, gin.H{"duration": duration.String()}); err != nil {
		return
	}

	found := 0
	devices := h.printers.StreamScan(ctx, duration)
	for {
		select {
		case d, ok := <-devices:
			if !ok {
				logger.Info("Scan stream completed", zap.Int("devices_found", found))
				if err := send(MessageScanComplete, gin.H{"devices_found": found}); err != nil {
					logger.Debug("Failed to send scan completion", zap.Error(err))
					return
				}
				if err := h.closeNormal(conn); err != nil {
					logger.Debug("Failed to send close frame", zap.Error(err))
				}
				return
			}
			found++
			if err := send(MessagePrinterFound, d); err != nil {
				logger.Warn("WebSocket write error", zap.Error(err))
				cancel()
			}
		case <-pongs:
			if err := send(MessagePong, nil); err != nil {
				cancel()
			}
		}
	}
}

// closeNormal sends a normal closure frame
func (h *WebSocketHandler) closeNormal(conn *websocket.Conn) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "scan complete"))
}

// readLoop handles client messages until the connection closes
func (h *WebSocketHandler) readLoop(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, pongs chan<- struct{}, logger *zap.Logger) {
	defer cancel()
	for {
		var msg WebSocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case MessageStop:
			logger.Info("Scan stopped by client")
			h.printers.StopScan()
			return
		case MessagePing:
			select {
			case pongs <- struct{}{}:
			case <-ctx.Done():
				return
			default:
			}
		default:
			logger.Warn("Unknown message type", zap.String("type", msg.Type))
		}
	}
}
