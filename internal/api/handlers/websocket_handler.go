package handlers

import (
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/nlp"
	"github.com/artikelservice/backend/pkg/logger"
)

// WebSocketHandler serves live type-ahead detection: one verdict per
// incoming message, cheap enough to run on every keystroke.
type WebSocketHandler struct {
	facade *nlp.Facade
}

func NewWebSocketHandler(facade *nlp.Facade) *WebSocketHandler {
	return &WebSocketHandler{facade: facade}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Word    string `json:"word"`
			Context string `json:"context"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if msg.Type != "detect" || msg.Word == "" {
			continue
		}

		result := h.facade.Detect(msg.Word, msg.Context)

		err := c.WriteJSON(map[string]interface{}{
			"type":   "result",
			"word":   h.facade.NormalizeWord(msg.Word),
			"result": result,
		})
		if err != nil {
			logger.Warn("Failed to write WebSocket result", zap.Error(err))
			break
		}
	}
}
