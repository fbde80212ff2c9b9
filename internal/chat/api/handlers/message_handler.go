package handlers

import (
	"context"
	"net/http"

	"private_chat_service/internal/chat/app"
	"private_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// MessageHandler REST 查詢訊息的處理器
// Debug escape hatch; the live client flow never calls it.
type MessageHandler struct {
	MessageUC *app.MessageUseCase
}

// GetMessages 回傳所有已儲存訊息，依時間升冪
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	msgs, err := h.MessageUC.AllMessages(context.Background())
	if err != nil {
		logger.Log.Error("list messages failed", zap.Error(err))
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load messages"})
	}
	return c.JSON(msgs)
}
