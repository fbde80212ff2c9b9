package router

import (
	"context"

	"private_chat_service/internal/chat/api/handlers"
	"private_chat_service/internal/chat/app"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes 注册聊天相關的路由
func RegisterRoutes(r *fiber.App, chatWebsocket *app.ChatWebsocketHandler, messageHandler *handlers.MessageHandler) {
	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		chatWebsocket.HandleConnection(context.Background(), c)
	}))

	r.Get("/api/messages", messageHandler.GetMessages)
}
