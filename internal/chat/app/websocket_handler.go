package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"private_chat_service/internal/chat/domain"
	"private_chat_service/pkg"
	"private_chat_service/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// wsConn wraps one fiber websocket connection behind domain.Conn.
// Broadcasts write from other connections' goroutines, so every data
// frame goes through the mutex; control frames use WriteControl only.
type wsConn struct {
	id   string
	mu   sync.Mutex
	conn *websocket.Conn
}

func newWSConn(conn *websocket.Conn) *wsConn {
	return &wsConn{id: uuid.New().String(), conn: conn}
}

// ID opaque handle id
func (c *wsConn) ID() string { return c.id }

// WriteEvent push one named event as a JSON text frame
func (c *wsConn) WriteEvent(event domain.Event, payload interface{}) error {
	b, err := json.Marshal(domain.WSEvent{Event: event, Payload: payload})
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

var clientEvents = []string{
	string(domain.Join),
	string(domain.SendPrivateMessage),
	string(domain.MarkAsSeen),
	string(domain.EditMessage),
	string(domain.DeleteMessage),
	string(domain.UnsendMessage),
}

// ChatWebsocketHandler 管理所有 WebSocket 連線的生命週期
// Owns no business state; everything shared lives behind MessageUseCase.
type ChatWebsocketHandler struct {
	messageUC *MessageUseCase
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(messageUC *MessageUseCase) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{messageUC: messageUC}
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	wc := newWSConn(conn)
	h.messageUC.Register(wc)

	ticker := time.NewTicker(10 * time.Minute)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		logger.Log.Info("websocket close", zap.String("conn", wc.ID()))
		h.messageUC.Disconnect(wc)
		conn.Close()
		cancel()
	}()

	//client發出close
	//fiber會自動處理(在read msg 回傳err),故需要SetCloseHandler另外接出
	conn.SetCloseHandler(func(code int, text string) error {
		logger.Log.Infof("WebSocket closed:", conn.RemoteAddr())
		return nil
	})

	//server發出ping之後client連線正常會回pong
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("received pong", zap.String("conn", wc.ID()))
		return nil
	})

	//client發出ping
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(
			websocket.PongMessage,
			[]byte(appData),
			time.Now().Add(time.Second),
		)
	})

	// 定期發送 Ping
	// WriteControl 可併發呼叫，不會跟廣播的資料寫入互踩
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
					logger.Log.Errorf("Ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("Connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}
		h.execWebsocketEvent(ctx, wc, mt, message)
	}
}

func (h *ChatWebsocketHandler) execWebsocketEvent(ctx context.Context, wc *wsConn, mt int, msg []byte) {
	if mt != websocket.TextMessage {
		logger.Log.Warn("unexpected message type", zap.Int("type", mt), zap.String("conn", wc.ID()))
		return
	}
	h.textMessageEvent(ctx, wc, msg)
}

// textMessageEvent decode and route one inbound event. Failures are logged
// and dropped: the baseline contract surfaces no error frames to the client.
func (h *ChatWebsocketHandler) textMessageEvent(ctx context.Context, wc *wsConn, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		logger.Log.Errorf("json unmarshal error:", err, zap.String("conn", wc.ID()))
		return
	}

	if !pkg.Contains(clientEvents, req.Event) {
		logger.Log.Warn("unknown event", zap.String("event", req.Event), zap.String("conn", wc.ID()))
		return
	}

	var err error
	switch domain.Event(req.Event) {
	case domain.Join:
		err = h.messageUC.Join(ctx, req.Username, wc)

	case domain.SendPrivateMessage:
		_, err = h.messageUC.SendPrivateMessage(ctx, wc, req.Recipient, req.Text)

	case domain.MarkAsSeen:
		err = h.messageUC.MarkAsSeen(ctx, req.MessageID)

	case domain.EditMessage:
		err = h.messageUC.EditMessage(ctx, wc, req.MessageID, req.NewText)

	case domain.DeleteMessage:
		err = h.messageUC.DeleteMessage(ctx, wc, req.MessageID)

	case domain.UnsendMessage:
		err = h.messageUC.UnsendMessage(ctx, wc, req.MessageID)
	}

	if err != nil {
		logger.Log.Warn("event dropped",
			zap.String("event", req.Event),
			zap.String("conn", wc.ID()),
			zap.Error(err),
		)
	}
}
