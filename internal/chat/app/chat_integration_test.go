package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"private_chat_service/internal/chat/domain"
	"private_chat_service/internal/chat/repository"
	"private_chat_service/pkg"
	"private_chat_service/pkg/database"
	"private_chat_service/pkg/logger"
	testtool "private_chat_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const wsURL = "ws://127.0.0.1:8082/ws"

var chatApp *fiber.App

// TestMain 初始化測試環境：Mongo 容器 + Fiber WebSocket Server
func TestMain(m *testing.M) {
	logger.SetNewNop()
	ctx := context.Background()

	mongoContainer, mongoHost, mongoPort, err := testtool.SetupContainer(ctx, testcontainers.ContainerRequest{
		Image:        "mongo:latest",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	})
	if err != nil {
		log.Fatalf("Failed to start MongoDB container: %v", err)
	}

	mongoDB, err := database.NewMongoDB(ctx, database.Connection{
		ConnectStr:    fmt.Sprintf("mongodb://%s:%s", mongoHost, mongoPort),
		RetryCount:    5,
		RetryInterval: 2 * time.Second,
	}, "test_chat_ws_db")
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}

	msgRepo := repository.NewMongoMessageRepository(mongoDB.Database)
	handler := NewChatWebsocketHandler(NewMessageUseCase(NewPresenceRegistry(), msgRepo))

	chatApp = fiber.New()
	chatApp.Get("/ws", websocket.New(func(c *websocket.Conn) {
		handler.HandleConnection(context.Background(), c)
	}))

	go func() {
		if err := chatApp.Listen(":8082"); err != nil {
			log.Fatalf("Failed to start WebSocket server: %v", err)
		}
	}()
	time.Sleep(2 * time.Second)

	code := m.Run()

	chatApp.Shutdown()
	mongoDB.Close(ctx)
	mongoContainer.Terminate(ctx)
	os.Exit(code)
}

type wsEnvelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func dialWS(t *testing.T) *gws.Conn {
	conn, _, err := gws.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func sendWSRequest(t *testing.T, conn *gws.Conn, req domain.WSRequest) {
	b, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gws.TextMessage, b))
}

// waitForEvent 讀取 frame 直到指定事件出現，其餘事件略過
func waitForEvent(t *testing.T, conn *gws.Conn, event domain.Event) json.RawMessage {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)

		var env wsEnvelope
		require.NoError(t, json.Unmarshal(frame, &env))
		if env.Event == string(event) {
			return env.Payload
		}
	}
}

// waitForUserList 讀取 userList 直到內容與 want 集合相等
func waitForUserList(t *testing.T, conn *gws.Conn, want []string) {
	for {
		payload := waitForEvent(t, conn, domain.UserList)
		var got []string
		require.NoError(t, json.Unmarshal(payload, &got))

		if len(got) != len(want) {
			continue
		}
		matched := true
		for _, identity := range want {
			if !pkg.Contains(got, identity) {
				matched = false
				break
			}
		}
		if matched {
			return
		}
	}
}

// join 後所有連線收到更新的 userList，加入者收到 messageHistory
func TestWebsocket_JoinBroadcastsUserList(t *testing.T) {
	alice := dialWS(t)
	defer alice.Close()
	bob := dialWS(t)
	defer bob.Close()

	sendWSRequest(t, alice, domain.WSRequest{Event: string(domain.Join), Username: "ws-a-alice"})
	waitForUserList(t, alice, []string{"ws-a-alice"})
	waitForEvent(t, alice, domain.MessageHistory)

	sendWSRequest(t, bob, domain.WSRequest{Event: string(domain.Join), Username: "ws-a-bob"})
	waitForUserList(t, alice, []string{"ws-a-alice", "ws-a-bob"})
	waitForUserList(t, bob, []string{"ws-a-alice", "ws-a-bob"})
	waitForEvent(t, bob, domain.MessageHistory)
}

// 線上收件人收到 privateMessage，發送者收到 echo
func TestWebsocket_PrivateMessageDelivery(t *testing.T) {
	alice := dialWS(t)
	defer alice.Close()
	bob := dialWS(t)
	defer bob.Close()

	sendWSRequest(t, alice, domain.WSRequest{Event: string(domain.Join), Username: "ws-b-alice"})
	sendWSRequest(t, bob, domain.WSRequest{Event: string(domain.Join), Username: "ws-b-bob"})
	waitForEvent(t, alice, domain.MessageHistory)
	waitForEvent(t, bob, domain.MessageHistory)

	sendWSRequest(t, alice, domain.WSRequest{
		Event:     string(domain.SendPrivateMessage),
		Recipient: "ws-b-bob",
		Text:      "hi",
	})

	var received domain.Message
	require.NoError(t, json.Unmarshal(waitForEvent(t, bob, domain.PrivateMessage), &received))
	assert.Equal(t, "hi", received.Text)
	assert.Equal(t, "ws-b-alice", received.Sender)
	assert.Equal(t, "ws-b-bob", received.Recipient)
	assert.False(t, received.Seen)

	var echoed domain.Message
	require.NoError(t, json.Unmarshal(waitForEvent(t, alice, domain.PrivateMessage), &echoed))
	assert.Equal(t, received.ID, echoed.ID)
}

// 壞掉的 frame 與未知事件只被丟棄，連線照常服務
func TestWebsocket_MalformedFrameKeepsConnectionAlive(t *testing.T) {
	conn := dialWS(t)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte("not-json{{")))
	require.NoError(t, conn.WriteMessage(gws.TextMessage, []byte(`{"event":"nope"}`)))

	sendWSRequest(t, conn, domain.WSRequest{Event: string(domain.Join), Username: "ws-c-alice"})
	waitForUserList(t, conn, []string{"ws-c-alice"})
}

// 斷線後剩餘連線收到不含離開者的 userList
func TestWebsocket_DisconnectBroadcastsUserList(t *testing.T) {
	alice := dialWS(t)
	bob := dialWS(t)
	defer bob.Close()

	sendWSRequest(t, alice, domain.WSRequest{Event: string(domain.Join), Username: "ws-d-alice"})
	sendWSRequest(t, bob, domain.WSRequest{Event: string(domain.Join), Username: "ws-d-bob"})
	waitForUserList(t, bob, []string{"ws-d-alice", "ws-d-bob"})

	require.NoError(t, alice.Close())
	waitForUserList(t, bob, []string{"ws-d-bob"})
}
