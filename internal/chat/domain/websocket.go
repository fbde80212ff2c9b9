package domain

// Event websocket event name
type Event string

// client -> server
const (
	// Join websocket event join
	Join Event = "join"
	// SendPrivateMessage websocket event sendPrivateMessage
	SendPrivateMessage Event = "sendPrivateMessage"
	// MarkAsSeen websocket event markAsSeen
	MarkAsSeen Event = "markAsSeen"
	// EditMessage websocket event editMessage
	EditMessage Event = "editMessage"
	// DeleteMessage websocket event deleteMessage
	DeleteMessage Event = "deleteMessage"
	// UnsendMessage websocket event unsendMessage
	UnsendMessage Event = "unsendMessage"
)

// server -> client
const (
	// UserList all currently joined identities
	UserList Event = "userList"
	// MessageHistory the joining identity's full conversation context
	MessageHistory Event = "messageHistory"
	// PrivateMessage one stored message, sent to recipient and echoed to sender
	PrivateMessage Event = "privateMessage"
	// MessageSeen id of a message whose seen flag flipped
	MessageSeen Event = "messageSeen"
	// MessageEdited the updated message record
	MessageEdited Event = "messageEdited"
	// MessageDeleted id of a removed message
	MessageDeleted Event = "messageDeleted"
	// MessageUnsent id of a removed message (unsend wording)
	MessageUnsent Event = "messageUnsent"
)

// WSRequest websocket Request
type WSRequest struct {
	Event     string `json:"event"`
	Username  string `json:"username,omitempty"`
	Recipient string `json:"recipient,omitempty"`
	Text      string `json:"text,omitempty"`
	MessageID string `json:"messageId,omitempty"`
	NewText   string `json:"newText,omitempty"`
}

// WSEvent websocket server push
type WSEvent struct {
	Event   Event       `json:"event"`
	Payload interface{} `json:"payload"`
}

// Conn 表示一條活躍的客戶端連線
// Implementations must serialize concurrent writes.
type Conn interface {
	// ID opaque handle id, unique per physical connection
	ID() string
	// WriteEvent push one named event to the client
	WriteEvent(event Event, payload interface{}) error
}
