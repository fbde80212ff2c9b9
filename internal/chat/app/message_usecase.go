package app

import (
	"context"

	"private_chat_service/internal/chat/domain"
	"private_chat_service/internal/chat/repository"
	errprocess "private_chat_service/pkg/err"
	"private_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// MessageUseCase 訊息生命週期路由
// Owns the presence registry and the message store; the websocket layer and
// the REST handlers never touch either directly. Every operation returns an
// error kind the transport may drop silently but tests can observe.
type MessageUseCase struct {
	presence *PresenceRegistry
	msgRepo  repository.MessageRepository
}

// NewMessageUseCase init create message use case
func NewMessageUseCase(presence *PresenceRegistry, msgRepo repository.MessageRepository) *MessageUseCase {
	return &MessageUseCase{
		presence: presence,
		msgRepo:  msgRepo,
	}
}

// Join bind username to conn, publish the updated user list to every live
// connection and replay the joining identity's message history to it.
func (uc *MessageUseCase) Join(ctx context.Context, username string, conn domain.Conn) error {
	if username == "" {
		return domain.ErrBadRequest
	}

	uc.presence.Join(username, conn)
	uc.broadcastUserList()

	history, err := uc.msgRepo.HistoryFor(ctx, username)
	if err != nil {
		// binding and broadcast stand; only the replay is abandoned
		return errprocess.Set("replay history failed: " + err.Error())
	}
	if history == nil {
		history = []domain.Message{}
	}
	uc.emit(conn, domain.MessageHistory, history)
	return nil
}

// SendPrivateMessage persist a new message, push it to the recipient when
// online and always echo it to the sender. The sender is resolved from the
// invoking connection; an unjoined connection is a no-op.
func (uc *MessageUseCase) SendPrivateMessage(ctx context.Context, conn domain.Conn, recipient, text string) (*domain.Message, error) {
	sender, ok := uc.presence.Identify(conn)
	if !ok {
		return nil, domain.ErrSenderNotJoined
	}
	if recipient == "" || text == "" {
		return nil, domain.ErrBadRequest
	}

	msg, err := uc.msgRepo.Append(ctx, sender, recipient, text)
	if err != nil {
		return nil, errprocess.Set("append message failed: " + err.Error())
	}

	if recipientConn, online := uc.presence.Resolve(recipient); online {
		uc.emit(recipientConn, domain.PrivateMessage, msg)
	}
	uc.emit(conn, domain.PrivateMessage, msg)
	return msg, nil
}

// MarkAsSeen flip the seen flag and notify the message's sender when online.
// Repeated calls are no-op successes on the store side.
func (uc *MessageUseCase) MarkAsSeen(ctx context.Context, messageID string) error {
	if messageID == "" {
		return domain.ErrBadRequest
	}

	msg, err := uc.msgRepo.MarkSeen(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrMessageNotFound
	}

	if senderConn, online := uc.presence.Resolve(msg.Sender); online {
		uc.emit(senderConn, domain.MessageSeen, msg.ID.Hex())
	}
	return nil
}

// EditMessage replace the text (timestamp re-stamped by the store), push the
// updated record to the recipient when online and echo it to the invoker.
func (uc *MessageUseCase) EditMessage(ctx context.Context, conn domain.Conn, messageID, newText string) error {
	if messageID == "" || newText == "" {
		return domain.ErrBadRequest
	}

	msg, err := uc.msgRepo.Edit(ctx, messageID, newText)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrMessageNotFound
	}

	if recipientConn, online := uc.presence.Resolve(msg.Recipient); online {
		uc.emit(recipientConn, domain.MessageEdited, msg)
	}
	uc.emit(conn, domain.MessageEdited, msg)
	return nil
}

// DeleteMessage hard-remove the message for both parties.
func (uc *MessageUseCase) DeleteMessage(ctx context.Context, conn domain.Conn, messageID string) error {
	return uc.remove(ctx, conn, messageID, domain.MessageDeleted)
}

// UnsendMessage same removal as DeleteMessage under the unsend event name.
func (uc *MessageUseCase) UnsendMessage(ctx context.Context, conn domain.Conn, messageID string) error {
	return uc.remove(ctx, conn, messageID, domain.MessageUnsent)
}

func (uc *MessageUseCase) remove(ctx context.Context, conn domain.Conn, messageID string, event domain.Event) error {
	if messageID == "" {
		return domain.ErrBadRequest
	}

	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return domain.ErrMessageNotFound
	}

	existed, err := uc.msgRepo.Delete(ctx, messageID)
	if err != nil {
		return err
	}
	if !existed {
		// lost a race with a concurrent removal
		return domain.ErrMessageNotFound
	}

	if recipientConn, online := uc.presence.Resolve(msg.Recipient); online {
		uc.emit(recipientConn, event, msg.ID.Hex())
	}
	uc.emit(conn, event, msg.ID.Hex())
	return nil
}

// Register track an accepted connection so broadcasts reach it before join
func (uc *MessageUseCase) Register(conn domain.Conn) {
	uc.presence.Track(conn)
}

// Disconnect drop conn from the broadcast set and, when it still holds a
// presence binding, unbind it and republish the user list.
func (uc *MessageUseCase) Disconnect(conn domain.Conn) {
	uc.presence.Untrack(conn)
	if identity, ok := uc.presence.Leave(conn); ok {
		logger.Log.Info("identity left", zap.String("identity", identity), zap.String("conn", conn.ID()))
		uc.broadcastUserList()
	}
}

// AllMessages every stored message, timestamp ascending (debug endpoint)
func (uc *MessageUseCase) AllMessages(ctx context.Context) ([]domain.Message, error) {
	return uc.msgRepo.FindAll(ctx)
}

func (uc *MessageUseCase) broadcastUserList() {
	identities := uc.presence.ListIdentities()
	for _, conn := range uc.presence.Connections() {
		uc.emit(conn, domain.UserList, identities)
	}
}

// emit best-effort push; a dead connection surfaces here and is logged,
// cleanup happens when its read loop fails
func (uc *MessageUseCase) emit(conn domain.Conn, event domain.Event, payload interface{}) {
	if err := conn.WriteEvent(event, payload); err != nil {
		logger.Log.Errorf("emit "+string(event)+" failed:", err, zap.String("conn", conn.ID()))
	}
}
