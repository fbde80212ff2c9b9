package repository

import (
	"context"
	"errors"
	"time"

	"private_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository durable record of all messages ever sent.
// Lookups that miss return (nil, nil) so callers can tell "unknown id"
// apart from a storage failure.
type MessageRepository interface {
	// Append persist a new unseen message and return the stored record
	Append(ctx context.Context, sender, recipient, text string) (*domain.Message, error)
	// HistoryFor 查詢 identity 參與的所有訊息，依建立時間升冪
	HistoryFor(ctx context.Context, identity string) ([]domain.Message, error)
	// FindByID lookup one message by its hex id
	FindByID(ctx context.Context, id string) (*domain.Message, error)
	// MarkSeen flip seen to true; idempotent
	MarkSeen(ctx context.Context, id string) (*domain.Message, error)
	// Edit replace text and re-stamp timestamp
	Edit(ctx context.Context, id, newText string) (*domain.Message, error)
	// Delete remove the message permanently; reports whether it existed
	Delete(ctx context.Context, id string) (bool, error)
	// FindAll all stored messages, timestamp ascending
	FindAll(ctx context.Context) ([]domain.Message, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

func (r *messageRepository) Append(ctx context.Context, sender, recipient, text string) (*domain.Message, error) {
	msg := domain.Message{
		ID:        primitive.NewObjectID(),
		Sender:    sender,
		Recipient: recipient,
		Text:      text,
		Timestamp: time.Now().Unix(),
		Seen:      false,
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) HistoryFor(ctx context.Context, identity string) ([]domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender": identity},
		bson.M{"recipient": identity},
	}}
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *messageRepository) FindByID(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// 非法 id 視同不存在
		return nil, nil
	}
	var msg domain.Message
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) MarkSeen(ctx context.Context, id string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	update := bson.M{"$set": bson.M{"seen": true}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var msg domain.Message
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) Edit(ctx context.Context, id, newText string) (*domain.Message, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	update := bson.M{"$set": bson.M{
		"text":      newText,
		"timestamp": time.Now().Unix(),
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var msg domain.Message
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}

func (r *messageRepository) FindAll(ctx context.Context) ([]domain.Message, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "timestamp", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}
