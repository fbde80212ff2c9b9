package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message 表示一則私人訊息
type Message struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    string             `bson:"sender" json:"sender"`
	Recipient string             `bson:"recipient" json:"recipient"`
	Text      string             `bson:"text" json:"text"`
	Timestamp int64              `bson:"timestamp" json:"timestamp"`
	Seen      bool               `bson:"seen" json:"seen"`
}

// Involves reports whether identity is the sender or the recipient.
func (m Message) Involves(identity string) bool {
	return m.Sender == identity || m.Recipient == identity
}
