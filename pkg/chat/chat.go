package chat

import (
	"database/sql"

	"github.com/google/uuid"
)

type Message struct {
	Id              int64        `json:"id"`
	SenderId        uuid.UUID    `json:"sender_id"`
	ReceiverId      uuid.UUID    `json:"receiver_id"`
	Text            string       `json:"text"`
	Read            bool         `json:"read"`
	SenderDeleted   bool         `json:"-"`
	ReceiverDeleted bool         `json:"-"`
	CreatedAt       sql.NullTime `json:"created_at"`
}

type Block struct {
	Id        int64        `json:"id"`
	BlockerId uuid.UUID    `json:"blocker_id"`
	BlockedId uuid.UUID    `json:"blocked_id"`
	CreatedAt sql.NullTime `json:"created_at"`
}
