package repository

import (
	"context"
	"errors"

	"bookmarket/pkg/chat"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/user"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationWithUser struct {
	LastMessage chat.Message `json:"last_message"`
	User        *user.User   `json:"user"`
	Unread      int64        `json:"unread"`
}

type ChatRepositoryI interface {
	CreateTables(ctx context.Context) error
	GetConversations(ctx context.Context, user *user.User) ([]ConversationWithUser, error)
	GetMessages(ctx context.Context, whatUser uuid.UUID, withUser uuid.UUID, offset int64, limit int64) ([]chat.Message, error)
	AddMessage(ctx context.Context, senderId uuid.UUID, receiverId uuid.UUID, text string) (int64, error)
	MarkRead(ctx context.Context, readerId uuid.UUID, counterpartId uuid.UUID) error
	SoftDeleteMessage(ctx context.Context, userId uuid.UUID, messageId int64) error
	Block(ctx context.Context, blockerId uuid.UUID, blockedId uuid.UUID) error
	Unblock(ctx context.Context, blockerId uuid.UUID, blockedId uuid.UUID) error
	IsBlocked(ctx context.Context, a uuid.UUID, b uuid.UUID) (bool, error)
}

type ChatRepository struct {
	Host           string
	Port           string
	Pool           *pgxpool.Pool
	UserRepository UserRepositoryI
}

func NewChatRepository(host string, port string, pool *pgxpool.Pool, userRepo UserRepositoryI) ChatRepositoryI {
	return &ChatRepository{
		Host:           host,
		Port:           port,
		Pool:           pool,
		UserRepository: userRepo,
	}
}

func (r *ChatRepository) CreateTables(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS chat_messages (
		id BIGSERIAL PRIMARY KEY,
		sender_id UUID NOT NULL REFERENCES users(id),
		receiver_id UUID NOT NULL REFERENCES users(id),
		message TEXT,
		read BOOLEAN DEFAULT FALSE,
		sender_deleted BOOLEAN DEFAULT FALSE,
		receiver_deleted BOOLEAN DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`
	_, err := r.Pool.Exec(ctx, query)
	if err != nil {
		return customerror.NewError("ChatRepository.CreateTables", r.Host+":"+r.Port, err.Error())
	}
	query = `CREATE TABLE IF NOT EXISTS chat_blocks (
		id BIGSERIAL PRIMARY KEY,
		blocker_id UUID NOT NULL REFERENCES users(id),
		blocked_id UUID NOT NULL REFERENCES users(id),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT chat_blocks_pair_unique UNIQUE (blocker_id, blocked_id)
	);`
	_, err = r.Pool.Exec(ctx, query)
	if err != nil {
		return customerror.NewError("ChatRepository.CreateTables", r.Host+":"+r.Port, err.Error())
	}
	return nil
}

func (r *ChatRepository) GetConversations(ctx context.Context, user *user.User) ([]ConversationWithUser, error) {
	query := `
		SELECT * FROM (
			SELECT DISTINCT ON (
				LEAST(sender_id, receiver_id),
				GREATEST(sender_id, receiver_id)
			)
				id,
				sender_id,
				receiver_id,
				message,
				read,
				created_at
			FROM
				chat_messages
			WHERE
				(sender_id = $1 AND NOT sender_deleted)
				OR (receiver_id = $1 AND NOT receiver_deleted)
			ORDER BY
				LEAST(sender_id, receiver_id),
				GREATEST(sender_id, receiver_id),
				id DESC
		) last_messages ORDER BY last_messages.id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, user.UUID)
	if err != nil {
		return nil, customerror.NewError("ChatRepository.GetConversations", r.Host+":"+r.Port, err.Error())
	}
	var conversations []ConversationWithUser
	for rows.Next() {
		var conversation ConversationWithUser
		err := rows.Scan(
			&conversation.LastMessage.Id,
			&conversation.LastMessage.SenderId,
			&conversation.LastMessage.ReceiverId,
			&conversation.LastMessage.Text,
			&conversation.LastMessage.Read,
			&conversation.LastMessage.CreatedAt,
		)
		if err != nil {
			continue
		}
		counterpartId := conversation.LastMessage.SenderId
		if user.UUID == conversation.LastMessage.SenderId {
			counterpartId = conversation.LastMessage.ReceiverId
		}
		conversation.User, err = r.UserRepository.GetUser(ctx, counterpartId)
		if err != nil {
			continue
		}
		unreadQuery := `SELECT COUNT(*) FROM chat_messages
		WHERE receiver_id = $1 AND sender_id = $2 AND NOT read AND NOT receiver_deleted`
		err = r.Pool.QueryRow(ctx, unreadQuery, user.UUID, counterpartId).Scan(&conversation.Unread)
		if err != nil {
			continue
		}
		conversations = append(conversations, conversation)
	}
	return conversations, nil
}

func (r *ChatRepository) GetMessages(ctx context.Context, whatUser uuid.UUID, withUser uuid.UUID, offset int64, limit int64) ([]chat.Message, error) {
	query := `
		SELECT
			id,
    		sender_id,
    		receiver_id,
    		message,
    		read,
    		created_at
		FROM
			chat_messages
		WHERE (sender_id = $1 OR receiver_id = $1) AND (sender_id = $2 OR receiver_id = $2)
		AND NOT ((sender_id = $1 AND sender_deleted) OR (receiver_id = $1 AND receiver_deleted))
		ORDER BY id DESC
		OFFSET $3
		LIMIT $4;
	`
	rows, err := r.Pool.Query(ctx, query, whatUser, withUser, offset, limit)
	if err != nil {
		return nil, customerror.NewError("ChatRepository.GetMessages", r.Host+":"+r.Port, err.Error())
	}
	var messages []chat.Message
	for rows.Next() {
		var message chat.Message
		err := rows.Scan(&message.Id, &message.SenderId, &message.ReceiverId, &message.Text, &message.Read, &message.CreatedAt)
		if err != nil {
			continue
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func (r *ChatRepository) AddMessage(ctx context.Context, senderId uuid.UUID, receiverId uuid.UUID, text string) (int64, error) {
	query := `
		INSERT INTO chat_messages (sender_id, receiver_id, message) VALUES ($1,$2,$3) RETURNING id;
	`
	var id int64
	err := r.Pool.QueryRow(ctx, query, senderId, receiverId, text).Scan(&id)
	if err != nil {
		return 0, customerror.NewError("ChatRepository.AddMessage", r.Host+":"+r.Port, err.Error())
	}
	return id, nil
}

func (r *ChatRepository) MarkRead(ctx context.Context, readerId uuid.UUID, counterpartId uuid.UUID) error {
	query := `UPDATE chat_messages SET read = TRUE
	WHERE receiver_id = $1 AND sender_id = $2 AND NOT read`
	_, err := r.Pool.Exec(ctx, query, readerId, counterpartId)
	if err != nil {
		return customerror.NewError("ChatRepository.MarkRead", r.Host+":"+r.Port, err.Error())
	}
	return nil
}

// SoftDeleteMessage hides a message for one side only; the counterpart
// keeps seeing it.
func (r *ChatRepository) SoftDeleteMessage(ctx context.Context, userId uuid.UUID, messageId int64) error {
	query := `UPDATE chat_messages SET
		sender_deleted = sender_deleted OR (sender_id = $1),
		receiver_deleted = receiver_deleted OR (receiver_id = $1)
	WHERE id = $2 AND (sender_id = $1 OR receiver_id = $1)`
	command, err := r.Pool.Exec(ctx, query, userId, messageId)
	if err != nil {
		return customerror.NewError("ChatRepository.SoftDeleteMessage", r.Host+":"+r.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ChatRepository) Block(ctx context.Context, blockerId uuid.UUID, blockedId uuid.UUID) error {
	query := `INSERT INTO chat_blocks (blocker_id, blocked_id) VALUES ($1, $2)`
	_, err := r.Pool.Exec(ctx, query, blockerId, blockedId)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == "23505" {
				return customerror.ErrAlreadyBlocked
			}
		}
		return customerror.NewError("ChatRepository.Block", r.Host+":"+r.Port, err.Error())
	}
	return nil
}

func (r *ChatRepository) Unblock(ctx context.Context, blockerId uuid.UUID, blockedId uuid.UUID) error {
	query := `DELETE FROM chat_blocks WHERE blocker_id = $1 AND blocked_id = $2`
	command, err := r.Pool.Exec(ctx, query, blockerId, blockedId)
	if err != nil {
		return customerror.NewError("ChatRepository.Unblock", r.Host+":"+r.Port, err.Error())
	}
	if command.RowsAffected() == 0 {
		return customerror.ErrNotBlocked
	}
	return nil
}

// IsBlocked reports whether a block exists in either direction between
// the two users.
func (r *ChatRepository) IsBlocked(ctx context.Context, a uuid.UUID, b uuid.UUID) (bool, error) {
	var blocked bool
	query := `SELECT EXISTS (
		SELECT 1 FROM chat_blocks
		WHERE (blocker_id = $1 AND blocked_id = $2) OR (blocker_id = $2 AND blocked_id = $1)
	)`
	err := r.Pool.QueryRow(ctx, query, a, b).Scan(&blocked)
	if err != nil {
		return false, customerror.NewError("ChatRepository.IsBlocked", r.Host+":"+r.Port, err.Error())
	}
	return blocked, nil
}
