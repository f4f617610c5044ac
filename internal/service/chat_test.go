package service

import (
	"context"
	"testing"

	"bookmarket/internal/repository"
	modelsChat "bookmarket/pkg/chat"
	"bookmarket/pkg/customerror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatRepo struct {
	repository.ChatRepositoryI

	blockedPairs map[[2]uuid.UUID]bool
	nextId       int64
	added        []modelsChat.Message
	messages     []modelsChat.Message

	blockErr   error
	unblockErr error
	deleteErr  error
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{blockedPairs: map[[2]uuid.UUID]bool{}}
}

func (s *stubChatRepo) IsBlocked(ctx context.Context, a uuid.UUID, b uuid.UUID) (bool, error) {
	return s.blockedPairs[[2]uuid.UUID{a, b}] || s.blockedPairs[[2]uuid.UUID{b, a}], nil
}

func (s *stubChatRepo) AddMessage(ctx context.Context, senderId uuid.UUID, receiverId uuid.UUID, text string) (int64, error) {
	s.nextId++
	s.added = append(s.added, modelsChat.Message{Id: s.nextId, SenderId: senderId, ReceiverId: receiverId, Text: text})
	return s.nextId, nil
}

func (s *stubChatRepo) GetMessages(ctx context.Context, whatUser uuid.UUID, withUser uuid.UUID, offset int64, limit int64) ([]modelsChat.Message, error) {
	if offset >= int64(len(s.messages)) {
		return nil, nil
	}
	end := offset + limit
	if end > int64(len(s.messages)) {
		end = int64(len(s.messages))
	}
	return s.messages[offset:end], nil
}

func (s *stubChatRepo) Block(ctx context.Context, blockerId uuid.UUID, blockedId uuid.UUID) error {
	if s.blockErr != nil {
		return s.blockErr
	}
	s.blockedPairs[[2]uuid.UUID{blockerId, blockedId}] = true
	return nil
}

func (s *stubChatRepo) Unblock(ctx context.Context, blockerId uuid.UUID, blockedId uuid.UUID) error {
	return s.unblockErr
}

func (s *stubChatRepo) SoftDeleteMessage(ctx context.Context, userId uuid.UUID, messageId int64) error {
	return s.deleteErr
}

func newChatWithRepo(repo repository.ChatRepositoryI) ChatServiceI {
	return NewChatService(repo, nil, "localhost", "8080")
}

func TestSendMessagePersists(t *testing.T) {
	repo := newStubChatRepo()
	service := newChatWithRepo(repo)

	sender, receiver := uuid.New(), uuid.New()
	message, err := service.SendMessage(sender, receiver, "hello")
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, sender, message.SenderId)
	assert.Equal(t, receiver, message.ReceiverId)
	assert.Equal(t, "hello", message.Text)
	require.Len(t, repo.added, 1)
	assert.Equal(t, repo.added[0].Id, message.Id)
}

func TestSendMessageBlockedEitherDirection(t *testing.T) {
	repo := newStubChatRepo()
	service := newChatWithRepo(repo)

	sender, receiver := uuid.New(), uuid.New()
	// Receiver blocked the sender; delivery must fail both ways.
	require.NoError(t, service.Block(receiver, sender))

	_, err := service.SendMessage(sender, receiver, "hello")
	assert.Equal(t, customerror.ErrBlocked, err)
	_, err = service.SendMessage(receiver, sender, "hello")
	assert.Equal(t, customerror.ErrBlocked, err)
	assert.Empty(t, repo.added)
}

func TestBlockSelf(t *testing.T) {
	repo := newStubChatRepo()
	service := newChatWithRepo(repo)

	id := uuid.New()
	assert.Equal(t, customerror.ErrSelfBlock, service.Block(id, id))
}

func TestBlockTwice(t *testing.T) {
	repo := newStubChatRepo()
	service := newChatWithRepo(repo)

	blocker, blocked := uuid.New(), uuid.New()
	require.NoError(t, service.Block(blocker, blocked))
	repo.blockErr = customerror.ErrAlreadyBlocked
	assert.Equal(t, customerror.ErrAlreadyBlocked, service.Block(blocker, blocked))
}

func TestUnblockWithoutBlock(t *testing.T) {
	repo := newStubChatRepo()
	repo.unblockErr = customerror.ErrNotBlocked
	service := newChatWithRepo(repo)

	assert.Equal(t, customerror.ErrNotBlocked, service.Unblock(uuid.New(), uuid.New()))
}

func TestGetMessagesOldestFirstWithinPage(t *testing.T) {
	repo := newStubChatRepo()
	// Repository order is newest first.
	for id := int64(5); id >= 1; id-- {
		repo.messages = append(repo.messages, modelsChat.Message{Id: id})
	}
	service := newChatWithRepo(repo)

	page, err := service.GetMessages(uuid.New(), uuid.New(), 1, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	// Page one holds the three newest, read oldest first.
	assert.Equal(t, int64(3), page[0].Id)
	assert.Equal(t, int64(4), page[1].Id)
	assert.Equal(t, int64(5), page[2].Id)

	page, err = service.GetMessages(uuid.New(), uuid.New(), 2, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, int64(1), page[0].Id)
	assert.Equal(t, int64(2), page[1].Id)
}

func TestDeleteMessageMissing(t *testing.T) {
	repo := newStubChatRepo()
	repo.deleteErr = pgx.ErrNoRows
	service := newChatWithRepo(repo)

	assert.Equal(t, pgx.ErrNoRows, service.DeleteMessage(uuid.New(), 1))
}
