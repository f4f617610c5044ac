package service

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"sync"
	"time"

	"bookmarket/internal/repository"
	modelsChat "bookmarket/pkg/chat"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/user"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type ChatServiceI interface {
	Connect(ctx *gin.Context, user *user.User, authErr error) error
	ServeWebSocket(connection *websocket.Conn)
	SendToUser(message *modelsChat.Message)
	SendMessage(senderId uuid.UUID, receiverId uuid.UUID, text string) (*modelsChat.Message, error)
	GetConversations(user *user.User) ([]repository.ConversationWithUser, error)
	GetMessages(whatUser uuid.UUID, withUser uuid.UUID, page int64, pageSize int64) ([]modelsChat.Message, error)
	MarkRead(readerId uuid.UUID, counterpartId uuid.UUID) error
	DeleteMessage(userId uuid.UUID, messageId int64) error
	Block(blockerId uuid.UUID, blockedId uuid.UUID) error
	Unblock(blockerId uuid.UUID, blockedId uuid.UUID) error
	KeepAlive()
}

type ChatService struct {
	Connections sync.Map
	ChatRepo    repository.ChatRepositoryI
	UserRepo    repository.UserRepositoryI
	Upgrader    websocket.Upgrader
	Host        string
	Port        string
}

func NewChatService(chatRepo repository.ChatRepositoryI, userRepo repository.UserRepositoryI, host string, port string) ChatServiceI {
	return &ChatService{
		Connections: sync.Map{},
		ChatRepo:    chatRepo,
		UserRepo:    userRepo,
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		Host: host,
		Port: port,
	}
}

// SendMessage persists a message after the block check and pushes it to
// the receiver's live connection if there is one.
func (s *ChatService) SendMessage(senderId uuid.UUID, receiverId uuid.UUID, text string) (*modelsChat.Message, error) {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	blocked, err := s.ChatRepo.IsBlocked(ctx, senderId, receiverId)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ChatService.SendMessage")
		return nil, customErr
	}
	if blocked {
		return nil, customerror.ErrBlocked
	}
	messageId, err := s.ChatRepo.AddMessage(ctx, senderId, receiverId, text)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ChatService.SendMessage")
		return nil, customErr
	}
	message := &modelsChat.Message{
		Id:         messageId,
		SenderId:   senderId,
		ReceiverId: receiverId,
		Text:       text,
		CreatedAt: sql.NullTime{
			Time:  time.Now(),
			Valid: true,
		},
	}
	s.SendToUser(message)
	return message, nil
}

func (s *ChatService) Connect(ctx *gin.Context, user *user.User, authErr error) error {
	connection, err := s.Upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		return customerror.NewError("ChatService.Connect", s.Host+":"+s.Port, err.Error())
	}
	if authErr == jwt.ErrTokenExpired {
		connection.WriteJSON(gin.H{
			"status": http.StatusUnauthorized,
			"body":   gin.H{},
			"error":  "token expired",
		})
	}
	if authErr != nil {
		connection.Close()
		return customerror.NewError("ChatService.Connect", s.Host+":"+s.Port, authErr.Error())
	}
	s.Connections.Store(connection, user)
	go s.ServeWebSocket(connection)
	return nil
}

type WebsocketMessage struct {
	Receiver string `json:"receiver_id"`
	Text     string `json:"text"`
}

func (s *ChatService) ServeWebSocket(connection *websocket.Conn) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("recovered from panic in ServeWebSocket: %v", r)
		}
		connection.Close()
		s.Connections.Delete(connection)
	}()
	for {
		var message WebsocketMessage
		err := connection.ReadJSON(&message)
		if err != nil {
			connection.Close()
			s.Connections.Delete(connection)
			return
		}
		receiverUUID, err := uuid.Parse(message.Receiver)
		if err != nil {
			connection.Close()
			s.Connections.Delete(connection)
			return
		}
		senderInterface, ok := s.Connections.Load(connection)
		if !ok {
			connection.Close()
			s.Connections.Delete(connection)
			return
		}
		sender := senderInterface.(*user.User)
		sent, err := s.SendMessage(sender.UUID, receiverUUID, message.Text)
		if err == customerror.ErrBlocked {
			connection.WriteJSON(gin.H{
				"status": http.StatusForbidden,
				"body":   gin.H{},
				"error":  "blocked",
			})
			continue
		}
		if err != nil {
			log.Println(err)
			connection.Close()
			s.Connections.Delete(connection)
			return
		}
		connection.WriteJSON(sent)
	}
}

func (s *ChatService) SendToUser(message *modelsChat.Message) {
	s.Connections.Range(func(key, value any) bool {
		connection := key.(*websocket.Conn)
		valueUser := value.(*user.User)
		if valueUser.UUID != message.ReceiverId {
			return true
		}
		err := connection.WriteJSON(message)
		if err != nil {
			connection.Close()
			s.Connections.Delete(connection)
		}
		return true
	})
}

func (s *ChatService) KeepAlive() {
	var deadCandidates sync.Map
	for {
		deadCandidates.Range(func(key, value any) bool {
			if _, ok := s.Connections.Load(key); !ok {
				deadCandidates.Delete(key)
				return true
			}
			retries := value.(int)
			if retries > 10 {
				connection := key.(*websocket.Conn)
				connection.Close()
				s.Connections.Delete(connection)
				deadCandidates.Delete(connection)
				return true
			}
			deadCandidates.Store(key, retries+1)
			return true
		})
		s.Connections.Range(func(key, value any) bool {
			connection := key.(*websocket.Conn)
			err := connection.WriteMessage(websocket.PingMessage, nil)
			if err != nil {
				if _, ok := deadCandidates.Load(key); !ok {
					deadCandidates.Store(key, 1)
				}
				return true
			}
			if _, ok := deadCandidates.Load(key); ok {
				deadCandidates.Delete(key)
			}
			return true
		})
		time.Sleep(10 * time.Second)
	}
}

func (s *ChatService) GetConversations(user *user.User) ([]repository.ConversationWithUser, error) {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	conversations, err := s.ChatRepo.GetConversations(ctx, user)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ChatService.GetConversations")
		return nil, customErr
	}
	return conversations, nil
}

// GetMessages pages history. The page is fetched newest-first and
// reversed, so within a page messages read oldest-first.
func (s *ChatService) GetMessages(whatUser uuid.UUID, withUser uuid.UUID, page int64, pageSize int64) ([]modelsChat.Message, error) {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	offset := (page - 1) * pageSize
	messages, err := s.ChatRepo.GetMessages(ctx, whatUser, withUser, offset, pageSize)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ChatService.GetMessages")
		return nil, customErr
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (s *ChatService) MarkRead(readerId uuid.UUID, counterpartId uuid.UUID) error {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := s.ChatRepo.MarkRead(ctx, readerId, counterpartId)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("ChatService.MarkRead")
		return customErr
	}
	return nil
}

func (s *ChatService) DeleteMessage(userId uuid.UUID, messageId int64) error {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := s.ChatRepo.SoftDeleteMessage(ctx, userId, messageId)
	if err != nil {
		if customErr, ok := err.(customerror.CustomError); ok {
			customErr.AppendModule("ChatService.DeleteMessage")
			return customErr
		}
		return err
	}
	return nil
}

func (s *ChatService) Block(blockerId uuid.UUID, blockedId uuid.UUID) error {
	if blockerId == blockedId {
		return customerror.ErrSelfBlock
	}
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := s.ChatRepo.Block(ctx, blockerId, blockedId)
	if err != nil {
		if customErr, ok := err.(customerror.CustomError); ok {
			customErr.AppendModule("ChatService.Block")
			return customErr
		}
		return err
	}
	return nil
}

func (s *ChatService) Unblock(blockerId uuid.UUID, blockedId uuid.UUID) error {
	ctx, close := context.WithTimeout(context.Background(), time.Minute)
	defer close()
	err := s.ChatRepo.Unblock(ctx, blockerId, blockedId)
	if err != nil {
		if customErr, ok := err.(customerror.CustomError); ok {
			customErr.AppendModule("ChatService.Unblock")
			return customErr
		}
		return err
	}
	return nil
}
