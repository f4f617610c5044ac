package handler

import (
	"log"
	"net/http"
	"strconv"

	"bookmarket/internal/middlewares"
	"bookmarket/internal/service"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ChatHandlerI interface {
	RegisterRoutes(group *gin.RouterGroup)
	Connect(ctx *gin.Context)
	SendMessage(ctx *gin.Context)
	GetConversations(ctx *gin.Context)
	GetMessages(ctx *gin.Context)
	MarkRead(ctx *gin.Context)
	DeleteMessage(ctx *gin.Context)
	Block(ctx *gin.Context)
	Unblock(ctx *gin.Context)
}

type ChatHandler struct {
	chatService service.ChatServiceI
	jwtService  service.JWTServiceI
	host        string
	port        string
	middlewares middlewares.MiddlewaresI
}

func NewChatHandler(chatService service.ChatServiceI, host string, port string, middlewares middlewares.MiddlewaresI, jwtService service.JWTServiceI) ChatHandlerI {
	return &ChatHandler{
		chatService: chatService,
		host:        host,
		port:        port,
		middlewares: middlewares,
		jwtService:  jwtService,
	}
}

func (h *ChatHandler) RegisterRoutes(group *gin.RouterGroup) {
	chats := group.Group("/chats")
	chats.GET("/", h.middlewares.ValidUser(), h.GetConversations)
	chats.GET("/websocket", h.Connect)
	chats.GET("/:user_id", h.middlewares.ValidUser(), h.GetMessages)
	chats.POST("/:user_id", h.middlewares.ValidUser(), h.SendMessage)
	chats.POST("/:user_id/read", h.middlewares.ValidUser(), h.MarkRead)
	chats.POST("/:user_id/block", h.middlewares.ValidUser(), h.Block)
	chats.DELETE("/:user_id/block", h.middlewares.ValidUser(), h.Unblock)
	chats.DELETE("/messages/:id", h.middlewares.ValidUser(), h.DeleteMessage)
}

func (h *ChatHandler) Connect(ctx *gin.Context) {
	token := ctx.Query("token")
	user, authErr := h.jwtService.ValidateToken(token)
	_ = h.chatService.Connect(ctx, user, authErr)
}

func (h *ChatHandler) GetConversations(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	conversations, err := h.chatService.GetConversations(user)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"conversations": conversations,
		},
		"error": nil,
	})
}

func (h *ChatHandler) GetMessages(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	page, err := strconv.ParseInt(ctx.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.ParseInt(ctx.DefaultQuery("pageSize", "20"), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = 20
	}
	userIDStr := ctx.Param("user_id")
	userId, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	messages, err := h.chatService.GetMessages(user.UUID, userId, page, pageSize)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"messages": messages,
		},
		"error": nil,
	})
}

type SendMessageRequest struct {
	Text string `json:"text"`
}

func (h *ChatHandler) SendMessage(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	userIDStr := ctx.Param("user_id")
	receiverId, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	var request SendMessageRequest
	if err := ctx.ShouldBindBodyWithJSON(&request); err != nil || request.Text == "" {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	message, err := h.chatService.SendMessage(user.UUID, receiverId, request.Text)
	if err == customerror.ErrBlocked {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusForbidden,
			"body":   gin.H{},
			"error":  "blocked",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"message": message,
		},
		"error": nil,
	})
}

func (h *ChatHandler) MarkRead(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	userIDStr := ctx.Param("user_id")
	counterpartId, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	err = h.chatService.MarkRead(user.UUID, counterpartId)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (h *ChatHandler) DeleteMessage(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	idStr := ctx.Param("id")
	messageId, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid id",
		})
		return
	}
	err = h.chatService.DeleteMessage(user.UUID, messageId)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "message not found",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (h *ChatHandler) Block(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	userIDStr := ctx.Param("user_id")
	blockedId, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	err = h.chatService.Block(user.UUID, blockedId)
	if err == customerror.ErrSelfBlock {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "cannot block yourself",
		})
		return
	}
	if err == customerror.ErrAlreadyBlocked {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusConflict,
			"body":   gin.H{},
			"error":  "already blocked",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (h *ChatHandler) Unblock(ctx *gin.Context) {
	userInterface, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	user := userInterface.(*user.User)
	userIDStr := ctx.Param("user_id")
	blockedId, err := uuid.Parse(userIDStr)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	err = h.chatService.Unblock(user.UUID, blockedId)
	if err == customerror.ErrNotBlocked {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusConflict,
			"body":   gin.H{},
			"error":  "not blocked",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Println(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}
