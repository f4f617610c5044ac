package handler

import (
	"log"
	"net/http"

	"bookmarket/internal/middlewares"
	"bookmarket/internal/service"
	"bookmarket/pkg/customerror"
	"bookmarket/pkg/user"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
)

type LocationHandlerI interface {
	RegisterRoutes(group *gin.RouterGroup)
	Sync(ctx *gin.Context)
	GetLatest(ctx *gin.Context)
}

type LocationHandler struct {
	locationService service.LocationServiceI
	middlewares     middlewares.MiddlewaresI
}

func NewLocationHandler(locationService service.LocationServiceI, middlewares middlewares.MiddlewaresI) LocationHandlerI {
	return &LocationHandler{
		locationService: locationService,
		middlewares:     middlewares,
	}
}

func (h *LocationHandler) RegisterRoutes(group *gin.RouterGroup) {
	locationGroup := group.Group("/location")
	locationGroup.Use(h.middlewares.ValidUser())
	locationGroup.POST("/sync", h.Sync)
	locationGroup.GET("/latest", h.GetLatest)
}

type SyncLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *LocationHandler) Sync(ctx *gin.Context) {
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
	var request SyncLocationRequest
	if err := ctx.ShouldBindBodyWithJSON(&request); err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	if request.Latitude == nil || request.Longitude == nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	if *request.Latitude < -90 || *request.Latitude > 90 || *request.Longitude < -180 || *request.Longitude > 180 {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid coordinates",
		})
		return
	}
	err := h.locationService.Sync(user.UUID, *request.Latitude, *request.Longitude)
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("LocationHandler.Sync")
		log.Print(customErr.Error())
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (h *LocationHandler) GetLatest(ctx *gin.Context) {
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
	location, err := h.locationService.GetLatest(user.UUID)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "location not set",
		})
		return
	}
	if err != nil {
		customErr := err.(customerror.CustomError)
		customErr.AppendModule("LocationHandler.GetLatest")
		log.Print(customErr.Error())
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"location": location,
		},
		"error": nil,
	})
}
