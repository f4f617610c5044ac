package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"bookmarket/internal/middlewares"
	"bookmarket/internal/service"
	"bookmarket/pkg/customerror"
	modelsListing "bookmarket/pkg/listing"
	modelsUser "bookmarket/pkg/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ListingHandlerI interface {
	RegisterRoutes(group *gin.RouterGroup)
	GetListings(ctx *gin.Context)
	GetListing(ctx *gin.Context)
	CreateListing(ctx *gin.Context)
	EditListing(ctx *gin.Context)
	DeleteListing(ctx *gin.Context)
	MarkSold(ctx *gin.Context)
	MarkUnsold(ctx *gin.Context)
	Boost(ctx *gin.Context)
	View(ctx *gin.Context)
	GetNearby(ctx *gin.Context)
}

type ListingHandler struct {
	listingService service.ListingServiceI
	nearbyService  service.NearbyServiceI
	host           string
	port           string
	middlewares    middlewares.MiddlewaresI
}

func NewListingHandler(listingService service.ListingServiceI, nearbyService service.NearbyServiceI, host, port string, middlewares middlewares.MiddlewaresI) ListingHandlerI {
	return &ListingHandler{
		listingService: listingService,
		nearbyService:  nearbyService,
		host:           host,
		port:           port,
		middlewares:    middlewares,
	}
}

func (listingHandler *ListingHandler) RegisterRoutes(group *gin.RouterGroup) {
	listingGroup := group.Group("/listings")
	listingGroup.Use(listingHandler.middlewares.ValidUser())
	listingGroup.GET("/", listingHandler.GetListings)
	listingGroup.GET("/nearby/:user_id", listingHandler.GetNearby)
	listingGroup.GET("/:id", listingHandler.GetListing)
	listingGroup.POST("/", listingHandler.CreateListing)
	listingGroup.PATCH("/:id", listingHandler.middlewares.MyListing(), listingHandler.EditListing)
	listingGroup.DELETE("/:id", listingHandler.middlewares.MyListing(), listingHandler.DeleteListing)
	listingGroup.PATCH("/:id/sold", listingHandler.middlewares.MyListing(), listingHandler.MarkSold)
	listingGroup.PATCH("/:id/unsold", listingHandler.middlewares.MyListing(), listingHandler.MarkUnsold)
	listingGroup.POST("/:id/boost", listingHandler.middlewares.MyListing(), listingHandler.Boost)
	listingGroup.POST("/:id/view", listingHandler.View)
}

func (listingHandler *ListingHandler) GetListings(ctx *gin.Context) {
	offset := ctx.DefaultQuery("offset", "0")
	limit := ctx.DefaultQuery("limit", "10")
	limitInt, err := strconv.ParseInt(limit, 10, 64)
	if err != nil {
		limitInt = 10
	}
	offsetInt, err := strconv.ParseInt(offset, 10, 64)
	if err != nil {
		offsetInt = 0
	}
	filters := map[string]any{}
	title := ctx.DefaultQuery("title", "")
	if title == "" {
		filters["title"] = nil
	} else {
		filters["title"] = title
	}
	category := ctx.DefaultQuery("category", "")
	if category == "" {
		filters["category"] = nil
	} else {
		filters["category"] = category
	}
	subcategory := ctx.DefaultQuery("subcategory", "")
	if subcategory == "" {
		filters["subcategory"] = nil
	} else {
		filters["subcategory"] = subcategory
	}
	priceFrom := ctx.DefaultQuery("price_from", "")
	if priceFrom == "" {
		filters["price_from"] = nil
	} else {
		filters["price_from"] = priceFrom
	}
	priceTo := ctx.DefaultQuery("price_to", "")
	if priceTo == "" {
		filters["price_to"] = nil
	} else {
		filters["price_to"] = priceTo
	}
	sold := ctx.DefaultQuery("sold", "")
	if sold == "" {
		filters["sold"] = nil
	} else {
		filters["sold"] = sold
	}
	ownerId := ctx.DefaultQuery("owner_id", "")
	if ownerId == "" {
		filters["owner_id"] = nil
	} else {
		filters["owner_id"] = ownerId
	}

	listings, err := listingHandler.listingService.GetListings(offsetInt, limitInt, filters)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"listings": listings,
		},
		"error": nil,
	})
}

func (listingHandler *ListingHandler) GetListing(ctx *gin.Context) {
	id := ctx.Param("id")
	idInt, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid id",
		})
		return
	}
	listing, err := listingHandler.listingService.GetListing(idInt)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "listing not found",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"listing": listing,
		},
		"error": nil,
	})
}

func (listingHandler *ListingHandler) CreateListing(ctx *gin.Context) {
	userInt, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("user not found")
		return
	}
	user := userInt.(*modelsUser.User)

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	price, err := strconv.ParseFloat(ctx.PostForm("price"), 64)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid price",
		})
		return
	}
	var listingFromRequest modelsListing.Listing
	listingFromRequest.Title = ctx.PostForm("title")
	listingFromRequest.Author = ctx.PostForm("author")
	listingFromRequest.Publication = ctx.PostForm("publication")
	listingFromRequest.Description = ctx.PostForm("description")
	listingFromRequest.Category = ctx.PostForm("category")
	listingFromRequest.Subcategory = ctx.PostForm("subcategory")
	listingFromRequest.Price = price
	listingFromRequest.Owner = *user
	listingFromRequest.OwnerId = user.UUID
	listingFromRequest.CreatedAt = time.Now()
	if listingFromRequest.Title == "" {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "title is required",
		})
		return
	}
	files := form.File["images"]
	id, err := listingHandler.listingService.CreateListing(&listingFromRequest, files)
	if err == customerror.ErrInvalidPrice {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid price",
		})
		return
	}
	if err == customerror.ErrInvalidImages {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid images",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"id": id,
		},
		"error": nil,
	})
}

func (listingHandler *ListingHandler) EditListing(ctx *gin.Context) {
	listingInt, exists := ctx.Get("listing")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("listing not found")
		return
	}
	listing := listingInt.(*modelsListing.Listing)

	userInt, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("user not found")
		return
	}
	user := userInt.(*modelsUser.User)

	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid data",
		})
		return
	}
	var patch modelsListing.Listing
	patch.Title = ctx.DefaultPostForm("title", listing.Title)
	patch.Author = ctx.DefaultPostForm("author", listing.Author)
	patch.Publication = ctx.DefaultPostForm("publication", listing.Publication)
	patch.Description = ctx.DefaultPostForm("description", listing.Description)
	patch.Category = ctx.DefaultPostForm("category", listing.Category)
	patch.Subcategory = ctx.DefaultPostForm("subcategory", listing.Subcategory)
	patch.Price = listing.Price
	if priceStr := ctx.PostForm("price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
				"status": http.StatusBadRequest,
				"body":   gin.H{},
				"error":  "invalid price",
			})
			return
		}
		patch.Price = price
	}
	if patch.Title == "" {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "title is required",
		})
		return
	}

	// existing_images absent means keep everything that is stored now.
	var existingImages []string
	if values, ok := form.Value["existing_images"]; ok {
		existingImages = values
	}
	files := form.File["images"]

	err = listingHandler.listingService.EditListing(listing, &patch, existingImages, files, user)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "listing not found",
		})
		return
	}
	if err == customerror.ErrInvalidPrice {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid price",
		})
		return
	}
	if err == customerror.ErrInvalidImages {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid images",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (listingHandler *ListingHandler) DeleteListing(ctx *gin.Context) {
	listingInt, exists := ctx.Get("listing")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("listing not found")
		return
	}
	listing := listingInt.(*modelsListing.Listing)

	userInt, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("user not found")
		return
	}
	user := userInt.(*modelsUser.User)
	err := listingHandler.listingService.DeleteListing(listing, user)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "listing not found",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (listingHandler *ListingHandler) MarkSold(ctx *gin.Context) {
	listingHandler.setSold(ctx, true)
}

func (listingHandler *ListingHandler) MarkUnsold(ctx *gin.Context) {
	listingHandler.setSold(ctx, false)
}

func (listingHandler *ListingHandler) setSold(ctx *gin.Context, sold bool) {
	listingInt, exists := ctx.Get("listing")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("listing not found")
		return
	}
	listing := listingInt.(*modelsListing.Listing)
	err := listingHandler.listingService.SetSold(listing.Id, sold)
	if err == customerror.ErrAlreadySold {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusConflict,
			"body":   gin.H{},
			"error":  "already sold",
		})
		return
	}
	if err == customerror.ErrNotSold {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusConflict,
			"body":   gin.H{},
			"error":  "not sold",
		})
		return
	}
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "listing not found",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (listingHandler *ListingHandler) Boost(ctx *gin.Context) {
	listingInt, exists := ctx.Get("listing")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("listing not found")
		return
	}
	listing := listingInt.(*modelsListing.Listing)
	err := listingHandler.listingService.Boost(listing.Id)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "listing not found",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body":   gin.H{},
		"error":  nil,
	})
}

func (listingHandler *ListingHandler) View(ctx *gin.Context) {
	userInt, exists := ctx.Get("user")
	if !exists {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print("user not found")
		return
	}
	user := userInt.(*modelsUser.User)
	id := ctx.Param("id")
	idInt, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid id",
		})
		return
	}
	counted, views, err := listingHandler.listingService.View(idInt, user.UUID)
	if err == pgx.ErrNoRows {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusNotFound,
			"body":   gin.H{},
			"error":  "listing not found",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"counted": counted,
			"views":   views,
		},
		"error": nil,
	})
}

func (listingHandler *ListingHandler) GetNearby(ctx *gin.Context) {
	userIdStr := ctx.Param("user_id")
	if userIdStr == "me" {
		userIdStr = ctx.MustGet("user").(*modelsUser.User).UUID.String()
	}
	userId, err := uuid.Parse(userIdStr)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "invalid id",
		})
		return
	}
	page, err := strconv.ParseInt(ctx.DefaultQuery("page", "1"), 10, 64)
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.ParseInt(ctx.DefaultQuery("pageSize", "10"), 10, 64)
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	result, err := listingHandler.nearbyService.GetNearby(userId, page, pageSize)
	if err == customerror.ErrNoLocation {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusBadRequest,
			"body":   gin.H{},
			"error":  "location not set",
		})
		return
	}
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusOK, gin.H{
			"status": http.StatusInternalServerError,
			"body":   gin.H{},
			"error":  "Internal Server Error",
		})
		log.Print(err.Error())
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": http.StatusOK,
		"body": gin.H{
			"page":        result.Page,
			"page_size":   result.PageSize,
			"total_count": result.TotalCount,
			"total_pages": result.TotalPages,
			"listings":    result.Listings,
		},
		"error": nil,
	})
}
