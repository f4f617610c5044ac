package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"bookmarket/internal/handler"
	"bookmarket/internal/middlewares"
	"bookmarket/internal/repository"
	"bookmarket/internal/service"
	"bookmarket/pkg/cache"
	"bookmarket/pkg/cleaner"
	"bookmarket/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

func initDailyCleaner(pool *pgxpool.Pool) {
	c := cron.New()

	_, err := c.AddFunc("0 3 * * *", func() {
		cleaner.Clean(pool)
	})

	if err != nil {
		log.Fatalf("Failed to schedule cleanup job: %v", err)
	}

	go c.Start()
}

func main() {
	config, err := config.NewConfig(".env")
	if err != nil {
		log.Fatalf("%s", err.Error())
	}
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s", config.DbUser, config.DbPassword, config.DbHost, config.DbPort, config.DbName)
	dbconfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		log.Fatalf("%s", err.Error())
	}
	dbconfig.MaxConns = 100
	dbconfig.MinConns = 10
	dbconfig.MaxConnLifetime = 1 * time.Hour
	dbconfig.MaxConnIdleTime = 15 * time.Minute
	pool, err := pgxpool.NewWithConfig(context.Background(), dbconfig)
	if err != nil {
		log.Fatalf("%s", err.Error())
	}
	defer pool.Close()
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatalf("%s", err.Error())
	}

	userRepository := repository.NewUserRepository(pool, config)
	listingRepository := repository.NewListingRepository(pool, config.WebHost, config.WebPort)
	locationRepository := repository.NewLocationRepository(pool, config.WebHost, config.WebPort)
	favouritesRepository := repository.NewFavouritesRepository(pool, config.WebHost, config.WebPort)
	chatRepository := repository.NewChatRepository(config.WebHost, config.WebPort, pool, userRepository)

	err = userRepository.CreateTables(context.Background())
	if err != nil {
		log.Fatal(err.Error())
	}
	err = listingRepository.CreateTables(context.Background())
	if err != nil {
		log.Fatal(err.Error())
	}
	err = locationRepository.CreateTables(context.Background())
	if err != nil {
		log.Fatal(err.Error())
	}
	err = favouritesRepository.CreateTables(context.Background())
	if err != nil {
		log.Fatal(err.Error())
	}
	err = chatRepository.CreateTables(context.Background())
	if err != nil {
		log.Fatal(err.Error())
	}
	initDailyCleaner(pool)

	mailAuthService := service.NewMailAuthService(userRepository, config.WebHost, config.WebPort, config.MailToken, config.From, config.SecretKey)
	jwtService := service.NewJWTService(config, userRepository)
	middlewares := middlewares.NewMiddlewares(jwtService, userRepository, config.WebHost, config.WebPort, listingRepository)
	userService := service.NewUserService(userRepository, config.WebHost, config.WebPort, config.MainUrl)
	listingService := service.NewListingService(listingRepository, config.WebHost, config.WebPort, config.MainUrl)
	locationService := service.NewLocationService(locationRepository, config.WebHost, config.WebPort)
	locationCache := cache.NewLocationCache(10 * time.Minute)
	nearbyService := service.NewNearbyService(listingRepository, locationRepository, locationCache, config.WebHost, config.WebPort)
	favouritesService := service.NewFavouritesService(favouritesRepository, config.WebHost, config.WebPort)
	chatService := service.NewChatService(chatRepository, userRepository, config.WebHost, config.WebPort)
	go chatService.KeepAlive()
	mailAuthHandler := handler.NewMailAuthHandler(mailAuthService, jwtService, config, middlewares)
	userHandler := handler.NewUserHandler(userService, config.WebHost, config.WebPort, middlewares)
	listingHandler := handler.NewListingHandler(listingService, nearbyService, config.WebHost, config.WebPort, middlewares)
	locationHandler := handler.NewLocationHandler(locationService, middlewares)
	favouritesHandler := handler.NewFavouritesHandler(favouritesService, middlewares, listingService)
	chatHandler := handler.NewChatHandler(chatService, config.WebHost, config.WebPort, middlewares, jwtService)

	router := gin.Default()
	router.Static("/media", "./media")
	api := router.Group("/api")
	v1 := api.Group("/v1")
	auth := v1.Group("/auth")
	auth.POST("/refresh-token", middlewares.ValidUser(), func(ctx *gin.Context) {
		handler.RefreshToken(ctx, jwtService)
	})

	mailAuthHandler.RegisterRoutes(auth)
	userHandler.RegisterRoutes(v1)
	listingHandler.RegisterRoutes(v1)
	locationHandler.RegisterRoutes(v1)
	favouritesHandler.RegisterRoutes(v1)
	chatHandler.RegisterRoutes(v1)

	router.Run(config.WebHost + ":" + config.WebPort)
}
