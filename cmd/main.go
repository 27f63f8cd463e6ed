package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"chatrelay/backend/internal/api/handler"
	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
	"chatrelay/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Message{},
		&models.Notification{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting ChatRelay Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	verifier := auth.NewVerifier(cfg.JWTSecret, config.TokenIssuer, config.TokenValidity)
	registry := chathub.NewRegistry()
	dispatcher := chathub.NewDispatcher(registry, s, verifier)

	// Telegram is optional: without a token the relay simply has no
	// offline push channel.
	if cfg.TelegramToken != "" {
		notifier, err := telegram.NewNotifier(cfg.TelegramToken, s)
		if err != nil {
			log.Fatalf("Failed to start Telegram notifier: %v", err)
		}
		dispatcher.OfflinePush = notifier.PushNotification
		go notifier.Run()
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, offline pushes disabled")
	}

	r := gin.Default()
	h := handler.NewHandler(s, verifier, registry, dispatcher)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.GET("/users", h.GetUsers)
	r.GET("/users/:id", h.GetUser)

	authed := r.Group("/", h.RequireAuth())
	authed.GET("/messages/:senderId/:receiverId", h.GetMessages)
	authed.GET("/notifications", h.GetNotifications)
	authed.POST("/notifications/mark-seen", h.MarkNotificationsSeen)
	authed.POST("/mute", h.Mute)
	authed.POST("/telegram/link", h.LinkTelegram)

	r.GET("/ws", h.ServeWebSocket)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("listening on %s", cfg.HTTPAddr)
	log.Fatal(server.ListenAndServe())
}
