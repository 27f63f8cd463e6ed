package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Small ops CLI: inspect users and unseen notifications without going
// through the HTTP API.
//
//	admin users
//	admin unseen <userID>
//	admin markseen <userID>
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})

	s := storage.NewStorageService(db, rdb)

	if len(os.Args) < 2 {
		usage()
	}

	switch os.Args[1] {
	case "users":
		users, err := s.GetUsers()
		if err != nil {
			log.Fatalf("failed to list users: %v", err)
		}
		for _, u := range users {
			fmt.Printf("%d\t%s\t%s\n", u.ID, u.Username, u.Email)
		}

	case "unseen":
		userID := parseUserID()
		notifications, err := s.GetUnseenNotifications(userID)
		if err != nil {
			log.Fatalf("failed to list notifications: %v", err)
		}
		for _, n := range notifications {
			fmt.Printf("%d\t%s\t%s\n", n.ID, n.CreatedAt.Format("2006-01-02 15:04:05"), n.Content)
		}

	case "markseen":
		userID := parseUserID()
		notifications, err := s.GetUnseenNotifications(userID)
		if err != nil {
			log.Fatalf("failed to list notifications: %v", err)
		}
		ids := make([]uint, 0, len(notifications))
		for _, n := range notifications {
			ids = append(ids, n.ID)
		}
		if err := s.MarkNotificationsSeen(ids, userID); err != nil {
			log.Fatalf("failed to mark notifications: %v", err)
		}
		if err := s.ResetUnseen(userID); err != nil {
			log.Printf("Warning: unseen counter not reset: %v", err)
		}
		fmt.Printf("marked %d notifications seen for user %d\n", len(ids), userID)

	default:
		usage()
	}
}

func parseUserID() uint {
	if len(os.Args) < 3 {
		usage()
	}
	id, err := strconv.ParseUint(os.Args[2], 10, 64)
	if err != nil {
		log.Fatalf("invalid user id %q", os.Args[2])
	}
	return uint(id)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: admin users | unseen <userID> | markseen <userID>")
	os.Exit(2)
}
