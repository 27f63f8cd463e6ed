package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Storage is the persistence contract the relay consumes. PostgreSQL (via
// GORM) holds the durable rows; Redis holds the cheap per-user state
// (unseen counters, last-seen stamps).
type Storage interface {
	SaveUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUsers() ([]models.User, error)
	MuteUser(userID, mutedID uint) error
	LinkTelegramChat(userID uint, chatID int64) error

	SaveMessage(msg *models.Message) error
	GetConversation(userA, userB uint) ([]models.Message, error)

	SaveNotification(n *models.Notification) error
	GetUnseenNotifications(userID uint) ([]models.Notification, error)
	MarkNotificationsSeen(ids []uint, userID uint) error

	TouchLastSeen(userID uint) error
	GetLastSeen(userID uint) (*time.Time, error)
	IncrementUnseen(userID uint) error
	ResetUnseen(userID uint) error
	GetUnseenCount(userID uint) (int64, error)
}

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// SaveUser creates or updates a user row.
func (s *Service) SaveUser(user *models.User) error {
	return s.DB.Save(user).Error
}

// GetUserByID returns the user or nil when the id is unknown.
func (s *Service) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	err := s.DB.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail returns the user or nil when no account uses the address.
func (s *Service) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUsers() ([]models.User, error) {
	var users []models.User
	if err := s.DB.Order("id asc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// MuteUser adds mutedID to the user's mute list. Adding an already-muted id
// is a no-op.
func (s *Service) MuteUser(userID, mutedID uint) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return gorm.ErrRecordNotFound
	}
	if user.HasMuted(mutedID) {
		return nil
	}
	user.MutedUserIDs = append(user.MutedUserIDs, int64(mutedID))
	return s.DB.Model(user).Update("muted_user_ids", pq.Int64Array(user.MutedUserIDs)).Error
}

// LinkTelegramChat records the chat the user wants offline pushes sent to.
func (s *Service) LinkTelegramChat(userID uint, chatID int64) error {
	return s.DB.Model(&models.User{}).
		Where("id = ?", userID).
		Update("telegram_chat_id", chatID).Error
}

// SaveMessage persists a message and fills in the server-assigned ID and
// CreatedAt. The write is bounded: a database stalled past PersistTimeout
// fails the call instead of hanging the sender's event loop.
func (s *Service) SaveMessage(msg *models.Message) error {
	ctx, cancel := context.WithTimeout(s.Ctx, config.PersistTimeout)
	defer cancel()

	return s.DB.WithContext(ctx).Create(msg).Error
}

// GetConversation loads the messages exchanged between two users, in both
// directions, ascending by creation time (ties resolved by insertion order
// through the id).
func (s *Service) GetConversation(userA, userB uint) ([]models.Message, error) {
	var messages []models.Message
	err := s.DB.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at asc, id asc").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// SaveNotification persists a fallback notification. Best-effort from the
// relay's point of view: callers log and move on when this fails.
func (s *Service) SaveNotification(n *models.Notification) error {
	ctx, cancel := context.WithTimeout(s.Ctx, config.PersistTimeout)
	defer cancel()

	return s.DB.WithContext(ctx).Create(n).Error
}

// GetUnseenNotifications returns the user's unseen notifications, oldest
// first.
func (s *Service) GetUnseenNotifications(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.DB.
		Where("user_id = ? AND seen = ?", userID, false).
		Order("created_at asc").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkNotificationsSeen flips the seen flag for the given ids, restricted to
// the owning user so one user cannot acknowledge another's notifications.
func (s *Service) MarkNotificationsSeen(ids []uint, userID uint) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB.Model(&models.Notification{}).
		Where("id IN ? AND user_id = ?", ids, userID).
		Update("seen", true).Error
}

func lastSeenKey(userID uint) string { return "lastseen:" + strconv.FormatUint(uint64(userID), 10) }
func unseenKey(userID uint) string   { return "unseen:" + strconv.FormatUint(uint64(userID), 10) }

// TouchLastSeen stamps the user's last-seen time in Redis.
func (s *Service) TouchLastSeen(userID uint) error {
	return s.Redis.Set(s.Ctx, lastSeenKey(userID), time.Now().UTC().Format(time.RFC3339), 0).Err()
}

// GetLastSeen returns the user's last-seen time, or nil when never stamped.
func (s *Service) GetLastSeen(userID uint) (*time.Time, error) {
	val, err := s.Redis.Get(s.Ctx, lastSeenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, fmt.Errorf("bad last-seen value for user %d: %w", userID, err)
	}
	return &t, nil
}

// IncrementUnseen bumps the user's unseen-notification counter.
func (s *Service) IncrementUnseen(userID uint) error {
	return s.Redis.Incr(s.Ctx, unseenKey(userID)).Err()
}

// ResetUnseen clears the counter after a mark-seen.
func (s *Service) ResetUnseen(userID uint) error {
	return s.Redis.Del(s.Ctx, unseenKey(userID)).Err()
}

func (s *Service) GetUnseenCount(userID uint) (int64, error) {
	val, err := s.Redis.Get(s.Ctx, unseenKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("bad unseen counter for user %d: %w", userID, err)
	}
	return count, nil
}
