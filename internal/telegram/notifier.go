// Package telegram pushes fallback notifications to users who linked a
// Telegram chat. It is a best-effort side channel: failures are logged and
// never affect message delivery inside the relay.
package telegram

import (
	"fmt"
	"log"

	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier owns the bot connection and a small outbound queue so pushes
// never block the dispatcher.
type Notifier struct {
	BotAPI  *tgbotapi.BotAPI
	Storage storage.Storage
	queue   chan outboundPush
}

type outboundPush struct {
	chatID  int64
	content string
}

func NewNotifier(token string, s storage.Storage) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	return &Notifier{
		BotAPI:  bot,
		Storage: s,
		queue:   make(chan outboundPush, 64),
	}, nil
}

// PushNotification enqueues a notification for the user's linked chat, if
// any. Non-blocking; an overflowing queue drops the push.
func (n *Notifier) PushNotification(userID uint, notif *models.Notification) {
	user, err := n.Storage.GetUserByID(userID)
	if err != nil {
		log.Printf("ERROR: failed to load user %d for telegram push: %v", userID, err)
		return
	}
	if user == nil || user.TelegramChatID == nil {
		return
	}

	select {
	case n.queue <- outboundPush{chatID: *user.TelegramChatID, content: notif.Content}:
	default:
		log.Printf("Warning: telegram push queue full, dropping push for user %d", userID)
	}
}

// Run is the main loop: it drains the push queue and answers incoming
// updates with the chat id, so users can link their chat through the API.
func (n *Notifier) Run() {
	go n.sendLoop()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := n.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}
		// Whatever the user writes, tell them the chat id to link with.
		reply := tgbotapi.NewMessage(update.Message.Chat.ID,
			fmt.Sprintf("Your chat id is %d. Link it in the app to receive offline notifications here.", update.Message.Chat.ID))
		if _, err := n.BotAPI.Send(reply); err != nil {
			log.Printf("ERROR: failed to reply in chat %d: %v", update.Message.Chat.ID, err)
		}
	}
}

func (n *Notifier) sendLoop() {
	for push := range n.queue {
		msg := tgbotapi.NewMessage(push.chatID, push.content)
		if _, err := n.BotAPI.Send(msg); err != nil {
			log.Printf("ERROR: failed to push notification to chat %d: %v", push.chatID, err)
		}
	}
}
