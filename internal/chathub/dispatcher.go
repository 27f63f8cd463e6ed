package chathub

import (
	"fmt"
	"log"

	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

// DropReason tells the caller why an event produced no effect. Nothing is
// ever reported back to the remote peer on these fire-and-forget events; the
// reason exists for logging and tests.
type DropReason int

const (
	DropNone DropReason = iota
	// DropUnauthenticated: bad, expired or missing credential.
	DropUnauthenticated
	// DropPersistenceFailure: the storage write failed, broadcast aborted.
	DropPersistenceFailure
	// DropNotPresent: the requester has no presence entry.
	DropNotPresent
	// DropConnectionGone: the connection started teardown mid-event.
	DropConnectionGone
)

func (r DropReason) String() string {
	switch r {
	case DropNone:
		return "none"
	case DropUnauthenticated:
		return "unauthenticated"
	case DropPersistenceFailure:
		return "persistence failure"
	case DropNotPresent:
		return "not present"
	case DropConnectionGone:
		return "connection gone"
	}
	return "unknown"
}

// Dispatcher orchestrates the event flows: it verifies the credential on
// every event, combines registry lookups with the channel derivation, writes
// through storage and fans out to channel members. One Dispatcher serves all
// connections; each connection's read pump calls into it sequentially, which
// preserves per-sender delivery order.
type Dispatcher struct {
	registry *Registry
	storage  storage.Storage
	auth     *auth.Verifier

	// NotifyFallback toggles the fallback-notification flow for receivers
	// who are not present in the conversation channel.
	NotifyFallback bool

	// OfflinePush, when set, is invoked after a notification was persisted
	// for a receiver with no live connection at all. Best-effort, must not
	// block.
	OfflinePush func(userID uint, n *models.Notification)
}

func NewDispatcher(registry *Registry, s storage.Storage, verifier *auth.Verifier) *Dispatcher {
	return &Dispatcher{
		registry:       registry,
		storage:        s,
		auth:           verifier,
		NotifyFallback: true,
	}
}

// Register associates the connection with the principal carried in the
// credential and stamps the user's last-seen time.
func (d *Dispatcher) Register(c Client, token string) DropReason {
	userID, err := d.auth.VerifyToken(token)
	if err != nil {
		return DropUnauthenticated
	}

	c.SetUserID(userID)
	if !d.registry.Register(userID, c) {
		return DropConnectionGone
	}

	if err := d.storage.TouchLastSeen(userID); err != nil {
		log.Printf("Warning: last-seen stamp for user %d failed: %v", userID, err)
	}
	return DropNone
}

// JoinRoom puts the connection into the pairwise channel with the peer,
// implicitly leaving whatever channel it was in before.
func (d *Dispatcher) JoinRoom(c Client, token string, peerID uint) DropReason {
	userID, err := d.auth.VerifyToken(token)
	if err != nil {
		return DropUnauthenticated
	}

	d.registry.JoinRoom(c, ChannelFor(userID, peerID))
	return DropNone
}

// LeaveRoom removes the connection from its current channel, if any.
func (d *Dispatcher) LeaveRoom(c Client, token string) DropReason {
	if _, err := d.auth.VerifyToken(token); err != nil {
		return DropUnauthenticated
	}

	d.registry.LeaveRoom(c)
	return DropNone
}

// Message persists the message and, only after the write succeeded,
// broadcasts it to every connection joined to the pairwise channel. When the
// receiver is not present in that channel, a fallback notification is
// created: delivered directly if they are online elsewhere, left unseen (and
// optionally pushed out-of-band) if they are fully offline.
func (d *Dispatcher) Message(token string, receiverID uint, content string) DropReason {
	senderID, err := d.auth.VerifyToken(token)
	if err != nil {
		return DropUnauthenticated
	}

	msg := &models.Message{
		Content:    content,
		SenderID:   senderID,
		ReceiverID: receiverID,
	}
	if err := d.storage.SaveMessage(msg); err != nil {
		log.Printf("ERROR: failed to save message from %d to %d: %v", senderID, receiverID, err)
		return DropPersistenceFailure
	}

	room := ChannelFor(senderID, receiverID)
	d.broadcast(room, models.ServerEvent{Type: models.EventMessage, Message: msg})

	if d.NotifyFallback && receiverID != senderID && !d.registry.IsUserInRoom(receiverID, room) {
		d.notifyReceiver(senderID, receiverID, msg)
	}
	return DropNone
}

// Typing broadcasts an ephemeral typing event to the pairwise channel.
// Never persisted, no fallback.
func (d *Dispatcher) Typing(token string, peerID uint) DropReason {
	senderID, err := d.auth.VerifyToken(token)
	if err != nil {
		return DropUnauthenticated
	}

	room := ChannelFor(senderID, peerID)
	d.broadcast(room, models.ServerEvent{
		Type:   models.EventTyping,
		Typing: &models.TypingEvent{SenderID: senderID, ReceiverID: peerID},
	})
	return DropNone
}

// OnlineUsers delivers the current online set to the requester's registered
// connection only. A requester without a presence entry is dropped.
func (d *Dispatcher) OnlineUsers(token string) DropReason {
	userID, err := d.auth.VerifyToken(token)
	if err != nil {
		return DropUnauthenticated
	}

	requester, ok := d.registry.Lookup(userID)
	if !ok {
		return DropNotPresent
	}
	d.deliver(requester, models.ServerEvent{
		Type:        models.EventOnlineUsers,
		OnlineUsers: d.registry.Snapshot(),
	})
	return DropNone
}

// Disconnect is invoked exactly once per connection by the lifecycle
// teardown. It drops the presence entry (unless a re-registration already
// superseded it) and the channel membership.
func (d *Dispatcher) Disconnect(c Client) {
	if d.registry.Unregister(c) {
		if err := d.storage.TouchLastSeen(c.GetUserID()); err != nil {
			log.Printf("Warning: last-seen stamp for user %d failed: %v", c.GetUserID(), err)
		}
	}
}

// notifyReceiver runs the fallback flow for a receiver that is not viewing
// the conversation. Failures here are logged and swallowed: the message
// itself was already delivered in-channel.
func (d *Dispatcher) notifyReceiver(senderID, receiverID uint, msg *models.Message) {
	receiver, err := d.storage.GetUserByID(receiverID)
	if err != nil {
		log.Printf("ERROR: failed to load user %d for notification: %v", receiverID, err)
		return
	}
	if receiver == nil || receiver.HasMuted(senderID) {
		return
	}

	content := "New message"
	if sender, err := d.storage.GetUserByID(senderID); err == nil && sender != nil {
		content = fmt.Sprintf("New message from %s", sender.Username)
	}

	n := &models.Notification{
		UserID:    receiverID,
		MessageID: &msg.ID,
		Content:   content,
	}
	if err := d.storage.SaveNotification(n); err != nil {
		log.Printf("ERROR: failed to save notification for user %d: %v", receiverID, err)
		return
	}
	if err := d.storage.IncrementUnseen(receiverID); err != nil {
		log.Printf("Warning: unseen counter for user %d not bumped: %v", receiverID, err)
	}

	if conn, online := d.registry.Lookup(receiverID); online {
		d.deliver(conn, models.ServerEvent{Type: models.EventNotification, Notification: n})
		return
	}
	if d.OfflinePush != nil {
		d.OfflinePush(receiverID, n)
	}
}

func (d *Dispatcher) broadcast(room string, evt models.ServerEvent) {
	for _, member := range d.registry.RoomMembers(room) {
		d.deliver(member, evt)
	}
}

// deliver is a non-blocking send: a connection whose buffer is full misses
// the event rather than stalling delivery to everyone else.
func (d *Dispatcher) deliver(c Client, evt models.ServerEvent) {
	select {
	case c.GetSendChannel() <- evt:
	default:
		log.Printf("send buffer full, dropping %s event for user %d", evt.Type, c.GetUserID())
	}
}
