package models

// Socket event types shared by both directions of the wire protocol.
const (
	EventRegister     = "register"
	EventJoinRoom     = "joinRoom"
	EventLeaveRoom    = "leaveRoom"
	EventMessage      = "message"
	EventTyping       = "typing"
	EventOnlineUsers  = "onlineusers"
	EventNotification = "notification"
)

// ClientEvent is one inbound JSON frame read from a live connection.
// Every frame carries its own credential; there is no per-connection login
// state beyond the presence entry created by a successful register.
type ClientEvent struct {
	Type    string `json:"type"`
	Token   string `json:"token"`
	PeerID  uint   `json:"peer_id,omitempty"`
	Content string `json:"content,omitempty"`
}

// ServerEvent is one outbound JSON frame. Exactly one of the payload fields
// is set, matching Type.
type ServerEvent struct {
	Type         string        `json:"type"`
	Message      *Message      `json:"message,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Typing       *TypingEvent  `json:"typing,omitempty"`
	OnlineUsers  []uint        `json:"online_users,omitempty"`
}

// TypingEvent is ephemeral: broadcast to the conversation channel and never
// persisted.
type TypingEvent struct {
	SenderID   uint `json:"sender_id"`
	ReceiverID uint `json:"receiver_id"`
}
