package chathub

import "chatrelay/backend/internal/models"

// Client is the interface for one live connection (e.g., WebSocket, or a test
// double). It abstracts the underlying transport so the registry and the
// dispatcher can manage different connection types uniformly.
//
// A Client does not own presence state: the Registry holds the association
// between a principal and its current connection, and drops it on teardown.
type Client interface {
	// GetConnID returns the connection's own opaque identifier, unique per
	// live connection and unrelated to the user behind it.
	GetConnID() string

	// GetUserID returns the principal this connection was registered for,
	// or zero while the connection is still anonymous.
	GetUserID() uint
	// SetUserID records the verified principal after a successful register.
	SetUserID(uint)

	// GetRoom returns the conversation channel the connection is currently
	// joined to, or the empty string. A connection is never in more than
	// one conversation channel at a time.
	GetRoom() string
	// SetRoom is called by the Registry while it holds its lock; it only
	// records the membership, the Registry owns the actual room sets.
	SetRoom(string)

	// GetSendChannel returns the channel the dispatcher writes outbound
	// events to. It is a send-only channel.
	GetSendChannel() chan<- models.ServerEvent

	// IsClosed reports whether teardown has started. The Registry refuses
	// to register a closed connection, which keeps a late register from
	// resurrecting a presence entry after cleanup.
	IsClosed() bool

	// Run starts the connection's read and write pumps.
	Run()
	// Close tears the connection down. Safe to call more than once.
	Close()
}
