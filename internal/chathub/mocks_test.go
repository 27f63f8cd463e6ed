package chathub_test

import (
	"time"

	"chatrelay/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify/mock implementation of the storage.Storage
// interface, allowing flexible expectation setting in tests.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) SaveUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(id uint) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUsers() ([]models.User, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStorage) MuteUser(userID, mutedID uint) error {
	args := m.Called(userID, mutedID)
	return args.Error(0)
}

func (m *MockStorage) LinkTelegramChat(userID uint, chatID int64) error {
	args := m.Called(userID, chatID)
	return args.Error(0)
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetConversation(userA, userB uint) ([]models.Message, error) {
	args := m.Called(userA, userB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) SaveNotification(n *models.Notification) error {
	args := m.Called(n)
	return args.Error(0)
}

func (m *MockStorage) GetUnseenNotifications(userID uint) ([]models.Notification, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *MockStorage) MarkNotificationsSeen(ids []uint, userID uint) error {
	args := m.Called(ids, userID)
	return args.Error(0)
}

func (m *MockStorage) TouchLastSeen(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) GetLastSeen(userID uint) (*time.Time, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Time), args.Error(1)
}

func (m *MockStorage) IncrementUnseen(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) ResetUnseen(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) GetUnseenCount(userID uint) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

// mockClient is a plain test double for the chathub.Client interface.
// RecvChannel is buffered so deliveries never block in tests.
type mockClient struct {
	connID      string
	userID      uint
	room        string
	closed      bool
	RecvChannel chan models.ServerEvent
}

func newMockClient(connID string) *mockClient {
	return &mockClient{
		connID:      connID,
		RecvChannel: make(chan models.ServerEvent, 10),
	}
}

func (c *mockClient) GetConnID() string { return c.connID }

func (c *mockClient) GetUserID() uint { return c.userID }

func (c *mockClient) SetUserID(id uint) { c.userID = id }

func (c *mockClient) GetRoom() string { return c.room }

func (c *mockClient) SetRoom(room string) { c.room = room }

func (c *mockClient) GetSendChannel() chan<- models.ServerEvent { return c.RecvChannel }

func (c *mockClient) IsClosed() bool { return c.closed }

func (c *mockClient) Run() {}

func (c *mockClient) Close() { c.closed = true }

// drain returns everything currently buffered for the client.
func (c *mockClient) drain() []models.ServerEvent {
	var events []models.ServerEvent
	for {
		select {
		case evt := <-c.RecvChannel:
			events = append(events, evt)
		default:
			return events
		}
	}
}
