package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chatrelay/backend/internal/api/handler"
	"chatrelay/backend/internal/auth"
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubStorage overrides just the storage methods a test needs; calling
// anything else panics on the nil embedded interface, which is exactly the
// signal we want.
type stubStorage struct {
	storage.Storage
	getUserByEmail  func(email string) (*models.User, error)
	getConversation func(userA, userB uint) ([]models.Message, error)
	getUsers        func() ([]models.User, error)
	getLastSeen     func(userID uint) (*time.Time, error)
	muteUser        func(userID, mutedID uint) error
}

func (s *stubStorage) GetUserByEmail(email string) (*models.User, error) {
	return s.getUserByEmail(email)
}

func (s *stubStorage) GetConversation(userA, userB uint) ([]models.Message, error) {
	return s.getConversation(userA, userB)
}

func (s *stubStorage) GetUsers() ([]models.User, error) { return s.getUsers() }

func (s *stubStorage) GetLastSeen(userID uint) (*time.Time, error) { return s.getLastSeen(userID) }

func (s *stubStorage) MuteUser(userID, mutedID uint) error { return s.muteUser(userID, mutedID) }

func newTestRouter(s storage.Storage) (*gin.Engine, *handler.Handler, *chathub.Registry) {
	gin.SetMode(gin.TestMode)

	verifier := auth.NewVerifier("test_secret", "chatrelay-test", time.Hour)
	registry := chathub.NewRegistry()
	h := handler.NewHandler(s, verifier, registry, nil)

	r := gin.New()
	r.POST("/login", h.Login)
	r.GET("/users", h.GetUsers)

	authed := r.Group("/", h.RequireAuth())
	authed.GET("/messages/:senderId/:receiverId", h.GetMessages)
	authed.POST("/mute", h.Mute)
	return r, h, registry
}

func bearer(t *testing.T, h *handler.Handler, userID uint) string {
	t.Helper()
	token, err := h.Auth.GenerateToken(userID)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestLogin_Success(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	s := &stubStorage{
		getUserByEmail: func(email string) (*models.User, error) {
			assert.Equal(t, "alice@example.com", email)
			return &models.User{ID: 1, Email: email, Password: string(hashed)}, nil
		},
	}
	r, h, _ := newTestRouter(s)

	body, _ := json.Marshal(gin.H{"email": "alice@example.com", "password": "correct horse"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	userID, err := h.Auth.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), userID)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	s := &stubStorage{
		getUserByEmail: func(email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email, Password: string(hashed)}, nil
		},
	}
	r, _, _ := newTestRouter(s)

	body, _ := json.Marshal(gin.H{"email": "alice@example.com", "password": "wrong"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_UnknownAccount(t *testing.T) {
	s := &stubStorage{
		getUserByEmail: func(string) (*models.User, error) { return nil, nil },
	}
	r, _, _ := newTestRouter(s)

	body, _ := json.Marshal(gin.H{"email": "ghost@example.com", "password": "whatever"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body)))

	assert.Equal(t, http.StatusUnauthorized, w.Code, "unknown accounts look like bad passwords")
}

func TestRequireAuth_MissingToken(t *testing.T) {
	r, _, _ := newTestRouter(&stubStorage{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/messages/1/2", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	r, _, _ := newTestRouter(&stubStorage{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages/1/2", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetMessages_NonParticipantForbidden(t *testing.T) {
	s := &stubStorage{
		getConversation: func(uint, uint) ([]models.Message, error) {
			t.Fatal("storage must not be touched for a non-participant")
			return nil, nil
		},
	}
	r, h, _ := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages/1/2", nil)
	req.Header.Set("Authorization", bearer(t, h, 3))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetMessages_ParticipantSeesConversation(t *testing.T) {
	s := &stubStorage{
		getConversation: func(userA, userB uint) ([]models.Message, error) {
			assert.Equal(t, uint(1), userA)
			assert.Equal(t, uint(2), userB)
			return []models.Message{
				{ID: 1, Content: "hi", SenderID: 1, ReceiverID: 2},
				{ID: 2, Content: "hello", SenderID: 2, ReceiverID: 1},
			}, nil
		},
	}
	r, h, _ := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages/1/2", nil)
	req.Header.Set("Authorization", bearer(t, h, 2))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var messages []models.Message
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "hi", messages[0].Content)
}

func TestGetUsers_ReportsPresence(t *testing.T) {
	lastSeen := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	s := &stubStorage{
		getUsers: func() ([]models.User, error) {
			return []models.User{
				{ID: 1, Email: "a@example.com", Username: "alice"},
				{ID: 2, Email: "b@example.com", Username: "bob"},
			}, nil
		},
		getLastSeen: func(userID uint) (*time.Time, error) {
			if userID == 2 {
				return &lastSeen, nil
			}
			return nil, nil
		},
	}
	r, _, registry := newTestRouter(s)

	alice := newPresentClient(1)
	require.True(t, registry.Register(1, alice))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp []struct {
		ID       uint       `json:"id"`
		Online   bool       `json:"online"`
		LastSeen *time.Time `json:"last_seen"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.True(t, resp[0].Online)
	assert.Nil(t, resp[0].LastSeen)
	assert.False(t, resp[1].Online)
	require.NotNil(t, resp[1].LastSeen)
	assert.True(t, lastSeen.Equal(*resp[1].LastSeen))
}

func TestMute_UsesCallerAsPrincipal(t *testing.T) {
	var gotUserID, gotMutedID uint
	s := &stubStorage{
		muteUser: func(userID, mutedID uint) error {
			gotUserID, gotMutedID = userID, mutedID
			return nil
		},
	}
	r, h, _ := newTestRouter(s)

	body, _ := json.Marshal(gin.H{"user_id": 9})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/mute", bytes.NewReader(body))
	req.Header.Set("Authorization", bearer(t, h, 4))
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(4), gotUserID)
	assert.Equal(t, uint(9), gotMutedID)
}

// presentClient is the minimal chathub.Client needed to mark a user online.
type presentClient struct {
	userID uint
	send   chan models.ServerEvent
}

func newPresentClient(userID uint) *presentClient {
	return &presentClient{userID: userID, send: make(chan models.ServerEvent, 1)}
}

func (c *presentClient) GetConnID() string { return "test-conn" }

func (c *presentClient) GetUserID() uint { return c.userID }

func (c *presentClient) SetUserID(id uint) { c.userID = id }

func (c *presentClient) GetRoom() string { return "" }

func (c *presentClient) SetRoom(string) {}

func (c *presentClient) GetSendChannel() chan<- models.ServerEvent { return c.send }

func (c *presentClient) IsClosed() bool { return false }

func (c *presentClient) Run() {}

func (c *presentClient) Close() {}
