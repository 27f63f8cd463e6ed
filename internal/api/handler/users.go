package handler

import (
	"net/http"
	"strconv"
	"time"

	"chatrelay/backend/internal/models"

	"github.com/gin-gonic/gin"
)

type userResponse struct {
	ID       uint       `json:"id"`
	Email    string     `json:"email"`
	Username string     `json:"username"`
	Online   bool       `json:"online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

func (h *Handler) userToResponse(u models.User, online map[uint]bool) userResponse {
	lastSeen, err := h.Storage.GetLastSeen(u.ID)
	if err != nil {
		lastSeen = nil
	}
	return userResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Online:   online[u.ID],
		LastSeen: lastSeen,
	}
}

// GetUsers lists all accounts with their live presence state.
func (h *Handler) GetUsers(c *gin.Context) {
	users, err := h.Storage.GetUsers()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load users"})
		return
	}

	online := make(map[uint]bool)
	for _, id := range h.Registry.Snapshot() {
		online[id] = true
	}

	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, h.userToResponse(u, online))
	}
	c.JSON(http.StatusOK, resp)
}

// GetUser returns one account by id.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	user, err := h.Storage.GetUserByID(uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	online := make(map[uint]bool)
	for _, onlineID := range h.Registry.Snapshot() {
		online[onlineID] = true
	}
	c.JSON(http.StatusOK, h.userToResponse(*user, online))
}

type muteRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// Mute adds a principal to the caller's mute list; muted senders no longer
// produce fallback notifications.
func (h *Handler) Mute(c *gin.Context) {
	var req muteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.Storage.MuteUser(principal(c), req.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mute user"})
		return
	}
	c.Status(http.StatusOK)
}

type linkTelegramRequest struct {
	ChatID int64 `json:"chat_id" binding:"required"`
}

// LinkTelegram records the chat id offline notification pushes go to.
func (h *Handler) LinkTelegram(c *gin.Context) {
	var req linkTelegramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.Storage.LinkTelegramChat(principal(c), req.ChatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link chat"})
		return
	}
	c.Status(http.StatusOK)
}
