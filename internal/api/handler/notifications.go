package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNotifications returns the caller's unseen notifications, oldest first,
// along with the fast-path unseen counter.
func (h *Handler) GetNotifications(c *gin.Context) {
	userID := principal(c)

	notifications, err := h.Storage.GetUnseenNotifications(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}

	count, err := h.Storage.GetUnseenCount(userID)
	if err != nil {
		// The counter is a convenience; fall back to the row count.
		count = int64(len(notifications))
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"unseen_count":  count,
	})
}

type markSeenRequest struct {
	NotificationIDs []uint `json:"notification_ids" binding:"required"`
}

// MarkNotificationsSeen flips the seen flag on the caller's listed
// notifications and resets the unseen counter.
func (h *Handler) MarkNotificationsSeen(c *gin.Context) {
	var req markSeenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	userID := principal(c)
	if err := h.Storage.MarkNotificationsSeen(req.NotificationIDs, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notifications"})
		return
	}
	if err := h.Storage.ResetUnseen(userID); err != nil {
		log.Printf("Warning: unseen counter for user %d not reset: %v", userID, err)
	}

	c.Status(http.StatusOK)
}
