package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetMessages returns the conversation between two users, ascending by
// creation time. The caller must be one of the two participants.
func (h *Handler) GetMessages(c *gin.Context) {
	senderID, err1 := strconv.ParseUint(c.Param("senderId"), 10, 64)
	receiverID, err2 := strconv.ParseUint(c.Param("receiverId"), 10, 64)
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}

	caller := principal(c)
	if caller != uint(senderID) && caller != uint(receiverID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a participant"})
		return
	}

	messages, err := h.Storage.GetConversation(uint(senderID), uint(receiverID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, messages)
}
