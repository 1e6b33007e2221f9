package api

import (
	"net/http"

	"line-gateway/internal/line"
	"line-gateway/internal/logging"
	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// multicastBatchSize is the LINE multicast API recipient limit per call
const multicastBatchSize = 500

type MessageHandler struct {
	Client  *line.Client
	Friends store.FriendStore
	logger  zerolog.Logger
}

func NewMessageHandler(client *line.Client, friends store.FriendStore) *MessageHandler {
	return &MessageHandler{
		Client:  client,
		Friends: friends,
		logger:  logging.GetLogger("messages"),
	}
}

type sendRequest struct {
	To      string `json:"to" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// SendMessage pushes a single text message to one user
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Client.Send(req.To, req.Content); err != nil {
		h.logger.Error().Err(err).Str("to", req.To).Msg("Failed to send message")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message sent successfully"})
}

type broadcastRequest struct {
	Content string   `json:"content" binding:"required"`
	Tags    []string `json:"tags,omitempty"`
}

// Broadcast multicasts a text message to all friends, or to friends
// carrying any of the given tags
func (h *MessageHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	friends, err := h.Friends.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list recipients"})
		return
	}

	recipients := make([]string, 0, len(friends))
	for _, f := range friends {
		if matchesAnyTag(f, req.Tags) {
			recipients = append(recipients, f.ID)
		}
	}
	if len(recipients) == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "No matching recipients", "sent": 0})
		return
	}

	sent := 0
	for start := 0; start < len(recipients); start += multicastBatchSize {
		end := start + multicastBatchSize
		if end > len(recipients) {
			end = len(recipients)
		}
		batch := recipients[start:end]
		if err := h.Client.Multicast(batch, req.Content); err != nil {
			h.logger.Error().Err(err).Int("batch_size", len(batch)).Msg("Multicast batch failed")
			continue
		}
		sent += len(batch)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Broadcast dispatched", "sent": sent})
}

func matchesAnyTag(profile *models.UserProfile, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if profile.HasTag(tag) {
			return true
		}
	}
	return false
}
