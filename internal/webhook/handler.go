// Package webhook receives LINE platform events and feeds them to the engine.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"

	"line-gateway/internal/config"
	"line-gateway/internal/line"
	"line-gateway/internal/logging"
	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Submitter is the engine's intake surface
type Submitter interface {
	Submit(event models.InboundEvent, user models.UserProfile)
}

// ProfileFetcher resolves display names for first-seen friends
type ProfileFetcher interface {
	GetProfile(userID string) (*line.Profile, error)
}

type Handler struct {
	Config   *config.Config
	Engine   Submitter
	Friends  store.FriendStore
	Profiles ProfileFetcher
	logger   zerolog.Logger
}

func NewHandler(cfg *config.Config, engine Submitter, friends store.FriendStore, profiles ProfileFetcher) *Handler {
	return &Handler{
		Config:   cfg,
		Engine:   engine,
		Friends:  friends,
		Profiles: profiles,
		logger:   logging.GetLogger("webhook"),
	}
}

// HandleEvents is the LINE webhook endpoint. Invalid signatures get 403,
// malformed bodies 400; everything past parsing is absorbed by the engine's
// error model, so the platform always sees 200 for accepted deliveries.
func (h *Handler) HandleEvents(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	if !h.validSignature(body, c.GetHeader("X-Line-Signature")) {
		h.logger.Warn().Msg("Webhook signature validation failed")
		c.Status(http.StatusForbidden)
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn().Err(err).Msg("Malformed webhook payload")
		c.Status(http.StatusBadRequest)
		return
	}

	for _, event := range payload.Events {
		h.handleEvent(event)
	}

	c.Status(http.StatusOK)
}

// validSignature checks the X-Line-Signature HMAC. An empty channel secret
// disables validation (local development).
func (h *Handler) validSignature(body []byte, signature string) bool {
	if h.Config.ChannelSecret == "" {
		return true
	}
	mac := hmac.New(sha256.New, []byte(h.Config.ChannelSecret))
	mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (h *Handler) handleEvent(event models.WebhookEvent) {
	if event.Source.UserID == "" {
		return
	}

	inbound, ok := toInboundEvent(event)
	if !ok {
		h.logger.Debug().Str("type", event.Type).Msg("Ignoring unsupported event type")
		return
	}

	profile := h.resolveFriend(event.Source.UserID)
	h.Engine.Submit(inbound, *profile)
}

func toInboundEvent(event models.WebhookEvent) (models.InboundEvent, bool) {
	switch event.Type {
	case "follow":
		return models.InboundEvent{Type: models.EventFollow}, true
	case "message":
		inbound := models.InboundEvent{Type: models.EventMessage}
		if event.Message != nil {
			inbound.Text = event.Message.Text
			inbound.MessageType = models.MessageType(event.Message.Type)
		}
		return inbound, true
	default:
		return models.InboundEvent{}, false
	}
}

// resolveFriend returns the stored profile, auto-registering first-seen
// friends with their LINE display name when it can be fetched.
func (h *Handler) resolveFriend(userID string) *models.UserProfile {
	profile, err := h.Friends.Get(userID)
	if err == nil {
		return profile
	}
	if !errors.Is(err, store.ErrFriendNotFound) {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Friend lookup failed")
	}

	profile = &models.UserProfile{ID: userID}
	if h.Profiles != nil {
		if lineProfile, err := h.Profiles.GetProfile(userID); err == nil {
			profile.Name = lineProfile.DisplayName
		}
	}
	if err := h.Friends.Upsert(profile); err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("Friend auto-save failed")
	}
	return profile
}
