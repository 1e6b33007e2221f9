package api

import (
	"bytes"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"

	"line-gateway/internal/logging"
	"line-gateway/internal/store"
	"line-gateway/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type UserHandler struct {
	Friends store.FriendStore
	logger  zerolog.Logger
}

func NewUserHandler(friends store.FriendStore) *UserHandler {
	return &UserHandler{
		Friends: friends,
		logger:  logging.GetLogger("users"),
	}
}

// GetUsers lists all known friends of the account
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.Friends.List()
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser registers or overwrites a friend profile
func (h *UserHandler) CreateUser(c *gin.Context) {
	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if profile.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "User id is required"})
		return
	}
	if err := h.Friends.Upsert(&profile); err != nil {
		h.logger.Error().Err(err).Str("user_id", profile.ID).Msg("Failed to save user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User saved successfully"})
}

// UpdateUser updates the profile, tags and groups of an existing friend
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.Friends.Get(id); err != nil {
		if errors.Is(err, store.ErrFriendNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		return
	}

	var profile models.UserProfile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile.ID = id
	if err := h.Friends.Upsert(&profile); err != nil {
		h.logger.Error().Err(err).Str("user_id", id).Msg("Failed to save user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
}

// DeleteUser removes a friend profile
func (h *UserHandler) DeleteUser(c *gin.Context) {
	if err := h.Friends.Delete(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrFriendNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// ExportUsers streams the friend list as a CSV download
func (h *UserHandler) ExportUsers(c *gin.Context) {
	users, err := h.Friends.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"id", "name", "tags", "groups"})
	for _, u := range users {
		_ = w.Write([]string{u.ID, u.Name, strings.Join(u.Tags, ";"), strings.Join(u.Groups, ";")})
	}
	w.Flush()

	c.Header("Content-Disposition", "attachment; filename=friends.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
