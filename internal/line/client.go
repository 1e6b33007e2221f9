// Package line is a thin client for the LINE Messaging API.
package line

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"line-gateway/internal/config"
)

const apiBase = "https://api.line.me/v2/bot"

type Client struct {
	Config *config.Config
	http   *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		Config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
	}
}

// --- Message Structures ---

type TextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []TextMessage `json:"messages"`
}

type multicastRequest struct {
	To       []string      `json:"to"`
	Messages []TextMessage `json:"messages"`
}

// Profile is the LINE profile of a friend
type Profile struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	PictureURL  string `json:"pictureUrl,omitempty"`
}

// --- Helper Functions ---

func (c *Client) sendRequest(method, url string, body interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.Config.ChannelToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		return respBody, fmt.Errorf("LINE API error: %s - %s", resp.Status, string(respBody))
	}

	return respBody, nil
}

// --- Messaging Methods ---

// Send pushes a text message to a single user. Satisfies the engine's
// Gateway interface.
func (c *Client) Send(userID, content string) error {
	req := pushRequest{
		To:       userID,
		Messages: []TextMessage{{Type: "text", Text: content}},
	}
	_, err := c.sendRequest("POST", apiBase+"/message/push", req)
	return err
}

// Multicast pushes a text message to up to 500 users in one call
func (c *Client) Multicast(userIDs []string, content string) error {
	req := multicastRequest{
		To:       userIDs,
		Messages: []TextMessage{{Type: "text", Text: content}},
	}
	_, err := c.sendRequest("POST", apiBase+"/message/multicast", req)
	return err
}

// GetProfile fetches the display profile of a friend
func (c *Client) GetProfile(userID string) (*Profile, error) {
	resp, err := c.sendRequest("GET", apiBase+"/profile/"+userID, nil)
	if err != nil {
		return nil, err
	}
	var profile Profile
	if err := json.Unmarshal(resp, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
