package video

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Room is the vendor-issued descriptor attached to a session. Expiry is
// advisory; the session store does not enforce it.
type Room struct {
	RoomId    string    `json:"room_id"`
	JoinURL   string    `json:"join_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RoomProvisioner attaches a video room to a session. Implementations must
// be idempotent per session: provisioning a session that already has a room
// returns the existing descriptor.
type RoomProvisioner interface {
	Provision(ctx context.Context, sessionId string) (Room, error)
}

// VendorClient provisions rooms against the conferencing vendor's HTTP API.
// Rooms are named deterministically from the session id so repeated calls
// resolve to the same vendor-side room.
type VendorClient struct {
	log     *log.Logger
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewVendorClient(logger *log.Logger, baseURL, apiKey string) *VendorClient {
	return &VendorClient{
		log:     logger,
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type provisionRequest struct {
	Name string `json:"name"`
}

func (c *VendorClient) Provision(ctx context.Context, sessionId string) (Room, error) {
	body, err := json.Marshal(provisionRequest{Name: roomName(sessionId)})
	if err != nil {
		return Room{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rooms", bytes.NewReader(body))
	if err != nil {
		return Room{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return Room{}, fmt.Errorf("provision room: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Room{}, fmt.Errorf("provision room: vendor returned %s", resp.Status)
	}

	var room Room
	if err := json.NewDecoder(resp.Body).Decode(&room); err != nil {
		return Room{}, fmt.Errorf("decode room descriptor: %w", err)
	}

	return room, nil
}

func roomName(sessionId string) string {
	return "counsel-" + sessionId
}
