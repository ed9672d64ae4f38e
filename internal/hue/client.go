package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/lull-app/lull/internal/models"
)

// ErrNotConnected is returned by operations that require stored bridge
// credentials before any exist.
var ErrNotConnected = errors.New("hue bridge not connected")

// BridgeError is a vendor-reported error from the bridge's V1 API. The
// bridge signals these in the response body, not the HTTP status.
type BridgeError struct {
	Type        int
	Description string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge error %d: %s", e.Type, e.Description)
}

// Bridge is a client for a Philips Hue bridge's V1 REST API. Authentication
// is a bridge-issued username embedded in the request path.
type Bridge struct {
	host     string
	username string
	client   *http.Client
}

// NewBridge creates a new bridge client
func NewBridge(host, username string) *Bridge {
	return &Bridge{
		host:     host,
		username: username,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Host returns the bridge host
func (b *Bridge) Host() string {
	return b.host
}

// Username returns the bridge-issued API key
func (b *Bridge) Username() string {
	return b.username
}

// Request performs a single API request against the bridge and returns the
// parsed JSON body. There is no retry. The path is relative to
// /api/<username>; vendor errors ride inside the body, so callers that need
// them must run the result through CheckResponse.
func (b *Bridge) Request(ctx context.Context, method, path string, body any) (raw json.RawMessage, err error) {
	url := fmt.Sprintf("http://%s/api/%s%s", b.host, b.username, path)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bridge request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bridge response: %w", err)
	}

	return json.RawMessage(data), nil
}

// v1Result is one element of the array the bridge returns for command-style
// calls.
type v1Result struct {
	Success json.RawMessage `json:"success,omitempty"`
	Error   *struct {
		Type        int    `json:"type"`
		Address     string `json:"address"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// CheckResponse scans a V1 command response for a vendor error object and
// converts the first one found into a *BridgeError. Non-array bodies are
// left alone: resource GETs return plain objects.
func CheckResponse(raw json.RawMessage) error {
	var results []v1Result
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil
	}
	for _, r := range results {
		if r.Error != nil {
			return &BridgeError{Type: r.Error.Type, Description: r.Error.Description}
		}
	}
	return nil
}

// GetLights retrieves all lights from the bridge, keyed by light ID. The
// vendor objects are returned verbatim.
func (b *Bridge) GetLights(ctx context.Context) (map[string]models.Light, error) {
	raw, err := b.Request(ctx, "GET", "/lights", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get lights: %w", err)
	}
	if err := CheckResponse(raw); err != nil {
		return nil, err
	}

	var lights map[string]models.Light
	if err := json.Unmarshal(raw, &lights); err != nil {
		return nil, fmt.Errorf("failed to parse lights: %w", err)
	}
	return lights, nil
}

// GetGroups retrieves all groups/rooms from the bridge, keyed by group ID.
func (b *Bridge) GetGroups(ctx context.Context) (map[string]models.Group, error) {
	raw, err := b.Request(ctx, "GET", "/groups", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}
	if err := CheckResponse(raw); err != nil {
		return nil, err
	}

	var groups map[string]models.Group
	if err := json.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("failed to parse groups: %w", err)
	}
	return groups, nil
}

// SetLightState sends a state command to one light.
func (b *Bridge) SetLightState(ctx context.Context, lightID string, state models.LightState) error {
	raw, err := b.Request(ctx, "PUT", fmt.Sprintf("/lights/%s/state", lightID), state)
	if err != nil {
		return fmt.Errorf("failed to set light %s state: %w", lightID, err)
	}
	return CheckResponse(raw)
}

// SetGroupAction sends a state command to every light in a group. Group "0"
// is the bridge's reserved "all lights" group.
func (b *Bridge) SetGroupAction(ctx context.Context, groupID string, state models.LightState) error {
	raw, err := b.Request(ctx, "PUT", fmt.Sprintf("/groups/%s/action", groupID), state)
	if err != nil {
		return fmt.Errorf("failed to set group %s action: %w", groupID, err)
	}
	return CheckResponse(raw)
}
