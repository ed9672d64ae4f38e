package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrLinkButtonNotPressed means the bridge refused to create a user because
// its physical link button was not pressed within the prior ~30 seconds.
// That press is an out-of-band precondition this code cannot verify.
var ErrLinkButtonNotPressed = errors.New("link button not pressed")

const linkButtonErrorType = 101

// pairingRequest is the body sent to create an API username
type pairingRequest struct {
	DeviceType string `json:"devicetype"`
}

// pairingResponse represents one element of the pairing endpoint's response
type pairingResponse struct {
	Success *struct {
		Username string `json:"username"`
	} `json:"success,omitempty"`
	Error *struct {
		Type        int    `json:"type"`
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// Pair posts a single create-user request to the bridge and returns the
// issued username. The caller persists it; the bridge keeps it valid
// indefinitely. On vendor error type 101 the result is
// ErrLinkButtonNotPressed so the caller can tell the user to press the
// button and try again.
func Pair(ctx context.Context, host, deviceType string) (username string, err error) {
	client := &http.Client{Timeout: 10 * time.Second}

	body, err := json.Marshal(pairingRequest{DeviceType: deviceType})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("http://%s/api", host)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pairing request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	var responses []pairingResponse
	if err := json.NewDecoder(resp.Body).Decode(&responses); err != nil {
		return "", fmt.Errorf("failed to decode pairing response: %w", err)
	}

	if len(responses) == 0 {
		return "", fmt.Errorf("empty pairing response from bridge")
	}

	response := responses[0]

	if response.Error != nil {
		if response.Error.Type == linkButtonErrorType {
			return "", ErrLinkButtonNotPressed
		}
		return "", &BridgeError{Type: response.Error.Type, Description: response.Error.Description}
	}

	if response.Success != nil {
		return response.Success.Username, nil
	}

	return "", fmt.Errorf("pairing response had neither success nor error")
}
