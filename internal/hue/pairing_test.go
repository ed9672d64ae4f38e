package hue

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func pairingServer(t *testing.T, response string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestPairSuccess(t *testing.T) {
	host := pairingServer(t, `[{"success":{"username":"issued-key-123"}}]`)

	username, err := Pair(context.Background(), host, "lull#tui")
	if err != nil {
		t.Fatalf("Pair returned error: %v", err)
	}
	if username != "issued-key-123" {
		t.Errorf("Expected issued-key-123, got %q", username)
	}
}

func TestPairLinkButtonNotPressed(t *testing.T) {
	host := pairingServer(t, `[{"error":{"type":101,"address":"","description":"link button not pressed"}}]`)

	_, err := Pair(context.Background(), host, "lull#tui")
	if !errors.Is(err, ErrLinkButtonNotPressed) {
		t.Fatalf("Expected ErrLinkButtonNotPressed, got %v", err)
	}
}

func TestPairOtherBridgeError(t *testing.T) {
	host := pairingServer(t, `[{"error":{"type":7,"address":"","description":"invalid value"}}]`)

	_, err := Pair(context.Background(), host, "lull#tui")
	var bridgeErr *BridgeError
	if !errors.As(err, &bridgeErr) {
		t.Fatalf("Expected *BridgeError, got %v", err)
	}
	if bridgeErr.Description != "invalid value" {
		t.Errorf("Expected vendor description, got %q", bridgeErr.Description)
	}
}

func TestPairEmptyResponse(t *testing.T) {
	host := pairingServer(t, `[]`)

	_, err := Pair(context.Background(), host, "lull#tui")
	if err == nil {
		t.Fatal("Expected an error for empty pairing response")
	}
}
