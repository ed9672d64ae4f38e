package hue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ErrNoBridge means neither discovery mechanism found a bridge on the
// network.
var ErrNoBridge = errors.New("no hue bridge found")

// discoverMDNS finds bridge IPs on the local network using mDNS.
func discoverMDNS(timeout time.Duration) ([]string, error) {
	entriesCh := make(chan *mdns.ServiceEntry, 10)
	done := make(chan []string, 1)

	go func() {
		var hosts []string
		for entry := range entriesCh {
			if entry.AddrV4 != nil {
				hosts = append(hosts, entry.AddrV4.String())
			}
		}
		done <- hosts
	}()

	params := mdns.DefaultParams("_hue._tcp")
	params.Entries = entriesCh
	params.Timeout = timeout
	params.DisableIPv6 = true

	err := mdns.Query(params)
	close(entriesCh)
	hosts := <-done

	if err != nil {
		return hosts, fmt.Errorf("mDNS query failed: %w", err)
	}
	return hosts, nil
}

// nupnpResponse represents one bridge from Hue cloud discovery
type nupnpResponse struct {
	ID                string `json:"id"`
	InternalIPAddress string `json:"internalipaddress"`
}

const nupnpURL = "https://discovery.meethue.com"

// discoverCloud finds bridge IPs using the vendor's cloud discovery (NUPNP).
func discoverCloud(ctx context.Context, timeout time.Duration) (hosts []string, err error) {
	client := &http.Client{Timeout: timeout}

	req, err := http.NewRequestWithContext(ctx, "GET", nupnpURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cloud discovery request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cloud discovery returned status %d", resp.StatusCode)
	}

	var results []nupnpResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	for _, r := range results {
		if strings.TrimSpace(r.InternalIPAddress) != "" {
			hosts = append(hosts, r.InternalIPAddress)
		}
	}
	return hosts, nil
}

// Discover runs mDNS and cloud discovery concurrently and returns the first
// bridge IP either finds. ErrNoBridge when both come back empty.
func Discover(ctx context.Context, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		hosts []string
		err   error
	}

	results := make(chan result, 2)

	go func() {
		hosts, err := discoverMDNS(timeout)
		results <- result{hosts: hosts, err: err}
	}()

	go func() {
		hosts, err := discoverCloud(ctx, timeout)
		results <- result{hosts: hosts, err: err}
	}()

	var lastErr error
	for received := 0; received < 2; received++ {
		select {
		case r := <-results:
			if r.err != nil {
				lastErr = r.err
			}
			if len(r.hosts) > 0 {
				return r.hosts[0], nil
			}
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if lastErr != nil {
		return "", lastErr
	}
	return "", ErrNoBridge
}
