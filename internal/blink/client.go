package blink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lull-app/lull/internal/config"
	"github.com/lull-app/lull/internal/models"
)

// ErrNotLoggedIn is returned by operations that need a confirmed session.
var ErrNotLoggedIn = errors.New("not logged in to blink")

const (
	defaultLoginURL = "https://rest-prod.immedia-semi.com/api/v5/account/login"
	defaultTier     = "prod"

	// thumbnailRenderWait gives the vendor time to render a freshly
	// requested thumbnail server-side. The API offers nothing to poll.
	thumbnailRenderWait = 3 * time.Second
)

func defaultRestBase(tier string) string {
	if tier == "" {
		tier = defaultTier
	}
	return "https://rest-" + tier + ".immedia-semi.com"
}

// Client is the Blink integration facade. Confirmed and pending credentials
// live in the settings file; the active session is mirrored into the shared
// Store so the media fetcher can use it.
type Client struct {
	settings *config.Settings
	store    *Store
	client   *http.Client
	logger   *zap.Logger

	// thumbnailWait is thumbnailRenderWait unless a test shortens it
	thumbnailWait time.Duration

	// loginURL and restBase exist so tests can point at a mock vendor
	loginURL string
	restBase func(tier string) string
}

// NewClient builds the facade. A saved session from settings is pushed into
// the store immediately so media fetches work across restarts.
func NewClient(settings *config.Settings, store *Store, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		settings:      settings,
		store:         store,
		client:        &http.Client{Timeout: 15 * time.Second},
		logger:        logger,
		thumbnailWait: thumbnailRenderWait,
		loginURL:      defaultLoginURL,
		restBase:      defaultRestBase,
	}

	if s := settings.Blink.Session; s != nil {
		store.Set(Credentials{
			Token:      s.Token,
			AccountID:  s.AccountID,
			Tier:       s.Tier,
			HeaderMode: HeaderMode(s.HeaderMode),
		})
	}

	return c
}

// LoggedIn reports whether a confirmed session exists.
func (c *Client) LoggedIn() bool {
	return c.settings.Blink.Session != nil
}

// PendingVerification reports whether a login is waiting on a 2FA pin.
func (c *Client) PendingVerification() bool {
	return c.settings.Blink.Pending != nil
}

// LoginResult is returned by Login. Failures are results, not errors:
// network problems become a generic message so raw transport errors never
// reach the caller.
type LoginResult struct {
	Success     bool
	Requires2FA bool
	Message     string
	AccountID   string
}

const (
	msgNetworkError   = "Network error. Please try again."
	msgLoginFailed    = "Login failed. Please check your credentials."
	msgLoginOK        = "Login successful!"
	msgSessionExpired = "Session expired. Please login again."
	msgVerifyOK       = "Verification successful!"
	msgVerifyFailed   = "Invalid verification code. Please try again."
	msgVerifyError    = "Verification failed. Please try again."
)

type loginResponse struct {
	Account *struct {
		AccountID int    `json:"account_id"`
		ClientID  int    `json:"client_id"`
		Tier      string `json:"tier"`
	} `json:"account"`
	Auth *struct {
		Token string `json:"token"`
	} `json:"auth"`
	// Presence of the verification object means 2FA is required.
	Verification json.RawMessage `json:"verification"`
	AuthToken    *struct {
		AuthToken string `json:"authtoken"`
	} `json:"authtoken"`
	Phone *struct {
		Last4 string `json:"last_4_digits"`
	} `json:"phone"`
	Message string `json:"message"`
}

// Login posts credentials to the vendor. Three outcomes: immediate success,
// 2FA required (pending credentials stashed for Verify2FA), or failure with
// a vendor or generic message.
func (c *Client) Login(ctx context.Context, email, password string) LoginResult {
	body := map[string]string{
		"email":     email,
		"password":  password,
		"unique_id": fmt.Sprintf("lull-%d", time.Now().UnixMilli()),
	}

	var resp loginResponse
	if err := c.postJSON(ctx, c.loginURL, nil, body, &resp); err != nil {
		c.logger.Warn("blink login request failed", zap.Error(err))
		return LoginResult{Success: false, Message: msgNetworkError}
	}

	// 2FA branch: account plus a verification object.
	if resp.Account != nil && len(resp.Verification) > 0 {
		accountID := strconv.Itoa(resp.Account.AccountID)
		tier := resp.Account.Tier
		if tier == "" {
			tier = defaultTier
		}
		var pendingToken string
		if resp.Auth != nil {
			pendingToken = resp.Auth.Token
		}

		c.settings.Blink.Pending = &config.BlinkPending{
			AccountID: accountID,
			ClientID:  strconv.Itoa(resp.Account.ClientID),
			Token:     pendingToken,
			Tier:      tier,
		}
		if err := c.settings.Save(); err != nil {
			c.logger.Warn("failed to persist pending blink login", zap.Error(err))
		}

		last4 := "****"
		if resp.Phone != nil && resp.Phone.Last4 != "" {
			last4 = resp.Phone.Last4
		}

		c.logger.Info("blink login requires 2FA", zap.String("account", accountID))
		return LoginResult{
			Success:     false,
			Requires2FA: true,
			Message:     fmt.Sprintf("Verification code sent to your phone ending in %s. Please check your messages.", last4),
			AccountID:   accountID,
		}
	}

	// Immediate success branch.
	if resp.AuthToken != nil && resp.Account != nil {
		tier := resp.Account.Tier
		if tier == "" {
			tier = defaultTier
		}
		c.confirmSession(config.BlinkSession{
			Token:     resp.AuthToken.AuthToken,
			AccountID: strconv.Itoa(resp.Account.AccountID),
			Tier:      tier,
		})
		c.logger.Info("blink login successful")
		return LoginResult{Success: true, Message: msgLoginOK}
	}

	message := resp.Message
	if message == "" {
		message = msgLoginFailed
	}
	return LoginResult{Success: false, Message: message}
}

// VerifyResult is returned by Verify2FA.
type VerifyResult struct {
	Success bool
	Message string
}

type verifyResponse struct {
	// The vendor signals success inconsistently; any one of these three
	// markers counts. Pointers distinguish absent from false.
	Valid         *bool  `json:"valid"`
	RequireNewPin *bool  `json:"require_new_pin"`
	Code          int    `json:"code"`
	Message       string `json:"message"`
}

func (r *verifyResponse) succeeded() bool {
	switch {
	case r.Valid != nil && *r.Valid:
		return true
	case r.RequireNewPin != nil && !*r.RequireNewPin:
		return true
	case r.Code == http.StatusOK:
		return true
	}
	return false
}

// Verify2FA posts the pin to the tier-specific verification endpoint. On
// success the pending token is promoted to the confirmed session.
func (c *Client) Verify2FA(ctx context.Context, accountID, pin string) VerifyResult {
	pending := c.settings.Blink.Pending
	if pending == nil || pending.Token == "" || pending.ClientID == "" {
		return VerifyResult{Success: false, Message: msgSessionExpired}
	}

	verifyURL := fmt.Sprintf("%s/api/v4/account/%s/client/%s/pin/verify",
		c.restBase(pending.Tier), accountID, pending.ClientID)

	headers := http.Header{}
	headers["TOKEN-AUTH"] = []string{pending.Token}

	var resp verifyResponse
	if err := c.postJSON(ctx, verifyURL, headers, map[string]string{"pin": pin}, &resp); err != nil {
		c.logger.Warn("blink 2FA request failed", zap.Error(err))
		return VerifyResult{Success: false, Message: msgVerifyError}
	}

	if !resp.succeeded() {
		message := resp.Message
		if message == "" {
			message = msgVerifyFailed
		}
		return VerifyResult{Success: false, Message: message}
	}

	c.confirmSession(config.BlinkSession{
		Token:     pending.Token,
		AccountID: accountID,
		Tier:      pending.Tier,
	})
	c.logger.Info("blink 2FA verification successful")
	return VerifyResult{Success: true, Message: msgVerifyOK}
}

// confirmSession persists a confirmed session, clears any pending login and
// pushes the credentials into the shared store.
func (c *Client) confirmSession(session config.BlinkSession) {
	if session.HeaderMode == "" {
		session.HeaderMode = string(HeaderModeBearer)
	}
	c.settings.Blink.Session = &session
	c.settings.Blink.Pending = nil
	if err := c.settings.Save(); err != nil {
		c.logger.Warn("failed to persist blink session", zap.Error(err))
	}

	c.store.Set(Credentials{
		Token:      session.Token,
		AccountID:  session.AccountID,
		Tier:       session.Tier,
		HeaderMode: HeaderMode(session.HeaderMode),
	})
}

// Logout clears confirmed and pending credentials from settings and the
// shared store together.
func (c *Client) Logout() error {
	c.settings.Blink.Session = nil
	c.settings.Blink.Pending = nil
	c.store.Clear()
	c.logger.Info("logged out of blink")
	return c.settings.Save()
}

// Network is a Blink sync-module network.
type Network struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Armed bool   `json:"armed"`
}

// GetNetworks lists the account's networks.
func (c *Client) GetNetworks(ctx context.Context) ([]Network, error) {
	session := c.settings.Blink.Session
	if session == nil {
		return nil, ErrNotLoggedIn
	}

	u := fmt.Sprintf("%s/api/v3/accounts/%s/networks", c.restBase(session.Tier), session.AccountID)
	var resp struct {
		Networks []Network `json:"networks"`
	}
	if err := c.getJSON(ctx, u, session, &resp); err != nil {
		return nil, fmt.Errorf("failed to get networks: %w", err)
	}
	return resp.Networks, nil
}

type homescreenDevice struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	NetworkID int    `json:"network_id"`
	Enabled   bool   `json:"enabled"`
	Thumbnail string `json:"thumbnail"`
}

type homescreenResponse struct {
	Owls      []homescreenDevice `json:"owls"`
	Cameras   []homescreenDevice `json:"cameras"`
	Doorbells []homescreenDevice `json:"doorbells"`
}

// GetCameras calls the homescreen endpoint and flattens its three device
// arrays into one list, tagged by source type. The list is cached in
// settings so thumbnail paths resolve later without re-querying.
func (c *Client) GetCameras(ctx context.Context) ([]models.Camera, error) {
	session := c.settings.Blink.Session
	if session == nil {
		return nil, ErrNotLoggedIn
	}

	u := fmt.Sprintf("%s/api/v3/accounts/%s/homescreen", c.restBase(session.Tier), session.AccountID)
	var resp homescreenResponse
	if err := c.getJSON(ctx, u, session, &resp); err != nil {
		return nil, fmt.Errorf("failed to get homescreen: %w", err)
	}

	var cameras []models.Camera
	appendDevices := func(devices []homescreenDevice, typ models.CameraType) {
		for _, d := range devices {
			cameras = append(cameras, models.Camera{
				ID:        d.ID,
				NetworkID: d.NetworkID,
				Name:      d.Name,
				Type:      typ,
				Enabled:   d.Enabled,
				Thumbnail: d.Thumbnail,
			})
		}
	}
	appendDevices(resp.Owls, models.CameraTypeOwl)
	appendDevices(resp.Cameras, models.CameraTypeCamera)
	appendDevices(resp.Doorbells, models.CameraTypeDoorbell)

	c.settings.Blink.Cameras = cameras
	if err := c.settings.Save(); err != nil {
		c.logger.Warn("failed to cache camera list", zap.Error(err))
	}

	c.logger.Debug("cameras listed", zap.Int("count", len(cameras)))
	return cameras, nil
}

// RequestThumbnail asks the vendor to render a fresh thumbnail for the
// camera, waits for the render, and returns a cache-busted URL for it.
func (c *Client) RequestThumbnail(ctx context.Context, networkID, cameraID int) (string, error) {
	session := c.settings.Blink.Session
	if session == nil {
		return "", ErrNotLoggedIn
	}

	u := fmt.Sprintf("%s/api/v1/accounts/%s/networks/%d/cameras/%d/thumbnail",
		c.restBase(session.Tier), session.AccountID, networkID, cameraID)

	var resp struct {
		Thumbnail string `json:"thumbnail"`
	}
	if err := c.postJSON(ctx, u, c.apiHeaders(session), nil, &resp); err != nil {
		return "", fmt.Errorf("failed to request thumbnail: %w", err)
	}

	// The vendor renders the image server-side and offers nothing to poll.
	select {
	case <-time.After(c.thumbnailWait):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	path := resp.Thumbnail
	if path == "" {
		path = c.fallbackThumbnailPath(session.AccountID, networkID, cameraID)
	}
	return c.thumbnailURL(session.Tier, path)
}

// LatestThumbnailURL resolves a thumbnail URL from the cached camera list
// without touching the network. Falls back to the constructed path when the
// camera is not cached.
func (c *Client) LatestThumbnailURL(networkID, cameraID int) (string, error) {
	session := c.settings.Blink.Session
	if session == nil {
		return "", ErrNotLoggedIn
	}

	path := c.fallbackThumbnailPath(session.AccountID, networkID, cameraID)
	for _, cam := range c.settings.Blink.Cameras {
		if cam.ID == cameraID && cam.Thumbnail != "" {
			path = cam.Thumbnail
			break
		}
	}
	return c.thumbnailURL(session.Tier, path)
}

func (c *Client) fallbackThumbnailPath(accountID string, networkID, cameraID int) string {
	// Constructed pattern; may not work for every camera type, which is why
	// the cached homescreen path is preferred.
	return fmt.Sprintf("/api/v2/accounts/%s/networks/%d/cameras/%d/thumbnail/thumbnail.jpg",
		accountID, networkID, cameraID)
}

// thumbnailURL resolves path against the tier's rest host and appends a
// cache-busting timestamp so CDN caches never serve a stale frame.
func (c *Client) thumbnailURL(tier, path string) (string, error) {
	base, err := url.Parse(c.restBase(tier))
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	u := base.ResolveReference(ref)
	q := u.Query()
	q.Set("ts", strconv.FormatInt(time.Now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// apiHeaders builds the standard authenticated request headers.
func (c *Client) apiHeaders(session *config.BlinkSession) http.Header {
	h := http.Header{}
	h["TOKEN-AUTH"] = []string{session.Token}
	h.Set("account-id", session.AccountID)
	h.Set("Accept", "application/json")
	h.Set("User-Agent", userAgent)
	return h
}

// postJSON issues a POST with an optional JSON body and decodes the JSON
// response into out.
func (c *Client) postJSON(ctx context.Context, u string, headers http.Header, body any, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", u, reader)
	if err != nil {
		return err
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("Content-Type", "application/json")
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}

	return c.do(req, out)
}

// getJSON issues an authenticated GET and decodes the JSON response.
func (c *Client) getJSON(ctx context.Context, u string, session *config.BlinkSession, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return err
	}
	for k, v := range c.apiHeaders(session) {
		req.Header[k] = v
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
