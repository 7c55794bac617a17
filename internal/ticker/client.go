package ticker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API defines the server operations the sync engine depends on. It is
// implemented by *Client and can be substituted in tests.
type API interface {
	FetchState(ctx context.Context, deviceID string) (Settings, []FeedItem, error)
	FetchCategories(ctx context.Context) ([]Category, error)
	FetchTeams(ctx context.Context) (map[string][]TeamEntry, error)
	FetchDevices(ctx context.Context) ([]Device, error)
	FetchServerLog(ctx context.Context) (string, error)
	PushSettings(ctx context.Context, deviceID string, settings Settings) error
	PushDeviceSettings(ctx context.Context, deviceID string, patch DevicePatch) error
	PairByCode(ctx context.Context, code, name string) (PairResult, error)
	PairByID(ctx context.Context, id, name string) (PairResult, error)
	Unpair(ctx context.Context, deviceID string) error
	SendDebug(ctx context.Context, debugMode bool, customDate string) error
	Reboot(ctx context.Context, deviceID string) error
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// Client talks to the ticker server's HTTP API. The client identity is
// sent as an X-Client-ID header on every authenticated request.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	clientID  string
}

const (
	defaultUserAgent = "tickerctl/0.1"
	requestTimeout   = 8 * time.Second
	clientIDHeader   = "X-Client-ID"
)

// NewClient builds a Client for the given server base URL.
func NewClient(serverURL, clientID string) (*Client, error) {
	base, err := parseBaseURL(serverURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
		clientID:  clientID,
	}, nil
}

// FetchState retrieves the current settings snapshot and feed items,
// optionally scoped to one device.
func (c *Client) FetchState(ctx context.Context, deviceID string) (Settings, []FeedItem, error) {
	if c == nil {
		return DefaultSettings(), nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/state"}
	if deviceID != "" {
		rel.RawQuery = url.Values{"id": {deviceID}}.Encode()
	}
	body, err := c.get(ctx, rel)
	if err != nil {
		return DefaultSettings(), nil, err
	}
	return DecodeState(body)
}

// FetchCategories retrieves the league/category directory.
func (c *Client) FetchCategories(ctx context.Context) ([]Category, error) {
	var payload []Category
	if err := c.getJSON(ctx, "/leagues", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchTeams retrieves the team directory keyed by category id.
func (c *Client) FetchTeams(ctx context.Context) (map[string][]TeamEntry, error) {
	var payload map[string][]TeamEntry
	if err := c.getJSON(ctx, "/api/teams", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchDevices retrieves the devices paired to this client identity.
// The result is always the full roster; callers replace, never merge.
func (c *Client) FetchDevices(ctx context.Context) ([]Device, error) {
	var payload []Device
	if err := c.getJSON(ctx, "/tickers", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchServerLog retrieves the server's recent log tail. The endpoint
// wraps the raw log text in an HTML shell; see the logtail package for
// extraction.
func (c *Client) FetchServerLog(ctx context.Context) (string, error) {
	body, err := c.get(ctx, &url.URL{Path: "/errors"})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PushSettings writes the full settings object to the config endpoint.
// A forbidden response is reported as ErrForbidden so callers can run
// the pairing recovery path instead of retrying.
func (c *Client) PushSettings(ctx context.Context, deviceID string, settings Settings) error {
	rel := &url.URL{Path: "/api/config"}
	if deviceID != "" {
		rel.RawQuery = url.Values{"id": {deviceID}}.Encode()
	}
	settings.TargetDeviceID = deviceID
	return c.postJSON(ctx, rel, settings, nil)
}

// PushDeviceSettings writes only the changed per-device keys.
func (c *Client) PushDeviceSettings(ctx context.Context, deviceID string, patch DevicePatch) error {
	if strings.TrimSpace(deviceID) == "" {
		return fmt.Errorf("device id required")
	}
	rel := &url.URL{Path: "/ticker/" + url.PathEscape(deviceID)}
	return c.postJSON(ctx, rel, patch, nil)
}

// PairByCode claims a device using its short pairing code.
func (c *Client) PairByCode(ctx context.Context, code, name string) (PairResult, error) {
	body := map[string]string{"code": code, "name": name}
	var result PairResult
	if err := c.postJSON(ctx, &url.URL{Path: "/pair"}, body, &result); err != nil {
		return PairResult{}, err
	}
	return result, nil
}

// PairByID claims a device by its known stable id.
func (c *Client) PairByID(ctx context.Context, id, name string) (PairResult, error) {
	body := map[string]string{"id": id, "name": name}
	var result PairResult
	if err := c.postJSON(ctx, &url.URL{Path: "/pair/id"}, body, &result); err != nil {
		return PairResult{}, err
	}
	return result, nil
}

// Unpair releases a device from this client identity.
func (c *Client) Unpair(ctx context.Context, deviceID string) error {
	if strings.TrimSpace(deviceID) == "" {
		return fmt.Errorf("device id required")
	}
	rel := &url.URL{Path: "/ticker/" + url.PathEscape(deviceID) + "/unpair"}
	return c.postJSON(ctx, rel, struct{}{}, nil)
}

// SendDebug posts the debug toggle and optional simulated date.
// Fire-and-forget on the server side; no retry.
func (c *Client) SendDebug(ctx context.Context, debugMode bool, customDate string) error {
	body := map[string]any{"debug_mode": debugMode}
	if customDate != "" {
		body["custom_date"] = customDate
	} else {
		body["custom_date"] = nil
	}
	return c.postJSON(ctx, &url.URL{Path: "/api/debug"}, body, nil)
}

// Reboot asks the server to reboot the targeted device.
func (c *Client) Reboot(ctx context.Context, deviceID string) error {
	body := map[string]string{"action": "reboot"}
	if deviceID != "" {
		body["ticker_id"] = deviceID
	}
	return c.postJSON(ctx, &url.URL{Path: "/api/hardware"}, body, nil)
}

func (c *Client) get(ctx context.Context, rel *url.URL) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := c.checkStatus(rel, resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: path}
	body, err := c.get(ctx, rel)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &DecodeError{Endpoint: path, Err: err}
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, rel *url.URL, body, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, rel, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := c.checkStatus(rel, resp); err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return &DecodeError{Endpoint: rel.Path, Err: err}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, rel *url.URL, body io.Reader) (*http.Response, error) {
	reqURL := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.clientID != "" {
		req.Header.Set(clientIDHeader, c.clientID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func (c *Client) checkStatus(rel *url.URL, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("api %s: %w", rel.Path, ErrForbidden)
	case resp.StatusCode >= 400:
		return &StatusError{Endpoint: rel.String(), Code: resp.StatusCode}
	}
	return nil
}

func parseBaseURL(serverURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(serverURL)
	trimmed = strings.TrimRight(trimmed, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("server url is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server url %q: %w", serverURL, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
