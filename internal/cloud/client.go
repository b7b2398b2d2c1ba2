package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oasis-home/oasis-control/internal/catalog"
	"github.com/oasis-home/oasis-control/internal/device"
	"github.com/oasis-home/oasis-control/internal/infrastructure/config"
)

// Cache keys for metadata with independent TTLs.
const (
	cacheKeyPlaylistsAll      = "playlists-all"
	cacheKeyPlaylistsPersonal = "playlists-personal"
	cacheKeySoftware          = "software"
)

// defaultTimeout bounds a cloud request when no client is supplied.
const defaultTimeout = 30 * time.Second

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client talks to the Oasis cloud API.
//
// The zero value is not usable; create with NewClient. All methods are
// safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	owned   bool

	mu    sync.RWMutex
	token string

	cache       *Cache
	playlistTTL time.Duration
	softwareTTL time.Duration

	logger Logger
}

// Client resolves track metadata for devices and feeds catalog refreshes.
var (
	_ device.TrackFetcher = (*Client)(nil)
	_ catalog.TrackSource = (*Client)(nil)
)

// NewClient creates a cloud client from the daemon configuration. When
// httpClient is nil an owned client with a default timeout is created and
// torn down on Close; a supplied client is left untouched.
func NewClient(cfg config.CloudConfig, httpClient *http.Client) *Client {
	owned := false
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
		owned = true
	}
	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		http:        httpClient,
		owned:       owned,
		token:       cfg.AccessToken,
		cache:       NewCache(),
		playlistTTL: cfg.TTLPlaylists(),
		softwareTTL: cfg.TTLSoftware(),
		logger:      noopLogger{},
	}
}

// SetLogger sets a logger for request tracing.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Close releases connection resources if the client owns them.
func (c *Client) Close() {
	if c.owned {
		c.http.CloseIdleConnections()
	}
}

// AccessToken returns the current bearer token, or "" if logged out.
func (c *Client) AccessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetAccessToken installs a previously issued bearer token.
func (c *Client) SetAccessToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// ===== Authentication =====

// Login authenticates with email and password and stores the issued
// access token for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) error {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}

	var resp loginResponse
	if err := c.request(ctx, http.MethodPost, "/api/auth/login", nil, bytes.NewReader(body), false, &resp); err != nil {
		return err
	}
	if resp.AccessToken == "" {
		return fmt.Errorf("%w: login returned no token", ErrUnauthenticated)
	}

	c.SetAccessToken(resp.AccessToken)
	c.logger.Debug("cloud login succeeded")
	return nil
}

// Logout invalidates the token server-side and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	err := c.request(ctx, http.MethodGet, "/api/auth/logout", nil, nil, true, nil)
	c.SetAccessToken("")
	return err
}

// tokenUsable reports whether a token is present and, when it parses as a
// JWT, not yet expired. Checking locally avoids a round-trip that is
// guaranteed to 401. An opaque token is assumed usable.
func (c *Client) tokenUsable() bool {
	token := c.AccessToken()
	if token == "" {
		return false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return time.Now().Before(exp.Time)
}

// ===== Account =====

// User returns the authenticated account details.
func (c *Client) User(ctx context.Context) (User, error) {
	var user User
	err := c.request(ctx, http.MethodGet, "/api/auth/user", nil, nil, true, &user)
	return user, err
}

// Devices returns the account's registered devices.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	err := c.request(ctx, http.MethodGet, "/api/user/devices", nil, nil, true, &devices)
	return devices, err
}

// ===== Track metadata =====

// trackPage is one page of the paginated track listing.
type trackPage struct {
	Data        []catalog.Track `json:"data"`
	NextPageURL string          `json:"next_page_url"`
}

// TrackInfo returns metadata for a single track. A 404 resolves to a
// placeholder record; missing tracks are expected, not exceptional.
func (c *Client) TrackInfo(ctx context.Context, id int) (catalog.Track, error) {
	var track catalog.Track
	err := c.request(ctx, http.MethodGet, "/api/track/"+strconv.Itoa(id), nil, nil, true, &track)
	if err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) && httpErr.code == http.StatusNotFound {
			return catalog.Placeholder(id), nil
		}
		return catalog.Track{}, err
	}
	return track, nil
}

// Tracks returns metadata for the given track ids, following the API's
// pagination. An empty ids slice returns the full public catalog.
func (c *Client) Tracks(ctx context.Context, ids []int) ([]catalog.Track, error) {
	params := url.Values{}
	for _, id := range ids {
		params.Add("ids[]", strconv.Itoa(id))
	}

	var page trackPage
	if err := c.request(ctx, http.MethodGet, "/api/track", params, nil, true, &page); err != nil {
		return nil, err
	}

	tracks := page.Data
	for page.NextPageURL != "" {
		next := page.NextPageURL
		page = trackPage{}
		if err := c.requestURL(ctx, http.MethodGet, next, nil, true, &page); err != nil {
			return nil, err
		}
		tracks = append(tracks, page.Data...)
	}
	return tracks, nil
}

// ===== Cached metadata =====

// Playlists returns the cloud playlists, cached per personalOnly flag.
func (c *Client) Playlists(ctx context.Context, personalOnly bool) ([]Playlist, error) {
	key := cacheKeyPlaylistsAll
	if personalOnly {
		key = cacheKeyPlaylistsPersonal
	}

	value, err := c.cache.Get(ctx, key, c.playlistTTL, func(ctx context.Context) (any, error) {
		params := url.Values{"my_playlists": {strconv.FormatBool(personalOnly)}}
		var playlists []Playlist
		if err := c.request(ctx, http.MethodGet, "/api/playlist", params, nil, true, &playlists); err != nil {
			return nil, err
		}
		return playlists, nil
	})
	if err != nil {
		return nil, err
	}
	playlists, _ := value.([]Playlist)
	return playlists, nil
}

// TrackIDs returns the union of track ids across the public playlists,
// sorted ascending. It feeds the catalog refresh.
func (c *Client) TrackIDs(ctx context.Context) ([]int, error) {
	playlists, err := c.Playlists(ctx, false)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]struct{})
	var ids []int
	for _, p := range playlists {
		for _, id := range p.Tracks {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

// LatestSoftware returns the newest published firmware metadata, cached.
func (c *Client) LatestSoftware(ctx context.Context) (Software, error) {
	value, err := c.cache.Get(ctx, cacheKeySoftware, c.softwareTTL, func(ctx context.Context) (any, error) {
		var software Software
		if err := c.request(ctx, http.MethodGet, "/api/software/last-version", nil, nil, true, &software); err != nil {
			return nil, err
		}
		return software, nil
	})
	if err != nil {
		return Software{}, err
	}
	software, _ := value.(Software)
	return software, nil
}

// ===== Request plumbing =====

// statusError carries a non-200 response code for errors.As checks.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.code)
}

// request issues one API call against a path relative to the base URL.
func (c *Client) request(ctx context.Context, method, path string, params url.Values, body io.Reader, auth bool, out any) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	return c.requestURL(ctx, method, reqURL, body, auth, out)
}

// requestURL issues one API call against an absolute URL. Pagination
// links come back absolute, so this is the shared lower half.
func (c *Client) requestURL(ctx context.Context, method, reqURL string, body io.Reader, auth bool, out any) error {
	if auth && !c.tokenUsable() {
		return ErrUnauthenticated
	}

	c.logger.Debug("cloud request", "method", method, "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("building cloud request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.AccessToken())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloud request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthenticated
	default:
		return fmt.Errorf("%w: %w", ErrRequestFailed, &statusError{code: resp.StatusCode})
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding cloud response: %w", err)
	}
	return nil
}
