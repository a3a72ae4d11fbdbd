package share

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/lox/wizardscore/internal/game"
	"golang.org/x/sync/errgroup"
)

// ErrNestedBundle is reported for a bundle that lists another bundle.
var ErrNestedBundle = errors.New("share: bundle contains a bundle")

// StatusError is a response the client did not expect.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("share server returned %d", e.Code)
	}
	return fmt.Sprintf("share server returned %d: %s", e.Code, e.Body)
}

// Client talks to a share server rooted at a base URL.
type Client struct {
	base        *url.URL
	http        *http.Client
	logger      *log.Logger
	concurrency int
	dialer      *websocket.Dialer
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

func WithClientLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithConcurrency bounds parallel fetches of bundle members.
func WithConcurrency(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// NewClient returns a client for baseURL.
func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid share url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid share url scheme %q", u.Scheme)
	}
	c := &Client{
		base:        u,
		http:        &http.Client{Timeout: 10 * time.Second},
		logger:      log.NewWithOptions(io.Discard, log.Options{}),
		concurrency: 4,
		dialer:      websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithPrefix("share")
	return c, nil
}

// Upload shares a finished game and returns its id.
func (c *Client) Upload(ctx context.Context, g *game.Game) (string, error) {
	doc, err := game.Encode(g)
	if err != nil {
		return "", fmt.Errorf("encode game: %w", err)
	}
	return c.create(ctx, url.Values{"game": {string(doc)}})
}

// UploadBundle groups already shared ids under one new id.
func (c *Client) UploadBundle(ctx context.Context, ids []string) (string, error) {
	doc, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encode bundle: %w", err)
	}
	return c.create(ctx, url.Values{"bundle": {string(doc)}})
}

func (c *Client) create(ctx context.Context, form url.Values) (string, error) {
	body, status, err := c.do(ctx, http.MethodPost, "", form)
	if err != nil {
		return "", err
	}
	if status/100 != 2 {
		return "", &StatusError{Code: status, Body: strings.TrimSpace(string(body))}
	}
	id := strings.TrimSpace(string(body))
	if id == "" {
		return "", fmt.Errorf("share server returned an empty id")
	}
	c.logger.Debug("Uploaded", "id", id)
	return id, nil
}

// Result is one GET: either a game or the ids of a bundle.
type Result struct {
	Game   *game.Game
	Bundle []string
}

// Fetch downloads id. A fetched game always carries id as its share id.
func (c *Client) Fetch(ctx context.Context, id string) (Result, error) {
	body, status, err := c.do(ctx, http.MethodGet, id, nil)
	if err != nil {
		return Result{}, err
	}
	switch status {
	case http.StatusOK:
		g, err := game.Decode(body)
		if err != nil {
			return Result{}, fmt.Errorf("shared game %s: %w", id, err)
		}
		g.SetID(id)
		return Result{Game: g}, nil
	case StatusBundle:
		var ids []string
		if err := json.Unmarshal(body, &ids); err != nil {
			return Result{}, fmt.Errorf("shared bundle %s: %w", id, err)
		}
		return Result{Bundle: ids}, nil
	default:
		return Result{}, &StatusError{Code: status, Body: strings.TrimSpace(string(body))}
	}
}

// FetchResult is everything FetchAll could resolve.
type FetchResult struct {
	Games  []*game.Game
	Failed int
}

// FetchAll downloads id and, for a bundle, every game it lists. Members that
// fail are counted and skipped. Only a failure of id itself is an error.
func (c *Client) FetchAll(ctx context.Context, id string) (FetchResult, error) {
	top, err := c.Fetch(ctx, id)
	if err != nil {
		return FetchResult{}, err
	}
	if top.Game != nil {
		return FetchResult{Games: []*game.Game{top.Game}}, nil
	}

	games := make([]*game.Game, len(top.Bundle))
	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, member := range top.Bundle {
		g.Go(func() error {
			res, err := c.Fetch(gctx, member)
			if err == nil && res.Game == nil {
				err = ErrNestedBundle
			}
			if err != nil {
				c.logger.Warn("Failed to fetch bundle member", "bundle", id, "id", member, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			games[i] = res.Game
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return FetchResult{}, err
	}

	out := FetchResult{Failed: failed}
	for _, gm := range games {
		if gm != nil {
			out.Games = append(out.Games, gm)
		}
	}
	return out, nil
}

// Update replaces the shared copy of id and notifies its watchers.
func (c *Client) Update(ctx context.Context, id string, g *game.Game) error {
	doc, err := game.Encode(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	body, status, err := c.do(ctx, http.MethodPut, id, url.Values{"game": {string(doc)}})
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return &StatusError{Code: status, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// Delete removes id from the server.
func (c *Client) Delete(ctx context.Context, id string) error {
	body, status, err := c.do(ctx, http.MethodDelete, id, nil)
	if err != nil {
		return err
	}
	if status/100 != 2 {
		return &StatusError{Code: status, Body: strings.TrimSpace(string(body))}
	}
	return nil
}

// Watch streams live frames for id to fn until ctx is cancelled, the game
// is deleted, fn returns an error or the connection drops.
func (c *Client) Watch(ctx context.Context, id string, fn func(Message) error) error {
	u := *c.base
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/live"
	u.RawQuery = url.Values{"id": {id}}.Encode()

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return &StatusError{Code: resp.StatusCode}
		}
		return fmt.Errorf("dial %s: %w", u.Redacted(), err)
	}
	defer func() { _ = conn.Close() }()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read live frame: %w", err)
		}
		if err := fn(msg); err != nil {
			return err
		}
		if msg.Type == MessageDeleted {
			return nil
		}
	}
}

func (c *Client) do(ctx context.Context, method, id string, form url.Values) ([]byte, int, error) {
	u := *c.base
	if id != "" {
		q := u.Query()
		q.Set("id", id)
		u.RawQuery = q.Encode()
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s share: %w", strings.ToLower(method), err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return data, resp.StatusCode, nil
}
