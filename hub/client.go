package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/brutella/hc/log"
	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultConnectTimeout = 30 * time.Second
)

// Config contains the hub connection parameters.
type Config struct {
	BaseURL string
	Token   string

	// Timeout bounds a state request.
	Timeout time.Duration

	// ConnectTimeout bounds connecting to the stream endpoint and waiting for
	// its response headers. The stream body itself is not bounded here.
	ConnectTimeout time.Duration

	// Headers are sent with stream requests.
	Headers map[string]string
}

// State is the representation of an entity returned by /api/states.
type State struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged string                 `json:"last_changed"`
	LastUpdated string                 `json:"last_updated"`
}

// Client is a minimal Home Assistant REST client.
type Client struct {
	cfg    Config
	api    *resty.Client
	stream *resty.Client
}

// NewClient returns a client for the hub at cfg.BaseURL.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}

	api := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.Token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout).
		SetDisableWarn(true).
		SetLogger(restyLogger{})

	// no client timeout: it would also cut the stream body
	stream := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTransport(&http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: cfg.ConnectTimeout,
			}).DialContext,
			TLSHandshakeTimeout:   cfg.ConnectTimeout,
			ResponseHeaderTimeout: cfg.ConnectTimeout,
		}).
		SetHeaders(cfg.Headers).
		SetDisableWarn(true).
		SetLogger(restyLogger{})

	return &Client{cfg: cfg, api: api, stream: stream}, nil
}

// BaseURL returns the normalized hub address.
func (c *Client) BaseURL() string {
	return c.cfg.BaseURL
}

// State fetches the current state of an entity.
func (c *Client) State(ctx context.Context, entityID string) (*State, error) {
	if entityID == "" {
		return nil, ErrEmptyEntity
	}

	resp, err := c.api.R().
		SetContext(ctx).
		SetPathParam("entity", entityID).
		Get("/api/states/{entity}")
	if err != nil {
		return nil, fmt.Errorf("hub: state %s: %w", entityID, err)
	}
	if !resp.IsSuccess() {
		return nil, &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}

	var st State
	if err := json.Unmarshal(resp.Body(), &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &st, nil
}

// Attribute returns one string attribute of an entity.
func (c *Client) Attribute(ctx context.Context, entityID, key string) (string, error) {
	log.Info.Printf("Fetching %s from %s...", key, entityID)

	st, err := c.State(ctx, entityID)
	if err != nil {
		log.Info.Printf("State fetch for %s failed: %v", entityID, err)
		return "", err
	}

	v, ok := st.Attributes[key]
	if !ok || v == nil {
		log.Info.Printf("Error: %s has no %s attribute", entityID, key)
		return "", fmt.Errorf("%w: %s on %s", ErrMissingAttribute, key, entityID)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		log.Info.Printf("Error: %s attribute %s is empty or not a string", entityID, key)
		return "", fmt.Errorf("%w: %s on %s", ErrMissingAttribute, key, entityID)
	}

	log.Debug.Printf("Got %s for %s", key, entityID)
	return s, nil
}
