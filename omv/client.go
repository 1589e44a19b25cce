// Package omv probes an OpenMediaVault appliance through its JSON-RPC API.
package omv

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"omvsetup/constants"
	"omvsetup/logger"
	"omvsetup/metrics"
)

const rpcPath = "/rpc.php"

// Config holds what is needed to reach an appliance.
type Config struct {
	Host      string
	Username  string
	Password  string
	UseSSL    bool
	VerifySSL bool
	Timeout   time.Duration
}

// Client performs connection attempts against one appliance. After a failed
// Connect, ErrorCode returns the diagnosis code of the last attempt.
type Client struct {
	cfg     Config
	client  *resty.Client
	baseURL string

	mu        sync.Mutex
	connected bool
	lastError string
}

// NewClient validates cfg and prepares an HTTP client for the appliance.
func NewClient(cfg Config) (*Client, error) {
	baseURL, err := baseURLFor(cfg.Host, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = constants.DefaultConnectTimeout * time.Second
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	client.SetHeader("Content-Type", "application/json")

	if cfg.UseSSL && !cfg.VerifySSL {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}

	client.OnBeforeRequest(func(c *resty.Client, req *resty.Request) error {
		logger.Get().Debug().
			Str("method", req.Method).
			Str("url", req.URL).
			Msg("OMV API request")
		return nil
	})

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Get().Debug().
			Str("method", resp.Request.Method).
			Str("url", resp.Request.URL).
			Int("status", resp.StatusCode()).
			Dur("duration", resp.Time()).
			Msg("OMV API response")
		return nil
	})

	return &Client{
		cfg:     cfg,
		client:  client,
		baseURL: baseURL,
	}, nil
}

// baseURLFor builds the appliance URL from a bare host or host:port.
func baseURLFor(host string, useSSL bool) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("omv: host is required")
	}
	host = strings.TrimPrefix(strings.TrimPrefix(host, "https://"), "http://")
	host = strings.TrimRight(host, "/")

	scheme := "http"
	if useSSL {
		scheme = "https"
	}
	u, err := url.Parse(scheme + "://" + host)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("omv: invalid host %q", host)
	}
	return u.String(), nil
}

// BaseURL returns the appliance URL this client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Connect logs in once and reports whether the appliance accepted the credentials.
func (c *Client) Connect(ctx context.Context) bool {
	start := time.Now()
	code := c.login(ctx)

	c.mu.Lock()
	c.connected = code == ""
	c.lastError = code
	c.mu.Unlock()

	outcome := code
	if outcome == "" {
		outcome = "ok"
	}
	metrics.ObserveConnect(outcome, start)
	return code == ""
}

// login returns an empty string on success, otherwise a diagnosis code.
func (c *Client) login(ctx context.Context) string {
	log := logger.Get().With().Str("host", c.cfg.Host).Logger()

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(rpcRequest{
			Service: "session",
			Method:  "login",
			Params:  loginParams{Username: c.cfg.Username, Password: c.cfg.Password},
		}).
		Post(rpcPath)
	if err != nil {
		code := classifyTransportError(err)
		log.Debug().Err(err).Str("code", code).Msg("OMV login request failed")
		return code
	}

	// The RPC layer reports bad credentials as 401 with an error body.
	if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
		return ErrWrongLogin
	}
	if resp.IsError() {
		log.Debug().Int("status", resp.StatusCode()).Msg("OMV login returned error status")
		return ErrNoResponse
	}
	if len(resp.Body()) == 0 {
		return ErrNoResponse
	}

	var reply Response[*loginResult]
	if err := json.Unmarshal(resp.Body(), &reply); err != nil {
		log.Debug().Err(err).Msg("OMV login reply is not valid JSON")
		return ErrInvalidResponse
	}
	if reply.Error != nil {
		log.Debug().Int("rpc_code", reply.Error.Code).Str("message", reply.Error.Message).Msg("OMV login rejected")
		return ErrWrongLogin
	}
	if reply.Response == nil {
		return ErrInvalidResponse
	}
	if !reply.Response.Authenticated {
		return ErrWrongLogin
	}
	return ""
}

// Connected reports the outcome of the last Connect call.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// ErrorCode returns the diagnosis code of the last failed Connect call.
func (c *Client) ErrorCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}
