// Package client talks to a running j2g server.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/loykin/j2g/internal/common"
	"github.com/loykin/j2g/internal/constants"
	"github.com/loykin/j2g/internal/retry"
	"github.com/loykin/j2g/internal/util"
)

// OAuth2Config enables the client credentials grant for the bearer token.
type OAuth2Config struct {
	TokenURL     string   `mapstructure:"token_url" yaml:"token_url"`
	ClientID     string   `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string   `mapstructure:"client_secret" yaml:"client_secret"`
	Scopes       []string `mapstructure:"scopes" yaml:"scopes"`
}

func (o *OAuth2Config) enabled() bool {
	return o != nil && strings.TrimSpace(o.TokenURL) != ""
}

type Config struct {
	Server   string
	Token    string
	Insecure bool
	Timeout  time.Duration
	OAuth2   *OAuth2Config
	Retry    *retry.Config
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.Status, strings.ToLower(http.StatusText(e.Status)), e.Message)
}

// Result is a workflow converted by the server.
type Result struct {
	YAML         []byte
	Warnings     int
	ConversionID string
}

// Conversion is one entry of the server's history listing.
type Conversion struct {
	ID         string
	SourceName string
	Profile    string
	SHA256     string
	Warnings   int
	CreatedAt  time.Time
}

type Client struct {
	http   *resty.Client
	token  string
	ts     oauth2.TokenSource
	retry  *retry.Config
	logger *common.Logger
}

func New(cfg Config) (*Client, error) {
	server := strings.TrimRight(strings.TrimSpace(cfg.Server), "/")
	if server == "" {
		server = constants.DefaultRemoteServer
	}
	if !strings.HasPrefix(server, "http://") && !strings.HasPrefix(server, "https://") {
		return nil, fmt.Errorf("client: server must be an http(s) URL, got %q", cfg.Server)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultRemoteTimeout
	}
	rc := cfg.Retry
	if rc == nil {
		rc = retry.DefaultRetryConfig()
		rc.MaxRetries = constants.DefaultRemoteRetries
		rc.RetryableErrors = append(rc.RetryableErrors, "bad gateway", "service unavailable", "gateway timeout")
	}

	c := &Client{
		http:   newResty(server, timeout, cfg.Insecure),
		token:  strings.TrimSpace(cfg.Token),
		retry:  rc,
		logger: common.GetLogger().WithComponent("client"),
	}
	if cfg.OAuth2.enabled() {
		o := *cfg.OAuth2
		util.TrimStructFields(&o)
		if o.ClientID == "" || o.ClientSecret == "" {
			return nil, errors.New("client: oauth2 client_id and client_secret are required")
		}
		cc := &clientcredentials.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			TokenURL:     o.TokenURL,
			Scopes:       o.Scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		c.ts = cc.TokenSource(context.Background())
	}
	return c, nil
}

// Health checks that the server answers /healthz with status ok.
func (c *Client) Health(ctx context.Context) error {
	body, _, err := c.do(ctx, http.MethodGet, "/healthz", nil, nil)
	if err != nil {
		return err
	}
	if s := gjson.GetBytes(body, "status").String(); s != "ok" {
		return fmt.Errorf("client: unexpected health status %q", s)
	}
	return nil
}

// Convert sends source to the server. opts are passed as query parameters
// (profile, strict, docker_broadcast, ...).
func (c *Client) Convert(ctx context.Context, name, source string, opts map[string]string) (*Result, error) {
	q := make(map[string]string, len(opts)+1)
	for k, v := range opts {
		q[k] = v
	}
	if name != "" {
		q["name"] = name
	}
	body, hdr, err := c.do(ctx, http.MethodPost, "/api/convert", q, []byte(source))
	if err != nil {
		return nil, err
	}
	n, _ := strconv.Atoi(hdr.Get("X-J2G-Warnings"))
	return &Result{YAML: body, Warnings: n, ConversionID: hdr.Get("X-J2G-Conversion-ID")}, nil
}

// History lists the newest conversions recorded by the server.
func (c *Client) History(ctx context.Context, limit int) ([]Conversion, error) {
	var q map[string]string
	if limit > 0 {
		q = map[string]string{"limit": strconv.Itoa(limit)}
	}
	body, _, err := c.do(ctx, http.MethodGet, "/api/conversions", q, nil)
	if err != nil {
		return nil, err
	}
	var out []Conversion
	gjson.GetBytes(body, "conversions").ForEach(func(_, v gjson.Result) bool {
		out = append(out, Conversion{
			ID:         v.Get("id").String(),
			SourceName: v.Get("source_name").String(),
			Profile:    v.Get("profile").String(),
			SHA256:     v.Get("sha256").String(),
			Warnings:   int(v.Get("warnings.#").Int()),
			CreatedAt:  v.Get("created_at").Time(),
		})
		return true
	})
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query map[string]string, body []byte) ([]byte, http.Header, error) {
	type reply struct {
		body []byte
		hdr  http.Header
	}
	r, err := retry.WithRetryValue(ctx, c.retry, func() (reply, error) {
		req := c.http.R().SetContext(ctx)
		if len(query) > 0 {
			req.SetQueryParams(query)
		}
		if body != nil {
			req.SetHeader("Content-Type", "text/plain; charset=utf-8").SetBody(body)
		}
		if err := c.authorize(req); err != nil {
			return reply{}, retry.Permanent(err)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return reply{}, err
		}
		if resp.IsError() {
			apiErr := &APIError{Status: resp.StatusCode(), Message: errorMessage(resp.Body())}
			if resp.StatusCode() < http.StatusInternalServerError {
				return reply{}, retry.Permanent(apiErr)
			}
			return reply{}, apiErr
		}
		return reply{body: resp.Body(), hdr: resp.Header()}, nil
	})
	if err != nil {
		c.logger.Debug("request failed", "method", method, "path", path, "error", err)
		return nil, nil, err
	}
	return r.body, r.hdr, nil
}

func (c *Client) authorize(req *resty.Request) error {
	if c.ts != nil {
		tok, err := c.ts.Token()
		if err != nil {
			return fmt.Errorf("client: oauth2 token: %w", err)
		}
		req.SetAuthToken(tok.AccessToken)
		return nil
	}
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return nil
}

func errorMessage(body []byte) string {
	if m := gjson.GetBytes(body, "error"); m.Exists() {
		return m.String()
	}
	return strings.TrimSpace(string(body))
}
