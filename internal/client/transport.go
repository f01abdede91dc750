package client

import (
	"crypto/tls"
	"time"

	"github.com/go-resty/resty/v2"
)

// newResty returns a resty client for baseURL. Insecure skips certificate
// verification; TLS 1.2 is the floor either way.
func newResty(baseURL string, timeout time.Duration, insecure bool) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "j2g-remote")
	c.SetTLSClientConfig(&tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: insecure, //nolint:gosec // opt-in for self-signed dev servers
	})
	return c
}
