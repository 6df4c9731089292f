// Package fetch performs bounded HTTP retrieval that cannot be steered at
// internal network targets, even through redirects. Both the RSS adapter and
// the full-text extractor go through it.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrBadScheme        = errors.New("only http/https URLs are allowed")
	ErrBlockedPort      = errors.New("blocked non-standard port")
	ErrBlockedHost      = errors.New("blocked host")
	ErrNoLocation       = errors.New("redirect without Location")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrContentTooLarge  = errors.New("content too large")
)

// Options bounds a single guarded GET.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	Headers      map[string]string

	// StrictPorts rejects any port other than 80/443. The extractor enables
	// it because its targets are user-supplied; adapters calling fixed API
	// hosts can leave it off.
	StrictPorts bool
}

// Result is the final response of a guarded GET.
type Result struct {
	Body       []byte
	FinalURL   string
	StatusCode int
}

// Client is a guarded HTTP fetcher. It is stateless and safe for concurrent
// use. Redirects are walked manually so every hop is re-validated. Both
// fields may be replaced to inject a custom transport or resolver.
type Client struct {
	HTTPClient *http.Client
	LookupIP   func(ctx context.Context, host string) ([]net.IP, error)
}

// NewClient builds a guarded client. Automatic redirect following is
// disabled; Get handles redirect statuses itself.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		LookupIP: func(ctx context.Context, host string) ([]net.IP, error) {
			return net.DefaultResolver.LookupIP(ctx, "ip", host)
		},
	}
}

// Get fetches rawURL under the given bounds. Every hop of a redirect chain,
// including the first request, passes scheme, port and host-safety checks.
func (c *Client) Get(ctx context.Context, rawURL string, opts Options) (*Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 2_000_000
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	u, err := validateURL(rawURL, opts.StrictPorts)
	if err != nil {
		return nil, err
	}

	for hop := 0; hop <= opts.MaxRedirects; hop++ {
		if err := c.checkHost(ctx, u.Hostname()); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
		if err != nil {
			return nil, err
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}

		switch resp.StatusCode {
		case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
			http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
			loc := resp.Header.Get("Location")
			resp.Body.Close()
			if loc == "" {
				return nil, ErrNoLocation
			}
			next, err := u.Parse(loc)
			if err != nil {
				return nil, fmt.Errorf("resolving redirect target: %w", err)
			}
			u, err = validateURL(next.String(), opts.StrictPorts)
			if err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			resp.Body.Close()
			return nil, fmt.Errorf("http status %d", resp.StatusCode)
		}

		// Content-Length is only a hint; the body length is re-checked after
		// reading in case the header lied or was absent.
		if resp.ContentLength > opts.MaxBodyBytes {
			resp.Body.Close()
			return nil, ErrContentTooLarge
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, opts.MaxBodyBytes+1))
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(body)) > opts.MaxBodyBytes {
			return nil, ErrContentTooLarge
		}
		return &Result{Body: body, FinalURL: u.String(), StatusCode: resp.StatusCode}, nil
	}
	return nil, ErrTooManyRedirects
}

func validateURL(raw string, strictPorts bool) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, ErrBadScheme
	}
	if strictPorts {
		if p := u.Port(); p != "" && p != "80" && p != "443" {
			return nil, ErrBlockedPort
		}
	}
	return u, nil
}

// checkHost rejects hosts that are, or resolve to, private network targets.
func (c *Client) checkHost(ctx context.Context, hostname string) error {
	host := strings.ToLower(strings.Trim(hostname, "[]"))
	if host == "localhost" {
		return ErrBlockedHost
	}
	if ip := net.ParseIP(host); ip != nil {
		if isPrivateIP(ip) {
			return ErrBlockedHost
		}
		return nil
	}
	addrs, err := c.LookupIP(ctx, host)
	if err != nil {
		return fmt.Errorf("%w: host resolution failed", ErrBlockedHost)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("%w: no DNS results", ErrBlockedHost)
	}
	for _, ip := range addrs {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: private resolution", ErrBlockedHost)
		}
	}
	return nil
}

// isPrivateIP classifies reserved and internal ranges. IPv4-mapped IPv6
// addresses fall through To4 and are checked against the IPv4 rules.
func isPrivateIP(ip net.IP) bool {
	if v4 := ip.To4(); v4 != nil {
		a, b := v4[0], v4[1]
		switch {
		case a == 10: // 10.0.0.0/8
			return true
		case a == 127: // loopback
			return true
		case a == 0: // 0.0.0.0/8
			return true
		case a == 169 && b == 254: // link-local
			return true
		case a == 172 && b >= 16 && b <= 31: // 172.16.0.0/12
			return true
		case a == 192 && b == 168: // 192.168.0.0/16
			return true
		case a == 100 && b >= 64 && b <= 127: // CGNAT 100.64.0.0/10
			return true
		case a >= 224: // multicast/reserved
			return true
		}
		return false
	}
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	if len(ip) == net.IPv6len {
		if ip[0]&0xfe == 0xfc { // unique local fc00::/7
			return true
		}
		if ip[0] == 0xfe && ip[1]&0xc0 == 0xc0 { // site-local fec0::/10 (deprecated)
			return true
		}
	}
	return false
}
