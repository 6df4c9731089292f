package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// testClient resolves every hostname to the given address so httptest
// servers (which listen on loopback) can stand in for public hosts.
func testClient(resolveTo string) *Client {
	c := NewClient()
	c.LookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
		return []net.IP{net.ParseIP(resolveTo)}, nil
	}
	return c
}

// serverHost rewrites a httptest URL to use a resolvable fake hostname.
func serverHost(t *testing.T, srv *httptest.Server, name string) (*Client, string) {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient()
	c.LookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
		if host == name {
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		}
		return nil, fmt.Errorf("unknown host %s", host)
	}
	// Dial the fake hostname straight to the test server.
	c.HTTPClient.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return net.Dial(network, u.Host)
		},
	}
	return c, "http://" + name
}

func TestGetRejectsPrivateTargets(t *testing.T) {
	c := NewClient()
	blocked := []string{
		"http://127.0.0.1/",
		"http://169.254.169.254/",
		"http://10.0.0.5/",
		"http://192.168.1.1/",
		"http://172.16.0.1/",
		"http://100.64.0.1/",
		"http://0.0.0.0/",
		"http://224.0.0.1/",
		"http://[::1]/",
		"http://[fe80::1]/",
		"http://[fd00::1]/",
		"http://[::ffff:10.0.0.5]/",
		"http://localhost/",
	}
	for _, u := range blocked {
		_, err := c.Get(context.Background(), u, Options{Timeout: time.Second})
		if !errors.Is(err, ErrBlockedHost) {
			t.Errorf("Get(%q) err = %v, want ErrBlockedHost", u, err)
		}
	}
}

func TestGetRejectsPrivateResolution(t *testing.T) {
	c := testClient("192.168.1.1")
	_, err := c.Get(context.Background(), "http://internal.example.com/", Options{Timeout: time.Second})
	if !errors.Is(err, ErrBlockedHost) {
		t.Fatalf("err = %v, want ErrBlockedHost", err)
	}
}

func TestGetRejectsResolutionFailure(t *testing.T) {
	c := NewClient()
	c.LookupIP = func(ctx context.Context, host string) ([]net.IP, error) {
		return nil, errors.New("nxdomain")
	}
	_, err := c.Get(context.Background(), "http://nope.example.com/", Options{Timeout: time.Second})
	if !errors.Is(err, ErrBlockedHost) {
		t.Fatalf("err = %v, want ErrBlockedHost", err)
	}
}

func TestGetRejectsBadSchemeAndPort(t *testing.T) {
	c := NewClient()
	if _, err := c.Get(context.Background(), "ftp://example.com/", Options{}); !errors.Is(err, ErrBadScheme) {
		t.Errorf("scheme: err = %v, want ErrBadScheme", err)
	}
	if _, err := c.Get(context.Background(), "file:///etc/passwd", Options{}); !errors.Is(err, ErrBadScheme) {
		t.Errorf("scheme: err = %v, want ErrBadScheme", err)
	}
	_, err := c.Get(context.Background(), "http://example.com:8080/", Options{StrictPorts: true})
	if !errors.Is(err, ErrBlockedPort) {
		t.Errorf("port: err = %v, want ErrBlockedPort", err)
	}
}

func TestGetPermitsPublicHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello")
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	res, err := c.Get(context.Background(), base+"/ok", Options{Timeout: 2 * time.Second})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(res.Body) != "hello" {
		t.Errorf("body = %q", res.Body)
	}
	if res.StatusCode != 200 {
		t.Errorf("status = %d", res.StatusCode)
	}
}

func TestGetRevalidatesRedirectTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://localhost/secret", http.StatusFound)
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	_, err := c.Get(context.Background(), base+"/", Options{Timeout: 2 * time.Second, MaxRedirects: 3})
	if !errors.Is(err, ErrBlockedHost) {
		t.Fatalf("redirect to localhost must be blocked, got %v", err)
	}
}

func TestGetFollowsRedirectWithinCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/start" {
			http.Redirect(w, r, "/final", http.StatusMovedPermanently)
			return
		}
		fmt.Fprint(w, "made it")
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	res, err := c.Get(context.Background(), base+"/start", Options{Timeout: 2 * time.Second, MaxRedirects: 3})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(res.Body) != "made it" {
		t.Errorf("body = %q", res.Body)
	}
	if !strings.HasSuffix(res.FinalURL, "/final") {
		t.Errorf("FinalURL = %q", res.FinalURL)
	}
}

func TestGetRedirectCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/again", http.StatusFound)
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	_, err := c.Get(context.Background(), base+"/", Options{Timeout: 2 * time.Second, MaxRedirects: 2})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Fatalf("err = %v, want ErrTooManyRedirects", err)
	}
}

func TestGetRedirectWithoutLocation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusFound)
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	_, err := c.Get(context.Background(), base+"/", Options{Timeout: 2 * time.Second, MaxRedirects: 2})
	if !errors.Is(err, ErrNoLocation) {
		t.Fatalf("err = %v, want ErrNoLocation", err)
	}
}

func TestGetEnforcesBodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No Content-Length: chunked response defeats the header pre-check.
		w.(http.Flusher).Flush()
		fmt.Fprint(w, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	_, err := c.Get(context.Background(), base+"/", Options{Timeout: 2 * time.Second, MaxBodyBytes: 1024})
	if !errors.Is(err, ErrContentTooLarge) {
		t.Fatalf("err = %v, want ErrContentTooLarge", err)
	}
}

func TestGetNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, base := serverHost(t, srv, "public.example.com")
	_, err := c.Get(context.Background(), base+"/", Options{Timeout: 2 * time.Second})
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("err = %v, want status 503 failure", err)
	}
}
