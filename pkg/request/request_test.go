package request

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/Jettucis/play-dl/pkg/cookies"
	"github.com/Jettucis/play-dl/pkg/proxy"
)

// scriptedDoer answers by URL and records every request it saw.
type scriptedDoer struct {
	responses map[string]*fhttp.Response
	requests  []*fhttp.Request
}

func (d *scriptedDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	d.requests = append(d.requests, req)
	resp, ok := d.responses[req.URL.String()]
	if !ok {
		return respond(404, "", nil), nil
	}
	return resp, nil
}

func respond(status int, body string, header fhttp.Header) *fhttp.Response {
	if header == nil {
		header = fhttp.Header{}
	}
	return &fhttp.Response{
		StatusCode: status,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFetchFollowsRedirects(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/a": respond(302, "", fhttp.Header{"Location": {"/b"}}),
		"https://host.test/b": respond(301, "", fhttp.Header{"Location": {"https://host.test/c"}}),
		"https://host.test/c": respond(200, "landed", nil),
	}}
	f := &Fetcher{Client: doer}

	body, err := f.Fetch(context.Background(), "https://host.test/a", Options{})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if body != "landed" {
		t.Errorf("body = %q, want %q", body, "landed")
	}
	if len(doer.requests) != 3 {
		t.Fatalf("client saw %d requests, want 3", len(doer.requests))
	}
	for i, req := range doer.requests {
		if req.Method != fhttp.MethodGet {
			t.Errorf("request %d method = %s, want GET", i, req.Method)
		}
	}
}

func TestFetchRedirectKeepsMethodAndBody(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/post": respond(307, "", fhttp.Header{"Location": {"/moved"}}),
		"https://host.test/moved": respond(200, "ok", nil),
	}}
	f := &Fetcher{Client: doer}

	_, err := f.Fetch(context.Background(), "https://host.test/post", Options{
		Method: "POST",
		Body:   `{"k":"v"}`,
	})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	for i, req := range doer.requests {
		if req.Method != fhttp.MethodPost {
			t.Errorf("request %d method = %s, want POST", i, req.Method)
		}
	}
}

func TestFetchRedirectLimit(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/loop": respond(302, "", fhttp.Header{"Location": {"/loop"}}),
	}}
	f := &Fetcher{Client: doer, MaxHops: 3}

	_, err := f.Fetch(context.Background(), "https://host.test/loop", Options{})
	if !errors.Is(err, ErrTooManyRedirects) {
		t.Errorf("error = %v, want ErrTooManyRedirects", err)
	}
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("error %v does not match ErrRequestFailed", err)
	}
}

func TestFetchStatusError(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/gone": respond(410, "gone", nil),
	}}
	f := &Fetcher{Client: doer}

	_, err := f.Fetch(context.Background(), "https://host.test/gone", Options{})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("error %v does not match ErrRequestFailed", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("error %v is not a StatusError", err)
	}
	if statusErr.Code != 410 {
		t.Errorf("status = %d, want 410", statusErr.Code)
	}
}

func TestFetchCookieParticipation(t *testing.T) {
	jar := cookies.NewJar()
	jar.Set("SID", "abc")

	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/in": respond(200, "ok", fhttp.Header{
			"Set-Cookie": {"VISITOR=xyz; Path=/", "SID=refreshed; HttpOnly"},
		}),
	}}
	f := &Fetcher{Client: doer, Jar: jar}

	_, err := f.Fetch(context.Background(), "https://host.test/in", Options{Cookies: true})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if got := doer.requests[0].Header.Get("Cookie"); got != "SID=abc" {
		t.Errorf("Cookie header = %q, want %q", got, "SID=abc")
	}
	if got, _ := jar.Get("VISITOR"); got != "xyz" {
		t.Errorf("VISITOR = %q, want %q", got, "xyz")
	}
	if got, _ := jar.Get("SID"); got != "refreshed" {
		t.Errorf("SID = %q, want %q", got, "refreshed")
	}
}

func TestFetchWithoutCookieParticipation(t *testing.T) {
	jar := cookies.NewJar()
	jar.Set("SID", "abc")

	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/out": respond(200, "ok", fhttp.Header{
			"Set-Cookie": {"VISITOR=xyz; Path=/"},
		}),
	}}
	f := &Fetcher{Client: doer, Jar: jar}

	_, err := f.Fetch(context.Background(), "https://host.test/out", Options{})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}

	if got := doer.requests[0].Header.Get("Cookie"); got != "" {
		t.Errorf("Cookie header = %q, want empty", got)
	}
	if _, ok := jar.Get("VISITOR"); ok {
		t.Error("jar absorbed cookies without participation")
	}
}

func TestResolveRedirect(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/start": respond(302, "", fhttp.Header{"Location": {"/middle"}}),
		"https://host.test/middle": respond(302, "", fhttp.Header{"Location": {"https://other.test/final"}}),
		"https://other.test/final": respond(200, "", nil),
	}}
	f := &Fetcher{Client: doer}

	final, err := f.ResolveRedirect(context.Background(), "https://host.test/start")
	if err != nil {
		t.Fatalf("ResolveRedirect error: %v", err)
	}
	if final != "https://other.test/final" {
		t.Errorf("final = %q, want %q", final, "https://other.test/final")
	}
	for i, req := range doer.requests {
		if req.Method != fhttp.MethodHead {
			t.Errorf("request %d method = %s, want HEAD", i, req.Method)
		}
	}
}

func TestResolveRedirectFailure(t *testing.T) {
	doer := &scriptedDoer{responses: map[string]*fhttp.Response{
		"https://host.test/bad": respond(403, "", nil),
	}}
	f := &Fetcher{Client: doer}

	_, err := f.ResolveRedirect(context.Background(), "https://host.test/bad")
	if !errors.Is(err, ErrRequestFailed) {
		t.Errorf("error = %v, want ErrRequestFailed kind", err)
	}
}

func TestFetchDirectAgainstServer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hop":
			http.Redirect(w, r, "/data", http.StatusFound)
		case "/data":
			http.SetCookie(w, &http.Cookie{Name: "trail", Value: "left"})
			_, _ = io.WriteString(w, "payload")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	jar := cookies.NewJar()
	f, err := New(jar)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	body, err := f.Fetch(context.Background(), ts.URL+"/hop", Options{Cookies: true})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if body != "payload" {
		t.Errorf("body = %q, want %q", body, "payload")
	}
	if got, _ := jar.Get("trail"); got != "left" {
		t.Errorf("trail cookie = %q, want %q", got, "left")
	}

	if _, err := f.Fetch(context.Background(), ts.URL+"/nowhere", Options{}); !errors.Is(err, ErrRequestFailed) {
		t.Errorf("missing path error = %v, want ErrRequestFailed kind", err)
	}
}

// connectProxy accepts any number of CONNECT clients and pipes each to
// the address it asked for.
func connectProxy(t *testing.T) (addr string, connects *atomic.Int32) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	connects = &atomic.Int32{}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func(conn net.Conn) {
				defer conn.Close()

				req, err := http.ReadRequest(bufio.NewReader(conn))
				if err != nil || req.Method != http.MethodConnect {
					return
				}
				connects.Add(1)

				upstream, err := net.Dial("tcp", req.URL.Host)
				if err != nil {
					_, _ = io.WriteString(conn, "HTTP/1.1 502 Bad Gateway\r\nContent-Length: 0\r\n\r\n")
					return
				}
				defer upstream.Close()

				_, _ = io.WriteString(conn, "HTTP/1.1 200 Connection Established\r\n\r\n")
				go func() { _, _ = io.Copy(upstream, conn) }()
				_, _ = io.Copy(conn, upstream)
			}(conn)
		}
	}()

	return ln.Addr().String(), connects
}

func proxiedFetcher(t *testing.T, ts *httptest.Server, jar *cookies.Jar) (*Fetcher, []proxy.Endpoint, *atomic.Int32) {
	t.Helper()

	proxyAddr, connects := connectProxy(t)
	ep, err := proxy.ParseEndpoint(proxyAddr)
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(ts.Certificate())

	f := &Fetcher{
		Jar:       jar,
		TunnelTLS: &tls.Config{RootCAs: pool},
	}
	return f, []proxy.Endpoint{ep}, connects
}

func tlsURL(ts *httptest.Server, path string) string {
	return "https://" + ts.Listener.Addr().String() + path
}

func TestFetchViaProxy(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "prox", Value: "seen"})
		_, _ = io.WriteString(w, "proxied payload")
	}))
	defer ts.Close()

	jar := cookies.NewJar()
	f, eps, connects := proxiedFetcher(t, ts, jar)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := f.Fetch(ctx, tlsURL(ts, "/"), Options{Proxies: eps, Cookies: true})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if body != "proxied payload" {
		t.Errorf("body = %q, want %q", body, "proxied payload")
	}
	if got := connects.Load(); got != 1 {
		t.Errorf("proxy saw %d CONNECTs, want 1", got)
	}
	if got, _ := jar.Get("prox"); got != "seen" {
		t.Errorf("prox cookie = %q, want %q", got, "seen")
	}
}

func TestFetchViaProxyRedirectReTunnels(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/first":
			http.Redirect(w, r, "/second", http.StatusFound)
		case "/second":
			_, _ = io.WriteString(w, "end of chain")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	f, eps, connects := proxiedFetcher(t, ts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := f.Fetch(ctx, tlsURL(ts, "/first"), Options{Proxies: eps})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if body != "end of chain" {
		t.Errorf("body = %q, want %q", body, "end of chain")
	}
	if got := connects.Load(); got != 2 {
		t.Errorf("proxy saw %d CONNECTs, want 2 (one per hop)", got)
	}
}

func TestFetchStreamViaProxy(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "9")
		_, _ = io.WriteString(w, "streaming")
	}))
	defer ts.Close()

	f, eps, _ := proxiedFetcher(t, ts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stream, err := f.FetchStream(ctx, tlsURL(ts, "/"), Options{Proxies: eps})
	if err != nil {
		t.Fatalf("FetchStream error: %v", err)
	}
	defer stream.Close()

	if stream.Status != 200 {
		t.Errorf("status = %d, want 200", stream.Status)
	}
	if got := stream.Header.Get("Content-Length"); got != "9" {
		t.Errorf("Content-Length = %q, want %q", got, "9")
	}
	data, err := io.ReadAll(stream.Body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if string(data) != "streaming" {
		t.Errorf("stream = %q, want %q", data, "streaming")
	}
}

func TestFetchViaProxyGzip(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = io.WriteString(gz, "was compressed")
		_ = gz.Close()
	}))
	defer ts.Close()

	f, eps, _ := proxiedFetcher(t, ts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	body, err := f.Fetch(ctx, tlsURL(ts, "/"), Options{Proxies: eps})
	if err != nil {
		t.Fatalf("Fetch error: %v", err)
	}
	if body != "was compressed" {
		t.Errorf("body = %q, want %q", body, "was compressed")
	}
}

func TestFetchViaProxyTunnelError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	refusedAddr := ln.Addr().String()
	_ = ln.Close()

	ep, err := proxy.ParseEndpoint(refusedAddr)
	if err != nil {
		t.Fatalf("ParseEndpoint: %v", err)
	}
	f := &Fetcher{}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = f.Fetch(ctx, "https://example.test/", Options{Proxies: []proxy.Endpoint{ep}})
	if !errors.Is(err, proxy.ErrTunnel) {
		t.Errorf("error = %v, want ErrTunnel kind", err)
	}
	if errors.Is(err, ErrRequestFailed) {
		t.Errorf("tunnel failure %v must not look like a request failure", err)
	}
}
