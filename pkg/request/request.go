// Package request is the HTTP layer every page and API fetch goes
// through. It speaks fhttp on both paths: directly through a tls-client
// with a browser profile, or through an explicit CONNECT tunnel when
// proxy endpoints are supplied. Redirect, status, and cookie semantics
// are identical on both paths.
package request

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	"github.com/Jettucis/play-dl/pkg/cookies"
	"github.com/Jettucis/play-dl/pkg/proxy"
)

// ErrRequestFailed marks a transport failure or a response with status
// 400 and above.
var ErrRequestFailed = errors.New("request failed")

// ErrTooManyRedirects ends a redirect chain longer than the hop bound.
var ErrTooManyRedirects = fmt.Errorf("%w: too many redirects", ErrRequestFailed)

// StatusError carries the status code of a failed response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRequestFailed
}

// DefaultMaxHops bounds redirect following.
const DefaultMaxHops = 10

// Doer is the slice of the underlying client the fetcher needs.
type Doer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
}

// Options control a single fetch.
type Options struct {
	Method  string            // GET when empty
	Headers map[string]string // merged into the request verbatim
	Body    string            // request body for POST-style methods
	Proxies []proxy.Endpoint  // non-empty switches to the tunneled path
	Cookies bool              // participate in the shared cookie jar
}

// Stream is an open response body plus what is needed to consume it.
type Stream struct {
	Status int
	Header fhttp.Header
	Body   io.ReadCloser
}

func (s *Stream) Close() error {
	return s.Body.Close()
}

// Fetcher issues requests. The zero value is not usable, construct with
// New and share one instance.
type Fetcher struct {
	Client   Doer
	Jar      *cookies.Jar
	Selector proxy.Selector
	MaxHops  int

	// TunnelTLS overrides the TLS config used for tunnel handshakes,
	// needed when the target's certificate is not publicly trusted.
	TunnelTLS *tls.Config
}

// New builds a fetcher around a tls-client with a browser profile.
// Redirects are followed by the fetcher itself, not the client.
func New(jar *cookies.Jar) (*Fetcher, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(30),
		tls_client.WithClientProfile(profiles.DefaultClientProfile),
		tls_client.WithRandomTLSExtensionOrder(),
		tls_client.WithNotFollowRedirects(),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	return &Fetcher{
		Client:   client,
		Jar:      jar,
		Selector: proxy.Uniform{},
		MaxHops:  DefaultMaxHops,
	}, nil
}

// Fetch returns the response body as text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, opts Options) (string, error) {
	resp, err := f.do(ctx, rawURL, opts, 0)
	if err != nil {
		return "", err
	}
	defer func(Body io.ReadCloser) {
		if cerr := Body.Close(); cerr != nil {
			slog.Warn("Failed to close response body", "err", cerr)
		}
	}(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response body: %w", err)
	}
	return string(data), nil
}

// FetchStream returns the response with its body left open, for large
// or binary payloads. The caller owns the stream and must close it.
func (f *Fetcher) FetchStream(ctx context.Context, rawURL string, opts Options) (*Stream, error) {
	resp, err := f.do(ctx, rawURL, opts, 0)
	if err != nil {
		return nil, err
	}
	return &Stream{Status: resp.StatusCode, Header: resp.Header, Body: resp.Body}, nil
}

// ResolveRedirect probes rawURL with HEAD requests until the chain
// settles and returns the final URL. No body is consumed.
func (f *Fetcher) ResolveRedirect(ctx context.Context, rawURL string) (string, error) {
	current := rawURL
	for hop := 0; hop < f.maxHops(); hop++ {
		req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodHead, current, nil)
		if err != nil {
			return "", fmt.Errorf("build request for %q: %w", current, err)
		}

		resp, err := f.Client.Do(req)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrRequestFailed, err)
		}
		drain(resp.Body)

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			next, err := followLocation(current, resp)
			if err != nil {
				return "", err
			}
			current = next
			continue
		}
		if resp.StatusCode >= 400 {
			return "", &StatusError{Code: resp.StatusCode}
		}
		return current, nil
	}
	return "", ErrTooManyRedirects
}

func (f *Fetcher) do(ctx context.Context, rawURL string, opts Options, hop int) (*fhttp.Response, error) {
	if hop >= f.maxHops() {
		return nil, ErrTooManyRedirects
	}

	var (
		resp *fhttp.Response
		err  error
	)
	if len(opts.Proxies) > 0 {
		resp, err = f.viaProxy(ctx, rawURL, opts)
	} else {
		resp, err = f.direct(ctx, rawURL, opts)
	}
	if err != nil {
		return nil, err
	}

	if opts.Cookies && f.Jar != nil {
		if setCookies := resp.Header.Values("Set-Cookie"); len(setCookies) > 0 {
			stored := f.Jar.Absorb(setCookies)
			slog.Debug("Absorbed cookies", "count", stored)
		}
	}

	switch {
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		next, lerr := followLocation(rawURL, resp)
		drain(resp.Body)
		if lerr != nil {
			return nil, lerr
		}
		slog.Debug("Following redirect", "status", resp.StatusCode, "location", next, "hop", hop+1)
		return f.do(ctx, next, opts, hop+1)
	case resp.StatusCode >= 400:
		drain(resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}
	return resp, nil
}

func (f *Fetcher) direct(ctx context.Context, rawURL string, opts Options) (*fhttp.Response, error) {
	req, err := fhttp.NewRequestWithContext(ctx, method(opts), rawURL, bodyReader(opts))
	if err != nil {
		return nil, fmt.Errorf("build request for %q: %w", rawURL, err)
	}
	f.applyHeaders(req, opts)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	return resp, nil
}

// viaProxy establishes a fresh tunnel for this exchange. Redirects are
// followed by re-tunneling, never by reusing the old connection.
func (f *Fetcher) viaProxy(ctx context.Context, rawURL string, opts Options) (*fhttp.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}

	ep := opts.Proxies[f.pick(len(opts.Proxies))]
	target := tunnelTarget(u)
	slog.Debug("Tunneling request", "proxy", ep.Address(), "target", target)

	conn, err := proxy.Tunnel(ctx, ep, target, f.TunnelTLS)
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	req, err := fhttp.NewRequestWithContext(ctx, method(opts), rawURL, bodyReader(opts))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("build request for %q: %w", rawURL, err)
	}
	f.applyHeaders(req, opts)
	req.Close = true

	if err := req.Write(conn); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: write over tunnel: %w", ErrRequestFailed, err)
	}

	resp, err := fhttp.ReadResponse(bufio.NewReader(conn), req)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: read over tunnel: %w", ErrRequestFailed, err)
	}

	body := io.Reader(resp.Body)
	closers := []io.Closer{resp.Body, conn}
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, gerr := gzip.NewReader(body)
		if gerr != nil {
			_ = resp.Body.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("%w: gzip response: %w", ErrRequestFailed, gerr)
		}
		body = gz
		closers = append([]io.Closer{gz}, closers...)
	}
	resp.Body = &tunnelBody{Reader: body, closers: closers}
	return resp, nil
}

func (f *Fetcher) applyHeaders(req *fhttp.Request, opts Options) {
	for name, value := range opts.Headers {
		req.Header.Set(name, value)
	}
	if opts.Cookies && f.Jar != nil {
		if header := f.Jar.Header(); header != "" {
			req.Header.Set("Cookie", header)
		}
	}
}

func (f *Fetcher) pick(n int) int {
	s := f.Selector
	if s == nil {
		s = proxy.Uniform{}
	}
	return s.Pick(n)
}

func (f *Fetcher) maxHops() int {
	if f.MaxHops > 0 {
		return f.MaxHops
	}
	return DefaultMaxHops
}

func method(opts Options) string {
	if opts.Method == "" {
		return fhttp.MethodGet
	}
	return strings.ToUpper(opts.Method)
}

func bodyReader(opts Options) io.Reader {
	if opts.Body == "" {
		return nil
	}
	return strings.NewReader(opts.Body)
}

func followLocation(current string, resp *fhttp.Response) (string, error) {
	loc := resp.Header.Get("Location")
	if loc == "" {
		return "", &StatusError{Code: resp.StatusCode}
	}
	base, err := url.Parse(current)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", current, err)
	}
	next, err := base.Parse(loc)
	if err != nil {
		return "", fmt.Errorf("resolve redirect %q: %w", loc, err)
	}
	return next.String(), nil
}

func tunnelTarget(u *url.URL) string {
	port := u.Port()
	if port == "" {
		port = "443"
	}
	return net.JoinHostPort(u.Hostname(), port)
}

func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	if err := body.Close(); err != nil {
		slog.Warn("Failed to close response body", "err", err)
	}
}

// tunnelBody closes the decompressor, the response body, and the tunnel
// connection behind one Close.
type tunnelBody struct {
	io.Reader
	closers []io.Closer
}

func (b *tunnelBody) Close() error {
	var first error
	for _, c := range b.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
