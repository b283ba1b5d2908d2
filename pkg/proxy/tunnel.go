package proxy

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
)

// ErrTunnel marks any failure while establishing a proxy tunnel. There
// is no fallback to a direct connection.
var ErrTunnel = errors.New("proxy tunnel failed")

// Tunnel dials the endpoint over plain TCP, issues a CONNECT for the
// target ("host:port"), and runs a TLS client handshake over the raw
// socket once the proxy accepts. The returned conn is ready for an
// HTTP/1.1 exchange with the target.
func Tunnel(ctx context.Context, ep Endpoint, target string, tlsCfg *tls.Config) (net.Conn, error) {
	dialer := &net.Dialer{}
	raw, err := dialer.DialContext(ctx, "tcp", ep.Address())
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTunnel, ep.Address(), err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = raw.SetDeadline(deadline)
	}

	if err := writeConnect(raw, ep, target); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: %w", ErrTunnel, err)
	}

	connectReq, err := fhttp.NewRequest(fhttp.MethodConnect, "http://"+target, nil)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: %w", ErrTunnel, err)
	}
	resp, err := fhttp.ReadResponse(bufio.NewReader(raw), connectReq)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: read CONNECT response from %s: %w", ErrTunnel, ep.Address(), err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != fhttp.StatusOK {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: proxy %s answered CONNECT with status %d", ErrTunnel, ep.Address(), resp.StatusCode)
	}

	host, _, err := net.SplitHostPort(target)
	if err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: target %q: %w", ErrTunnel, target, err)
	}

	cfg := &tls.Config{}
	if tlsCfg != nil {
		cfg = tlsCfg.Clone()
	}
	if cfg.ServerName == "" {
		cfg.ServerName = host
	}
	// the exchange over the tunnel is HTTP/1.1 framed
	cfg.NextProtos = []string{"http/1.1"}

	tlsConn := tls.Client(raw, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("%w: tls handshake with %s: %w", ErrTunnel, host, err)
	}

	_ = raw.SetDeadline(time.Time{})
	return tlsConn, nil
}

func writeConnect(conn net.Conn, ep Endpoint, target string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "CONNECT %s HTTP/1.1\r\n", target)
	fmt.Fprintf(&b, "Host: %s\r\n", target)
	if ep.Username != "" || ep.Password != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(ep.Username + ":" + ep.Password))
		fmt.Fprintf(&b, "Proxy-Authorization: Basic %s\r\n", cred)
	}
	b.WriteString("\r\n")

	if _, err := conn.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("write CONNECT to %s: %w", ep.Address(), err)
	}
	return nil
}
