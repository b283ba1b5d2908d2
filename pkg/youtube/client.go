// Package youtube turns platform pages into typed records: watch pages
// into video info, playlist pages into paged playlists, result pages
// into video lists. All network traffic goes through an injected
// fetcher; deciphering format URLs is delegated to an optional hook.
package youtube

import (
	"github.com/Jettucis/play-dl/pkg/proxy"
	"github.com/Jettucis/play-dl/pkg/request"
)

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Client looks up videos, playlists, and searches. Construct once and
// share; it is safe for concurrent use.
type Client struct {
	Fetcher  *request.Fetcher
	Decipher DecipherFunc
	Proxies  []proxy.Endpoint
}

func NewClient(f *request.Fetcher) *Client {
	return &Client{Fetcher: f}
}

// pageOptions are the fetch options for a scraped HTML page. Only the
// watch page participates in the cookie jar.
func (c *Client) pageOptions(withCookies bool) request.Options {
	return request.Options{
		Headers: map[string]string{
			"accept-language": "en-US;q=0.9",
			"user-agent":      browserUA,
		},
		Proxies: c.Proxies,
		Cookies: withCookies,
	}
}

// apiOptions are the fetch options for an innertube API call.
func (c *Client) apiOptions(payload string) request.Options {
	return request.Options{
		Method: "POST",
		Body:   payload,
		Headers: map[string]string{
			"content-type": "application/json",
			"user-agent":   browserUA,
		},
		Proxies: c.Proxies,
	}
}
