package youtube

import (
	"context"
	"fmt"
)

// DecipherFunc de-obfuscates protected format URLs using the page's
// player script. Implementations live outside this module.
type DecipherFunc func(ctx context.Context, playerJS string, formats []Format) ([]Format, error)

// DecipherFormats runs the configured hook over info's formats. It is
// a no-op for live HLS streams and for formats that carry a usable URL
// already; otherwise a missing hook is an error.
func (c *Client) DecipherFormats(ctx context.Context, info *VideoInfo) error {
	if info.Streaming.Live && info.Streaming.HlsURL != "" {
		return nil
	}
	if !hasCipher(info.Streaming.Formats) {
		return nil
	}
	if c.Decipher == nil {
		return ErrNoDecipherer
	}

	formats, err := c.Decipher(ctx, info.Streaming.PlayerJS, info.Streaming.Formats)
	if err != nil {
		return fmt.Errorf("decipher formats: %w", err)
	}
	info.Streaming.Formats = formats
	return nil
}

func hasCipher(formats []Format) bool {
	for _, f := range formats {
		if f.SignatureCipher != "" || f.Cipher != "" {
			return true
		}
	}
	return false
}
