package youtube

// Thumbnail is one image variant.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Channel describes the owner of a video or playlist.
type Channel struct {
	Name     string `json:"name"`
	ID       string `json:"id"`
	URL      string `json:"url"`
	Verified bool   `json:"verified"`
	Artist   bool   `json:"artist"`
}

// Video is the canonical video record shared by watch pages, playlist
// entries, and search results. Fields only the watch page knows stay
// empty elsewhere.
type Video struct {
	ID            string     `json:"id"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Description   string     `json:"description,omitempty"`
	DurationSec   int        `json:"duration_sec"`
	DurationRaw   string     `json:"duration_raw"`
	UploadedAt    string     `json:"uploaded_at,omitempty"`
	Views         int64      `json:"views"`
	Thumbnail     *Thumbnail `json:"thumbnail,omitempty"`
	Channel       *Channel   `json:"channel,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	AverageRating float64    `json:"average_rating,omitempty"`
	Live          bool       `json:"live"`
	Private       bool       `json:"private"`
}

// Format is one playable rendition, kept in the upstream shape. Either
// URL is usable directly or SignatureCipher/Cipher still needs the
// decipher step.
type Format struct {
	Itag             int    `json:"itag"`
	URL              string `json:"url,omitempty"`
	MimeType         string `json:"mimeType,omitempty"`
	Bitrate          int    `json:"bitrate,omitempty"`
	Width            int    `json:"width,omitempty"`
	Height           int    `json:"height,omitempty"`
	ContentLength    string `json:"contentLength,omitempty"`
	Quality          string `json:"quality,omitempty"`
	QualityLabel     string `json:"qualityLabel,omitempty"`
	AudioQuality     string `json:"audioQuality,omitempty"`
	FPS              int    `json:"fps,omitempty"`
	ApproxDurationMs string `json:"approxDurationMs,omitempty"`
	AudioSampleRate  string `json:"audioSampleRate,omitempty"`
	SignatureCipher  string `json:"signatureCipher,omitempty"`
	Cipher           string `json:"cipher,omitempty"`
}

// StreamingInfo summarizes how a video can be played.
type StreamingInfo struct {
	Live     bool     `json:"live"`
	DashURL  string   `json:"dash_url,omitempty"`
	HlsURL   string   `json:"hls_url,omitempty"`
	PlayerJS string   `json:"player_js"`
	Formats  []Format `json:"formats"`
}

// VideoInfo is the full result of a watch page lookup.
type VideoInfo struct {
	Video     Video         `json:"video"`
	Streaming StreamingInfo `json:"streaming"`
	Related   []string      `json:"related,omitempty"`
}

// ContinuationState authorizes fetching the next playlist page.
type ContinuationState struct {
	APIKey        string `json:"api_key"`
	Token         string `json:"token"`
	ClientVersion string `json:"client_version"`
}

// Playlist is the assembled playlist record. Videos holds everything
// fetched so far; Next pages through the rest.
type Playlist struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	URL          string            `json:"url"`
	Link         string            `json:"link,omitempty"`
	VideoCount   int               `json:"video_count"`
	Views        int64             `json:"views"`
	LastUpdated  string            `json:"last_updated,omitempty"`
	Channel      *Channel          `json:"channel,omitempty"`
	Thumbnail    *Thumbnail        `json:"thumbnail,omitempty"`
	Videos       []Video           `json:"videos"`
	Continuation ContinuationState `json:"continuation"`

	client *Client
}

// HasMore reports whether another page can be fetched.
func (p *Playlist) HasMore() bool {
	return p.Continuation.Token != ""
}

// Attach binds the playlist to a client so Next can page. A playlist
// rehydrated from its serialized form needs this before paging.
func (p *Playlist) Attach(c *Client) {
	p.client = c
}
