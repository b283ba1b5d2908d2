package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jettucis/play-dl/pkg/scrape"
)

// PlaylistOptions control playlist assembly.
type PlaylistOptions struct {
	// Incomplete permits proceeding past an info-type alert, yielding
	// whatever entries the page still carries. Error alerts always
	// fail.
	Incomplete bool

	// Limit caps how many videos the first page yields; zero keeps
	// everything the page has.
	Limit int
}

// Playlist fetches a playlist page and assembles the record with its
// first batch of videos. Further pages come from Next.
func (c *Client) Playlist(ctx context.Context, ref string, opts PlaylistOptions) (*Playlist, error) {
	if Classify(ref) != KindPlaylist {
		return nil, fmt.Errorf("%w: %q is not a playlist reference", ErrInvalidInput, ref)
	}
	id, err := ExtractID(ref)
	if err != nil {
		return nil, err
	}

	body, err := c.Fetcher.Fetch(ctx, playlistURL(id)+"&hl=en", c.pageOptions(false))
	if err != nil {
		return nil, fmt.Errorf("fetch playlist page: %w", err)
	}

	p, err := assemblePlaylist(body, id, opts)
	if err != nil {
		return nil, err
	}
	p.client = c

	slog.Debug("Assembled playlist record",
		"id", p.ID,
		"videos", len(p.Videos),
		"total", p.VideoCount,
		"has_more", p.HasMore())
	return p, nil
}

func assemblePlaylist(body, id string, opts PlaylistOptions) (*Playlist, error) {
	if strings.Contains(body, markerCaptcha) {
		return nil, ErrCaptcha
	}

	var page playlistPageData
	if err := scrape.DecodeStatement(body, markerInitialData, &page); err != nil {
		return nil, fmt.Errorf("initial data: %w", err)
	}
	if err := checkAlerts(page, opts.Incomplete); err != nil {
		return nil, err
	}

	// the items terminator swallows the closing of the last entry, the
	// sidebar fragment comes out balanced
	itemsFrag, err := scrape.Fragment(body, markerPlaylistItems, termPlaylistItems)
	if err != nil {
		return nil, fmt.Errorf("playlist items: %w", err)
	}
	var entries []playlistEntry
	if err := scrape.Parse(itemsFrag+"}]", &entries); err != nil {
		return nil, fmt.Errorf("playlist items: %w", err)
	}

	var sidebar sidebarData
	if err := scrape.Decode(body, markerSidebar, &sidebar, termSidebar); err != nil {
		return nil, fmt.Errorf("playlist sidebar: %w", err)
	}

	videos, token := collectEntries(entries, opts.Limit)

	p := &Playlist{
		ID:     id,
		URL:    playlistURL(id),
		Link:   page.Microformat.MicroformatDataRenderer.URLCanonical,
		Videos: videos,
		Continuation: ContinuationState{
			APIKey:        apiKeyFrom(body),
			Token:         token,
			ClientVersion: clientVersionFrom(body),
		},
	}
	applySidebar(p, sidebar)
	return p, nil
}

// checkAlerts enforces the page's alert gate. The first alert decides:
// an info alert fails unless incomplete mode is on, anything else
// fails outright.
func checkAlerts(page playlistPageData, incomplete bool) error {
	if len(page.Alerts) == 0 {
		return nil
	}

	alert := page.Alerts[0]
	switch {
	case alert.AlertWithButtonRenderer != nil && alert.AlertWithButtonRenderer.Type == "INFO":
		if incomplete {
			return nil
		}
		return &UnavailableError{Reason: alert.AlertWithButtonRenderer.Text.text()}
	case alert.AlertRenderer != nil:
		return &UnavailableError{Reason: alert.AlertRenderer.Text.text()}
	default:
		return &UnavailableError{Reason: "unknown alert"}
	}
}

// collectEntries maps raw entries to video records, skipping entries
// without a byline, and pulls the continuation token from the single
// continuation item regardless of the limit.
func collectEntries(entries []playlistEntry, limit int) ([]Video, string) {
	var videos []Video
	token := ""

	for _, entry := range entries {
		if entry.ContinuationItemRenderer != nil {
			token = entry.ContinuationItemRenderer.ContinuationEndpoint.ContinuationCommand.Token
			continue
		}

		r := entry.PlaylistVideoRenderer
		if r == nil || r.ShortBylineText == nil {
			continue
		}
		if limit > 0 && len(videos) >= limit {
			continue
		}
		videos = append(videos, playlistVideo(r))
	}
	return videos, token
}

func playlistVideo(r *playlistVideoRenderer) Video {
	length := r.LengthText.text()
	raw := length
	if raw == "" {
		raw = "0:00"
	}

	return Video{
		ID:          r.VideoID,
		URL:         watchURL(r.VideoID),
		Title:       r.Title.text(),
		DurationSec: ParseDurationText(length),
		DurationRaw: raw,
		Thumbnail:   widest(r.Thumbnail.Thumbnails),
		Channel:     bylineChannel(r.ShortBylineText.Runs),
	}
}

func bylineChannel(runs []bylineRun) *Channel {
	if len(runs) == 0 {
		return nil
	}
	run := runs[0]

	ch := &Channel{
		Name: run.Text,
		ID:   run.NavigationEndpoint.BrowseEndpoint.BrowseID,
	}
	if base := run.NavigationEndpoint.BrowseEndpoint.CanonicalBaseURL; base != "" {
		ch.URL = baseURL + base
	} else if ch.ID != "" {
		ch.URL = baseURL + "/channel/" + ch.ID
	}
	return ch
}

// applySidebar fills title, counts, views, last-update, thumbnail, and
// author from the sidebar block.
func applySidebar(p *Playlist, sidebar sidebarData) {
	for _, item := range sidebar.Items {
		if item.Primary != nil {
			p.Title = item.Primary.Title.text()

			stats := item.Primary.Stats
			if len(stats) > 0 {
				p.VideoCount = int(digitsOnly(stats[0].text()))
			}
			if len(stats) > 1 {
				p.Views = digitsOnly(stats[1].text())
			}
			p.LastUpdated = lastUpdateText(stats)

			tr := item.Primary.ThumbnailRenderer
			if tr.PlaylistVideoThumbnailRenderer != nil {
				p.Thumbnail = widest(tr.PlaylistVideoThumbnailRenderer.Thumbnail.Thumbnails)
			} else if tr.PlaylistCustomThumbnailRenderer != nil {
				p.Thumbnail = widest(tr.PlaylistCustomThumbnailRenderer.Thumbnail.Thumbnails)
			}
		}

		if item.Secondary != nil {
			p.Channel = bylineChannel(item.Secondary.VideoOwner.VideoOwnerRenderer.Title.Runs)
		}
	}
}

// lastUpdateText finds the stats entry labelled as a last-update note
// and returns its final run.
func lastUpdateText(stats []simpleText) string {
	for _, stat := range stats {
		for _, run := range stat.Runs {
			if strings.Contains(strings.ToLower(run.Text), "last update") {
				return stat.Runs[len(stat.Runs)-1].Text
			}
		}
	}
	return ""
}

// Next fetches the following page through the browse API, appends the
// new videos to the playlist, and advances the continuation. An
// exhausted playlist returns an empty batch.
func (p *Playlist) Next(ctx context.Context, limit int) ([]Video, error) {
	if p.client == nil {
		return nil, errors.New("playlist is not attached to a client")
	}
	if !p.HasMore() {
		return nil, nil
	}

	payload, err := json.Marshal(browsePayload{
		Context: browseContext{Client: browseClient{
			UTCOffsetMinutes: 0,
			GL:               "US",
			HL:               "en",
			ClientName:       "WEB",
			ClientVersion:    p.Continuation.ClientVersion,
		}},
		Continuation: p.Continuation.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("encode continuation payload: %w", err)
	}

	body, err := p.client.Fetcher.Fetch(ctx, browseURL+p.Continuation.APIKey, p.client.apiOptions(string(payload)))
	if err != nil {
		return nil, fmt.Errorf("fetch playlist page: %w", err)
	}

	var cont continuationResponse
	if err := scrape.Parse(body, &cont); err != nil {
		return nil, fmt.Errorf("continuation response: %w", err)
	}
	if len(cont.OnResponseReceivedActions) == 0 {
		p.Continuation.Token = ""
		return nil, nil
	}

	entries := cont.OnResponseReceivedActions[0].AppendContinuationItemsAction.ContinuationItems
	videos, token := collectEntries(entries, limit)
	p.Continuation.Token = token
	p.Videos = append(p.Videos, videos...)

	slog.Debug("Fetched playlist continuation", "videos", len(videos), "has_more", p.HasMore())
	return videos, nil
}

// FetchRemaining pages until the playlist is exhausted or max videos
// are loaded. Zero max means everything.
func (p *Playlist) FetchRemaining(ctx context.Context, max int) error {
	for p.HasMore() {
		if max > 0 && len(p.Videos) >= max {
			return nil
		}
		batchLimit := 0
		if max > 0 {
			batchLimit = max - len(p.Videos)
		}
		batch, err := p.Next(ctx, batchLimit)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
	}
	return nil
}

type browsePayload struct {
	Context      browseContext `json:"context"`
	Continuation string        `json:"continuation"`
}

type browseContext struct {
	Client browseClient `json:"client"`
}

type browseClient struct {
	UTCOffsetMinutes int    `json:"utcOffsetMinutes"`
	GL               string `json:"gl"`
	HL               string `json:"hl"`
	ClientName       string `json:"clientName"`
	ClientVersion    string `json:"clientVersion"`
}
