package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/Jettucis/play-dl/pkg/scrape"
)

// SearchOptions control a search.
type SearchOptions struct {
	// Limit caps the results; zero means DefaultSearchLimit.
	Limit int
}

// DefaultSearchLimit is used when no limit is given.
const DefaultSearchLimit = 10

// Search runs a video search and returns result records in page order.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) ([]Video, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: empty search query", ErrInvalidInput)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	params := url.Values{}
	params.Set("search_query", q)
	params.Set("sp", searchFilterVideos)
	params.Set("hl", "en")

	body, err := c.Fetcher.Fetch(ctx, baseURL+"/results?"+params.Encode(), c.pageOptions(false))
	if err != nil {
		return nil, fmt.Errorf("fetch results page: %w", err)
	}

	videos, err := assembleSearch(body, limit)
	if err != nil {
		return nil, err
	}

	slog.Debug("Assembled search results", "query", q, "videos", len(videos))
	return videos, nil
}

func assembleSearch(body string, limit int) ([]Video, error) {
	if strings.Contains(body, markerCaptcha) {
		return nil, ErrCaptcha
	}

	var page searchPageData
	if err := scrape.DecodeStatement(body, markerInitialData, &page); err != nil {
		return nil, fmt.Errorf("initial data: %w", err)
	}

	var videos []Video
	for _, section := range page.Contents.TwoColumnSearchResultsRenderer.PrimaryContents.SectionListRenderer.Contents {
		if section.ItemSectionRenderer == nil {
			continue
		}
		for _, content := range section.ItemSectionRenderer.Contents {
			if content.VideoRenderer == nil || content.VideoRenderer.VideoID == "" {
				continue
			}
			if len(videos) >= limit {
				return videos, nil
			}
			videos = append(videos, searchVideo(content.VideoRenderer))
		}
	}
	return videos, nil
}

func searchVideo(r *searchVideoRenderer) Video {
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
		Views:       digitsOnly(r.ViewCountText.text()),
		Thumbnail:   widest(r.Thumbnail.Thumbnails),
		Channel:     bylineChannel(r.OwnerText.Runs),
	}
}
