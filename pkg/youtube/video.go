package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jettucis/play-dl/pkg/scrape"
)

// Video fetches a watch page and assembles the full record. Formats
// are returned as embedded in the page; run DecipherFormats (or use
// VideoDeciphered) before playing protected ones.
func (c *Client) Video(ctx context.Context, ref string) (*VideoInfo, error) {
	if Classify(ref) != KindVideo {
		return nil, fmt.Errorf("%w: %q is not a watch reference", ErrInvalidInput, ref)
	}
	id, err := ExtractID(ref)
	if err != nil {
		return nil, err
	}

	body, err := c.Fetcher.Fetch(ctx, watchURL(id)+"&hl=en", c.pageOptions(true))
	if err != nil {
		return nil, fmt.Errorf("fetch watch page: %w", err)
	}

	info, err := assembleVideo(body, id)
	if err != nil {
		return nil, err
	}

	slog.Debug("Assembled video record",
		"id", info.Video.ID,
		"formats", len(info.Streaming.Formats),
		"live", info.Streaming.Live)
	return info, nil
}

// VideoDeciphered is Video followed by the decipher step.
func (c *Client) VideoDeciphered(ctx context.Context, ref string) (*VideoInfo, error) {
	info, err := c.Video(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := c.DecipherFormats(ctx, info); err != nil {
		return nil, err
	}
	return info, nil
}

func assembleVideo(body, id string) (*VideoInfo, error) {
	if strings.Contains(body, markerCaptcha) {
		return nil, ErrCaptcha
	}

	var player playerResponse
	if err := scrape.DecodeStatement(body, markerPlayerResponse, &player); err != nil {
		return nil, fmt.Errorf("player response: %w", err)
	}

	if status := player.PlayabilityStatus.Status; status != "OK" {
		return nil, &UnavailableError{Reason: unavailableReason(player)}
	}

	var next watchNextData
	if err := scrape.DecodeStatement(body, markerInitialData, &next); err != nil {
		return nil, fmt.Errorf("initial data: %w", err)
	}

	jsPath, err := scrape.Fragment(body, markerPlayerJS, `"`)
	if err != nil {
		return nil, fmt.Errorf("player script url: %w", err)
	}

	details := player.VideoDetails
	if id == "" {
		id = details.VideoID
	}
	duration := atoiSafe(details.LengthSeconds)
	verified, artist := ownerBadges(next)

	video := Video{
		ID:          id,
		URL:         watchURL(id),
		Title:       details.Title,
		Description: details.ShortDescription,
		DurationSec: duration,
		DurationRaw: FormatSeconds(duration),
		UploadedAt:  player.Microformat.PlayerMicroformatRenderer.PublishDate,
		Views:       digitsOnly(details.ViewCount),
		Thumbnail:   widest(details.Thumbnail.Thumbnails),
		Channel: &Channel{
			Name:     details.Author,
			ID:       details.ChannelID,
			URL:      baseURL + "/channel/" + details.ChannelID,
			Verified: verified,
			Artist:   artist,
		},
		Tags:          details.Keywords,
		AverageRating: details.AverageRating,
		Live:          details.IsLiveContent,
		Private:       details.IsPrivate,
	}

	streaming := StreamingInfo{
		Live:     details.IsLiveContent,
		DashURL:  player.StreamingData.DashManifestURL,
		HlsURL:   player.StreamingData.HlsManifestURL,
		PlayerJS: baseURL + jsPath,
		Formats: append(
			append([]Format{}, player.StreamingData.Formats...),
			player.StreamingData.AdaptiveFormats...),
	}

	return &VideoInfo{
		Video:     video,
		Streaming: streaming,
		Related:   relatedLinks(next),
	}, nil
}

func unavailableReason(player playerResponse) string {
	screen := player.PlayabilityStatus.ErrorScreen.PlayerErrorMessageRenderer
	if reason := screen.Reason.text(); reason != "" {
		return reason
	}
	if sub := screen.Subreason.text(); sub != "" {
		return sub
	}
	return player.PlayabilityStatus.Reason
}

// ownerBadges scans the watch-next contents for the owner's badge
// style. Matching is a case-insensitive substring check.
func ownerBadges(next watchNextData) (verified, artist bool) {
	for _, content := range next.Contents.TwoColumnWatchNextResults.Results.Results.Contents {
		if content.VideoSecondaryInfoRenderer == nil {
			continue
		}
		for _, badge := range content.VideoSecondaryInfoRenderer.Owner.VideoOwnerRenderer.Badges {
			style := strings.ToLower(badge.MetadataBadgeRenderer.Style)
			if strings.Contains(style, "verified") {
				verified = true
			}
			if strings.Contains(style, "artist") {
				artist = true
			}
		}
	}
	return verified, artist
}

func relatedLinks(next watchNextData) []string {
	var links []string
	for _, result := range next.Contents.TwoColumnWatchNextResults.SecondaryResults.SecondaryResults.Results {
		if result.CompactVideoRenderer == nil || result.CompactVideoRenderer.VideoID == "" {
			continue
		}
		links = append(links, watchURL(result.CompactVideoRenderer.VideoID))
	}
	return links
}
