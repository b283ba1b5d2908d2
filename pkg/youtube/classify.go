package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind tags what a reference points at.
type Kind int

const (
	KindInvalid Kind = iota
	KindVideo
	KindPlaylist
	KindSearch
)

func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindPlaylist:
		return "playlist"
	case KindSearch:
		return "search"
	default:
		return "invalid"
	}
}

var (
	videoIDRe    = regexp.MustCompile(`^[a-zA-Z\d_-]{11,12}$`)
	playlistIDRe = regexp.MustCompile(`^(?:PL|UU|LL|RD|OL)[a-zA-Z\d_-]{10,}$`)

	videoLinkRe    = regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/(?:watch\?v=|embed/|shorts/)|^https?://youtu\.be/`)
	playlistLinkRe = regexp.MustCompile(`^https?://(?:www\.)?youtube\.com/(?:playlist|watch)\?`)
)

// videoAnchors are the link shapes a video id can follow, in the order
// they are probed.
var videoAnchors = []string{"youtu.be/", "embed/", "shorts/", "watch?v="}

// Classify decides what kind of reference the input is. Links carrying
// a list= parameter must match the strict playlist-link shape or they
// are invalid; they never fall through to search. Bare strings that are
// neither a video id nor a playlist id become search queries.
func Classify(ref string) Kind {
	s := strings.TrimSpace(ref)
	if s == "" {
		return KindInvalid
	}

	if strings.Contains(s, "list=") {
		if playlistLinkRe.MatchString(s) {
			return KindPlaylist
		}
		return KindInvalid
	}

	if isLink(s) {
		if !videoLinkRe.MatchString(s) {
			return KindInvalid
		}
		if videoIDRe.MatchString(videoIDFromLink(s)) {
			return KindVideo
		}
		return KindInvalid
	}

	switch {
	case videoIDRe.MatchString(s):
		return KindVideo
	case playlistIDRe.MatchString(s):
		return KindPlaylist
	default:
		return KindSearch
	}
}

// ExtractID pulls the video or playlist id out of a reference. Search
// queries and invalid references have no id.
func ExtractID(ref string) (string, error) {
	s := strings.TrimSpace(ref)

	switch Classify(s) {
	case KindVideo:
		if isLink(s) {
			return videoIDFromLink(s), nil
		}
		return s, nil
	case KindPlaylist:
		if strings.Contains(s, "list=") {
			_, rest, _ := strings.Cut(s, "list=")
			id, _, _ := strings.Cut(rest, "&")
			return id, nil
		}
		return s, nil
	default:
		return "", fmt.Errorf("%w: no id in %q", ErrInvalidInput, ref)
	}
}

func isLink(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

// videoIDFromLink cuts the id after the first matching anchor,
// truncating at the first of "?", "/", or "&".
func videoIDFromLink(s string) string {
	for _, anchor := range videoAnchors {
		_, rest, found := strings.Cut(s, anchor)
		if !found {
			continue
		}
		return truncateID(rest)
	}
	return ""
}

func truncateID(s string) string {
	if i := strings.IndexAny(s, "?/&"); i >= 0 {
		return s[:i]
	}
	return s
}
