package youtube

import (
	"fmt"
	"io"
	"strings"
	"testing"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/Jettucis/play-dl/pkg/cookies"
	"github.com/Jettucis/play-dl/pkg/request"
)

// queueDoer answers by URL, consuming one queued response per call, and
// records every request it saw.
type queueDoer struct {
	responses map[string][]*fhttp.Response
	requests  []*fhttp.Request
	bodies    []string
}

func (d *queueDoer) Do(req *fhttp.Request) (*fhttp.Response, error) {
	d.requests = append(d.requests, req)

	body := ""
	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}
	d.bodies = append(d.bodies, body)

	queue := d.responses[req.URL.String()]
	if len(queue) == 0 {
		return pageResponse(404, "not found"), nil
	}
	d.responses[req.URL.String()] = queue[1:]
	return queue[0], nil
}

func pageResponse(status int, body string) *fhttp.Response {
	return &fhttp.Response{
		StatusCode: status,
		Header:     fhttp.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

// testClient wires a client whose fetcher talks to the scripted doer.
func testClient(t *testing.T, doer *queueDoer) *Client {
	t.Helper()
	return NewClient(&request.Fetcher{Client: doer, Jar: cookies.NewJar()})
}

const fixtureVideoID = "dQw4w9WgXcQ"

const fixturePlayer = `{
  "playabilityStatus": {"status": "OK"},
  "videoDetails": {
    "videoId": "dQw4w9WgXcQ",
    "title": "Fixture Video",
    "lengthSeconds": "212",
    "keywords": ["pop", "classic"],
    "channelId": "UCfixture123",
    "shortDescription": "A watch page used by the tests.",
    "thumbnail": {"thumbnails": [
      {"url": "https://i.ytimg.test/vi/default.jpg", "width": 120, "height": 90},
      {"url": "https://i.ytimg.test/vi/maxres.jpg", "width": 1280, "height": 720}
    ]},
    "viewCount": "123,456,789 views",
    "author": "Fixture Author",
    "averageRating": 4.5,
    "isLiveContent": false,
    "isPrivate": false
  },
  "streamingData": {
    "formats": [
      {"itag": 18, "url": "https://rr1.test/progressive", "mimeType": "video/mp4", "bitrate": 500000, "width": 640, "height": 360, "quality": "medium"}
    ],
    "adaptiveFormats": [
      {"itag": 137, "signatureCipher": "s=abc&sp=sig&url=https%3A%2F%2Frr2.test", "mimeType": "video/mp4", "bitrate": 2000000, "width": 1920, "height": 1080, "qualityLabel": "1080p"},
      {"itag": 140, "url": "https://rr3.test/audio", "mimeType": "audio/mp4", "bitrate": 130000, "audioQuality": "AUDIO_QUALITY_MEDIUM"}
    ],
    "dashManifestUrl": "",
    "hlsManifestUrl": ""
  },
  "microformat": {"playerMicroformatRenderer": {
    "publishDate": "2009-10-25",
    "liveBroadcastDetails": {"isLiveNow": false}
  }}
}`

const fixtureWatchNext = `{
  "contents": {"twoColumnWatchNextResults": {
    "results": {"results": {"contents": [
      {"videoPrimaryInfoRenderer": {"title": {"runs": [{"text": "Fixture Video"}]}}},
      {"videoSecondaryInfoRenderer": {"owner": {"videoOwnerRenderer": {
        "badges": [{"metadataBadgeRenderer": {"style": "BADGE_STYLE_TYPE_VERIFIED"}}]
      }}}}
    ]}},
    "secondaryResults": {"secondaryResults": {"results": [
      {"compactVideoRenderer": {"videoId": "relatedID001"}},
      {"compactAutoplayRenderer": {}},
      {"compactVideoRenderer": {"videoId": "relatedID002"}}
    ]}}
  }}
}`

// watchPage lays the two blobs out the way a real watch page does: the
// player response ends at a following declaration, the initial data at
// its closing script tag, and the player config carries jsUrl.
func watchPage(player, next string) string {
	return `<!DOCTYPE html><html><head>` +
		`<script>var ytInitialPlayerResponse = ` + player + `;var meta = ytInitialPlayerResponse;</script>` +
		`<script>var ytInitialData = ` + next + `;</script>` +
		`<script>ytcfg.set({"PLAYER_JS_URL": "ignored", "jsUrl":"/s/player/f1ca6900/player_ias.vflset/en_US/base.js"});</script>` +
		`</head><body></body></html>`
}

const fixtureCaptchaPage = `<html><body>Our systems have detected unusual traffic from your computer network.</body></html>`

// playlist fixtures

const fixturePlaylistID = "PLFgquLnL59alCl4wSrQUnKc2oWT8DTzw5"

func plVideoEntry(id, title, length string) string {
	return fmt.Sprintf(`{"playlistVideoRenderer":{"videoId":%q,"title":{"runs":[{"text":%q}]},"index":{"simpleText":"1"},"shortBylineText":{"runs":[{"text":"Entry Channel","navigationEndpoint":{"browseEndpoint":{"browseId":"UCentry456","canonicalBaseUrl":"/@entrychannel"}}}]},"lengthText":{"simpleText":%q},"thumbnail":{"thumbnails":[{"url":"https://i.ytimg.test/pl/%s.jpg","width":336,"height":188}]}}}`,
		id, title, length, id)
}

func plHiddenEntry(id string) string {
	return fmt.Sprintf(`{"playlistVideoRenderer":{"videoId":%q,"title":{"runs":[{"text":"[Deleted video]"}]},"thumbnail":{"thumbnails":[]}}}`, id)
}

func plContinuationEntry(token string) string {
	return fmt.Sprintf(`{"continuationItemRenderer":{"trigger":"CONTINUATION_TRIGGER_ON_ITEM_SHOWN","continuationEndpoint":{"continuationCommand":{"token":%q,"request":"CONTINUATION_REQUEST_TYPE_BROWSE"}}}}`, token)
}

const fixtureSidebar = `{"items":[` +
	`{"playlistSidebarPrimaryInfoRenderer":{` +
	`"title":{"runs":[{"text":"Fixture Playlist"}]},` +
	`"stats":[` +
	`{"runs":[{"text":"25"},{"text":" videos"}]},` +
	`{"simpleText":"1,234,567 views"},` +
	`{"runs":[{"text":"Last updated on "},{"text":"Jan 5, 2024"}]}` +
	`],` +
	`"thumbnailRenderer":{"playlistVideoThumbnailRenderer":{"thumbnail":{"thumbnails":[` +
	`{"url":"https://i.ytimg.test/side/small.jpg","width":168,"height":94},` +
	`{"url":"https://i.ytimg.test/side/big.jpg","width":336,"height":188}` +
	`]}}}}},` +
	`{"playlistSidebarSecondaryInfoRenderer":{"videoOwner":{"videoOwnerRenderer":{` +
	`"title":{"runs":[{"text":"Owner Name","navigationEndpoint":{"browseEndpoint":{"browseId":"UCowner789","canonicalBaseUrl":"/@ownername"}}}]}` +
	`}}}}` +
	`]}`

const fixtureKeyLine = `ytcfg.set({"INNERTUBE_API_KEY":"AIzaFixtureKey123","INNERTUBE_CONTEXT_CLIENT_VERSION":"2.20240101.01.00"});`

type playlistPageOpts struct {
	id      string
	alerts  string
	entries []string
	sidebar string
	keyLine string
}

// playlistPage assembles initial data the way a real playlist page nests
// it: the item list deep inside the browse contents, the sidebar as the
// last key before the statement ends.
func playlistPage(opts playlistPageOpts) string {
	if opts.id == "" {
		opts.id = fixturePlaylistID
	}
	if opts.sidebar == "" {
		opts.sidebar = fixtureSidebar
	}

	alerts := ""
	if opts.alerts != "" {
		alerts = `"alerts":` + opts.alerts + `,`
	}

	data := `{` + alerts +
		`"contents":{"twoColumnBrowseResultsRenderer":{"tabs":[{"tabRenderer":{"content":{"sectionListRenderer":{"contents":[{"itemSectionRenderer":{"contents":[` +
		`{"playlistVideoListRenderer":{"contents":[` + strings.Join(opts.entries, ",") + `],"playlistId":"` + opts.id + `"}}` +
		`]}}]}}}}]}},` +
		`"microformat":{"microformatDataRenderer":{"urlCanonical":"https://www.youtube.com/playlist?list=` + opts.id + `"}},` +
		`"sidebar":{"playlistSidebarRenderer":` + opts.sidebar + `}}`

	keyLine := opts.keyLine
	if keyLine == "" {
		keyLine = fixtureKeyLine
	}

	return `<!DOCTYPE html><html><head>` +
		`<script>` + keyLine + `</script>` +
		`<script>var ytInitialData = ` + data + `;</script>` +
		`</head><body></body></html>`
}

// continuationBody builds a browse API response carrying more entries.
func continuationBody(entries []string) string {
	return `{"onResponseReceivedActions":[{"appendContinuationItemsAction":{"continuationItems":[` +
		strings.Join(entries, ",") + `]}}]}`
}

// search fixtures

func searchResultEntry(id, title, length, views string) string {
	return fmt.Sprintf(`{"videoRenderer":{"videoId":%q,"title":{"runs":[{"text":%q}]},"lengthText":{"simpleText":%q},"viewCountText":{"simpleText":%q},"ownerText":{"runs":[{"text":"Result Channel","navigationEndpoint":{"browseEndpoint":{"browseId":"UCresult111","canonicalBaseUrl":"/@resultchannel"}}}]},"thumbnail":{"thumbnails":[{"url":"https://i.ytimg.test/sr/%s.jpg","width":360,"height":202}]}}}`,
		id, title, length, views, id)
}

func searchPage(entries []string) string {
	data := `{"contents":{"twoColumnSearchResultsRenderer":{"primaryContents":{"sectionListRenderer":{"contents":[` +
		`{"itemSectionRenderer":{"contents":[` + strings.Join(entries, ",") + `]}},` +
		`{"continuationItemRenderer":{}}` +
		`]}}}}}`

	return `<!DOCTYPE html><html><head>` +
		`<script>var ytInitialData = ` + data + `;</script>` +
		`</head><body></body></html>`
}
