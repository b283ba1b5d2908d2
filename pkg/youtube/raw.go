package youtube

// Raw shapes for the JSON fragments embedded in page HTML. Only the
// fields the assemblers read are declared.

type textRun struct {
	Text string `json:"text"`
}

type bylineRun struct {
	Text               string `json:"text"`
	NavigationEndpoint struct {
		BrowseEndpoint struct {
			BrowseID         string `json:"browseId"`
			CanonicalBaseURL string `json:"canonicalBaseUrl"`
		} `json:"browseEndpoint"`
	} `json:"navigationEndpoint"`
}

type rawThumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type thumbnailSet struct {
	Thumbnails []rawThumbnail `json:"thumbnails"`
}

type simpleText struct {
	SimpleText string    `json:"simpleText"`
	Runs       []textRun `json:"runs"`
}

func (t simpleText) text() string {
	if t.SimpleText != "" {
		return t.SimpleText
	}
	return runsText(t.Runs)
}

// playerResponse is the watch page's player blob.
type playerResponse struct {
	PlayabilityStatus struct {
		Status      string `json:"status"`
		Reason      string `json:"reason"`
		ErrorScreen struct {
			PlayerErrorMessageRenderer struct {
				Reason    simpleText `json:"reason"`
				Subreason simpleText `json:"subreason"`
			} `json:"playerErrorMessageRenderer"`
		} `json:"errorScreen"`
	} `json:"playabilityStatus"`

	VideoDetails struct {
		VideoID          string       `json:"videoId"`
		Title            string       `json:"title"`
		LengthSeconds    string       `json:"lengthSeconds"`
		Keywords         []string     `json:"keywords"`
		ChannelID        string       `json:"channelId"`
		ShortDescription string       `json:"shortDescription"`
		Thumbnail        thumbnailSet `json:"thumbnail"`
		ViewCount        string       `json:"viewCount"`
		Author           string       `json:"author"`
		AverageRating    float64      `json:"averageRating"`
		IsLiveContent    bool         `json:"isLiveContent"`
		IsPrivate        bool         `json:"isPrivate"`
	} `json:"videoDetails"`

	StreamingData struct {
		Formats         []Format `json:"formats"`
		AdaptiveFormats []Format `json:"adaptiveFormats"`
		DashManifestURL string   `json:"dashManifestUrl"`
		HlsManifestURL  string   `json:"hlsManifestUrl"`
	} `json:"streamingData"`

	Microformat struct {
		PlayerMicroformatRenderer struct {
			PublishDate          string `json:"publishDate"`
			LiveBroadcastDetails struct {
				IsLiveNow      bool   `json:"isLiveNow"`
				StartTimestamp string `json:"startTimestamp"`
			} `json:"liveBroadcastDetails"`
		} `json:"playerMicroformatRenderer"`
	} `json:"microformat"`
}

// watchNextData is the watch page's initial-data blob.
type watchNextData struct {
	Contents struct {
		TwoColumnWatchNextResults struct {
			Results struct {
				Results struct {
					Contents []struct {
						VideoSecondaryInfoRenderer *struct {
							Owner struct {
								VideoOwnerRenderer struct {
									Badges []struct {
										MetadataBadgeRenderer struct {
											Style string `json:"style"`
										} `json:"metadataBadgeRenderer"`
									} `json:"badges"`
								} `json:"videoOwnerRenderer"`
							} `json:"owner"`
						} `json:"videoSecondaryInfoRenderer"`
					} `json:"contents"`
				} `json:"results"`
			} `json:"results"`

			SecondaryResults struct {
				SecondaryResults struct {
					Results []struct {
						CompactVideoRenderer *struct {
							VideoID string `json:"videoId"`
						} `json:"compactVideoRenderer"`
					} `json:"results"`
				} `json:"secondaryResults"`
			} `json:"secondaryResults"`
		} `json:"twoColumnWatchNextResults"`
	} `json:"contents"`
}

// playlistPageData is the part of a playlist page's initial data the
// assembler reads directly: alerts and the canonical link.
type playlistPageData struct {
	Alerts []struct {
		AlertRenderer           *alertBody `json:"alertRenderer"`
		AlertWithButtonRenderer *alertBody `json:"alertWithButtonRenderer"`
	} `json:"alerts"`

	Microformat struct {
		MicroformatDataRenderer struct {
			URLCanonical string `json:"urlCanonical"`
		} `json:"microformatDataRenderer"`
	} `json:"microformat"`
}

type alertBody struct {
	Type string     `json:"type"`
	Text simpleText `json:"text"`
}

// playlistEntry is one element of the raw playlist item list; either a
// video renderer or the single continuation item.
type playlistEntry struct {
	PlaylistVideoRenderer    *playlistVideoRenderer `json:"playlistVideoRenderer"`
	ContinuationItemRenderer *continuationItem      `json:"continuationItemRenderer"`
}

type playlistVideoRenderer struct {
	VideoID         string       `json:"videoId"`
	Title           simpleText   `json:"title"`
	LengthText      simpleText   `json:"lengthText"`
	Thumbnail       thumbnailSet `json:"thumbnail"`
	ShortBylineText *struct {
		Runs []bylineRun `json:"runs"`
	} `json:"shortBylineText"`
}

type continuationItem struct {
	ContinuationEndpoint struct {
		ContinuationCommand struct {
			Token string `json:"token"`
		} `json:"continuationCommand"`
	} `json:"continuationEndpoint"`
}

// sidebarData is the playlist sidebar block.
type sidebarData struct {
	Items []struct {
		Primary   *sidebarPrimary   `json:"playlistSidebarPrimaryInfoRenderer"`
		Secondary *sidebarSecondary `json:"playlistSidebarSecondaryInfoRenderer"`
	} `json:"items"`
}

type sidebarPrimary struct {
	Title             simpleText   `json:"title"`
	Stats             []simpleText `json:"stats"`
	ThumbnailRenderer struct {
		PlaylistVideoThumbnailRenderer *struct {
			Thumbnail thumbnailSet `json:"thumbnail"`
		} `json:"playlistVideoThumbnailRenderer"`
		PlaylistCustomThumbnailRenderer *struct {
			Thumbnail thumbnailSet `json:"thumbnail"`
		} `json:"playlistCustomThumbnailRenderer"`
	} `json:"thumbnailRenderer"`
}

type sidebarSecondary struct {
	VideoOwner struct {
		VideoOwnerRenderer struct {
			Title struct {
				Runs []bylineRun `json:"runs"`
			} `json:"title"`
		} `json:"videoOwnerRenderer"`
	} `json:"videoOwner"`
}

// continuationResponse is the browse API's answer to a continuation
// request.
type continuationResponse struct {
	OnResponseReceivedActions []struct {
		AppendContinuationItemsAction struct {
			ContinuationItems []playlistEntry `json:"continuationItems"`
		} `json:"appendContinuationItemsAction"`
	} `json:"onResponseReceivedActions"`
}

// searchPageData is the results page's initial-data blob.
type searchPageData struct {
	Contents struct {
		TwoColumnSearchResultsRenderer struct {
			PrimaryContents struct {
				SectionListRenderer struct {
					Contents []struct {
						ItemSectionRenderer *struct {
							Contents []struct {
								VideoRenderer *searchVideoRenderer `json:"videoRenderer"`
							} `json:"contents"`
						} `json:"itemSectionRenderer"`
					} `json:"contents"`
				} `json:"sectionListRenderer"`
			} `json:"primaryContents"`
		} `json:"twoColumnSearchResultsRenderer"`
	} `json:"contents"`
}

type searchVideoRenderer struct {
	VideoID    string       `json:"videoId"`
	Title      simpleText   `json:"title"`
	LengthText simpleText   `json:"lengthText"`
	Thumbnail  thumbnailSet `json:"thumbnail"`
	OwnerText  struct {
		Runs []bylineRun `json:"runs"`
	} `json:"ownerText"`
	ViewCountText simpleText `json:"viewCountText"`
}
