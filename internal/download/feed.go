package download

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
)

// ChannelFeedURL is the public Atom feed listing a channel's latest uploads.
const ChannelFeedURL = "https://www.youtube.com/feeds/videos.xml"

// FeedEntry is one video listed in a channel feed.
type FeedEntry struct {
	VideoID   string
	Title     string
	URL       string
	Published time.Time
}

// FeedReader lists channel uploads from the YouTube feed.
type FeedReader struct {
	BaseURL string // defaults to ChannelFeedURL
	parser  *gofeed.Parser
}

func NewFeedReader() *FeedReader {
	return &FeedReader{BaseURL: ChannelFeedURL, parser: gofeed.NewParser()}
}

// ChannelVideos returns up to max entries (all when max <= 0), newest first
// as published by the feed.
func (r *FeedReader) ChannelVideos(ctx context.Context, channelID string, max int) ([]FeedEntry, error) {
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return nil, fmt.Errorf("channel id is required")
	}

	u, err := url.Parse(r.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse feed url: %w", err)
	}
	q := u.Query()
	q.Set("channel_id", channelID)
	u.RawQuery = q.Encode()

	// Yes, the parser API has the context backward.
	feed, err := r.parser.ParseURLWithContext(u.String(), ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	var entries []FeedEntry
	for _, item := range feed.Items {
		entry := FeedEntry{
			VideoID: getExtensionField(item.Extensions, "yt", "videoId"),
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
		}
		if item.PublishedParsed != nil {
			entry.Published = *item.PublishedParsed
		}
		if entry.URL == "" && entry.VideoID != "" {
			entry.URL = "https://www.youtube.com/watch?v=" + entry.VideoID
		}
		if entry.URL == "" {
			continue
		}
		entries = append(entries, entry)
		if max > 0 && len(entries) == max {
			break
		}
	}
	return entries, nil
}

func getExtensionField(ext ext.Extensions, ns, name string) string {
	es := ext[ns][name]
	for _, e := range es {
		if e.Name == name {
			return e.Value
		}
	}
	return ""
}

// ChannelFeed lists up to max recent uploads of channelID from the public feed.
func ChannelFeed(ctx context.Context, channelID string, max int) ([]FeedEntry, error) {
	return NewFeedReader().ChannelVideos(ctx, channelID, max)
}
