// Package gateway wires the lookup client, cache, and downloader into
// one service behind a single config.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Jettucis/play-dl/pkg/cache"
	"github.com/Jettucis/play-dl/pkg/downloader"
	"github.com/Jettucis/play-dl/pkg/youtube"
)

type Service struct {
	Client     *youtube.Client
	Downloader *downloader.Downloader
	Cache      *cache.Store
	Timeout    time.Duration
}

func NewService(client *youtube.Client, dl *downloader.Downloader, store *cache.Store, timeoutSec int) *Service {
	if timeoutSec <= 0 {
		timeoutSec = 60
	}
	return &Service{
		Client:     client,
		Downloader: dl,
		Cache:      store,
		Timeout:    time.Duration(timeoutSec) * time.Second,
	}
}

// Video looks up a watch reference, serving repeat lookups from the
// cache.
func (s *Service) Video(ctx context.Context, ref string) (*youtube.VideoInfo, error) {
	id, err := youtube.ExtractID(ref)
	if err != nil {
		return nil, err
	}
	key := cache.Key("video", id)

	if data, ok := s.cacheGet(ctx, key); ok {
		var info youtube.VideoInfo
		if json.Unmarshal(data, &info) == nil {
			slog.Debug("Video served from cache", "id", id)
			return &info, nil
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	info, err := s.Client.Video(opCtx, ref)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, info)
	return info, nil
}

// Playlist looks up a playlist reference. Cached playlists are
// re-attached to the client so paging keeps working.
func (s *Service) Playlist(ctx context.Context, ref string, opts youtube.PlaylistOptions) (*youtube.Playlist, error) {
	id, err := youtube.ExtractID(ref)
	if err != nil {
		return nil, err
	}
	key := cache.Key("playlist", id, fmt.Sprintf("%t:%d", opts.Incomplete, opts.Limit))

	if data, ok := s.cacheGet(ctx, key); ok {
		var p youtube.Playlist
		if json.Unmarshal(data, &p) == nil {
			p.Attach(s.Client)
			slog.Debug("Playlist served from cache", "id", id)
			return &p, nil
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	p, err := s.Client.Playlist(opCtx, ref, opts)
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, p)
	return p, nil
}

// Search runs a video search, serving repeat queries from the cache.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]youtube.Video, error) {
	key := cache.Key("search", query, strconv.Itoa(limit))

	if data, ok := s.cacheGet(ctx, key); ok {
		var videos []youtube.Video
		if json.Unmarshal(data, &videos) == nil {
			slog.Debug("Search served from cache", "query", query)
			return videos, nil
		}
	}

	opCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	videos, err := s.Client.Search(opCtx, query, youtube.SearchOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	s.cachePut(ctx, key, videos)
	return videos, nil
}

// Download looks the video up, runs the decipher step, and saves the
// best playable format.
func (s *Service) Download(ctx context.Context, ref string) (string, error) {
	info, err := s.Video(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := s.Client.DecipherFormats(ctx, info); err != nil {
		return "", err
	}

	path, err := s.Downloader.Save(ctx, info)
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	slog.Info("Download finished", "id", info.Video.ID, "path", path)
	return path, nil
}

// Close releases the cache.
func (s *Service) Close() error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Close()
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.Cache == nil {
		return nil, false
	}
	return s.Cache.Get(ctx, key)
}

func (s *Service) cachePut(ctx context.Context, key string, v any) {
	if s.Cache == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		slog.Warn("Failed to encode cache entry", "key", key, "err", err)
		return
	}
	s.Cache.Set(ctx, key, data)
}
