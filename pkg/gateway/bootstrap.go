package gateway

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Jettucis/play-dl/pkg/cache"
	"github.com/Jettucis/play-dl/pkg/cookies"
	"github.com/Jettucis/play-dl/pkg/downloader"
	"github.com/Jettucis/play-dl/pkg/logger"
	"github.com/Jettucis/play-dl/pkg/request"
	"github.com/Jettucis/play-dl/pkg/youtube"
)

// New creates a ready-to-use Service instance with all necessary dependencies.
func New(cfg Config) (*Service, error) {
	// Setup the logger (globally)
	logger.SetupGlobal(cfg.Debug, false)

	// Set default values
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./downloads"
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 60
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}

	// Create the directory
	absOutDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("invalid output dir: %w", err)
	}
	if err := os.MkdirAll(absOutDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	// Seed the cookie jar
	jar := cookies.NewJar()
	jar.Load(cfg.Cookies)

	// Initialize the HTTP fetcher
	fetcher, err := request.New(jar)
	if err != nil {
		return nil, fmt.Errorf("failed to init http client: %w", err)
	}

	client := youtube.NewClient(fetcher)
	client.Proxies = cfg.Proxies
	client.Decipher = cfg.Decipher

	// Initialize the lookup cache
	var store *cache.Store
	if cfg.RedisURL != "" {
		store, err = cache.NewWithRedis(context.Background(), cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to init cache: %w", err)
		}
	} else {
		store = cache.New(cfg.CacheTTL)
	}

	// Initialize the downloader
	dl := &downloader.Downloader{
		Fetcher:      fetcher,
		OutputDir:    absOutDir,
		ShowProgress: cfg.ShowProgress,
	}

	// Return the service
	return NewService(client, dl, store, cfg.TimeoutSec), nil
}
