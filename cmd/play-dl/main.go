package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Jettucis/play-dl/pkg/api"
	"github.com/Jettucis/play-dl/pkg/gateway"
	"github.com/Jettucis/play-dl/pkg/proxy"
	"github.com/Jettucis/play-dl/pkg/youtube"
)

func main() {
	refFlag := flag.String("url", "", "Video or playlist link, bare id, or search words")
	configPath := flag.String("config", "", "Path to YAML config file")
	outDir := flag.String("out", "./downloads", "Output directory")
	timeoutFlag := flag.Int("timeout", 60, "Max seconds per lookup")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	proxyFlag := flag.String("proxy", "", "Proxy endpoint, [user:pass@]host:port")

	limitFlag := flag.Int("limit", 0, "Cap playlist or search results")
	incompleteFlag := flag.Bool("incomplete", false, "Accept playlists with hidden entries")
	allFlag := flag.Bool("all", false, "Page playlists to the end")
	downloadFlag := flag.Bool("download", false, "Save the best playable format instead of printing")
	dlProgress := flag.Bool("dl-progress", false, "Show console progress bar")

	apiMode := flag.Bool("api", false, "Run in API Server mode")
	apiPort := flag.Int("port", 8080, "Port for API server")
	webMode := flag.Bool("onweb", false, "Enable simple Web UI")

	flag.Parse()

	var cfg gateway.Config
	if *configPath != "" {
		var err error
		cfg, err = gateway.LoadFile(*configPath)
		if err != nil {
			fmt.Printf("Config failed: %v\n", err)
			os.Exit(1)
		}
	}

	// explicit flags win over the config file
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["out"] || cfg.OutputDir == "" {
		cfg.OutputDir = *outDir
	}
	if set["timeout"] || cfg.TimeoutSec == 0 {
		cfg.TimeoutSec = *timeoutFlag
	}
	if set["debug"] {
		cfg.Debug = *debugFlag
	}
	cfg.ShowProgress = *dlProgress

	if *proxyFlag != "" {
		ep, err := proxy.ParseEndpoint(*proxyFlag)
		if err != nil {
			fmt.Printf("Bad proxy: %v\n", err)
			os.Exit(1)
		}
		cfg.Proxies = append(cfg.Proxies, ep)
	}

	gw, err := gateway.New(cfg)
	if err != nil {
		fmt.Printf("Initialization failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := gw.Close(); cerr != nil {
			slog.Warn("Failed to close service", "err", cerr)
		}
	}()

	// API Server
	if *apiMode {
		srv := &api.Server{
			Port:    *apiPort,
			Gateway: gw,
			Host:    fmt.Sprintf("http://localhost:%d", *apiPort),
		}

		go srv.BackgroundCleaner(10 * time.Minute)

		if sterr := srv.Start(*webMode); sterr != nil {
			slog.Error("Server crashed", "err", sterr)
			os.Exit(1)
		}
		return
	}

	// CLI
	ref := *refFlag
	if ref == "" && flag.NArg() > 0 {
		ref = flag.Arg(0)
	}
	if ref == "" {
		slog.Error("Usage: -url <LINK|ID|QUERY> or -api")
		os.Exit(1)
	}

	ctx := context.Background()

	switch youtube.Classify(ref) {
	case youtube.KindVideo:
		if *downloadFlag {
			path, derr := gw.Download(ctx, ref)
			if derr != nil {
				slog.Error("Download failed", "err", derr)
				os.Exit(1)
			}
			slog.Info("Saved", "path", path)
			return
		}

		info, verr := gw.Video(ctx, ref)
		if verr != nil {
			slog.Error("Video lookup failed", "err", verr)
			os.Exit(1)
		}
		printJSON(info)

	case youtube.KindPlaylist:
		p, perr := gw.Playlist(ctx, ref, youtube.PlaylistOptions{
			Incomplete: *incompleteFlag,
			Limit:      *limitFlag,
		})
		if perr != nil {
			slog.Error("Playlist lookup failed", "err", perr)
			os.Exit(1)
		}
		if *allFlag {
			if ferr := p.FetchRemaining(ctx, *limitFlag); ferr != nil {
				slog.Error("Playlist paging failed", "err", ferr)
				os.Exit(1)
			}
		}
		printJSON(p)

	case youtube.KindSearch:
		videos, serr := gw.Search(ctx, ref, *limitFlag)
		if serr != nil {
			slog.Error("Search failed", "err", serr)
			os.Exit(1)
		}
		printJSON(videos)

	default:
		slog.Error("Not a usable reference", "ref", ref)
		os.Exit(1)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		slog.Error("Failed to encode output", "err", err)
		os.Exit(1)
	}
}
