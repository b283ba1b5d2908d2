// Package api exposes the gateway over HTTP: JSON lookup endpoints, a
// download endpoint that serves finished files, and a minimal web form.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Jettucis/play-dl/pkg/gateway"
	"github.com/Jettucis/play-dl/pkg/proxy"
	"github.com/Jettucis/play-dl/pkg/request"
	"github.com/Jettucis/play-dl/pkg/scrape"
	"github.com/Jettucis/play-dl/pkg/youtube"
)

type Server struct {
	Port    int
	Host    string
	Gateway *gateway.Service

	mu              sync.Mutex
	activeDownloads map[string]int
}

func (s *Server) Start(enableWeb bool) error {
	addr := fmt.Sprintf(":%d", s.Port)
	fullAddr := fmt.Sprintf("http://localhost:%d", s.Port)
	slog.Info("Starting API server", "addr", fullAddr, "web_ui", enableWeb)
	return http.ListenAndServe(addr, s.Handler(enableWeb))
}

// Handler builds the route table. Split out so tests can drive it
// without a listener.
func (s *Server) Handler(enableWeb bool) http.Handler {
	if s.activeDownloads == nil {
		s.activeDownloads = make(map[string]int)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/video", s.handleVideo)
	mux.HandleFunc("/api/playlist", s.handlePlaylist)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/download", s.handleDownload)
	mux.HandleFunc("/files/", s.handleFileDownload)

	if enableWeb {
		mux.HandleFunc("/", s.handleWebIndex)
	}
	return mux
}

func (s *Server) handleVideo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ref := r.URL.Query().Get("url")
	if ref == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}

	slog.Info("Video lookup requested", "ref", ref, "remote", r.RemoteAddr)

	info, err := s.Gateway.Video(r.Context(), ref)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}
	s.respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	ref := q.Get("url")
	if ref == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("missing url parameter"))
		return
	}

	opts := youtube.PlaylistOptions{
		Incomplete: boolParam(q.Get("incomplete")),
		Limit:      intParam(q.Get("limit")),
	}

	slog.Info("Playlist lookup requested", "ref", ref, "remote", r.RemoteAddr)

	p, err := s.Gateway.Playlist(r.Context(), ref, opts)
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}
	s.respondJSON(w, http.StatusOK, p)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	query := q.Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, errors.New("missing q parameter"))
		return
	}

	slog.Info("Search requested", "query", query, "remote", r.RemoteAddr)

	videos, err := s.Gateway.Search(r.Context(), query, intParam(q.Get("limit")))
	if err != nil {
		s.respondError(w, statusFor(err), err)
		return
	}
	s.respondJSON(w, http.StatusOK, videos)
}

type downloadResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	LocalPath string `json:"local_path,omitempty"`
	FileURL   string `json:"file_url,omitempty"`
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("Download requested", "ref", req.URL, "remote", r.RemoteAddr)

	path, err := s.Gateway.Download(r.Context(), req.URL)
	if err != nil {
		slog.Error("Download failed", "ref", req.URL, "err", err)
		s.respondJSON(w, statusFor(err), downloadResponse{Success: false, Error: err.Error()})
		return
	}

	filename := filepath.Base(path)
	absPath, _ := filepath.Abs(path)
	s.respondJSON(w, http.StatusOK, downloadResponse{
		Success:   true,
		LocalPath: absPath,
		FileURL:   fmt.Sprintf("%s/files/%s", s.Host, filename),
	})
}

func (s *Server) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	filename := strings.TrimPrefix(r.URL.Path, "/files/")
	if filename == "" || strings.Contains(filename, "..") || strings.Contains(filename, "/") {
		http.Error(w, "Invalid filename", http.StatusBadRequest)
		return
	}

	path := filepath.Join(s.Gateway.Downloader.OutputDir, filename)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		http.Error(w, "File not found or expired", http.StatusNotFound)
		return
	}

	s.trackFileStart(filename)
	defer s.trackFileEnd(filename)

	file, err := os.Open(path)
	if err != nil {
		http.Error(w, "File access error", http.StatusInternalServerError)
		return
	}
	defer func(file *os.File) {
		cerr := file.Close()
		if cerr != nil {
			slog.Error("Error closing file", "err", cerr)
		}
	}(file)

	slog.Info("Serving file via API", "file", filename, "remote", r.RemoteAddr)

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	http.ServeContent(w, r, filename, time.Now(), file)
}

// BackgroundCleaner removes finished files older than ttl, skipping
// those still being served.
func (s *Server) BackgroundCleaner(ttl time.Duration) {
	ticker := time.NewTicker(1 * time.Minute)
	for range ticker.C {
		files, err := os.ReadDir(s.Gateway.Downloader.OutputDir)
		if err != nil {
			slog.Error("Cleaner cant read dir", "err", err)
			continue
		}

		for _, f := range files {
			name := f.Name()

			if strings.HasSuffix(name, ".part") {
				continue
			}
			if s.isFileBusy(name) {
				slog.Debug("Skipping busy file", "file", name)
				continue
			}

			info, _ := f.Info()
			if time.Since(info.ModTime()) > ttl {
				fullPath := filepath.Join(s.Gateway.Downloader.OutputDir, name)
				if err := os.Remove(fullPath); err != nil {
					slog.Error("Failed to remove file", "err", err)
				} else {
					slog.Debug("Cleaned up old file", "file", name)
				}
			}
		}
	}
}

func (s *Server) trackFileStart(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeDownloads[filename]++
}

func (s *Server) trackFileEnd(filename string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeDownloads[filename]--
	if s.activeDownloads[filename] <= 0 {
		delete(s.activeDownloads, filename)
	}
}

func (s *Server) isFileBusy(filename string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeDownloads[filename] > 0
}

func (s *Server) handleWebIndex(w http.ResponseWriter, r *http.Request) {
	t, _ := template.New("index").Parse(tmpl)
	if err := t.Execute(w, nil); err != nil {
		slog.Error("Template execution failed", "error", err, "remote", r.RemoteAddr)
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if jerr := json.NewEncoder(w).Encode(data); jerr != nil {
		slog.Error("JSON encoding failed", "error", jerr)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, err error) {
	s.respondJSON(w, status, map[string]string{"error": err.Error()})
}

// statusFor maps lookup errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, youtube.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, youtube.ErrUnavailable):
		return http.StatusNotFound
	case errors.Is(err, youtube.ErrCaptcha):
		return http.StatusServiceUnavailable
	case errors.Is(err, proxy.ErrTunnel),
		errors.Is(err, request.ErrRequestFailed),
		errors.Is(err, scrape.ErrMalformed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func intParam(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func boolParam(s string) bool {
	return s == "1" || strings.EqualFold(s, "true")
}
