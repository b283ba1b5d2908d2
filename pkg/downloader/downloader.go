// Package downloader saves playable formats to disk.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jettucis/play-dl/pkg/request"
	"github.com/Jettucis/play-dl/pkg/youtube"
)

// ErrNoFormat means no format carries a usable URL; protected formats
// need the decipher step first.
var ErrNoFormat = errors.New("no playable format")

type Downloader struct {
	Fetcher      *request.Fetcher
	OutputDir    string
	ShowProgress bool
}

type ProgressWriter struct {
	Total      int64
	Downloaded int64
	LastPrint  time.Time
	Type       string
}

func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n := len(p)
	pw.Downloaded += int64(n)

	if time.Since(pw.LastPrint) > 100*time.Millisecond {
		pw.printProgress()
		pw.LastPrint = time.Now()
	}
	return n, nil
}

func (pw *ProgressWriter) printProgress() {
	mb := float64(pw.Downloaded) / 1024 / 1024

	if pw.Total > 0 {
		percent := float64(pw.Downloaded) / float64(pw.Total) * 100
		totalMb := float64(pw.Total) / 1024 / 1024
		fmt.Printf("\r[%s] %.2f%% (%.2f/%.2f MB)   ", pw.Type, percent, mb, totalMb)
	} else {
		fmt.Printf("\r[%s] Downloading... %.2f MB   ", pw.Type, mb)
	}
}

// Save streams the best playable format of info to the output
// directory and returns the written path.
func (d *Downloader) Save(ctx context.Context, info *youtube.VideoInfo) (string, error) {
	format := PickFormat(info.Streaming.Formats)
	if format == nil {
		return "", ErrNoFormat
	}

	fileName := info.Video.ID + "." + extFromMime(format.MimeType)
	path := filepath.Join(d.OutputDir, fileName)

	slog.Debug("Starting download",
		"id", info.Video.ID,
		"itag", format.Itag,
		"path", path)

	if err := d.SaveURL(ctx, format.URL, path, contentLength(format)); err != nil {
		return "", err
	}
	if d.ShowProgress {
		fmt.Println()
	}
	return path, nil
}

// SaveURL streams one URL to a file. total sizes the progress readout
// and may be zero.
func (d *Downloader) SaveURL(ctx context.Context, url, path string, total int64) error {
	stream, err := d.Fetcher.FetchStream(ctx, url, request.Options{})
	if err != nil {
		return err
	}
	defer func(stream *request.Stream) {
		if cerr := stream.Close(); cerr != nil {
			slog.Warn("Failed to close stream", "err", cerr)
		}
	}(stream)

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func(out *os.File) {
		if cerr := out.Close(); cerr != nil {
			slog.Error("Failed to close output file", "err", cerr)
		}
	}(out)

	var source io.Reader = stream.Body
	if d.ShowProgress {
		if total == 0 {
			total, _ = strconv.ParseInt(stream.Header.Get("Content-Length"), 10, 64)
		}
		source = &progressReaderWrapper{
			Reader: stream.Body,
			Pw:     &ProgressWriter{Total: total, Type: "File", LastPrint: time.Now()},
		}
	}

	_, err = io.Copy(out, source)
	return err
}

// PickFormat chooses what to save: progressive formats beat adaptive
// ones, higher bitrate beats lower, and formats without a URL are
// skipped.
func PickFormat(formats []youtube.Format) *youtube.Format {
	var best *youtube.Format
	bestScore := -1

	for i := range formats {
		f := &formats[i]
		if f.URL == "" {
			continue
		}

		score := 0
		if f.Width > 0 && f.AudioQuality != "" {
			score = 1
		}
		if best == nil || score > bestScore || (score == bestScore && f.Bitrate > best.Bitrate) {
			best = f
			bestScore = score
		}
	}
	return best
}

func contentLength(f *youtube.Format) int64 {
	n, _ := strconv.ParseInt(f.ContentLength, 10, 64)
	return n
}

// extFromMime cuts the subtype out of a mime string such as
// `video/mp4; codecs="avc1"`.
func extFromMime(mime string) string {
	_, rest, found := strings.Cut(mime, "/")
	if !found {
		return "bin"
	}
	ext, _, _ := strings.Cut(rest, ";")
	if ext = strings.TrimSpace(ext); ext != "" {
		return ext
	}
	return "bin"
}

type progressReaderWrapper struct {
	io.Reader
	Pw *ProgressWriter
}

func (p *progressReaderWrapper) Read(b []byte) (int, error) {
	n, err := p.Reader.Read(b)
	if n > 0 {
		_, perr := p.Pw.Write(b[:n])
		if perr != nil {
			return 0, perr
		}
	}
	return n, err
}
