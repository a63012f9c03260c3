package media

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
)

// MediaService is what the HTTP layer needs from media serving.
type MediaService interface {
	ServeMedia(w http.ResponseWriter, r *http.Request, mediaID string) error
}

// Server streams library files over HTTP with byte-range support.
type Server struct {
	library *Library
	logger  *slog.Logger
}

func NewServer(library *Library, logger *slog.Logger) *Server {
	return &Server{library: library, logger: logger}
}

// ServeMedia writes the file for a media id, honoring a single Range header.
// A malformed Range header degrades to a full-file response, matching what
// browsers and players expect.
func (s *Server) ServeMedia(w http.ResponseWriter, r *http.Request, mediaID string) error {
	path, err := s.library.Path(mediaID)
	if err != nil {
		http.Error(w, "media not found", http.StatusNotFound)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			http.Error(w, "media not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("open media: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat media: %w", err)
	}
	size := stat.Size()

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	br, ok, err := ParseRangeHeader(r.Header.Get("Range"), size)
	if errors.Is(err, ErrUnsatisfiable) {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if !ok || errors.Is(err, ErrBadRange) {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		io.Copy(w, file)
		return nil
	}

	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.Header().Set("Content-Range", br.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if _, err := file.Seek(br.Start, io.SeekStart); err != nil {
		return fmt.Errorf("seek media: %w", err)
	}
	io.CopyN(w, file, br.Length())
	return nil
}
