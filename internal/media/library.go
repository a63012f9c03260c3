// Package media locates and serves the local media files behind segment
// revisions. Files live flat under one library directory, named by media id;
// serving supports byte ranges so decoder slots can seek without downloading
// whole files.
package media

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var ErrMediaNotFound = errors.New("media file not found")

// videoExtensions are the container formats the library recognizes, in
// lookup order.
var videoExtensions = []string{".mp4", ".mov", ".webm", ".m4v", ".mkv"}

// Library maps media ids to files under a single root directory.
type Library struct {
	root string
}

func NewLibrary(root string) *Library {
	return &Library{root: root}
}

func (l *Library) Root() string {
	return l.root
}

// Path resolves a media id to an absolute file path, trying each known
// extension. Ids carrying path separators or traversal are rejected outright.
func (l *Library) Path(mediaID string) (string, error) {
	if mediaID == "" || strings.ContainsAny(mediaID, `/\`) || strings.Contains(mediaID, "..") {
		return "", ErrMediaNotFound
	}
	for _, ext := range videoExtensions {
		p := filepath.Join(l.root, mediaID+ext)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", ErrMediaNotFound
}
