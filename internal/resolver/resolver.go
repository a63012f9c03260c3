// Package resolver turns stable media identifiers into playable URLs by
// asking the studio backend, with a stub twin for offline use and a
// session-lifetime cache in front of either.
package resolver

import (
	"context"
	"errors"
	"log/slog"
)

// ErrNotFound means the backend does not know the media id. Callers degrade
// (placeholder, no preload) rather than failing the timeline.
var ErrNotFound = errors.New("media not resolvable")

// Resolver resolves a media id to a playable URL. Implementations must be
// idempotent: resolving the same id twice yields the same URL.
type Resolver interface {
	Resolve(ctx context.Context, mediaID string) (string, error)
}

// StubResolver answers every lookup with a deterministic local URL. It keeps
// the agent usable when no backend is configured.
type StubResolver struct {
	baseURL string
	logger  *slog.Logger
}

func NewStubResolver(baseURL string, logger *slog.Logger) *StubResolver {
	if baseURL == "" {
		baseURL = "/media"
	}
	return &StubResolver{baseURL: baseURL, logger: logger}
}

func (r *StubResolver) Resolve(ctx context.Context, mediaID string) (string, error) {
	if mediaID == "" {
		return "", ErrNotFound
	}
	url := r.baseURL + "/" + mediaID
	if r.logger != nil {
		r.logger.Debug("resolver stub: resolved locally", "media_id", mediaID, "url", url)
	}
	return url, nil
}
