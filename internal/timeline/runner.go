package timeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cutroom/cutroom-agent/internal/resolver"
)

// RevisionRunner is a background poller that moves queued revisions through
// their lifecycle: it resolves each revision's media id to a playable URL and
// marks the revision succeeded or failed, in both the store and the live
// sequence.
type RevisionRunner struct {
	repo         Repository
	res          resolver.Resolver
	seq          *Sequence
	logger       *slog.Logger
	pollInterval time.Duration
	running      atomic.Bool
	paused       atomic.Bool
}

func NewRevisionRunner(repo Repository, res resolver.Resolver, seq *Sequence, logger *slog.Logger) *RevisionRunner {
	return &RevisionRunner{
		repo:         repo,
		res:          res,
		seq:          seq,
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

func (r *RevisionRunner) Start(ctx context.Context) {
	if r.running.Swap(true) {
		return
	}

	r.logger.Info("revision runner started")

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("revision runner stopping")
			r.running.Store(false)
			return
		case <-ticker.C:
			if !r.paused.Load() {
				r.processNext(ctx)
			}
		}
	}
}

func (r *RevisionRunner) Pause() {
	r.paused.Store(true)
	r.logger.Info("revision runner paused")
}

func (r *RevisionRunner) Resume() {
	r.paused.Store(false)
	r.logger.Info("revision runner resumed")
}

func (r *RevisionRunner) IsPaused() bool {
	return r.paused.Load()
}

func (r *RevisionRunner) IsRunning() bool {
	return r.running.Load()
}

func (r *RevisionRunner) processNext(ctx context.Context) {
	queued, err := r.repo.ListRevisionsByStatus(ctx, RevisionStatusQueued)
	if err != nil {
		r.logger.Error("failed to list queued revisions", "error", err)
		return
	}
	if len(queued) == 0 {
		return
	}

	rev := queued[0]
	r.logger.Info("resolving revision", "revision_id", rev.ID, "segment_id", rev.SegmentID, "media_id", rev.MediaID)

	r.setStatus(ctx, rev, RevisionStatusRunning, "", "")

	url, err := r.res.Resolve(ctx, rev.MediaID)
	if err != nil {
		if errors.Is(err, resolver.ErrNotFound) {
			r.setStatus(ctx, rev, RevisionStatusFailed, "", "media not resolvable")
			return
		}
		var resolveErr *resolver.ResolveError
		if errors.As(err, &resolveErr) && resolveErr.IsRetryable() {
			// Put it back in the queue; a later tick retries.
			r.logger.Warn("resolve failed, will retry", "revision_id", rev.ID, "error", err)
			r.setStatus(ctx, rev, RevisionStatusQueued, "", "")
			return
		}
		r.setStatus(ctx, rev, RevisionStatusFailed, "", err.Error())
		return
	}

	r.setStatus(ctx, rev, RevisionStatusSucceeded, url, "")
	r.logger.Info("revision resolved", "revision_id", rev.ID, "url", url)
}

func (r *RevisionRunner) setStatus(ctx context.Context, rev *Revision, status, url, errMsg string) {
	if err := r.repo.UpdateRevision(ctx, rev.ID, status, url, errMsg); err != nil {
		r.logger.Error("failed to update revision", "revision_id", rev.ID, "error", err)
	}
	if r.seq != nil {
		if err := r.seq.UpdateRevision(rev.SegmentID, rev.ID, status, url, errMsg); err != nil {
			r.logger.Warn("revision not in live sequence", "revision_id", rev.ID, "error", err)
		}
	}
}

// CountByStatus reports how many revisions sit in a lifecycle state.
func (r *RevisionRunner) CountByStatus(ctx context.Context, status string) int {
	revisions, err := r.repo.ListRevisionsByStatus(ctx, status)
	if err != nil {
		return 0
	}
	return len(revisions)
}
