package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service loads projects into in-memory sequences and persists editorial
// changes back through the repository. Edits themselves happen on the
// Sequence via the edit engine; the service only moves state across the
// memory/store boundary.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateProject creates a project with one video and one audio track, the
// layout every fresh timeline starts from.
func (s *Service) CreateProject(ctx context.Context, name string, fps float64) (*Project, error) {
	if name == "" {
		name = "Untitled Project"
	}
	if fps <= 0 {
		fps = 30
	}

	project := &Project{
		ID:        NewID(),
		Name:      name,
		FPS:       fps,
		CreatedAt: time.Now(),
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	now := time.Now()
	tracks := []*Track{
		{ID: NewID(), ProjectID: project.ID, Kind: TrackKindVideo, Name: "V1", Order: 0, Height: 64, Visible: true, CreatedAt: now},
		{ID: NewID(), ProjectID: project.ID, Kind: TrackKindAudio, Name: "A1", Order: 1, Height: 40, Visible: true, CreatedAt: now},
	}
	for _, t := range tracks {
		if err := s.repo.CreateTrack(ctx, t); err != nil {
			return nil, fmt.Errorf("create track %s: %w", t.Name, err)
		}
	}

	if s.logger != nil {
		s.logger.Info("project created", "project_id", project.ID, "name", name, "fps", fps)
	}
	return project, nil
}

// LoadSequence materializes a project's tracks, segments, and revision
// histories into an in-memory sequence.
func (s *Service) LoadSequence(ctx context.Context, projectID string) (*Sequence, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, fmt.Errorf("project %s: %w", projectID, ErrTrackNotFound)
	}

	seq := NewSequence(*project)

	tracks, err := s.repo.GetTracksByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}

	segmentCount := 0
	for _, t := range tracks {
		seq.AddTrack(t)

		segments, err := s.repo.GetSegmentsByTrack(ctx, t.ID)
		if err != nil {
			return nil, fmt.Errorf("load segments for track %s: %w", t.ID, err)
		}
		for _, seg := range segments {
			revisions, err := s.repo.GetRevisionsBySegment(ctx, seg.ID)
			if err != nil {
				return nil, fmt.Errorf("load revisions for segment %s: %w", seg.ID, err)
			}
			seg.Revisions = revisions

			if err := seq.AddSegment(seg); err != nil {
				// A structurally bad row degrades to a skipped segment
				// rather than blocking the whole project.
				if s.logger != nil {
					s.logger.Warn("skipping invalid segment", "segment_id", seg.ID, "error", err)
				}
				continue
			}
			segmentCount++
		}
	}

	if s.logger != nil {
		s.logger.Info("sequence loaded", "project_id", projectID, "tracks", len(tracks), "segments", segmentCount)
	}
	return seq, nil
}

// PlaceMedia creates a segment on a track backed by a queued revision for the
// given media, both in memory and in the store.
func (s *Service) PlaceMedia(ctx context.Context, seq *Sequence, trackID, label, mediaID string, at, duration float64, linkGroupID string) (*Segment, error) {
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if at < 0 {
		at = 0
	}

	now := time.Now()
	seg := &Segment{
		ID:           NewID(),
		TrackID:      trackID,
		Label:        label,
		MediaID:      mediaID,
		InSec:        at,
		OutSec:       at + duration,
		SourceInSec:  0,
		SourceOutSec: duration,
		LinkGroupID:  linkGroupID,
		CreatedAt:    now,
	}
	rev := &Revision{
		ID:        NewID(),
		SegmentID: seg.ID,
		MediaID:   mediaID,
		Status:    RevisionStatusQueued,
		CreatedAt: now,
	}
	seg.Revisions = []*Revision{rev}
	seg.ActiveRevisionID = rev.ID

	if err := seq.AddSegment(seg); err != nil {
		return nil, err
	}

	if err := s.repo.CreateSegment(ctx, seg); err != nil {
		seq.RemoveSegment(seg.ID)
		return nil, fmt.Errorf("persist segment: %w", err)
	}
	if err := s.repo.CreateRevision(ctx, rev); err != nil {
		return nil, fmt.Errorf("persist revision: %w", err)
	}
	if err := s.repo.UpdateSegmentActiveRevision(ctx, seg.ID, rev.ID); err != nil {
		return nil, fmt.Errorf("persist active revision: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("media placed", "segment_id", seg.ID, "track_id", trackID, "at", at, "duration", duration)
	}
	return seg, nil
}

// SaveSegment persists a segment's current in-memory placement and source
// window after an edit.
func (s *Service) SaveSegment(ctx context.Context, seq *Sequence, id string) error {
	seg, err := seq.Segment(id)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateSegmentSpan(ctx, id, seg.InSec, seg.OutSec); err != nil {
		return fmt.Errorf("persist span: %w", err)
	}
	if err := s.repo.UpdateSegmentSource(ctx, id, seg.SourceInSec, seg.SourceOutSec); err != nil {
		return fmt.Errorf("persist source window: %w", err)
	}
	return nil
}

// DeleteSegment removes a segment from memory and store.
func (s *Service) DeleteSegment(ctx context.Context, seq *Sequence, id string) error {
	if err := seq.RemoveSegment(id); err != nil {
		return err
	}
	if err := s.repo.DeleteSegment(ctx, id); err != nil {
		return fmt.Errorf("delete segment: %w", err)
	}
	if s.logger != nil {
		s.logger.Info("segment deleted", "segment_id", id)
	}
	return nil
}

// SwitchRevision makes a different take active for a segment.
func (s *Service) SwitchRevision(ctx context.Context, seq *Sequence, segmentID, revisionID string) error {
	if err := seq.SetActiveRevision(segmentID, revisionID); err != nil {
		return err
	}
	if err := s.repo.UpdateSegmentActiveRevision(ctx, segmentID, revisionID); err != nil {
		return fmt.Errorf("persist active revision: %w", err)
	}
	return nil
}
