package timeline

import (
	"time"

	"github.com/google/uuid"
)

const (
	TrackKindVideo = "video"
	TrackKindAudio = "audio"

	RevisionStatusQueued    = "queued"
	RevisionStatusRunning   = "running"
	RevisionStatusSucceeded = "succeeded"
	RevisionStatusFailed    = "failed"
)

// Track is an ordered lane holding segments of one media kind.
// Locking and visibility are user toggles and never touch segment data.
type Track struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	Order     int       `json:"order"`
	Height    int       `json:"height"`
	Locked    bool      `json:"locked"`
	Visible   bool      `json:"visible"`
	Muted     bool      `json:"muted"`
	CreatedAt time.Time `json:"created_at"`
}

// Segment is a placed instance of media on a track. InSec/OutSec are timeline
// placement; SourceInSec/SourceOutSec select the span of the underlying media
// actually displayed, which is what makes trimming possible without
// re-encoding.
type Segment struct {
	ID               string      `json:"id"`
	TrackID          string      `json:"track_id"`
	Label            string      `json:"label"`
	MediaID          string      `json:"media_id,omitempty"`
	InSec            float64     `json:"in_sec"`
	OutSec           float64     `json:"out_sec"`
	SourceInSec      float64     `json:"source_in_sec"`
	SourceOutSec     float64     `json:"source_out_sec"`
	LinkGroupID      string      `json:"link_group_id,omitempty"`
	Locked           bool        `json:"locked"`
	ActiveRevisionID string      `json:"active_revision_id,omitempty"`
	Revisions        []*Revision `json:"revisions,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

func (s *Segment) Duration() float64 {
	return s.OutSec - s.InSec
}

// ActiveRevision returns the revision referenced by ActiveRevisionID, or nil.
func (s *Segment) ActiveRevision() *Revision {
	if s.ActiveRevisionID == "" {
		return nil
	}
	for _, r := range s.Revisions {
		if r.ID == s.ActiveRevisionID {
			return r
		}
	}
	return nil
}

func (s *Segment) clone() *Segment {
	c := *s
	c.Revisions = make([]*Revision, len(s.Revisions))
	for i, r := range s.Revisions {
		rc := *r
		c.Revisions[i] = &rc
	}
	return &c
}

// Revision is one generated or approved media asset backing a segment.
// Revisions are append-only; switching the segment's active revision is how
// it becomes a different take without losing history.
type Revision struct {
	ID           string    `json:"id"`
	SegmentID    string    `json:"segment_id"`
	MediaID      string    `json:"media_id"`
	Provider     string    `json:"provider,omitempty"`
	Model        string    `json:"model,omitempty"`
	URL          string    `json:"url,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Status       string    `json:"status"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const (
	ItemKindSegment = "segment"
	ItemKindGap     = "gap"
)

// TrackItem is one element of a track's contiguous item sequence: either a
// segment or a derived gap. Gaps are never persisted.
type TrackItem struct {
	Kind     string   `json:"kind"`
	Segment  *Segment `json:"segment,omitempty"`
	StartSec float64  `json:"start_sec"`
	EndSec   float64  `json:"end_sec"`
}

// Project groups tracks and carries the display frame rate.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	FPS       float64   `json:"fps"`
	CreatedAt time.Time `json:"created_at"`
}

func NewID() string {
	return uuid.NewString()
}
