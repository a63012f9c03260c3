package api

import (
	"time"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	UptimeS int64  `json:"uptime_s"`
}

type StatusResponse struct {
	State             string  `json:"state"`
	ProjectID         string  `json:"project_id"`
	ProjectName       string  `json:"project_name"`
	FPS               float64 `json:"fps"`
	Tracks            int     `json:"tracks"`
	Segments          int     `json:"segments"`
	DurationSec       float64 `json:"duration_sec"`
	RevisionsQueued   int     `json:"revisions_queued"`
	RevisionsRunning  int     `json:"revisions_running"`
	ResolutionsPaused bool    `json:"resolutions_paused"`
	Playing           bool    `json:"playing"`
}

type ProjectResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	FPS       float64 `json:"fps"`
	CreatedAt string  `json:"created_at"`
}

type TrackResponse struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Height  int    `json:"height"`
	Locked  bool   `json:"locked"`
	Visible bool   `json:"visible"`
	Muted   bool   `json:"muted"`
}

type TracksResponse struct {
	Tracks []TrackResponse `json:"tracks"`
}

type SegmentResponse struct {
	ID               string             `json:"id"`
	TrackID          string             `json:"track_id"`
	Label            string             `json:"label"`
	MediaID          string             `json:"media_id,omitempty"`
	InSec            float64            `json:"in_sec"`
	OutSec           float64            `json:"out_sec"`
	SourceInSec      float64            `json:"source_in_sec"`
	SourceOutSec     float64            `json:"source_out_sec"`
	LinkGroupID      string             `json:"link_group_id,omitempty"`
	Locked           bool               `json:"locked"`
	ActiveRevisionID string             `json:"active_revision_id,omitempty"`
	Revisions        []RevisionResponse `json:"revisions,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

type SegmentsResponse struct {
	Segments []SegmentResponse `json:"segments"`
}

type RevisionResponse struct {
	ID           string `json:"id"`
	MediaID      string `json:"media_id"`
	URL          string `json:"url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Status       string `json:"status"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
}

// ItemResponse is one element of a track's contiguous item sequence. Gaps
// carry no segment.
type ItemResponse struct {
	Kind     string           `json:"kind"`
	StartSec float64          `json:"start_sec"`
	EndSec   float64          `json:"end_sec"`
	Segment  *SegmentResponse `json:"segment,omitempty"`
}

type ItemsResponse struct {
	Items []ItemResponse `json:"items"`
}

type TimelineResponse struct {
	Project     ProjectResponse `json:"project"`
	DurationSec float64         `json:"duration_sec"`
	Tracks      []TrackResponse `json:"tracks"`
}

type SnapEdgesResponse struct {
	Edges []float64 `json:"edges"`
}

type PlaceSegmentRequest struct {
	TrackID     string  `json:"track_id"`
	Label       string  `json:"label"`
	MediaID     string  `json:"media_id"`
	AtSec       float64 `json:"at_sec"`
	DurationSec float64 `json:"duration_sec"`
	LinkGroupID string  `json:"link_group_id,omitempty"`
}

type MoveRequest struct {
	InSec float64 `json:"in_sec"`
}

type TrimRequest struct {
	Edge    string  `json:"edge"`
	TimeSec float64 `json:"time_sec"`
	Mode    string  `json:"mode,omitempty"`
}

type CloseGapRequest struct {
	AtSec float64 `json:"at_sec"`
}

type TrackFlagsRequest struct {
	Locked  bool `json:"locked"`
	Visible bool `json:"visible"`
	Muted   bool `json:"muted"`
}

type DragMoveRequest struct {
	SegmentID string `json:"segment_id"`
}

type DragTrimRequest struct {
	SegmentID string `json:"segment_id"`
	Edge      string `json:"edge"`
	Mode      string `json:"mode,omitempty"`
}

type DragUpdateRequest struct {
	DeltaPx     float64 `json:"delta_px"`
	PlayheadSec float64 `json:"playhead_sec"`
}

type DragStateResponse struct {
	State string `json:"state"`
}

type PlayheadRequest struct {
	PlayheadSec float64 `json:"playhead_sec"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ProjectToResponse(p timeline.Project) ProjectResponse {
	return ProjectResponse{
		ID:        p.ID,
		Name:      p.Name,
		FPS:       p.FPS,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func TrackToResponse(t *timeline.Track) TrackResponse {
	return TrackResponse{
		ID:      t.ID,
		Kind:    t.Kind,
		Name:    t.Name,
		Order:   t.Order,
		Height:  t.Height,
		Locked:  t.Locked,
		Visible: t.Visible,
		Muted:   t.Muted,
	}
}

func SegmentToResponse(s *timeline.Segment) SegmentResponse {
	resp := SegmentResponse{
		ID:               s.ID,
		TrackID:          s.TrackID,
		Label:            s.Label,
		MediaID:          s.MediaID,
		InSec:            s.InSec,
		OutSec:           s.OutSec,
		SourceInSec:      s.SourceInSec,
		SourceOutSec:     s.SourceOutSec,
		LinkGroupID:      s.LinkGroupID,
		Locked:           s.Locked,
		ActiveRevisionID: s.ActiveRevisionID,
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
	}
	for _, r := range s.Revisions {
		resp.Revisions = append(resp.Revisions, RevisionToResponse(r))
	}
	return resp
}

func RevisionToResponse(r *timeline.Revision) RevisionResponse {
	return RevisionResponse{
		ID:           r.ID,
		MediaID:      r.MediaID,
		URL:          r.URL,
		ThumbnailURL: r.ThumbnailURL,
		Status:       r.Status,
		Error:        r.Error,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}

func ItemToResponse(item timeline.TrackItem) ItemResponse {
	resp := ItemResponse{
		Kind:     item.Kind,
		StartSec: item.StartSec,
		EndSec:   item.EndSec,
	}
	if item.Segment != nil {
		seg := SegmentToResponse(item.Segment)
		resp.Segment = &seg
	}
	return resp
}

func SegmentsToResponse(segments []*timeline.Segment) SegmentsResponse {
	resp := SegmentsResponse{Segments: make([]SegmentResponse, len(segments))}
	for i, s := range segments {
		resp.Segments[i] = SegmentToResponse(s)
	}
	return resp
}
