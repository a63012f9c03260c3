package edit

import (
	"errors"
	"sync"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

var ErrDragActive = errors.New("a drag is already in progress")

const (
	SessionIdle     = "idle"
	SessionDragging = "dragging"
)

type dragKind int

const (
	dragMove dragKind = iota
	dragTrim
)

// spanOrigin is a segment's placement captured at drag start. Every update
// is computed from these origins, never from running values, so updates may
// not be reordered or batched mid-drag.
type spanOrigin struct {
	in, out       float64
	srcIn, srcOut float64
}

type drag struct {
	kind      dragKind
	segmentID string
	edge      TrimEdge
	mode      TrimMode
	origins   map[string]spanOrigin
}

// Session owns the interaction state machine: idle -> dragging(segment,
// captured origins) -> idle. One drag at a time; ending or cancelling a drag
// drops it immediately with nothing flushed afterwards.
type Session struct {
	mu     sync.Mutex
	engine *Engine
	drag   *drag
}

func NewSession(engine *Engine) *Session {
	return &Session{engine: engine}
}

func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag != nil {
		return SessionDragging
	}
	return SessionIdle
}

// BeginMove starts a move drag, capturing the origins of the segment and its
// whole link group.
func (s *Session) BeginMove(segmentID string) error {
	return s.begin(segmentID, dragMove, "", "")
}

// BeginTrim starts a trim drag on one edge with the active trim mode.
// Origins are captured for the entire track so ripple updates recompute
// cleanly on every pointer move.
func (s *Session) BeginTrim(segmentID string, edge TrimEdge, mode TrimMode) error {
	if edge != EdgeStart && edge != EdgeEnd {
		edge = EdgeEnd
	}
	return s.begin(segmentID, dragTrim, edge, mode)
}

func (s *Session) begin(segmentID string, kind dragKind, edge TrimEdge, mode TrimMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag != nil {
		return ErrDragActive
	}

	seg, err := s.engine.seq.Segment(segmentID)
	if err != nil {
		return err
	}

	origins := make(map[string]spanOrigin)
	capture := func(m *timeline.Segment) {
		origins[m.ID] = spanOrigin{in: m.InSec, out: m.OutSec, srcIn: m.SourceInSec, srcOut: m.SourceOutSec}
	}
	capture(seg)
	for _, m := range s.engine.seq.SegmentsInGroup(seg.LinkGroupID) {
		capture(m)
	}
	for _, m := range s.engine.seq.SegmentsOnTrack(seg.TrackID) {
		capture(m)
	}

	s.drag = &drag{
		kind:      kind,
		segmentID: segmentID,
		edge:      edge,
		mode:      mode,
		origins:   origins,
	}
	return nil
}

// Update applies the current pointer delta, in pixels, relative to the
// captured origins. It returns the segments whose placement changed. Updates
// on an idle session are ignored.
func (s *Session) Update(deltaPx, playhead float64) []*timeline.Segment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.drag == nil {
		return nil
	}

	// Rewind to origins so this update is a pure function of the captured
	// state and the latest delta, independent of earlier updates.
	s.restoreOrigins()

	deltaSec := deltaPx / s.engine.opts.PixelsPerSecond

	seg, err := s.engine.seq.Segment(s.drag.segmentID)
	if err != nil {
		return nil
	}
	if !s.engine.canEdit(seg) {
		return nil
	}

	switch s.drag.kind {
	case dragMove:
		origin := s.drag.origins[seg.ID]
		newIn, _ := s.engine.resolveMove(seg, origin.in, deltaSec, playhead)
		return s.engine.applyMove(seg, newIn)
	case dragTrim:
		return s.engine.applyTrim(seg, s.drag.edge, deltaSec, s.drag.mode)
	}
	return nil
}

// End commits the drag and returns the ids of every segment it captured, so
// callers can persist whatever the drag touched. Positions are already
// applied; ending just returns the session to idle.
func (s *Session) End() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return nil
	}
	ids := make([]string, 0, len(s.drag.origins))
	for id := range s.drag.origins {
		ids = append(ids, id)
	}
	s.drag = nil
	return ids
}

// Cancel aborts the drag and restores every captured segment to its origin.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drag == nil {
		return
	}
	s.restoreOrigins()
	s.drag = nil
}

func (s *Session) restoreOrigins() {
	for id, o := range s.drag.origins {
		s.engine.seq.SetSegmentSpan(id, o.in, o.out)
		s.engine.seq.SetSegmentSource(id, o.srcIn, o.srcOut)
	}
}
