// Package edit translates pointer-driven interactions into discrete,
// invariant-preserving segment mutations: moves with snapping and link
// propagation, trims in the conventional NLE modes, and ripple/gap deletes.
// Out-of-range inputs are clamped, never rejected; every input produces a
// valid timeline so drags stay smooth.
package edit

import (
	"log/slog"
	"math"

	"github.com/cutroom/cutroom-agent/internal/timecode"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

const (
	DefaultPixelsPerSecond = 100.0
	DefaultSnapThresholdPx = 10.0

	// MinSegmentDuration guards trims against producing zero or negative
	// length segments.
	MinSegmentDuration = 0.1
)

type TrimEdge string

const (
	EdgeStart TrimEdge = "start"
	EdgeEnd   TrimEdge = "end"
)

type TrimMode string

const (
	TrimNormal TrimMode = "normal"
	TrimRipple TrimMode = "ripple"
	TrimRoll   TrimMode = "roll"
	TrimSlip   TrimMode = "slip"
	TrimSlide  TrimMode = "slide"
)

// Options tune the pixel-to-time mapping and snapping behavior.
type Options struct {
	PixelsPerSecond float64
	SnapThresholdPx float64
	SnapEnabled     bool
	MinDuration     float64
}

func (o Options) withDefaults() Options {
	if o.PixelsPerSecond <= 0 {
		o.PixelsPerSecond = DefaultPixelsPerSecond
	}
	if o.SnapThresholdPx <= 0 {
		o.SnapThresholdPx = DefaultSnapThresholdPx
	}
	if o.MinDuration <= 0 {
		o.MinDuration = MinSegmentDuration
	}
	return o
}

// Engine applies edit operations to a sequence. Operations are synchronous
// and deterministic; the engine holds no state of its own beyond options.
type Engine struct {
	seq    *timeline.Sequence
	opts   Options
	logger *slog.Logger
}

func NewEngine(seq *timeline.Sequence, opts Options, logger *slog.Logger) *Engine {
	return &Engine{seq: seq, opts: opts.withDefaults(), logger: logger}
}

// Options returns the engine's effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// canEdit reports whether a segment accepts move/trim. A locked segment or a
// locked track silently rejects edits.
func (e *Engine) canEdit(seg *timeline.Segment) bool {
	if seg.Locked {
		return false
	}
	track, err := e.seq.Track(seg.TrackID)
	if err != nil {
		return false
	}
	return !track.Locked
}

// MoveSegment places a segment at an absolute timeline position and
// propagates the move to its link group by preserved offsets. The position
// clamps at zero; no snapping, no overlap rejection.
func (e *Engine) MoveSegment(id string, newInSec float64) []*timeline.Segment {
	seg, err := e.seq.Segment(id)
	if err != nil {
		return nil
	}
	if !e.canEdit(seg) {
		return nil
	}
	if newInSec < 0 {
		newInSec = 0
	}
	return e.applyMove(seg, newInSec)
}

// applyMove writes the primary segment's new position and shifts every link
// group member by the same amount, keeping relative offsets constant.
func (e *Engine) applyMove(seg *timeline.Segment, newInSec float64) []*timeline.Segment {
	shift := newInSec - seg.InSec

	members := e.seq.SegmentsInGroup(seg.LinkGroupID)
	if len(members) == 0 {
		members = []*timeline.Segment{seg}
	}

	var moved []*timeline.Segment
	// Primary first, then the rest of the group.
	for _, pass := range []bool{true, false} {
		for _, m := range members {
			if (m.ID == seg.ID) != pass {
				continue
			}
			in := m.InSec + shift
			out := m.OutSec + shift
			if err := e.seq.SetSegmentSpan(m.ID, in, out); err != nil {
				continue
			}
			updated, err := e.seq.Segment(m.ID)
			if err != nil {
				continue
			}
			moved = append(moved, updated)
		}
	}

	if e.logger != nil {
		e.logger.Debug("segment moved", "segment_id", seg.ID, "in_sec", newInSec, "linked", len(moved)-1)
	}
	return moved
}

// resolveMove computes the proposed position for a move: the raw candidate
// clamped at zero, then snapped to the first candidate edge within the pixel
// threshold. Both the segment's start and its computed end are tested against
// each edge; the first match wins and scanning stops.
func (e *Engine) resolveMove(seg *timeline.Segment, originIn, deltaSec, playhead float64) (float64, bool) {
	candidate := originIn + deltaSec
	if candidate < 0 {
		candidate = 0
	}
	if !e.opts.SnapEnabled {
		return candidate, false
	}

	duration := seg.Duration()
	threshold := e.opts.SnapThresholdPx / e.opts.PixelsPerSecond

	exclude := map[string]bool{seg.ID: true}
	for _, m := range e.seq.SegmentsInGroup(seg.LinkGroupID) {
		exclude[m.ID] = true
	}

	for _, edge := range e.seq.SnapEdges(playhead, exclude) {
		if math.Abs(edge-candidate) <= threshold {
			return math.Max(0, edge), true
		}
		if math.Abs(edge-(candidate+duration)) <= threshold {
			return math.Max(0, edge-duration), true
		}
	}
	return candidate, false
}

// TrimSegment moves one edge of a segment to an absolute time, honoring the
// trim mode. The untouched invariant is a minimum duration on every segment
// involved; inputs beyond the valid range clamp.
func (e *Engine) TrimSegment(id string, edge TrimEdge, newTimeSec float64, mode TrimMode) []*timeline.Segment {
	seg, err := e.seq.Segment(id)
	if err != nil {
		return nil
	}
	if !e.canEdit(seg) {
		return nil
	}

	var deltaSec float64
	switch edge {
	case EdgeStart:
		deltaSec = newTimeSec - seg.InSec
	case EdgeEnd:
		deltaSec = newTimeSec - seg.OutSec
	default:
		return nil
	}
	return e.applyTrim(seg, edge, deltaSec, mode)
}

func (e *Engine) applyTrim(seg *timeline.Segment, edge TrimEdge, deltaSec float64, mode TrimMode) []*timeline.Segment {
	switch mode {
	case TrimRipple:
		return e.trimRipple(seg, edge, deltaSec)
	case TrimRoll:
		return e.trimRoll(seg, edge, deltaSec)
	case TrimSlip:
		return e.trimSlip(seg, deltaSec)
	case TrimSlide:
		return e.trimSlide(seg, deltaSec)
	default:
		return e.trimNormal(seg, edge, deltaSec)
	}
}

// trimNormal adjusts one edge, clamped against the opposite edge by the
// minimum duration and against the track origin.
func (e *Engine) trimNormal(seg *timeline.Segment, edge TrimEdge, deltaSec float64) []*timeline.Segment {
	in, out := seg.InSec, seg.OutSec
	switch edge {
	case EdgeStart:
		in = clamp(seg.InSec+deltaSec, 0, seg.OutSec-e.opts.MinDuration)
	case EdgeEnd:
		out = math.Max(seg.InSec+e.opts.MinDuration, seg.OutSec+deltaSec)
	}
	if err := e.seq.SetSegmentSpan(seg.ID, in, out); err != nil {
		return nil
	}
	updated, err := e.seq.Segment(seg.ID)
	if err != nil {
		return nil
	}
	return []*timeline.Segment{updated}
}

// trimRipple shortens or lengthens the segment and shifts all subsequent
// segments on the track so no gap opens or closes behind the edit.
func (e *Engine) trimRipple(seg *timeline.Segment, edge TrimEdge, deltaSec float64) []*timeline.Segment {
	origOut := seg.OutSec

	var applied float64
	var result []*timeline.Segment

	switch edge {
	case EdgeEnd:
		newOut := math.Max(seg.InSec+e.opts.MinDuration, seg.OutSec+deltaSec)
		applied = newOut - seg.OutSec
		if err := e.seq.SetSegmentSpan(seg.ID, seg.InSec, newOut); err != nil {
			return nil
		}
	case EdgeStart:
		// Material is removed from (or added to) the head; the in point
		// stays put and the tail moves, so following clips shift with it.
		removed := clamp(deltaSec, -(seg.InSec), seg.Duration()-e.opts.MinDuration)
		applied = -removed
		if err := e.seq.SetSegmentSpan(seg.ID, seg.InSec, seg.OutSec-removed); err != nil {
			return nil
		}
	default:
		return nil
	}

	updated, err := e.seq.Segment(seg.ID)
	if err != nil {
		return nil
	}
	result = append(result, updated)
	result = append(result, e.shiftFollowing(seg.TrackID, origOut, seg.ID, applied)...)
	return result
}

// trimRoll moves the cut shared with the adjacent segment: one side's edge
// and the neighbor's opposite edge move together, keeping total duration
// fixed. Without a contiguous neighbor it degrades to a normal trim.
func (e *Engine) trimRoll(seg *timeline.Segment, edge TrimEdge, deltaSec float64) []*timeline.Segment {
	switch edge {
	case EdgeEnd:
		next, ok := e.seq.SegmentAfter(seg.TrackID, seg.OutSec)
		if !ok || !e.canEdit(next) {
			return e.trimNormal(seg, edge, deltaSec)
		}
		boundary := clamp(seg.OutSec+deltaSec, seg.InSec+e.opts.MinDuration, next.OutSec-e.opts.MinDuration)
		if e.seq.SetSegmentSpan(seg.ID, seg.InSec, boundary) != nil {
			return nil
		}
		if e.seq.SetSegmentSpan(next.ID, boundary, next.OutSec) != nil {
			return nil
		}
		return e.collect(seg.ID, next.ID)

	case EdgeStart:
		prev, ok := e.segmentBefore(seg.TrackID, seg.InSec)
		if !ok || !e.canEdit(prev) {
			return e.trimNormal(seg, edge, deltaSec)
		}
		boundary := clamp(seg.InSec+deltaSec, prev.InSec+e.opts.MinDuration, seg.OutSec-e.opts.MinDuration)
		if e.seq.SetSegmentSpan(prev.ID, prev.InSec, boundary) != nil {
			return nil
		}
		if e.seq.SetSegmentSpan(seg.ID, boundary, seg.OutSec) != nil {
			return nil
		}
		return e.collect(prev.ID, seg.ID)
	}
	return nil
}

// trimSlip shifts the displayed source window without moving the segment on
// the timeline. The window cannot slip before the start of the media.
func (e *Engine) trimSlip(seg *timeline.Segment, deltaSec float64) []*timeline.Segment {
	applied := math.Max(deltaSec, -seg.SourceInSec)
	if err := e.seq.SetSegmentSource(seg.ID, seg.SourceInSec+applied, seg.SourceOutSec+applied); err != nil {
		return nil
	}
	return e.collect(seg.ID)
}

// trimSlide moves the whole segment within the slack of its neighboring
// gaps; its own duration and source window stay fixed.
func (e *Engine) trimSlide(seg *timeline.Segment, deltaSec float64) []*timeline.Segment {
	lower := 0.0
	if prev, ok := e.segmentBefore(seg.TrackID, seg.InSec); ok {
		lower = prev.OutSec
	}
	upper := seg.InSec + deltaSec
	if next, ok := e.nextOnTrack(seg.TrackID, seg.OutSec); ok {
		upper = next.InSec - seg.Duration()
	}
	if upper < lower {
		return e.collect(seg.ID)
	}
	newIn := clamp(seg.InSec+deltaSec, lower, upper)
	if err := e.seq.SetSegmentSpan(seg.ID, newIn, newIn+seg.Duration()); err != nil {
		return nil
	}
	return e.collect(seg.ID)
}

// RippleDelete removes a segment and shifts every subsequent segment on the
// same track left by the removed duration. Track-scoped, not global.
func (e *Engine) RippleDelete(id string) []*timeline.Segment {
	seg, err := e.seq.Segment(id)
	if err != nil {
		return nil
	}
	if !e.canEdit(seg) {
		return nil
	}

	removed := seg.Duration()
	if err := e.seq.RemoveSegment(id); err != nil {
		return nil
	}
	if e.logger != nil {
		e.logger.Debug("ripple delete", "segment_id", id, "removed_sec", removed)
	}
	return e.shiftFollowing(seg.TrackID, seg.InSec, "", -removed)
}

// DeleteGap closes the derived gap containing the given time by shifting
// every subsequent segment on the track left by the gap's length.
func (e *Engine) DeleteGap(trackID string, at float64) []*timeline.Segment {
	track, err := e.seq.Track(trackID)
	if err != nil || track.Locked {
		return nil
	}
	gap, ok := e.seq.GapAt(trackID, at)
	if !ok {
		return nil
	}
	if e.logger != nil {
		e.logger.Debug("gap deleted", "track_id", trackID, "gap_start", gap.Start, "gap_sec", gap.Duration())
	}
	return e.shiftFollowing(trackID, gap.Start, "", -gap.Duration())
}

// shiftFollowing moves every segment on a track whose in point sits at or
// beyond a boundary by the given amount, skipping one excluded id.
func (e *Engine) shiftFollowing(trackID string, boundary float64, excludeID string, shift float64) []*timeline.Segment {
	if shift == 0 {
		return nil
	}
	var out []*timeline.Segment
	for _, s := range e.seq.SegmentsOnTrack(trackID) {
		if s.ID == excludeID {
			continue
		}
		if s.InSec < boundary-timecode.ContiguityEpsilon {
			continue
		}
		if e.seq.SetSegmentSpan(s.ID, s.InSec+shift, s.OutSec+shift) != nil {
			continue
		}
		if updated, err := e.seq.Segment(s.ID); err == nil {
			out = append(out, updated)
		}
	}
	return out
}

// segmentBefore returns the segment whose out edge is closest to (and not
// past) the given boundary.
func (e *Engine) segmentBefore(trackID string, boundary float64) (*timeline.Segment, bool) {
	var best *timeline.Segment
	for _, s := range e.seq.SegmentsOnTrack(trackID) {
		if s.OutSec <= boundary+timecode.ContiguityEpsilon {
			best = s
		}
	}
	return best, best != nil
}

// nextOnTrack returns the first segment starting at or after a boundary.
func (e *Engine) nextOnTrack(trackID string, boundary float64) (*timeline.Segment, bool) {
	for _, s := range e.seq.SegmentsOnTrack(trackID) {
		if s.InSec >= boundary-timecode.ContiguityEpsilon {
			return s, true
		}
	}
	return nil, false
}

func (e *Engine) collect(ids ...string) []*timeline.Segment {
	var out []*timeline.Segment
	for _, id := range ids {
		if s, err := e.seq.Segment(id); err == nil {
			out = append(out, s)
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
