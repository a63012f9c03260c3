package timeline

import (
	"errors"
	"sort"
	"sync"

	"github.com/cutroom/cutroom-agent/internal/timecode"
)

var (
	ErrTrackNotFound    = errors.New("track not found")
	ErrSegmentNotFound  = errors.New("segment not found")
	ErrInvalidDuration  = errors.New("segment duration must be positive")
	ErrDanglingRevision = errors.New("active revision not present on segment")
)

const (
	// GapEpsilon is the minimum inter-segment distance that counts as a gap.
	GapEpsilon = timecode.ContiguityEpsilon

	// MinTimelineDuration keeps an empty or short timeline rendering a
	// usable ruler.
	MinTimelineDuration = 30.0
)

// Sequence is the in-memory editorial state of one project: tracks and their
// segments. It accepts only structurally valid writes and performs no overlap
// resolution; interactive overlap policy belongs to the edit engine and its
// consumers. Queries return copies, so mutation happens only through Sequence
// methods.
type Sequence struct {
	mu       sync.RWMutex
	project  Project
	tracks   map[string]*Track
	segments map[string]*Segment
}

func NewSequence(project Project) *Sequence {
	return &Sequence{
		project:  project,
		tracks:   make(map[string]*Track),
		segments: make(map[string]*Segment),
	}
}

func (q *Sequence) Project() Project {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.project
}

func (q *Sequence) AddTrack(t *Track) {
	q.mu.Lock()
	defer q.mu.Unlock()
	tc := *t
	q.tracks[t.ID] = &tc
}

func (q *Sequence) Track(id string) (*Track, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	t, ok := q.tracks[id]
	if !ok {
		return nil, ErrTrackNotFound
	}
	tc := *t
	return &tc, nil
}

// Tracks returns all tracks sorted by display order.
func (q *Sequence) Tracks() []*Track {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]*Track, 0, len(q.tracks))
	for _, t := range q.tracks {
		tc := *t
		out = append(out, &tc)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// PrimaryVideoTrack returns the lowest-ordered video track, which is the one
// the playback synchronizer follows.
func (q *Sequence) PrimaryVideoTrack() (*Track, error) {
	for _, t := range q.Tracks() {
		if t.Kind == TrackKindVideo {
			return t, nil
		}
	}
	return nil, ErrTrackNotFound
}

func (q *Sequence) SetTrackFlags(id string, locked, visible, muted bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tracks[id]
	if !ok {
		return ErrTrackNotFound
	}
	t.Locked = locked
	t.Visible = visible
	t.Muted = muted
	return nil
}

// AddSegment validates and inserts a segment. Overlap with existing segments
// is not checked here.
func (q *Sequence) AddSegment(s *Segment) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if s.OutSec <= s.InSec {
		return ErrInvalidDuration
	}
	if _, ok := q.tracks[s.TrackID]; !ok {
		return ErrTrackNotFound
	}
	if s.ActiveRevisionID != "" && s.ActiveRevision() == nil {
		return ErrDanglingRevision
	}
	q.segments[s.ID] = s.clone()
	return nil
}

func (q *Sequence) Segment(id string) (*Segment, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	s, ok := q.segments[id]
	if !ok {
		return nil, ErrSegmentNotFound
	}
	return s.clone(), nil
}

func (q *Sequence) RemoveSegment(id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.segments[id]; !ok {
		return ErrSegmentNotFound
	}
	delete(q.segments, id)
	return nil
}

// SegmentsOnTrack returns the track's segments stably sorted by InSec.
func (q *Sequence) SegmentsOnTrack(trackID string) []*Segment {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.segmentsOnTrackLocked(trackID)
}

func (q *Sequence) segmentsOnTrackLocked(trackID string) []*Segment {
	var out []*Segment
	for _, s := range q.segments {
		if s.TrackID == trackID {
			out = append(out, s.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InSec < out[j].InSec
	})
	return out
}

// SegmentsInGroup returns all segments sharing a link group, sorted by InSec.
func (q *Sequence) SegmentsInGroup(linkGroupID string) []*Segment {
	if linkGroupID == "" {
		return nil
	}
	q.mu.RLock()
	defer q.mu.RUnlock()

	var out []*Segment
	for _, s := range q.segments {
		if s.LinkGroupID == linkGroupID {
			out = append(out, s.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InSec < out[j].InSec
	})
	return out
}

// ItemsForTrack interleaves segments and derived gaps into one ordered,
// contiguous sequence covering the track from zero to its last segment. A gap
// is synthesized whenever the distance from the previous boundary exceeds the
// sub-frame epsilon.
func (q *Sequence) ItemsForTrack(trackID string) []TrackItem {
	segments := q.SegmentsOnTrack(trackID)

	var items []TrackItem
	cursor := 0.0
	for _, s := range segments {
		if s.InSec-cursor > GapEpsilon {
			items = append(items, TrackItem{
				Kind:     ItemKindGap,
				StartSec: cursor,
				EndSec:   s.InSec,
			})
		}
		items = append(items, TrackItem{
			Kind:     ItemKindSegment,
			Segment:  s,
			StartSec: s.InSec,
			EndSec:   s.OutSec,
		})
		if s.OutSec > cursor {
			cursor = s.OutSec
		}
	}
	return items
}

// GapAt returns the derived gap containing the given time on a track.
func (q *Sequence) GapAt(trackID string, at float64) (timecode.Interval, bool) {
	for _, item := range q.ItemsForTrack(trackID) {
		if item.Kind == ItemKindGap && at >= item.StartSec && at < item.EndSec {
			return timecode.Interval{Start: item.StartSec, End: item.EndSec}, true
		}
	}
	return timecode.Interval{}, false
}

// TotalDuration is the furthest segment end across all tracks, floored so an
// empty timeline still renders a usable ruler.
func (q *Sequence) TotalDuration() float64 {
	q.mu.RLock()
	defer q.mu.RUnlock()

	max := 0.0
	for _, s := range q.segments {
		if s.OutSec > max {
			max = s.OutSec
		}
	}
	if max < MinTimelineDuration {
		return MinTimelineDuration
	}
	return max
}

// SetSegmentSpan rewrites a segment's timeline placement. Structurally
// invalid spans are rejected; overlap is not.
func (q *Sequence) SetSegmentSpan(id string, inSec, outSec float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.segments[id]
	if !ok {
		return ErrSegmentNotFound
	}
	if outSec <= inSec {
		return ErrInvalidDuration
	}
	s.InSec = inSec
	s.OutSec = outSec
	return nil
}

// SetSegmentSource rewrites the displayed span of the underlying media.
func (q *Sequence) SetSegmentSource(id string, sourceInSec, sourceOutSec float64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.segments[id]
	if !ok {
		return ErrSegmentNotFound
	}
	s.SourceInSec = sourceInSec
	s.SourceOutSec = sourceOutSec
	return nil
}

// AppendRevision adds a revision to a segment's history. Revisions are never
// removed or rewritten in place.
func (q *Sequence) AppendRevision(segmentID string, r *Revision) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.segments[segmentID]
	if !ok {
		return ErrSegmentNotFound
	}
	rc := *r
	s.Revisions = append(s.Revisions, &rc)
	return nil
}

// SetActiveRevision switches which revision a segment presents. The revision
// must be physically present in the segment's list.
func (q *Sequence) SetActiveRevision(segmentID, revisionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.segments[segmentID]
	if !ok {
		return ErrSegmentNotFound
	}
	for _, r := range s.Revisions {
		if r.ID == revisionID {
			s.ActiveRevisionID = revisionID
			return nil
		}
	}
	return ErrDanglingRevision
}

// UpdateRevision patches the mutable lifecycle fields of a revision record
// (status, resolved URL, error). The editorial fields never change.
func (q *Sequence) UpdateRevision(segmentID, revisionID, status, url, errMsg string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	s, ok := q.segments[segmentID]
	if !ok {
		return ErrSegmentNotFound
	}
	for _, r := range s.Revisions {
		if r.ID == revisionID {
			r.Status = status
			if url != "" {
				r.URL = url
			}
			r.Error = errMsg
			return nil
		}
	}
	return ErrDanglingRevision
}

// SegmentAt returns the segment on a track whose [InSec, OutSec) contains the
// given time.
func (q *Sequence) SegmentAt(trackID string, at float64) (*Segment, bool) {
	for _, s := range q.SegmentsOnTrack(trackID) {
		if at >= s.InSec && at < s.OutSec {
			return s, true
		}
	}
	return nil, false
}

// SegmentAfter returns the segment whose InSec is contiguous with the given
// boundary, within the sub-frame epsilon. Absence means a real gap follows.
func (q *Sequence) SegmentAfter(trackID string, boundary float64) (*Segment, bool) {
	for _, s := range q.SegmentsOnTrack(trackID) {
		if timecode.Contiguous(s.InSec, boundary) {
			return s, true
		}
	}
	return nil, false
}

// SnapEdges collects candidate snap positions: the playhead first, then the
// in/out edges of every segment not excluded, in track-sorted order. The edit
// engine scans this list in order and stops at the first match.
func (q *Sequence) SnapEdges(playhead float64, exclude map[string]bool) []float64 {
	edges := []float64{playhead}
	for _, t := range q.Tracks() {
		for _, s := range q.SegmentsOnTrack(t.ID) {
			if exclude[s.ID] {
				continue
			}
			edges = append(edges, s.InSec, s.OutSec)
		}
	}
	return edges
}
