package edit

import (
	"math"
	"testing"
	"time"

	"github.com/cutroom/cutroom-agent/internal/timeline"
)

func newTestSequence(t *testing.T) (*timeline.Sequence, *timeline.Track) {
	t.Helper()
	seq := timeline.NewSequence(timeline.Project{ID: timeline.NewID(), Name: "test", FPS: 30})
	track := &timeline.Track{ID: timeline.NewID(), Kind: timeline.TrackKindVideo, Name: "V1", Visible: true}
	seq.AddTrack(track)
	return seq, track
}

func addSegment(t *testing.T, seq *timeline.Sequence, trackID string, in, out float64, linkGroup string) *timeline.Segment {
	t.Helper()
	s := &timeline.Segment{
		ID:           timeline.NewID(),
		TrackID:      trackID,
		InSec:        in,
		OutSec:       out,
		SourceInSec:  0,
		SourceOutSec: out - in,
		LinkGroupID:  linkGroup,
		CreatedAt:    time.Now(),
	}
	if err := seq.AddSegment(s); err != nil {
		t.Fatalf("AddSegment failed: %v", err)
	}
	return s
}

func newEngine(seq *timeline.Sequence, snap bool) *Engine {
	return NewEngine(seq, Options{SnapEnabled: snap}, nil)
}

func segSpan(t *testing.T, seq *timeline.Sequence, id string) (float64, float64) {
	t.Helper()
	s, err := seq.Segment(id)
	if err != nil {
		t.Fatalf("Segment(%s): %v", id, err)
	}
	return s.InSec, s.OutSec
}

func TestMoveSegment_Absolute(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	moved := newEngine(seq, false).MoveSegment(s.ID, 10)
	if len(moved) != 1 {
		t.Fatalf("moved %d segments, want 1", len(moved))
	}
	in, out := segSpan(t, seq, s.ID)
	if in != 10 || out != 14 {
		t.Errorf("span = [%v,%v), want [10,14)", in, out)
	}
}

func TestMoveSegment_ClampsAtZero(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	newEngine(seq, false).MoveSegment(s.ID, -5)
	in, out := segSpan(t, seq, s.ID)
	if in != 0 || out != 4 {
		t.Errorf("span = [%v,%v), want [0,4)", in, out)
	}
}

func TestMoveSegment_LinkGroupKeepsOffsets(t *testing.T) {
	seq, track := newTestSequence(t)
	audio := &timeline.Track{ID: timeline.NewID(), Kind: timeline.TrackKindAudio, Name: "A1", Order: 1, Visible: true}
	seq.AddTrack(audio)

	v := addSegment(t, seq, track.ID, 1, 5, "g1")
	a := addSegment(t, seq, audio.ID, 1, 5, "g1")

	moved := newEngine(seq, false).MoveSegment(v.ID, 4)
	if len(moved) != 2 {
		t.Fatalf("moved %d segments, want 2", len(moved))
	}

	vin, _ := segSpan(t, seq, v.ID)
	ain, _ := segSpan(t, seq, a.ID)
	if vin != 4 || ain != 4 {
		t.Errorf("video in = %v, audio in = %v, want both 4", vin, ain)
	}
	if ain-vin != 0 {
		t.Errorf("link offset drifted: %v", ain-vin)
	}
}

func TestMoveSegment_LockedIsSilentlyIgnored(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")
	locked := &timeline.Segment{
		ID: timeline.NewID(), TrackID: track.ID, InSec: 10, OutSec: 12, Locked: true,
		CreatedAt: time.Now(),
	}
	if err := seq.AddSegment(locked); err != nil {
		t.Fatal(err)
	}

	engine := newEngine(seq, false)

	if moved := engine.MoveSegment(locked.ID, 0); moved != nil {
		t.Errorf("locked segment moved: %+v", moved)
	}

	seq.SetTrackFlags(track.ID, true, true, false)
	if moved := engine.MoveSegment(s.ID, 0); moved != nil {
		t.Errorf("segment on locked track moved: %+v", moved)
	}
	in, _ := segSpan(t, seq, s.ID)
	if in != 2 {
		t.Errorf("segment on locked track shifted to %v", in)
	}
}

func TestDrag_MoveByDelta_LinkedPair(t *testing.T) {
	seq, track := newTestSequence(t)
	audio := &timeline.Track{ID: timeline.NewID(), Kind: timeline.TrackKindAudio, Name: "A1", Order: 1, Visible: true}
	seq.AddTrack(audio)

	v := addSegment(t, seq, track.ID, 1, 5, "g1")
	a := addSegment(t, seq, audio.ID, 1, 5, "g1")

	engine := newEngine(seq, false)
	session := NewSession(engine)

	if err := session.BeginMove(v.ID); err != nil {
		t.Fatalf("BeginMove failed: %v", err)
	}
	// +3.0s at the default 100 px/s.
	session.Update(300, 0)
	session.End()

	vin, _ := segSpan(t, seq, v.ID)
	ain, _ := segSpan(t, seq, a.ID)
	if vin != 4.0 || ain != 4.0 {
		t.Errorf("after +3s drag: video in = %v, audio in = %v, want 4.0", vin, ain)
	}
}

func TestDrag_UpdatesComputeFromOrigins(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	engine := newEngine(seq, false)
	session := NewSession(engine)
	if err := session.BeginMove(s.ID); err != nil {
		t.Fatal(err)
	}

	// Deltas are absolute from the drag origin, not cumulative.
	session.Update(100, 0)
	session.Update(50, 0)
	session.End()

	in, _ := segSpan(t, seq, s.ID)
	if in != 2.5 {
		t.Errorf("in = %v, want 2.5 (origin 2 + 0.5s)", in)
	}
}

func TestDrag_CancelRestoresOrigins(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	engine := newEngine(seq, false)
	session := NewSession(engine)
	if err := session.BeginMove(s.ID); err != nil {
		t.Fatal(err)
	}
	session.Update(400, 0)
	session.Cancel()

	in, out := segSpan(t, seq, s.ID)
	if in != 2 || out != 6 {
		t.Errorf("span after cancel = [%v,%v), want [2,6)", in, out)
	}
	if session.State() != SessionIdle {
		t.Errorf("state = %q, want idle", session.State())
	}
}

func TestDrag_SecondBeginRejected(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	session := NewSession(newEngine(seq, false))
	if err := session.BeginMove(s.ID); err != nil {
		t.Fatal(err)
	}
	if err := session.BeginMove(s.ID); err != ErrDragActive {
		t.Errorf("second begin error = %v, want ErrDragActive", err)
	}
}

func TestDrag_SnapToNeighborEdge(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 0, 2, "")
	addSegment(t, seq, track.ID, 5, 8, "")

	engine := newEngine(seq, true)
	session := NewSession(engine)
	if err := session.BeginMove(s.ID); err != nil {
		t.Fatal(err)
	}
	// Raw candidate end lands at 4.95, within 10px (0.1s) of the
	// neighbor's in edge at 5.0; the end boundary snaps onto it.
	session.Update(295, 50)
	session.End()

	in, out := segSpan(t, seq, s.ID)
	if out != 5.0 || in != 3.0 {
		t.Errorf("span = [%v,%v), want snapped [3,5)", in, out)
	}
}

func TestDrag_SnapToPlayheadFirst(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 0, 2, "")
	// Neighbor edge deliberately close to the playhead; the playhead is
	// scanned first and wins.
	addSegment(t, seq, track.ID, 10.08, 12, "")

	engine := newEngine(seq, true)
	session := NewSession(engine)
	if err := session.BeginMove(s.ID); err != nil {
		t.Fatal(err)
	}
	session.Update(1001, 10.0)
	session.End()

	in, _ := segSpan(t, seq, s.ID)
	if in != 10.0 {
		t.Errorf("in = %v, want playhead snap at 10.0", in)
	}
}

func TestSnap_Idempotent(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 0, 2, "")
	addSegment(t, seq, track.ID, 5, 8, "")

	engine := newEngine(seq, true)

	seg, _ := seq.Segment(s.ID)
	first, snapped := engine.resolveMove(seg, seg.InSec, 2.95, 50)
	if !snapped || first != 3.0 {
		t.Fatalf("first resolve = %v (snapped=%v), want 3.0", first, snapped)
	}

	// Re-running the snap computation at the snapped position must not
	// move the segment again.
	second, _ := engine.resolveMove(seg, first, 0, 50)
	if second != first {
		t.Errorf("snap oscillated: %v then %v", first, second)
	}
}

func TestDrag_SnapDisabledUsesRawDelta(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 0, 2, "")
	addSegment(t, seq, track.ID, 5, 8, "")

	engine := newEngine(seq, false)
	session := NewSession(engine)
	if err := session.BeginMove(s.ID); err != nil {
		t.Fatal(err)
	}
	session.Update(295, 50)
	session.End()

	in, _ := segSpan(t, seq, s.ID)
	if in != 2.95 {
		t.Errorf("in = %v, want raw 2.95", in)
	}
}

func TestTrim_StartClampedByMinDuration(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	engine := newEngine(seq, false)
	engine.TrimSegment(s.ID, EdgeStart, 20, TrimNormal)

	in, out := segSpan(t, seq, s.ID)
	if out != 6 {
		t.Errorf("out moved to %v during start trim", out)
	}
	if got, want := in, 6-MinSegmentDuration; math.Abs(got-want) > 1e-9 {
		t.Errorf("in = %v, want clamp at %v", got, want)
	}
	if in >= out {
		t.Error("trim produced non-positive duration")
	}
}

func TestTrim_StartClampedAtZero(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	newEngine(seq, false).TrimSegment(s.ID, EdgeStart, -10, TrimNormal)
	in, _ := segSpan(t, seq, s.ID)
	if in != 0 {
		t.Errorf("in = %v, want 0", in)
	}
}

func TestTrim_EndClampedByMinDuration(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")

	newEngine(seq, false).TrimSegment(s.ID, EdgeEnd, 0, TrimNormal)
	in, out := segSpan(t, seq, s.ID)
	if got, want := out, 2+MinSegmentDuration; math.Abs(got-want) > 1e-9 {
		t.Errorf("out = %v, want clamp at %v", got, want)
	}
	if out <= in {
		t.Error("trim produced non-positive duration")
	}
}

func TestTrim_RippleEndShiftsFollowing(t *testing.T) {
	seq, track := newTestSequence(t)
	a := addSegment(t, seq, track.ID, 0, 4, "")
	b := addSegment(t, seq, track.ID, 4, 7, "")
	c := addSegment(t, seq, track.ID, 7, 9, "")

	newEngine(seq, false).TrimSegment(a.ID, EdgeEnd, 3, TrimRipple)

	ain, aout := segSpan(t, seq, a.ID)
	bin, bout := segSpan(t, seq, b.ID)
	cin, _ := segSpan(t, seq, c.ID)
	if ain != 0 || aout != 3 {
		t.Errorf("a = [%v,%v), want [0,3)", ain, aout)
	}
	if bin != 3 || bout != 6 {
		t.Errorf("b = [%v,%v), want shifted [3,6)", bin, bout)
	}
	if cin != 6 {
		t.Errorf("c in = %v, want 6", cin)
	}
}

func TestTrim_RollMovesSharedCut(t *testing.T) {
	seq, track := newTestSequence(t)
	a := addSegment(t, seq, track.ID, 0, 4, "")
	b := addSegment(t, seq, track.ID, 4, 8, "")

	newEngine(seq, false).TrimSegment(a.ID, EdgeEnd, 5.5, TrimRoll)

	_, aout := segSpan(t, seq, a.ID)
	bin, bout := segSpan(t, seq, b.ID)
	if aout != 5.5 || bin != 5.5 {
		t.Errorf("cut at a.out=%v b.in=%v, want both 5.5", aout, bin)
	}
	if bout != 8 {
		t.Errorf("b out moved to %v", bout)
	}
}

func TestTrim_RollClampedByNeighborMinDuration(t *testing.T) {
	seq, track := newTestSequence(t)
	a := addSegment(t, seq, track.ID, 0, 4, "")
	b := addSegment(t, seq, track.ID, 4, 8, "")

	newEngine(seq, false).TrimSegment(a.ID, EdgeEnd, 20, TrimRoll)

	_, aout := segSpan(t, seq, a.ID)
	bin, bout := segSpan(t, seq, b.ID)
	if got, want := aout, 8-MinSegmentDuration; math.Abs(got-want) > 1e-9 {
		t.Errorf("cut = %v, want clamp at %v", got, want)
	}
	if bout-bin < MinSegmentDuration-1e-9 {
		t.Errorf("neighbor collapsed below minimum: [%v,%v)", bin, bout)
	}
}

func TestTrim_SlipMovesSourceWindowOnly(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")
	seq.SetSegmentSource(s.ID, 1, 5)

	newEngine(seq, false).TrimSegment(s.ID, EdgeStart, 2+1.5, TrimSlip)

	got, _ := seq.Segment(s.ID)
	if got.InSec != 2 || got.OutSec != 6 {
		t.Errorf("slip moved timeline placement: [%v,%v)", got.InSec, got.OutSec)
	}
	if got.SourceInSec != 2.5 || got.SourceOutSec != 6.5 {
		t.Errorf("source window = [%v,%v), want [2.5,6.5)", got.SourceInSec, got.SourceOutSec)
	}
}

func TestTrim_SlipClampedAtMediaStart(t *testing.T) {
	seq, track := newTestSequence(t)
	s := addSegment(t, seq, track.ID, 2, 6, "")
	seq.SetSegmentSource(s.ID, 1, 5)

	newEngine(seq, false).TrimSegment(s.ID, EdgeStart, 2-10, TrimSlip)

	got, _ := seq.Segment(s.ID)
	if got.SourceInSec != 0 || got.SourceOutSec != 4 {
		t.Errorf("source window = [%v,%v), want clamped [0,4)", got.SourceInSec, got.SourceOutSec)
	}
}

func TestTrim_SlideConstrainedByNeighbors(t *testing.T) {
	seq, track := newTestSequence(t)
	addSegment(t, seq, track.ID, 0, 2, "")
	s := addSegment(t, seq, track.ID, 3, 5, "")
	addSegment(t, seq, track.ID, 7, 9, "")

	engine := newEngine(seq, false)

	// Slide right: only 2s of gap slack before the next segment.
	engine.TrimSegment(s.ID, EdgeStart, 3+10, TrimSlide)
	in, out := segSpan(t, seq, s.ID)
	if in != 5 || out != 7 {
		t.Errorf("span = [%v,%v), want [5,7)", in, out)
	}

	// Slide left: stops against the previous segment's out edge.
	engine.TrimSegment(s.ID, EdgeStart, 5-10, TrimSlide)
	in, out = segSpan(t, seq, s.ID)
	if in != 2 || out != 4 {
		t.Errorf("span = [%v,%v), want [2,4)", in, out)
	}
}

func TestRippleDelete_ShiftsFollowing(t *testing.T) {
	seq, track := newTestSequence(t)
	a := addSegment(t, seq, track.ID, 0, 4, "")
	b := addSegment(t, seq, track.ID, 4, 7, "")
	c := addSegment(t, seq, track.ID, 9, 11, "")

	affected := newEngine(seq, false).RippleDelete(a.ID)
	if len(affected) != 2 {
		t.Fatalf("affected %d segments, want 2", len(affected))
	}

	if _, err := seq.Segment(a.ID); err == nil {
		t.Error("deleted segment still present")
	}
	bin, _ := segSpan(t, seq, b.ID)
	cin, _ := segSpan(t, seq, c.ID)
	if bin != 0 {
		t.Errorf("b in = %v, want 0", bin)
	}
	if cin != 5 {
		t.Errorf("c in = %v, want 5 (gap preserved)", cin)
	}
}

func TestDeleteGap(t *testing.T) {
	seq, track := newTestSequence(t)
	addSegment(t, seq, track.ID, 0, 4, "")
	b := addSegment(t, seq, track.ID, 6, 10, "")

	newEngine(seq, false).DeleteGap(track.ID, 5)

	bin, bout := segSpan(t, seq, b.ID)
	if bin != 4 || bout != 8 {
		t.Errorf("b = [%v,%v), want [4,8)", bin, bout)
	}
}

func TestDeleteGap_NoGapIsNoOp(t *testing.T) {
	seq, track := newTestSequence(t)
	addSegment(t, seq, track.ID, 0, 4, "")

	if affected := newEngine(seq, false).DeleteGap(track.ID, 2); affected != nil {
		t.Errorf("deleting inside a segment affected %d segments", len(affected))
	}
}

func TestNonOverlap_AfterEditSequence(t *testing.T) {
	seq, track := newTestSequence(t)
	a := addSegment(t, seq, track.ID, 0, 4, "")
	b := addSegment(t, seq, track.ID, 4, 7, "")
	c := addSegment(t, seq, track.ID, 7, 9, "")

	engine := newEngine(seq, false)
	engine.TrimSegment(a.ID, EdgeEnd, 2, TrimRipple)
	engine.TrimSegment(b.ID, EdgeEnd, 6, TrimRoll)
	engine.RippleDelete(c.ID)
	engine.TrimSegment(a.ID, EdgeStart, 1, TrimNormal)

	segs := seq.SegmentsOnTrack(track.ID)
	for i := 1; i < len(segs); i++ {
		if segs[i].InSec < segs[i-1].OutSec-1e-9 {
			t.Fatalf("overlap between [%v,%v) and [%v,%v)",
				segs[i-1].InSec, segs[i-1].OutSec, segs[i].InSec, segs[i].OutSec)
		}
	}
}
