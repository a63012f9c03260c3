package sync

import (
	"log/slog"
	"math"
	stdsync "sync"

	"github.com/cutroom/cutroom-agent/internal/timecode"
	"github.com/cutroom/cutroom-agent/internal/timeline"
)

const (
	// PreRollSec is how far ahead of a cut the standby decoder starts
	// rolling so its pipeline is warm when the swap lands.
	PreRollSec = 0.5

	// SwapWindowFrames is the distance from a cut, in display frames, at
	// which the swap is requested. 1.5 frames absorbs one frame of
	// notification latency without ever committing a frame early enough
	// to show the wrong segment.
	SwapWindowFrames = 1.5

	// ScrubDriftFrames is the tolerated divergence between the playhead
	// and the active decoder while scrubbing before a corrective seek.
	ScrubDriftFrames = 1.5
)

// slot names for the debug surface.
const (
	slotA = "A"
	slotB = "B"
)

// DebugState is a snapshot of the synchronizer for the monitor overlay.
type DebugState struct {
	ActivePlayer        string  `json:"active_player"`
	ActiveState         string  `json:"active_state"`
	StandbyState        string  `json:"standby_state"`
	CurrentSegmentLabel string  `json:"current_segment_label"`
	Timecode            string  `json:"timecode"`
	PlayheadSec         float64 `json:"playhead_sec"`
	Playing             bool    `json:"playing"`
	SwapPending         bool    `json:"swap_pending"`
}

// Synchronizer drives two decoder slots against the primary video track.
// Exactly one slot presents at a time; the other preloads the upcoming
// segment. All decisions happen in Tick, which the owner calls with the
// current playhead once per display frame.
type Synchronizer struct {
	mu     stdsync.Mutex
	seq    *timeline.Sequence
	a, b   Decoder
	logger *slog.Logger

	activeIsB    bool
	playing      bool
	playhead     float64
	fps          float64
	currentLabel string
	swapPending  bool
	inGap        bool
}

func NewSynchronizer(seq *timeline.Sequence, a, b Decoder, fps float64, logger *slog.Logger) *Synchronizer {
	if fps <= 0 {
		fps = timecode.DefaultFPS
	}
	return &Synchronizer{seq: seq, a: a, b: b, fps: fps, logger: logger}
}

func (y *Synchronizer) active() Decoder {
	if y.activeIsB {
		return y.b
	}
	return y.a
}

func (y *Synchronizer) standby() Decoder {
	if y.activeIsB {
		return y.a
	}
	return y.b
}

func (y *Synchronizer) activeName() string {
	if y.activeIsB {
		return slotB
	}
	return slotA
}

// frameWindow converts the swap window from display frames to seconds.
func (y *Synchronizer) frameWindow() float64 {
	return SwapWindowFrames / y.fps
}

func (y *Synchronizer) Play() {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.playing = true
	if !y.inGap {
		y.active().Play()
	}
}

func (y *Synchronizer) Pause() {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.playing = false
	y.a.Pause()
	y.b.Pause()
}

func (y *Synchronizer) IsPlaying() bool {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.playing
}

// Tick evaluates the timeline at the given playhead and reconciles both
// decoder slots toward what playback needs next. It is cheap and idempotent;
// calling it twice with the same playhead changes nothing.
func (y *Synchronizer) Tick(playhead float64) {
	y.mu.Lock()
	defer y.mu.Unlock()

	y.playhead = playhead

	track, err := y.seq.PrimaryVideoTrack()
	if err != nil {
		return
	}

	seg, ok := y.seq.SegmentAt(track.ID, playhead)
	if !ok {
		y.enterGap()
		return
	}
	y.leaveGap()
	y.currentLabel = seg.Label

	url := mediaURL(seg)
	if url == "" {
		return
	}

	active := y.active()
	if active.URL() != url {
		// A frame-confirmed swap may commit a hair before the cut; inside
		// the window the active slot legitimately holds the next segment.
		if y.earlySwapInWindow(track.ID, seg, active, playhead) {
			return
		}
		y.reconcileWrongMedia(seg, url, playhead)
		active = y.active()
	}
	active.SetVisible(true)

	if !y.playing {
		y.correctScrubDrift(active, seg, playhead)
		return
	}
	if active.State() == StateReady {
		active.Play()
	}

	y.prepareNext(track.ID, seg, playhead)
}

// earlySwapInWindow reports whether the active slot already presents the
// upcoming segment's media while the playhead sits within the swap window of
// the cut. That state is the tail end of a frame-confirmed swap, not a wrong
// load.
func (y *Synchronizer) earlySwapInWindow(trackID string, seg *timeline.Segment, active Decoder, playhead float64) bool {
	if seg.OutSec-playhead > y.frameWindow() {
		return false
	}
	next, ok := y.seq.SegmentAfter(trackID, seg.OutSec)
	if !ok {
		return false
	}
	return active.URL() == mediaURL(next)
}

// reconcileWrongMedia handles the active slot holding the wrong media: if the
// standby already preloaded the right one, swap to it; otherwise hard-switch
// by loading into the active slot, which may stall one or two frames.
func (y *Synchronizer) reconcileWrongMedia(seg *timeline.Segment, url string, playhead float64) {
	standby := y.standby()
	if standby.URL() == url && standby.State() >= StateReady {
		y.completeSwap("boundary")
		return
	}
	active := y.active()
	active.Load(url)
	active.Seek(sourceTime(seg, playhead))
	if y.playing {
		active.Play()
	}
	if y.logger != nil {
		y.logger.Warn("hard switch", "segment_label", seg.Label, "url", url)
	}
}

// prepareNext keeps the standby slot one segment ahead: preload on sight,
// pre-roll close to the cut, and request the swap inside the frame window.
func (y *Synchronizer) prepareNext(trackID string, seg *timeline.Segment, playhead float64) {
	next, ok := y.seq.SegmentAfter(trackID, seg.OutSec)
	if !ok {
		return
	}
	nextURL := mediaURL(next)
	if nextURL == "" {
		return
	}

	standby := y.standby()
	if standby.URL() != nextURL {
		standby.SetVisible(false)
		standby.Load(nextURL)
		standby.Seek(next.SourceInSec)
		y.swapPending = false
	}

	remaining := seg.OutSec - playhead
	if remaining <= PreRollSec && standby.State() == StateReady {
		standby.Play()
	}
	if remaining <= y.frameWindow() && !y.swapPending {
		y.requestSwap(standby)
	}
}

// requestSwap commits the slot swap on the standby's next presented frame
// when the decoder can report one, otherwise immediately.
func (y *Synchronizer) requestSwap(standby Decoder) {
	if standby.State() < StateReady {
		return
	}
	notifier, ok := standby.(FrameNotifier)
	if !ok {
		y.completeSwap("immediate")
		return
	}
	y.swapPending = true
	notifier.OnNextFrame(func() {
		y.mu.Lock()
		defer y.mu.Unlock()
		if !y.swapPending {
			return
		}
		y.completeSwap("frame")
	})
}

// completeSwap makes the standby slot the presenter and retires the old
// active slot hidden and paused. Callers hold the mutex.
func (y *Synchronizer) completeSwap(reason string) {
	old := y.active()
	next := y.standby()

	next.SetVisible(true)
	if y.playing {
		next.Play()
	}
	old.Pause()
	old.SetVisible(false)

	y.activeIsB = !y.activeIsB
	y.swapPending = false

	if y.logger != nil {
		y.logger.Debug("slot swap", "active", y.activeName(), "reason", reason)
	}
}

// correctScrubDrift reseeks the active decoder when scrubbing has pulled the
// playhead away from what the decoder is presenting.
func (y *Synchronizer) correctScrubDrift(active Decoder, seg *timeline.Segment, playhead float64) {
	want := sourceTime(seg, playhead)
	if math.Abs(active.CurrentTime()-want) > ScrubDriftFrames/y.fps {
		active.Seek(want)
	}
}

// enterGap pauses and hides both slots; a gap presents black.
func (y *Synchronizer) enterGap() {
	if y.inGap {
		return
	}
	y.inGap = true
	y.currentLabel = ""
	y.swapPending = false
	y.a.Pause()
	y.b.Pause()
	y.a.SetVisible(false)
	y.b.SetVisible(false)
}

func (y *Synchronizer) leaveGap() {
	if !y.inGap {
		return
	}
	y.inGap = false
	y.active().SetVisible(true)
	if y.playing {
		y.active().Play()
	}
}

// DebugState snapshots the synchronizer for the monitor stream.
func (y *Synchronizer) DebugState() DebugState {
	y.mu.Lock()
	defer y.mu.Unlock()
	return DebugState{
		ActivePlayer:        y.activeName(),
		ActiveState:         y.active().State().String(),
		StandbyState:        y.standby().State().String(),
		CurrentSegmentLabel: y.currentLabel,
		Timecode:            timecode.ToTimecode(y.playhead, y.fps),
		PlayheadSec:         y.playhead,
		Playing:             y.playing,
		SwapPending:         y.swapPending,
	}
}

// mediaURL is the URL a segment should present: its active revision's
// resolved URL, or nothing while resolution is still in flight.
func mediaURL(seg *timeline.Segment) string {
	r := seg.ActiveRevision()
	if r == nil {
		return ""
	}
	return r.URL
}

// sourceTime maps a timeline position inside a segment to the media's own
// clock.
func sourceTime(seg *timeline.Segment, playhead float64) float64 {
	return seg.SourceInSec + (playhead - seg.InSec)
}
