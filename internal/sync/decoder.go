// Package sync keeps playback seamless across segment boundaries by feeding
// two decoder slots: one presenting, one preloading the next segment. The
// synchronizer evaluates the timeline against the playhead on every tick and
// decides what each slot should be doing, so a cut plays through without a
// visible reload.
package sync

// DecoderState is the lifecycle of one decoder slot.
type DecoderState int

const (
	StateEmpty DecoderState = iota
	StateLoading
	StateReady
	StatePlaying
)

func (s DecoderState) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	}
	return "unknown"
}

// Decoder is one media playback surface. Load is asynchronous: the decoder
// moves empty -> loading -> ready on its own, and the synchronizer polls
// State to find out. Implementations must tolerate any call in any state.
type Decoder interface {
	// Load begins fetching and decoding a media URL, replacing whatever
	// the decoder held. State drops to loading until the first frame is
	// decodable.
	Load(url string)

	// URL reports the media the decoder currently holds or is loading.
	// Empty means the slot has never been loaded.
	URL() string

	State() DecoderState

	Play()
	Pause()

	// Seek positions the decoder at a source-relative time.
	Seek(sec float64)

	// CurrentTime is the decoder's source-relative presentation time.
	CurrentTime() float64

	// SetVisible shows or hides the decoder's output surface.
	SetVisible(visible bool)
}

// FrameNotifier is an optional decoder capability: a callback fired when the
// next frame is actually presented. The synchronizer uses it to commit a slot
// swap on a real frame boundary instead of a timer guess. Decoders without it
// get an immediate swap, which may show one stale frame. The callback must
// fire asynchronously, never from inside OnNextFrame itself.
type FrameNotifier interface {
	OnNextFrame(fn func())
}
