package sync

import stdsync "sync"

// VirtualDecoder is a decoder state machine with no output surface. It gives
// the synchronizer real slots to drive when the agent runs without an
// attached player; the monitor stream mirrors its state so the swap logic
// stays observable. Loads complete immediately.
type VirtualDecoder struct {
	mu      stdsync.Mutex
	url     string
	state   DecoderState
	current float64
	visible bool
}

func NewVirtualDecoder() *VirtualDecoder {
	return &VirtualDecoder{}
}

func (d *VirtualDecoder) Load(url string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.url = url
	d.state = StateReady
	d.current = 0
}

func (d *VirtualDecoder) URL() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url
}

func (d *VirtualDecoder) State() DecoderState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *VirtualDecoder) Play() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state >= StateReady {
		d.state = StatePlaying
	}
}

func (d *VirtualDecoder) Pause() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StatePlaying {
		d.state = StateReady
	}
}

func (d *VirtualDecoder) Seek(sec float64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = sec
}

func (d *VirtualDecoder) CurrentTime() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *VirtualDecoder) SetVisible(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.visible = visible
}

// Visible reports whether the slot would be presenting.
func (d *VirtualDecoder) Visible() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.visible
}
