// Package timecode converts between frame-rate-independent time values
// (seconds) and frame-rate-dependent display timecodes. The frame rate is an
// explicit parameter on every conversion; there is no hidden project-wide
// frame rate.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultFPS is used when a caller passes a non-positive frame rate.
	DefaultFPS = 30.0

	// ContiguityEpsilon is the sub-frame tolerance under which two
	// boundaries are treated as touching.
	ContiguityEpsilon = 0.05

	// floatGuard absorbs accumulated floating point error before flooring
	// to a frame index, so 0.1*3 seconds at 30fps still lands on frame 9.
	floatGuard = 1e-9
)

// FrameIndex returns the whole display frame containing the given time.
// Negative times clamp to frame zero.
func FrameIndex(seconds, fps float64) int {
	if fps <= 0 {
		fps = DefaultFPS
	}
	if seconds <= 0 {
		return 0
	}
	return int(math.Floor(seconds*fps + floatGuard))
}

// FrameDuration returns the length of one display frame in seconds.
func FrameDuration(fps float64) float64 {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return 1.0 / fps
}

// ToTimecode formats seconds as HH:MM:SS:FF, flooring to whole frames.
// The frame field uses the nominal integer frame rate, matching how
// fractional rates like 29.97 are conventionally displayed.
func ToTimecode(seconds, fps float64) string {
	if fps <= 0 {
		fps = DefaultFPS
	}
	nominal := int(math.Round(fps))
	if nominal <= 0 {
		nominal = int(DefaultFPS)
	}

	totalFrames := FrameIndex(seconds, fps)
	frames := totalFrames % nominal
	totalSeconds := totalFrames / nominal
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// FromTimecode parses an HH:MM:SS:FF timecode back into seconds at the given
// frame rate. The result recovers the frame index produced by ToTimecode,
// not necessarily the exact float it was derived from.
func FromTimecode(tc string, fps float64) (float64, error) {
	if fps <= 0 {
		fps = DefaultFPS
	}
	nominal := int(math.Round(fps))

	parts := strings.Split(tc, ":")
	if len(parts) != 4 {
		return 0, fmt.Errorf("invalid timecode %q: want HH:MM:SS:FF", tc)
	}

	fields := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("invalid timecode %q: bad field %q", tc, p)
		}
		fields[i] = v
	}

	if fields[1] > 59 || fields[2] > 59 || fields[3] >= nominal {
		return 0, fmt.Errorf("invalid timecode %q for %d fps", tc, nominal)
	}

	totalFrames := ((fields[0]*60+fields[1])*60+fields[2])*nominal + fields[3]
	return float64(totalFrames) / fps, nil
}

// Contiguous reports whether two boundaries are within the sub-frame
// contiguity tolerance of one another.
func Contiguous(a, b float64) bool {
	return math.Abs(a-b) <= ContiguityEpsilon
}

// Interval is a half-open span [Start, End) on the timeline, in seconds.
type Interval struct {
	Start float64
	End   float64
}

func (i Interval) Duration() float64 {
	return i.End - i.Start
}

func (i Interval) Contains(sec float64) bool {
	return sec >= i.Start && sec < i.End
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}
