package timecode

import (
	"testing"
)

func TestToTimecode(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		fps     float64
		want    string
	}{
		{name: "zero", seconds: 0, fps: 30, want: "00:00:00:00"},
		{name: "one second", seconds: 1.0, fps: 30, want: "00:00:01:00"},
		{name: "half second", seconds: 0.5, fps: 30, want: "00:00:00:15"},
		{name: "floors partial frame", seconds: 0.999, fps: 30, want: "00:00:00:29"},
		{name: "one minute", seconds: 60, fps: 30, want: "00:01:00:00"},
		{name: "one hour", seconds: 3600, fps: 30, want: "01:00:00:00"},
		{name: "24 fps", seconds: 1.5, fps: 24, want: "00:00:01:12"},
		{name: "negative clamps", seconds: -2, fps: 30, want: "00:00:00:00"},
		{name: "zero fps uses default", seconds: 1, fps: 0, want: "00:00:01:00"},
		{name: "accumulated float error", seconds: 0.1 * 3, fps: 30, want: "00:00:00:09"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ToTimecode(tc.seconds, tc.fps)
			if got != tc.want {
				t.Fatalf("ToTimecode(%v, %v) = %q, want %q", tc.seconds, tc.fps, got, tc.want)
			}
		})
	}
}

func TestToTimecode_Monotonic(t *testing.T) {
	prev := ""
	for sec := 0.0; sec < 2.0; sec += 0.01 {
		tc := ToTimecode(sec, 30)
		if tc < prev {
			t.Fatalf("timecode went backwards at %v: %q < %q", sec, tc, prev)
		}
		prev = tc
	}
}

func TestFromTimecode_RoundTrip(t *testing.T) {
	for _, fps := range []float64{24, 25, 30, 60} {
		for _, sec := range []float64{0, 0.4, 1.0, 12.345, 59.99, 3601.5} {
			tc := ToTimecode(sec, fps)
			back, err := FromTimecode(tc, fps)
			if err != nil {
				t.Fatalf("FromTimecode(%q, %v) error: %v", tc, fps, err)
			}
			if FrameIndex(back, fps) != FrameIndex(sec, fps) {
				t.Fatalf("round trip lost frame at %v fps %v: %q -> %v", sec, fps, tc, back)
			}
		}
	}
}

func TestFromTimecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		tc   string
		fps  float64
	}{
		{"too few fields", "00:00:01", 30},
		{"non-numeric", "00:aa:00:00", 30},
		{"minutes overflow", "00:61:00:00", 30},
		{"frames at rate", "00:00:00:30", 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := FromTimecode(tc.tc, tc.fps); err == nil {
				t.Fatalf("FromTimecode(%q) expected error", tc.tc)
			}
		})
	}
}

func TestContiguous(t *testing.T) {
	if !Contiguous(5.0, 5.04) {
		t.Error("5.0 and 5.04 should be contiguous")
	}
	if Contiguous(5.0, 5.06) {
		t.Error("5.0 and 5.06 should not be contiguous")
	}
}

func TestInterval(t *testing.T) {
	iv := Interval{Start: 2, End: 5}

	if iv.Duration() != 3 {
		t.Errorf("Duration = %v, want 3", iv.Duration())
	}
	if !iv.Contains(2) {
		t.Error("interval should contain its start")
	}
	if iv.Contains(5) {
		t.Error("interval should not contain its end")
	}
	if !iv.Overlaps(Interval{Start: 4, End: 6}) {
		t.Error("expected overlap with [4,6)")
	}
	if iv.Overlaps(Interval{Start: 5, End: 6}) {
		t.Error("touching intervals do not overlap")
	}
}
