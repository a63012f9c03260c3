package media

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestParseRangeHeader(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantStart int64
		wantEnd   int64
		wantOK    bool
		wantErr   error
	}{
		{"no header", "", 1000, 0, 0, false, nil},
		{"full range", "bytes=0-999", 1000, 0, 999, true, nil},
		{"open end", "bytes=500-", 1000, 500, 999, true, nil},
		{"suffix", "bytes=-500", 1000, 500, 999, true, nil},
		{"single byte", "bytes=0-0", 1000, 0, 0, true, nil},
		{"middle", "bytes=100-199", 1000, 100, 199, true, nil},
		{"end clamped", "bytes=0-2000", 1000, 0, 999, true, nil},
		{"suffix larger than file", "bytes=-2000", 500, 0, 499, true, nil},
		{"last byte open", "bytes=999-", 1000, 999, 999, true, nil},
		{"multi range takes first", "bytes=0-99, 200-299", 1000, 0, 99, true, nil},

		{"start at size", "bytes=1000-", 1000, 0, 0, false, ErrUnsatisfiable},
		{"fully beyond", "bytes=1500-2000", 1000, 0, 0, false, ErrUnsatisfiable},
		{"no unit", "invalid", 1000, 0, 0, false, ErrBadRange},
		{"wrong unit", "chars=0-100", 1000, 0, 0, false, ErrBadRange},
		{"bad start", "bytes=abc-100", 1000, 0, 0, false, ErrBadRange},
		{"bad end", "bytes=0-abc", 1000, 0, 0, false, ErrBadRange},
		{"zero suffix", "bytes=-0", 1000, 0, 0, false, ErrBadRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseRangeHeader(tt.header, tt.size)
			if err != tt.wantErr {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got.Start != tt.wantStart || got.End != tt.wantEnd {
				t.Errorf("range = {%d, %d}, want {%d, %d}", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestByteRange_Length(t *testing.T) {
	tests := []struct {
		start, end, want int64
	}{
		{0, 99, 100},
		{0, 0, 1},
		{500, 999, 500},
	}
	for _, tt := range tests {
		b := ByteRange{Start: tt.start, End: tt.end}
		if got := b.Length(); got != tt.want {
			t.Errorf("Length() = %d, want %d", got, tt.want)
		}
	}
}

func TestLibrary_Path(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "clip1.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary(dir)

	p, err := lib.Path("clip1")
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if filepath.Base(p) != "clip1.mp4" {
		t.Errorf("resolved %q", p)
	}

	if _, err := lib.Path("missing"); err != ErrMediaNotFound {
		t.Errorf("missing media error = %v", err)
	}
	for _, bad := range []string{"", "../etc/passwd", "a/b", `a\b`} {
		if _, err := lib.Path(bad); err != ErrMediaNotFound {
			t.Errorf("Path(%q) error = %v, want ErrMediaNotFound", bad, err)
		}
	}
}

func TestServer_ServeMedia(t *testing.T) {
	dir := t.TempDir()
	content := []byte("0123456789")
	if err := os.WriteFile(filepath.Join(dir, "clip1.mp4"), content, 0o644); err != nil {
		t.Fatal(err)
	}
	server := NewServer(NewLibrary(dir), nil)

	t.Run("full file", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/media/clip1", nil)
		if err := server.ServeMedia(w, r, "clip1"); err != nil {
			t.Fatal(err)
		}
		if w.Code != 200 || w.Body.String() != "0123456789" {
			t.Errorf("code=%d body=%q", w.Code, w.Body.String())
		}
		if got := w.Header().Get("Accept-Ranges"); got != "bytes" {
			t.Errorf("Accept-Ranges = %q", got)
		}
	})

	t.Run("partial", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/media/clip1", nil)
		r.Header.Set("Range", "bytes=2-5")
		if err := server.ServeMedia(w, r, "clip1"); err != nil {
			t.Fatal(err)
		}
		if w.Code != 206 || w.Body.String() != "2345" {
			t.Errorf("code=%d body=%q", w.Code, w.Body.String())
		}
		if got := w.Header().Get("Content-Range"); got != "bytes 2-5/10" {
			t.Errorf("Content-Range = %q", got)
		}
	})

	t.Run("unsatisfiable", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/media/clip1", nil)
		r.Header.Set("Range", "bytes=50-")
		if err := server.ServeMedia(w, r, "clip1"); err != nil {
			t.Fatal(err)
		}
		if w.Code != 416 {
			t.Errorf("code = %d, want 416", w.Code)
		}
	})

	t.Run("missing media", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/media/nope", nil)
		if err := server.ServeMedia(w, r, "nope"); err != nil {
			t.Fatal(err)
		}
		if w.Code != 404 {
			t.Errorf("code = %d, want 404", w.Code)
		}
	})
}
