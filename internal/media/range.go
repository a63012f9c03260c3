package media

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBadRange      = errors.New("malformed range header")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span of a media file, as negotiated through
// the HTTP Range header. Scrubbing decoders request these constantly.
type ByteRange struct {
	Start int64
	End   int64
}

func (b ByteRange) Length() int64 {
	return b.End - b.Start + 1
}

func (b ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", b.Start, b.End, total)
}

// ParseRangeHeader interprets a Range header against a file size. A missing
// header returns ok=false with no error. Only the first range of a multi-range
// request is honored; decoders never send more than one.
func ParseRangeHeader(header string, size int64) (ByteRange, bool, error) {
	if header == "" {
		return ByteRange{}, false, nil
	}

	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return ByteRange{}, false, ErrBadRange
	}
	if idx := strings.Index(spec, ","); idx != -1 {
		spec = strings.TrimSpace(spec[:idx])
	}

	first, last, found := strings.Cut(spec, "-")
	if !found {
		return ByteRange{}, false, ErrBadRange
	}

	var b ByteRange
	switch {
	case first == "":
		// Suffix form: the last N bytes.
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil || n <= 0 {
			return ByteRange{}, false, ErrBadRange
		}
		b.Start = size - n
		if b.Start < 0 {
			b.Start = 0
		}
		b.End = size - 1
	default:
		start, err := strconv.ParseInt(first, 10, 64)
		if err != nil || start < 0 {
			return ByteRange{}, false, ErrBadRange
		}
		b.Start = start
		if last == "" {
			b.End = size - 1
		} else {
			end, err := strconv.ParseInt(last, 10, 64)
			if err != nil {
				return ByteRange{}, false, ErrBadRange
			}
			b.End = end
		}
	}

	if b.Start > b.End || b.Start >= size {
		return ByteRange{}, false, ErrUnsatisfiable
	}
	if b.End >= size {
		b.End = size - 1
	}
	return b, true, nil
}
