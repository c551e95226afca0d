package feed

import (
	"bytes"
)

// lineSplitter is a bufio.SplitFunc source for newline-delimited messages
// that discards a line longer than max instead of failing the scan. Reading
// resumes at the next newline.
type lineSplitter struct {
	max        int
	discarding bool
	oversized  func()
}

func (s *lineSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		if s.discarding {
			s.discarding = false
			return i + 1, nil, nil
		}
		return i + 1, bytes.TrimSuffix(data[:i], []byte{'\r'}), nil
	}

	if len(data) >= s.max {
		if !s.discarding {
			s.discarding = true
			if s.oversized != nil {
				s.oversized()
			}
		}
		return len(data), nil, nil
	}

	if atEOF && len(data) > 0 {
		if s.discarding {
			s.discarding = false
			return len(data), nil, nil
		}
		return len(data), bytes.TrimSuffix(data, []byte{'\r'}), nil
	}

	return 0, nil, nil
}
