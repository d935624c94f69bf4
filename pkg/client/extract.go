package client

import (
	"bytes"
	"strings"
)

// TerminationMarker ends a stream ("data: [DONE]" once the SSE field is stripped).
const TerminationMarker = "[DONE]"

// ScanEvents is a bufio.SplitFunc cutting a body into server-sent events,
// each ending in a blank line. Trailing text without a blank line is the
// final chunk.
func ScanEvents(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case crlf >= 0 && (lf < 0 || crlf < lf):
		return crlf + 4, data[:crlf], nil
	case lf >= 0:
		return lf + 2, data[:lf], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// eventPayload strips server-sent event framing. When the chunk has data:
// lines their values are joined with "\n". A chunk made only of other SSE
// fields or comments carries no message and returns ok=false. Anything else
// is returned verbatim.
func eventPayload(chunk string) (payload string, ok bool) {
	var (
		data   []string
		fields int
		other  int
	)
	for _, line := range strings.Split(strings.ReplaceAll(chunk, "\r\n", "\n"), "\n") {
		switch {
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		case strings.HasPrefix(line, ":"),
			strings.HasPrefix(line, "event:"),
			strings.HasPrefix(line, "id:"),
			strings.HasPrefix(line, "retry:"):
			fields++
		case strings.TrimSpace(line) != "":
			other++
		}
	}

	switch {
	case len(data) > 0:
		return strings.Join(data, "\n"), true
	case fields > 0 && other == 0:
		return "", false
	}
	return chunk, true
}

// objectScanner extracts complete top-level JSON objects from a sequence of
// chunks. It tracks brace depth outside of JSON strings, so nested objects
// and braces inside strings are handled, and an object left open at the end
// of one chunk continues into the next.
type objectScanner struct {
	buf      strings.Builder
	depth    int
	inString bool
	escaped  bool
}

// feed returns the objects completed by chunk, in order. A chunk that
// neither completes, continues nor opens an object is a format error.
func (s *objectScanner) feed(chunk string) ([]string, error) {
	var (
		out     []string
		touched = s.depth > 0
	)

	for i := 0; i < len(chunk); i++ {
		ch := chunk[i]
		if s.depth == 0 {
			// Text between objects is framing.
			if ch == '{' {
				s.buf.Reset()
				s.buf.WriteByte(ch)
				s.depth = 1
				touched = true
			}
			continue
		}

		s.buf.WriteByte(ch)
		if s.inString {
			switch {
			case s.escaped:
				s.escaped = false
			case ch == '\\':
				s.escaped = true
			case ch == '"':
				s.inString = false
			}
			continue
		}

		switch ch {
		case '"':
			s.inString = true
		case '{':
			s.depth++
		case '}':
			s.depth--
			if s.depth == 0 {
				out = append(out, s.buf.String())
				s.buf.Reset()
			}
		}
	}

	if !touched {
		return nil, &StreamFormatError{Chunk: chunk, Reason: "no JSON object in chunk"}
	}
	return out, nil
}

// pending reports an object opened but never closed.
func (s *objectScanner) pending() (string, bool) {
	if s.depth == 0 {
		return "", false
	}
	return s.buf.String(), true
}
