package tcp

import (
	"bytes"
	"errors"
)

var (
	// errStreamEnd ends the scan when the server closes the protocol element.
	errStreamEnd = errors.New("protocol stream closed by server")
	errTruncated = errors.New("stream ended inside a frame")
)

type markup int

const (
	markupSkip markup = iota // declaration, comment, CDATA or doctype
	markupStart
	markupEnd
	markupEmpty
)

// splitFrames is a bufio.SplitFunc that yields one top level element per
// token. The <protocol> opening is consumed without a token and </protocol>
// stops the scan with errStreamEnd. Stray text at the top level is passed
// on as a token of its own so the codec rejects it.
func splitFrames(data []byte, atEOF bool) (int, []byte, error) {
	// bufio.Scanner reads again after an advance without a token, so
	// skipped markup is consumed here until a token or a short buffer.
	start := skipSpace(data, 0)
	for start < len(data) {
		end, token, err := nextFrame(data, start, atEOF)
		if token != nil || err != nil {
			return end, token, err
		}
		if end == 0 {
			return start, nil, nil
		}
		start = skipSpace(data, end)
	}
	return start, nil, nil
}

// nextFrame scans from data[start]. end == 0 without a token means more
// data is needed; end > 0 without a token means skipped markup.
func nextFrame(data []byte, start int, atEOF bool) (int, []byte, error) {
	if data[start] != '<' {
		end := bytes.IndexByte(data[start:], '<')
		if end < 0 {
			if !atEOF {
				return 0, nil, nil
			}
			return len(data), data[start:], nil
		}
		return start + end, data[start : start+end], nil
	}

	depth := 0
	pos := start
	for {
		lt := bytes.IndexByte(data[pos:], '<')
		if lt < 0 {
			return needMore(atEOF)
		}
		lt += pos

		end, kind, name, ok := scanMarkup(data, lt)
		if !ok {
			return needMore(atEOF)
		}

		switch kind {
		case markupSkip:
			if depth == 0 {
				return end, nil, nil
			}
		case markupStart:
			if depth == 0 && name == "protocol" {
				return end, nil, nil
			}
			depth++
		case markupEnd:
			if depth == 0 {
				if name == "protocol" {
					return end, nil, errStreamEnd
				}
				return end, data[start:end], nil
			}
			depth--
		}

		if depth == 0 && kind != markupSkip {
			return end, data[start:end], nil
		}
		pos = end
	}
}

func needMore(atEOF bool) (int, []byte, error) {
	if atEOF {
		return 0, nil, errTruncated
	}
	return 0, nil, nil
}

func skipSpace(data []byte, i int) int {
	for i < len(data) {
		switch data[i] {
		case ' ', '\t', '\r', '\n':
			i++
		default:
			return i
		}
	}
	return i
}

// scanMarkup reads the markup starting at data[lt] == '<'. It returns the
// offset just past it, or ok == false when data does not hold all of it yet.
func scanMarkup(data []byte, lt int) (end int, kind markup, name string, ok bool) {
	rest := data[lt:]
	if len(rest) < 2 {
		return 0, 0, "", false
	}

	switch rest[1] {
	case '?':
		return closeAfter(rest, lt, 2, "?>")
	case '!':
		if len(rest) < 4 {
			return 0, 0, "", false
		}
		if bytes.HasPrefix(rest, []byte("<!--")) {
			return closeAfter(rest, lt, 4, "-->")
		}
		const cdata = "<![CDATA["
		if len(rest) < len(cdata) && bytes.HasPrefix([]byte(cdata), rest) {
			return 0, 0, "", false
		}
		if bytes.HasPrefix(rest, []byte(cdata)) {
			return closeAfter(rest, lt, len(cdata), "]]>")
		}
		return closeAfter(rest, lt, 2, ">")
	}

	kind = markupStart
	i := 1
	if rest[1] == '/' {
		kind = markupEnd
		i = 2
	}
	nameStart := i
	for i < len(rest) && !isNameEnd(rest[i]) {
		i++
	}
	name = string(rest[nameStart:i])

	var quote byte
	for ; i < len(rest); i++ {
		c := rest[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			if kind == markupStart && rest[i-1] == '/' {
				kind = markupEmpty
			}
			return lt + i + 1, kind, name, true
		}
	}
	return 0, 0, "", false
}

func closeAfter(rest []byte, lt, from int, terminator string) (int, markup, string, bool) {
	i := bytes.Index(rest[from:], []byte(terminator))
	if i < 0 {
		return 0, 0, "", false
	}
	return lt + from + i + len(terminator), markupSkip, "", true
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '/', '>':
		return true
	}
	return false
}
