// Package eventstream consumes the server-sent event stream that delivers
// notifications to a signed-in user.
package eventstream

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// maxLineSize caps a single stream line. Notification payloads are small; the
// limit only protects against a misbehaving server.
const maxLineSize = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	ID   string
	Name string
	Data []byte
}

// Reader splits a text/event-stream body into events.
type Reader struct {
	scanner *bufio.Scanner
	lastID  string
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	return &Reader{scanner: sc}
}

// Next returns the next complete event. Comment lines and events without data
// are skipped. It returns io.EOF when the stream ends cleanly, including when
// it ends partway through an event.
func (r *Reader) Next() (Event, error) {
	var (
		name    string
		data    bytes.Buffer
		hasData bool
	)

	for r.scanner.Scan() {
		line := strings.TrimSuffix(r.scanner.Text(), "\r")

		if line == "" {
			if !hasData {
				name = ""
				continue
			}
			if name == "" {
				name = "message"
			}
			return Event{ID: r.lastID, Name: name, Data: data.Bytes()}, nil
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			name = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				r.lastID = value
			}
		}
	}

	if err := r.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}
