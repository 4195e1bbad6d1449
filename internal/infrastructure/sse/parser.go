package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"time"
)

const maxLineSize = 1 << 20

// Event is one dispatched server-sent event.
type Event struct {
	ID    string
	Name  string
	Data  []byte
	Retry time.Duration
}

// reader splits a text/event-stream body into events.
//
// A line longer than maxLine is skipped up to its newline and the event it
// belongs to is dropped; onOversize, when set, is told the event's name.
type reader struct {
	br         *bufio.Reader
	line       []byte
	maxLine    int
	onOversize func(event string)
}

func newReader(r io.Reader) *reader {
	return &reader{br: bufio.NewReaderSize(r, 64*1024), maxLine: maxLineSize}
}

// readLine returns the next line without its terminator. tooLong reports a
// line that exceeded maxLine and was discarded.
func (r *reader) readLine() (line []byte, tooLong bool, err error) {
	r.line = r.line[:0]
	for {
		frag, err := r.br.ReadSlice('\n')
		if !tooLong {
			if len(r.line)+len(frag) > r.maxLine+1 {
				tooLong = true
				r.line = r.line[:0]
			} else {
				r.line = append(r.line, frag...)
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil {
			// An unterminated last line belongs to a truncated event.
			return nil, false, err
		}
		break
	}
	if tooLong {
		return nil, true, nil
	}
	line = bytes.TrimSuffix(r.line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), false, nil
}

// Next returns the next event with a data field. It returns io.EOF when the
// body ends; a trailing event without its blank line is discarded.
func (r *reader) Next() (Event, error) {
	var (
		ev      Event
		data    bytes.Buffer
		hasData bool
		dropped bool
	)
	for {
		line, tooLong, err := r.readLine()
		if err != nil {
			return Event{}, err
		}
		if tooLong {
			if !dropped && r.onOversize != nil {
				r.onOversize(ev.Name)
			}
			dropped = true
			continue
		}
		if len(line) == 0 {
			if !hasData || dropped {
				// Comment-only, id-only or oversized block.
				ev = Event{ID: ev.ID, Retry: ev.Retry}
				data.Reset()
				hasData, dropped = false, false
				continue
			}
			ev.Data = bytes.TrimSuffix(data.Bytes(), []byte("\n"))
			if ev.Name == "" {
				ev.Name = "message"
			}
			return ev, nil
		}
		if line[0] == ':' {
			continue
		}

		field, value := line, []byte(nil)
		if i := bytes.IndexByte(line, ':'); i >= 0 {
			field, value = line[:i], line[i+1:]
			value = bytes.TrimPrefix(value, []byte(" "))
		}

		switch string(field) {
		case "event":
			ev.Name = string(value)
		case "data":
			if !dropped {
				data.Write(value)
				data.WriteByte('\n')
			}
			hasData = true
		case "id":
			if bytes.IndexByte(value, 0) < 0 {
				ev.ID = string(value)
			}
		case "retry":
			if ms, err := strconv.Atoi(string(value)); err == nil && ms >= 0 {
				ev.Retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
}
