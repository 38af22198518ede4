package openaichat

import (
	"bytes"
	"errors"
	"io"
	"strings"
)

// recordSeparator delimits server-sent-event records.
var recordSeparator = []byte("\n\n")

// doneSentinel is the data payload that closes a chat completion stream.
const doneSentinel = "[DONE]"

// sseScanner splits a byte stream into server-sent-event records. It reads
// the source in whatever fragment sizes arrive and buffers until a record
// separator is seen, so records split mid-line or mid-character are
// reassembled transparently.
type sseScanner struct {
	src  io.Reader
	buf  []byte
	tmp  [4096]byte
	done bool
}

func newSSEScanner(src io.Reader) *sseScanner {
	return &sseScanner{src: src}
}

// next returns the next raw record, without its trailing separator. It
// returns io.EOF when the source is exhausted; a non-delimited remainder at
// end of stream is discarded.
func (s *sseScanner) next() ([]byte, error) {
	for {
		if i := bytes.Index(s.buf, recordSeparator); i >= 0 {
			record := append([]byte(nil), s.buf[:i]...)
			s.buf = s.buf[i+len(recordSeparator):]
			return record, nil
		}
		if s.done {
			return nil, io.EOF
		}
		n, err := s.src.Read(s.tmp[:])
		if n > 0 {
			s.buf = append(s.buf, s.tmp[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.done = true
				continue
			}
			return nil, err
		}
	}
}

// sseRecord is one decoded server-sent event.
type sseRecord struct {
	// fields holds non-data fields such as "event" or "id".
	fields map[string]string
	// data holds the data lines joined with newlines, nil when absent.
	data []byte
	// done marks the stream termination sentinel.
	done bool
}

// decodeSSERecord parses a raw record into fields and data. Comment lines
// are skipped; multiple data lines are joined with a newline. It returns nil
// when the record carries no fields at all.
func decodeSSERecord(raw []byte) *sseRecord {
	record := &sseRecord{}
	var dataLines []string
	for _, line := range bytes.Split(raw, []byte("\n")) {
		line = bytes.TrimSuffix(line, []byte("\r"))
		if len(line) == 0 || line[0] == ':' {
			continue
		}
		key, value, found := strings.Cut(string(line), ":")
		key = strings.TrimSpace(key)
		if found {
			value = strings.TrimSpace(value)
		}
		if key == "data" {
			dataLines = append(dataLines, value)
			continue
		}
		if record.fields == nil {
			record.fields = map[string]string{}
		}
		record.fields[key] = value
	}
	if len(dataLines) > 0 {
		data := strings.Join(dataLines, "\n")
		if data == doneSentinel {
			record.done = true
		} else {
			record.data = []byte(data)
		}
	}
	if record.fields == nil && record.data == nil && !record.done {
		return nil
	}
	return record
}
