// Package chatstream consumes the server-sent event stream produced by the
// chat relay and turns it into content deltas.
package chatstream

import (
	"bytes"
	"encoding/json"
)

const (
	dataPrefix = "data: "
	doneMarker = "[DONE]"
)

// Decoder splits an SSE byte stream into lines and extracts
// choices[0].delta.content from each data line. It keeps undecoded bytes
// between calls, so a multi-byte character or a JSON payload split across
// reads is picked up once the rest arrives. Not safe for concurrent use.
type Decoder struct {
	buf  []byte
	done bool
}

func NewDecoder() *Decoder {
	return &Decoder{}
}

// Done reports whether the [DONE] sentinel has been seen.
func (d *Decoder) Done() bool { return d.done }

// Feed appends chunk to the buffer and processes every complete line.
// A data line whose JSON does not parse is kept at the head of the buffer
// and processing stops until more bytes are fed.
func (d *Decoder) Feed(chunk []byte) (deltas []string, done bool) {
	if d.done {
		return nil, true
	}
	d.buf = append(d.buf, chunk...)

	for {
		idx := bytes.IndexByte(d.buf, '\n')
		if idx < 0 {
			break
		}
		line := d.buf[:idx]
		rest := d.buf[idx+1:]
		line = bytes.TrimSuffix(line, []byte("\r"))

		if len(line) == 0 || line[0] == ':' || !bytes.HasPrefix(line, []byte(dataPrefix)) {
			d.buf = rest
			continue
		}

		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if string(payload) == doneMarker {
			d.buf = rest
			d.done = true
			break
		}

		content, ok := parseContent(payload)
		if !ok {
			// incomplete line: leave it (with its newline) at the head
			break
		}
		d.buf = rest
		if content != "" {
			deltas = append(deltas, content)
		}
	}
	return deltas, d.done
}

// Flush makes one pass over whatever is still buffered, including a final
// line without a newline. Unparseable lines and [DONE] are ignored.
func (d *Decoder) Flush() []string {
	if len(d.buf) == 0 {
		return nil
	}
	var deltas []string
	for _, raw := range bytes.Split(d.buf, []byte("\n")) {
		line := bytes.TrimSuffix(raw, []byte("\r"))
		if len(line) == 0 || line[0] == ':' || !bytes.HasPrefix(line, []byte(dataPrefix)) {
			continue
		}
		payload := bytes.TrimSpace(line[len(dataPrefix):])
		if string(payload) == doneMarker {
			continue
		}
		if content, ok := parseContent(payload); ok && content != "" {
			deltas = append(deltas, content)
		}
	}
	d.buf = nil
	return deltas
}

// parseContent reports ok=false only when payload is not complete JSON.
// Valid chunks without a string choices[0].delta.content yield "".
func parseContent(payload []byte) (string, bool) {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return "", false
	}
	chunk, _ := v.(map[string]any)
	choices, _ := chunk["choices"].([]any)
	if len(choices) == 0 {
		return "", true
	}
	choice, _ := choices[0].(map[string]any)
	delta, _ := choice["delta"].(map[string]any)
	content, _ := delta["content"].(string)
	return content, true
}
