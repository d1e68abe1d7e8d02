package codec

import (
	"strings"
)

// Frame represents a single STOMP frame on the realtime channel.
//
// Headers are kept as an ordered slice rather than a map: the wire format is
// order-significant and permits duplicate keys, and the server echoes
// headers back in order.
type Frame struct {
	Command string
	Headers []Header
	Body    string
}

// Header is a single key:value header line within a frame.
type Header struct {
	Key   string
	Value string
}

// STOMP commands recognised on the realtime channel.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdMessage     = "MESSAGE"
	CmdError       = "ERROR"
)

// Header returns the value of the first header with the given key, and
// whether it was present.
func (f *Frame) Header(key string) (string, bool) {
	for _, h := range f.Headers {
		if h.Key == key {
			return h.Value, true
		}
	}
	return "", false
}

// EncodeFrame serialises a frame to its wire form:
//
//	COMMAND\n Header lines \n Body \x00
//
// Exactly one blank line separates headers from body, and the frame is
// terminated by a single NUL byte.
func EncodeFrame(f Frame) string {
	var b strings.Builder
	b.WriteString(f.Command)
	b.WriteByte('\n')
	for _, h := range f.Headers {
		b.WriteString(h.Key)
		b.WriteByte(':')
		b.WriteString(h.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(f.Body)
	b.WriteByte(0)
	return b.String()
}

// EncodeRawFrame serialises a frame from pre-built header text. The header
// text may or may not carry a trailing newline; exactly one is emitted
// either way, followed by the blank separator line, body, and NUL.
func EncodeRawFrame(command, headerText, body string) string {
	var b strings.Builder
	b.WriteString(command)
	b.WriteByte('\n')
	b.WriteString(headerText)
	if headerText != "" && !strings.HasSuffix(headerText, "\n") {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(body)
	b.WriteByte(0)
	return b.String()
}

// DecodeFrame parses a wire payload into a Frame.
//
// The first "\n\n" marks the header/body boundary; a payload without one is
// not a frame and is rejected with ErrNotAFrame. The command is the text
// before the first newline (surrounding whitespace trimmed). The body runs
// from after the boundary to the first NUL byte, or to end of input when no
// NUL is present.
func DecodeFrame(payload string) (Frame, error) {
	headerEnd := strings.Index(payload, "\n\n")
	if headerEnd < 0 {
		return Frame{}, ErrNotAFrame
	}

	head := payload[:headerEnd]
	command := head
	var headerText string
	if nl := strings.IndexByte(head, '\n'); nl >= 0 {
		command = head[:nl]
		headerText = head[nl+1:]
	}
	command = strings.TrimSpace(command)

	var headers []Header
	for _, line := range strings.Split(headerText, "\n") {
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			// Malformed header line; keep the raw text as key so
			// nothing on the wire is silently dropped.
			headers = append(headers, Header{Key: line})
			continue
		}
		headers = append(headers, Header{Key: key, Value: value})
	}

	body := payload[headerEnd+2:]
	if nul := strings.IndexByte(body, 0); nul >= 0 {
		body = body[:nul]
	}

	return Frame{Command: command, Headers: headers, Body: body}, nil
}
