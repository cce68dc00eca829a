package wire

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// MaxRequestSize is the size of the single read performed per connection.
const MaxRequestSize = 1024

// ErrEmptyRequest is returned when the peer sent nothing before closing or erroring.
var ErrEmptyRequest = errors.New("empty request")

// Request is the textual view of one client request.
type Request struct {
	// Raw is the decoded request text used for route matching.
	Raw string
	// Method and Target come from the request line and are informational only.
	Method string
	Target string
	// ID is the third "/"-separated token of Raw, cut at the first whitespace.
	ID string
	// Body is everything after the first blank line.
	Body string
}

// ReadRequest performs exactly one read of up to MaxRequestSize bytes from r.
// Anything the peer sends beyond that, or in a later segment, is ignored.
func ReadRequest(r io.Reader) (Request, error) {
	buf := make([]byte, MaxRequestSize)
	n, err := r.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return Request{}, ErrEmptyRequest
		}
		return Request{}, fmt.Errorf("read request: %w", err)
	}
	return Parse(strings.ToValidUTF8(string(buf[:n]), "\uFFFD")), nil
}

// Parse extracts the request line, identifier and body from raw.
func Parse(raw string) Request {
	req := Request{
		Raw: raw,
		ID:  extractID(raw),
	}
	line, _, _ := strings.Cut(raw, "\r\n")
	if fields := strings.Fields(line); len(fields) >= 2 {
		req.Method = fields[0]
		req.Target = fields[1]
	}
	if _, body, ok := strings.Cut(raw, "\r\n\r\n"); ok {
		req.Body = body
	}
	return req
}

func extractID(raw string) string {
	parts := strings.SplitN(raw, "/", 4)
	if len(parts) < 3 {
		return ""
	}
	fields := strings.Fields(parts[2])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
