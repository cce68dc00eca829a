package wire

import (
	"fmt"
	"io"
)

// Status is one of the three response classes the service emits.
type Status int

// Supported statuses.
const (
	StatusOK                  Status = 200
	StatusNotFound            Status = 404
	StatusInternalServerError Status = 500
)

// Status blocks written verbatim ahead of the body.
const (
	okLine                  = "HTTP/1.1 200 OK\r\nContent-Type: application/json\r\n\r\n"
	notFoundLine            = "HTTP/1.1 404 NOT FOUND\r\n\r\n"
	internalServerErrorLine = "HTTP/1.1 500 INTERNAL SERVER ERROR\r\n\r\n"
)

// Line returns the status block for s. Unknown values map to the 500 block.
func (s Status) Line() string {
	switch s {
	case StatusOK:
		return okLine
	case StatusNotFound:
		return notFoundLine
	default:
		return internalServerErrorLine
	}
}

// Code returns the numeric status.
func (s Status) Code() int {
	switch s {
	case StatusOK, StatusNotFound:
		return int(s)
	default:
		return int(StatusInternalServerError)
	}
}

// Response pairs a status with a body.
type Response struct {
	Status Status
	Body   string
}

// OK builds a 200 response.
func OK(body string) Response { return Response{Status: StatusOK, Body: body} }

// NotFound builds a 404 response.
func NotFound(body string) Response { return Response{Status: StatusNotFound, Body: body} }

// InternalError builds a 500 response.
func InternalError(body string) Response {
	return Response{Status: StatusInternalServerError, Body: body}
}

// Bytes renders the full response.
func (r Response) Bytes() []byte {
	return []byte(r.Status.Line() + r.Body)
}

// WriteTo writes the full response to w.
func (r Response) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.Bytes())
	if err != nil {
		return int64(n), fmt.Errorf("write response: %w", err)
	}
	return int64(n), nil
}
