package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	ReadErr    error // set when the body could not be read completely
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// HasHeader reports whether the header was present at all, even if empty.
func (r *Response) HasHeader(key string) bool {
	_, ok := r.Headers[http.CanonicalHeaderKey(key)]
	return ok
}

// HeaderValues returns all values of a repeated header such as Set-Cookie.
func (r *Response) HeaderValues(key string) []string {
	return r.Headers.Values(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// Clone returns a copy whose headers and body can be read or modified
// independently of r.
func (r *Response) Clone() *Response {
	clone := *r
	clone.Headers = r.Headers.Clone()
	if r.Body != nil {
		clone.Body = append([]byte{}, r.Body...)
	}
	return &clone
}
