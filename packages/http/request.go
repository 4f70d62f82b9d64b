package http

import (
	"net/http"
	"net/url"
	"strings"
)

// Request is the accumulated configuration of one outgoing call. BaseURL is
// fixed at construction; everything else is edited through the setters.
type Request struct {
	BaseURL string
	Method  string
	Path    string
	Query   string // raw encoded query, including the leading "?"
	Headers map[string]string
	Body    []byte // nil means no body
}

func NewRequest(baseURL string) *Request {
	return &Request{
		BaseURL: baseURL,
		Method:  http.MethodGet,
		Headers: make(map[string]string),
	}
}

func (r *Request) SetMethod(method, path string) *Request {
	r.Method = strings.ToUpper(method)
	r.Path = path
	return r
}

func (r *Request) SetHeader(key, value string) *Request {
	r.Headers[key] = value
	return r
}

// Header returns the value of a header matched case-insensitively.
func (r *Request) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Request) SetBody(body []byte) *Request {
	r.Body = body
	return r
}

func (r *Request) ClearBody() *Request {
	r.Body = nil
	return r
}

// AddQuery URL-encodes params (keys sorted) and appends them to the existing
// query string.
func (r *Request) AddQuery(params map[string]string) *Request {
	if len(params) == 0 {
		return r
	}

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	encoded := values.Encode()

	if r.Query == "" {
		r.Query = "?" + encoded
	} else {
		r.Query += "&" + encoded
	}
	return r
}

// URL concatenates base, path and query without normalisation.
func (r *Request) URL() string {
	return r.BaseURL + r.Path + r.Query
}

// SendsBody reports whether the body goes on the wire. GET and HEAD never
// carry one, whatever was set.
func (r *Request) SendsBody() bool {
	if r.Body == nil {
		return false
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return false
	}
	return true
}

// Clone returns a deep copy so a resolved copy can be sent without touching
// the builder's own state.
func (r *Request) Clone() *Request {
	clone := *r
	clone.Headers = make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		clone.Headers[k] = v
	}
	if r.Body != nil {
		clone.Body = append([]byte{}, r.Body...)
	}
	return &clone
}
