package chain

import (
	"encoding/json"
	"fmt"

	"github.com/abdul-hamid-achik/hitchain/packages/assertions"
	"github.com/abdul-hamid-achik/hitchain/packages/capture"
	"github.com/abdul-hamid-achik/hitchain/packages/core/config"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/abdul-hamid-achik/hitchain/packages/output"
)

// Printer receives the request and response when a run shows details, and
// warnings about recovered problems at any time. output.ConsoleFormatter
// implements it.
type Printer interface {
	PrintRequest(req *http.Request)
	PrintResponse(resp *http.Response, body any, text string)
	PrintWarning(format string, args ...any)
}

// Builder accumulates one request and the checks to run on its response.
// Configuration methods never fail and return the same Builder.
type Builder struct {
	client     *http.Client
	request    *http.Request
	store      *state.Context
	assertions []assertions.Func
	printer    Printer
	err        error
}

type Option func(*Builder)

// New returns a builder bound to baseURL. store is shared by reference with
// every other builder given the same pointer; nil creates a private one.
func New(baseURL string, store *state.Context, opts ...Option) *Builder {
	if store == nil {
		store = state.NewContext()
	}
	b := &Builder{
		request: http.NewRequest(baseURL),
		store:   store,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.client == nil {
		b.client = http.NewClient()
	}
	if b.printer == nil {
		b.printer = output.NewConsoleFormatter()
	}
	return b
}

// NewFromConfig builds against cfg.BaseURL with cfg's transport settings.
func NewFromConfig(cfg *config.Config, store *state.Context, opts ...Option) *Builder {
	opts = append([]Option{WithClient(http.NewClient(cfg.ClientOptions()...))}, opts...)
	return New(cfg.BaseURL, store, opts...)
}

func WithClient(c *http.Client) Option {
	return func(b *Builder) {
		b.client = c
	}
}

// WithDoer sends requests through d instead of the network.
func WithDoer(d http.Doer) Option {
	return func(b *Builder) {
		b.client = http.NewClient(http.WithDoer(d))
	}
}

func WithPrinter(p Printer) Option {
	return func(b *Builder) {
		b.printer = p
	}
}

// Context returns the shared store.
func (b *Builder) Context() *state.Context {
	return b.store
}

// Request returns the accumulated request.
func (b *Builder) Request() *http.Request {
	return b.request
}

func (b *Builder) Get(path string) *Builder {
	b.request.SetMethod("GET", path).ClearBody()
	return b
}

func (b *Builder) Delete(path string) *Builder {
	b.request.SetMethod("DELETE", path).ClearBody()
	return b
}

// Post sets the method and path. A nil body keeps whatever Send set before.
func (b *Builder) Post(path string, body any) *Builder {
	return b.withBody("POST", path, body)
}

func (b *Builder) Put(path string, body any) *Builder {
	return b.withBody("PUT", path, body)
}

func (b *Builder) Patch(path string, body any) *Builder {
	return b.withBody("PATCH", path, body)
}

func (b *Builder) withBody(method, path string, body any) *Builder {
	b.request.SetMethod(method, path)
	if body == nil {
		return b
	}
	return b.Send(body)
}

// Send sets the body independently of the method. Strings and byte slices are
// sent verbatim; nil removes the body; anything else is JSON-encoded and the
// Content-Type is set to application/json.
func (b *Builder) Send(body any) *Builder {
	switch v := body.(type) {
	case nil:
		b.request.ClearBody()
	case string:
		b.request.SetBody([]byte(v))
	case []byte:
		b.request.SetBody(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			b.err = fmt.Errorf("encoding request body: %w", err)
			return b
		}
		b.request.SetBody(data)
		b.request.SetHeader("Content-Type", "application/json")
	}
	b.err = nil
	return b
}

func (b *Builder) Query(params map[string]string) *Builder {
	b.request.AddQuery(params)
	return b
}

func (b *Builder) SetHeader(key, value string) *Builder {
	b.request.SetHeader(key, value)
	return b
}

// SendCookieFromContext sets the Cookie header from the shared store, if a
// cookie was captured earlier.
func (b *Builder) SendCookieFromContext() *Builder {
	if cookie, ok := b.store.Cookie(); ok {
		b.request.SetHeader("Cookie", cookie)
	}
	return b
}

func (b *Builder) ExpectStatus(code int) *Builder {
	return b.Expect(assertions.Status(code))
}

// ExpectHeader requires an exact header value.
func (b *Builder) ExpectHeader(key, expected string) *Builder {
	return b.Expect(assertions.Header(key, expected))
}

// ExpectHeaderContains requires expected to be a substring of the header.
func (b *Builder) ExpectHeaderContains(key, expected string) *Builder {
	return b.Expect(assertions.HeaderContains(key, expected))
}

// ExpectBodyField requires key in the JSON body, and equality with
// expected[0] when given.
func (b *Builder) ExpectBodyField(key string, expected ...any) *Builder {
	return b.Expect(assertions.BodyField(key, expected...))
}

func (b *Builder) ExpectBodyEquals(expected any) *Builder {
	return b.Expect(assertions.BodyEquals(expected))
}

func (b *Builder) ExpectTextBody(text string) *Builder {
	return b.Expect(assertions.Text(text))
}

func (b *Builder) ExpectBodyContains(substr string) *Builder {
	return b.Expect(assertions.BodyContains(substr))
}

func (b *Builder) ExpectSchema(path string) *Builder {
	return b.Expect(assertions.Schema(path))
}

// Expect queues an arbitrary check.
func (b *Builder) Expect(fn assertions.Func) *Builder {
	b.assertions = append(b.assertions, fn)
	return b
}

func (b *Builder) SaveBodyFieldToContext(bodyKey, contextKey string) *Builder {
	return b.Expect(capture.BodyField(b.store, bodyKey, contextKey))
}

func (b *Builder) SaveHeaderToContext(header, contextKey string) *Builder {
	return b.Expect(capture.Header(b.store, header, contextKey))
}

func (b *Builder) SaveCookieFromResponse(cookieName string) *Builder {
	return b.Expect(capture.Cookie(b.store, cookieName))
}
