package chain

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"testing"

	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/stretchr/testify/require"
)

// ErrFetchFailed wraps every transport-level failure returned by Run.
var ErrFetchFailed = errors.New("Fetch failed")

// Query values are stored encoded, so their placeholders appear as %7B%7B...%7D%7D.
var encodedPlaceholder = regexp.MustCompile(`%7B%7B(.+?)%7D%7D`)

// UnreadableBody is the text recorded when a response body cannot be read or
// parsed.
const UnreadableBody = "[unreadable body]"

// Result is what Run returns: the raw response, the parsed JSON body (nil
// when the body was not JSON), the text body when it was not, and the shared
// store.
type Result struct {
	Response *http.Response
	JSON     any
	Text     string
	Context  *state.Context
}

func (r *Result) Status() int {
	if r == nil || r.Response == nil {
		return 0
	}
	return r.Response.StatusCode
}

type runOptions struct {
	showDetails bool
}

type RunOption func(*runOptions)

// ShowDetails prints the outgoing request and the received response.
func ShowDetails() RunOption {
	return func(o *runOptions) {
		o.showDetails = true
	}
}

// Run sends the request and evaluates the queued checks in order. The first
// failing check stops the run; its error is returned together with the
// result built so far. Transport failures wrap ErrFetchFailed and carry no
// result.
func (b *Builder) Run(ctx context.Context, opts ...RunOption) (*Result, error) {
	if b.err != nil {
		return nil, b.err
	}

	var o runOptions
	for _, opt := range opts {
		opt(&o)
	}

	req := b.resolveRequest()
	if o.showDetails {
		b.printer.PrintRequest(req)
	}

	resp, err := b.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrFetchFailed, req.Method, req.URL(), err)
	}

	body, text := b.parseBody(resp.Clone())
	if o.showDetails {
		b.printer.PrintResponse(resp, body, text)
	}

	result := &Result{
		Response: resp,
		JSON:     body,
		Text:     text,
		Context:  b.store,
	}

	for _, check := range b.assertions {
		if err := check(ctx, resp, body); err != nil {
			return result, err
		}
	}

	return result, nil
}

// Test runs the builder and fails t immediately on any error.
func (b *Builder) Test(t testing.TB, opts ...RunOption) *Result {
	t.Helper()
	result, err := b.Run(context.Background(), opts...)
	require.NoError(t, err)
	return result
}

// resolveRequest substitutes {{placeholders}} from the store into the path,
// query and headers of a copy of the accumulated request. The body is sent as
// given. The builder itself is left untouched so a second Run sees values
// saved in between.
func (b *Builder) resolveRequest() *http.Request {
	req := b.request.Clone()
	req.Path = b.store.Resolve(req.Path)
	req.Query = encodedPlaceholder.ReplaceAllStringFunc(req.Query, func(match string) string {
		raw, err := url.QueryUnescape(match)
		if err != nil {
			return match
		}
		resolved := b.store.Resolve(raw)
		if resolved == raw {
			return match
		}
		return url.QueryEscape(resolved)
	})
	req.Headers = b.store.ResolveAll(req.Headers)
	return req
}

// parseBody decodes JSON bodies and returns everything else as text. Read and
// decode failures are not fatal: they yield UnreadableBody and a warning.
func (b *Builder) parseBody(resp *http.Response) (any, string) {
	if resp.ReadErr != nil {
		b.printer.PrintWarning("reading response body: %v", resp.ReadErr)
		return nil, UnreadableBody
	}
	if !resp.IsJSON() {
		return nil, resp.BodyString()
	}
	if len(resp.Body) == 0 {
		return nil, ""
	}

	body, err := resp.BodyJSON()
	if err != nil {
		b.printer.PrintWarning("parsing JSON response: %v", err)
		return nil, UnreadableBody
	}
	return body, ""
}
