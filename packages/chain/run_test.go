package chain

import (
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abdul-hamid-achik/hitchain/packages/assertions"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPrinter struct {
	requests  []*http.Request
	responses []*http.Response
	warnings  []string
}

func (p *recordingPrinter) PrintRequest(req *http.Request) {
	p.requests = append(p.requests, req)
}

func (p *recordingPrinter) PrintResponse(resp *http.Response, _ any, _ string) {
	p.responses = append(p.responses, resp)
}

func (p *recordingPrinter) PrintWarning(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

// stub answers every request with the given status, content type and body,
// and records the last request it saw.
func stub(status int, contentType, body string, seen **nethttp.Request) http.Doer {
	return http.DoerFunc(func(req *nethttp.Request) (*nethttp.Response, error) {
		if seen != nil {
			*seen = req
		}
		header := nethttp.Header{}
		if contentType != "" {
			header.Set("Content-Type", contentType)
		}
		return &nethttp.Response{
			StatusCode: status,
			Status:     nethttp.StatusText(status),
			Header:     header,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	})
}

func TestRun_HealthCheck(t *testing.T) {
	result, err := New("http://api.local", nil, WithDoer(stub(200, "", "ok", nil))).
		Get("/health").
		ExpectStatus(200).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 200, result.Response.StatusCode)
	assert.Equal(t, 200, result.Status())
	assert.Equal(t, "ok", result.Text)
	assert.Nil(t, result.JSON)
}

func TestRun_FetchFailed(t *testing.T) {
	failing := http.DoerFunc(func(*nethttp.Request) (*nethttp.Response, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	result, err := New("http://api.local", nil, WithDoer(failing)).
		Get("/health").
		Run(context.Background())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "Fetch failed")
	assert.Contains(t, err.Error(), "GET http://api.local/health")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRun_StatusMismatch(t *testing.T) {
	result, err := New("http://api.local", nil, WithDoer(stub(404, "", "", nil))).
		Get("/missing").
		ExpectStatus(200).
		Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "200")
	assert.Contains(t, err.Error(), "404")

	var failure *assertions.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 404, failure.Actual)
	assert.Equal(t, 404, result.Status(), "partial result is returned with the failure")
}

func TestRun_ParsesJSON(t *testing.T) {
	result, err := New("http://api.local", nil,
		WithDoer(stub(200, "application/json; charset=utf-8", `{"id": 7, "name": "ada"}`, nil))).
		Get("/users/7").
		ExpectBodyField("id", 7).
		ExpectBodyField("name", "ada").
		ExpectBodyEquals(map[string]any{"name": "ada", "id": 7}).
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": 7.0, "name": "ada"}, result.JSON)
	assert.Empty(t, result.Text)
}

func TestRun_BodyEqualsIgnoresKeyOrder(t *testing.T) {
	_, err := New("http://api.local", nil, WithDoer(stub(200, "application/json", `{"b":2,"a":1}`, nil))).
		Get("/").
		ExpectBodyEquals(map[string]int{"a": 1, "b": 2}).
		Run(context.Background())

	assert.NoError(t, err)
}

func TestRun_UnreadableJSON(t *testing.T) {
	printer := &recordingPrinter{}

	result, err := New("http://api.local", nil,
		WithDoer(stub(200, "application/json", `{broken`, nil)),
		WithPrinter(printer)).
		Get("/").
		ExpectStatus(200).
		Run(context.Background())

	require.NoError(t, err)
	assert.Nil(t, result.JSON)
	assert.Equal(t, UnreadableBody, result.Text)
	require.Len(t, printer.warnings, 1)
	assert.Contains(t, printer.warnings[0], "parsing JSON response")
}

func TestRun_BodyReadError(t *testing.T) {
	printer := &recordingPrinter{}
	doer := http.DoerFunc(func(*nethttp.Request) (*nethttp.Response, error) {
		return &nethttp.Response{
			StatusCode: 200,
			Header:     nethttp.Header{"Content-Type": {"application/json"}},
			Body:       io.NopCloser(errReader{}),
		}, nil
	})

	result, err := New("http://api.local", nil, WithDoer(doer), WithPrinter(printer)).
		Get("/").
		Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, UnreadableBody, result.Text)
	assert.Len(t, printer.warnings, 1)
}

func TestRun_EmptyJSONBody(t *testing.T) {
	printer := &recordingPrinter{}

	result, err := New("http://api.local", nil,
		WithDoer(stub(204, "application/json", "", nil)),
		WithPrinter(printer)).
		Delete("/items/1").
		ExpectStatus(204).
		Run(context.Background())

	require.NoError(t, err)
	assert.Nil(t, result.JSON)
	assert.Empty(t, printer.warnings)
}

func TestRun_AssertionsStopAtFirstFailure(t *testing.T) {
	var calls []string
	record := func(name string, fail bool) assertions.Func {
		return func(context.Context, *http.Response, any) error {
			calls = append(calls, name)
			if fail {
				return errors.New(name + " failed")
			}
			return nil
		}
	}

	_, err := New("http://api.local", nil, WithDoer(stub(200, "", "", nil))).
		Get("/").
		Expect(record("first", false)).
		Expect(record("second", true)).
		Expect(record("third", false)).
		Run(context.Background())

	assert.EqualError(t, err, "second failed")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRun_TextBody(t *testing.T) {
	_, err := New("http://api.local", nil, WithDoer(stub(200, "text/plain", "hello world", nil))).
		Get("/").
		ExpectTextBody("hello world").
		ExpectBodyContains("world").
		Run(context.Background())

	assert.NoError(t, err)
}

func TestRun_TextBodyRereadsJSON(t *testing.T) {
	_, err := New("http://api.local", nil, WithDoer(stub(200, "application/json", `{"a":1}`, nil))).
		Get("/").
		ExpectBodyField("a").
		ExpectTextBody(`{"a":1}`).
		Run(context.Background())

	assert.NoError(t, err)
}

func TestRun_OmitsBodyForGet(t *testing.T) {
	var seen *nethttp.Request

	b := New("http://api.local", nil, WithDoer(stub(200, "", "", &seen))).Send("payload")
	b.Request().SetMethod("GET", "/")

	_, err := b.Run(context.Background())

	require.NoError(t, err)
	require.NotNil(t, seen)
	if seen.Body != nil {
		data, _ := io.ReadAll(seen.Body)
		assert.Empty(t, data)
	}
}

func TestRun_ResolvesPlaceholders(t *testing.T) {
	var seen *nethttp.Request
	store := state.NewContext()
	store.Set("userId", 42)
	store.Set("token", "secret")

	b := New("http://api.local", store, WithDoer(stub(200, "", "", &seen))).
		Post("/users/{{userId}}/notes", map[string]string{"owner": "{{userId}}"}).
		SetHeader("Authorization", "Bearer {{token}}").
		Query(map[string]string{"ref": "{{userId}}"})

	_, err := b.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "/users/42/notes", seen.URL.Path)
	assert.Equal(t, "ref=42", seen.URL.RawQuery)
	assert.Equal(t, "Bearer secret", seen.Header.Get("Authorization"))
	body, _ := io.ReadAll(seen.Body)
	assert.Equal(t, `{"owner":"{{userId}}"}`, string(body), "bodies are sent as given")
	assert.Equal(t, "/users/{{userId}}/notes", b.Request().Path, "builder keeps the template")
}

func TestRun_BodySentVerbatim(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"string", "Hello {{name}}", "Hello {{name}}"},
		{"bytes", []byte(`{"n":"{{name}}"}`), `{"n":"{{name}}"}`},
		{"object", map[string]string{"n": `a"b`}, `{"n":"a\"b"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *nethttp.Request
			store := state.NewContext()
			store.Set("name", `a"b`)
			printer := &recordingPrinter{}
			store.SetWarnFunc(printer.PrintWarning)

			_, err := New("http://api.local", store, WithDoer(stub(200, "", "", &seen)), WithPrinter(printer)).
				Post("/templates", tt.body).
				Run(context.Background())

			require.NoError(t, err)
			body, _ := io.ReadAll(seen.Body)
			assert.Equal(t, tt.want, string(body))
			assert.Empty(t, printer.warnings)
		})
	}
}

func TestRun_ShowDetails(t *testing.T) {
	printer := &recordingPrinter{}
	b := New("http://api.local", nil, WithDoer(stub(200, "", "", nil)), WithPrinter(printer)).Get("/")

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, printer.requests)

	_, err = b.Run(context.Background(), ShowDetails())
	require.NoError(t, err)
	assert.Len(t, printer.requests, 1)
	assert.Len(t, printer.responses, 1)
}

func TestRun_CookieFlow(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/login":
			w.Header().Add("Set-Cookie", "session=abc123; Path=/; HttpOnly")
			w.Header().Add("Set-Cookie", "theme=dark")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user": {"id": "u-1"}}`))
		case "/me":
			cookie, err := r.Cookie("session")
			if err != nil || cookie.Value != "abc123" {
				w.WriteHeader(nethttp.StatusUnauthorized)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"id": "u-1"}`))
		}
	}))
	defer server.Close()

	store := state.NewContext()

	New(server.URL, store).
		Post("/login", map[string]string{"user": "ada"}).
		ExpectStatus(200).
		SaveCookieFromResponse("session").
		SaveBodyFieldToContext("user.id", "userId").
		Test(t)

	cookie, ok := store.Cookie()
	require.True(t, ok)
	assert.Equal(t, "session=abc123", cookie)
	userID, _ := store.GetString("userId")
	assert.Equal(t, "u-1", userID)

	result := New(server.URL, store).
		Get("/me").
		SendCookieFromContext().
		ExpectStatus(200).
		ExpectBodyField("id", userID).
		Test(t)

	assert.Same(t, store, result.Context)
}

func TestRun_RunTwiceReissues(t *testing.T) {
	count := 0
	doer := http.DoerFunc(func(*nethttp.Request) (*nethttp.Response, error) {
		count++
		return &nethttp.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	b := New("http://api.local", nil, WithDoer(doer)).Get("/")

	_, err := b.Run(context.Background())
	require.NoError(t, err)
	_, err = b.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, count)
}
