package capture

import (
	"context"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitchain/packages/assertions"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
)

// A comma starts a new cookie only when it is followed by "name=". Commas
// inside attributes such as "Expires=Wed, 21 Oct 2015" are not followed by
// a token and "=".
var cookieBoundary = regexp.MustCompile(`,\s*[^;=,\s]+=`)

// BodyField copies a body field into the store under contextKey. An absent
// field stores nil.
func BodyField(store *state.Context, bodyKey, contextKey string) assertions.Func {
	return func(_ context.Context, resp *http.Response, body any) error {
		value, _ := assertions.LookupField(resp, body, bodyKey)
		store.Set(contextKey, value)
		return nil
	}
}

// Header copies a response header into the store. Absent headers are skipped.
func Header(store *state.Context, header, contextKey string) assertions.Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		if !resp.HasHeader(header) {
			return nil
		}
		store.Set(contextKey, resp.Header(header))
		return nil
	}
}

// Cookie finds cookieName among the Set-Cookie headers and stores its
// name=value pair, without attributes, as the store's cookie.
func Cookie(store *state.Context, cookieName string) assertions.Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		header := strings.Join(resp.HeaderValues("Set-Cookie"), ", ")
		if header == "" {
			return nil
		}
		if pair, ok := FindCookie(header, cookieName); ok {
			store.SetCookie(pair)
		}
		return nil
	}
}

// SplitSetCookie splits a combined Set-Cookie value into one entry per cookie.
func SplitSetCookie(header string) []string {
	var entries []string
	start := 0
	for _, loc := range cookieBoundary.FindAllStringIndex(header, -1) {
		entries = appendEntry(entries, header[start:loc[0]])
		start = loc[0] + 1
	}
	return appendEntry(entries, header[start:])
}

func appendEntry(entries []string, entry string) []string {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return entries
	}
	return append(entries, entry)
}

// FindCookie returns the name=value pair of the first cookie called name.
func FindCookie(header, name string) (string, bool) {
	for _, entry := range SplitSetCookie(header) {
		pair, _, _ := strings.Cut(entry, ";")
		pair = strings.TrimSpace(pair)
		cookieName, _, found := strings.Cut(pair, "=")
		if found && strings.TrimSpace(cookieName) == name {
			return pair, true
		}
	}
	return "", false
}
