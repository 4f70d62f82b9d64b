package assertions

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/tidwall/gjson"
	"github.com/xeipuuv/gojsonschema"
)

// Func is a deferred check against a completed response. body is the parsed
// JSON body, or nil when the response was not JSON or could not be parsed.
type Func func(ctx context.Context, resp *http.Response, body any) error

// Failure is the error returned by the built-in assertions.
type Failure struct {
	Subject  string
	Operator string
	Expected any
	Actual   any
	Message  string
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return fmt.Sprintf("%s: %s", f.Subject, f.Message)
	}
	return fmt.Sprintf("%s: expected %v, got %v", f.Subject, f.Expected, f.Actual)
}

func Status(code int) Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		if resp.StatusCode == code {
			return nil
		}
		return &Failure{
			Subject:  "status",
			Operator: "==",
			Expected: code,
			Actual:   resp.StatusCode,
			Message:  fmt.Sprintf("expected %d, got %d", code, resp.StatusCode),
		}
	}
}

// Header requires the header to equal expected. A missing header only passes
// when expected is empty.
func Header(key, expected string) Func {
	return headerCheck(key, expected, "==", func(actual string) bool {
		return actual == expected
	})
}

// HeaderContains requires expected to be a substring of the header value.
func HeaderContains(key, expected string) Func {
	return headerCheck(key, expected, "contains", func(actual string) bool {
		return strings.Contains(actual, expected)
	})
}

func headerCheck(key, expected, op string, match func(string) bool) Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		subject := "header " + key
		if !resp.HasHeader(key) {
			if expected == "" {
				return nil
			}
			return &Failure{
				Subject:  subject,
				Operator: op,
				Expected: expected,
				Message:  fmt.Sprintf("expected %q, header is absent", expected),
			}
		}

		actual := resp.Header(key)
		if match(actual) {
			return nil
		}

		msg := fmt.Sprintf("expected %q, got %q", expected, actual)
		if op == "contains" {
			msg = fmt.Sprintf("expected %q to contain %q", actual, expected)
		}
		return &Failure{
			Subject:  subject,
			Operator: op,
			Expected: expected,
			Actual:   actual,
			Message:  msg,
		}
	}
}

// BodyField requires key to be present in the JSON body. When an expected
// value is given the field must also equal it, JSON types included (1 and
// "1" differ).
func BodyField(key string, expected ...any) Func {
	return func(_ context.Context, resp *http.Response, body any) error {
		subject := "body." + key
		actual, ok := LookupField(resp, body, key)
		if !ok {
			return &Failure{
				Subject:  subject,
				Operator: "exists",
				Message:  "expected field to exist",
			}
		}
		if len(expected) == 0 {
			return nil
		}

		want := normalize(expected[0])
		if reflect.DeepEqual(actual, want) {
			return nil
		}
		return &Failure{
			Subject:  subject,
			Operator: "==",
			Expected: want,
			Actual:   actual,
			Message:  fmt.Sprintf("expected %s, got %s", formatJSON(want), formatJSON(actual)),
		}
	}
}

// BodyEquals compares the parsed body with expected structurally: expected is
// round-tripped through JSON first, so map key order and Go numeric types do
// not matter. The failure message carries a unified diff.
func BodyEquals(expected any) Func {
	return func(_ context.Context, resp *http.Response, body any) error {
		want := normalize(expected)
		if body == nil && want != nil {
			return &Failure{
				Subject:  "body",
				Operator: "==",
				Expected: want,
				Actual:   resp.BodyString(),
				Message:  "response body is not JSON",
			}
		}
		if reflect.DeepEqual(body, want) {
			return nil
		}
		return &Failure{
			Subject:  "body",
			Operator: "==",
			Expected: want,
			Actual:   body,
			Message:  "body mismatch\n" + diff(want, body),
		}
	}
}

// Text requires the raw body text to equal text exactly.
func Text(text string) Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		actual := resp.BodyString()
		if actual == text {
			return nil
		}
		return &Failure{
			Subject:  "text",
			Operator: "==",
			Expected: text,
			Actual:   actual,
			Message:  fmt.Sprintf("expected %q, got %q", text, truncate(actual, 200)),
		}
	}
}

// BodyContains requires substr to occur in the raw body text.
func BodyContains(substr string) Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		actual := resp.BodyString()
		if strings.Contains(actual, substr) {
			return nil
		}
		return &Failure{
			Subject:  "text",
			Operator: "contains",
			Expected: substr,
			Actual:   actual,
			Message:  fmt.Sprintf("expected '%s' to contain '%s'", truncate(actual, 200), substr),
		}
	}
}

// Schema validates the JSON body against the JSON Schema in file path.
func Schema(path string) Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return &Failure{
				Subject:  "schema",
				Operator: "schema",
				Expected: path,
				Message:  fmt.Sprintf("failed to read schema file: %v", err),
			}
		}
		return validateSchema(path, gojsonschema.NewBytesLoader(data), resp)
	}
}

// SchemaJSON validates the JSON body against an inline schema document.
func SchemaJSON(schema string) Func {
	return func(_ context.Context, resp *http.Response, _ any) error {
		return validateSchema("inline", gojsonschema.NewStringLoader(schema), resp)
	}
}

func validateSchema(name string, schemaLoader gojsonschema.JSONLoader, resp *http.Response) error {
	if !resp.IsJSON() {
		return &Failure{
			Subject:  "schema",
			Operator: "schema",
			Expected: name,
			Message:  "response body is not JSON",
		}
	}

	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(resp.Body))
	if err != nil {
		return &Failure{
			Subject:  "schema",
			Operator: "schema",
			Expected: name,
			Message:  fmt.Sprintf("schema validation error: %v", err),
		}
	}
	if result.Valid() {
		return nil
	}

	var errs []string
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return &Failure{
		Subject:  "schema",
		Operator: "schema",
		Expected: name,
		Message:  fmt.Sprintf("schema validation failed: %s", strings.Join(errs, "; ")),
	}
}

// fieldPath matches plain dotted paths. Anything else would let gjson
// wildcards, queries or modifiers stand in for a missing key.
var fieldPath = regexp.MustCompile(`^[A-Za-z0-9_-]+(\.[A-Za-z0-9_-]+)*$`)

// LookupField finds key in the parsed body: first as a literal top-level
// key, then as a dotted gjson path (user.name, items.0.id) over the raw JSON.
func LookupField(resp *http.Response, body any, key string) (any, bool) {
	if m, ok := body.(map[string]any); ok {
		if v, found := m[key]; found {
			return v, true
		}
	}
	if body == nil || !resp.IsJSON() || !fieldPath.MatchString(key) {
		return nil, false
	}

	result := gjson.GetBytes(resp.Body, key)
	if !result.Exists() {
		return nil, false
	}
	return result.Value(), true
}

// normalize maps v onto the types encoding/json produces when decoding into
// an interface (float64, string, bool, []any, map[string]any).
func normalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return v
	}
	return out
}

func formatJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

func diff(expected, actual any) string {
	e, _ := json.MarshalIndent(expected, "", "  ")
	a, _ := json.MarshalIndent(actual, "", "  ")

	out, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(e) + "\n"),
		B:        difflib.SplitLines(string(a) + "\n"),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return fmt.Sprintf("expected %s, got %s", e, a)
	}
	return out
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
