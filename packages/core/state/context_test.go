package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_SetGet(t *testing.T) {
	c := NewContext()
	c.Set("userId", 42.0)
	c.Set("missing", nil)

	v, ok := c.Get("userId")
	assert.True(t, ok)
	assert.Equal(t, 42.0, v)

	v, ok = c.Get("missing")
	assert.True(t, ok, "nil values are stored")
	assert.Nil(t, v)

	_, ok = c.Get("nope")
	assert.False(t, ok)
}

func TestContext_Cookie(t *testing.T) {
	c := NewContext()

	_, ok := c.Cookie()
	assert.False(t, ok)

	c.SetCookie("session=abc123")
	cookie, ok := c.Cookie()
	assert.True(t, ok)
	assert.Equal(t, "session=abc123", cookie)

	c.Set(CookieKey, 7)
	_, ok = c.Cookie()
	assert.False(t, ok, "non-string cookie values are ignored")
}

func TestContext_Resolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		values   map[string]any
		expected string
	}{
		{
			name:     "no placeholders",
			input:    "/users",
			expected: "/users",
		},
		{
			name:     "simple value",
			input:    "/users/{{userId}}",
			values:   map[string]any{"userId": "u-1"},
			expected: "/users/u-1",
		},
		{
			name:     "number from JSON",
			input:    "/orders/{{orderId}}",
			values:   map[string]any{"orderId": float64(17)},
			expected: "/orders/17",
		},
		{
			name:     "object renders as JSON",
			input:    "{{profile}}",
			values:   map[string]any{"profile": map[string]any{"a": 1.0}},
			expected: `{"a":1}`,
		},
		{
			name:     "nil renders empty",
			input:    "x{{gone}}y",
			values:   map[string]any{"gone": nil},
			expected: "xy",
		},
		{
			name:     "whitespace inside braces",
			input:    "{{ name }}",
			values:   map[string]any{"name": "ada"},
			expected: "ada",
		},
		{
			name:     "unresolved stays as-is",
			input:    "hello {{unknown}}",
			expected: "hello {{unknown}}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewContext()
			c.SetAll(tt.values)
			assert.Equal(t, tt.expected, c.Resolve(tt.input))
		})
	}
}

func TestContext_ResolveFunctions(t *testing.T) {
	c := NewContext()

	resolved := c.Resolve("/items/{{uuid()}}")
	assert.Len(t, resolved, len("/items/")+36)
	assert.NotContains(t, resolved, "{{")
}

func TestContext_ResolveWarns(t *testing.T) {
	c := NewContext()
	var warnings []string
	c.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	c.Resolve("{{missing}} {{nosuchfn()}}")

	assert.Equal(t, []string{
		"unresolved placeholder: missing",
		"unresolved function call: nosuchfn()",
	}, warnings)
}

func TestContext_ResolveValue(t *testing.T) {
	c := NewContext()
	c.Set("name", "ada")

	got := c.ResolveValue(map[string]any{
		"user":  "{{name}}",
		"tags":  []any{"{{name}}", 1},
		"count": 3,
	})

	assert.Equal(t, map[string]any{
		"user":  "ada",
		"tags":  []any{"ada", 1},
		"count": 3,
	}, got)
}

func TestContext_ResolveValueKeepsStoredType(t *testing.T) {
	c := NewContext()
	c.Set("id", 42.0)
	c.Set("quote", `a"b`)

	got := c.ResolveValue(map[string]any{
		"id":    "{{id}}",
		"path":  "/users/{{id}}",
		"quote": "{{ quote }}",
		"fn":    "{{uuid()}}",
	})

	m := got.(map[string]any)
	assert.Equal(t, 42.0, m["id"])
	assert.Equal(t, "/users/42", m["path"])
	assert.Equal(t, `a"b`, m["quote"])
	assert.Len(t, m["fn"], 36)
}

func TestContext_Unresolved(t *testing.T) {
	c := NewContext()
	c.Set("a", "1")

	assert.Equal(t, []string{"b", "c.d"}, c.Unresolved("{{a}}/{{b}}/{{c.d}}/{{uuid()}}"))
	assert.Nil(t, c.Unresolved("{{a}}"))
}

func TestContext_Snapshot(t *testing.T) {
	c := NewContext()
	c.Set("a", 1)

	snap := c.Snapshot()
	snap["b"] = 2

	assert.False(t, c.Has("b"))
}

func TestContext_ConcurrentAccess(t *testing.T) {
	c := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Set(fmt.Sprintf("k%d", n), n)
			_ = c.Resolve("{{k0}}")
		}(i)
	}
	wg.Wait()

	require.Len(t, c.Snapshot(), 20)
}
