package state

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitchain/packages/builtin"
)

// CookieKey is the key under which the captured session cookie is stored.
const CookieKey = "cookie"

var placeholderPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// WarnFunc receives warnings such as unresolved placeholders.
type WarnFunc func(format string, args ...any)

// Context is a key/value store shared by reference between the builders of
// one scenario. The map is guarded by a mutex, but the order in which
// concurrent requests write to it is left to the caller.
type Context struct {
	mu       sync.RWMutex
	values   map[string]any
	funcs    *builtin.Registry
	warnFunc WarnFunc
}

func NewContext() *Context {
	return &Context{
		values: make(map[string]any),
		funcs:  builtin.NewRegistry(),
	}
}

// SetWarnFunc installs the warning hook.
func (c *Context) SetWarnFunc(fn WarnFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.warnFunc = fn
}

func (c *Context) warn(format string, args ...any) {
	c.mu.RLock()
	fn := c.warnFunc
	c.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

// Set stores value under key. A nil value is stored, not deleted, so a saved
// field that was absent from a response still shows up as present.
func (c *Context) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}

func (c *Context) SetAll(values map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
	}
}

// SetStrings is SetAll for string maps such as a parsed dotenv file.
func (c *Context) SetStrings(values map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range values {
		c.values[k] = v
	}
}

func (c *Context) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.values[key]
	return v, ok
}

// GetString returns the value under key when it is a non-empty string.
func (c *Context) GetString(key string) (string, bool) {
	v, ok := c.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (c *Context) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Cookie returns the captured name=value cookie pair, if any.
func (c *Context) Cookie() (string, bool) {
	return c.GetString(CookieKey)
}

func (c *Context) SetCookie(pair string) {
	c.Set(CookieKey, pair)
}

// Snapshot returns a copy of all stored values.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Resolve replaces {{key}} and {{fn(args)}} placeholders. Unknown keys are
// left as-is and reported through the warn hook.
func (c *Context) Resolve(input string) string {
	if !strings.Contains(input, "{{") {
		return input
	}

	return placeholderPattern.ReplaceAllStringFunc(input, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-2])

		if builtin.IsCall(expr) {
			result, ok, err := c.funcs.Call(expr)
			if err != nil {
				c.warn("function call %s failed: %v", expr, err)
				return match
			}
			if ok {
				return formatValue(result)
			}
			c.warn("unresolved function call: %s", expr)
			return match
		}

		if v, ok := c.Get(expr); ok {
			return formatValue(v)
		}

		c.warn("unresolved placeholder: %s", expr)
		return match
	})
}

// ResolveValue walks strings nested in maps and slices (as decoded from JSON
// or YAML) and resolves each of them. A string that is exactly one
// placeholder for a stored key takes the stored value, keeping its type.
func (c *Context) ResolveValue(v any) any {
	switch val := v.(type) {
	case string:
		if stored, ok := c.wholeValue(val); ok {
			return stored
		}
		return c.Resolve(val)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = c.ResolveValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = c.ResolveValue(item)
		}
		return out
	default:
		return v
	}
}

func (c *Context) wholeValue(s string) (any, bool) {
	m := placeholderPattern.FindStringSubmatchIndex(s)
	if m == nil || m[0] != 0 || m[1] != len(s) {
		return nil, false
	}
	return c.Get(strings.TrimSpace(s[m[2]:m[3]]))
}

func (c *Context) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = c.Resolve(v)
	}
	return result
}

// Unresolved lists the placeholder names in input that Resolve cannot expand.
func (c *Context) Unresolved(input string) []string {
	var missing []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(input, -1) {
		expr := strings.TrimSpace(m[1])
		if builtin.IsCall(expr) {
			continue
		}
		if !c.Has(expr) {
			missing = append(missing, expr)
		}
	}
	return missing
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(data)
	default:
		return fmt.Sprintf("%v", val)
	}
}
