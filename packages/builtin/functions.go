package builtin

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/segmentio/ksuid"
)

type Func func(args []string) (any, error)

type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	r := &Registry{
		funcs: make(map[string]Func),
	}
	r.registerDefaults()
	return r
}

func (r *Registry) registerDefaults() {
	r.funcs["now"] = funcNow
	r.funcs["timestamp"] = funcTimestamp
	r.funcs["timestampMs"] = funcTimestampMs
	r.funcs["uuid"] = funcUUID
	r.funcs["ksuid"] = funcKSUID
	r.funcs["slug"] = funcSlug
	r.funcs["randomString"] = funcRandomString
	r.funcs["randomEmail"] = funcRandomEmail
	r.funcs["base64"] = funcBase64
	r.funcs["urlEncode"] = funcURLEncode
	r.funcs["date"] = funcDate
}

func (r *Registry) Register(name string, fn Func) {
	r.funcs[name] = fn
}

var funcCallPattern = regexp.MustCompile(`^(\w+)\((.*)\)$`)

// IsCall reports whether expr has the shape name(args).
func IsCall(expr string) bool {
	return funcCallPattern.MatchString(expr)
}

// Call evaluates expr. ok is false when expr is not a call to a registered
// function; err carries argument errors from the function itself.
func (r *Registry) Call(expr string) (result any, ok bool, err error) {
	matches := funcCallPattern.FindStringSubmatch(expr)
	if matches == nil {
		return nil, false, nil
	}

	fn, found := r.funcs[matches[1]]
	if !found {
		return nil, false, nil
	}

	var args []string
	if matches[2] != "" {
		args = parseArgs(matches[2])
	}

	result, err = fn(args)
	if err != nil {
		return nil, true, fmt.Errorf("%s(): %w", matches[1], err)
	}
	return result, true, nil
}

func parseArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuote := false
	quoteChar := byte(0)

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !inQuote && (ch == '"' || ch == '\'') {
			inQuote = true
			quoteChar = ch
		} else if inQuote && ch == quoteChar {
			inQuote = false
			quoteChar = 0
		} else if !inQuote && ch == ',' {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
		} else {
			current.WriteByte(ch)
		}
	}

	if current.Len() > 0 {
		args = append(args, strings.TrimSpace(current.String()))
	}

	return args
}

func funcNow(_ []string) (any, error) {
	return time.Now().UTC().Format(time.RFC3339), nil
}

func funcTimestamp(_ []string) (any, error) {
	return time.Now().Unix(), nil
}

func funcTimestampMs(_ []string) (any, error) {
	return time.Now().UnixMilli(), nil
}

func funcUUID(_ []string) (any, error) {
	return uuid.NewString(), nil
}

// funcKSUID returns a sortable id, handy for names that must be unique per run.
func funcKSUID(_ []string) (any, error) {
	return ksuid.New().String(), nil
}

func funcSlug(args []string) (any, error) {
	if len(args) < 1 {
		return "", nil
	}
	return slug.Make(args[0]), nil
}

func funcRandomString(args []string) (any, error) {
	length := 16
	if len(args) >= 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 {
			return nil, fmt.Errorf("length argument %q is not a valid integer", args[0])
		}
		length = v
	}
	return randomString(length, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"), nil
}

func funcRandomEmail(_ []string) (any, error) {
	user := randomString(8, "abcdefghijklmnopqrstuvwxyz")
	domain := randomString(6, "abcdefghijklmnopqrstuvwxyz")
	return fmt.Sprintf("%s@%s.com", user, domain), nil
}

func funcBase64(args []string) (any, error) {
	if len(args) < 1 {
		return "", nil
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}

func funcURLEncode(args []string) (any, error) {
	if len(args) < 1 {
		return "", nil
	}
	return url.QueryEscape(args[0]), nil
}

func funcDate(args []string) (any, error) {
	format := "2006-01-02"
	if len(args) >= 1 {
		format = args[0]
	}
	return time.Now().UTC().Format(format), nil
}

func randomString(length int, charset string) string {
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
