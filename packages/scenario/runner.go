package scenario

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/chain"
	"github.com/abdul-hamid-achik/hitchain/packages/core/config"
	"github.com/abdul-hamid-achik/hitchain/packages/core/state"
	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/abdul-hamid-achik/hitchain/packages/output"
	"github.com/abdul-hamid-achik/hitchain/packages/snapshot"
	"golang.org/x/time/rate"
)

const (
	SkipPreviousFailed = "previous step failed"
	SkipCancelled      = "cancelled"
)

type Runner struct {
	config    *config.Config
	client    *http.Client
	printer   chain.Printer
	limiter   *rate.Limiter
	snapshots *snapshot.Manager
	vars      map[string]string
}

type Option func(*Runner)

// WithClient replaces the client built from the config.
func WithClient(c *http.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

func WithPrinter(p chain.Printer) Option {
	return func(r *Runner) {
		r.printer = p
	}
}

// WithSnapshots sets the manager used by steps that expect a snapshot.
func WithSnapshots(m *snapshot.Manager) Option {
	return func(r *Runner) {
		r.snapshots = m
	}
}

// WithVars seeds every scenario's context, e.g. from a dotenv file. Scenario
// vars take precedence.
func WithVars(vars map[string]string) Option {
	return func(r *Runner) {
		r.vars = vars
	}
}

func NewRunner(cfg *config.Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	r := &Runner{config: cfg}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = http.NewClient(cfg.ClientOptions()...)
	}
	if r.printer == nil {
		r.printer = output.NewConsoleFormatter(output.WithNoColor(cfg.GetNoColor()))
	}
	if r.snapshots == nil {
		r.snapshots = snapshot.NewManager(false)
	}
	if cfg.RateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return r
}

type Result struct {
	Name     string
	File     string
	Steps    []*StepResult
	Duration time.Duration
	Passed   int
	Failed   int
	Skipped  int
	Context  *state.Context
}

type StepResult struct {
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Response   *http.Response
	Saved      map[string]any
	Err        error
}

// Line converts the result into the console formatter's step line.
func (s *StepResult) Line() output.StepLine {
	line := output.StepLine{
		Name:       s.Name,
		Passed:     s.Passed,
		Skipped:    s.Skipped,
		SkipReason: s.SkipReason,
		Duration:   s.Duration,
		Err:        s.Err,
		Saved:      s.Saved,
	}
	if s.Response != nil {
		line.Status = s.Response.StatusCode
	}
	return line
}

// Run executes the steps in order against one fresh context. With bail set,
// the steps after the first failure are reported as skipped.
func (r *Runner) Run(ctx context.Context, sc *Scenario) *Result {
	start := time.Now()
	result := &Result{
		Name: sc.Name,
		File: sc.Path,
	}

	store := state.NewContext()
	store.SetWarnFunc(r.printer.PrintWarning)
	store.SetStrings(r.vars)
	store.SetAll(sc.Vars)
	result.Context = store

	baseURL := sc.BaseURL
	if r.config.BaseURL != "" {
		baseURL = r.config.BaseURL
	}
	baseURL = strings.TrimSuffix(store.Resolve(baseURL), "/")

	failed := false
	for _, step := range sc.Steps {
		if step == nil {
			continue
		}
		name := step.Name
		if name == "" {
			name = step.StepMethod() + " " + step.Path
		}

		switch {
		case ctx.Err() != nil:
			result.add(&StepResult{Name: name, Skipped: true, SkipReason: SkipCancelled})
			continue
		case failed && r.config.GetBail():
			result.add(&StepResult{Name: name, Skipped: true, SkipReason: SkipPreviousFailed})
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				result.add(&StepResult{Name: name, Err: err})
				failed = true
				continue
			}
		}

		sr := r.runStep(ctx, sc, name, baseURL, store, step)
		sr.Name = name
		result.add(sr)
		if !sr.Passed {
			failed = true
		}
	}

	result.Duration = time.Since(start)
	return result
}

func (res *Result) add(sr *StepResult) {
	res.Steps = append(res.Steps, sr)
	switch {
	case sr.Skipped:
		res.Skipped++
	case sr.Passed:
		res.Passed++
	default:
		res.Failed++
	}
}

func (r *Runner) runStep(ctx context.Context, sc *Scenario, name, baseURL string, store *state.Context, step *Step) *StepResult {
	b := r.build(sc, name, baseURL, store, step)

	var opts []chain.RunOption
	if r.config.GetVerbose() {
		opts = append(opts, chain.ShowDetails())
	}

	start := time.Now()
	res, err := b.Run(ctx, opts...)
	sr := &StepResult{
		Duration: time.Since(start),
		Passed:   err == nil,
		Err:      err,
	}
	if res != nil {
		sr.Response = res.Response
	}

	if step.Save != nil && err == nil {
		sr.Saved = make(map[string]any)
		for _, key := range append(sortedKeys(step.Save.Fields), sortedKeys(step.Save.Headers)...) {
			if v, ok := store.Get(key); ok {
				sr.Saved[key] = v
			}
		}
		if step.Save.Cookie != "" {
			if cookie, ok := store.Cookie(); ok {
				sr.Saved[state.CookieKey] = cookie
			}
		}
	}
	return sr
}

// build translates one step into a chain.Builder. The body and expected
// values are resolved now, so they see everything saved by earlier steps.
func (r *Runner) build(sc *Scenario, name, baseURL string, store *state.Context, step *Step) *chain.Builder {
	b := chain.New(baseURL, store, chain.WithClient(r.client), chain.WithPrinter(r.printer))

	switch step.StepMethod() {
	case "GET":
		b.Get(step.Path)
	case "DELETE":
		b.Delete(step.Path)
	case "POST":
		b.Post(step.Path, store.ResolveValue(step.Body))
	case "PUT":
		b.Put(step.Path, store.ResolveValue(step.Body))
	case "PATCH":
		b.Patch(step.Path, store.ResolveValue(step.Body))
	}

	b.Query(step.Query)
	for _, k := range sortedKeys(step.Headers) {
		b.SetHeader(k, step.Headers[k])
	}
	if step.SendCookie {
		b.SendCookieFromContext()
	}

	if exp := step.Expect; exp != nil {
		if exp.Status != 0 {
			b.ExpectStatus(exp.Status)
		}
		for _, k := range sortedKeys(exp.Headers) {
			b.ExpectHeader(k, store.Resolve(exp.Headers[k]))
		}
		for _, k := range sortedKeys(exp.HeadersContain) {
			b.ExpectHeaderContains(k, store.Resolve(exp.HeadersContain[k]))
		}
		for _, k := range sortedKeys(exp.Fields) {
			if exp.Fields[k] == nil {
				b.ExpectBodyField(k)
			} else {
				b.ExpectBodyField(k, store.ResolveValue(exp.Fields[k]))
			}
		}
		if exp.Body != nil {
			b.ExpectBodyEquals(store.ResolveValue(exp.Body))
		}
		if exp.Text != nil {
			b.ExpectTextBody(store.Resolve(*exp.Text))
		}
		if exp.Contains != "" {
			b.ExpectBodyContains(store.Resolve(exp.Contains))
		}
		if exp.Schema != "" {
			b.ExpectSchema(schemaPath(sc, exp.Schema))
		}
		if exp.Snapshot {
			file := sc.Path
			if file == "" {
				file = sc.Name
			}
			b.Expect(r.snapshots.Assert(file, name))
		}
	}

	if save := step.Save; save != nil {
		for _, k := range sortedKeys(save.Fields) {
			b.SaveBodyFieldToContext(save.Fields[k], k)
		}
		for _, k := range sortedKeys(save.Headers) {
			b.SaveHeaderToContext(save.Headers[k], k)
		}
		if save.Cookie != "" {
			b.SaveCookieFromResponse(save.Cookie)
		}
	}

	return b
}

// schemaPath resolves a relative schema path against the scenario's directory.
func schemaPath(sc *Scenario, path string) string {
	if filepath.IsAbs(path) || sc.Path == "" {
		return path
	}
	return filepath.Join(filepath.Dir(sc.Path), path)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
