package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"gopkg.in/yaml.v3"
)

// ErrInvalidScenario is wrapped by every error returned from Validate.
var ErrInvalidScenario = errors.New("invalid scenario")

var allowedMethods = map[string]bool{
	"GET":    true,
	"POST":   true,
	"PUT":    true,
	"PATCH":  true,
	"DELETE": true,
}

// Scenario is a named sequence of steps sharing one state.Context.
type Scenario struct {
	Name    string         `yaml:"name"`
	BaseURL string         `yaml:"baseUrl"`
	Vars    map[string]any `yaml:"vars"`
	Steps   []*Step        `yaml:"steps"`

	// Path is the file the scenario was loaded from, if any.
	Path string `yaml:"-"`
}

type Step struct {
	Name       string            `yaml:"name"`
	Method     string            `yaml:"method"`
	Path       string            `yaml:"path"`
	Query      map[string]string `yaml:"query"`
	Headers    map[string]string `yaml:"headers"`
	Body       any               `yaml:"body"`
	SendCookie bool              `yaml:"sendCookie"`
	Expect     *Expect           `yaml:"expect"`
	Save       *Save             `yaml:"save"`
}

// Expect lists the checks for one step. A field whose expected value is null
// only has to exist.
type Expect struct {
	Status         int               `yaml:"status"`
	Headers        map[string]string `yaml:"headers"`
	HeadersContain map[string]string `yaml:"headersContain"`
	Fields         map[string]any    `yaml:"fields"`
	Body           any               `yaml:"body"`
	Text           *string           `yaml:"text"`
	Contains       string            `yaml:"contains"`
	Schema         string            `yaml:"schema"`
	Snapshot       bool              `yaml:"snapshot"`
}

// Save maps context keys to the body field or header they are copied from.
type Save struct {
	Fields  map[string]string `yaml:"fields"`
	Headers map[string]string `yaml:"headers"`
	Cookie  string            `yaml:"cookie"`
}

// StepMethod returns the upper-cased method, GET when unset.
func (s *Step) StepMethod() string {
	if s.Method == "" {
		return "GET"
	}
	return strings.ToUpper(s.Method)
}

// Load reads and parses a scenario file. The scenario is named after the file
// when it has no name of its own.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	sc.Path = path
	if sc.Name == "" {
		sc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return sc, nil
}

// Parse decodes a scenario document. Unknown keys are rejected.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var sc Scenario
	if err := dec.Decode(&sc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidScenario)
		}
		return nil, err
	}
	return &sc, nil
}

// Validate reports every structural problem at once.
func (sc *Scenario) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidScenario, fmt.Sprintf(format, args...)))
	}

	if len(sc.Steps) == 0 {
		add("no steps")
	}

	if sc.BaseURL != "" && !strings.Contains(sc.BaseURL, "{{") {
		if err := http.ValidateURL(sc.BaseURL); err != nil {
			add("baseUrl: %v", err)
		}
	}

	seen := make(map[string]bool)
	for i, step := range sc.Steps {
		if step == nil {
			add("step %d is empty", i+1)
			continue
		}

		label := step.label(i)
		if step.Name != "" {
			if seen[step.Name] {
				add("duplicate step name %q", step.Name)
			}
			seen[step.Name] = true
		}

		method := step.StepMethod()
		if !allowedMethods[method] {
			add("%s: unsupported method %q", label, step.Method)
		}
		if step.Path == "" {
			add("%s: path is required", label)
		}
		if step.Body != nil && (method == "GET" || method == "DELETE") {
			add("%s: %s cannot carry a body", label, method)
		}
		if step.Expect != nil && step.Expect.Status != 0 && (step.Expect.Status < 100 || step.Expect.Status > 599) {
			add("%s: status %d out of range", label, step.Expect.Status)
		}
	}

	return errors.Join(errs...)
}

func (s *Step) label(index int) string {
	if s.Name != "" {
		return fmt.Sprintf("step %q", s.Name)
	}
	return fmt.Sprintf("step %d", index+1)
}

// IsScenarioFile reports whether path has a scenario extension.
func IsScenarioFile(path string) bool {
	return strings.HasSuffix(path, ".chain.yaml") || strings.HasSuffix(path, ".chain.yml")
}

// CollectFiles expands the given files and directories into scenario files.
// Directories are walked recursively; explicit files are kept only when they
// have a scenario extension.
func CollectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if IsScenarioFile(arg) {
				files = append(files, arg)
			}
			continue
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && IsScenarioFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}
