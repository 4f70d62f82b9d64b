package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/abdul-hamid-achik/hitchain/packages/http"
	"github.com/fatih/color"
)

// formatValue formats a value for display, truncating or summarizing large values
func formatValue(v any, maxLen int) string {
	switch val := v.(type) {
	case []any:
		return fmt.Sprintf("[array with %d items]", len(val))
	case map[string]any:
		return fmt.Sprintf("{object with %d keys}", len(val))
	}
	str := fmt.Sprintf("%v", v)
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}

type ConsoleFormatter struct {
	writer    io.Writer
	errWriter io.Writer
	verbose   bool
	noColor   bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithErrWriter sets where warnings and errors go (default stderr).
func WithErrWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.errWriter = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// PrintRequest prints the outgoing method, URL, headers and body.
func (f *ConsoleFormatter) PrintRequest(req *http.Request) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s %s\n", cyan("→"), bold(req.Method), req.URL())
	f.printHeaders(req.Headers)
	if req.SendsBody() {
		fmt.Fprintf(f.writer, "    Body: %s\n", string(req.Body))
	}
}

// PrintResponse prints status, headers and the JSON body, or text when the
// body was not JSON.
func (f *ConsoleFormatter) PrintResponse(resp *http.Response, body any, text string) {
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s %s\n", cyan("←"), statusColor(resp), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

	headers := make(map[string]string, len(resp.Headers))
	for k := range resp.Headers {
		headers[k] = resp.Header(k)
	}
	f.printHeaders(headers)

	if body != nil {
		data, err := json.MarshalIndent(body, "    ", "  ")
		if err == nil {
			fmt.Fprintf(f.writer, "    Body: %s\n", data)
			return
		}
	}
	if text != "" {
		fmt.Fprintf(f.writer, "    Body: %s\n", text)
	}
}

func (f *ConsoleFormatter) PrintWarning(format string, args ...any) {
	yellow := color.New(color.FgYellow).SprintFunc()
	fmt.Fprintf(f.errWriter, "%s %s\n", yellow("warning:"), fmt.Sprintf(format, args...))
}

func (f *ConsoleFormatter) printHeaders(headers map[string]string) {
	if len(headers) == 0 {
		return
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintf(f.writer, "    Headers:\n")
	for _, k := range keys {
		fmt.Fprintf(f.writer, "      %s: %s\n", k, headers[k])
	}
}

func statusColor(resp *http.Response) string {
	text := fmt.Sprintf("%d", resp.StatusCode)
	switch {
	case resp.IsServerError():
		return color.New(color.FgRed, color.Bold).Sprint(text)
	case resp.IsClientError():
		return color.New(color.FgRed).Sprint(text)
	case resp.IsSuccess():
		return color.New(color.FgGreen).Sprint(text)
	default:
		return color.New(color.FgYellow).Sprint(text)
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitchain"), version)
}

func (f *ConsoleFormatter) FormatScenario(name, file string) {
	bold := color.New(color.Bold).SprintFunc()
	title := name
	if title == "" {
		title = file
	}
	fmt.Fprintf(f.writer, "\n%s\n\n", bold("Running: "+title))
}

// StepLine is what FormatStep needs to know about one executed step.
type StepLine struct {
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Duration   time.Duration
	Status     int
	Err        error
	Saved      map[string]any
}

func (f *ConsoleFormatter) FormatStep(s StepLine) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if s.Skipped {
		fmt.Fprintf(f.writer, "  %s %s", yellow("-"), s.Name)
		if s.SkipReason != "" {
			fmt.Fprintf(f.writer, " (%s)", s.SkipReason)
		}
		fmt.Fprintf(f.writer, "\n")
		return
	}

	symbol := green("✓")
	if !s.Passed {
		symbol = red("✗")
	}
	fmt.Fprintf(f.writer, "  %s %s %s\n", symbol, s.Name, cyan(fmt.Sprintf("(%dms)", s.Duration.Milliseconds())))

	if f.verbose && s.Status != 0 {
		fmt.Fprintf(f.writer, "    Status: %d\n", s.Status)
	}

	if s.Err != nil {
		fmt.Fprintf(f.writer, "    %s %v\n", red("→"), s.Err)
	}

	if f.verbose && len(s.Saved) > 0 {
		keys := make([]string, 0, len(s.Saved))
		for k := range s.Saved {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(f.writer, "    Saved:\n")
		for _, k := range keys {
			fmt.Fprintf(f.writer, "      %s = %s\n", k, formatValue(s.Saved[k], 100))
		}
	}
}

func (f *ConsoleFormatter) FormatSummary(passed, failed, skipped int, duration time.Duration) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Steps: ")
	if passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", passed)))
	}
	if failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", failed)))
	}
	if skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", passed+failed+skipped)
	fmt.Fprintf(f.writer, "Time:  %dms\n", duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.errWriter, "%s %v\n", red("Error:"), err)
}
