// Package report collects categorized outcome messages per processing
// method during one enrichment run, for post-hoc reporting.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/liserjrqlxue/goUtil/fmtUtil"
	"github.com/samber/lo"
)

type Severity string

const (
	Valid   Severity = "valid"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Known reports whether s is one of the three supported severities.
func (s Severity) Known() bool {
	return s == Valid || s == Warning || s == Error
}

type Entry struct {
	Method   string   `json:"method"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

func (e Entry) String() string {
	return fmt.Sprintf("[%s] %s: %s", e.Severity, e.Method, e.Message)
}

// Report is an append-only log of Entry values scoped to one run.
// It never enforces control flow; callers decide what is fatal.
type Report struct {
	entries []Entry
	out     io.Writer
}

func New() *Report {
	return NewWithWriter(os.Stderr)
}

func NewWithWriter(out io.Writer) *Report {
	return &Report{out: out}
}

// Update appends one entry. An unknown severity is recorded as Error so
// that no message can silently drop out of the error filter.
func (r *Report) Update(method string, severity Severity, message string) {
	if !severity.Known() {
		severity = Error
	}
	r.entries = append(r.entries, Entry{Method: method, Severity: severity, Message: message})
}

func (r *Report) Updatef(method string, severity Severity, format string, args ...any) {
	r.Update(method, severity, fmt.Sprintf(format, args...))
}

// Entries returns the entries for method, filtered by severities.
// No severities means all severities.
func (r *Report) Entries(method string, severities ...Severity) []Entry {
	return lo.Filter(r.entries, func(e Entry, _ int) bool {
		if e.Method != method {
			return false
		}
		return len(severities) == 0 || lo.Contains(severities, e.Severity)
	})
}

func (r *Report) Count(method string, severity Severity) int {
	return len(r.Entries(method, severity))
}

// All returns every entry in append order.
func (r *Report) All() []Entry {
	return r.entries
}

// Methods returns the method names in first-appearance order.
func (r *Report) Methods() []string {
	return lo.Uniq(lo.Map(r.entries, func(e Entry, _ int) string { return e.Method }))
}

// Print renders the filtered entries of one method to the report writer.
func (r *Report) Print(method string, severities ...Severity) {
	for _, e := range r.Entries(method, severities...) {
		fmtUtil.Fprintln(r.out, e.String())
	}
}

// PrintAll renders every method's entries, filtered by severities.
func (r *Report) PrintAll(severities ...Severity) {
	for _, method := range r.Methods() {
		r.Print(method, severities...)
	}
}
