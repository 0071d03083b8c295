package layout

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/netdiagram/pkg/topology"
)

// DiagnosticKind classifies a non-fatal data problem seen during layout.
type DiagnosticKind string

// Diagnostic kinds.
const (
	// ReferenceMiss is a name that points at nothing: a group member with no
	// device, a connection endpoint with no device or interface, or a flow
	// label with no connection.
	ReferenceMiss DiagnosticKind = "reference-miss"

	// LookupMiss is an interface anchor requested for a name the device
	// does not have.
	LookupMiss DiagnosticKind = "lookup-miss"

	// DuplicateMember is a device listed by more than one group.
	DuplicateMember DiagnosticKind = "duplicate-member"
)

// Diagnostic is one reported problem. The engine never fails on data
// problems; it degrades to defaults and reports a Diagnostic instead.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Subject string         `json:"subject"`
	Detail  string         `json:"detail"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s: %s", d.Kind, d.Subject, d.Detail)
}

// Reporter receives diagnostics.
type Reporter interface {
	Report(Diagnostic)
}

// Discard drops every diagnostic.
var Discard Reporter = discard{}

type discard struct{}

func (discard) Report(Diagnostic) {}

// Collector keeps diagnostics in memory. It is safe for concurrent use so
// that a server can read it while the event loop writes.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	c.items = append(c.items, d)
	c.mu.Unlock()
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics of kind k were reported.
func (c *Collector) Count(k DiagnosticKind) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.items {
		if d.Kind == k {
			n++
		}
	}
	return n
}

// Reset drops all collected diagnostics.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.items = nil
	c.mu.Unlock()
}

// LogReporter writes each diagnostic as a warning.
type LogReporter struct {
	Logger *log.Logger
}

// NewLogReporter returns a LogReporter writing to logger, or to the default
// charmbracelet logger when logger is nil.
func NewLogReporter(logger *log.Logger) *LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return &LogReporter{Logger: logger}
}

func (r *LogReporter) Report(d Diagnostic) {
	r.Logger.Warn(d.Detail, "kind", d.Kind, "subject", d.Subject)
}

// Tee fans diagnostics out to several reporters.
func Tee(rs ...Reporter) Reporter { return tee(rs) }

type tee []Reporter

func (t tee) Report(d Diagnostic) {
	for _, r := range t {
		r.Report(d)
	}
}

// ReportProblems forwards snapshot validation problems as diagnostics.
// Duplicate members keep their kind; every other problem is a ReferenceMiss.
func ReportProblems(r Reporter, problems []topology.Problem) {
	for _, p := range problems {
		kind := ReferenceMiss
		if p.Kind == topology.ProblemDuplicateMember {
			kind = DuplicateMember
		}
		r.Report(Diagnostic{Kind: kind, Subject: p.Subject, Detail: p.Detail})
	}
}
