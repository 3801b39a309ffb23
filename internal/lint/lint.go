// Package lint checks a loaded schema set against the JSON Schema meta-schema
// and the naming and reference conventions the generators rely on. Sets
// loaded with schema.LoadOptions.Lenient are supported: rules read the raw
// document tree, and normalization failures are reported as issues.
package lint

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"odf-codegen/internal/schema"
)

// Severity levels for lint issues.
type Severity string

// Severity constants.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

var sevRank = map[Severity]int{SeverityWarning: 1, SeverityError: 2}

// Issue is a single lint finding.
type Issue struct {
	Schema   string   `json:"schema"`
	File     string   `json:"file,omitempty"`
	RuleID   string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// String formats an issue in golangci-lint style.
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s %s: %s", i.location(), i.RuleID, i.Severity, i.Message)
}

func (i Issue) location() string {
	if i.File != "" {
		return i.File
	}
	return i.Schema
}

// Rule is one lint check.
type Rule interface {
	ID() string
	Description() string
	DefaultSeverity() Severity
	Check(c *Context) ([]Issue, error)
}

var registry []Rule

func register(r Rule) { registry = append(registry, r) }

// Rules returns the registered rules in execution order.
func Rules() []Rule {
	return slices.Clone(registry)
}

// DefaultRoots are the entry points of the schema graph.
var DefaultRoots = []string{
	"Manifest",
	"DatasetSnapshot",
	"MetadataBlock",
	"RawQueryRequest",
	"RawQueryResponse",
	"TransformRequest",
	"TransformResponse",
}

// Options configures a lint run.
type Options struct {
	// Roots overrides DefaultRoots for the reachability check.
	Roots []string
	// Severities overrides rule severities by rule ID. "off" disables a rule.
	Severities map[string]string
	Logger     *slog.Logger
}

// Context gives rules access to the set being linted.
type Context struct {
	Set    *schema.Set
	Roots  []string
	Logger *slog.Logger

	compiled map[string]error
}

// Issue builds an issue for doc.
func (c *Context) Issue(doc *schema.Document, ruleID string, sev Severity, format string, args ...any) Issue {
	return Issue{Schema: doc.Name, File: doc.Path, RuleID: ruleID, Severity: sev, Message: fmt.Sprintf(format, args...)}
}

// Report is the result of a lint run.
type Report struct {
	Issues []Issue `json:"issues"`
}

// HasErrors reports whether any issue has error severity.
func (r *Report) HasErrors() bool {
	return slices.ContainsFunc(r.Issues, func(i Issue) bool { return i.Severity == SeverityError })
}

// Count returns the number of issues with severity sev.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// Filter returns issues at or above minSev.
func (r *Report) Filter(minSev Severity) []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if sevRank[i.Severity] >= sevRank[minSev] {
			out = append(out, i)
		}
	}
	return out
}

// Run executes every enabled rule against set. Issues are sorted by schema
// name, then message.
func Run(set *schema.Set, opts Options) (*Report, error) {
	c := &Context{Set: set, Roots: opts.Roots, Logger: opts.Logger}
	if c.Roots == nil {
		c.Roots = DefaultRoots
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	report := &Report{}
	for _, rule := range registry {
		sev, err := effectiveSeverity(opts.Severities, rule)
		if err != nil {
			return nil, err
		}
		if sev == "" {
			c.Logger.Debug("rule disabled", "rule", rule.ID())
			continue
		}
		issues, err := rule.Check(c)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.ID(), err)
		}
		for _, i := range issues {
			i.Severity = sev
			report.Issues = append(report.Issues, i)
		}
		c.Logger.Debug("rule checked", "rule", rule.ID(), "issues", len(issues))
	}

	slices.SortStableFunc(report.Issues, func(a, b Issue) int {
		if c := strings.Compare(a.Schema, b.Schema); c != 0 {
			return c
		}
		return strings.Compare(a.Message, b.Message)
	})
	return report, nil
}

func effectiveSeverity(overrides map[string]string, r Rule) (Severity, error) {
	override, ok := overrides[r.ID()]
	if !ok {
		return r.DefaultSeverity(), nil
	}
	switch override {
	case "off":
		return "", nil
	case string(SeverityError), string(SeverityWarning):
		return Severity(override), nil
	default:
		return "", fmt.Errorf("rule %s: unknown severity %q (use: error, warning, off)", r.ID(), override)
	}
}
