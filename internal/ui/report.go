package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/droidgate/droidgate/internal/preflight"
)

// Report renders check results with severity styling. It is the
// interactive-terminal counterpart of the plain Checker output.
type Report struct {
	out     io.Writer
	styles  Styles
	verbose bool
}

// ReportOption configures a Report.
type ReportOption func(*Report)

// WithColor enables or disables styled output.
func WithColor(color bool) ReportOption {
	return func(r *Report) {
		r.styles = GetStyles(!color)
	}
}

// WithVerbose includes per-check details in the report.
func WithVerbose(verbose bool) ReportOption {
	return func(r *Report) {
		r.verbose = verbose
	}
}

// NewReport creates a report renderer writing to out. Color defaults to on.
func NewReport(out io.Writer, opts ...ReportOption) *Report {
	r := &Report{
		out:    out,
		styles: DefaultStyles(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// statusStyle picks the style matching a check status.
func (r *Report) statusStyle(status preflight.CheckStatus) lipgloss.Style {
	switch status {
	case preflight.StatusPass:
		return r.styles.Pass
	case preflight.StatusWarn:
		return r.styles.Warn
	default:
		return r.styles.Fail
	}
}

// Render writes the styled check report.
func (r *Report) Render(results []preflight.CheckResult) {
	_, _ = fmt.Fprintln(r.out, r.styles.Header.Render("Droidgate Environment Check"))
	_, _ = fmt.Fprintln(r.out, r.styles.Dim.Render(strings.Repeat("=", 27)))
	_, _ = fmt.Fprintln(r.out)

	for _, res := range results {
		style := r.statusStyle(res.Status)
		tag := style.Render("[" + res.Status.String() + "]")
		name := r.styles.Label.Render(res.Name)
		_, _ = fmt.Fprintf(r.out, "%s %s: %s\n", tag, name, res.Message)

		if r.verbose && res.Details != "" {
			_, _ = fmt.Fprintf(r.out, "      %s\n", r.styles.Dim.Render(res.Details))
		}
		if res.Status == preflight.StatusFail && res.Remediation != "" {
			for _, line := range strings.Split(res.Remediation, "\n") {
				_, _ = fmt.Fprintf(r.out, "      %s\n", r.styles.Remedy.Render(line))
			}
		}
	}

	_, _ = fmt.Fprintln(r.out)
	r.renderSummary(results)
}

// renderSummary writes the overall verdict and the warning/error rollups.
func (r *Report) renderSummary(results []preflight.CheckResult) {
	var warnings, failures []string
	for _, res := range results {
		if res.IsCritical() {
			failures = append(failures, res.Name+": "+res.Message)
		} else if res.Status == preflight.StatusWarn {
			warnings = append(warnings, res.Name+": "+res.Message)
		}
	}

	status := summaryLabel(results)
	style := r.styles.Pass
	switch {
	case len(failures) > 0:
		style = r.styles.Fail
	case len(warnings) > 0:
		style = r.styles.Warn
	}
	_, _ = fmt.Fprintf(r.out, "Status: %s\n", style.Render(strings.ToUpper(status)))

	if len(failures) > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintf(r.out, "%d error(s):\n", len(failures))
		for _, f := range failures {
			_, _ = fmt.Fprintf(r.out, "  - %s\n", r.styles.Fail.Render(f))
		}
	}

	if len(warnings) > 0 {
		_, _ = fmt.Fprintln(r.out)
		_, _ = fmt.Fprintf(r.out, "%d warning(s):\n", len(warnings))
		for _, w := range warnings {
			_, _ = fmt.Fprintf(r.out, "  - %s\n", r.styles.Warn.Render(w))
		}
	}
}

// summaryLabel mirrors the Checker's summary wording.
func summaryLabel(results []preflight.CheckResult) string {
	hasWarnings := false
	for _, r := range results {
		if r.IsCritical() {
			return "failed"
		}
		if r.Status == preflight.StatusWarn || (r.Status == preflight.StatusFail && !r.Required) {
			hasWarnings = true
		}
	}
	if hasWarnings {
		return "ready_with_warnings"
	}
	return "ready"
}

// RenderRecommendationsTable writes the supported/recommended toolchain
// levels as a table.
func RenderRecommendationsTable(w io.Writer, rec preflight.Recommendations) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Setting", "Minimum", "Recommended"})
	t.AppendRow(table.Row{"NDK version", strconv.Itoa(rec.MinNDKVersion), rec.RecommendedNDKVersion})
	t.AppendRow(table.Row{"Target API", strconv.Itoa(rec.MinTargetAPI), strconv.Itoa(rec.RecommendedTargetAPI)})
	t.AppendRow(table.Row{"NDK API", strconv.Itoa(rec.MinNDKAPI), strconv.Itoa(rec.RecommendedNDKAPI)})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
