package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/streamscan/streamscan/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no streams are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeStreams(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                       STREAM DISCOVERY REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Scan Date:      %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", report.Elapsed().Round(time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Hosts Scanned:  %d (%d ok, %d failed)\n",
		report.HostsScanned, report.HostsSuccessful, report.HostsFailed))
	sb.WriteString("\n")
}

// writeSummary writes the per-protocol count section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.ScanReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := report.CountByProtocol()
	protocols := make([]string, 0, len(counts))
	for p := range counts {
		protocols = append(protocols, p)
	}
	sort.Strings(protocols)

	for _, p := range protocols {
		sb.WriteString(fmt.Sprintf("  %-8s %d\n", strings.ToUpper(p)+":", counts[p]))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:   %d streams\n", len(report.Streams)))
	sb.WriteString("\n")
}

// writeStreams writes the discovered stream list.
// Heuristic-tier entries are marked so readers know they were inferred
// from reachability rather than content-verified.
func (w *SimpleWriter) writeStreams(sb *strings.Builder, report *model.ScanReport) {
	if len(report.Streams) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DISCOVERED STREAMS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(report.Streams) == 0 {
		sb.WriteString("  No streams discovered\n")
	}

	for _, s := range report.Streams {
		marker := "+"
		if s.Confidence == model.ConfidenceHeuristic {
			marker = "?"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, s.URL))
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      protocol: %s, confidence: %s\n", s.Protocol, s.Confidence))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by streamscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
