package report

import (
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/streamscan/streamscan/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.ScanReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeStreams(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with scan information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.ScanReport) {
	md.H1("Stream Discovery Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Elapsed().String()},
			{"Hosts Scanned", strconv.Itoa(report.HostsScanned)},
			{"Hosts Failed", strconv.Itoa(report.HostsFailed)},
			{"Streams Found", strconv.Itoa(len(report.Streams))},
		},
	})
	md.PlainText("")
}

// writeSummary writes the per-protocol summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Protocol Summary")
	md.PlainText("")

	counts := report.CountByProtocol()
	protocols := make([]string, 0, len(counts))
	for p := range counts {
		protocols = append(protocols, p)
	}
	sort.Strings(protocols)

	rows := make([][]string, 0, len(protocols))
	for _, p := range protocols {
		rows = append(rows, []string{strings.ToUpper(p), strconv.Itoa(counts[p])})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Protocol", "Streams"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Streams) > 0 {
		w.writePieChart(md, protocols, counts)
	}

	tiers := report.CountByConfidence()
	if tiers[model.ConfidenceHeuristic] > 0 {
		md.Note("RTMP endpoints are inferred from port reachability alone " +
			"and carry HEURISTIC confidence; all other entries were " +
			"content-verified.")
		md.PlainText("")
	}
}

// writePieChart writes a mermaid pie chart of the protocol distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, protocols []string, counts map[string]int) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Streams by Protocol"),
		piechart.WithShowData(true),
	)
	for _, p := range protocols {
		chart.LabelAndIntValue(strings.ToUpper(p), uint64(counts[p]))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeStreams writes the discovered stream table.
func (w *MarkdownWriter) writeStreams(md *markdown.Markdown, report *model.ScanReport) {
	md.H2("Discovered Streams")
	md.PlainText("")

	if len(report.Streams) == 0 {
		md.PlainText("No streams discovered.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(report.Streams))
	for _, s := range report.Streams {
		rows = append(rows, []string{
			"`" + s.URL + "`",
			strings.ToUpper(s.Protocol),
			s.Confidence.String(),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Protocol", "Confidence"},
		Rows:   rows,
	})
	md.PlainText("")
}
