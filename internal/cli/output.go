package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/remixer1943/Ai/internal/eval"
	"github.com/remixer1943/Ai/internal/models"
	"github.com/remixer1943/Ai/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable, coloured when writing to a terminal.
	OutputText OutputFormat = "text"
	// OutputJSON is indented JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" and "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputText, OutputJSON:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

var (
	headerColor = color.New(color.FgGreen, color.Bold)
	idColor     = color.New(color.FgCyan, color.Bold)
	scoreColor  = color.New(color.FgYellow)
	dimColor    = color.New(color.Faint)
	warnColor   = color.New(color.FgRed, color.Bold)
)

const snippetRunes = 200

// WriteResults writes ranked chunks for query in the given format.
func WriteResults(w io.Writer, query string, results []models.RetrievalResult, format OutputFormat) error {
	if format == OutputJSON {
		if results == nil {
			results = []models.RetrievalResult{}
		}
		return writeJSON(w, models.RetrieveResponse{Chunks: results})
	}
	if len(results) == 0 {
		fmt.Fprintf(w, "No chunks found for %q.\n", query)
		return nil
	}
	headerColor.Fprintf(w, "\n%d chunks for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Fprintf(w, "[%d] ", i+1)
		idColor.Fprint(w, r.ID)
		scoreColor.Fprintf(w, "  score %.4f", r.Score)
		if r.Source != "" {
			dimColor.Fprintf(w, "  (%s)", r.Source)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    %s\n\n", utils.Truncate(oneLine(r.Text), snippetRunes))
	}
	return nil
}

// WriteReport writes an evaluation report in the given format.
func WriteReport(w io.Writer, report *eval.Report, k int, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, report)
	}
	headerColor.Fprintf(w, "Precision@%d: %.4f", k, report.PrecisionAtK)
	fmt.Fprintf(w, " over %d samples\n", report.Samples)
	for _, s := range report.PerSample {
		c := scoreColor
		if s.Precision == 0 {
			c = warnColor
		}
		c.Fprintf(w, "  %.2f", s.Precision)
		fmt.Fprintf(w, "  %s\n", utils.Truncate(s.Query, 60))
		dimColor.Fprintf(w, "        retrieved: %s\n", strings.Join(s.Retrieved, ", "))
	}
	return nil
}

// writeKV prints aligned "key: value" lines in order.
func writeKV(w io.Writer, pairs [][2]string) {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p[0]))
	}
	for _, p := range pairs {
		idColor.Fprintf(w, "%-*s", width+1, p[0]+":")
		fmt.Fprintf(w, " %s\n", p[1])
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
