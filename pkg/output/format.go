// Package output provides utilities for formatting and displaying analysis results.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/decision-analysis/internal/analysis"
	"github.com/iwvelando/decision-analysis/pkg/constants"
	"github.com/iwvelando/decision-analysis/pkg/format"
	"github.com/iwvelando/decision-analysis/pkg/optimization"
	"gopkg.in/yaml.v3"
)

// Write renders report to w in the named output format.
func Write(w io.Writer, outputFormat string, report *analysis.Report) error {
	switch outputFormat {
	case constants.OutputFormatPretty:
		return PrettyFormat(w, report)
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatYAML:
		return YamlFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report *analysis.Report) error {
	sections := optimization.Group(Flatten(report))
	for i, section := range sections {
		if _, err := fmt.Fprintf(w, "--- Results for %s ---\n", section.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Subject | Metric | Value | Notes\n"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "_______ | ______ | _____ | _____\n"); err != nil {
			return err
		}
		for _, s := range section.Summaries {
			if _, err := fmt.Fprintf(w, "%s | %s | %s | %s\n", s.Subject, s.Metric, prettyValue(s), strings.Join(s.Notes, ",")); err != nil {
				return err
			}
		}
		if i < len(sections)-1 {
			if _, err := fmt.Fprintf(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, report *analysis.Report) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"section", "subject", "metric", "value", "notes"}); err != nil {
		return err
	}
	for _, s := range Flatten(report) {
		record := []string{s.Section, s.Subject, s.Metric, fmt.Sprintf("%.6f", s.Value), strings.Join(s.Notes, ",")}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// YamlFormat outputs the report grouped by section.
func YamlFormat(w io.Writer, report *analysis.Report) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(optimization.Group(Flatten(report))); err != nil {
		return err
	}
	return encoder.Close()
}

// prettyValue picks a display unit from the row's section and metric.
func prettyValue(s optimization.Summary) string {
	switch {
	case s.Section == SectionBayes:
		return format.Quantity(s.Value, 4)
	case s.Metric == "capture ratio":
		return format.Percent(s.Value)
	case s.Metric == "relative half-width":
		return format.Quantity(s.Value, 2) + "%"
	case s.Metric == "batches" || s.Metric == "best batch" || s.Metric == "seed":
		return fmt.Sprintf("%.0f", s.Value)
	case strings.HasSuffix(s.Metric, "allocation"):
		return format.Quantity(s.Value, 2)
	default:
		return format.Currency(s.Value)
	}
}
