// Package render produces the text view of a consensus that downstream
// language-model analysis consumes. Every metric is either a formatted value
// with its confidence, or the literal token UNAVAILABLE; never a blank,
// never an inferred number. The formatter is intentionally dumb: table
// lookups and templating only, so it cannot introduce numeric drift.
package render

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/consensus-engine/internal/model"
)

// Unavailable is the exact token emitted for missing data. Downstream
// consumers match on it to refuse fabrication.
const Unavailable = "UNAVAILABLE"

var printer = message.NewPrinter(language.AmericanEnglish)

// Consensus renders the full AI-safe block for an entity.
func Consensus(ec *model.EntityConsensus) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s (%s, %s) ===\n", ec.EntityName, ec.EntityKind, ec.FiscalPeriod)
	fmt.Fprintf(&b, "Overall confidence: %d%%\n", ec.OverallConfidence)
	fmt.Fprintf(&b, "Explanation: %s\n\n", ec.ConfidenceExplanation)

	for _, metric := range model.AllMetrics {
		b.WriteString(MetricLine(metric, ec.Metric(metric)))
		b.WriteByte('\n')
	}

	if len(ec.DataGaps) > 0 {
		fmt.Fprintf(&b, "\nData gaps: %s\n", strings.Join(ec.DataGaps, ", "))
	}
	if len(ec.SourcesUsed) > 0 {
		fmt.Fprintf(&b, "Sources: %s\n", strings.Join(ec.SourcesUsed, ", "))
	}
	return b.String()
}

// MetricLine renders one metric as "<Label>: <value> (confidence: N%)",
// or "<Label>: UNAVAILABLE" when no consensus exists.
func MetricLine(metric model.MetricName, mc model.MetricConsensus) string {
	if !mc.IsAvailable || mc.Value == nil {
		return fmt.Sprintf("%s: %s", metric.Label(), Unavailable)
	}

	line := fmt.Sprintf("%s: %s (confidence: %d%%)", metric.Label(), Value(metric.Unit(), *mc.Value), mc.Confidence)
	if mc.HasWarning && mc.WarningReason != "" {
		line += fmt.Sprintf(" [warning: %s]", mc.WarningReason)
	}
	return line
}

// Value formats a number per its unit convention. Currency uses magnitude
// suffixes at fixed breakpoints; percentages and ratios use fixed decimals.
func Value(unit model.Unit, v float64) string {
	switch unit {
	case model.UnitCurrency:
		return currency(v)
	case model.UnitPercent:
		return fmt.Sprintf("%.1f%%", v)
	case model.UnitRatio:
		return fmt.Sprintf("%.2f", v)
	case model.UnitCount:
		return printer.Sprintf("%d", int64(v))
	default:
		return fmt.Sprintf("%g", v)
	}
}

func currency(v float64) string {
	neg := ""
	if v < 0 {
		neg = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s$%.2fB", neg, v/1e9)
	case v >= 1e7:
		return fmt.Sprintf("%s$%.2fM", neg, v/1e6)
	default:
		return printer.Sprintf("%s$%.2f", neg, v)
	}
}
