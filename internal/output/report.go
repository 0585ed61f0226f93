package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/torosent/shortload/internal/metrics"
	"github.com/torosent/shortload/internal/threshold"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Total Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d (%.2f%%)\n", stats.Failures, stats.FailureRate*100)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", stats.RequestsPerSec)
	fmt.Fprintln(w, "\nLatency:")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P95:             %s\n", stats.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)

	if len(stats.Types) > 0 {
		fmt.Fprintln(w, "\nRequest Types:")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  NAME\tTOTAL\tSHARE\tFAILED\tRPS\tP50\tP95\tP99")
		for _, ts := range stats.TypesByTotal() {
			fmt.Fprintf(tw, "  %s\t%d\t%.1f%%\t%d\t%.2f\t%s\t%s\t%s\n",
				ts.Name,
				ts.Total,
				ts.Share*100,
				ts.Failures,
				ts.RequestsPerSec,
				ts.P50Latency,
				ts.P95Latency,
				ts.P99Latency,
			)
		}
		tw.Flush()
	}

	if len(stats.FailureBreakdown) > 0 {
		fmt.Fprintln(w, "\nFailures:")
		for _, row := range stats.FailureBreakdown {
			fmt.Fprintf(w, "  %s %s: %d\n", row.Type, row.Reason, row.Count)
		}
	}
}

// PrintThresholdResults outputs one line per threshold and a pass/fail summary.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		if r.Pass {
			passed++
		}
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	fmt.Fprintf(w, "  %d/%d passed\n", passed, len(results))
}

// JSONReport is the document written by PrintJSONReport.
type JSONReport struct {
	metrics.Stats
	Thresholds *ThresholdSummary `json:"thresholds,omitempty"`
}

// ThresholdSummary aggregates threshold outcomes for JSON output.
type ThresholdSummary struct {
	Total   int                   `json:"total"`
	Passed  int                   `json:"passed"`
	Failed  int                   `json:"failed"`
	Results []ThresholdResultJSON `json:"results"`
}

// ThresholdResultJSON is a flattened threshold.Result.
type ThresholdResultJSON struct {
	Threshold string  `json:"threshold"`
	Metric    string  `json:"metric"`
	Type      string  `json:"type,omitempty"`
	Aggregate string  `json:"aggregate"`
	Operator  string  `json:"operator"`
	Expected  float64 `json:"expected"`
	Actual    float64 `json:"actual"`
	Pass      bool    `json:"pass"`
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats, results []threshold.Result) error {
	report := JSONReport{Stats: stats, Thresholds: summarizeThresholds(results)}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func summarizeThresholds(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{
		Total:   len(results),
		Results: make([]ThresholdResultJSON, len(results)),
	}
	for i, tr := range results {
		summary.Results[i] = ThresholdResultJSON{
			Threshold: tr.Threshold.Raw,
			Metric:    tr.Threshold.Metric,
			Type:      tr.Threshold.Type,
			Aggregate: tr.Threshold.Aggregate,
			Operator:  tr.Threshold.Operator,
			Expected:  tr.Threshold.Value,
			Actual:    tr.Actual,
			Pass:      tr.Pass,
		}
		if tr.Pass {
			summary.Passed++
		} else {
			summary.Failed++
		}
	}
	return summary
}
