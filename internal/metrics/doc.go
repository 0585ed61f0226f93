// Package metrics aggregates classified request results into run statistics.
//
// [Collector] keeps an overall and a per-request-type summary: success and
// failure counts, HDR latency histograms and failures grouped by reason.
//
//	collector := metrics.NewCollector("get_url", "shorten_url")
//	collector.Start()
//	collector.Record(recorder.Result{Name: "get_url", Success: true, Latency: 3 * time.Millisecond})
//	stats := collector.Stats(collector.Elapsed())
//
// [PromSink] mirrors the same results into Prometheus counters and histograms
// so long runs can be scraped while they are in progress.
//
// Both types implement recorder.Sink and are fed from the recorder's single
// drain goroutine, so virtual users never wait on aggregation.
package metrics
