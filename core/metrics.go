package core

import "context"

// Metric names emitted per settled operation. The counter carries one
// increment per settlement; the histogram carries the clock-derived
// duration in milliseconds. Both are tagged by resource and final status.
const (
	metricRequestTotal      = "restmod.request.total"
	metricRequestDurationMS = "restmod.request.duration_ms"
)

func requestMetricTags(resource string, status Status) map[string]string {
	return map[string]string{
		"resource": resource,
		"status":   string(status),
	}
}

// NopMetricsRecorder discards every observation; it backfills the recorder
// slot when no option supplies one.
type NopMetricsRecorder struct{}

func (NopMetricsRecorder) IncCounter(context.Context, string, int64, map[string]string) {}

func (NopMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func cloneTags(tags map[string]string) map[string]string {
	if len(tags) == 0 {
		return map[string]string{}
	}
	copied := make(map[string]string, len(tags))
	for key, value := range tags {
		copied[key] = value
	}
	return copied
}

var _ MetricsRecorder = NopMetricsRecorder{}
