package metrics

import (
	"time"

	"github.com/GoSim-25-26J-441/seqcsp/pkg/models"
)

// Metric names recorded during generation
const (
	MetricLoweringTime       = "lowering_time_ms"
	MetricInteractionLowered = "interactions_lowered"
	MetricInteractionFailed  = "interactions_failed"
	MetricPropertyLowered    = "properties_lowered"
	MetricPropertySkipped    = "properties_skipped"
)

// GroupLabels creates a labels map for a group
func GroupLabels(group string) map[string]string {
	return map[string]string{
		"group": group,
	}
}

// RecordInteraction records the outcome and lowering time of one interaction
func RecordInteraction(collector *Collector, group string, elapsed time.Duration, err error) {
	labels := GroupLabels(group)
	collector.RecordNow(MetricLoweringTime, float64(elapsed.Microseconds())/1000.0, labels)
	if err != nil {
		collector.RecordNow(MetricInteractionFailed, 1, labels)
		return
	}
	collector.RecordNow(MetricInteractionLowered, 1, labels)
}

// RecordProperty records a lowered or skipped property
func RecordProperty(collector *Collector, group string, skipped bool) {
	name := MetricPropertyLowered
	if skipped {
		name = MetricPropertySkipped
	}
	collector.RecordNow(name, 1, GroupLabels(group))
}

// ConvertToGenerationMetrics summarises the collector for the given groups
func ConvertToGenerationMetrics(collector *Collector, groups []string) *models.GenerationMetrics {
	out := &models.GenerationMetrics{
		Groups:              len(groups),
		InteractionsLowered: count(collector, MetricInteractionLowered),
		InteractionsFailed:  count(collector, MetricInteractionFailed),
		PropertiesLowered:   count(collector, MetricPropertyLowered),
		PropertiesSkipped:   count(collector, MetricPropertySkipped),
		Duration:            collector.Duration(),
		LoweringTimeMs:      collector.GetTotalAggregation(MetricLoweringTime),
	}
	for _, g := range groups {
		agg := collector.GetAggregation(MetricLoweringTime, GroupLabels(g))
		if agg == nil {
			continue
		}
		if out.GroupLoweringTimeMs == nil {
			out.GroupLoweringTimeMs = make(map[string]*models.Aggregation)
		}
		out.GroupLoweringTimeMs[g] = agg
	}
	return out
}

// count sums a counter metric across all labels
func count(collector *Collector, name string) int64 {
	agg := collector.GetTotalAggregation(name)
	if agg == nil {
		return 0
	}
	return int64(agg.Sum)
}
