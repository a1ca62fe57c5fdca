package models

import "time"

// MetricPoint represents a single metric observation
type MetricPoint struct {
	Timestamp time.Time         `json:"timestamp"`
	Name      string            `json:"name"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
}

// Aggregation represents aggregated statistics for a metric
type Aggregation struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
}

// GenerationMetrics summarises one generation run.
type GenerationMetrics struct {
	Groups              int                     `json:"groups"`
	InteractionsLowered int64                   `json:"interactions_lowered"`
	InteractionsFailed  int64                   `json:"interactions_failed"`
	PropertiesLowered   int64                   `json:"properties_lowered"`
	PropertiesSkipped   int64                   `json:"properties_skipped"`
	Duration            time.Duration           `json:"duration"`
	LoweringTimeMs      *Aggregation            `json:"lowering_time_ms,omitempty"`
	GroupLoweringTimeMs map[string]*Aggregation `json:"group_lowering_time_ms,omitempty"`
}
