package quality

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	engine := NewEngine(WithMetrics(metrics))

	in := Input{
		Catalog: Catalog{Fields: []FieldDefinition{{Name: "email"}}},
		Records: []Record{
			{Subject: "S1", Values: map[string]interface{}{"email": "bad"}},
			{Subject: "S2", Values: map[string]interface{}{"email": "a@b.com"}},
		},
		Rules: []Rule{
			{ID: "mail", Kind: RuleKindRegex, Field: "email", Pattern: `^[^@]+@[^@]+\.[^@]+$`, Priority: PriorityHigh, Active: true},
			{ID: "ghost", Kind: RuleKindRegex, Field: "missing", Pattern: `.`, Active: true},
		},
	}
	_, err := engine.Analyze(context.Background(), in, Config{})
	require.NoError(t, err)

	_, err = engine.Analyze(context.Background(), Input{}, Config{})
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("complete")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.RecordsProcessed))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.IssuesTotal.WithLabelValues("High", string(IssueRegex))))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RulesRejected))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() { m.observe("complete", &QualityReport{}, 0.1) })
}
