/*
 * @module service/quality/metrics
 * @description 分析引擎的 Prometheus 指标
 * @architecture 可观测性 - 指标采集
 * @rules Metrics 为 nil 时所有记录操作为空操作，引擎可在无指标环境下使用
 * @dependencies github.com/prometheus/client_golang/prometheus
 */

package quality

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 分析引擎指标
type Metrics struct {
	RunDuration      *prometheus.HistogramVec
	RunsTotal        *prometheus.CounterVec
	RecordsProcessed prometheus.Counter
	IssuesTotal      *prometheus.CounterVec
	RulesRejected    prometheus.Counter
	Warnings         prometheus.Counter
}

// NewMetrics 创建并注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dataquality_analysis_duration_seconds",
				Help:    "Data quality analysis duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"status"},
		),
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataquality_analysis_runs_total",
				Help: "Total number of data quality analysis runs",
			},
			[]string{"status"},
		),
		RecordsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dataquality_records_processed_total",
				Help: "Total records evaluated by the analysis engine",
			},
		),
		IssuesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataquality_issues_total",
				Help: "Total issues reported, by priority and kind",
			},
			[]string{"priority", "kind"},
		),
		RulesRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dataquality_rules_rejected_total",
				Help: "Total custom rules rejected at load time",
			},
		),
		Warnings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dataquality_evaluation_warnings_total",
				Help: "Total evaluation warnings",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RunDuration, m.RunsTotal, m.RecordsProcessed, m.IssuesTotal, m.RulesRejected, m.Warnings)
	}
	return m
}

// observe 记录一次分析结果，status 为 complete / cancelled / failed
func (m *Metrics) observe(status string, report *QualityReport, seconds float64) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.WithLabelValues(status).Observe(seconds)
	if report == nil {
		return
	}
	m.RecordsProcessed.Add(float64(report.TotalRecords))
	for _, issue := range report.Issues {
		m.IssuesTotal.WithLabelValues(string(issue.Priority), string(issue.Kind)).Inc()
	}
	m.RulesRejected.Add(float64(len(report.Rejected)))
	m.Warnings.Add(float64(len(report.Warnings)))
}
