/*
 * @module service/quality/aggregator
 * @description 结果汇总：按记录顺序合并各 worker 的私有缓冲区，去重、排序并计算统计摘要
 * @architecture 扇出/扇入 - 汇总阶段
 * @documentReference ai_docs/data_quality_engine.md
 * @stateFlow 每条记录的收集器 -> 合并去重 -> 全序排序 -> 计数与摘要
 * @rules 排序键固定为 (优先级, 受试者, 字段, 事件, 问题类型)，相同输入输出顺序完全一致
 * @dependencies sort
 * @refs engine.go, query_builder.go
 */

package quality

import (
	"sort"
)

const summaryTopN = 5

// aggregate 合并已处理记录的结果并生成报告主体；未处理的记录其收集器为 nil
func aggregate(records []Record, results []*collector) *QualityReport {
	merged := newCollector()
	processed := 0
	subjects := make(map[string]struct{})

	for i, c := range results {
		if c == nil {
			continue
		}
		processed++
		subjects[records[i].Subject] = struct{}{}
		for _, issue := range c.issues {
			merged.add(issue)
		}
		merged.warnings = append(merged.warnings, c.warnings...)
	}

	issues := merged.issues
	sortIssues(issues)
	sortWarnings(merged.warnings)

	report := &QualityReport{
		Issues:        issues,
		TotalRecords:  processed,
		TotalSubjects: len(subjects),
		Warnings:      merged.warnings,
	}
	if report.Issues == nil {
		report.Issues = []Issue{}
	}
	for _, issue := range issues {
		switch issue.Priority {
		case PriorityHigh:
			report.Counts.High++
		case PriorityMedium:
			report.Counts.Medium++
		case PriorityLow:
			report.Counts.Low++
		}
	}
	report.Summary = summarize(issues)
	return report
}

// sortIssues 全序排序
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Priority.rank() != b.Priority.rank() {
			return a.Priority.rank() < b.Priority.rank()
		}
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		return a.Kind < b.Kind
	})
}

func sortWarnings(warnings []EvaluationWarning) {
	sort.SliceStable(warnings, func(i, j int) bool {
		a, b := warnings[i], warnings[j]
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		if a.Event != b.Event {
			return a.Event < b.Event
		}
		if a.Field != b.Field {
			return a.Field < b.Field
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.Reason < b.Reason
	})
}

// summarize 统计最常见的问题类型和问题最多的字段
func summarize(issues []Issue) ReportSummary {
	kinds := make(map[string]int)
	fields := make(map[string]int)
	for _, issue := range issues {
		kinds[string(issue.Kind)]++
		fields[issue.Field]++
	}
	return ReportSummary{
		TopKinds:  topN(kinds, summaryTopN),
		TopFields: topN(fields, summaryTopN),
	}
}

func topN(counts map[string]int, n int) []RankedCount {
	ranked := make([]RankedCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, RankedCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
