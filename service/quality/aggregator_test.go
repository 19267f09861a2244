package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateOrderingAndCounts(t *testing.T) {
	records := []Record{{Subject: "S2"}, {Subject: "S1"}, {Subject: "S1", Event: "followup"}, {Subject: "S9"}}

	first := newCollector()
	first.add(Issue{Subject: "S2", Field: "b", Kind: IssueComparison, Priority: PriorityLow})
	first.add(Issue{Subject: "S2", Field: "a", Kind: IssueTypeMismatch, Priority: PriorityHigh})
	first.warn(EvaluationWarning{Subject: "S2", Field: "z", Reason: "x"})

	second := newCollector()
	second.add(Issue{Subject: "S1", Field: "b", Kind: IssueRegex, Priority: PriorityMedium})
	second.add(Issue{Subject: "S1", Field: "a", Kind: IssueRegex, Priority: PriorityMedium})
	second.warn(EvaluationWarning{Subject: "S1", Field: "y", Reason: "x"})

	third := newCollector()
	third.add(Issue{Subject: "S1", Event: "followup", Field: "a", Kind: IssueRegex, Priority: PriorityMedium})

	// 最后一条记录未处理（取消）
	report := aggregate(records, []*collector{first, second, third, nil})

	require.Len(t, report.Issues, 5)
	got := make([][3]string, 0, len(report.Issues))
	for _, issue := range report.Issues {
		got = append(got, [3]string{string(issue.Priority), issue.Subject, issue.Field + "@" + issue.Event})
	}
	assert.Equal(t, [][3]string{
		{"High", "S2", "a@"},
		{"Medium", "S1", "a@"},
		{"Medium", "S1", "a@followup"},
		{"Medium", "S1", "b@"},
		{"Low", "S2", "b@"},
	}, got)

	assert.Equal(t, PriorityCounts{High: 1, Medium: 3, Low: 1}, report.Counts)
	assert.Equal(t, 5, report.Counts.Total())
	assert.Equal(t, 3, report.TotalRecords)
	assert.Equal(t, 2, report.TotalSubjects)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, "S1", report.Warnings[0].Subject)

	require.NotEmpty(t, report.Summary.TopKinds)
	assert.Equal(t, RankedCount{Name: string(IssueRegex), Count: 3}, report.Summary.TopKinds[0])
	assert.Equal(t, RankedCount{Name: "a", Count: 3}, report.Summary.TopFields[0])
}

func TestMergeIssue(t *testing.T) {
	c := newCollector()
	c.add(Issue{Subject: "S1", Event: "E1", Field: "F1", Kind: IssueComparison, Priority: PriorityLow, Description: "x", RuleIDs: []string{"r1"}})
	c.add(Issue{Subject: "S1", Event: "E1", Field: "F1", Kind: IssueComparison, Priority: PriorityMedium, Description: "y", RuleIDs: []string{"r2"}})
	c.add(Issue{Subject: "S1", Event: "E1", Field: "F1", Kind: IssueComparison, Priority: PriorityLow, Description: "x", RuleIDs: []string{"r1"}})
	c.add(Issue{Subject: "S1", Event: "E1", Field: "F1", Kind: IssueRegex, Priority: PriorityLow})

	require.Len(t, c.issues, 2)
	assert.Equal(t, PriorityMedium, c.issues[0].Priority)
	assert.Equal(t, "x; y", c.issues[0].Description)
	assert.Equal(t, []string{"r1", "r2"}, c.issues[0].RuleIDs)
}

func TestTopNTieBreak(t *testing.T) {
	ranked := topN(map[string]int{"b": 2, "a": 2, "c": 5, "d": 1, "e": 1, "f": 1}, 4)
	assert.Equal(t, []RankedCount{{"c", 5}, {"a", 2}, {"b", 2}, {"d", 1}}, ranked)
}
