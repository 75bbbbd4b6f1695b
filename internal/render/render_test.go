package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/verdict"
)

func TestCheckRunBody_ContainsSummary(t *testing.T) {
	review := model.Review{Summary: "Looks good", OverallRisk: model.RiskLow}
	body := CheckRunBody(review, verdict.ConclusionNeutral)
	assert.Contains(t, body, "Summary")
	assert.Contains(t, body, "Looks good")
}

func TestCheckRunBody_GroupsFindingsByPriority(t *testing.T) {
	start := 10
	review := model.Review{
		Summary: "x",
		Findings: []model.Finding{
			{Priority: 0, Type: model.FindingSecurity, File: "a.go", StartLine: &start, Message: "critical issue"},
			{Priority: 2, Type: model.FindingStyle, File: "b.go", Message: "nit"},
		},
	}
	body := CheckRunBody(review, verdict.ConclusionFailure)
	assert.Contains(t, body, "Critical")
	assert.Contains(t, body, "a.go:10")
	assert.Contains(t, body, "Minor")
}

func TestCheckRunBody_TruncatesAtByteBoundary(t *testing.T) {
	review := model.Review{Summary: strings.Repeat("a", 100_000)}
	body := CheckRunBody(review, verdict.ConclusionNeutral)
	require.LessOrEqual(t, len(body), maxBodyBytes)
	assert.Contains(t, body, "[Output truncated")
}

func TestErrorBody_NoStackTrace(t *testing.T) {
	body := ErrorBody("planner", "schema validation failed")
	assert.Contains(t, body, "Review Incomplete")
	assert.NotContains(t, body, "goroutine")
}
