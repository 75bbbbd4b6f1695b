package verdict

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

func TestDerive_ThresholdNoneAlwaysNeutral(t *testing.T) {
	policy := model.RepoPolicy{FailureOnSeverity: model.SeverityNone}
	findings := []model.Finding{{Priority: 0}}
	assert.Equal(t, ConclusionNeutral, Derive(findings, policy))
}

func TestDerive_ThresholdMediumWithMediumFindingFails(t *testing.T) {
	policy := model.RepoPolicy{FailureOnSeverity: model.SeverityMedium}
	findings := []model.Finding{{Priority: 1}}
	assert.Equal(t, ConclusionFailure, Derive(findings, policy))
}

func TestDerive_ThresholdHighWithOnlyMediumFindingsNotFailure(t *testing.T) {
	policy := model.RepoPolicy{FailureOnSeverity: model.SeverityHigh}
	findings := []model.Finding{{Priority: 1}, {Priority: 1}}
	assert.NotEqual(t, ConclusionFailure, Derive(findings, policy))
}

func TestDerive_NoFindingsIsNeutral(t *testing.T) {
	policy := model.RepoPolicy{FailureOnSeverity: model.SeverityLow}
	assert.Equal(t, ConclusionNeutral, Derive(nil, policy))
}
