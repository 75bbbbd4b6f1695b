package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

func strPtr(s string) *string { return &s }

func TestIsSensitivePath(t *testing.T) {
	assert.True(t, IsSensitivePath("config/.env"))
	assert.True(t, IsSensitivePath("deploy/secrets.yaml"))
	assert.True(t, IsSensitivePath("keys/id_rsa"))
	assert.False(t, IsSensitivePath("internal/model/review.go"))
}

func TestFindings_ClearsPatchAndRewritesSecurityMessage(t *testing.T) {
	findings := []model.Finding{
		{
			File:           "config/.env",
			Type:           model.FindingSecurity,
			Message:        "leaked API_KEY=abc123",
			SuggestedPatch: strPtr("- API_KEY=abc123\n+ API_KEY=REDACTED"),
		},
	}

	out := sanitizeAndRequire(t, findings)
	assert.Nil(t, out[0].SuggestedPatch)
	assert.Equal(t, CanonicalRemediationText, out[0].Message)
}

func TestFindings_NonSecuritySensitiveFileOnlyClearsPatch(t *testing.T) {
	findings := []model.Finding{
		{File: ".env", Type: model.FindingStyle, Message: "formatting nit", SuggestedPatch: strPtr("diff")},
	}
	out := sanitizeAndRequire(t, findings)
	assert.Nil(t, out[0].SuggestedPatch)
	assert.Equal(t, "formatting nit", out[0].Message)
}

func TestFindings_NonSensitiveUntouched(t *testing.T) {
	findings := []model.Finding{
		{File: "main.go", Type: model.FindingBug, Message: "nil deref", SuggestedPatch: strPtr("diff")},
	}
	out := sanitizeAndRequire(t, findings)
	require.NotNil(t, out[0].SuggestedPatch)
}

func sanitizeAndRequire(t *testing.T, in []model.Finding) []model.Finding {
	t.Helper()
	return Findings(in)
}
