package contextbuilder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

func TestBuild_SortsByDescendingChanges(t *testing.T) {
	files := []model.ChangedFileEntry{
		{Filename: "small.go", Changes: 2, Patch: "x"},
		{Filename: "big.go", Changes: 50, Patch: "y"},
	}
	res := Build(model.PullRequestMeta{}, files, nil, DefaultBudgets())
	require.Len(t, res.ReviewedFiles, 2)
	assert.Equal(t, "big.go", res.ReviewedFiles[0].Filename)
}

func TestBuild_SkipsSensitivePath(t *testing.T) {
	files := []model.ChangedFileEntry{{Filename: "config/.env", Changes: 5, Patch: "x"}}
	res := Build(model.PullRequestMeta{}, files, nil, DefaultBudgets())
	require.Len(t, res.SkippedFiles, 1)
	assert.Equal(t, "sensitive_path", res.SkippedFiles[0].Reason)
}

func TestBuild_SkipsExcludedPattern(t *testing.T) {
	files := []model.ChangedFileEntry{{Filename: "package-lock.json", Changes: 5, Patch: "x"}}
	res := Build(model.PullRequestMeta{}, files, nil, DefaultBudgets())
	require.Len(t, res.SkippedFiles, 1)
	assert.Equal(t, "excluded_pattern", res.SkippedFiles[0].Reason)
}

func TestBuild_ClipsOversizedPatch(t *testing.T) {
	budgets := DefaultBudgets()
	budgets.MaxDiffBytes = 8000
	budgets.LargePatchPolicy = PolicyClip
	budgets.MaxTotalDiff = 8000 * 30

	big := strings.Repeat("x", 50_000)
	files := []model.ChangedFileEntry{{Filename: "huge.go", Changes: 500, Patch: big}}

	res := Build(model.PullRequestMeta{}, files, nil, budgets)
	require.Len(t, res.ReviewedFiles, 1)
	assert.True(t, res.ReviewedFiles[0].PatchTruncated)
	assert.Equal(t, 8000, len(res.ReviewedFiles[0].Patch))
	assert.NotEmpty(t, res.Context.TruncationNote)
}

func TestBuild_SkipsOversizedPatchUnderSkipPolicy(t *testing.T) {
	budgets := DefaultBudgets()
	budgets.LargePatchPolicy = PolicySkip
	files := []model.ChangedFileEntry{{Filename: "huge.go", Changes: 500, Patch: strings.Repeat("x", 9000)}}
	res := Build(model.PullRequestMeta{}, files, nil, budgets)
	assert.Empty(t, res.ReviewedFiles)
	require.Len(t, res.SkippedFiles, 1)
	assert.Equal(t, "patch_exceeds_per_file_budget", res.SkippedFiles[0].Reason)
}

func TestBuild_RespectsMaxReviewFiles(t *testing.T) {
	budgets := DefaultBudgets()
	budgets.MaxReviewFiles = 1
	files := []model.ChangedFileEntry{
		{Filename: "a.go", Changes: 10, Patch: "x"},
		{Filename: "b.go", Changes: 5, Patch: "y"},
	}
	res := Build(model.PullRequestMeta{}, files, nil, budgets)
	assert.Len(t, res.ReviewedFiles, 1)
	assert.Len(t, res.SkippedFiles, 1)
}

func TestBuild_TruncationNoteCapsAtFiveReasons(t *testing.T) {
	budgets := DefaultBudgets()
	var files []model.ChangedFileEntry
	for i := 0; i < 8; i++ {
		files = append(files, model.ChangedFileEntry{Filename: "secrets/" + string(rune('a'+i)) + ".yaml", Changes: 1, Patch: "x"})
	}
	res := Build(model.PullRequestMeta{}, files, nil, budgets)
	assert.Contains(t, res.Context.TruncationNote, "and 3 more")
}
