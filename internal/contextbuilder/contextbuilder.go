// Package contextbuilder selects, prioritizes, clips, and annotates changed
// files under per-file, total, and file-count budgets.
package contextbuilder

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/sanitize"
)

// LargePatchPolicy controls how an oversized per-file patch is handled.
type LargePatchPolicy string

const (
	PolicyClip LargePatchPolicy = "clip"
	PolicySkip LargePatchPolicy = "skip"
)

// DefaultSkipPatterns mirrors the original system's lockfile / binary /
// build-artifact / vendor-tree exclusion set.
var DefaultSkipPatterns = []string{
	"*.lock", "package-lock.json", "yarn.lock", "pnpm-lock.yaml", "Cargo.lock", "go.sum",
	"*.min.js", "*.min.css", "*.map",
	"*.png", "*.jpg", "*.jpeg", "*.gif", "*.ico", "*.pdf", "*.zip", "*.tar.gz",
	"dist/*", "build/*", "vendor/*", "node_modules/*",
}

// Budgets bundles the size/count limits the selection algorithm enforces.
type Budgets struct {
	MaxReviewFiles   int
	MaxDiffBytes     int
	MaxTotalDiff     int
	LargePatchPolicy LargePatchPolicy
	SkipPatterns     []string
}

// DefaultBudgets matches the spec's MAX_REVIEW_FILES=30,
// MAX_DIFF_BYTES=8000, with MAX_TOTAL_DIFF_BYTES defaulting to their product.
func DefaultBudgets() Budgets {
	b := Budgets{
		MaxReviewFiles:   30,
		MaxDiffBytes:     8000,
		LargePatchPolicy: PolicyClip,
		SkipPatterns:     DefaultSkipPatterns,
	}
	b.MaxTotalDiff = b.MaxReviewFiles * b.MaxDiffBytes
	return b
}

// Result is the selection algorithm's output.
type Result struct {
	Context       model.PRContext
	ReviewedFiles []model.ChangedFileEntry
	SkippedFiles  []model.SkippedFile
}

// matchesAny ports the original system's _matches_any: an fnmatch-style
// glob check, with a plain substring fallback for patterns containing no
// glob metacharacters (so "vendor" matches "vendor/pkg/foo.go" even though
// it isn't a valid glob against the full path).
func matchesAny(patterns []string, filename string) bool {
	lower := strings.ToLower(filename)
	for _, p := range patterns {
		pl := strings.ToLower(p)
		if matched, _ := globMatch(pl, lower); matched {
			return true
		}
		if !strings.Contains(pl, "*") && strings.Contains(lower, pl) {
			return true
		}
	}
	return false
}

// globMatch is a small fnmatch-style matcher supporting '*' only, which is
// all DefaultSkipPatterns and repo-configured SKIP_PATTERNS use.
func globMatch(pattern, name string) (bool, error) {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, `.*`)
	re, err := regexp.Compile("^" + escaped + "$")
	if err != nil {
		return false, err
	}
	return re.MatchString(name), nil
}

// clipUTF8Safe truncates b to at most n bytes without splitting a multi-byte
// rune.
func clipUTF8Safe(s string, n int) string {
	if len(s) <= n {
		return s
	}
	b := s[:n]
	for len(b) > 0 && !utf8.ValidString(b) {
		b = b[:len(b)-1]
	}
	return b
}

// Build implements the selection algorithm of spec §4.4.
func Build(pr model.PullRequestMeta, files []model.ChangedFileEntry, jiraIssues []model.LinkedJiraIssue, budgets Budgets) Result {
	sorted := make([]model.ChangedFileEntry, len(files))
	copy(sorted, files)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Changes > sorted[j].Changes })

	var reviewed []model.ChangedFileEntry
	var skipped []model.SkippedFile
	totalBytes := 0

	for _, f := range sorted {
		if sanitize.IsSensitivePath(f.Filename) {
			skipped = append(skipped, model.SkippedFile{Filename: f.Filename, Reason: "sensitive_path"})
			continue
		}
		if matchesAny(budgets.SkipPatterns, f.Filename) {
			skipped = append(skipped, model.SkippedFile{Filename: f.Filename, Reason: "excluded_pattern"})
			continue
		}
		if len(reviewed) >= budgets.MaxReviewFiles {
			skipped = append(skipped, model.SkippedFile{Filename: f.Filename, Reason: "max_review_files_reached"})
			continue
		}

		patch := f.Patch
		truncated := false
		if len(patch) > budgets.MaxDiffBytes {
			if budgets.LargePatchPolicy == PolicySkip {
				skipped = append(skipped, model.SkippedFile{Filename: f.Filename, Reason: "patch_exceeds_per_file_budget"})
				continue
			}
			patch = clipUTF8Safe(patch, budgets.MaxDiffBytes)
			truncated = true
		}

		if totalBytes+len(patch) > budgets.MaxTotalDiff {
			skipped = append(skipped, model.SkippedFile{Filename: f.Filename, Reason: "total diff budget exhausted"})
			continue
		}

		entry := f
		entry.Patch = patch
		entry.PatchTruncated = truncated
		totalBytes += len(patch)
		reviewed = append(reviewed, entry)
	}

	note := buildTruncationNote(skipped)

	ctx := model.PRContext{
		PullRequest:      pr,
		ChangedFiles:     reviewed,
		LinkedJiraIssues: jiraIssues,
		TruncationNote:   note,
	}

	return Result{Context: ctx, ReviewedFiles: reviewed, SkippedFiles: skipped}
}

func buildTruncationNote(skipped []model.SkippedFile) string {
	if len(skipped) == 0 {
		return ""
	}
	shown := skipped
	more := 0
	if len(shown) > 5 {
		more = len(shown) - 5
		shown = shown[:5]
	}
	var b strings.Builder
	b.WriteString("Some files were excluded from review: ")
	for i, s := range shown {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%s (%s)", s.Filename, s.Reason))
	}
	if more > 0 {
		b.WriteString(fmt.Sprintf(" (and %d more)", more))
	}
	return b.String()
}
