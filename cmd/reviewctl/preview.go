package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/nchouser54/ai-pr-reviewer/internal/contextbuilder"
	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

func newPreviewCommand() *cobra.Command {
	var repoPath string
	var baseRef string
	var headRef string

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview which changed files the context builder would select for a local diff",
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := diffFiles(repoPath, baseRef, headRef)
			if err != nil {
				return err
			}

			bar := newProgressBar(len(files), "scanning changed files")
			for range files {
				_ = bar.Add(1)
				time.Sleep(2 * time.Millisecond)
			}

			pr := model.PullRequestMeta{BaseRef: baseRef, HeadRef: headRef}
			result := contextbuilder.Build(pr, files, nil, contextbuilder.DefaultBudgets())

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n%s %d reviewed, %d skipped\n\n", color.GreenString("selection:"), len(result.ReviewedFiles), len(result.SkippedFiles))
			for _, f := range result.ReviewedFiles {
				fmt.Fprintf(out, "  %s %s (+%d/-%d)\n", color.GreenString("keep "), f.Filename, f.Additions, f.Deletions)
			}
			for _, s := range result.SkippedFiles {
				fmt.Fprintf(out, "  %s %s (%s)\n", color.YellowString("skip "), s.Filename, s.Reason)
			}
			if result.Context.TruncationNote != "" {
				fmt.Fprintf(out, "\n%s\n", color.New(color.Faint).Sprint(result.Context.TruncationNote))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the local git repository")
	cmd.Flags().StringVar(&baseRef, "base", "main", "base ref to diff against")
	cmd.Flags().StringVar(&headRef, "head", "HEAD", "head ref being reviewed")
	return cmd
}

func newProgressBar(count int, description string) *progressbar.ProgressBar {
	if !isatty.IsTerminal(0) {
		return progressbar.DefaultSilent(int64(count))
	}
	return progressbar.Default(int64(count), description)
}

// diffFiles computes the changed-file set between baseRef and headRef in the
// repository at repoPath, including a unified-diff-shaped patch per file
// built from go-git's line-level patch output.
func diffFiles(repoPath, baseRef, headRef string) ([]model.ChangedFileEntry, error) {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}

	baseCommit, err := resolveCommit(repo, baseRef)
	if err != nil {
		return nil, fmt.Errorf("resolve base ref %q: %w", baseRef, err)
	}
	headCommit, err := resolveCommit(repo, headRef)
	if err != nil {
		return nil, fmt.Errorf("resolve head ref %q: %w", headRef, err)
	}

	patch, err := baseCommit.Patch(headCommit)
	if err != nil {
		return nil, fmt.Errorf("diff %s..%s: %w", baseRef, headRef, err)
	}

	var out []model.ChangedFileEntry
	for _, fp := range patch.FilePatches() {
		from, to := fp.Files()
		filename := ""
		status := model.FileModified
		switch {
		case from == nil:
			filename = to.Path()
			status = model.FileAdded
		case to == nil:
			filename = from.Path()
			status = model.FileRemoved
		default:
			filename = to.Path()
		}

		var additions, deletions int
		var body strings.Builder
		for _, chunk := range fp.Chunks() {
			lines := strings.Split(strings.TrimSuffix(chunk.Content(), "\n"), "\n")
			for _, l := range lines {
				switch chunk.Type() {
				case 1: // Add
					additions++
					body.WriteString("+" + l + "\n")
				case 2: // Delete
					deletions++
					body.WriteString("-" + l + "\n")
				default:
					body.WriteString(" " + l + "\n")
				}
			}
		}

		out = append(out, model.ChangedFileEntry{
			Filename:  filename,
			Status:    status,
			Additions: additions,
			Deletions: deletions,
			Changes:   additions + deletions,
			Patch:     body.String(),
		})
	}

	return out, nil
}

func resolveCommit(repo *git.Repository, ref string) (*object.Commit, error) {
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, err
	}
	return repo.CommitObject(*hash)
}
