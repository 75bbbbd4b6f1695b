package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/spf13/cobra"

	"github.com/nchouser54/ai-pr-reviewer/internal/patchapply"
)

func newApplyCommand() *cobra.Command {
	var repoPath string
	var targetFile string
	var patchPath string
	var commit bool
	var commitMessage string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a suggested patch to a file in a local checkout",
		RunE: func(cmd *cobra.Command, args []string) error {
			patchBytes, err := readPayload(patchPath)
			if err != nil {
				return fmt.Errorf("read patch: %w", err)
			}

			absTarget := filepath.Join(repoPath, targetFile)
			original, err := os.ReadFile(absTarget)
			if err != nil {
				return fmt.Errorf("read target file: %w", err)
			}

			patched, err := patchapply.Apply(string(original), string(patchBytes))
			if err != nil {
				return fmt.Errorf("apply patch to %s: %w", targetFile, err)
			}

			if err := os.WriteFile(absTarget, []byte(patched), 0o644); err != nil {
				return fmt.Errorf("write target file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "applied patch to %s\n", targetFile)

			if !commit {
				return nil
			}
			return commitChange(repoPath, targetFile, commitMessage, cmd)
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the local git repository")
	cmd.Flags().StringVar(&targetFile, "file", "", "path of the file to patch, relative to --repo")
	cmd.Flags().StringVar(&patchPath, "patch", "", "path to the unified diff to apply (- for stdin)")
	cmd.Flags().BoolVar(&commit, "commit", false, "stage and commit the patched file")
	cmd.Flags().StringVar(&commitMessage, "message", "apply suggested patch", "commit message when --commit is set")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("patch")
	return cmd
}

func commitChange(repoPath, targetFile, message string, cmd *cobra.Command) error {
	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return fmt.Errorf("open repo: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if _, err := wt.Add(targetFile); err != nil {
		return fmt.Errorf("stage %s: %w", targetFile, err)
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "reviewctl",
			Email: "reviewctl@local",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "committed %s as %s\n", targetFile, hash.String())
	return nil
}
