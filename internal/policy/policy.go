// Package policy loads the per-repo `.ai-reviewer.yml` configuration file
// from the PR's default branch.
package policy

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
)

const PolicyFilePath = ".ai-reviewer.yml"

// FileFetcher abstracts the forge call needed to read a file from a branch,
// so policy loading can be tested without a real forge client.
type FileFetcher interface {
	GetFileContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
}

// Load reads and parses the repo policy file from ref (typically the
// default branch). A missing file yields DefaultRepoPolicy; unknown YAML
// keys are ignored by construction since RepoPolicy only declares the keys
// it understands.
func Load(ctx context.Context, fetcher FileFetcher, owner, repo, ref string) (model.RepoPolicy, error) {
	raw, err := retry.Call(ctx, "forge.get_file_contents", retry.DefaultConfig(),
		func(ctx context.Context) ([]byte, error) {
			return fetcher.GetFileContents(ctx, owner, repo, PolicyFilePath, ref)
		},
		retry.RetryableGitHubError, nil,
	)
	if err != nil {
		return model.DefaultRepoPolicy(), nil
	}

	policy := model.DefaultRepoPolicy()
	if err := yaml.Unmarshal(raw, &policy); err != nil {
		return model.DefaultRepoPolicy(), err
	}
	return policy, nil
}
