// Package ghclient is a typed wrapper over the source-forge REST surface
// the dispatcher needs: pulls, files, commits, contents, issue comments,
// reviews, and check-runs.
package ghclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
	"golang.org/x/sync/errgroup"

	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

// Client is the subset of the forge API the worker dispatcher needs.
type Client interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (model.PullRequestMeta, string, error)
	ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFileEntry, error)
	GetFileContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error)
	CreatePullRequestReview(ctx context.Context, owner, repo string, number int, body string, event string, comments []ReviewComment) error
	CreateCheckRun(ctx context.Context, owner, repo, sha, name, conclusion, title, summary string) error
	CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error
	FetchConcurrently(ctx context.Context, owner, repo string, number int) ([]model.ChangedFileEntry, []*github.RepositoryCommit, error)
}

// ReviewComment is one inline review comment anchored by diff position.
type ReviewComment struct {
	Path     string
	Position int
	Body     string
}

type clientImpl struct {
	gh *github.Client
}

// NewClient builds a Client authenticated with an installation token.
func NewClient(installationToken string) Client {
	return &clientImpl{gh: github.NewClient(nil).WithAuthToken(installationToken)}
}

// NewClientWithGitHub wraps an existing *github.Client (used in tests
// against an httptest server).
func NewClientWithGitHub(gh *github.Client) Client {
	return &clientImpl{gh: gh}
}

func (c *clientImpl) GetPullRequest(ctx context.Context, owner, repo string, number int) (model.PullRequestMeta, string, error) {
	pr, _, err := c.gh.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return model.PullRequestMeta{}, "", err
	}
	meta := model.PullRequestMeta{
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		BaseRef:   pr.GetBase().GetRef(),
		HeadRef:   pr.GetHead().GetRef(),
		HeadSHA:   pr.GetHead().GetSHA(),
		Draft:     pr.GetDraft(),
		Author:    pr.GetUser().GetLogin(),
		Additions: pr.GetAdditions(),
		Deletions: pr.GetDeletions(),
	}
	return meta, pr.GetBase().GetRepo().GetDefaultBranch(), nil
}

func (c *clientImpl) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFileEntry, error) {
	var all []model.ChangedFileEntry
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, &github.ListOptions{Page: opts.Page, PerPage: opts.PerPage})
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			all = append(all, model.ChangedFileEntry{
				Filename:  f.GetFilename(),
				Status:    model.FileStatus(f.GetStatus()),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Changes:   f.GetChanges(),
				Patch:     f.GetPatch(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func (c *clientImpl) GetFileContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	fileContent, _, _, err := c.gh.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return nil, err
	}
	if fileContent == nil {
		return nil, fmt.Errorf("%s: not a file", path)
	}
	// GetContent decodes base64-encoded content itself.
	content, err := fileContent.GetContent()
	return []byte(content), err
}

func (c *clientImpl) CreatePullRequestReview(ctx context.Context, owner, repo string, number int, body string, event string, comments []ReviewComment) error {
	var ghComments []*github.DraftReviewComment
	for _, rc := range comments {
		ghComments = append(ghComments, &github.DraftReviewComment{
			Path:     github.Ptr(rc.Path),
			Position: github.Ptr(rc.Position),
			Body:     github.Ptr(rc.Body),
		})
	}
	_, _, err := c.gh.PullRequests.CreateReview(ctx, owner, repo, number, &github.PullRequestReviewRequest{
		Body:     github.Ptr(body),
		Event:    github.Ptr(event),
		Comments: ghComments,
	})
	return err
}

func (c *clientImpl) CreateCheckRun(ctx context.Context, owner, repo, sha, name, conclusion, title, summary string) error {
	opts := github.CreateCheckRunOptions{
		Name:       name,
		HeadSHA:    sha,
		Status:     github.Ptr("completed"),
		Conclusion: github.Ptr(conclusion),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr(title),
			Summary: github.Ptr(summary),
		},
	}
	_, _, err := c.gh.Checks.CreateCheckRun(ctx, owner, repo, opts)
	return err
}

func (c *clientImpl) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, owner, repo, number, &github.IssueComment{Body: github.Ptr(body)})
	return err
}

// FetchConcurrently fetches PR files and PR commits in parallel via
// errgroup, bounded to two goroutines. The dispatcher calls it for every
// message and uses only the files; commits are the first page of up to 100.
func (c *clientImpl) FetchConcurrently(ctx context.Context, owner, repo string, number int) ([]model.ChangedFileEntry, []*github.RepositoryCommit, error) {
	var files []model.ChangedFileEntry
	var commits []*github.RepositoryCommit

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		files, err = c.ListPullRequestFiles(gctx, owner, repo, number)
		return err
	})
	g.Go(func() error {
		cs, _, err := c.gh.PullRequests.ListCommits(gctx, owner, repo, number, &github.ListOptions{PerPage: 100})
		commits = cs
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return files, commits, nil
}

// graphqlRequest posts a GraphQL query and checks only the HTTP status.
// Nothing in the module calls it; neither the worker dispatcher nor
// cmd/reviewctl transitions draft state.
func graphqlRequest(ctx context.Context, gh *github.Client, token, query string, variables map[string]string) error {
	payload := map[string]any{"query": query, "variables": variables}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := "https://api.github.com/graphql"
	if base := gh.BaseURL.String(); base != "" && base != "https://api.github.com/" {
		url = base + "graphql"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql returned HTTP %d", resp.StatusCode)
	}
	return nil
}
