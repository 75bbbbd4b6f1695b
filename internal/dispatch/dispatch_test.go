package dispatch

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nchouser54/ai-pr-reviewer/internal/awsx/queue"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghclient"
	"github.com/nchouser54/ai-pr-reviewer/internal/llm"
	"github.com/nchouser54/ai-pr-reviewer/internal/logging"
	"github.com/nchouser54/ai-pr-reviewer/internal/metrics"
	"github.com/nchouser54/ai-pr-reviewer/internal/model"
)

type fakeAuth struct{}

func (fakeAuth) GetInstallationToken(ctx context.Context, installationIDOverride int64) (string, error) {
	return "fake-token", nil
}

type fakeGuard struct {
	claims map[string]bool
}

func (g *fakeGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if g.claims == nil {
		g.claims = map[string]bool{}
	}
	if g.claims[key] {
		return false, nil
	}
	g.claims[key] = true
	return true, nil
}

type fakeRuntime struct {
	response string
	err      error
}

func (r fakeRuntime) Invoke(ctx context.Context, req llm.Request) (string, error) {
	return r.response, r.err
}

type fakeForge struct {
	pr             model.PullRequestMeta
	defaultBranch  string
	files          []model.ChangedFileEntry
	checkRuns      []string
	checkSummaries []string
	reviews        int
}

func (f *fakeForge) GetPullRequest(ctx context.Context, owner, repo string, number int) (model.PullRequestMeta, string, error) {
	return f.pr, f.defaultBranch, nil
}
func (f *fakeForge) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]model.ChangedFileEntry, error) {
	return f.files, nil
}
func (f *fakeForge) GetFileContents(ctx context.Context, owner, repo, path, ref string) ([]byte, error) {
	return nil, assertNotFound{}
}
func (f *fakeForge) CreatePullRequestReview(ctx context.Context, owner, repo string, number int, body, event string, comments []ghclient.ReviewComment) error {
	f.reviews++
	return nil
}
func (f *fakeForge) CreateCheckRun(ctx context.Context, owner, repo, sha, name, conclusion, title, summary string) error {
	f.checkRuns = append(f.checkRuns, conclusion)
	f.checkSummaries = append(f.checkSummaries, summary)
	return nil
}
func (f *fakeForge) CreateIssueComment(ctx context.Context, owner, repo string, number int, body string) error {
	return nil
}
func (f *fakeForge) FetchConcurrently(ctx context.Context, owner, repo string, number int) ([]model.ChangedFileEntry, []*github.RepositoryCommit, error) {
	return f.files, nil, nil
}

type assertNotFound struct{}

func (assertNotFound) Error() string { return "not found" }

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{})
}

func buildRecord(t *testing.T, evt model.CanonicalEvent) queue.Record {
	t.Helper()
	body, err := json.Marshal(evt)
	require.NoError(t, err)
	return queue.Record{MessageID: "m1", Body: string(body)}
}

func TestHandle_SuccessfulReview(t *testing.T) {
	forge := &fakeForge{
		pr:            model.PullRequestMeta{Title: "Fix bug", Body: "", BaseRef: "main", HeadRef: "feature", Draft: false, Author: "alice"},
		defaultBranch: "main",
		files: []model.ChangedFileEntry{
			{Filename: "main.go", Status: model.FileModified, Changes: 10, Patch: "@@ -1,2 +1,3 @@\n line1\n+line2\n line3"},
		},
	}

	plan := model.TriagePlan{RiskRanking: []string{"main.go"}, OverallRiskEstimate: model.RiskLow}
	planBody, _ := json.Marshal(plan)

	review := model.Review{Summary: "Looks fine", OverallRisk: model.RiskLow}
	reviewBody, _ := json.Marshal(review)

	deps := &Dependencies{
		Auth:            fakeAuth{},
		NewClient:       func(string) ghclient.Client { return forge },
		Guard:           &fakeGuard{},
		Planner:         fakeRuntime{response: string(planBody)},
		Reviewer:        fakeRuntime{response: string(reviewBody)},
		ForgeBreaker:    newBreaker(),
		PlannerBreaker:  newBreaker(),
		ReviewerBreaker: newBreaker(),
		Metrics:         metrics.NoopSink{},
		Logger:          logging.New(),
	}

	evt := model.CanonicalEvent{
		DeliveryID: "d1", RepoFullName: "acme/widgets", PRNumber: 42,
		HeadSHA: "abc123", EventAction: "opened", Trigger: model.TriggerAuto,
	}

	err := deps.Handle(context.Background(), buildRecord(t, evt))
	require.NoError(t, err)
	require.Len(t, forge.checkRuns, 1)
	assert.Equal(t, "neutral", forge.checkRuns[0])
}

func TestHandle_IdempotencyConflictSkips(t *testing.T) {
	forge := &fakeForge{defaultBranch: "main"}
	guard := &fakeGuard{claims: map[string]bool{model.DedupKey("acme/widgets", 42, "abc123"): true}}

	deps := &Dependencies{
		Auth:            fakeAuth{},
		NewClient:       func(string) ghclient.Client { return forge },
		Guard:           guard,
		ForgeBreaker:    newBreaker(),
		PlannerBreaker:  newBreaker(),
		ReviewerBreaker: newBreaker(),
		Metrics:         metrics.NoopSink{},
		Logger:          logging.New(),
	}

	evt := model.CanonicalEvent{
		DeliveryID: "d1", RepoFullName: "acme/widgets", PRNumber: 42,
		HeadSHA: "abc123", EventAction: "opened", Trigger: model.TriggerAuto,
	}

	err := deps.Handle(context.Background(), buildRecord(t, evt))
	require.NoError(t, err)
	assert.Empty(t, forge.checkRuns, "claim conflict must not post anything")
}

func TestHandle_DraftPRSkippedUnderDefaultPolicy(t *testing.T) {
	forge := &fakeForge{
		pr:            model.PullRequestMeta{Draft: true, Author: "alice"},
		defaultBranch: "main",
	}

	deps := &Dependencies{
		Auth:            fakeAuth{},
		NewClient:       func(string) ghclient.Client { return forge },
		Guard:           &fakeGuard{},
		ForgeBreaker:    newBreaker(),
		PlannerBreaker:  newBreaker(),
		ReviewerBreaker: newBreaker(),
		Metrics:         metrics.NoopSink{},
		Logger:          logging.New(),
	}

	evt := model.CanonicalEvent{
		DeliveryID: "d1", RepoFullName: "acme/widgets", PRNumber: 7,
		HeadSHA: "sha1", EventAction: "opened", Trigger: model.TriggerAuto,
	}

	err := deps.Handle(context.Background(), buildRecord(t, evt))
	require.NoError(t, err)
	assert.Empty(t, forge.checkRuns)
}

func TestHandle_MalformedPlannerOutputYieldsNeutralIncomplete(t *testing.T) {
	forge := &fakeForge{pr: model.PullRequestMeta{Author: "alice"}, defaultBranch: "main"}

	deps := &Dependencies{
		Auth:            fakeAuth{},
		NewClient:       func(string) ghclient.Client { return forge },
		Guard:           &fakeGuard{},
		Planner:         fakeRuntime{response: "not json at all"},
		ForgeBreaker:    newBreaker(),
		PlannerBreaker:  newBreaker(),
		ReviewerBreaker: newBreaker(),
		Metrics:         metrics.NoopSink{},
		Logger:          logging.New(),
	}

	evt := model.CanonicalEvent{
		DeliveryID: "d1", RepoFullName: "acme/widgets", PRNumber: 9,
		HeadSHA: "sha2", EventAction: "opened", Trigger: model.TriggerAuto,
	}

	err := deps.Handle(context.Background(), buildRecord(t, evt))
	require.Error(t, err)
	assert.Equal(t, model.ErrValidation, model.KindOf(err))
	require.Len(t, forge.checkRuns, 1)
	assert.Equal(t, "neutral", forge.checkRuns[0])
}
