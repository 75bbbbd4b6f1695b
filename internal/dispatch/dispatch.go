// Package dispatch implements the worker's per-message pipeline: claim,
// fetch, build context, run the two-stage LLM review, sanitize, derive a
// verdict, and post it back to the forge. It is the single place that
// wires every other internal package together.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/nchouser54/ai-pr-reviewer/internal/awsx/queue"
	"github.com/nchouser54/ai-pr-reviewer/internal/breaker"
	"github.com/nchouser54/ai-pr-reviewer/internal/contextbuilder"
	"github.com/nchouser54/ai-pr-reviewer/internal/diffmap"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghclient"
	"github.com/nchouser54/ai-pr-reviewer/internal/idempotency"
	"github.com/nchouser54/ai-pr-reviewer/internal/llm"
	"github.com/nchouser54/ai-pr-reviewer/internal/logging"
	"github.com/nchouser54/ai-pr-reviewer/internal/metrics"
	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/notify"
	"github.com/nchouser54/ai-pr-reviewer/internal/policy"
	"github.com/nchouser54/ai-pr-reviewer/internal/render"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
	"github.com/nchouser54/ai-pr-reviewer/internal/sanitize"
	"github.com/nchouser54/ai-pr-reviewer/internal/verdict"
)

// ForgeAuth mints per-installation GitHub clients for a dispatched event.
type ForgeAuth interface {
	GetInstallationToken(ctx context.Context, installationIDOverride int64) (string, error)
}

// NewClientFunc builds a forge client from an installation token, indirected
// so tests can substitute an httptest-backed client.
type NewClientFunc func(installationToken string) ghclient.Client

// Dependencies bundles everything the dispatcher needs to process one
// CanonicalEvent. It is constructed once per process and threaded through
// every invocation, matching the teacher's single-construction dependency
// wiring style.
type Dependencies struct {
	Auth        ForgeAuth
	NewClient   NewClientFunc
	Guard       idempotency.Guard
	Planner     llm.Runtime
	Reviewer    llm.Runtime
	ForgeBreaker    *gobreaker.CircuitBreaker
	PlannerBreaker  *gobreaker.CircuitBreaker
	ReviewerBreaker *gobreaker.CircuitBreaker
	Metrics     metrics.Sink
	Notifier    *notify.Notifier
	Logger      *zap.Logger
	CheckRunName string
	Budgets     contextbuilder.Budgets
}

// prFetchResult bundles GetPullRequest's two return values so it can flow
// through the single-type breaker.Do/retry.Call envelopes.
type prFetchResult struct {
	meta          model.PullRequestMeta
	defaultBranch string
}

var jiraKeyRE = regexp.MustCompile(`\b[A-Z][A-Z0-9_]+-\d+\b`)

func extractJiraKeys(title, body string) []model.LinkedJiraIssue {
	seen := map[string]struct{}{}
	var out []model.LinkedJiraIssue
	for _, m := range jiraKeyRE.FindAllString(title+" "+body, -1) {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, model.LinkedJiraIssue{Key: m})
	}
	return out
}

func splitRepo(repoFullName string) (owner, repo string, err error) {
	parts := strings.SplitN(repoFullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo_full_name %q", repoFullName)
	}
	return parts[0], parts[1], nil
}

// skipDecision reports whether the PR should be skipped outright under repo
// policy, and why.
func skipDecision(pr model.PullRequestMeta, p model.RepoPolicy) (bool, string) {
	if pr.Draft && p.SkipDraftPRs && !p.ReviewDrafts {
		return true, "draft_pr"
	}
	for _, b := range p.SkipBranches {
		if pr.BaseRef == b || pr.HeadRef == b {
			return true, "skip_branch"
		}
	}
	for _, a := range p.SkipAuthors {
		if pr.Author == a {
			return true, "skip_author"
		}
	}
	return false, ""
}

// Handle runs the full 11-step dispatch pipeline for a single record's
// canonical event, returning a KindedError classifying any failure so the
// caller (cmd/worker) can decide retry vs. batch-item-failure reporting.
func (d *Dependencies) Handle(ctx context.Context, rec queue.Record) error {
	start := time.Now()

	var evt model.CanonicalEvent
	if err := json.Unmarshal([]byte(rec.Body), &evt); err != nil {
		return model.Wrap(model.ErrValidation, err, "decode canonical event")
	}

	log := logging.WithCorrelation(d.Logger, evt.DeliveryID, evt.RepoFullName, evt.PRNumber, evt.HeadSHA, evt.CorrelationID())
	log.Info("dispatch started", zap.String("trigger", string(evt.Trigger)))

	owner, repoName, err := splitRepo(evt.RepoFullName)
	if err != nil {
		return model.Wrap(model.ErrValidation, err, "split repo_full_name")
	}

	// Step 2: idempotency claim. A conflict is a deliberate no-op, not a
	// failure — another worker (or a prior delivery) already owns this
	// (repo, pr, sha).
	claimed, err := d.Guard.Claim(ctx, evt.DedupKey(), idempotency.DefaultTTL)
	if err != nil {
		return model.Wrap(model.ErrTransient, err, "idempotency claim")
	}
	if !claimed {
		d.Metrics.IncCounter(ctx, metrics.MetricIdempotencyConflicts, map[string]string{"repo": evt.RepoFullName})
		log.Info("idempotency conflict, skipping", zap.String("dedup_key", evt.DedupKey()))
		return nil
	}

	// Step 3: forge auth + PR/files fetch.
	token, err := d.Auth.GetInstallationToken(ctx, evt.InstallationID)
	if err != nil {
		return model.Wrap(model.ErrAuth, err, "installation token exchange")
	}
	client := d.NewClient(token)

	fetched, err := breaker.Do(d.ForgeBreaker, func(ctx context.Context) (prFetchResult, error) {
		return retry.Call(ctx, "forge.get_pull_request", retry.DefaultConfig(),
			func(ctx context.Context) (prFetchResult, error) {
				meta, defaultBranch, err := client.GetPullRequest(ctx, owner, repoName, evt.PRNumber)
				return prFetchResult{meta: meta, defaultBranch: defaultBranch}, err
			},
			retry.RetryableGitHubError, nil,
		)
	}, ctx)
	if err != nil {
		return model.Wrap(model.ErrTransient, err, "fetch pull request")
	}
	pr, defaultBranch := fetched.meta, fetched.defaultBranch

	files, err := retry.Call(ctx, "forge.fetch_pull_request_files", retry.DefaultConfig(),
		func(ctx context.Context) ([]model.ChangedFileEntry, error) {
			files, _, err := client.FetchConcurrently(ctx, owner, repoName, evt.PRNumber)
			return files, err
		},
		retry.RetryableGitHubError, nil,
	)
	if err != nil {
		return model.Wrap(model.ErrTransient, err, "fetch pull request files")
	}

	// Step 4: repo policy load, from the default branch, never the PR head
	// (so a malicious PR cannot relax its own review policy).
	repoPolicy, err := policy.Load(ctx, client, owner, repoName, defaultBranch)
	if err != nil {
		log.Warn("repo policy load failed, using defaults", zap.Error(err))
		repoPolicy = model.DefaultRepoPolicy()
	}

	// Step 5: skip-policy evaluation, bypassed for manual and rerun triggers.
	if evt.Trigger == model.TriggerAuto {
		if skip, reason := skipDecision(pr, repoPolicy); skip {
			log.Info("skipping per repo policy", zap.String("reason", reason))
			return nil
		}
	}

	// Step 6: context build.
	jiraIssues := extractJiraKeys(pr.Title, pr.Body)
	built := contextbuilder.Build(pr, files, jiraIssues, d.Budgets)

	// Step 7: planner invoke. A malformed plan is never a system failure —
	// it degrades to a neutral check-run describing the incomplete review.
	plan, err := breaker.Do(d.PlannerBreaker, func(ctx context.Context) (model.TriagePlan, error) {
		return llm.InvokePlanner(ctx, d.Planner, built.Context, llm.DefaultPlannerMaxTokens)
	}, ctx)
	if err != nil {
		return d.postIncomplete(ctx, client, owner, repoName, evt, "planning", err, log)
	}

	// Step 8: reviewer invoke, same malformed-output contract as the planner.
	review, err := breaker.Do(d.ReviewerBreaker, func(ctx context.Context) (model.Review, error) {
		return llm.InvokeReviewer(ctx, d.Reviewer, built.Context, plan, llm.DefaultReviewerMaxTokens)
	}, ctx)
	if err != nil {
		return d.postIncomplete(ctx, client, owner, repoName, evt, "review", err, log)
	}

	// Step 9: sanitize sensitive-path findings, then cap to num_max_findings.
	findings := sanitize.Findings(review.Findings)
	if repoPolicy.NumMaxFindings > 0 && len(findings) > repoPolicy.NumMaxFindings {
		findings = findings[:repoPolicy.NumMaxFindings]
	}
	review.Findings = findings

	// Step 10: derive verdict, render, and post.
	conclusion := verdict.Derive(findings, repoPolicy)
	body := render.CheckRunBody(review, conclusion)

	checkRunName := d.CheckRunName
	if checkRunName == "" {
		checkRunName = "ai-pr-review"
	}
	_, err = retry.Call(ctx, "forge.create_check_run", retry.DefaultConfig(),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, client.CreateCheckRun(ctx, owner, repoName, evt.HeadSHA, checkRunName, string(conclusion), review.Summary, body)
		},
		retry.RetryableGitHubError, nil,
	)
	if err != nil {
		return model.Wrap(model.ErrTransient, err, "create check run")
	}

	if repoPolicy.PostReviewComment {
		if err := d.postReview(ctx, client, owner, repoName, evt, findings, files, repoPolicy, body); err != nil {
			log.Warn("post review comment failed", zap.Error(err))
		}
	}

	// Step 11: metrics.
	d.Metrics.IncCounter(ctx, metrics.MetricReviewsSuccess, map[string]string{"repo": evt.RepoFullName})
	d.Metrics.ObserveDuration(ctx, metrics.MetricReviewDurationMs, time.Since(start).Seconds(), map[string]string{"repo": evt.RepoFullName})
	log.Info("dispatch completed", zap.String("conclusion", string(conclusion)), zap.Int("findings", len(findings)))
	return nil
}

// postIncomplete posts a neutral check-run describing a pipeline failure at
// stage, and returns the original error classified for the caller.
func (d *Dependencies) postIncomplete(ctx context.Context, client ghclient.Client, owner, repoName string, evt model.CanonicalEvent, stage string, cause error, log *zap.Logger) error {
	kind := model.ErrTransient
	var validationErrs validator.ValidationErrors
	if errors.Is(cause, llm.ErrParse) || errors.As(cause, &validationErrs) || model.KindOf(cause) == model.ErrValidation {
		kind = model.ErrValidation
	}

	body := render.ErrorBody(stage, cause.Error())
	checkRunName := d.CheckRunName
	if checkRunName == "" {
		checkRunName = "ai-pr-review"
	}
	_, postErr := retry.Call(ctx, "forge.create_check_run", retry.DefaultConfig(),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, client.CreateCheckRun(ctx, owner, repoName, evt.HeadSHA, checkRunName, "neutral", "Review Incomplete", body)
		},
		retry.RetryableGitHubError, nil,
	)
	if postErr != nil {
		log.Error("failed to post incomplete check run", zap.Error(postErr))
	}

	d.Metrics.IncCounter(ctx, metrics.MetricReviewsFailed, map[string]string{"repo": evt.RepoFullName, "stage": stage})
	if kind == model.ErrTransient && d.Notifier != nil {
		d.Notifier.Notify(ctx, fmt.Sprintf("review pipeline transient failure at %s stage for %s#%d: %v", stage, evt.RepoFullName, evt.PRNumber, cause))
	}
	return model.Wrap(kind, cause, stage+" stage")
}

// postReview attaches inline review comments where a finding's line maps
// into the file's diff, falling back to a summary-only review when it does
// not (or when policy requires summary-only).
func (d *Dependencies) postReview(ctx context.Context, client ghclient.Client, owner, repoName string, evt model.CanonicalEvent, findings []model.Finding, files []model.ChangedFileEntry, p model.RepoPolicy, body string) error {
	patchByFile := make(map[string]string, len(files))
	for _, f := range files {
		patchByFile[f.Filename] = f.Patch
	}

	var comments []ghclient.ReviewComment
	if p.ReviewCommentMode != model.ModeSummaryOnly {
		for _, f := range findings {
			if f.StartLine == nil {
				continue
			}
			patch, ok := patchByFile[f.File]
			if !ok {
				continue
			}
			pos, ok := diffmap.MapNewLineToPosition(patch, *f.StartLine)
			if !ok {
				if p.ReviewCommentMode == model.ModeStrictInline {
					continue
				}
				continue
			}
			comments = append(comments, ghclient.ReviewComment{Path: f.File, Position: pos, Body: f.Message})
		}
	}

	_, err := retry.Call(ctx, "forge.create_pull_request_review", retry.DefaultConfig(),
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, client.CreatePullRequestReview(ctx, owner, repoName, evt.PRNumber, body, "COMMENT", comments)
		},
		retry.RetryableGitHubError, nil,
	)
	return err
}
