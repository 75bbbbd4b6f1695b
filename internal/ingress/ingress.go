// Package ingress implements the webhook receiver: signature verification,
// replay-age rejection, event classification, delivery dedup, and
// enqueueing onto the review queue. It is shared between the API-Gateway
// Lambda entry point and a local net/http dev server.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nchouser54/ai-pr-reviewer/internal/awsx/queue"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghclient"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghevents"
	"github.com/nchouser54/ai-pr-reviewer/internal/idempotency"
	"github.com/nchouser54/ai-pr-reviewer/internal/metrics"
	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/retry"
	"github.com/nchouser54/ai-pr-reviewer/internal/signing"
)

// MaxBodyBytes caps an inbound webhook body, matching GitHub's own
// documented upper bound on delivery payload size.
const MaxBodyBytes = 25 * 1024 * 1024

// DefaultReplayMaxAge is the 5-minute replay window, the same as the
// 300-second default config.Load applies. Handle rejects a delivery whose
// RawRequest.DeliveredAt is older than Config.ReplayMaxAge, guarding against
// a replayed capture of a valid signed payload; a zero ReplayMaxAge disables
// the check.
const DefaultReplayMaxAge = 5 * time.Minute

// RawRequest is the transport-agnostic shape both the Lambda proxy adapter
// and the local dev server build from their respective native request types.
type RawRequest struct {
	EventType   string
	DeliveryID  string
	Signature   string
	Body        []byte
	DeliveredAt time.Time // zero value disables the replay-age check
}

// RawResponse is the transport-agnostic shape both entry points translate
// back into their native response type.
type RawResponse struct {
	StatusCode int
	Body       string
}

func respond(status int, format string, args ...any) RawResponse {
	return RawResponse{StatusCode: status, Body: fmt.Sprintf(format, args...)}
}

// DeliveryGuard dedups by delivery id alone (cheaper, coarser than the
// worker's per-(repo,pr,sha) idempotency claim) so a redelivered webhook
// never reaches the queue twice.
type DeliveryGuard = idempotency.Guard

// ForgeAuth mints a per-installation GitHub token so the receiver can look
// up a PR's current head SHA for triggers (manual /review comments) whose
// payload doesn't carry one.
type ForgeAuth interface {
	GetInstallationToken(ctx context.Context, installationIDOverride int64) (string, error)
}

// NewClientFunc builds a forge client from an installation token, indirected
// so tests can substitute a fake.
type NewClientFunc func(installationToken string) ghclient.Client

// Config carries the receiver's environment-configured knobs.
type Config struct {
	WebhookSecret string
	Events        ghevents.Config
	QueueURL      string
	ReplayMaxAge  time.Duration
}

// Receiver processes one inbound webhook delivery end to end.
type Receiver struct {
	Config    Config
	Guard     DeliveryGuard
	Queue     *queue.Client
	Auth      ForgeAuth
	NewClient NewClientFunc
	Metrics   metrics.Sink
	Logger    *zap.Logger
}

func splitRepo(repoFullName string) (owner, repo string, err error) {
	parts := strings.SplitN(repoFullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo_full_name %q", repoFullName)
	}
	return parts[0], parts[1], nil
}

type genericPayload struct {
	Action      string `json:"action"`
	Label       struct {
		Name string `json:"name"`
	} `json:"label"`
	PullRequest struct {
		Number int  `json:"number"`
		Draft  bool `json:"draft"`
		Head   struct {
			SHA string `json:"sha"`
			Ref string `json:"ref"`
		} `json:"head"`
		Base struct {
			Ref string `json:"ref"`
		} `json:"base"`
	} `json:"pull_request"`
	Issue struct {
		Number      int `json:"number"`
		PullRequest *struct{} `json:"pull_request"`
	} `json:"issue"`
	Comment struct {
		Body string `json:"body"`
	} `json:"comment"`
	CheckRun struct {
		Name   string `json:"name"`
		HeadSHA string `json:"head_sha"`
	} `json:"check_run"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	Installation struct {
		ID int64 `json:"id"`
	} `json:"installation"`
}

// Handle runs the full receiver pipeline and returns the HTTP-shaped
// response the caller should relay back to the forge.
func (r *Receiver) Handle(ctx context.Context, req RawRequest) RawResponse {
	if len(req.Body) > MaxBodyBytes {
		return respond(413, "payload too large")
	}

	if !signing.Verify(r.Config.WebhookSecret, req.Signature, req.Body) {
		r.Metrics.IncCounter(ctx, metrics.MetricWebhookRejected, map[string]string{"reason": "bad_signature"})
		return respond(401, "invalid signature")
	}

	maxAge := r.Config.ReplayMaxAge
	if maxAge > 0 && !req.DeliveredAt.IsZero() && time.Since(req.DeliveredAt) > maxAge {
		r.Metrics.IncCounter(ctx, metrics.MetricWebhookRejected, map[string]string{"reason": "replay_too_old"})
		return respond(400, "delivery too old")
	}

	if req.DeliveryID == "" {
		return respond(400, "missing delivery id")
	}

	claimed, err := r.Guard.Claim(ctx, "delivery:"+req.DeliveryID, idempotency.DefaultTTL)
	if err != nil {
		r.Logger.Error("delivery dedup claim failed", zap.Error(err))
		return respond(500, "internal error")
	}
	if !claimed {
		return respond(202, "duplicate delivery ignored")
	}

	var payload genericPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		r.Metrics.IncCounter(ctx, metrics.MetricWebhookRejected, map[string]string{"reason": "malformed_payload"})
		return respond(400, "malformed payload")
	}

	if !r.Config.Events.RepoAllowed(payload.Repository.FullName) {
		r.Metrics.IncCounter(ctx, metrics.MetricWebhookRejected, map[string]string{"reason": "repo_not_allowed"})
		return respond(202, "repo not allowed, ignored")
	}

	var classification ghevents.Classification
	var prNumber int
	var headSHA string
	var baseRef string

	switch req.EventType {
	case "pull_request":
		classification = ghevents.ClassifyPullRequest(r.Config.Events, payload.Action, payload.Label.Name)
		prNumber = payload.PullRequest.Number
		headSHA = payload.PullRequest.Head.SHA
		baseRef = payload.PullRequest.Base.Ref
	case "issue_comment":
		classification = ghevents.ClassifyIssueComment(r.Config.Events, payload.Action, payload.Issue.PullRequest != nil, payload.Comment.Body)
		prNumber = payload.Issue.Number
	case "check_run":
		classification = ghevents.ClassifyCheckRun(r.Config.Events, payload.Action, payload.CheckRun.Name)
		headSHA = payload.CheckRun.HeadSHA
	case "pull_request_review_comment":
		classification = ghevents.IgnorePullRequestReviewComment()
	default:
		classification = ghevents.Classification{Outcome: ghevents.OutcomeIgnore, Reason: "unhandled_event_type"}
	}

	if classification.Outcome != ghevents.OutcomeEnqueue {
		r.Logger.Info("ignoring event", zap.String("event_type", req.EventType), zap.String("reason", classification.Reason))
		return respond(202, "ignored: %s", classification.Reason)
	}

	if req.EventType == "issue_comment" {
		resolved, err := r.resolveHeadSHA(ctx, payload.Repository.FullName, payload.Installation.ID, prNumber)
		if err != nil {
			r.Logger.Error("failed to resolve pull request head sha", zap.Error(err))
			return respond(502, "failed to resolve pull request head sha")
		}
		headSHA = resolved
	}

	evt := model.CanonicalEvent{
		DeliveryID:     req.DeliveryID,
		RepoFullName:   payload.Repository.FullName,
		PRNumber:       prNumber,
		HeadSHA:        headSHA,
		InstallationID: payload.Installation.ID,
		EventAction:    payload.Action,
		Trigger:        model.Trigger(classification.Trigger),
		BaseRef:        baseRef,
	}

	body, err := json.Marshal(evt)
	if err != nil {
		r.Logger.Error("failed to marshal canonical event", zap.Error(err))
		return respond(500, "internal error")
	}

	if err := r.Queue.Enqueue(ctx, r.Config.QueueURL, evt, body); err != nil {
		r.Logger.Error("failed to enqueue canonical event", zap.Error(err))
		return respond(502, "enqueue failed")
	}

	r.Metrics.IncCounter(ctx, metrics.MetricWebhookAccepted, map[string]string{"repo": evt.RepoFullName, "trigger": string(evt.Trigger)})
	return respond(202, "accepted")
}

// resolveHeadSHA looks up a pull request's current head SHA via the forge
// API. Manual /review comment triggers carry no head SHA in their payload,
// and the worker's idempotency claim keys on (repo, pr, head_sha), so a
// stale or empty SHA here would let a second /review after a new push
// collide with an already-claimed key and be silently dropped.
func (r *Receiver) resolveHeadSHA(ctx context.Context, repoFullName string, installationID int64, prNumber int) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	token, err := r.Auth.GetInstallationToken(ctx, installationID)
	if err != nil {
		return "", err
	}
	client := r.NewClient(token)

	meta, err := retry.Call(ctx, "forge.get_pull_request", retry.DefaultConfig(),
		func(ctx context.Context) (model.PullRequestMeta, error) {
			meta, _, err := client.GetPullRequest(ctx, owner, repo, prNumber)
			return meta, err
		},
		retry.RetryableGitHubError, nil,
	)
	if err != nil {
		return "", err
	}
	return meta.HeadSHA, nil
}
