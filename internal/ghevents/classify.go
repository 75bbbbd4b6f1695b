// Package ghevents implements the canonical event classification matrix:
// mapping a raw forge webhook event + action to a canonical trigger, or a
// reason to ignore it.
package ghevents

import (
	"regexp"
	"strings"
)

// Outcome is the classifier's verdict for one inbound event.
type Outcome string

const (
	OutcomeEnqueue Outcome = "enqueue"
	OutcomeIgnore  Outcome = "ignore"
)

// DefaultTriggerPhrase is used when REVIEW_TRIGGER_PHRASE is unset.
const DefaultTriggerPhrase = "/review"

// Config carries the environment-configured knobs the classifier needs.
type Config struct {
	TriggerPhrase  string
	BotUsername    string
	TriggerLabels  map[string]struct{}
	CheckRunName   string
	AllowedRepos   map[string]struct{} // empty means "allow all"
}

// Classification is the result of classifying one event.
type Classification struct {
	Outcome Outcome
	Trigger string // "auto" | "manual" | "rerun"; empty when ignored
	Reason  string
}

func ignore(reason string) Classification {
	return Classification{Outcome: OutcomeIgnore, Reason: reason}
}

// RepoAllowed reports whether repoFullName passes the allow-list filter.
// An empty allow-list permits every repo.
func (c Config) RepoAllowed(repoFullName string) bool {
	if len(c.AllowedRepos) == 0 {
		return true
	}
	_, ok := c.AllowedRepos[repoFullName]
	return ok
}

var pullRequestAutoActions = map[string]struct{}{
	"opened":            {},
	"synchronize":       {},
	"reopened":          {},
	"ready_for_review":  {},
}

// ClassifyPullRequest implements the `pull_request` row of the matrix.
func ClassifyPullRequest(cfg Config, action string, appliedLabel string) Classification {
	if _, ok := pullRequestAutoActions[action]; ok {
		return Classification{Outcome: OutcomeEnqueue, Trigger: "auto"}
	}
	if action == "labeled" {
		if _, ok := cfg.TriggerLabels[appliedLabel]; ok {
			return Classification{Outcome: OutcomeEnqueue, Trigger: "auto"}
		}
		return ignore("label_not_in_trigger_set")
	}
	return ignore("unhandled_pull_request_action")
}

// ClassifyIssueComment implements the `issue_comment` row: a comment action
// of created/edited on a PR whose body contains the trigger phrase or an
// "@bot review" mention is a manual trigger.
func ClassifyIssueComment(cfg Config, action string, isPullRequest bool, commentBody string) Classification {
	if action != "created" && action != "edited" {
		return ignore("unhandled_issue_comment_action")
	}
	if !isPullRequest {
		return ignore("comment_not_on_pull_request")
	}
	if !IsManualTrigger(cfg, commentBody) {
		return ignore("no_trigger_phrase")
	}
	return Classification{Outcome: OutcomeEnqueue, Trigger: "manual"}
}

// ClassifyCheckRun implements the `check_run` row: only a `rerequested`
// action on the configured check name is a rerun trigger.
func ClassifyCheckRun(cfg Config, action, checkName string) Classification {
	if action != "rerequested" {
		return ignore("unhandled_check_run_action")
	}
	if cfg.CheckRunName != "" && checkName != cfg.CheckRunName {
		return ignore("check_run_name_mismatch")
	}
	return Classification{Outcome: OutcomeEnqueue, Trigger: "rerun"}
}

// IsManualTrigger reports whether body contains the configured trigger
// phrase (case-insensitive) or an "@<bot> review" mention.
func IsManualTrigger(cfg Config, body string) bool {
	phrase := cfg.TriggerPhrase
	if phrase == "" {
		phrase = DefaultTriggerPhrase
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, strings.ToLower(phrase)) {
		return true
	}
	if cfg.BotUsername == "" {
		return false
	}
	pattern := `@` + regexp.QuoteMeta(strings.ToLower(cfg.BotUsername)) + `\s+review\b`
	matched, _ := regexp.MatchString(pattern, lower)
	return matched
}

// IgnorePullRequestReviewComment implements the explicit "always ignore"
// row for pull_request_review_comment events, guarding against recursive
// review-comment loops.
func IgnorePullRequestReviewComment() Classification {
	return ignore("pull_request_review_comment_always_ignored")
}
