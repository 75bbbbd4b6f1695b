package dispatch

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nchouser54/ai-pr-reviewer/internal/awsx/queue"
	"github.com/nchouser54/ai-pr-reviewer/internal/contextbuilder"
	"github.com/nchouser54/ai-pr-reviewer/internal/ghclient"
	"github.com/nchouser54/ai-pr-reviewer/internal/logging"
	"github.com/nchouser54/ai-pr-reviewer/internal/model"
	"github.com/nchouser54/ai-pr-reviewer/internal/sanitize"
)

func TestDispatchE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "dispatch end-to-end suite")
}

type spyMetrics struct {
	counts map[string]int
}

func newSpyMetrics() *spyMetrics { return &spyMetrics{counts: map[string]int{}} }

func (s *spyMetrics) IncCounter(ctx context.Context, name string, tags map[string]string) {
	s.counts[name]++
}
func (s *spyMetrics) ObserveDuration(ctx context.Context, name string, seconds float64, tags map[string]string) {
}

func encodeRecord(evt model.CanonicalEvent) queue.Record {
	body, err := json.Marshal(evt)
	Expect(err).NotTo(HaveOccurred())
	return queue.Record{MessageID: "e2e-1", Body: string(body)}
}

var _ = Describe("worker dispatch pipeline", func() {
	var metricsSpy *spyMetrics

	BeforeEach(func() {
		metricsSpy = newSpyMetrics()
	})

	It("posts a neutral review with no findings on the happy path", func() {
		forge := &fakeForge{
			pr:            model.PullRequestMeta{Title: "Add widget", BaseRef: "main", HeadRef: "feature/widget", Author: "alice"},
			defaultBranch: "main",
			files: []model.ChangedFileEntry{
				{Filename: "widget.go", Status: model.FileModified, Changes: 4, Patch: "@@ -1,2 +1,3 @@\n line1\n+line2\n line3"},
			},
		}

		plan := model.TriagePlan{RiskRanking: []string{"widget.go"}, OverallRiskEstimate: model.RiskLow}
		planBody, _ := json.Marshal(plan)
		review := model.Review{Summary: "Clean change, no issues found.", OverallRisk: model.RiskLow}
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
			Metrics:         metricsSpy,
			Logger:          logging.New(),
			Budgets:         contextbuilder.DefaultBudgets(),
		}

		evt := model.CanonicalEvent{
			DeliveryID: "d-happy", RepoFullName: "acme/widgets", PRNumber: 1,
			HeadSHA: "sha-happy", EventAction: "opened", Trigger: model.TriggerAuto,
		}

		err := deps.Handle(context.Background(), encodeRecord(evt))
		Expect(err).NotTo(HaveOccurred())
		Expect(forge.checkRuns).To(Equal([]string{"neutral"}))
		Expect(forge.checkSummaries[0]).To(ContainSubstring("Summary"))
		Expect(metricsSpy.counts["reviews_success"]).To(Equal(1))
	})

	It("posts exactly one review when the same delivery is handled twice", func() {
		forge := &fakeForge{
			pr:            model.PullRequestMeta{Title: "Add widget", Author: "alice"},
			defaultBranch: "main",
			files: []model.ChangedFileEntry{
				{Filename: "widget.go", Status: model.FileModified, Changes: 1, Patch: "@@ -1 +1 @@\n-old\n+new"},
			},
		}

		review := model.Review{Summary: "ok", OverallRisk: model.RiskLow}
		reviewBody, _ := json.Marshal(review)
		plan := model.TriagePlan{RiskRanking: []string{"widget.go"}, OverallRiskEstimate: model.RiskLow}
		planBody, _ := json.Marshal(plan)

		guard := &fakeGuard{}
		deps := &Dependencies{
			Auth:            fakeAuth{},
			NewClient:       func(string) ghclient.Client { return forge },
			Guard:           guard,
			Planner:         fakeRuntime{response: string(planBody)},
			Reviewer:        fakeRuntime{response: string(reviewBody)},
			ForgeBreaker:    newBreaker(),
			PlannerBreaker:  newBreaker(),
			ReviewerBreaker: newBreaker(),
			Metrics:         metricsSpy,
			Logger:          logging.New(),
			Budgets:         contextbuilder.DefaultBudgets(),
		}

		evt := model.CanonicalEvent{
			DeliveryID: "d-replay", RepoFullName: "acme/widgets", PRNumber: 2,
			HeadSHA: "sha-replay", EventAction: "opened", Trigger: model.TriggerAuto,
		}

		Expect(deps.Handle(context.Background(), encodeRecord(evt))).To(Succeed())
		Expect(deps.Handle(context.Background(), encodeRecord(evt))).To(Succeed())
		Expect(forge.checkRuns).To(HaveLen(1), "a redelivered message with the same dedup key must not post twice")
	})

	It("clips an oversized patch under the per-file diff budget and records a truncation note", func() {
		hugePatch := "@@ -1,1 +1,1 @@\n-" + strings.Repeat("x", 50_000)
		budgets := contextbuilder.Budgets{
			MaxReviewFiles:   30,
			MaxDiffBytes:     8000,
			MaxTotalDiff:     30 * 8000,
			LargePatchPolicy: contextbuilder.PolicyClip,
		}

		result := contextbuilder.Build(
			model.PullRequestMeta{},
			[]model.ChangedFileEntry{{Filename: "huge.go", Status: model.FileModified, Changes: 50_000, Patch: hugePatch}},
			nil,
			budgets,
		)

		Expect(result.ReviewedFiles).To(HaveLen(1))
		Expect(result.ReviewedFiles[0].PatchTruncated).To(BeTrue())
		Expect(len(result.ReviewedFiles[0].Patch)).To(Equal(8000))
		Expect(result.Context.TruncationNote).NotTo(BeEmpty())
	})

	It("reviews a manually triggered draft PR despite the default skip-draft policy", func() {
		forge := &fakeForge{
			pr:            model.PullRequestMeta{Draft: true, Author: "bob"},
			defaultBranch: "main",
			files: []model.ChangedFileEntry{
				{Filename: "main.go", Status: model.FileModified, Changes: 2, Patch: "@@ -1 +1 @@\n-a\n+b"},
			},
		}
		review := model.Review{Summary: "fine", OverallRisk: model.RiskLow}
		reviewBody, _ := json.Marshal(review)
		plan := model.TriagePlan{RiskRanking: []string{"main.go"}, OverallRiskEstimate: model.RiskLow}
		planBody, _ := json.Marshal(plan)

		deps := &Dependencies{
			Auth:            fakeAuth{},
			NewClient:       func(string) ghclient.Client { return forge },
			Guard:           &fakeGuard{},
			Planner:         fakeRuntime{response: string(planBody)},
			Reviewer:        fakeRuntime{response: string(reviewBody)},
			ForgeBreaker:    newBreaker(),
			PlannerBreaker:  newBreaker(),
			ReviewerBreaker: newBreaker(),
			Metrics:         metricsSpy,
			Logger:          logging.New(),
			Budgets:         contextbuilder.DefaultBudgets(),
		}

		evt := model.CanonicalEvent{
			DeliveryID: "d-manual", RepoFullName: "acme/widgets", PRNumber: 3,
			HeadSHA: "sha-manual", EventAction: "created", Trigger: model.TriggerManual,
		}

		Expect(deps.Handle(context.Background(), encodeRecord(evt))).To(Succeed())
		Expect(forge.checkRuns).To(Equal([]string{"neutral"}))
	})

	It("redacts a finding against a sensitive path before posting", func() {
		forge := &fakeForge{
			pr:            model.PullRequestMeta{Author: "carol"},
			defaultBranch: "main",
			files: []model.ChangedFileEntry{
				{Filename: "config/.env", Status: model.FileModified, Changes: 1, Patch: "@@ -1 +1 @@\n-A=1\n+A=2"},
			},
		}

		startLine := 1
		secretVal := "replace-me"
		review := model.Review{
			Summary:     "Found an exposed secret.",
			OverallRisk: model.RiskHigh,
			Findings: []model.Finding{
				{Priority: 0, Type: model.FindingSecurity, File: "config/.env", StartLine: &startLine, Message: "hardcoded secret", SuggestedPatch: &secretVal},
			},
		}
		reviewBody, _ := json.Marshal(review)
		plan := model.TriagePlan{RiskRanking: []string{"config/.env"}, OverallRiskEstimate: model.RiskHigh}
		planBody, _ := json.Marshal(plan)

		deps := &Dependencies{
			Auth:            fakeAuth{},
			NewClient:       func(string) ghclient.Client { return forge },
			Guard:           &fakeGuard{},
			Planner:         fakeRuntime{response: string(planBody)},
			Reviewer:        fakeRuntime{response: string(reviewBody)},
			ForgeBreaker:    newBreaker(),
			PlannerBreaker:  newBreaker(),
			ReviewerBreaker: newBreaker(),
			Metrics:         metricsSpy,
			Logger:          logging.New(),
			Budgets:         contextbuilder.DefaultBudgets(),
		}

		evt := model.CanonicalEvent{
			DeliveryID: "d-sensitive", RepoFullName: "acme/widgets", PRNumber: 4,
			HeadSHA: "sha-sensitive", EventAction: "opened", Trigger: model.TriggerAuto,
		}

		Expect(deps.Handle(context.Background(), encodeRecord(evt))).To(Succeed())
		Expect(forge.checkSummaries[0]).To(ContainSubstring(sanitize.CanonicalRemediationText))
		Expect(forge.checkSummaries[0]).NotTo(ContainSubstring("replace-me"))
	})

	It("degrades to a neutral incomplete check-run when the planner returns malformed output", func() {
		forge := &fakeForge{pr: model.PullRequestMeta{Author: "dave"}, defaultBranch: "main"}

		deps := &Dependencies{
			Auth:            fakeAuth{},
			NewClient:       func(string) ghclient.Client { return forge },
			Guard:           &fakeGuard{},
			Planner:         fakeRuntime{response: `{"bad":"shape"}`},
			ForgeBreaker:    newBreaker(),
			PlannerBreaker:  newBreaker(),
			ReviewerBreaker: newBreaker(),
			Metrics:         metricsSpy,
			Logger:          logging.New(),
			Budgets:         contextbuilder.DefaultBudgets(),
		}

		evt := model.CanonicalEvent{
			DeliveryID: "d-badplan", RepoFullName: "acme/widgets", PRNumber: 5,
			HeadSHA: "sha-badplan", EventAction: "opened", Trigger: model.TriggerAuto,
		}

		err := deps.Handle(context.Background(), encodeRecord(evt))
		Expect(err).To(HaveOccurred())
		Expect(model.KindOf(err)).To(Equal(model.ErrValidation))
		Expect(forge.checkRuns).To(Equal([]string{"neutral"}))
		Expect(metricsSpy.counts["reviews_success"]).To(Equal(0))
		Expect(metricsSpy.counts["reviews_failed"]).To(Equal(1))
	})
})
