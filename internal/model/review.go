package model

// RiskLevel is a coarse risk estimate shared by the planner and reviewer.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity ordering mirrors RiskLevel but is named separately because
// findings and repo policy reason about severity, not PR-level risk.
type Severity string

const (
	SeverityNone   Severity = "none"
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

var severityRank = map[Severity]int{
	SeverityNone:   0,
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// AtLeast reports whether s is ranked at or above other.
func (s Severity) AtLeast(other Severity) bool {
	return severityRank[s] >= severityRank[other]
}

// Hotspot is one planner-identified file of elevated risk.
type Hotspot struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// FileCluster groups related files under a shared token budget hint.
type FileCluster struct {
	ClusterLabel string   `json:"cluster_label"`
	Files        []string `json:"files"`
	TokenBudget  int      `json:"token_budget"`
}

// TriagePlan is the stage-1 planner's output.
type TriagePlan struct {
	RiskRanking         []string      `json:"risk_ranking" validate:"required"`
	Hotspots            []Hotspot     `json:"hotspots"`
	FileClusters        []FileCluster `json:"file_clusters"`
	SkipFiles           []string      `json:"skip_files"`
	OverallRiskEstimate RiskLevel     `json:"overall_risk_estimate" validate:"required,oneof=low medium high"`
}

// FindingType classifies the kind of issue a finding raises.
type FindingType string

const (
	FindingBug         FindingType = "bug"
	FindingSecurity    FindingType = "security"
	FindingPerformance FindingType = "performance"
	FindingStyle       FindingType = "style"
	FindingTests       FindingType = "tests"
	FindingDocs        FindingType = "docs"
)

// Finding is one reviewer-surfaced issue. Priority 0 is most critical.
type Finding struct {
	Priority        int         `json:"priority" validate:"gte=0,lte=2"`
	Type            FindingType `json:"type" validate:"required,oneof=bug security performance style tests docs"`
	File            string      `json:"file" validate:"required"`
	StartLine       *int        `json:"start_line"`
	EndLine         *int        `json:"end_line"`
	Message         string      `json:"message" validate:"required"`
	Evidence        string      `json:"evidence"`
	SuggestedPatch  *string     `json:"suggested_patch"`
}

// LocationValid enforces "if start_line is null then end_line is null".
func (f Finding) LocationValid() bool {
	if f.StartLine == nil {
		return f.EndLine == nil
	}
	return true
}

// TicketCompliance reports how a PR measures up against a linked ticket.
type TicketCompliance struct {
	TicketKey               string   `json:"ticket_key"`
	TicketSummary           string   `json:"ticket_summary"`
	FullyCompliant          []string `json:"fully_compliant"`
	NotCompliant            []string `json:"not_compliant"`
	NeedsHumanVerification  []string `json:"needs_human_verification"`
}

// Review is the stage-2 reviewer's output.
type Review struct {
	Summary          string             `json:"summary" validate:"required"`
	OverallRisk      RiskLevel          `json:"overall_risk" validate:"required,oneof=low medium high"`
	Findings         []Finding          `json:"findings" validate:"dive"`
	SuggestedTests   []string           `json:"suggested_tests"`
	RiskHotspots     []string           `json:"risk_hotspots"`
	FilesReviewed    []string           `json:"files_reviewed"`
	FilesSkipped     []string           `json:"files_skipped"`
	TruncationNote   *string            `json:"truncation_note"`
	NotReviewed      *string            `json:"not_reviewed"`
	TicketCompliance []TicketCompliance `json:"ticket_compliance"`
}
