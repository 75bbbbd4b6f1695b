package model

// FileStatus enumerates the possible statuses of a changed file per the
// forge's pull-request-files API.
type FileStatus string

const (
	FileAdded    FileStatus = "added"
	FileModified FileStatus = "modified"
	FileRemoved  FileStatus = "removed"
	FileRenamed  FileStatus = "renamed"
)

// ChangedFileEntry describes one file touched by a pull request.
type ChangedFileEntry struct {
	Filename       string     `json:"filename"`
	Status         FileStatus `json:"status"`
	Additions      int        `json:"additions"`
	Deletions      int        `json:"deletions"`
	Changes        int        `json:"changes"`
	Patch          string     `json:"patch,omitempty"`
	PatchTruncated bool       `json:"patch_truncated"`
}

// SkippedFile records a file the context builder excluded, and why.
type SkippedFile struct {
	Filename string `json:"filename"`
	Reason   string `json:"reason"`
}

// LinkedJiraIssue is a ticket key discovered in the PR title/body via regex
// scan; summary is only populated when a live lookup is wired in.
type LinkedJiraIssue struct {
	Key     string `json:"key"`
	Summary string `json:"summary,omitempty"`
}

// PullRequestMeta carries the subset of PR metadata the context builder and
// policy evaluator need.
type PullRequestMeta struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	BaseRef   string `json:"base_ref"`
	HeadRef   string `json:"head_ref"`
	HeadSHA   string `json:"head_sha"`
	Draft     bool   `json:"draft"`
	Author    string `json:"author"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// PRContext is the bounded, budgeted view of a pull request handed to the
// planner and reviewer.
type PRContext struct {
	PullRequest       PullRequestMeta    `json:"pull_request"`
	ChangedFiles      []ChangedFileEntry `json:"changed_files"`
	LinkedJiraIssues  []LinkedJiraIssue  `json:"linked_jira_issues,omitempty"`
	TruncationNote    string             `json:"truncation_note,omitempty"`
}
