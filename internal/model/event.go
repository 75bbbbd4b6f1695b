// Package model defines the wire and domain types shared across the
// webhook receiver, the worker dispatcher, and the LLM pipeline.
package model

import "fmt"

// Trigger classifies why a review was requested.
type Trigger string

const (
	TriggerAuto   Trigger = "auto"
	TriggerManual Trigger = "manual"
	TriggerRerun  Trigger = "rerun"
)

// CanonicalEvent is the normalized representation of an inbound forge event
// produced by the webhook receiver and consumed by workers.
type CanonicalEvent struct {
	DeliveryID     string  `json:"delivery_id"`
	RepoFullName   string  `json:"repo_full_name"`
	PRNumber       int     `json:"pr_number"`
	HeadSHA        string  `json:"head_sha"`
	InstallationID int64   `json:"installation_id"`
	EventAction    string  `json:"event_action"`
	Trigger        Trigger `json:"trigger"`
	BaseRef        string  `json:"base_ref,omitempty"`
}

// DedupKey returns the stable string identifying this (repo, pr, head_sha)
// triple, used both as the FIFO queue deduplication id and the idempotency
// claim's primary key.
func (e CanonicalEvent) DedupKey() string {
	return DedupKey(e.RepoFullName, e.PRNumber, e.HeadSHA)
}

// DedupKey is a total, injective function of its inputs.
func DedupKey(repoFullName string, prNumber int, headSHA string) string {
	return fmt.Sprintf("%s:%d:%s", repoFullName, prNumber, headSHA)
}

// CorrelationID builds the log correlation id `delivery:repo:pr:sha`.
func (e CanonicalEvent) CorrelationID() string {
	return fmt.Sprintf("%s:%s:%d:%s", e.DeliveryID, e.RepoFullName, e.PRNumber, e.HeadSHA)
}
