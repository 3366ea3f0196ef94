package model

import "time"

// AuditLog records one admin-invoked mutation, written on both success and
// failure paths for traceability.
type AuditLog struct {
	ID        string // ULID, sortable by creation time
	ActorID   string
	Action    string
	TargetID  string
	Detail    string
	Success   bool
	CreatedAt time.Time
}

// ExpiryLog records one campaign deactivated by the expiry sweeper.
type ExpiryLog struct {
	ID         string // UUID
	BatchID    string
	CampaignID string
	UserID     string
	PlanType   PlanType
	ExpiredAt  time.Time // the expiry timestamp that triggered deactivation
	CreatedAt  time.Time
}

// SweepSummary is written once per sweep run regardless of per-batch outcome.
type SweepSummary struct {
	BatchID        string // UUID shared by the run's ExpiryLog entries
	TotalProcessed int
	StartedAt      time.Time
	FinishedAt     time.Time
}
