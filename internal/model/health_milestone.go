package model

import "time"

// HealthMilestone mirrors the 'health_milestones' table. Rows are a durable
// snapshot of the metrics engine's output, refreshed on every health-progress
// read. They are a cache only: the engine recomputes everything from the
// user record, so losing this table loses nothing.
type HealthMilestone struct {
	ID              uint64    `json:"id"`
	UserID          uint64    `json:"user_id"`
	MetricName      string    `json:"metric_name"`
	CurrentValue    float64   `json:"current_value"`
	MaxValue        float64   `json:"max_value"`
	Unit            string    `json:"unit"`
	Description     string    `json:"description"`
	PermanentDamage bool      `json:"is_permanent_damage"`
	// ExpectedRecovery is the human-readable milestone label ("24 hours");
	// empty for permanent-damage rows, where recovery is not modeled.
	ExpectedRecovery string     `json:"expected_recovery,omitempty"`
	AchievedAt       *time.Time `json:"achievement_date,omitempty"`
	RecoveryStart    *time.Time `json:"recovery_start_date,omitempty"`
	LastUpdated      time.Time  `json:"last_updated"`
}
