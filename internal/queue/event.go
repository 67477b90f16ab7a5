// Package queue defines message payloads exchanged over the message broker
// and the background consumer processing them.
package queue

// UserRegisteredEvent is published when a registration completes. It carries
// enough for downstream consumers (welcome mail, analytics) without querying
// the primary database.
type UserRegisteredEvent struct {
	UserID       uint64 `json:"user_id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	RegisteredAt string `json:"registered_at"`
}
