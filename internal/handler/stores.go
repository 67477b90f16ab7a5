// Package handler implements the HTTP endpoints. Handlers depend on small
// store interfaces rather than the concrete repositories so tests can run
// against in-memory fakes.
package handler

import (
	"context"
	"time"

	"github.com/lmeyer/smokefree/internal/model"
)

// UserStore is the slice of the user repository the handlers need.
type UserStore interface {
	Create(ctx context.Context, u *model.User, password string, cost int) (uint64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	UpdateProfile(ctx context.Context, username string, p model.ProfileUpdate) (model.User, error)
}

// IdentityResolver loads the full user record behind an identifier, trying
// email before username.
type IdentityResolver interface {
	Resolve(ctx context.Context, identifier string) (model.User, error)
}

// MilestoneStore persists health-milestone snapshots.
type MilestoneStore interface {
	UpsertAll(ctx context.Context, userID uint64, ms []model.HealthMilestone, now time.Time) error
}
