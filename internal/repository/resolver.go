package repository

import (
	"context"
	"database/sql"

	"github.com/lmeyer/smokefree/internal/model"
)

// Lookup attempts to find a user by one kind of identifier. sql.ErrNoRows
// means "no match here, try the next strategy".
type Lookup func(ctx context.Context, identifier string) (model.User, error)

// Resolver is the single place that encodes the identifier fallback order.
// Some call sites have only an email (from a validated token), others only a
// username (from a profile payload); the resolver tries email first so a
// username colliding with someone's address can never mask the
// authenticated identity.
type Resolver struct {
	lookups []Lookup
}

// NewResolver builds the standard email-then-username resolver over a user
// repo.
func NewResolver(users *UserRepo) *Resolver {
	return &Resolver{lookups: []Lookup{users.GetByEmail, users.GetByUsername}}
}

// NewResolverWith builds a resolver from an explicit strategy list; used by
// tests and by call sites that only ever hold one identifier kind.
func NewResolverWith(lookups ...Lookup) *Resolver {
	return &Resolver{lookups: lookups}
}

// Resolve tries each lookup in order and returns the first match, or
// ErrUserNotFound when every strategy misses. Any other store error aborts
// the chain immediately.
func (r *Resolver) Resolve(ctx context.Context, identifier string) (model.User, error) {
	for _, lookup := range r.lookups {
		u, err := lookup(ctx, identifier)
		if err == nil {
			return u, nil
		}
		if err != sql.ErrNoRows {
			return model.User{}, err
		}
	}
	return model.User{}, ErrUserNotFound
}
