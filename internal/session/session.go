// Package session carries the authenticated caller through request contexts.
package session

import (
	"context"
	"fmt"

	"github.com/quantumtrade/tradebot/internal/core"
)

// Role is the caller's permission level
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleClient Role = "client"
)

// ParseRole validates a configured role name
func ParseRole(v string) (Role, error) {
	switch Role(v) {
	case RoleAdmin, RoleClient:
		return Role(v), nil
	}
	return "", core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown role %q", v))
}

// Session identifies who is calling the API
type Session struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the session may manage the bot
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

type ctxKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored in ctx, if any
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}
