// Package policy is the authorization checkpoint: a central Gate holding
// one Policy per resource type. Policies here enforce the multi-tenancy
// boundary (company scoping) and role restrictions on top of it.
package policy

import (
	"context"
	"errors"
)

// Action describes the kind of operation a member wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"
)

// Member is the authorization subject: an authenticated user resolved to
// their company and role.
type Member struct {
	UserID    uint
	CompanyID uint
	Role      string
}

// Policy decides whether a member may perform an action on a resource.
// resource is nil for list/create.
type Policy interface {
	Can(ctx context.Context, m Member, action Action, resource any) bool
}

// Sentinel errors returned by Gate.Authorize.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

// Gate registers policies by resource type name ("quote", "invoice", ...).
type Gate struct {
	policies map[string]Policy
}

func NewGate() *Gate { return &Gate{policies: make(map[string]Policy)} }

// Register adds a policy for a resource type, replacing any existing one.
func (g *Gate) Register(resourceType string, p Policy) {
	g.policies[resourceType] = p
}

// Authorize returns ErrUnauthorized for an empty member or a denied action,
// ErrNoPolicyDefined when the resource type has no registered policy.
func (g *Gate) Authorize(ctx context.Context, m Member, action Action, resourceType string, resource any) error {
	if m.UserID == 0 || m.CompanyID == 0 {
		return ErrUnauthorized
	}
	p, ok := g.policies[resourceType]
	if !ok {
		return ErrNoPolicyDefined
	}
	if !p.Can(ctx, m, action, resource) {
		return ErrUnauthorized
	}
	return nil
}

// Can is a convenience wrapper returning bool instead of error.
func (g *Gate) Can(ctx context.Context, m Member, action Action, resourceType string, resource any) bool {
	return g.Authorize(ctx, m, action, resourceType, resource) == nil
}
