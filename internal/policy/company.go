package policy

import "context"

// CompanyScoped is implemented by every tenant-owned model.
type CompanyScoped interface {
	GetCompanyID() uint
}

// CompanyPolicy allows access only within the member's own company.
// For list/create (resource nil) it allows: handlers already scope queries
// and writes by the member's company id.
type CompanyPolicy struct{}

func NewCompanyPolicy() *CompanyPolicy { return &CompanyPolicy{} }

func (p *CompanyPolicy) Can(_ context.Context, m Member, _ Action, resource any) bool {
	if resource == nil {
		return true
	}
	scoped, ok := resource.(CompanyScoped)
	if !ok {
		// resources without a company boundary are denied by default
		return false
	}
	return scoped.GetCompanyID() == m.CompanyID
}

// AdminOnlyPolicy restricts destructive actions to admins, delegating the
// company check to an inner policy.
type AdminOnlyPolicy struct {
	inner   Policy
	actions map[Action]bool
}

// NewAdminOnlyPolicy wraps inner so that the listed actions require the
// admin role.
func NewAdminOnlyPolicy(inner Policy, actions ...Action) *AdminOnlyPolicy {
	set := make(map[Action]bool, len(actions))
	for _, a := range actions {
		set[a] = true
	}
	return &AdminOnlyPolicy{inner: inner, actions: set}
}

func (p *AdminOnlyPolicy) Can(ctx context.Context, m Member, action Action, resource any) bool {
	if p.actions[action] && m.Role != "admin" {
		return false
	}
	return p.inner.Can(ctx, m, action, resource)
}
