package policy

import (
	"context"
	"testing"
)

type scopedResource struct{ companyID uint }

func (r scopedResource) GetCompanyID() uint { return r.companyID }

type plainResource struct{}

func TestGateCompanyScoping(t *testing.T) {
	g := NewGate()
	g.Register("quote", NewCompanyPolicy())
	ctx := context.Background()
	member := Member{UserID: 1, CompanyID: 10, Role: "member"}

	if err := g.Authorize(ctx, member, ActionView, "quote", scopedResource{companyID: 10}); err != nil {
		t.Fatalf("same company denied: %v", err)
	}
	if err := g.Authorize(ctx, member, ActionView, "quote", scopedResource{companyID: 11}); err != ErrUnauthorized {
		t.Fatalf("cross-company access: err = %v, want ErrUnauthorized", err)
	}
	// nil resource (list/create) is allowed, handlers scope the query
	if err := g.Authorize(ctx, member, ActionList, "quote", nil); err != nil {
		t.Fatalf("list denied: %v", err)
	}
	// unscoped resources are denied by default
	if err := g.Authorize(ctx, member, ActionView, "quote", plainResource{}); err != ErrUnauthorized {
		t.Fatalf("unscoped resource: err = %v, want ErrUnauthorized", err)
	}
}

func TestGateZeroMemberAndMissingPolicy(t *testing.T) {
	g := NewGate()
	g.Register("quote", NewCompanyPolicy())
	ctx := context.Background()

	if err := g.Authorize(ctx, Member{}, ActionView, "quote", scopedResource{companyID: 1}); err != ErrUnauthorized {
		t.Fatalf("zero member: err = %v, want ErrUnauthorized", err)
	}
	m := Member{UserID: 1, CompanyID: 1}
	if err := g.Authorize(ctx, m, ActionView, "material", scopedResource{companyID: 1}); err != ErrNoPolicyDefined {
		t.Fatalf("missing policy: err = %v, want ErrNoPolicyDefined", err)
	}
}

func TestAdminOnlyPolicy(t *testing.T) {
	g := NewGate()
	g.Register("invoice", NewAdminOnlyPolicy(NewCompanyPolicy(), ActionDelete))
	ctx := context.Background()
	res := scopedResource{companyID: 10}

	member := Member{UserID: 1, CompanyID: 10, Role: "member"}
	admin := Member{UserID: 2, CompanyID: 10, Role: "admin"}

	if g.Can(ctx, member, ActionDelete, "invoice", res) {
		t.Fatal("member must not delete")
	}
	if !g.Can(ctx, admin, ActionDelete, "invoice", res) {
		t.Fatal("admin delete denied")
	}
	if !g.Can(ctx, member, ActionView, "invoice", res) {
		t.Fatal("member view denied")
	}
	// admin of another company is still fenced out
	foreignAdmin := Member{UserID: 3, CompanyID: 99, Role: "admin"}
	if g.Can(ctx, foreignAdmin, ActionDelete, "invoice", res) {
		t.Fatal("cross-company admin must be denied")
	}
}
