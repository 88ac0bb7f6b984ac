package auth

import (
	"github.com/oriolvila/clinicore-go/internal/domain/shared"
)

// Permission names one guarded core operation
type Permission string

const (
	PermEncounterWrite      Permission = "encounter.write"
	PermProposalGenerate    Permission = "proposal.generate"
	PermProposalView        Permission = "proposal.view"
	PermProposalConvert     Permission = "proposal.convert_to_sale"
	PermSaleTransition      Permission = "sale.transition"
	PermStockManualAdjust   Permission = "stock.manual_adjust"
	PermStockView           Permission = "stock.view"
	PermPatientWrite        Permission = "patient.write"
)

// matrix is the declarative role/permission table. Admin is always permitted
// and is therefore not listed. A role absent from a permission's set is
// denied.
var matrix = map[Permission]map[shared.Role]bool{
	PermEncounterWrite: {
		shared.RolePractitioner: true,
		shared.RoleClinicalOps:  true,
	},
	PermProposalGenerate: {
		shared.RolePractitioner: true, // own encounters only, see RequireOwn
		shared.RoleClinicalOps:  true,
	},
	PermProposalView: {
		shared.RolePractitioner: true, // own proposals only
		shared.RoleReception:    true,
		shared.RoleClinicalOps:  true,
		shared.RoleAccounting:   true,
	},
	PermProposalConvert: {
		shared.RoleReception:   true,
		shared.RoleClinicalOps: true,
	},
	PermSaleTransition: {
		shared.RoleReception:   true,
		shared.RoleClinicalOps: true,
	},
	PermStockManualAdjust: {
		shared.RoleClinicalOps: true,
	},
	PermStockView: {
		shared.RolePractitioner: true,
		shared.RoleReception:    true,
		shared.RoleClinicalOps:  true,
		shared.RoleAccounting:   true,
	},
	PermPatientWrite: {
		shared.RoleReception:   true,
		shared.RoleClinicalOps: true,
	},
}

// Guard evaluates the permission matrix at operation entry
type Guard struct{}

// NewGuard creates a permission guard
func NewGuard() *Guard {
	return &Guard{}
}

// Require checks that the actor holds a role permitted for the operation
func (g *Guard) Require(actor shared.Actor, perm Permission) error {
	if actor.IsAdmin() {
		return nil
	}
	allowed := matrix[perm]
	for _, role := range actor.Roles {
		if allowed[role] {
			return nil
		}
	}
	return shared.NewForbiddenError(string(perm), actor.SubjectID)
}

// RequireOwn checks the permission and additionally, for actors whose only
// grant comes from the practitioner role, that the resource belongs to them.
// ownerID is the practitioner reference on the resource.
func (g *Guard) RequireOwn(actor shared.Actor, perm Permission, ownerID string) error {
	if err := g.Require(actor, perm); err != nil {
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	// Any non-practitioner grant lifts the ownership restriction.
	allowed := matrix[perm]
	for _, role := range actor.Roles {
		if role != shared.RolePractitioner && allowed[role] {
			return nil
		}
	}
	if ownerID != actor.SubjectID {
		return shared.NewForbiddenError(string(perm), actor.SubjectID)
	}
	return nil
}
