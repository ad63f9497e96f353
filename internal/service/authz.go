package service

import (
	"fmt"

	"github.com/YK-03/SharePlate/internal/model"
)

// Capability is an action guarded by Authorize.
type Capability string

const (
	CapCreateItem Capability = "create_item"
	CapClaimItem  Capability = "claim_item"
	CapUpdateItem Capability = "update_item"
	CapListUsers  Capability = "list_users"
)

// rolePolicy maps each capability to the roles that hold it. A nil slice
// means any authenticated, active user.
var rolePolicy = map[Capability][]model.Role{
	CapCreateItem: {model.RoleDonor},
	CapClaimItem:  {model.RoleRecipient, model.RoleVolunteer},
	CapUpdateItem: {model.RoleDonor},
	CapListUsers:  nil,
}

// Authorize checks that user may exercise capability. Ownership of a
// specific resource is checked by the owning service.
func Authorize(user *model.User, capability Capability) error {
	const op = "service.Authorize"

	if user == nil {
		return OpError{Op: op, Kind: ErrUnauthenticated}
	}
	if !user.IsActive {
		return OpError{Op: op, Kind: ErrUnauthenticated, Msg: "account is inactive"}
	}

	roles, ok := rolePolicy[capability]
	if !ok {
		return OpError{Op: op, Kind: ErrForbidden, Msg: fmt.Sprintf("unknown capability %q", capability)}
	}
	if roles == nil {
		return nil
	}
	for _, r := range roles {
		if user.Role == r {
			return nil
		}
	}
	return OpError{
		Op:   op,
		Kind: ErrForbidden,
		Msg:  fmt.Sprintf("role %q may not %s", user.Role, capability),
	}
}
