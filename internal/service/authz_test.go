package service

import (
	"errors"
	"testing"

	"github.com/YK-03/SharePlate/internal/model"
)

func TestAuthorize(t *testing.T) {
	donor := &model.User{ID: 1, Role: model.RoleDonor, IsActive: true}
	recipient := &model.User{ID: 2, Role: model.RoleRecipient, IsActive: true}
	volunteer := &model.User{ID: 3, Role: model.RoleVolunteer, IsActive: true}
	inactive := &model.User{ID: 4, Role: model.RoleRecipient}

	tests := []struct {
		name string
		user *model.User
		cap  Capability
		want error
	}{
		{"donor creates", donor, CapCreateItem, nil},
		{"recipient cannot create", recipient, CapCreateItem, ErrForbidden},
		{"recipient claims", recipient, CapClaimItem, nil},
		{"volunteer claims", volunteer, CapClaimItem, nil},
		{"donor cannot claim", donor, CapClaimItem, ErrForbidden},
		{"donor updates", donor, CapUpdateItem, nil},
		{"volunteer cannot update", volunteer, CapUpdateItem, ErrForbidden},
		{"anyone lists users", volunteer, CapListUsers, nil},
		{"anonymous", nil, CapClaimItem, ErrUnauthenticated},
		{"inactive", inactive, CapClaimItem, ErrUnauthenticated},
		{"unknown capability", donor, Capability("delete_everything"), ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.user, tt.cap)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
