package access_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
)

func TestActor_Require(t *testing.T) {
	company := uuid.New()

	tests := []struct {
		name    string
		actor   access.Actor
		min     access.Role
		wantErr bool
	}{
		{name: "MemberReads", actor: access.Actor{CompanyID: company, Role: access.RoleMember}, min: access.RoleMember},
		{name: "MemberMutates", actor: access.Actor{CompanyID: company, Role: access.RoleMember}, min: access.RoleManager, wantErr: true},
		{name: "ManagerMutates", actor: access.Actor{CompanyID: company, Role: access.RoleManager}, min: access.RoleManager},
		{name: "ManagerAdministers", actor: access.Actor{CompanyID: company, Role: access.RoleManager}, min: access.RoleAdmin, wantErr: true},
		{name: "AdminAdministers", actor: access.Actor{CompanyID: company, Role: access.RoleAdmin}, min: access.RoleAdmin},
		{name: "UnknownRole", actor: access.Actor{CompanyID: company, Role: "owner"}, min: access.RoleMember, wantErr: true},
		{name: "NoCompany", actor: access.Actor{Role: access.RoleAdmin}, min: access.RoleMember, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.actor.Require(tt.min)
			if tt.wantErr {
				assert.True(t, apperror.Is(err, apperror.KindForbidden))
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestCanMutate(t *testing.T) {
	assert.False(t, access.CanMutate(access.RoleMember))
	assert.True(t, access.CanMutate(access.RoleManager))
	assert.True(t, access.CanMutate(access.RoleAdmin))
	assert.False(t, access.CanMutate(""))
}

func TestRank(t *testing.T) {
	assert.Less(t, access.RoleMember.Rank(), access.RoleManager.Rank())
	assert.Less(t, access.RoleManager.Rank(), access.RoleAdmin.Rank())
	assert.Equal(t, 0, access.Role("guest").Rank())
}

func TestContext(t *testing.T) {
	_, ok := access.FromContext(context.Background())
	assert.False(t, ok)

	a := access.Actor{UserID: uuid.New(), CompanyID: uuid.New(), Role: access.RoleManager}
	got, ok := access.FromContext(access.WithActor(context.Background(), a))
	assert.True(t, ok)
	assert.Equal(t, a, got)
}
