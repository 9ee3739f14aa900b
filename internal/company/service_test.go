package company_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
	"github.com/MrJamesThe3rd/ledgerly/internal/event"
)

var (
	companyID = uuid.MustParse("3f2a1b0c-9d8e-4f7a-8b6c-5d4e3f2a1b0c")
	otherID   = uuid.MustParse("7c6b5a49-3821-4f0e-9d8c-7b6a59483726")

	admin   = access.Actor{UserID: uuid.New(), CompanyID: companyID, Role: access.RoleAdmin}
	manager = access.Actor{UserID: uuid.New(), CompanyID: companyID, Role: access.RoleManager}
)

func newService(t *testing.T) (*company.Service, *company.MockRepository, *company.MockPublisher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := company.NewMockRepository(ctrl)
	pub := company.NewMockPublisher(ctrl)

	return company.NewService(repo, pub), repo, pub
}

func hash(t *testing.T, password string) string {
	t.Helper()

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return string(h)
}

func TestService_Signup(t *testing.T) {
	valid := company.SignupParams{Name: "Ana", Email: " Ana@Example.com ", Password: "secret1", CompanyName: "Acme"}

	tests := []struct {
		name      string
		params    func() company.SignupParams
		setupMock func(repo *company.MockRepository, pub *company.MockPublisher)
		wantErr   string
	}{
		{
			name:   "CreatesCompanyAndAdminOwner",
			params: func() company.SignupParams { return valid },
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(nil, company.ErrNotFound)
				repo.EXPECT().CreateCompanyWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, c *company.Company, u *company.User) error {
						assert.Equal(t, "Acme", c.Name)
						assert.Equal(t, access.RoleAdmin, u.Role)
						assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")))

						c.ID = companyID
						u.ID = uuid.New()
						u.CompanyID = &c.ID

						return nil
					})
				pub.EXPECT().Publish(gomock.Any(), gomock.Cond(func(e event.LedgerChanged) bool {
					return e.CompanyID == companyID && e.Entity == event.EntityCompany && e.Action == event.ActionCreated
				}))
			},
		},
		{
			name: "MissingFields",
			params: func() company.SignupParams {
				p := valid
				p.Name = "  "
				return p
			},
			wantErr: "Name, email, and password are required",
		},
		{
			name: "ShortPassword",
			params: func() company.SignupParams {
				p := valid
				p.Password = "12345"
				return p
			},
			wantErr: "Password must be at least 6 characters",
		},
		{
			name: "MissingCompanyName",
			params: func() company.SignupParams {
				p := valid
				p.CompanyName = ""
				return p
			},
			wantErr: "Company name is required",
		},
		{
			name: "MalformedEmail",
			params: func() company.SignupParams {
				p := valid
				p.Email = "not-an-email"
				return p
			},
			wantErr: `invalid email "not-an-email"`,
		},
		{
			name:   "DuplicateEmail",
			params: func() company.SignupParams { return valid },
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(&company.User{ID: uuid.New()}, nil)
			},
			wantErr: "Email already registered",
		},
		{
			name:   "DuplicateEmailRace",
			params: func() company.SignupParams { return valid },
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(nil, company.ErrNotFound)
				repo.EXPECT().CreateCompanyWithOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(company.ErrEmailTaken)
			},
			wantErr: "Email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo, pub)
			}

			u, c, err := svc.Signup(context.Background(), tt.params())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
				assert.Equal(t, tt.wantErr, err.Error())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "ana@example.com", u.Email)
			assert.Equal(t, companyID, c.ID)
			assert.Equal(t, companyID, u.Actor().CompanyID)
		})
	}
}

func TestService_Authenticate(t *testing.T) {
	user := &company.User{ID: uuid.New(), Email: "ana@example.com", PasswordHash: hash(t, "secret1"), Role: access.RoleAdmin}

	tests := []struct {
		name      string
		email     string
		password  string
		setupMock func(repo *company.MockRepository)
		wantKind  apperror.Kind
	}{
		{
			name:     "ValidCredentials",
			email:    "ANA@example.com",
			password: "secret1",
			setupMock: func(repo *company.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
			},
		},
		{
			name:     "WrongPassword",
			email:    "ana@example.com",
			password: "wrong",
			setupMock: func(repo *company.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(user, nil)
			},
			wantKind: apperror.KindForbidden,
		},
		{
			name:     "UnknownEmail",
			email:    "bob@example.com",
			password: "secret1",
			setupMock: func(repo *company.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(nil, company.ErrNotFound)
			},
			wantKind: apperror.KindForbidden,
		},
		{
			name:     "EmptyPassword",
			email:    "ana@example.com",
			wantKind: apperror.KindForbidden,
		},
		{
			name:     "StoreFailure",
			email:    "ana@example.com",
			password: "secret1",
			setupMock: func(repo *company.MockRepository) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), gomock.Any()).Return(nil, errors.New("connection reset"))
			},
			wantKind: apperror.KindStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo)
			}

			got, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if tt.wantKind != "" {
				assert.True(t, apperror.Is(err, tt.wantKind), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, user.ID, got.ID)
		})
	}
}

func TestService_CreateCompany(t *testing.T) {
	userID := uuid.New()

	t.Run("CompanylessUser", func(t *testing.T) {
		svc, repo, pub := newService(t)

		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&company.User{ID: userID, Role: access.RoleMember}, nil)
		repo.EXPECT().CreateCompanyForUser(gomock.Any(), gomock.Any(), userID).
			DoAndReturn(func(_ context.Context, c *company.Company, _ uuid.UUID) error {
				c.ID = companyID
				return nil
			})
		pub.EXPECT().Publish(gomock.Any(), gomock.Any())

		c, err := svc.CreateCompany(context.Background(), userID, " Acme ")
		require.NoError(t, err)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, userID, c.OwnerID)
	})

	t.Run("AlreadyInCompany", func(t *testing.T) {
		svc, repo, _ := newService(t)

		repo.EXPECT().GetUser(gomock.Any(), userID).Return(&company.User{ID: userID, CompanyID: &otherID}, nil)

		_, err := svc.CreateCompany(context.Background(), userID, "Acme")
		assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
		assert.EqualError(t, err, "User already belongs to a company")
	})

	t.Run("UnknownUser", func(t *testing.T) {
		svc, repo, _ := newService(t)

		repo.EXPECT().GetUser(gomock.Any(), userID).Return(nil, company.ErrNotFound)

		_, err := svc.CreateCompany(context.Background(), userID, "Acme")
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
	})
}

func TestService_RenameCompany(t *testing.T) {
	t.Run("Admin", func(t *testing.T) {
		svc, repo, pub := newService(t)

		repo.EXPECT().RenameCompany(gomock.Any(), companyID, "Acme Ltd").
			Return(&company.Company{ID: companyID, Name: "Acme Ltd"}, nil)
		pub.EXPECT().Publish(gomock.Any(), gomock.Any())

		c, err := svc.RenameCompany(context.Background(), admin, "Acme Ltd")
		require.NoError(t, err)
		assert.Equal(t, "Acme Ltd", c.Name)
	})

	t.Run("ManagerForbidden", func(t *testing.T) {
		svc, _, _ := newService(t)

		_, err := svc.RenameCompany(context.Background(), manager, "Acme Ltd")
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
		assert.EqualError(t, err, "Access denied. Requires admin role.")
	})

	t.Run("EmptyName", func(t *testing.T) {
		svc, _, _ := newService(t)

		_, err := svc.RenameCompany(context.Background(), admin, " ")
		assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	})
}

func TestService_InviteUser(t *testing.T) {
	existingID := uuid.New()

	tests := []struct {
		name      string
		actor     access.Actor
		params    company.InviteParams
		setupMock func(repo *company.MockRepository, pub *company.MockPublisher)
		wantKind  apperror.Kind
		check     func(t *testing.T, inv *company.Invitation)
	}{
		{
			name:   "NewLogin",
			actor:  admin,
			params: company.InviteParams{Email: "bob@example.com", Role: access.RoleMember},
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "bob@example.com").Return(nil, company.ErrNotFound)
				repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *company.User) error {
					u.ID = uuid.New()
					return nil
				})
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			check: func(t *testing.T, inv *company.Invitation) {
				assert.Equal(t, "bob", inv.User.Name)
				assert.Equal(t, companyID, *inv.User.CompanyID)
				assert.Equal(t, access.RoleMember, inv.User.Role)
				require.NotEmpty(t, inv.TempPassword)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(inv.User.PasswordHash), []byte(inv.TempPassword)))
			},
		},
		{
			name:   "AttachesCompanylessUser",
			actor:  admin,
			params: company.InviteParams{Email: "carol@example.com", Role: access.RoleManager},
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "carol@example.com").
					Return(&company.User{ID: existingID, Name: "Carol", Role: access.RoleMember}, nil)
				repo.EXPECT().AttachUser(gomock.Any(), existingID, companyID, access.RoleManager).Return(nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			check: func(t *testing.T, inv *company.Invitation) {
				assert.Equal(t, existingID, inv.User.ID)
				assert.Equal(t, access.RoleManager, inv.User.Role)
				assert.Empty(t, inv.TempPassword)
			},
		},
		{
			name:   "UserInAnotherCompany",
			actor:  admin,
			params: company.InviteParams{Email: "dan@example.com", Role: access.RoleMember},
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "dan@example.com").
					Return(&company.User{ID: existingID, CompanyID: &otherID}, nil)
			},
			wantKind: apperror.KindInvalidArgument,
		},
		{
			name:     "UnknownRole",
			actor:    admin,
			params:   company.InviteParams{Email: "bob@example.com", Role: "owner"},
			wantKind: apperror.KindInvalidArgument,
		},
		{
			name:     "MissingEmail",
			actor:    admin,
			params:   company.InviteParams{Role: access.RoleMember},
			wantKind: apperror.KindInvalidArgument,
		},
		{
			name:     "ManagerForbidden",
			actor:    manager,
			params:   company.InviteParams{Email: "bob@example.com", Role: access.RoleMember},
			wantKind: apperror.KindForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo, pub)
			}

			inv, err := svc.InviteUser(context.Background(), tt.actor, tt.params)
			if tt.wantKind != "" {
				assert.True(t, apperror.Is(err, tt.wantKind), "got %v", err)
				return
			}

			require.NoError(t, err)
			tt.check(t, inv)
		})
	}
}

func TestService_UpdateUserRole(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		actor     access.Actor
		role      access.Role
		setupMock func(repo *company.MockRepository, pub *company.MockPublisher)
		wantKind  apperror.Kind
	}{
		{
			name:  "PromoteMember",
			actor: admin,
			role:  access.RoleManager,
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUser(gomock.Any(), userID).
					Return(&company.User{ID: userID, CompanyID: &companyID, Role: access.RoleMember}, nil)
				repo.EXPECT().UpdateUserRole(gomock.Any(), companyID, userID, access.RoleManager).Return(nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
		},
		{
			name:  "DemoteLastAdminAllowed",
			actor: admin,
			role:  access.RoleMember,
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUser(gomock.Any(), userID).
					Return(&company.User{ID: userID, CompanyID: &companyID, Role: access.RoleAdmin}, nil)
				repo.EXPECT().CountAdmins(gomock.Any(), companyID).Return(1, nil)
				repo.EXPECT().UpdateUserRole(gomock.Any(), companyID, userID, access.RoleMember).Return(nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
		},
		{
			name:  "UserOfAnotherCompany",
			actor: admin,
			role:  access.RoleManager,
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetUser(gomock.Any(), userID).
					Return(&company.User{ID: userID, CompanyID: &otherID, Role: access.RoleMember}, nil)
			},
			wantKind: apperror.KindNotFound,
		},
		{
			name:  "UnknownUser",
			actor: admin,
			role:  access.RoleManager,
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetUser(gomock.Any(), userID).Return(nil, company.ErrNotFound)
			},
			wantKind: apperror.KindNotFound,
		},
		{
			name:     "InvalidRole",
			actor:    admin,
			role:     "owner",
			wantKind: apperror.KindInvalidArgument,
		},
		{
			name:     "ManagerForbidden",
			actor:    manager,
			role:     access.RoleMember,
			wantKind: apperror.KindForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, pub := newService(t)
			if tt.setupMock != nil {
				tt.setupMock(repo, pub)
			}

			u, err := svc.UpdateUserRole(context.Background(), tt.actor, userID, tt.role)
			if tt.wantKind != "" {
				assert.True(t, apperror.Is(err, tt.wantKind), "got %v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.role, u.Role)
		})
	}
}

func TestService_ListUsers(t *testing.T) {
	svc, repo, _ := newService(t)

	users := []*company.User{{ID: uuid.New()}, {ID: uuid.New()}}
	repo.EXPECT().ListUsers(gomock.Any(), companyID).Return(users, nil)

	got, err := svc.ListUsers(context.Background(), manager)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.ListUsers(context.Background(), access.Actor{UserID: uuid.New(), Role: access.RoleAdmin})
	assert.EqualError(t, err, "No company associated with user")
}

func TestService_ResolveActor(t *testing.T) {
	userID := uuid.New()

	t.Run("CurrentRole", func(t *testing.T) {
		svc, repo, _ := newService(t)

		repo.EXPECT().GetUser(gomock.Any(), userID).
			Return(&company.User{ID: userID, CompanyID: &companyID, Role: access.RoleManager}, nil)

		a, err := svc.ResolveActor(context.Background(), userID)
		require.NoError(t, err)
		assert.Equal(t, access.Actor{UserID: userID, CompanyID: companyID, Role: access.RoleManager}, a)
	})

	t.Run("DeletedUser", func(t *testing.T) {
		svc, repo, _ := newService(t)

		repo.EXPECT().GetUser(gomock.Any(), userID).Return(nil, company.ErrNotFound)

		_, err := svc.ResolveActor(context.Background(), userID)
		assert.True(t, apperror.Is(err, apperror.KindForbidden))
	})
}
