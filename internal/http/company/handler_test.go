package company

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
)

var companyID = uuid.MustParse("3f2a1b0c-9d8e-4f7a-8b6c-5d4e3f2a1b0c")

func TestHandler(t *testing.T) {
	adminID := uuid.New()
	memberID := uuid.New()
	admin := access.Actor{UserID: adminID, CompanyID: companyID, Role: access.RoleAdmin}
	member := access.Actor{UserID: memberID, CompanyID: companyID, Role: access.RoleMember}

	tests := []struct {
		name       string
		actor      access.Actor
		method     string
		path       string
		body       string
		setupMock  func(repo *company.MockRepository, pub *company.MockPublisher)
		wantStatus int
		wantKind   apperror.Kind
		check      func(t *testing.T, data json.RawMessage)
	}{
		{
			name:   "GetCompany",
			actor:  member,
			method: http.MethodGet,
			path:   "/",
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetCompany(gomock.Any(), companyID).Return(&company.Company{ID: companyID, Name: "Acme", OwnerID: adminID}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				var c companyResponse
				require.NoError(t, json.Unmarshal(data, &c))
				assert.Equal(t, "Acme", c.Name)
				assert.Equal(t, adminID, c.OwnerID)
			},
		},
		{
			name:   "RenameAsAdmin",
			actor:  admin,
			method: http.MethodPatch,
			path:   "/",
			body:   `{"name":"  Acme Ltd "}`,
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().RenameCompany(gomock.Any(), companyID, "Acme Ltd").Return(&company.Company{ID: companyID, Name: "Acme Ltd"}, nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "RenameAsMember",
			actor:      member,
			method:     http.MethodPatch,
			path:       "/",
			body:       `{"name":"Acme Ltd"}`,
			wantStatus: http.StatusForbidden,
			wantKind:   apperror.KindForbidden,
		},
		{
			name:   "CreateForCompanylessUser",
			actor:  access.Actor{UserID: memberID, Role: access.RoleMember},
			method: http.MethodPost,
			path:   "/",
			body:   `{"name":"Side Gig"}`,
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUser(gomock.Any(), memberID).Return(&company.User{ID: memberID, Role: access.RoleMember}, nil)
				repo.EXPECT().CreateCompanyForUser(gomock.Any(), gomock.Any(), memberID).Return(nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:   "ListUsers",
			actor:  member,
			method: http.MethodGet,
			path:   "/users",
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().ListUsers(gomock.Any(), companyID).Return([]*company.User{
					{ID: memberID, Name: "Bo", Email: "bo@example.com", Role: access.RoleMember, PasswordHash: "secret"},
				}, nil)
			},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, data json.RawMessage) {
				assert.NotContains(t, string(data), "secret")

				var users []userResponse
				require.NoError(t, json.Unmarshal(data, &users))
				require.Len(t, users, 1)
				assert.Equal(t, "bo@example.com", users[0].Email)
			},
		},
		{
			name:   "InviteNewUser",
			actor:  admin,
			method: http.MethodPost,
			path:   "/users/invite",
			body:   `{"email":"cy@example.com","role":"manager"}`,
			setupMock: func(repo *company.MockRepository, pub *company.MockPublisher) {
				repo.EXPECT().GetUserByEmail(gomock.Any(), "cy@example.com").Return(nil, company.ErrNotFound)
				repo.EXPECT().CreateUser(gomock.Any(), gomock.Any()).Return(nil)
				pub.EXPECT().Publish(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusCreated,
			check: func(t *testing.T, data json.RawMessage) {
				var inv invitationResponse
				require.NoError(t, json.Unmarshal(data, &inv))
				assert.NotEmpty(t, inv.TempPassword)
				assert.Equal(t, access.RoleManager, inv.User.Role)
			},
		},
		{
			name:       "InviteUnknownRole",
			actor:      admin,
			method:     http.MethodPost,
			path:       "/users/invite",
			body:       `{"email":"cy@example.com","role":"owner"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   apperror.KindInvalidArgument,
		},
		{
			name:       "UpdateRoleBadID",
			actor:      admin,
			method:     http.MethodPatch,
			path:       "/users/nope/role",
			body:       `{"role":"manager"}`,
			wantStatus: http.StatusBadRequest,
			wantKind:   apperror.KindInvalidArgument,
		},
		{
			name:   "UpdateRoleUserNotFound",
			actor:  admin,
			method: http.MethodPatch,
			path:   "/users/" + memberID.String() + "/role",
			body:   `{"role":"manager"}`,
			setupMock: func(repo *company.MockRepository, _ *company.MockPublisher) {
				repo.EXPECT().GetUser(gomock.Any(), memberID).Return(nil, company.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantKind:   apperror.KindNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := company.NewMockRepository(ctrl)
			pub := company.NewMockPublisher(ctrl)

			if tt.setupMock != nil {
				tt.setupMock(repo, pub)
			}

			r := chi.NewRouter()
			NewHandler(company.NewService(repo, pub)).Routes(r)

			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req.WithContext(access.WithActor(req.Context(), tt.actor)))

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			var env struct {
				Success bool            `json:"success"`
				Data    json.RawMessage `json:"data"`
				Kind    apperror.Kind   `json:"kind"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))

			if tt.wantKind != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantKind, env.Kind)

				return
			}

			assert.True(t, env.Success)

			if tt.check != nil {
				tt.check(t, env.Data)
			}
		})
	}
}
