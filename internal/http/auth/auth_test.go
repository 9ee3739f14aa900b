package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/access"
	"github.com/MrJamesThe3rd/ledgerly/internal/apperror"
	"github.com/MrJamesThe3rd/ledgerly/internal/company"
)

var (
	userID    = uuid.MustParse("1c2d3e4f-5a6b-4c7d-8e9f-0a1b2c3d4e5f")
	companyID = uuid.MustParse("2d3e4f5a-6b7c-4d8e-9f0a-1b2c3d4e5f6a")
)

type resolverFunc func(ctx context.Context, id uuid.UUID) (access.Actor, error)

func (f resolverFunc) ResolveActor(ctx context.Context, id uuid.UUID) (access.Actor, error) {
	return f(ctx, id)
}

func fixedIssuer(at time.Time) *Issuer {
	i := NewIssuer("test-secret", time.Hour)
	i.now = func() time.Time { return at }

	return i
}

func TestIssuer_RoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer(now)

	token, exp, err := iss.Issue(userID)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	got, err := iss.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestIssuer_Rejects(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	iss := fixedIssuer(now)

	valid, _, err := iss.Issue(userID)
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		iss   *Issuer
	}{
		{name: "Expired", token: valid, iss: fixedIssuer(now.Add(2 * time.Hour))},
		{name: "WrongSecret", token: valid, iss: NewIssuer("other-secret", time.Hour)},
		{name: "NoneAlgorithm", token: noneAlg, iss: iss},
		{name: "Garbage", token: "not.a.token", iss: iss},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.iss.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	iss := NewIssuer("test-secret", time.Hour)
	token, _, err := iss.Issue(userID)
	require.NoError(t, err)

	member := access.Actor{UserID: userID, CompanyID: companyID, Role: access.RoleMember}

	tests := []struct {
		name       string
		header     string
		resolver   resolverFunc
		wantStatus int
	}{
		{
			name:   "ValidToken",
			header: "Bearer " + token,
			resolver: func(_ context.Context, id uuid.UUID) (access.Actor, error) {
				assert.Equal(t, userID, id)
				return member, nil
			},
			wantStatus: http.StatusOK,
		},
		{name: "MissingHeader", wantStatus: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "BadToken", header: "Bearer nope", wantStatus: http.StatusUnauthorized},
		{
			name:   "DeletedUser",
			header: "Bearer " + token,
			resolver: func(context.Context, uuid.UUID) (access.Actor, error) {
				return access.Actor{}, apperror.Forbidden("Unknown user")
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:   "StoreDown",
			header: "Bearer " + token,
			resolver: func(context.Context, uuid.UUID) (access.Actor, error) {
				return access.Actor{}, apperror.Store(errors.New("connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got access.Actor

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got, _ = access.FromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			Middleware(iss, tt.resolver)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, member, got)
			}
		})
	}
}

type fakeAccounts struct {
	user *company.User
	err  error
}

func (f *fakeAccounts) Signup(_ context.Context, p company.SignupParams) (*company.User, *company.Company, error) {
	if f.err != nil {
		return nil, nil, f.err
	}

	return f.user, &company.Company{ID: companyID, Name: p.CompanyName}, nil
}

func (f *fakeAccounts) Authenticate(context.Context, string, string) (*company.User, error) {
	return f.user, f.err
}

func TestHandler(t *testing.T) {
	user := &company.User{ID: userID, Name: "Ana", Email: "ana@example.com", Role: access.RoleAdmin, CompanyID: &companyID}
	iss := NewIssuer("test-secret", time.Hour)

	tests := []struct {
		name       string
		path       string
		body       string
		accounts   *fakeAccounts
		wantStatus int
		wantKind   apperror.Kind
	}{
		{
			name:       "Signup",
			path:       "/signup",
			body:       `{"name":"Ana","email":"ana@example.com","password":"secret1","company_name":"Acme"}`,
			accounts:   &fakeAccounts{user: user},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "SignupInvalid",
			path:       "/signup",
			body:       `{"name":"Ana"}`,
			accounts:   &fakeAccounts{err: apperror.InvalidArgument("Name, email, and password are required")},
			wantStatus: http.StatusBadRequest,
			wantKind:   apperror.KindInvalidArgument,
		},
		{
			name:       "MalformedBody",
			path:       "/token",
			body:       `{`,
			accounts:   &fakeAccounts{},
			wantStatus: http.StatusBadRequest,
			wantKind:   apperror.KindInvalidArgument,
		},
		{
			name:       "Token",
			path:       "/token",
			body:       `{"email":"ana@example.com","password":"secret1"}`,
			accounts:   &fakeAccounts{user: user},
			wantStatus: http.StatusOK,
		},
		{
			name:       "BadCredentials",
			path:       "/token",
			body:       `{"email":"ana@example.com","password":"nope"}`,
			accounts:   &fakeAccounts{err: apperror.Forbidden("Invalid email or password")},
			wantStatus: http.StatusUnauthorized,
			wantKind:   apperror.KindForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			NewHandler(tt.accounts, iss).Routes(r)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body)))

			require.Equal(t, tt.wantStatus, rec.Code)

			var env struct {
				Success bool          `json:"success"`
				Data    tokenResponse `json:"data"`
				Kind    apperror.Kind `json:"kind"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))

			if tt.wantKind != "" {
				assert.False(t, env.Success)
				assert.Equal(t, tt.wantKind, env.Kind)

				return
			}

			assert.True(t, env.Success)
			assert.Equal(t, userID, env.Data.User.ID)

			id, err := iss.Parse(env.Data.Token)
			require.NoError(t, err)
			assert.Equal(t, userID, id)
		})
	}
}
