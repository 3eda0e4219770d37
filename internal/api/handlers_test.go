package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/counselhub/counselhub/internal/config"
	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/directory"
	"github.com/counselhub/counselhub/internal/message"
	"github.com/counselhub/counselhub/internal/session"
	"github.com/counselhub/counselhub/internal/testutil"
	"github.com/counselhub/counselhub/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newTestApp(t *testing.T, mockRepo database.CounselRepository) *CounselApp {
	logger := testutil.TestLogger(t)
	store := session.NewStore(logger, mockRepo, directory.NewDirectory(mockRepo), nil, nil)
	resolver := session.NewResolver(store)
	channel := message.NewChannel(logger, mockRepo, resolver, nil, nil)

	cfg := &config.Config{
		ServerAddr: "localhost:8000",
		SigningKey: []byte("test-signing-key"),
	}

	return NewCounselApp(http.NewServeMux(), logger, mockRepo, store, channel, resolver, nil, nil, cfg)
}

// findCookie is a helper function to find a cookie by name in the response recorder.
// It returns the cookie if found, or nil if not found.
func findCookie(rr *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range rr.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	buf := &bytes.Buffer{}
	if s, ok := v.(string); ok {
		buf.WriteString(s)
		return buf
	}
	assert.NoError(t, json.NewEncoder(buf).Encode(v))
	return buf
}

func Test_healthCheck(t *testing.T) {
	tcases := []struct {
		name    string
		mockErr error
	}{
		{
			name:    "successful health check",
			mockErr: nil,
		},
		{
			name:    "failed health check",
			mockErr: errors.New("db error"),
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("Ping").Return(tc.mockErr).Once()
			app := newTestApp(t, mockRepo)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			app.healthCheck(rr, req)

			if tc.mockErr != nil {
				assert.Equal(t, http.StatusInternalServerError, rr.Code)
			} else {
				assert.Equal(t, http.StatusOK, rr.Code)
				assert.Equal(t, "OK", rr.Body.String())
			}
		})
	}
}

func TestCreateAccountHandler(t *testing.T) {
	expectedProfile := database.Profile{
		Id:           1,
		Username:     "newuser",
		EmailAddress: "newuser@example.com",
		PasswordHash: "hashedpassword",
		Role:         types.RoleUser,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	tcases := []struct {
		name         string
		body         any
		mockProfile  *database.Profile
		mockErr      error
		expectedCode int
	}{
		{
			name: "successfully creates a new account",
			body: RegisterRequest{
				Username: expectedProfile.Username,
				Email:    expectedProfile.EmailAddress,
				Password: "password",
			},
			mockProfile:  &expectedProfile,
			expectedCode: http.StatusCreated,
		},
		{
			name:         "fails with invalid json body",
			body:         "invalid json",
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails with missing username",
			body: RegisterRequest{
				Email:    expectedProfile.EmailAddress,
				Password: "password",
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "fails when the repository rejects the insert",
			body: RegisterRequest{
				Username: expectedProfile.Username,
				Email:    expectedProfile.EmailAddress,
				Password: "password",
			},
			mockProfile:  &database.Profile{},
			mockErr:      errors.New("duplicate key value violates unique constraint"),
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.mockProfile != nil {
				mockRepo.On("CreateProfile", mock.MatchedBy(func(p database.CreateProfileParams) bool {
					return p.Username == expectedProfile.Username &&
						p.EmailAddress == expectedProfile.EmailAddress &&
						p.Role == types.RoleUser &&
						p.PasswordHash != ""
				})).Return(*tc.mockProfile, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", jsonBody(t, tc.body))
			app.createAccount(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusCreated {
				var profile types.Profile
				assert.NoError(t, json.NewDecoder(rr.Body).Decode(&profile))
				assert.Equal(t, expectedProfile.Username, profile.Username)
				assert.Equal(t, expectedProfile.EmailAddress, profile.EmailAddress)
				assert.Equal(t, types.RoleUser, profile.Role)
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	passwordHash, err := hashPassword("password")
	assert.NoError(t, err)

	dbProfile := database.Profile{
		Id:           1,
		Username:     "user",
		EmailAddress: "user@example.com",
		PasswordHash: passwordHash,
		Role:         types.RoleUser,
	}

	tcases := []struct {
		name         string
		body         any
		mockProfile  *database.Profile
		mockErr      error
		expectedCode int
	}{
		{
			name:         "successful login sets a token cookie",
			body:         LoginRequest{Email: dbProfile.EmailAddress, Password: "password"},
			mockProfile:  &dbProfile,
			expectedCode: http.StatusOK,
		},
		{
			name:         "wrong password",
			body:         LoginRequest{Email: dbProfile.EmailAddress, Password: "nope"},
			mockProfile:  &dbProfile,
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "unknown email",
			body:         LoginRequest{Email: "ghost@example.com", Password: "password"},
			mockProfile:  &database.Profile{},
			mockErr:      sql.ErrNoRows,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "missing credentials",
			body:         LoginRequest{},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			if tc.mockProfile != nil {
				email := tc.body.(LoginRequest).Email
				mockRepo.On("GetProfileByEmail", email).Return(*tc.mockProfile, tc.mockErr).Once()
			}

			app := newTestApp(t, mockRepo)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", jsonBody(t, tc.body))
			app.login(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				cookie := findCookie(rr, tokenCookieKey)
				assert.NotNil(t, cookie, "expected a token cookie to be set")
				assert.NotEmpty(t, cookie.Value)
				assert.True(t, cookie.HttpOnly)
			}
		})
	}
}

func TestUpdateRoleHandler(t *testing.T) {
	tcases := []struct {
		name         string
		body         any
		setupMocks   func(db *database.MockCounselRepository)
		expectedCode int
	}{
		{
			name: "successfully promotes a profile to counselor",
			body: UpdateRoleRequest{UserId: 2, Role: types.RoleCounselor},
			setupMocks: func(db *database.MockCounselRepository) {
				db.On("GetProfileById", 2).Return(database.Profile{Id: 2, Role: types.RoleUser}, nil).Once()
				db.On("UpdateProfileRole", 2, types.RoleCounselor).Return(nil).Once()
			},
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "rejects an unknown role",
			body:         UpdateRoleRequest{UserId: 2, Role: "superuser"},
			setupMocks:   func(db *database.MockCounselRepository) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "unknown profile",
			body: UpdateRoleRequest{UserId: 99, Role: types.RoleCounselor},
			setupMocks: func(db *database.MockCounselRepository) {
				db.On("GetProfileById", 99).Return(database.Profile{}, sql.ErrNoRows).Once()
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "exhausted write cascade maps to service unavailable",
			body: UpdateRoleRequest{UserId: 2, Role: types.RoleCounselor},
			setupMocks: func(db *database.MockCounselRepository) {
				db.On("GetProfileById", 2).Return(database.Profile{Id: 2, Role: types.RoleUser}, nil).Once()
				db.On("UpdateProfileRole", 2, types.RoleCounselor).
					Return(types.ErrUnavailable).Once()
			},
			expectedCode: http.StatusServiceUnavailable,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			tc.setupMocks(mockRepo)
			app := newTestApp(t, mockRepo)

			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/admin/role", jsonBody(t, tc.body))
			app.updateRole(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}
