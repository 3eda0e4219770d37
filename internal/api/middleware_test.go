package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	t.Run("resolves the actor from a valid token cookie", func(t *testing.T) {
		mockRepo := &database.MockCounselRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo)

		token, err := app.createJwtForSession(types.Profile{Id: 42}, time.Hour)
		assert.NoError(t, err)

		var gotUserId int
		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			gotUserId, _ = UserId(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.AddCookie(createJwtCookie(token, time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, 42, gotUserId)
		assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	})

	t.Run("rejects a request without a token cookie", func(t *testing.T) {
		app := newTestApp(t, &database.MockCounselRepository{})

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		})

		rr := httptest.NewRecorder()
		handler(rr, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("rejects a token signed with another key", func(t *testing.T) {
		app := newTestApp(t, &database.MockCounselRepository{})

		forger := newTestApp(t, &database.MockCounselRepository{})
		forger.signingKey = []byte("other-key")
		token, err := forger.createJwtForSession(types.Profile{Id: 42}, time.Hour)
		assert.NoError(t, err)

		handler := app.authMiddleware(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler must not run")
		})

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.AddCookie(createJwtCookie(token, time.Hour))
		handler(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestAdminMiddleware(t *testing.T) {
	tcases := []struct {
		name         string
		role         string
		expectedCode int
	}{
		{
			name:         "admin passes through",
			role:         types.RoleAdmin,
			expectedCode: http.StatusOK,
		},
		{
			name:         "counselor is forbidden",
			role:         types.RoleCounselor,
			expectedCode: http.StatusForbidden,
		},
		{
			name:         "regular user is forbidden",
			role:         types.RoleUser,
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetProfileById", 1).Return(database.Profile{Id: 1, Role: tc.role}, nil).Once()

			app := newTestApp(t, mockRepo)

			handler := app.adminMiddleware(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			rr := httptest.NewRecorder()
			req := withActor(httptest.NewRequest(http.MethodPost, "/api/admin/role", nil), 1)
			handler(rr, req)

			assert.Equal(t, tc.expectedCode, rr.Code)
		})
	}
}
