package session

import (
	"context"
	"database/sql"
	"testing"

	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/directory"
	"github.com/counselhub/counselhub/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestResolverAuthorize(t *testing.T) {
	tcases := []struct {
		name         string
		actorId      int
		mockSession  database.Session
		mockErr      error
		expectedRole Role
		expectedErr  error
	}{
		{
			name:         "counselor participant",
			actorId:      1,
			mockSession:  database.Session{Id: 10, ExternalId: "sess-abc123", CounselorId: 1, PatientId: 2},
			expectedRole: RoleCounselor,
		},
		{
			name:         "patient participant",
			actorId:      2,
			mockSession:  database.Session{Id: 10, ExternalId: "sess-abc123", CounselorId: 1, PatientId: 2},
			expectedRole: RolePatient,
		},
		{
			name:        "outsider is rejected",
			actorId:     3,
			mockSession: database.Session{Id: 10, ExternalId: "sess-abc123", CounselorId: 1, PatientId: 2},
			expectedErr: types.ErrForbidden,
		},
		{
			name:        "unknown session",
			actorId:     1,
			mockErr:     sql.ErrNoRows,
			expectedErr: types.ErrNotFound,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetSessionByExternalId", "sess-abc123").Return(tc.mockSession, tc.mockErr).Once()

			resolver := NewResolver(newTestStore(t, mockRepo, &directory.MockDirectory{}, nil))

			role, err := resolver.Authorize(context.Background(), "sess-abc123", tc.actorId)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expectedRole, role)
		})
	}
}

func TestResolveCounterparty(t *testing.T) {
	tcases := []struct {
		name        string
		actorId     int
		expected    int
		expectedErr error
	}{
		{
			name:     "counselor's counterparty is the patient",
			actorId:  1,
			expected: 2,
		},
		{
			name:     "patient's counterparty is the counselor",
			actorId:  2,
			expected: 1,
		},
		{
			name:        "outsider has no counterparty",
			actorId:     3,
			expectedErr: types.ErrForbidden,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockCounselRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetSessionByExternalId", "sess-abc123").Return(database.Session{
				Id: 10, ExternalId: "sess-abc123", CounselorId: 1, PatientId: 2,
			}, nil).Once()

			resolver := NewResolver(newTestStore(t, mockRepo, &directory.MockDirectory{}, nil))

			counterparty, err := resolver.ResolveCounterparty(context.Background(), "sess-abc123", tc.actorId)
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, counterparty)
		})
	}
}
