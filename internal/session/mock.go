package session

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) Authorize(ctx context.Context, sessionId string, actorId int) (Role, error) {
	args := m.Called(sessionId, actorId)
	return args.Get(0).(Role), args.Error(1)
}
func (m *MockAuthorizer) ResolveCounterparty(ctx context.Context, sessionId string, actorId int) (int, error) {
	args := m.Called(sessionId, actorId)
	return args.Int(0), args.Error(1)
}
