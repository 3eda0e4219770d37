package video

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockRoomProvisioner struct {
	mock.Mock
}

func (m *MockRoomProvisioner) Provision(ctx context.Context, sessionId string) (Room, error) {
	args := m.Called(sessionId)
	return args.Get(0).(Room), args.Error(1)
}
