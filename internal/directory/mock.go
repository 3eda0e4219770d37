package directory

import (
	"github.com/counselhub/counselhub/internal/types"
	"github.com/stretchr/testify/mock"
)

type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) GetRole(userId int) (string, error) {
	args := m.Called(userId)
	return args.String(0), args.Error(1)
}
func (m *MockDirectory) Exists(userId int) (bool, error) {
	args := m.Called(userId)
	return args.Bool(0), args.Error(1)
}
func (m *MockDirectory) GetProfile(userId int) (types.Profile, error) {
	args := m.Called(userId)
	return args.Get(0).(types.Profile), args.Error(1)
}
