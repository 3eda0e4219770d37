package database

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCounselRepository struct {
	mock.Mock
}

func (m *MockCounselRepository) Ping() error {
	args := m.Called()
	return args.Error(0)
}
func (m *MockCounselRepository) CreateProfile(params CreateProfileParams) (Profile, error) {
	args := m.Called(params)
	return args.Get(0).(Profile), args.Error(1)
}
func (m *MockCounselRepository) UpdateProfile(params UpdateProfileParams) (Profile, error) {
	args := m.Called(params)
	return args.Get(0).(Profile), args.Error(1)
}
func (m *MockCounselRepository) GetProfileById(profileId int) (Profile, error) {
	args := m.Called(profileId)
	return args.Get(0).(Profile), args.Error(1)
}
func (m *MockCounselRepository) GetProfileByEmail(email string) (Profile, error) {
	args := m.Called(email)
	return args.Get(0).(Profile), args.Error(1)
}
func (m *MockCounselRepository) ProfileExists(profileId int) (bool, error) {
	args := m.Called(profileId)
	return args.Bool(0), args.Error(1)
}
func (m *MockCounselRepository) UpdateProfileRole(ctx context.Context, profileId int, role string) error {
	args := m.Called(profileId, role)
	return args.Error(0)
}
func (m *MockCounselRepository) CreateSession(params CreateSessionParams) (Session, error) {
	args := m.Called(params)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockCounselRepository) GetSessionByExternalId(externalId string) (Session, error) {
	args := m.Called(externalId)
	return args.Get(0).(Session), args.Error(1)
}
func (m *MockCounselRepository) UpdateSessionStatus(sessionId int, status string) error {
	args := m.Called(sessionId, status)
	return args.Error(0)
}
func (m *MockCounselRepository) SetSessionRoom(sessionId int, roomId, joinURL string) error {
	args := m.Called(sessionId, roomId, joinURL)
	return args.Error(0)
}
func (m *MockCounselRepository) DeleteSessionCascade(ctx context.Context, sessionId int) error {
	args := m.Called(sessionId)
	return args.Error(0)
}
func (m *MockCounselRepository) ListSessionsForUser(userId int) ([]Session, error) {
	args := m.Called(userId)
	return args.Get(0).([]Session), args.Error(1)
}
func (m *MockCounselRepository) CreateMessage(ctx context.Context, msg Message) error {
	args := m.Called(msg)
	return args.Error(0)
}
func (m *MockCounselRepository) GetMessageById(messageId string) (Message, error) {
	args := m.Called(messageId)
	return args.Get(0).(Message), args.Error(1)
}
func (m *MockCounselRepository) MarkMessageRead(messageId string) error {
	args := m.Called(messageId)
	return args.Error(0)
}
func (m *MockCounselRepository) GetSessionMessages(sessionId, offset, limit int) ([]Message, error) {
	args := m.Called(sessionId, offset, limit)
	return args.Get(0).([]Message), args.Error(1)
}
func (m *MockCounselRepository) UnreadCount(sessionId, recipientId int) (int, error) {
	args := m.Called(sessionId, recipientId)
	return args.Int(0), args.Error(1)
}
func (m *MockCounselRepository) UnreadCountsForUser(userId int) (map[int]int, error) {
	args := m.Called(userId)
	return args.Get(0).(map[int]int), args.Error(1)
}
func (m *MockCounselRepository) EnsureMessagePolicies(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
