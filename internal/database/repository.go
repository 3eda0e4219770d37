package database

import "context"

// CounselRepository is the durable store behind the session and message
// services. Writes that may be rejected by a transiently inconsistent
// policy layer (message insert, role update, policy provisioning) take a
// context and run through the resilient write cascade.
type CounselRepository interface {
	Ping() error
	CreateProfile(params CreateProfileParams) (Profile, error)
	UpdateProfile(params UpdateProfileParams) (Profile, error)
	GetProfileById(profileId int) (Profile, error)
	GetProfileByEmail(email string) (Profile, error)
	ProfileExists(profileId int) (bool, error)
	UpdateProfileRole(ctx context.Context, profileId int, role string) error
	CreateSession(params CreateSessionParams) (Session, error)
	GetSessionByExternalId(externalId string) (Session, error)
	UpdateSessionStatus(sessionId int, status string) error
	SetSessionRoom(sessionId int, roomId, joinURL string) error
	DeleteSessionCascade(ctx context.Context, sessionId int) error
	ListSessionsForUser(userId int) ([]Session, error)
	CreateMessage(ctx context.Context, msg Message) error
	GetMessageById(messageId string) (Message, error)
	MarkMessageRead(messageId string) error
	GetSessionMessages(sessionId, offset, limit int) ([]Message, error)
	UnreadCount(sessionId, recipientId int) (int, error)
	UnreadCountsForUser(userId int) (map[int]int, error)
	EnsureMessagePolicies(ctx context.Context) error
}
