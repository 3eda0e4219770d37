package types

import (
	"time"
)

// Profile roles. A profile starts as RoleUser and is promoted to
// RoleCounselor by an approved counselor application.
const (
	RoleUser      = "user"
	RoleCounselor = "counselor"
	RoleAdmin     = "admin"
)

// Session lifecycle statuses. StatusScheduled is the only initial state;
// the other three are terminal.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusDeleted   = "deleted"
)

func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleCounselor, RoleAdmin:
		return true
	}
	return false
}

func ValidStatus(status string) bool {
	switch status {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusDeleted:
		return true
	}
	return false
}

type Profile struct {
	Id           int       `json:"id"`
	Username     string    `json:"username"`
	EmailAddress string    `json:"email_address,omitempty"`
	Role         string    `json:"role"`
	Password     string    `json:"-"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

type VideoRoom struct {
	RoomId    string    `json:"room_id"`
	JoinURL   string    `json:"join_url"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type Session struct {
	Id              string     `json:"id"`
	CounselorId     int        `json:"counselor_id"`
	PatientId       int        `json:"patient_id"`
	ScheduledFor    time.Time  `json:"scheduled_for"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	VideoRoom       *VideoRoom `json:"video_room,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
}

// SessionListing is a session as it appears in a user's session list,
// annotated with the number of messages the user has not read yet.
type SessionListing struct {
	Session
	UnreadCount int `json:"unread_count"`
}

type Message struct {
	Id          string    `json:"id"`
	SessionId   string    `json:"session_id"`
	SenderId    int       `json:"sender_id"`
	RecipientId int       `json:"recipient_id"`
	Body        string    `json:"body"`
	Read        bool      `json:"read"`
	Timestamp   time.Time `json:"timestamp"`
}
