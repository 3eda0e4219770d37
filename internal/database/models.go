package database

import (
	"database/sql"
	"time"
)

type Profile struct {
	Id           int
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	Id              int
	ExternalId      string
	CounselorId     int
	PatientId       int
	ScheduledFor    time.Time
	DurationMinutes int
	Status          string
	Notes           string
	VideoRoomId     sql.NullString
	VideoJoinURL    sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Message struct {
	Id          string
	SessionId   int
	SenderId    int
	RecipientId int
	Body        string
	Read        bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateProfileParams struct {
	Username     string
	EmailAddress string
	PasswordHash string
	Role         string
}

type UpdateProfileParams struct {
	UserId       int
	Username     string
	PasswordHash string
}

type CreateSessionParams struct {
	ExternalId      string
	CounselorId     int
	PatientId       int
	ScheduledFor    time.Time
	DurationMinutes int
	Notes           string
}
