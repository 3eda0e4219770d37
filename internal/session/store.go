package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/directory"
	"github.com/counselhub/counselhub/internal/stats"
	"github.com/counselhub/counselhub/internal/types"
	"github.com/counselhub/counselhub/internal/video"
)

const sessionsCreatedMetric = "SessionsCreated"

// Participants is a session's authorized participant set. It is fixed at
// creation and never mutated.
type Participants struct {
	CounselorId int `json:"counselor_id"`
	PatientId   int `json:"patient_id"`
}

type CreateParams struct {
	CounselorId     int
	PatientId       int
	ScheduledFor    string
	DurationMinutes int
	Notes           string
	VideoRequested  bool
}

// Store owns counseling session rows and their lifecycle transitions.
type Store struct {
	log             *log.Logger
	db              database.CounselRepository
	dir             directory.ProfileDirectory
	rooms           video.RoomProvisioner
	stats           stats.StatsProvider
	generateShortId func() (string, error)
}

func NewStore(logger *log.Logger, db database.CounselRepository, dir directory.ProfileDirectory, rooms video.RoomProvisioner, st stats.StatsProvider) *Store {
	if st != nil {
		st.RegisterMetric(sessionsCreatedMetric)
	}

	return &Store{
		log:             logger,
		db:              db,
		dir:             dir,
		rooms:           rooms,
		stats:           st,
		generateShortId: generateShortId,
	}
}

// Create books a session between a counselor and a patient. A failed video
// provisioning attempt is non-fatal: the session is created without a room
// and a participant may retry through EnsureRoom.
func (s *Store) Create(ctx context.Context, params CreateParams) (types.Session, error) {
	scheduledFor, err := time.Parse(time.RFC3339, params.ScheduledFor)
	if err != nil {
		return types.Session{}, fmt.Errorf("%w: scheduled_for %q is not a valid timestamp", types.ErrInvalidArgument, params.ScheduledFor)
	}

	if params.DurationMinutes <= 0 {
		return types.Session{}, fmt.Errorf("%w: duration must be positive", types.ErrInvalidArgument)
	}

	if params.CounselorId == params.PatientId {
		return types.Session{}, fmt.Errorf("%w: counselor and patient must differ", types.ErrInvalidArgument)
	}

	for _, id := range []int{params.CounselorId, params.PatientId} {
		exists, err := s.dir.Exists(id)
		if err != nil {
			return types.Session{}, fmt.Errorf("check profile %d: %w", id, err)
		}
		if !exists {
			return types.Session{}, fmt.Errorf("%w: unknown profile %d", types.ErrInvalidArgument, id)
		}
	}

	role, err := s.dir.GetRole(params.CounselorId)
	if err != nil {
		return types.Session{}, fmt.Errorf("resolve counselor role: %w", err)
	}
	if role != types.RoleCounselor {
		return types.Session{}, fmt.Errorf("%w: profile %d is not a counselor", types.ErrInvalidArgument, params.CounselorId)
	}

	externalId, err := s.generateShortId()
	if err != nil {
		return types.Session{}, fmt.Errorf("generate session id: %w", err)
	}

	dbSession, err := s.db.CreateSession(database.CreateSessionParams{
		ExternalId:      externalId,
		CounselorId:     params.CounselorId,
		PatientId:       params.PatientId,
		ScheduledFor:    scheduledFor.UTC(),
		DurationMinutes: params.DurationMinutes,
		Notes:           params.Notes,
	})
	if err != nil {
		return types.Session{}, fmt.Errorf("create session: %w", err)
	}

	if params.VideoRequested {
		if _, err := s.provisionRoom(ctx, &dbSession); err != nil {
			s.log.Printf("session %s: video provisioning failed, continuing without room: %v", dbSession.ExternalId, err)
		}
	}

	if s.stats != nil {
		s.stats.Incr(sessionsCreatedMetric)
	}

	return toApiSession(dbSession), nil
}

// GetParticipants returns the session's participant set. Tombstoned
// sessions remain queryable; hard-deleted ones do not.
func (s *Store) GetParticipants(ctx context.Context, sessionId string) (Participants, error) {
	dbSession, err := s.lookup(sessionId)
	if err != nil {
		return Participants{}, err
	}

	return Participants{
		CounselorId: dbSession.CounselorId,
		PatientId:   dbSession.PatientId,
	}, nil
}

// Delete applies the time-based deletion rule. Only the patient, as the
// booking party, may delete; a counselor-side cancellation is a status
// transition, not a delete.
func (s *Store) Delete(ctx context.Context, sessionId string, actorId int) error {
	dbSession, err := s.lookup(sessionId)
	if err != nil {
		return err
	}

	if actorId != dbSession.PatientId {
		return fmt.Errorf("%w: session %s", types.ErrForbidden, sessionId)
	}

	if dbSession.ScheduledFor.After(time.Now().UTC()) {
		if err := s.db.DeleteSessionCascade(ctx, dbSession.Id); err != nil {
			s.log.Printf("session %s: cascade delete failed: %v", sessionId, err)
			return fmt.Errorf("%w: session delete incomplete, retry the delete", types.ErrUnavailable)
		}
		return nil
	}

	// Past sessions keep their history: tombstone instead of removing.
	if err := s.db.UpdateSessionStatus(dbSession.Id, types.StatusDeleted); err != nil {
		return fmt.Errorf("tombstone session: %w", err)
	}

	return nil
}

// Transition moves a session to a terminal status. Only transitions out of
// the scheduled state are legal.
func (s *Store) Transition(ctx context.Context, sessionId, newStatus string) error {
	if !types.ValidStatus(newStatus) {
		return fmt.Errorf("%w: unknown status %q", types.ErrInvalidArgument, newStatus)
	}

	dbSession, err := s.lookup(sessionId)
	if err != nil {
		return err
	}

	if dbSession.Status != types.StatusScheduled || newStatus == types.StatusScheduled {
		return fmt.Errorf("%w: cannot transition %s from %q to %q", types.ErrInvalidState, sessionId, dbSession.Status, newStatus)
	}

	if err := s.db.UpdateSessionStatus(dbSession.Id, newStatus); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}

	return nil
}

// EnsureRoom returns the session's video room, provisioning one on first
// request. Idempotent: an existing descriptor is returned without another
// vendor call.
func (s *Store) EnsureRoom(ctx context.Context, sessionId string, actorId int) (video.Room, error) {
	dbSession, err := s.lookup(sessionId)
	if err != nil {
		return video.Room{}, err
	}

	if actorId != dbSession.CounselorId && actorId != dbSession.PatientId {
		return video.Room{}, fmt.Errorf("%w: session %s", types.ErrForbidden, sessionId)
	}

	if dbSession.VideoRoomId.Valid {
		return video.Room{
			RoomId:  dbSession.VideoRoomId.String,
			JoinURL: dbSession.VideoJoinURL.String,
		}, nil
	}

	room, err := s.provisionRoom(ctx, &dbSession)
	if err != nil {
		return video.Room{}, fmt.Errorf("%w: room provisioning failed", types.ErrUnavailable)
	}

	return room, nil
}

// ListForUser returns every session the actor participates in, each with
// its unread message count. The counts come from one grouped aggregate
// query, not one count query per session.
func (s *Store) ListForUser(ctx context.Context, actorId int) ([]types.SessionListing, error) {
	dbSessions, err := s.db.ListSessionsForUser(actorId)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	counts, err := s.db.UnreadCountsForUser(actorId)
	if err != nil {
		return nil, fmt.Errorf("unread counts: %w", err)
	}

	listings := make([]types.SessionListing, 0, len(dbSessions))
	for _, dbSession := range dbSessions {
		listings = append(listings, types.SessionListing{
			Session:     toApiSession(dbSession),
			UnreadCount: counts[dbSession.Id],
		})
	}

	return listings, nil
}

func (s *Store) lookup(sessionId string) (database.Session, error) {
	dbSession, err := s.db.GetSessionByExternalId(sessionId)
	if errors.Is(err, sql.ErrNoRows) {
		return database.Session{}, fmt.Errorf("%w: session %s", types.ErrNotFound, sessionId)
	}
	if err != nil {
		return database.Session{}, fmt.Errorf("get session: %w", err)
	}

	return dbSession, nil
}

func (s *Store) provisionRoom(ctx context.Context, dbSession *database.Session) (video.Room, error) {
	if s.rooms == nil {
		return video.Room{}, fmt.Errorf("room provisioning is not configured")
	}

	room, err := s.rooms.Provision(ctx, dbSession.ExternalId)
	if err != nil {
		return video.Room{}, err
	}

	if err := s.db.SetSessionRoom(dbSession.Id, room.RoomId, room.JoinURL); err != nil {
		return video.Room{}, fmt.Errorf("persist room descriptor: %w", err)
	}

	dbSession.VideoRoomId = sql.NullString{String: room.RoomId, Valid: true}
	dbSession.VideoJoinURL = sql.NullString{String: room.JoinURL, Valid: true}

	return room, nil
}

func toApiSession(dbSession database.Session) types.Session {
	s := types.Session{
		Id:              dbSession.ExternalId,
		CounselorId:     dbSession.CounselorId,
		PatientId:       dbSession.PatientId,
		ScheduledFor:    dbSession.ScheduledFor,
		DurationMinutes: dbSession.DurationMinutes,
		Status:          dbSession.Status,
		Notes:           dbSession.Notes,
		CreatedAt:       dbSession.CreatedAt,
		UpdatedAt:       dbSession.UpdatedAt,
	}

	if dbSession.VideoRoomId.Valid {
		s.VideoRoom = &types.VideoRoom{
			RoomId:  dbSession.VideoRoomId.String,
			JoinURL: dbSession.VideoJoinURL.String,
		}
	}

	return s
}
