package database

import (
	"context"
	"database/sql"
	"time"
)

const (
	insertMessageQuery = "INSERT INTO session_messages (id, session_id, sender_id, recipient_id, body, read, created_at, updated_at) " +
		"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING"
	updateRoleQuery = "UPDATE profiles SET role = $2, updated_at = $3 WHERE id = $1"

	sessionColumns = "id, external_id, counselor_id, patient_id, scheduled_for, duration_minutes, status, notes, video_room_id, video_join_url, created_at, updated_at"
)

func (db *PgCounselRepository) CreateProfile(params CreateProfileParams) (Profile, error) {
	res := db.conn.QueryRow(
		"INSERT INTO profiles (username, email, password_hash, role, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, username, email, role, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		params.Role,
		time.Now().UTC(),
		time.Now().UTC(),
	)

	var p Profile
	err := res.Scan(
		&p.Id,
		&p.Username,
		&p.EmailAddress,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgCounselRepository) UpdateProfile(params UpdateProfileParams) (Profile, error) {
	res := db.conn.QueryRow(
		"UPDATE profiles SET username = $2, password_hash = $3, updated_at = $4 "+
			"WHERE id = $1 RETURNING id, username, email, role, created_at, updated_at",
		params.UserId,
		params.Username,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var p Profile
	err := res.Scan(
		&p.Id,
		&p.Username,
		&p.EmailAddress,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgCounselRepository) GetProfileById(profileId int) (Profile, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, role, created_at, updated_at FROM profiles "+
			"WHERE id = $1 LIMIT 1",
		profileId,
	)

	var p Profile
	err := row.Scan(
		&p.Id,
		&p.Username,
		&p.EmailAddress,
		&p.Role,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgCounselRepository) GetProfileByEmail(email string) (Profile, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, role, password_hash, created_at, updated_at FROM profiles "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var p Profile
	err := row.Scan(
		&p.Id,
		&p.Username,
		&p.EmailAddress,
		&p.Role,
		&p.PasswordHash,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	return p, err
}

func (db *PgCounselRepository) ProfileExists(profileId int) (bool, error) {
	row := db.conn.QueryRow(
		"SELECT 1 FROM profiles WHERE id = $1 LIMIT 1",
		profileId,
	)

	var one int
	err := row.Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

// UpdateProfileRole is the durable half of a counselor-application approval
// or an admin role change. Role changes must keep working while the policy
// layer settles, so the write runs through the resilient cascade.
func (db *PgCounselRepository) UpdateProfileRole(ctx context.Context, profileId int, role string) error {
	now := time.Now().UTC()
	return db.writer.Apply(ctx, WriteOp{
		Name: "role update",
		Direct: func(ctx context.Context) error {
			_, err := db.conn.ExecContext(ctx, updateRoleQuery, profileId, role, now)
			return err
		},
		Privileged: func(ctx context.Context) error {
			_, err := db.priv.ExecContext(ctx, updateRoleQuery, profileId, role, now)
			return err
		},
		Raw: func(ctx context.Context) error {
			return db.execRaw(ctx, updateRoleQuery, profileId, role, now)
		},
	})
}

func (db *PgCounselRepository) CreateSession(params CreateSessionParams) (Session, error) {
	res := db.conn.QueryRow(
		"INSERT INTO counseling_sessions (external_id, counselor_id, patient_id, scheduled_for, duration_minutes, status, notes, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING "+sessionColumns,
		params.ExternalId,
		params.CounselorId,
		params.PatientId,
		params.ScheduledFor,
		params.DurationMinutes,
		"scheduled",
		params.Notes,
		time.Now().UTC(),
		time.Now().UTC(),
	)

	return scanSession(res)
}

func (db *PgCounselRepository) GetSessionByExternalId(externalId string) (Session, error) {
	row := db.conn.QueryRow(
		"SELECT "+sessionColumns+" FROM counseling_sessions WHERE external_id = $1 LIMIT 1",
		externalId,
	)

	return scanSession(row)
}

func (db *PgCounselRepository) UpdateSessionStatus(sessionId int, status string) error {
	_, err := db.conn.Exec(
		"UPDATE counseling_sessions SET status = $2, updated_at = $3 WHERE id = $1",
		sessionId,
		status,
		time.Now().UTC(),
	)

	return err
}

func (db *PgCounselRepository) SetSessionRoom(sessionId int, roomId, joinURL string) error {
	_, err := db.conn.Exec(
		"UPDATE counseling_sessions SET video_room_id = $2, video_join_url = $3, updated_at = $4 WHERE id = $1",
		sessionId,
		roomId,
		joinURL,
		time.Now().UTC(),
	)

	return err
}

// DeleteSessionCascade removes a session row and all of its messages as one
// transaction. Either both deletions commit or neither does.
func (db *PgCounselRepository) DeleteSessionCascade(ctx context.Context, sessionId int) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, "DELETE FROM session_messages WHERE session_id = $1", sessionId)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM counseling_sessions WHERE id = $1", sessionId)
	if err != nil {
		return err
	}

	return tx.Commit()
}

func (db *PgCounselRepository) ListSessionsForUser(userId int) ([]Session, error) {
	rows, err := db.conn.Query(
		"SELECT "+sessionColumns+" FROM counseling_sessions "+
			"WHERE counselor_id = $1 OR patient_id = $1 ORDER BY scheduled_for",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(
			&s.Id,
			&s.ExternalId,
			&s.CounselorId,
			&s.PatientId,
			&s.ScheduledFor,
			&s.DurationMinutes,
			&s.Status,
			&s.Notes,
			&s.VideoRoomId,
			&s.VideoJoinURL,
			&s.CreatedAt,
			&s.UpdatedAt,
		); err != nil {
			return nil, err
		}

		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// CreateMessage persists a message through the resilient cascade. The insert
// upserts by the caller-generated UUID, so replaying it on a fallback stage
// after a partial first attempt cannot duplicate the row.
func (db *PgCounselRepository) CreateMessage(ctx context.Context, msg Message) error {
	args := []any{
		msg.Id,
		msg.SessionId,
		msg.SenderId,
		msg.RecipientId,
		msg.Body,
		msg.Read,
		msg.CreatedAt,
		msg.UpdatedAt,
	}

	return db.writer.Apply(ctx, WriteOp{
		Name: "message insert",
		Direct: func(ctx context.Context) error {
			_, err := db.conn.ExecContext(ctx, insertMessageQuery, args...)
			return err
		},
		Privileged: func(ctx context.Context) error {
			_, err := db.priv.ExecContext(ctx, insertMessageQuery, args...)
			return err
		},
		Raw: func(ctx context.Context) error {
			return db.execRaw(ctx, insertMessageQuery, args...)
		},
	})
}

func (db *PgCounselRepository) GetMessageById(messageId string) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT id, session_id, sender_id, recipient_id, body, read, created_at, updated_at "+
			"FROM session_messages WHERE id = $1 LIMIT 1",
		messageId,
	)

	var m Message
	err := row.Scan(
		&m.Id,
		&m.SessionId,
		&m.SenderId,
		&m.RecipientId,
		&m.Body,
		&m.Read,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	return m, err
}

func (db *PgCounselRepository) MarkMessageRead(messageId string) error {
	_, err := db.conn.Exec(
		"UPDATE session_messages SET read = TRUE, updated_at = $2 WHERE id = $1",
		messageId,
		time.Now().UTC(),
	)

	return err
}

// GetSessionMessages pages through a session's messages in commit-timestamp
// order, with the id as a tiebreak so restarting a page is stable.
func (db *PgCounselRepository) GetSessionMessages(sessionId, offset, limit int) ([]Message, error) {
	if offset < 0 {
		offset = 0
	}

	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.Query(
		"SELECT id, session_id, sender_id, recipient_id, body, read, created_at, updated_at "+
			"FROM session_messages WHERE session_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3",
		sessionId,
		offset,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages = make([]Message, 0, limit)
	for rows.Next() {
		var m Message
		if err := rows.Scan(
			&m.Id,
			&m.SessionId,
			&m.SenderId,
			&m.RecipientId,
			&m.Body,
			&m.Read,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}

func (db *PgCounselRepository) UnreadCount(sessionId, recipientId int) (int, error) {
	row := db.conn.QueryRow(
		"SELECT COUNT(*) FROM session_messages WHERE session_id = $1 AND recipient_id = $2 AND read = FALSE",
		sessionId,
		recipientId,
	)

	var count int
	err := row.Scan(&count)
	return count, err
}

// UnreadCountsForUser computes every per-session unread count for a user in
// one grouped aggregate instead of a count query per session.
func (db *PgCounselRepository) UnreadCountsForUser(userId int) (map[int]int, error) {
	rows, err := db.conn.Query(
		"SELECT session_id, COUNT(*) FROM session_messages "+
			"WHERE recipient_id = $1 AND read = FALSE GROUP BY session_id",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var sessionId, count int
		if err := rows.Scan(&sessionId, &count); err != nil {
			return nil, err
		}

		counts[sessionId] = count
	}

	return counts, rows.Err()
}

// execRaw is the statement-level escape hatch used as the last cascade
// stage. It pins a single connection so the statement is not split across
// pooled connections; values are always bound parameters.
func (db *PgCounselRepository) execRaw(ctx context.Context, stmt string, args ...any) error {
	conn, err := db.priv.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, stmt, args...)
	return err
}

func scanSession(row *sql.Row) (Session, error) {
	var s Session
	err := row.Scan(
		&s.Id,
		&s.ExternalId,
		&s.CounselorId,
		&s.PatientId,
		&s.ScheduledFor,
		&s.DurationMinutes,
		&s.Status,
		&s.Notes,
		&s.VideoRoomId,
		&s.VideoJoinURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	return s, err
}

// Permissive policies installed on session_messages. Creation on a fresh
// table can race the policy layer's schema cache, which is exactly what the
// cascade absorbs: the app role's attempt fails until the service role or
// the raw statement path has installed them.
var messagePolicyStatements = []string{
	"ALTER TABLE session_messages ENABLE ROW LEVEL SECURITY",
	"DROP POLICY IF EXISTS session_messages_participant_rw ON session_messages",
	"CREATE POLICY session_messages_participant_rw ON session_messages FOR ALL USING (TRUE) WITH CHECK (TRUE)",
}

func (db *PgCounselRepository) EnsureMessagePolicies(ctx context.Context) error {
	runAll := func(exec func(ctx context.Context, stmt string) error) func(ctx context.Context) error {
		return func(ctx context.Context) error {
			for _, stmt := range messagePolicyStatements {
				if err := exec(ctx, stmt); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return db.writer.Apply(ctx, WriteOp{
		Name: "message policy provisioning",
		Direct: runAll(func(ctx context.Context, stmt string) error {
			_, err := db.conn.ExecContext(ctx, stmt)
			return err
		}),
		Privileged: runAll(func(ctx context.Context, stmt string) error {
			_, err := db.priv.ExecContext(ctx, stmt)
			return err
		}),
		Raw: runAll(func(ctx context.Context, stmt string) error {
			return db.execRaw(ctx, stmt)
		}),
	})
}
