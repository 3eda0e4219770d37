package message

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/counselhub/counselhub/internal/database"
	"github.com/counselhub/counselhub/internal/session"
	"github.com/counselhub/counselhub/internal/stats"
	"github.com/counselhub/counselhub/internal/types"
	"github.com/google/uuid"
)

const messagesSentMetric = "MessagesSent"

// EventPublisher receives committed messages for live delivery to connected
// session participants.
type EventPublisher interface {
	PublishMessage(sessionId string, msg types.Message)
}

type SendParams struct {
	SessionId   string
	SenderId    int
	Body        string
	RecipientId int // 0 means default to the counterparty
}

// Channel owns session messages: durable send, read tracking and unread
// aggregation. All access authorizes through the participant resolver.
type Channel struct {
	log    *log.Logger
	db     database.CounselRepository
	auth   session.Authorizer
	events EventPublisher
	stats  stats.StatsProvider
}

func NewChannel(logger *log.Logger, db database.CounselRepository, auth session.Authorizer, events EventPublisher, st stats.StatsProvider) *Channel {
	if st != nil {
		st.RegisterMetric(messagesSentMetric)
	}

	return &Channel{
		log:    logger,
		db:     db,
		auth:   auth,
		events: events,
		stats:  st,
	}
}

// Send persists a message for the session. The recipient defaults to the
// sender's counterparty; a supplied recipient must be that counterparty, so
// a participant can never address a third party under the session's id.
func (c *Channel) Send(ctx context.Context, params SendParams) (types.Message, error) {
	body := strings.TrimSpace(params.Body)
	if body == "" {
		return types.Message{}, fmt.Errorf("%w: message body is empty", types.ErrInvalidArgument)
	}

	if _, err := c.auth.Authorize(ctx, params.SessionId, params.SenderId); err != nil {
		return types.Message{}, err
	}

	counterparty, err := c.auth.ResolveCounterparty(ctx, params.SessionId, params.SenderId)
	if err != nil {
		return types.Message{}, err
	}

	recipient := params.RecipientId
	if recipient == 0 {
		recipient = counterparty
	} else if recipient != counterparty {
		return types.Message{}, fmt.Errorf("%w: recipient is not the session counterparty", types.ErrForbidden)
	}

	dbSession, err := c.db.GetSessionByExternalId(params.SessionId)
	if err != nil {
		return types.Message{}, fmt.Errorf("get session: %w", err)
	}

	now := time.Now().UTC()
	dbMsg := database.Message{
		Id:          uuid.NewString(),
		SessionId:   dbSession.Id,
		SenderId:    params.SenderId,
		RecipientId: recipient,
		Body:        body,
		Read:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := c.db.CreateMessage(ctx, dbMsg); err != nil {
		return types.Message{}, err
	}

	if c.stats != nil {
		c.stats.Incr(messagesSentMetric)
	}

	msg := toApiMessage(dbMsg, params.SessionId)
	if c.events != nil {
		c.events.PublishMessage(params.SessionId, msg)
	}

	return msg, nil
}

// MarkRead flips a message's read flag. Only the recipient may read a
// message; marking an already-read message again is a no-op success.
func (c *Channel) MarkRead(ctx context.Context, messageId string, readerId int) error {
	dbMsg, err := c.db.GetMessageById(messageId)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: message %s", types.ErrNotFound, messageId)
	}
	if err != nil {
		return fmt.Errorf("get message: %w", err)
	}

	if dbMsg.RecipientId != readerId {
		return fmt.Errorf("%w: message %s", types.ErrForbidden, messageId)
	}

	if dbMsg.Read {
		return nil
	}

	if err := c.db.MarkMessageRead(messageId); err != nil {
		return fmt.Errorf("mark message read: %w", err)
	}

	return nil
}

// ListForSession pages through the session's messages in creation order.
func (c *Channel) ListForSession(ctx context.Context, sessionId string, actorId, offset, limit int) ([]types.Message, error) {
	if _, err := c.auth.Authorize(ctx, sessionId, actorId); err != nil {
		return nil, err
	}

	dbSession, err := c.db.GetSessionByExternalId(sessionId)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	dbMessages, err := c.db.GetSessionMessages(dbSession.Id, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	messages := make([]types.Message, 0, len(dbMessages))
	for _, dbMsg := range dbMessages {
		messages = append(messages, toApiMessage(dbMsg, sessionId))
	}

	return messages, nil
}

// UnreadCount returns the actor's unread message count for one session.
func (c *Channel) UnreadCount(ctx context.Context, sessionId string, actorId int) (int, error) {
	if _, err := c.auth.Authorize(ctx, sessionId, actorId); err != nil {
		return 0, err
	}

	dbSession, err := c.db.GetSessionByExternalId(sessionId)
	if err != nil {
		return 0, fmt.Errorf("get session: %w", err)
	}

	count, err := c.db.UnreadCount(dbSession.Id, actorId)
	if err != nil {
		return 0, fmt.Errorf("unread count: %w", err)
	}

	return count, nil
}

func toApiMessage(dbMsg database.Message, sessionId string) types.Message {
	return types.Message{
		Id:          dbMsg.Id,
		SessionId:   sessionId,
		SenderId:    dbMsg.SenderId,
		RecipientId: dbMsg.RecipientId,
		Body:        dbMsg.Body,
		Read:        dbMsg.Read,
		Timestamp:   dbMsg.CreatedAt,
	}
}
