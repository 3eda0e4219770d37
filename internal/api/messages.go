package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/counselhub/counselhub/internal/message"
)

type SendMessageRequest struct {
	SessionId   string `json:"session_id"`
	Body        string `json:"body"`
	RecipientId int    `json:"recipient_id,omitempty"`
}

type MarkReadRequest struct {
	MessageId string `json:"message_id"`
}

type UnreadCountResponse struct {
	SessionId string `json:"session_id"`
	Unread    int    `json:"unread"`
}

func (s *CounselApp) sendMessage(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	msg, err := s.messages.Send(r.Context(), message.SendParams{
		SessionId:   req.SessionId,
		SenderId:    userId,
		Body:        req.Body,
		RecipientId: req.RecipientId,
	})
	if err != nil {
		s.log.Println("send message:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, msg)
}

func (s *CounselApp) getMessages(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	query := r.URL.Query()
	sessionId := query.Get("session_id")
	if sessionId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// malformed paging values fall back to the defaults
	offset, _ := strconv.Atoi(query.Get("offset"))
	limit, _ := strconv.Atoi(query.Get("limit"))

	msgs, err := s.messages.ListForSession(r.Context(), sessionId, userId, offset, limit)
	if err != nil {
		s.log.Println("get messages:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, msgs)
}

func (s *CounselApp) markMessageRead(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req MarkReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if req.MessageId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.messages.MarkRead(r.Context(), req.MessageId, userId); err != nil {
		s.log.Println("mark read:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CounselApp) unreadCount(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sessionId := r.URL.Query().Get("session_id")
	if sessionId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	count, err := s.messages.UnreadCount(r.Context(), sessionId, userId)
	if err != nil {
		s.log.Println("unread count:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, UnreadCountResponse{
		SessionId: sessionId,
		Unread:    count,
	})
}
