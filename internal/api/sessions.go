package api

import (
	"encoding/json"
	"net/http"

	"github.com/counselhub/counselhub/internal/session"
)

type CreateSessionRequest struct {
	CounselorId     int    `json:"counselor_id"`
	ScheduledFor    string `json:"scheduled_for"`
	DurationMinutes int    `json:"duration_minutes"`
	Notes           string `json:"notes"`
	VideoRequested  bool   `json:"video_requested"`
}

type TransitionSessionRequest struct {
	SessionId string `json:"session_id"`
	Status    string `json:"status"`
}

type EnsureVideoRoomRequest struct {
	SessionId string `json:"session_id"`
}

type ParticipantsResponse struct {
	CounselorId int `json:"counselor_id"`
	PatientId   int `json:"patient_id"`
}

func (s *CounselApp) createSession(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// the authenticated caller always books as the patient
	newSession, err := s.sessions.Create(r.Context(), session.CreateParams{
		CounselorId:     req.CounselorId,
		PatientId:       userId,
		ScheduledFor:    req.ScheduledFor,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		VideoRequested:  req.VideoRequested,
	})
	if err != nil {
		s.log.Println("create session:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, newSession)
}

func (s *CounselApp) listSessions(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	listings, err := s.sessions.ListForUser(r.Context(), userId)
	if err != nil {
		s.log.Println("list sessions:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, listings)
}

func (s *CounselApp) deleteSession(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sessionId := r.URL.Query().Get("id")
	if sessionId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.sessions.Delete(r.Context(), sessionId, userId); err != nil {
		s.log.Println("delete session:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CounselApp) getParticipants(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sessionId := r.URL.Query().Get("id")
	if sessionId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.auth.Authorize(r.Context(), sessionId, userId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	participants, err := s.sessions.GetParticipants(r.Context(), sessionId)
	if err != nil {
		s.log.Println("get participants:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, ParticipantsResponse{
		CounselorId: participants.CounselorId,
		PatientId:   participants.PatientId,
	})
}

func (s *CounselApp) transitionSession(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req TransitionSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.auth.Authorize(r.Context(), req.SessionId, userId); err != nil {
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.sessions.Transition(r.Context(), req.SessionId, req.Status); err != nil {
		s.log.Println("transition session:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CounselApp) ensureVideoRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req EnsureVideoRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.sessions.EnsureRoom(r.Context(), req.SessionId, userId)
	if err != nil {
		s.log.Println("ensure video room:", err)
		errResp := fromDomainError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, room)
}
