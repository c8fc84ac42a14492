// File: internal/infra/web/handlers.go
package web

import (
	"crypto/subtle"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ai-doppelganger/internal/domain"
	"ai-doppelganger/internal/domain/model"
	"ai-doppelganger/internal/infra/logging"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	visitor := model.VisitorInfo{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}
	sessionID, err := s.chatUC.StartSession(r.Context(), visitor)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"sessionId": sessionID})
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "Message is required")
		return
	}

	result, err := s.chatUC.SubmitMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Session not found")
		case errors.Is(err, domain.ErrInvalidArgument):
			writeError(w, http.StatusBadRequest, "Message is required")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to process message")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type contactRequest struct {
	SessionID string `json:"sessionId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.SessionID == "" || req.FirstName == "" || req.LastName == "" || req.Company == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Missing required fields: sessionId, firstName, lastName, company, email")
		return
	}
	if !emailRe.MatchString(req.Email) {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	info := model.VisitorInfo{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Email:     req.Email,
		Role:      req.Role,
	}
	if err := s.chatUC.SubmitVisitorInfo(r.Context(), req.SessionID, info); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save contact information")
		return
	}
	s.log.Info().
		Str("session_id", req.SessionID).
		Str("email", logging.Redact(req.Email, s.cfg.Runtime.Dev)).
		Msg("contact info captured")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Contact information saved successfully",
	})
}

func (s *Server) handleBooked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	if err := s.chatUC.ConfirmBooking(r.Context(), req.SessionID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"apiKey"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if s.cfg.Admin.APIKey == "" ||
		subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(s.cfg.Admin.APIKey)) != 1 {
		writeError(w, http.StatusUnauthorized, "Invalid API key")
		return
	}
	token, err := s.auth.Mint(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// conversationSummary is the list view: everything except the message
// history, plus its length.
type conversationSummary struct {
	ID                 string            `json:"id"`
	SessionID          string            `json:"sessionId"`
	StartedAt          time.Time         `json:"startedAt"`
	LastActivityAt     time.Time         `json:"lastActivityAt"`
	VisitorInfo        model.VisitorInfo `json:"visitorInfo"`
	MessageCount       int               `json:"messageCount"`
	QualificationScore int               `json:"qualificationScore"`
	IsQualified        bool              `json:"isQualified"`
	AppointmentBooked  bool              `json:"appointmentBooked"`
	DealbreakersHit    []string          `json:"dealbreakersHit"`
	Summary            string            `json:"summary,omitempty"`
}

func summarize(c *model.Conversation) conversationSummary {
	return conversationSummary{
		ID:                 c.ID,
		SessionID:          c.SessionID,
		StartedAt:          c.StartedAt,
		LastActivityAt:     c.LastActivityAt,
		VisitorInfo:        c.VisitorInfo,
		MessageCount:       len(c.Messages),
		QualificationScore: c.QualificationScore,
		IsQualified:        c.IsQualified,
		AppointmentBooked:  c.AppointmentBooked,
		DealbreakersHit:    c.DealbreakersHit,
		Summary:            c.Summary,
	}
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}
	convs, err := s.ledgerUC.RecentConversations(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}
	out := make([]conversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, summarize(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetLog(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	conv, err := s.ledgerUC.GetConversation(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}
	writeJSON(w, http.StatusOK, conv)
}

func (s *Server) handleStatsOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := s.statsUC.Overview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

func (s *Server) handleUnread(w http.ResponseWriter, r *http.Request) {
	convs, err := s.ledgerUC.UnnotifiedConversations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list conversations")
		return
	}
	out := make([]conversationSummary, 0, len(convs))
	for _, c := range convs {
		out = append(out, summarize(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "conversationId")
	if err := s.ledgerUC.SendNotification(r.Context(), conversationID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to send notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleKnowledgeReload(w http.ResponseWriter, r *http.Request) {
	if err := s.kb.Reload(); err != nil {
		s.log.Error().Err(err).Msg("knowledge reload failed")
		writeError(w, http.StatusInternalServerError, "Failed to reload knowledge base")
		return
	}
	s.log.Info().Msg("knowledge base reloaded")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	convs, err := s.ledgerUC.ListConversations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export conversations")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=conversations.csv")

	cw := csv.NewWriter(w)
	_ = cw.Write([]string{
		"Session ID", "Started At", "Visitor Name", "Visitor Email", "Visitor Company",
		"Message Count", "Qualification Score", "Qualified", "Appointment Booked", "Dealbreakers",
	})
	for _, c := range convs {
		_ = cw.Write([]string{
			c.SessionID,
			c.StartedAt.UTC().Format(time.RFC3339),
			c.VisitorInfo.Name,
			c.VisitorInfo.Email,
			c.VisitorInfo.Company,
			strconv.Itoa(len(c.Messages)),
			strconv.Itoa(c.QualificationScore),
			yesNo(c.IsQualified),
			yesNo(c.AppointmentBooked),
			strings.Join(c.DealbreakersHit, "; "),
		})
	}
	cw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
