package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/omriShneor/taskquest/internal/agent"
	"github.com/omriShneor/taskquest/internal/calendar"
	"github.com/omriShneor/taskquest/internal/database"
)

const maxTaskLength = 4000

// serveStaticFile serves a static file from filesystem (dev mode) or embedded (production)
func (s *Server) serveStaticFile(w http.ResponseWriter, filename string) {
	var html []byte
	var err error

	if s.devMode {
		// In dev mode, read from filesystem for hot reloading
		path := filepath.Join("internal", "server", "static", filename)
		html, err = os.ReadFile(path)
	} else {
		html, err = staticFiles.ReadFile("static/" + filename)
	}

	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load %s", filename))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// Health Check

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	status := map[string]interface{}{
		"status": "healthy",
		"email":  s.notifyService != nil && s.notifyService.IsEmailAvailable(),
	}
	respondJSON(w, http.StatusOK, status)
}

// Chat Page

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.serveStaticFile(w, "index.html")
}

// Sessions API

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.db.CreateSession()
	if err != nil {
		s.logger.Error("failed to create session", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	s.logger.Info("session created", zap.String("session_id", session.ID))
	respondJSON(w, http.StatusCreated, session)
}

// handleDeleteSession is "exit and restart": the session and its history go away
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.db.DeleteSession(id); err != nil {
		s.respondDBError(w, err)
		return
	}
	s.logger.Info("session deleted", zap.String("session_id", id))
	w.WriteHeader(http.StatusNoContent)
}

// Tasks and History API

type submitTaskRequest struct {
	Task string `json:"task"`
}

// historyEntryView adds a QR code of the event link to scheduled entries
type historyEntryView struct {
	database.HistoryEntry
	QRCode string `json:"qr_code,omitempty"`
}

func (s *Server) handleSubmitTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.db.GetSession(id); err != nil {
		s.respondDBError(w, err)
		return
	}

	var req submitTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	task := strings.TrimSpace(req.Task)
	if task == "" {
		respondError(w, http.StatusBadRequest, "task is required")
		return
	}
	if utf8.RuneCountInString(task) > maxTaskLength {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("task is longer than %d characters", maxTaskLength))
		return
	}

	// A run finishes even if the client goes away; the agent bounds it.
	ctx := context.WithoutCancel(r.Context())
	summary, err := s.workflow.Run(ctx, agent.TaskRequest{RawText: task})
	var response string
	if err != nil {
		// Details stay in the log; the user gets the generic message.
		s.logger.Warn("workflow run failed",
			zap.String("session_id", id),
			zap.Bool("completion_error", errors.Is(err, agent.ErrCompletion)),
			zap.Error(err))
		summary = nil
		response = agent.GenericFailureMessage
	} else {
		response = summary.Render()
		if s.notifyService != nil {
			s.notifyService.NotifyScheduled(ctx, summary)
		}
	}

	entry, err := s.db.AppendHistory(id, task, response, summary)
	if err != nil {
		s.respondDBError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, s.entryView(*entry))
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	entries, err := s.db.ListHistory(id)
	if err != nil {
		s.respondDBError(w, err)
		return
	}
	totalXP, err := s.db.SessionXP(id)
	if err != nil {
		s.respondDBError(w, err)
		return
	}

	views := make([]historyEntryView, len(entries))
	for i, e := range entries {
		views[i] = s.entryView(e)
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"session_id": id,
		"total_xp":   totalXP,
		"entries":    views,
	})
}

// handleClearHistory is "clear chat only": the session is kept
func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.db.ClearHistory(id); err != nil {
		s.respondDBError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) entryView(e database.HistoryEntry) historyEntryView {
	view := historyEntryView{HistoryEntry: e}
	if e.Summary == nil || e.Summary.Outcome.Kind != calendar.OutcomeScheduled || e.Summary.Outcome.Link == "" {
		return view
	}

	qr, err := qrDataURL(e.Summary.Outcome.Link)
	if err != nil {
		s.logger.Warn("could not render QR code", zap.Int64("entry_id", e.ID), zap.Error(err))
		return view
	}
	view.QRCode = qr
	return view
}

func (s *Server) respondDBError(w http.ResponseWriter, err error) {
	if errors.Is(err, database.ErrNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	s.logger.Error("database error", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal error")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		fmt.Printf("Error encoding JSON response: %v\n", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
