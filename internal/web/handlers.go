package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"fitlife-ai/internal/app"
	"fitlife-ai/internal/chat"
	"fitlife-ai/internal/planner"
	"fitlife-ai/internal/profile"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const alertGeneration = "generation"

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := s.newPageData(s.snapshot(r))
	if r.URL.Query().Get("alert") == alertGeneration {
		data.Alert = s.messages.GenerationFailed
	}
	s.render(w, "layout", data)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot(r))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	writeJSON(w, http.StatusOK, s.opts.Health())
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := profile.FromForm(r.PostForm)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c := s.controller(r)
	// Generation runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	err = c.Submit(ctx, p)

	var gerr *planner.GenerationError
	switch {
	case err == nil, errors.Is(err, app.ErrBusy), errors.Is(err, app.ErrSuperseded):
		redirectHome(w, r)
	case errors.As(err, &gerr):
		captureError(r.Context(), err)
		http.Redirect(w, r, "/?alert="+alertGeneration, http.StatusSeeOther)
	default:
		s.logger.Error("submit failed", zap.Error(err))
		http.Redirect(w, r, "/?alert="+alertGeneration, http.StatusSeeOther)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.controller(r).Reset()
	redirectHome(w, r)
}

func (s *Server) handleSelectMeal(w http.ResponseWriter, r *http.Request) {
	slot, err := planner.ParseSlot(chi.URLParam(r, "slot"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if _, err := s.controller(r).SelectMeal(slot); err != nil && !errors.Is(err, app.ErrNotReady) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handleCloseMeal(w http.ResponseWriter, r *http.Request) {
	s.controller(r).CloseMeal()
	redirectHome(w, r)
}

func (s *Server) handleToggleChat(w http.ResponseWriter, r *http.Request) {
	s.controller(r).ToggleChat()
	redirectHome(w, r)
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	_, err := s.controller(r).SendChat(context.WithoutCancel(r.Context()), r.PostForm.Get("message"))

	var cerr *chat.ChatError
	if errors.As(err, &cerr) {
		captureError(r.Context(), err)
	}
	// Every outcome is visible in the transcript.
	redirectHome(w, r)
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
