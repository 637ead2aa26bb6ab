package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/matzehuels/appshell/pkg/errors"
	"github.com/matzehuels/appshell/pkg/fonts"
	"github.com/matzehuels/appshell/pkg/shell"
	"github.com/matzehuels/appshell/pkg/visits"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code      apperrors.Code `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.GetCode(err)
	if code == "" {
		code = apperrors.ErrCodeInternal
	}
	msg := apperrors.UserMessage(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "err", err,
			"request_id", RequestIDFrom(r.Context()))
	}
	writeJSON(w, status, errorBody{Error: errorDetail{
		Code:      code,
		Message:   msg,
		RequestID: RequestIDFrom(r.Context()),
	}})
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type fontsResponse struct {
	Default fonts.FontDescriptor `json:"default"`
	Fonts   fonts.Catalog        `json:"fonts"`
}

func (s *Server) handleFonts(w http.ResponseWriter, r *http.Request) {
	cat, err := s.shell.Fonts().EnsureLoaded(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, fontsResponse{Default: fonts.Default, Fonts: cat})
}

func (s *Server) handleFont(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	cat, err := s.shell.Fonts().EnsureLoaded(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	d, ok := cat.Lookup(name)
	if !ok {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeFontNotFound, "unknown font: %s", name))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.shell.Snapshot())
}

func (s *Server) handleSetPreferences(w http.ResponseWriter, r *http.Request) {
	var p shell.Preferences
	if err := decode(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.shell.SetPreferences(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.shell.Snapshot())
}

type crazyRequest struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetCrazy(w http.ResponseWriter, r *http.Request) {
	var req crazyRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.shell.SetCrazyMode(r.Context(), req.Enabled); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.shell.Snapshot())
}

type navigateRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Path == "" {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeInvalidInput, "path cannot be empty"))
		return
	}
	if err := s.shell.Navigate(r.Context(), req.Path); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.shell.Snapshot())
}

type visitResponse struct {
	Visitor string        `json:"visitor"`
	Added   bool          `json:"added"`
	Streak  visits.Streak `json:"streak"`
}

func (s *Server) tracker() (*visits.Tracker, error) {
	t := s.shell.Visits()
	if t == nil {
		return nil, apperrors.New(apperrors.ErrCodeUnsupported, "visit tracking is disabled")
	}
	return t, nil
}

func (s *Server) handleRecordVisit(w http.ResponseWriter, r *http.Request) {
	t, err := s.tracker()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	visitor := chi.URLParam(r, "visitor")
	now := s.now()
	added, err := t.Record(r.Context(), visitor, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	streak, err := t.Streak(r.Context(), visitor, now)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitResponse{Visitor: visitor, Added: added, Streak: streak})
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	t, err := s.tracker()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	visitor := chi.URLParam(r, "visitor")
	streak, err := t.Streak(r.Context(), visitor, s.now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, visitResponse{Visitor: visitor, Streak: streak})
}

type pickRequest struct {
	Candidates []string `json:"candidates"`
}

type pickResponse struct {
	Item string `json:"item"`
}

func (s *Server) handlePick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sel := s.shell.Selector()
	if err := sel.EnsureLoaded(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	item, err := sel.Pick(req.Candidates)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pickResponse{Item: item})
}

type recordRequest struct {
	Item    string `json:"item"`
	Correct bool   `json:"correct"`
}

func (s *Server) handleRecordAnswer(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	sel := s.shell.Selector()
	if err := sel.EnsureLoaded(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sel.Record(req.Item, req.Correct); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sel.Save(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sel.Weight(req.Item))
}
