package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/goliatone/go-contactform/pkg/contact"
	"github.com/goliatone/go-contactform/pkg/render"
	"github.com/goliatone/go-contactform/pkg/validation"
)

const maxBodyBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	session := s.session(w, r)
	s.renderSession(w, r, session, http.StatusOK)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.postedSession(w, r)
	if !ok {
		return
	}

	for _, name := range s.form.FieldNames() {
		if _, present := r.PostForm[name]; !present {
			continue
		}
		if err := session.Form.Set(name, r.PostForm.Get(name)); err != nil {
			s.fail(w, r, http.StatusBadRequest, err)
			return
		}
	}

	result := session.Form.Submit()
	s.metrics.ObserveSubmit("html", result.Errors)
	if result.OK() {
		s.logger.Info("contact form submitted",
			zap.String("session", session.ID),
			zap.String("submission", result.Snapshot.ID.String()),
		)
	}
	s.renderSession(w, r, session, http.StatusOK)
}

func (s *Server) handleField(w http.ResponseWriter, r *http.Request) {
	session, ok := s.postedSession(w, r)
	if !ok {
		return
	}

	field := chi.URLParam(r, "field")
	if err := session.Form.Set(field, r.PostForm.Get("value")); err != nil {
		if errors.Is(err, contact.ErrUnknownField) {
			s.fail(w, r, http.StatusNotFound, err)
			return
		}
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	s.metrics.ObserveEdit()
	s.renderSession(w, r, session, http.StatusOK)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.postedSession(w, r)
	if !ok {
		return
	}
	session.Form.Reset()
	s.renderSession(w, r, session, http.StatusOK)
}

func (s *Server) handleAPISubmit(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	form := s.newForm()
	if err := form.Fill(values); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	result := form.Submit()
	s.metrics.ObserveSubmit("api", result.Errors)

	status := http.StatusOK
	if !result.OK() {
		status = http.StatusUnprocessableEntity
	}

	renderer, err := s.registry.Get("json")
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	opts := render.OptionsFromView(form.View())
	opts.Values = nil
	s.write(w, r, renderer, opts, status)
}

type validateResponse struct {
	Valid  bool              `json:"valid"`
	Errors validation.Errors `json:"errors"`
}

func (s *Server) handleAPIValidate(w http.ResponseWriter, r *http.Request) {
	values, err := decodeValues(w, r)
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}

	errs := s.validator.Validate(values)
	if errs == nil {
		errs = validation.Errors{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(validateResponse{Valid: errs.Empty(), Errors: errs}); err != nil {
		s.logger.Warn("encode validate response", zap.Error(err))
	}
}

// session returns the caller's session, creating one and setting the cookie
// when none is live.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *Session {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if session, ok := s.sessions.Get(cookie.Value); ok {
			return session
		}
	}
	session := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session
}

// postedSession parses a form post and checks it carries the session's CSRF
// token. It writes the error response itself and returns false on failure.
func (s *Server) postedSession(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		s.fail(w, r, http.StatusBadRequest, fmt.Errorf("server: parse form: %w", err))
		return nil, false
	}

	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		s.fail(w, r, http.StatusForbidden, errors.New("server: missing session"))
		return nil, false
	}
	session, ok := s.sessions.Get(cookie.Value)
	if !ok {
		s.fail(w, r, http.StatusForbidden, errors.New("server: session expired"))
		return nil, false
	}
	token := r.PostForm.Get(render.CSRFFieldName)
	if subtle.ConstantTimeCompare([]byte(token), []byte(session.CSRF)) != 1 {
		s.fail(w, r, http.StatusForbidden, errors.New("server: invalid csrf token"))
		return nil, false
	}
	return session, true
}

func (s *Server) renderSession(w http.ResponseWriter, r *http.Request, session *Session, status int) {
	name := strings.TrimSpace(r.URL.Query().Get("renderer"))
	requested := name != ""
	if !requested {
		name = s.renderer
	}
	renderer, err := s.registry.Resolve(name)
	if err != nil {
		if requested {
			s.fail(w, r, http.StatusNotFound, err)
			return
		}
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}

	opts := render.OptionsFromView(session.Form.View())
	opts.HiddenFields = render.MergeHiddenFields(nil, render.CSRFToken(session.CSRF))
	opts.Theme = s.theme
	s.write(w, r, renderer, opts, status)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, renderer render.Renderer, opts render.RenderOptions, status int) {
	out, err := renderer.Render(r.Context(), s.form, opts)
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", renderer.ContentType())
	w.WriteHeader(status)
	_, _ = w.Write(out)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	http.Error(w, http.StatusText(status), status)
}

func decodeValues(w http.ResponseWriter, r *http.Request) (contact.Values, error) {
	var values contact.Values
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&values); err != nil {
		return contact.Values{}, fmt.Errorf("server: decode body: %w", err)
	}
	return values, nil
}
