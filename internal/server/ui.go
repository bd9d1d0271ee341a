package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"neuraresume/internal/formatters"
	"neuraresume/internal/session"
	"neuraresume/internal/types"
)

// SessionCookie names the cookie carrying the UI session id
const SessionCookie = "neuraresume_session"

//go:embed templates/*.html
var templateFS embed.FS

func parsePages() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"scoreBand":   formatters.ScoreBand,
		"matchLevel":  formatters.MatchLevel,
		"formatScore": formatters.FormatScore,
		"join":        strings.Join,
	}).ParseFS(templateFS, "templates/*.html")
}

// sessionFor returns the caller's session, starting a new one when the
// cookie is missing or has expired. Only form submissions create sessions.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.State {
	var id string
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}

	st, created := s.Sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    st.ID(),
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return st
}

// existingSession looks up the caller's session without creating one
func (s *Server) existingSession(r *http.Request) (*session.State, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return s.Sessions.Get(c.Value)
}

// indexHandler renders the UI for the caller's session, or an empty form
// for visitors without one
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	snap := session.Snapshot{Tasks: types.DefaultTasks()}
	if st, ok := s.existingSession(r); ok {
		snap = st.Snapshot()
		st.TakeAlert()
	}

	var buf bytes.Buffer
	if err := s.pages.ExecuteTemplate(&buf, "index", snap); err != nil {
		s.Logger.LogError(err, "Failed to render UI", "session", snap.ID)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// uiAnalyzeHandler runs an analysis for the session and redirects back to
// the page, which shows the results or the error
func (s *Server) uiAnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	st := s.sessionFor(w, r)

	form, err := s.readUIForm(r)
	if err != nil {
		s.Orchestrator.Reject(st, err)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := s.Orchestrator.Submit(r.Context(), st, form); err != nil {
		s.Logger.Info("UI analysis did not complete", "session", st.ID(), "reason", err.Error())
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// uiAnswersHandler generates the interview guide and sends it as a download.
// On failure the session alert is set and the browser is sent back to the page.
func (s *Server) uiAnswersHandler(w http.ResponseWriter, r *http.Request) {
	st, ok := s.existingSession(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	pdf, err := s.Orchestrator.ExportAnswers(r.Context(), st)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.AppConfig.Export.FileName))
	w.Header().Set("Content-Length", fmt.Sprint(len(pdf)))
	_, _ = w.Write(pdf)
}

// readUIForm decodes the browser form. Module toggles are checkboxes.
func (s *Server) readUIForm(r *http.Request) (session.Form, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return session.Form{}, requestBodyError(err)
	}

	file, err := readUpload(r, "resumeFile")
	if err != nil {
		return session.Form{}, err
	}

	return session.Form{
		ResumeText:     r.FormValue("resumeText"),
		ResumeFile:     file,
		JobDescription: r.FormValue("jobDescription"),
		Tasks: types.Tasks{
			RunAtsAnalyzer:    r.FormValue("runAtsAnalyzer") != "",
			RunAtsOptimizer:   r.FormValue("runAtsOptimizer") != "",
			RunInterviewCoach: r.FormValue("runInterviewCoach") != "",
		},
	}, nil
}
