package session

import (
	"sync"
	"time"

	"neuraresume/internal/errors"
	"neuraresume/internal/types"

	"github.com/google/uuid"
)

// Action is a user-triggered operation guarded by a busy flag
type Action string

const (
	ActionAnalyze Action = "analyze"
	ActionExport  Action = "export"
)

// Form holds what the user entered for an analysis run
type Form struct {
	ResumeText     string
	ResumeFile     *types.FileUpload
	JobDescription string
	Tasks          types.Tasks
}

// Input converts the form into a backend request
func (f Form) Input() types.AnalyzeInput {
	return types.AnalyzeInput{
		ResumeText:     f.ResumeText,
		ResumeFile:     f.ResumeFile,
		JobDescription: f.JobDescription,
		Tasks:          f.Tasks,
	}
}

// State is the owned state of one UI session. It is safe for concurrent use.
// At most one operation per Action is outstanding at any time.
type State struct {
	mu sync.Mutex

	id         string
	form       Form
	results    *types.AnalysisResult
	err        string
	alert      string
	busy       map[Action]bool
	lastAccess time.Time
}

// NewState creates an empty session with the default module selection
func NewState() *State {
	return &State{
		id:         uuid.NewString(),
		form:       Form{Tasks: types.DefaultTasks()},
		busy:       make(map[Action]bool),
		lastAccess: time.Now(),
	}
}

// ID returns the session identifier
func (s *State) ID() string {
	return s.id
}

// Snapshot is a read-only copy of a State for rendering
type Snapshot struct {
	ID             string
	ResumeText     string
	ResumeFileName string
	JobDescription string
	Tasks          types.Tasks
	Results        *types.AnalysisResult
	Error          string
	Alert          string
	Analyzing      bool
	Exporting      bool
}

// Snapshot copies the current state. Results are shared, not copied; they are
// never mutated after being stored.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		ResumeText:     s.form.ResumeText,
		JobDescription: s.form.JobDescription,
		Tasks:          s.form.Tasks,
		Results:        s.results,
		Error:          s.err,
		Alert:          s.alert,
		Analyzing:      s.busy[ActionAnalyze],
		Exporting:      s.busy[ActionExport],
	}
	if s.form.ResumeFile != nil {
		snap.ResumeFileName = s.form.ResumeFile.Name
	}
	return snap
}

// Results returns the current analysis result, nil when there is none
func (s *State) Results() *types.AnalysisResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Form returns the last submitted form
func (s *State) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// TryBegin marks action as in flight. It fails with an OPERATION_IN_PROGRESS
// error when the same action is already running.
func (s *State) TryBegin(action Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy[action] {
		return errors.NewValidationError(errors.ErrCodeBusy,
			"Please wait for the current request to finish.", nil).
			WithContext("action", string(action))
	}
	s.busy[action] = true
	return nil
}

// End clears the busy flag of action
func (s *State) End(action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, action)
}

// Busy reports whether any action is in flight
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.busy) > 0
}

// TakeAlert returns the pending alert and clears it
func (s *State) TakeAlert() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert := s.alert
	s.alert = ""
	return alert
}

// Touch records an access at now
func (s *State) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAccess = now
}

// LastAccess returns the time of the last access
func (s *State) LastAccess() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccess
}

func (s *State) setForm(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form = f
}

func (s *State) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = msg
}

// startAttempt clears the error and the previous results
func (s *State) startAttempt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = ""
	s.results = nil
}

func (s *State) setResults(r *types.AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = r
}

func (s *State) setAlert(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alert = msg
}
