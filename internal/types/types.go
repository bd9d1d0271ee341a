package types

import (
	"encoding/json"
	"strings"
)

// Tasks selects which analysis modules the backend runs
type Tasks struct {
	RunAtsAnalyzer    bool `json:"runAtsAnalyzer"`
	RunAtsOptimizer   bool `json:"runAtsOptimizer"`
	RunInterviewCoach bool `json:"runInterviewCoach"`
}

// DefaultTasks enables every module
func DefaultTasks() Tasks {
	return Tasks{RunAtsAnalyzer: true, RunAtsOptimizer: true, RunInterviewCoach: true}
}

// Any reports whether at least one module is enabled
func (t Tasks) Any() bool {
	return t.RunAtsAnalyzer || t.RunAtsOptimizer || t.RunInterviewCoach
}

// FileUpload is an uploaded resume document
type FileUpload struct {
	Name string `json:"name"`
	Data []byte `json:"-"`
}

// AnalyzeInput represents the input for an analysis run
type AnalyzeInput struct {
	ResumeText     string      `json:"resumeText,omitempty"`
	ResumeFile     *FileUpload `json:"resumeFile,omitempty"`
	JobDescription string      `json:"jobDescription,omitempty"`
	Tasks          Tasks       `json:"tasks"`
}

// HasResume reports whether any resume input is present.
// Whitespace-only text counts as empty.
func (in AnalyzeInput) HasResume() bool {
	if strings.TrimSpace(in.ResumeText) != "" {
		return true
	}
	return in.ResumeFile != nil && len(in.ResumeFile.Data) > 0
}

// AnalysisResult is the response of an analysis run. Each module is present
// only when it was requested and produced.
type AnalysisResult struct {
	AtsAnalyzer    *AtsAnalyzer    `json:"atsAnalyzer,omitempty" yaml:"atsAnalyzer,omitempty"`
	AtsOptimizer   *AtsOptimizer   `json:"atsOptimizer,omitempty" yaml:"atsOptimizer,omitempty"`
	InterviewCoach *InterviewCoach `json:"interviewCoach,omitempty" yaml:"interviewCoach,omitempty"`
}

// Empty reports whether no module is present
func (r *AnalysisResult) Empty() bool {
	return r == nil || (r.AtsAnalyzer == nil && r.AtsOptimizer == nil && r.InterviewCoach == nil)
}

// Questions returns the interview questions, or nil when the coach is absent
func (r *AnalysisResult) Questions() []InterviewQuestion {
	if r == nil || r.InterviewCoach == nil {
		return nil
	}
	return r.InterviewCoach.Questions
}

// AtsScore holds the overall ATS score (0-100)
type AtsScore struct {
	Score float64 `json:"score" yaml:"score"`
}

// JobSuitability describes how well the resume matches the job
type JobSuitability struct {
	Match      string  `json:"match" yaml:"match"` // "High", "Medium" or "Low"
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Reasoning  string  `json:"reasoning" yaml:"reasoning"`
}

// CareerSuggestions lists roles and companies worth targeting
type CareerSuggestions struct {
	RecommendedRoles     []string `json:"recommendedRoles" yaml:"recommendedRoles"`
	MarketOutlook        string   `json:"marketOutlook" yaml:"marketOutlook"`
	TopCompaniesToTarget []string `json:"topCompaniesToTarget,omitempty" yaml:"topCompaniesToTarget,omitempty"`
}

// ResumePersona describes how the resume reads
type ResumePersona struct {
	Tone       string `json:"tone" yaml:"tone"`
	Impression string `json:"impression" yaml:"impression"`
}

// SalaryEstimation is an estimated salary range
type SalaryEstimation struct {
	Range    string `json:"range" yaml:"range"`
	Currency string `json:"currency" yaml:"currency"`
}

// AtsAnalyzer is the scoring module output
type AtsAnalyzer struct {
	AtsScore          AtsScore           `json:"atsScore" yaml:"atsScore"`
	JobSuitability    *JobSuitability    `json:"jobSuitability,omitempty" yaml:"jobSuitability,omitempty"`
	CareerSuggestions *CareerSuggestions `json:"careerSuggestions,omitempty" yaml:"careerSuggestions,omitempty"`
	ResumePersona     *ResumePersona     `json:"resumePersona,omitempty" yaml:"resumePersona,omitempty"`
	SalaryEstimation  *SalaryEstimation  `json:"salaryEstimation,omitempty" yaml:"salaryEstimation,omitempty"`
	Strengths         []string           `json:"strengths" yaml:"strengths"`
	Weaknesses        []string           `json:"weaknesses" yaml:"weaknesses"`
}

// SkillGap is a missing skill with topics to learn
type SkillGap struct {
	Skill          string   `json:"skill" yaml:"skill"`
	LearningTopics []string `json:"learningTopics" yaml:"learningTopics"`
}

// SectionSuggestion is a targeted fix for one resume section
type SectionSuggestion struct {
	Section        string `json:"section" yaml:"section"`
	Issue          string `json:"issue" yaml:"issue"`
	Suggestion     string `json:"suggestion" yaml:"suggestion"`
	ExampleRewrite string `json:"exampleRewrite,omitempty" yaml:"exampleRewrite,omitempty"`
}

// AtsOptimizer is the optimization module output
type AtsOptimizer struct {
	OverallStrategy         string              `json:"overallStrategy" yaml:"overallStrategy"`
	SkillGapLearningPath    []SkillGap          `json:"skillGapLearningPath" yaml:"skillGapLearningPath"`
	SectionLevelSuggestions []SectionSuggestion `json:"sectionLevelSuggestions" yaml:"sectionLevelSuggestions"`
}

// Difficulty of an interview question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulty levels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// InterviewQuestion is one generated question; order is display order
type InterviewQuestion struct {
	Question     string     `json:"question" yaml:"question"`
	Difficulty   Difficulty `json:"difficulty" yaml:"difficulty"`
	Category     string     `json:"category" yaml:"category"`
	FollowUpHint string     `json:"followUpHint,omitempty" yaml:"followUpHint,omitempty"`
}

// InterviewCoach is the interview module output
type InterviewCoach struct {
	TargetRole string              `json:"targetRole,omitempty" yaml:"targetRole,omitempty"`
	Questions  []InterviewQuestion `json:"questions" yaml:"questions"`
}

// AnswerItem pairs a question with its generated answer
type AnswerItem struct {
	Question string `json:"question" yaml:"question"`
	Answer   string `json:"answer" yaml:"answer"`
}

// GenerateAnswersRequest is the body of the answer generation call
type GenerateAnswersRequest struct {
	ResumeText     string              `json:"resumeText"`
	JobDescription string              `json:"jobDescription"`
	Questions      []InterviewQuestion `json:"questions"`
}

// GenerateAnswersResponse is the body returned by the answer generation call
type GenerateAnswersResponse struct {
	Answers []AnswerItem `json:"answers"`
}

// AnswerSet is a generated answer list together with its role label,
// as written by the answers command and accepted back as input
type AnswerSet struct {
	TargetRole string       `json:"targetRole,omitempty" yaml:"targetRole,omitempty"`
	Answers    []AnswerItem `json:"answers" yaml:"answers"`
}

// ParseTasks decodes the JSON-encoded tasks form field. An empty value
// selects every module.
func ParseTasks(raw string) (Tasks, error) {
	if strings.TrimSpace(raw) == "" {
		return DefaultTasks(), nil
	}
	var t Tasks
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return Tasks{}, err
	}
	return t, nil
}
