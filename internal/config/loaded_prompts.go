package config

// PromptKind names one of the prompts the Gemini backend sends
type PromptKind string

const (
	PromptAtsAnalyzer      PromptKind = "atsAnalyzer"
	PromptAtsOptimizer     PromptKind = "atsOptimizer"
	PromptInterviewCoach   PromptKind = "interviewCoach"
	PromptInterviewAnswers PromptKind = "interviewAnswers"
)

// PromptKinds lists every prompt kind in a stable order
var PromptKinds = []PromptKind{
	PromptAtsAnalyzer,
	PromptAtsOptimizer,
	PromptInterviewCoach,
	PromptInterviewAnswers,
}

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts PromptSet `mapstructure:"systemPrompts"`
	UserPrompts   PromptSet `mapstructure:"userPrompts"`
}

// PromptSet holds an inline prompt and an optional file path per kind
type PromptSet struct {
	AtsAnalyzer          string `mapstructure:"atsAnalyzer"`
	AtsAnalyzerFile      string `mapstructure:"atsAnalyzerFile"`
	AtsOptimizer         string `mapstructure:"atsOptimizer"`
	AtsOptimizerFile     string `mapstructure:"atsOptimizerFile"`
	InterviewCoach       string `mapstructure:"interviewCoach"`
	InterviewCoachFile   string `mapstructure:"interviewCoachFile"`
	InterviewAnswers     string `mapstructure:"interviewAnswers"`
	InterviewAnswersFile string `mapstructure:"interviewAnswersFile"`
}

// fields returns pointers to the inline value and the file path of kind
func (s *PromptSet) fields(kind PromptKind) (inline *string, file *string) {
	switch kind {
	case PromptAtsAnalyzer:
		return &s.AtsAnalyzer, &s.AtsAnalyzerFile
	case PromptAtsOptimizer:
		return &s.AtsOptimizer, &s.AtsOptimizerFile
	case PromptInterviewCoach:
		return &s.InterviewCoach, &s.InterviewCoachFile
	case PromptInterviewAnswers:
		return &s.InterviewAnswers, &s.InterviewAnswersFile
	}
	return nil, nil
}

// Get returns the inline prompt for kind
func (s PromptSet) Get(kind PromptKind) string {
	inline, _ := s.fields(kind)
	if inline == nil {
		return ""
	}
	return *inline
}

// File returns the configured prompt file path for kind
func (s PromptSet) File(kind PromptKind) string {
	_, file := s.fields(kind)
	if file == nil {
		return ""
	}
	return *file
}

// LoadedPrompts holds the content of prompts read from files
type LoadedPrompts struct {
	System map[PromptKind]string
	User   map[PromptKind]string
}

func (lp LoadedPrompts) count() int {
	return len(lp.System) + len(lp.User)
}

// loadedPrompts holds file contents for each configuration scope
type loadedPrompts struct {
	Global  LoadedPrompts
	Analyze LoadedPrompts
	Answers LoadedPrompts
}

// resolvePrompts fills each inline prompt of an operation from, in order:
// the operation's prompt file, the operation's inline value, the global
// prompt file, the global inline value
func (c *Config) resolvePrompts(op PromptConfig, loaded LoadedPrompts) PromptConfig {
	resolved := PromptConfig{
		SystemPrompts: op.SystemPrompts,
		UserPrompts:   op.UserPrompts,
	}

	for _, kind := range PromptKinds {
		sysInline, _ := resolved.SystemPrompts.fields(kind)
		*sysInline = firstNonEmpty(
			loaded.System[kind],
			op.SystemPrompts.Get(kind),
			c.prompts.Global.System[kind],
			c.AI.CustomPrompts.SystemPrompts.Get(kind),
		)

		userInline, _ := resolved.UserPrompts.fields(kind)
		*userInline = firstNonEmpty(
			loaded.User[kind],
			op.UserPrompts.Get(kind),
			c.prompts.Global.User[kind],
			c.AI.CustomPrompts.UserPrompts.Get(kind),
		)
	}

	return resolved
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
