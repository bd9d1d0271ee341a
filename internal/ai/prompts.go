package ai

import (
	"fmt"
	"strings"

	"neuraresume/internal/config"
	"neuraresume/internal/types"
)

// DefaultSystemPrompts provides the default system instructions per prompt kind
var DefaultSystemPrompts = map[config.PromptKind]string{
	config.PromptAtsAnalyzer: `You are an expert technical recruiter and Applicant Tracking System (ATS) specialist. Your core principles are:

- Base every judgement on what the resume actually contains
- Never invent experience, employers, or certifications
- Score consistently: 80-100 strong, 60-79 fair, below 60 weak
- Keep reasoning short, concrete and actionable`,

	config.PromptAtsOptimizer: `You are a senior resume writer who optimizes resumes for Applicant Tracking Systems.

- Suggest changes that make existing experience easier to find and read
- Never suggest claiming skills the candidate does not have
- Prefer specific rewrites over generic advice
- Point out skill gaps honestly and propose how to learn them`,

	config.PromptInterviewCoach: `You are an experienced hiring manager preparing a candidate for interviews.

- Ask questions a real interviewer for the target role would ask
- Mix behavioural, technical and situational questions
- Ground questions in the candidate's resume and the job description
- Label each question with a difficulty of Easy, Medium or Hard`,

	config.PromptInterviewAnswers: `You are an interview coach writing model answers for a specific candidate.

- Answer in the first person, as the candidate
- Use only experience that appears in the resume
- Prefer the STAR structure for behavioural questions
- Keep each answer between 80 and 180 words`,
}

// DefaultUserPrompts provides the default user prompt templates. Module
// templates take the resume and the job description; the answers template
// additionally takes the numbered question list.
var DefaultUserPrompts = map[config.PromptKind]string{
	config.PromptAtsAnalyzer: `Please score the resume below against the job description.

**Tasks:**

1. **ATS Score**: a number from 0 to 100 for how well the resume would pass an ATS for this role.
2. **Job Suitability**: match level (High, Medium or Low), a match percentage and a short reasoning.
3. **Career Suggestions**: recommended roles, a short market outlook and companies worth targeting.
4. **Resume Persona**: the tone of the resume and the impression it leaves.
5. **Salary Estimation**: a plausible salary range and its currency.
6. **Strengths and Weaknesses**: short bullet-style statements.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	config.PromptAtsOptimizer: `Please produce an optimization plan for the resume below.

**Tasks:**

1. **Overall Strategy**: one paragraph on how to position this resume for the role.
2. **Skill Gap Learning Path**: missing skills and the topics to learn for each.
3. **Section Level Suggestions**: for each weak section, the issue, the suggestion and an example rewrite.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	config.PromptInterviewCoach: `Please prepare interview questions for the candidate below.

**Tasks:**

1. Infer the target role from the job description, or from the resume when no job description is given.
2. Write 8 to 12 questions ordered from easiest to hardest.
3. For each question give its difficulty, a category and a short follow-up hint.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,

	config.PromptInterviewAnswers: `Please write a model answer for each interview question below.

Return exactly one answer per question, in the same order, repeating the question text unchanged.

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----

**Questions:**
%s`,
}

const noJobDescription = "Not provided. Assume a role that fits the resume."

// promptsFor returns the system prompt and the unformatted user template for
// kind, preferring the resolved configuration over the built-in defaults
func promptsFor(custom config.PromptConfig, kind config.PromptKind) (string, string) {
	system := custom.SystemPrompts.Get(kind)
	if system == "" {
		system = DefaultSystemPrompts[kind]
	}
	user := custom.UserPrompts.Get(kind)
	if user == "" {
		user = DefaultUserPrompts[kind]
	}
	return system, user
}

// formatModulePrompt fills a module template with the resume and job description
func formatModulePrompt(template string, input ModuleInput) string {
	job := strings.TrimSpace(input.JobDescription)
	if job == "" {
		job = noJobDescription
	}
	return fmt.Sprintf(template, strings.TrimSpace(input.ResumeText), job)
}

// formatAnswersPrompt fills the answers template
func formatAnswersPrompt(template string, req types.GenerateAnswersRequest) string {
	job := strings.TrimSpace(req.JobDescription)
	if job == "" {
		job = noJobDescription
	}
	return fmt.Sprintf(template, strings.TrimSpace(req.ResumeText), job, numberedQuestions(req.Questions))
}

func numberedQuestions(questions []types.InterviewQuestion) string {
	var b strings.Builder
	for i, q := range questions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(q.Question))
	}
	return b.String()
}
