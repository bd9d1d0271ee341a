package ai

import "google.golang.org/genai"

func stringSchema() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func stringListSchema() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: stringSchema()}
}

// atsAnalyzerSchema describes types.AtsAnalyzer
func atsAnalyzerSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"atsScore": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"score": {Type: genai.TypeNumber},
				},
				Required: []string{"score"},
			},
			"jobSuitability": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"match":      {Type: genai.TypeString, Enum: []string{"High", "Medium", "Low"}},
					"percentage": {Type: genai.TypeNumber},
					"reasoning":  stringSchema(),
				},
				Required: []string{"match", "percentage", "reasoning"},
			},
			"careerSuggestions": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"recommendedRoles":     stringListSchema(),
					"marketOutlook":        stringSchema(),
					"topCompaniesToTarget": stringListSchema(),
				},
				Required: []string{"recommendedRoles", "marketOutlook"},
			},
			"resumePersona": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"tone":       stringSchema(),
					"impression": stringSchema(),
				},
				Required: []string{"tone", "impression"},
			},
			"salaryEstimation": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"range":    stringSchema(),
					"currency": stringSchema(),
				},
				Required: []string{"range", "currency"},
			},
			"strengths":  stringListSchema(),
			"weaknesses": stringListSchema(),
		},
		Required: []string{"atsScore", "strengths", "weaknesses"},
	}
}

// atsOptimizerSchema describes types.AtsOptimizer
func atsOptimizerSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"overallStrategy": stringSchema(),
			"skillGapLearningPath": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"skill":          stringSchema(),
						"learningTopics": stringListSchema(),
					},
					Required: []string{"skill", "learningTopics"},
				},
			},
			"sectionLevelSuggestions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"section":        stringSchema(),
						"issue":          stringSchema(),
						"suggestion":     stringSchema(),
						"exampleRewrite": stringSchema(),
					},
					Required: []string{"section", "issue", "suggestion"},
				},
			},
		},
		Required: []string{"overallStrategy", "skillGapLearningPath", "sectionLevelSuggestions"},
	}
}

// interviewCoachSchema describes types.InterviewCoach
func interviewCoachSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"targetRole": stringSchema(),
			"questions": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question":     stringSchema(),
						"difficulty":   {Type: genai.TypeString, Enum: []string{"Easy", "Medium", "Hard"}},
						"category":     stringSchema(),
						"followUpHint": stringSchema(),
					},
					Required: []string{"question", "difficulty", "category"},
				},
			},
		},
		Required: []string{"targetRole", "questions"},
	}
}

// answersSchema describes types.GenerateAnswersResponse
func answersSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"answers": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"question": stringSchema(),
						"answer":   stringSchema(),
					},
					Required: []string{"question", "answer"},
				},
			},
		},
		Required: []string{"answers"},
	}
}
