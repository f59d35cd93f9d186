package gemini

import "github.com/google/generative-ai-go/genai"

func questionsSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"text": {Type: genai.TypeString, Description: "The question text"},
				"type": {
					Type:        genai.TypeString,
					Enum:        []string{"MCQ", "TRUE_FALSE", "FILL_IN_BLANK", "MATCHING"},
					Description: "Type of question",
				},
				"options": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Options for MCQ (empty for True/False)",
				},
				"correctAnswer": {Type: genai.TypeString, Description: "The correct answer"},
				"explanation":   {Type: genai.TypeString, Description: "Why this answer is correct"},
				"difficulty":    {Type: genai.TypeString, Enum: []string{"EASY", "MEDIUM", "HARD"}},
				"marks":         {Type: genai.TypeNumber},
			},
			Required: []string{"text", "type", "correctAnswer", "explanation", "difficulty", "marks"},
		},
	}
}

func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"feedback":        {Type: genai.TypeString},
			"weakTopics":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"improvementTips": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"conceptRecap":    {Type: genai.TypeString},
		},
		Required: []string{"feedback", "weakTopics", "improvementTips"},
	}
}
