// Package gemini implements the AI collaborator on Google's Gemini models.
// Output is requested in JSON mode against a response schema and treated as
// untrusted: anything that does not decode is reported as
// domain.ErrGeneration.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizzify-service/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	DefaultQuestionModel = "gemini-1.5-pro"
	DefaultAnalysisModel = "gemini-1.5-flash"
	defaultTimeout       = 2 * time.Minute
	maxAttempts          = 3
)

// Config selects models and limits.
type Config struct {
	APIKey        string
	QuestionModel string
	AnalysisModel string
	Timeout       time.Duration
}

// contentGenerator is satisfied by *genai.GenerativeModel.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Client generates questions and analyzes attempts.
type Client struct {
	client     *genai.Client
	questions  contentGenerator
	analysis   contentGenerator
	timeout    time.Duration
	retryDelay time.Duration
	log        logrus.FieldLogger
}

// NewClient dials the Gemini API.
func NewClient(ctx context.Context, cfg Config, log logrus.FieldLogger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	questionModel := client.GenerativeModel(orDefault(cfg.QuestionModel, DefaultQuestionModel))
	questionModel.ResponseMIMEType = "application/json"
	questionModel.ResponseSchema = questionsSchema()
	questionModel.SetTemperature(0.4)

	analysisModel := client.GenerativeModel(orDefault(cfg.AnalysisModel, DefaultAnalysisModel))
	analysisModel.ResponseMIMEType = "application/json"
	analysisModel.ResponseSchema = analysisSchema()
	analysisModel.SetTemperature(0.2)

	c := newClient(questionModel, analysisModel, cfg.Timeout, log)
	c.client = client
	return c, nil
}

func newClient(questions, analysis contentGenerator, timeout time.Duration, log logrus.FieldLogger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		questions:  questions,
		analysis:   analysis,
		timeout:    timeout,
		retryDelay: 2 * time.Second,
		log:        log.WithField("component", "gemini"),
	}
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

type generatedQuestion struct {
	Text          string        `json:"text"`
	Type          string        `json:"type"`
	Options       []string      `json:"options"`
	CorrectAnswer domain.Answer `json:"correctAnswer"`
	Explanation   string        `json:"explanation"`
	Difficulty    string        `json:"difficulty"`
	Marks         float64       `json:"marks"`
}

// GenerateQuestions drafts count questions on topic. Ids are left empty for
// the caller to assign.
func (c *Client) GenerateQuestions(ctx context.Context, topic string, count int, difficulty domain.Difficulty) ([]domain.Question, error) {
	prompt := fmt.Sprintf(`Generate a high-quality academic quiz on the topic of %q.
The difficulty level should be %s.
Include %d questions.
Mix MCQ and TRUE_FALSE questions.
For TRUE_FALSE questions the correct answer is exactly "True" or "False".
For MCQ questions the correct answer is copied verbatim from the options.
Provide detailed explanations for each answer with a real-world example.`, topic, difficulty, count)

	var out []domain.Question
	err := c.generate(ctx, c.questions, prompt, func(text string) error {
		var raw []generatedQuestion
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return err
		}
		if len(raw) == 0 {
			return fmt.Errorf("no questions in response")
		}
		questions := make([]domain.Question, 0, len(raw))
		for _, g := range raw {
			questions = append(questions, domain.Question{
				Type:          domain.QuestionType(strings.ToUpper(g.Type)),
				Text:          g.Text,
				Options:       g.Options,
				CorrectAnswer: g.CorrectAnswer,
				Explanation:   g.Explanation,
				Difficulty:    domain.Difficulty(strings.ToUpper(g.Difficulty)),
				Marks:         int(g.Marks + 0.5),
			})
		}
		out = questions
		return nil
	})
	return out, err
}

type attemptSummary struct {
	Topic      string            `json:"topic"`
	Title      string            `json:"title"`
	Score      int               `json:"score"`
	TotalMarks int               `json:"totalMarks"`
	TimeTaken  int               `json:"timeTakenSeconds"`
	TimeLimit  int               `json:"timeLimitSeconds"`
	Questions  []questionSummary `json:"questions"`
}

type questionSummary struct {
	Text      string        `json:"text"`
	Expected  domain.Answer `json:"expected"`
	Submitted domain.Answer `json:"submitted"`
	Correct   bool          `json:"correct"`
	Marks     int           `json:"marks"`
}

// AnalyzeAttempt narrates feedback for a stored attempt.
func (c *Client) AnalyzeAttempt(ctx context.Context, quiz domain.Quiz, attempt domain.QuizAttempt) (domain.Analysis, error) {
	summary := attemptSummary{
		Topic:      quiz.Topic,
		Title:      quiz.Title,
		Score:      attempt.Score,
		TotalMarks: attempt.TotalMarks,
		TimeTaken:  attempt.TimeTaken,
		TimeLimit:  quiz.TimeLimitSeconds(),
	}
	for _, q := range quiz.Questions {
		submitted := attempt.Answers[q.ID]
		summary.Questions = append(summary.Questions, questionSummary{
			Text:      q.Text,
			Expected:  q.CorrectAnswer,
			Submitted: submitted,
			Correct:   !submitted.IsZero() && submitted.Equal(q.CorrectAnswer),
			Marks:     q.Marks,
		})
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return domain.Analysis{}, fmt.Errorf("%w: encode attempt: %v", domain.ErrGeneration, err)
	}
	prompt := "Analyze this student's quiz performance and provide constructive feedback, " +
		"key areas for improvement, and a summary of their knowledge gaps.\nPerformance Data: " + string(data)

	var out domain.Analysis
	err = c.generate(ctx, c.analysis, prompt, func(text string) error {
		var a domain.Analysis
		if err := json.Unmarshal([]byte(text), &a); err != nil {
			return err
		}
		if strings.TrimSpace(a.Feedback) == "" {
			return fmt.Errorf("empty feedback")
		}
		out = a
		return nil
	})
	return out, err
}

// generate calls model with prompt and hands the JSON text to decode,
// retrying transport errors and malformed output.
func (c *Client) generate(ctx context.Context, model contentGenerator, prompt string, decode func(string) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %v (last error: %v)", domain.ErrGeneration, ctx.Err(), lastErr)
			case <-time.After(c.retryDelay):
			}
		}
		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			lastErr = fmt.Errorf("generate content (attempt %d): %w", attempt, err)
			c.log.WithError(err).WithField("attempt", attempt).Warn("gemini call failed")
			continue
		}
		text := extractJSON(responseText(resp))
		if text == "" {
			lastErr = fmt.Errorf("no JSON content in response (attempt %d)", attempt)
			continue
		}
		if err := decode(text); err != nil {
			lastErr = fmt.Errorf("decode response (attempt %d): %w", attempt, err)
			c.log.WithError(err).WithField("attempt", attempt).Debug("malformed gemini output")
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", domain.ErrGeneration, lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// extractJSON strips markdown fences and prose around the first JSON value.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	start := strings.IndexAny(text, "[{")
	if start < 0 {
		return ""
	}
	end := strings.LastIndexAny(text, "]}")
	if end < start {
		return ""
	}
	return text[start : end+1]
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
