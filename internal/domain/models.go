package domain

import "time"

// QuestionType enumerates the supported question formats.
type QuestionType string

const (
	QuestionMCQ         QuestionType = "MCQ"
	QuestionTrueFalse   QuestionType = "TRUE_FALSE"
	QuestionFillInBlank QuestionType = "FILL_IN_BLANK"
	QuestionMatching    QuestionType = "MATCHING"
)

// Difficulty grades questions and quizzes.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "EASY"
	DifficultyMedium Difficulty = "MEDIUM"
	DifficultyHard   Difficulty = "HARD"
)

// Theme is the cosmetic variant chosen at creation time. It never affects scoring.
type Theme string

const (
	ThemeStandard Theme = "standard"
	ThemeRoyal    Theme = "royal"
	ThemeCyber    Theme = "cyber"
	ThemeNature   Theme = "nature"
	ThemeMinimal  Theme = "minimal"
)

// Role changes presentation context only.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// Question is immutable once its quiz is published.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Text          string       `json:"text"`
	Image         string       `json:"image,omitempty"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer Answer       `json:"correctAnswer"`
	Explanation   string       `json:"explanation"`
	Difficulty    Difficulty   `json:"difficulty"`
	Marks         int          `json:"marks"`
}

// Quiz is created once; afterwards only AttemptsCount changes.
type Quiz struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Topic         string     `json:"topic"`
	Code          string     `json:"code"`
	CreatorID     string     `json:"creatorId"`
	CreatedAt     int64      `json:"createdAt"` // unix millis
	Questions     []Question `json:"questions"`
	Difficulty    Difficulty `json:"difficulty"`
	TimeLimit     int        `json:"timeLimit"` // minutes
	IsLive        bool       `json:"isLive"`
	AttemptsCount int        `json:"attemptsCount"`
	Theme         Theme      `json:"theme,omitempty"`
}

// TimeLimitSeconds is the countdown a session starts from.
func (q Quiz) TimeLimitSeconds() int {
	return q.TimeLimit * 60
}

// Question looks up a question by id.
func (q Quiz) Question(id string) (Question, bool) {
	for _, question := range q.Questions {
		if question.ID == id {
			return question, true
		}
	}
	return Question{}, false
}

// QuizAttempt is the append-only record of one completed pass through a quiz.
type QuizAttempt struct {
	ID               string            `json:"id"`
	QuizID           string            `json:"quizId"`
	UserID           string            `json:"userId"`
	Score            int               `json:"score"`
	TotalMarks       int               `json:"totalMarks"`
	TimeTaken        int               `json:"timeTaken"`   // seconds
	CompletedAt      int64             `json:"completedAt"` // unix millis
	Answers          map[string]Answer `json:"answers"`
	TopicPerformance map[string]int    `json:"topicPerformance,omitempty"`
}

// User is the singleton local profile.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Role        Role     `json:"role"`
	XP          int      `json:"xp"`
	Level       int      `json:"level"`
	Badges      []string `json:"badges"`
	Streak      int      `json:"streak"`
	IsOnboarded bool     `json:"isOnboarded"`
}

// Analysis is the AI collaborator's non-authoritative feedback on an attempt.
type Analysis struct {
	Feedback        string   `json:"feedback"`
	WeakTopics      []string `json:"weakTopics"`
	ImprovementTips []string `json:"improvementTips"`
	ConceptRecap    string   `json:"conceptRecap,omitempty"`
}

// UnixMillis converts t the way records store timestamps.
func UnixMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}
