package http

import (
	"quizzify-service/internal/app"
	"quizzify-service/internal/domain"
)

// questionView is a question without its answer key.
type questionView struct {
	ID         string              `json:"id"`
	Type       domain.QuestionType `json:"type"`
	Text       string              `json:"text"`
	Image      string              `json:"image,omitempty"`
	Options    []string            `json:"options,omitempty"`
	Difficulty domain.Difficulty   `json:"difficulty"`
	Marks      int                 `json:"marks"`
}

// quizView is what participants may see before finishing.
type quizView struct {
	ID            string            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	Topic         string            `json:"topic"`
	Code          string            `json:"code"`
	Difficulty    domain.Difficulty `json:"difficulty"`
	TimeLimit     int               `json:"timeLimit"`
	Theme         domain.Theme      `json:"theme,omitempty"`
	AttemptsCount int               `json:"attemptsCount"`
	QuestionCount int               `json:"questionCount"`
	Questions     []questionView    `json:"questions,omitempty"`
}

func newQuestionView(q domain.Question) questionView {
	return questionView{
		ID:         q.ID,
		Type:       q.Type,
		Text:       q.Text,
		Image:      q.Image,
		Options:    q.Options,
		Difficulty: q.Difficulty,
		Marks:      q.Marks,
	}
}

func newQuizView(q domain.Quiz, withQuestions bool) quizView {
	v := quizView{
		ID:            q.ID,
		Title:         q.Title,
		Description:   q.Description,
		Topic:         q.Topic,
		Code:          q.Code,
		Difficulty:    q.Difficulty,
		TimeLimit:     q.TimeLimit,
		Theme:         q.Theme,
		AttemptsCount: q.AttemptsCount,
		QuestionCount: len(q.Questions),
	}
	if withQuestions {
		for _, question := range q.Questions {
			v.Questions = append(v.Questions, newQuestionView(question))
		}
	}
	return v
}

type statePayload struct {
	app.Snapshot
	Title    string        `json:"title"`
	Theme    domain.Theme  `json:"theme,omitempty"`
	Question *questionView `json:"question,omitempty"`
}

func newStatePayload(quiz domain.Quiz, snap app.Snapshot) statePayload {
	p := statePayload{Snapshot: snap, Title: quiz.Title, Theme: quiz.Theme}
	if snap.Cursor >= 0 && snap.Cursor < len(quiz.Questions) {
		qv := newQuestionView(quiz.Questions[snap.Cursor])
		p.Question = &qv
	}
	return p
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type submittedPayload struct {
	AttemptID  string `json:"attemptId"`
	Score      int    `json:"score"`
	TotalMarks int    `json:"totalMarks"`
	TimeTaken  int    `json:"timeTaken"`
	XP         int    `json:"xp"`
	Level      int    `json:"level"`
	Streak     int    `json:"streak"`
}

func newSubmittedPayload(sub app.Submission) submittedPayload {
	return submittedPayload{
		AttemptID:  sub.Attempt.ID,
		Score:      sub.Attempt.Score,
		TotalMarks: sub.Attempt.TotalMarks,
		TimeTaken:  sub.Attempt.TimeTaken,
		XP:         sub.Profile.XP,
		Level:      sub.Profile.Level,
		Streak:     sub.Profile.Streak,
	}
}

type attemptView struct {
	Attempt domain.QuizAttempt `json:"attempt"`
	Result  app.ScoreResult    `json:"result"`
	Quiz    domain.Quiz        `json:"quiz"`
}
