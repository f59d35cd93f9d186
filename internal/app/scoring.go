package app

import "quizzify-service/internal/domain"

// QuestionResult is the per-question outcome of scoring.
type QuestionResult struct {
	QuestionID string `json:"questionId"`
	Answered   bool   `json:"answered"`
	Correct    bool   `json:"correct"`
	Marks      int    `json:"marks"`
	Awarded    int    `json:"awarded"`
}

// ScoreResult summarizes a scored answer set.
type ScoreResult struct {
	Score      int              `json:"score"`
	TotalMarks int              `json:"totalMarks"`
	Correct    int              `json:"correct"`
	Answered   int              `json:"answered"`
	Questions  []QuestionResult `json:"questions"`
}

// Percentage is the score as a share of total marks, 0 for an empty quiz.
func (r ScoreResult) Percentage() float64 {
	if r.TotalMarks == 0 {
		return 0
	}
	return float64(r.Score) * 100 / float64(r.TotalMarks)
}

// Score compares answers with the quiz's answer key. It is pure: the same
// input always yields the same result, in question order.
func Score(quiz domain.Quiz, answers map[string]domain.Answer) ScoreResult {
	result := ScoreResult{Questions: make([]QuestionResult, 0, len(quiz.Questions))}
	for _, q := range quiz.Questions {
		qr := QuestionResult{QuestionID: q.ID, Marks: q.Marks}
		submitted, ok := answers[q.ID]
		if ok && !submitted.IsZero() {
			qr.Answered = true
			result.Answered++
		}
		if qr.Answered && answerMatches(q.CorrectAnswer, submitted) {
			qr.Correct = true
			qr.Awarded = q.Marks
			result.Correct++
			result.Score += q.Marks
		}
		result.TotalMarks += q.Marks
		result.Questions = append(result.Questions, qr)
	}
	return result
}

// answerMatches requires exact, case-sensitive equality of the same shape.
func answerMatches(expected, submitted domain.Answer) bool {
	switch expected.Kind() {
	case domain.AnswerSingle:
		want, _ := expected.Single()
		got, ok := submitted.Single()
		return ok && got == want
	case domain.AnswerMulti:
		want, _ := expected.Multi()
		got, ok := submitted.Multi()
		if !ok || len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	case domain.AnswerNone:
		return false
	default:
		return false
	}
}
