package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quizzify-service/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Phase is the lifecycle position of a session.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseActive
	PhaseFinished
	// PhaseClosed is reached by teardown before submission; no attempt is recorded.
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseActive:
		return "active"
	case PhaseFinished:
		return "finished"
	case PhaseClosed:
		return "closed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p Phase) terminal() bool {
	return p == PhaseFinished || p == PhaseClosed
}

// Event is a discrete input to the session state machine.
type Event interface {
	isEvent()
}

// NavigateEvent moves the cursor; Direction is clamped to a single step.
type NavigateEvent struct{ Direction int }

// AnswerEvent upserts the answer for one question. A zero Value clears it.
type AnswerEvent struct {
	QuestionID string
	Value      domain.Answer
}

// TickEvent removes one second from the countdown.
type TickEvent struct{}

// SubmitEvent finishes the session.
type SubmitEvent struct{}

func (NavigateEvent) isEvent() {}
func (AnswerEvent) isEvent()   {}
func (TickEvent) isEvent()     {}
func (SubmitEvent) isEvent()   {}

// State is the pure part of a session that transitions operate on.
type State struct {
	Phase     Phase
	Cursor    int
	Remaining int
	Answers   map[string]domain.Answer
}

// transition computes the next state for ev. submit reports that the caller
// must run the submission effect; it is true at most once per session
// because the returned state is already terminal.
func transition(quiz domain.Quiz, st State, ev Event) (next State, submit bool, err error) {
	if st.Phase != PhaseActive {
		return st, false, nil
	}
	switch e := ev.(type) {
	case NavigateEvent:
		st.Cursor = clampCursor(st.Cursor+step(e.Direction), len(quiz.Questions))
	case AnswerEvent:
		if _, ok := quiz.Question(e.QuestionID); !ok {
			return st, false, fmt.Errorf("%w: %s", domain.ErrQuestionNotFound, e.QuestionID)
		}
		answers := make(map[string]domain.Answer, len(st.Answers)+1)
		for k, v := range st.Answers {
			answers[k] = v
		}
		if e.Value.IsZero() {
			delete(answers, e.QuestionID)
		} else {
			answers[e.QuestionID] = e.Value
		}
		st.Answers = answers
	case TickEvent:
		st.Remaining--
		if st.Remaining <= 0 {
			st.Remaining = 0
			st.Phase = PhaseFinished
			submit = true
		}
	case SubmitEvent:
		st.Phase = PhaseFinished
		submit = true
	default:
		return st, false, fmt.Errorf("unsupported session event %T", ev)
	}
	return st, submit, nil
}

func step(direction int) int {
	switch {
	case direction > 0:
		return 1
	case direction < 0:
		return -1
	default:
		return 0
	}
}

func clampCursor(cursor, n int) int {
	if cursor < 0 || n == 0 {
		return 0
	}
	if cursor > n-1 {
		return n - 1
	}
	return cursor
}

// Snapshot is a copy of the session's observable state.
type Snapshot struct {
	SessionID string                   `json:"sessionId"`
	QuizID    string                   `json:"quizId"`
	Phase     Phase                    `json:"phase"`
	Cursor    int                      `json:"cursor"`
	Total     int                      `json:"total"`
	Remaining int                      `json:"remaining"`
	Answers   map[string]domain.Answer `json:"answers"`
	AttemptID string                   `json:"attemptId,omitempty"`
}

// Submission is what a finished session produced.
type Submission struct {
	Attempt domain.QuizAttempt
	Result  ScoreResult
	Profile domain.User
}

// Session drives one timed attempt from load to submission.
type Session struct {
	id          string
	userID      string
	store       RecordStore
	finder      QuizFinder
	progression *ProgressionUpdater
	now         func() time.Time
	log         logrus.FieldLogger

	mu         sync.Mutex
	quiz       domain.Quiz
	state      State
	submission *Submission
	submitErr  error
	done       chan struct{}
}

// NewSession builds a session in the loading phase.
func NewSession(id, userID string, store RecordStore, finder QuizFinder, log logrus.FieldLogger) *Session {
	return NewSessionWithClock(id, userID, store, finder, log, time.Now)
}

// NewSessionWithClock allows deterministic completion timestamps in tests.
func NewSessionWithClock(id, userID string, store RecordStore, finder QuizFinder, log logrus.FieldLogger, now func() time.Time) *Session {
	if finder == nil {
		finder = store
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Session{
		id:          id,
		userID:      userID,
		store:       store,
		finder:      finder,
		progression: NewProgressionUpdater(store),
		now:         now,
		log:         log.WithField("session", id),
		state:       State{Phase: PhaseLoading},
		done:        make(chan struct{}),
	}
}

func (s *Session) ID() string { return s.id }

// Quiz returns the loaded quiz; it is the zero value while loading.
func (s *Session) Quiz() domain.Quiz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quiz
}

// Done is closed once the session reaches a terminal phase.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Load resolves code and starts the countdown from timeLimit*60 seconds.
func (s *Session) Load(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase != PhaseLoading {
		return nil
	}
	quiz, err := s.finder.FindQuizByCode(ctx, code)
	if err != nil {
		return err
	}
	s.quiz = quiz
	s.state = State{
		Phase:     PhaseActive,
		Remaining: quiz.TimeLimitSeconds(),
		Answers:   map[string]domain.Answer{},
	}
	s.log.WithFields(logrus.Fields{"quiz": quiz.ID, "code": quiz.Code}).Debug("session loaded")
	return nil
}

// Handle feeds one event through the state machine and, when the event
// finishes the session, scores and persists the attempt.
func (s *Session) Handle(ctx context.Context, ev Event) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, submit, err := transition(s.quiz, s.state, ev)
	if err != nil {
		return s.snapshotLocked(), err
	}
	s.state = next
	if submit {
		s.submitLocked(ctx)
		close(s.done)
		return s.snapshotLocked(), s.submitErr
	}
	return s.snapshotLocked(), nil
}

// Navigate moves the cursor by one question in either direction.
func (s *Session) Navigate(direction int) Snapshot {
	snap, _ := s.Handle(context.Background(), NavigateEvent{Direction: direction})
	return snap
}

// RecordAnswer stores value for questionID without moving the cursor.
func (s *Session) RecordAnswer(questionID string, value domain.Answer) error {
	_, err := s.Handle(context.Background(), AnswerEvent{QuestionID: questionID, Value: value})
	return err
}

// Tick advances the countdown; reaching zero submits automatically.
func (s *Session) Tick(ctx context.Context) (Snapshot, error) {
	return s.Handle(ctx, TickEvent{})
}

// Submit finishes the session and returns the attempt id. Calling it again
// returns the same id without recording anything new.
func (s *Session) Submit(ctx context.Context) (string, error) {
	s.mu.Lock()
	phase := s.state.Phase
	s.mu.Unlock()
	if phase == PhaseLoading {
		return "", domain.ErrSessionNotLoaded
	}

	if _, err := s.Handle(ctx, SubmitEvent{}); err != nil {
		return s.attemptID(), err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptIDLocked(), s.submitErr
}

// Close tears the session down. An active session ends without an attempt.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Phase.terminal() {
		return
	}
	s.state.Phase = PhaseClosed
	close(s.done)
}

// Submission returns the outcome of a finished session.
func (s *Session) Submission() (Submission, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submission == nil {
		return Submission{}, false
	}
	return *s.submission, true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) attemptID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attemptIDLocked()
}

func (s *Session) attemptIDLocked() string {
	if s.submission == nil {
		return ""
	}
	return s.submission.Attempt.ID
}

func (s *Session) snapshotLocked() Snapshot {
	answers := make(map[string]domain.Answer, len(s.state.Answers))
	for k, v := range s.state.Answers {
		answers[k] = v
	}
	return Snapshot{
		SessionID: s.id,
		QuizID:    s.quiz.ID,
		Phase:     s.state.Phase,
		Cursor:    s.state.Cursor,
		Total:     len(s.quiz.Questions),
		Remaining: s.state.Remaining,
		Answers:   answers,
		AttemptID: s.attemptIDLocked(),
	}
}

// submitLocked scores, saves the attempt, bumps the quiz counter and updates
// the profile. Only a failed attempt write leaves the session without an id.
func (s *Session) submitLocked(ctx context.Context) {
	limit := s.quiz.TimeLimitSeconds()
	taken := limit - s.state.Remaining
	if taken < 0 {
		taken = 0
	}
	if taken > limit {
		taken = limit
	}

	result := Score(s.quiz, s.state.Answers)
	answers := make(map[string]domain.Answer, len(s.state.Answers))
	for k, v := range s.state.Answers {
		answers[k] = v
	}
	attempt := domain.QuizAttempt{
		ID:          uuid.NewString(),
		QuizID:      s.quiz.ID,
		UserID:      s.userID,
		Score:       result.Score,
		TotalMarks:  result.TotalMarks,
		TimeTaken:   taken,
		CompletedAt: domain.UnixMillis(s.now()),
		Answers:     answers,
	}
	if s.quiz.Topic != "" {
		attempt.TopicPerformance = map[string]int{s.quiz.Topic: result.Score}
	}

	logger := s.log.WithFields(logrus.Fields{"quiz": s.quiz.ID, "attempt": attempt.ID})
	if err := s.store.SaveAttempt(ctx, attempt); err != nil {
		s.submitErr = fmt.Errorf("save attempt: %w", err)
		logger.WithError(err).Error("attempt not recorded")
		return
	}
	s.submission = &Submission{Attempt: attempt, Result: result}

	if err := s.store.IncrementAttempts(ctx, s.quiz.ID); err != nil {
		logger.WithError(err).Warn("attempt count not updated")
	} else if cache, ok := s.finder.(CacheInvalidator); ok {
		cache.Invalidate(s.quiz.Code)
	}

	profile, err := s.progression.Apply(ctx, attempt)
	if err != nil {
		s.submitErr = fmt.Errorf("update progression: %w", err)
		logger.WithError(err).Error("profile not updated")
		return
	}
	s.submission.Profile = profile
	logger.WithFields(logrus.Fields{
		"score":     result.Score,
		"total":     result.TotalMarks,
		"timeTaken": taken,
	}).Info("attempt recorded")
}
