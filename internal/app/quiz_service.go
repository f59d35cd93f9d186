package app

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"quizzify-service/internal/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// minutesPerQuestion sets the default time limit of authored quizzes.
const minutesPerQuestion = 2

// QuestionDraft is one question as typed by an author.
type QuestionDraft struct {
	ID            string              `json:"id"`
	Type          domain.QuestionType `json:"type" validate:"omitempty,oneof=MCQ TRUE_FALSE FILL_IN_BLANK MATCHING"`
	Text          string              `json:"text" validate:"required"`
	Image         string              `json:"image"`
	Options       []string            `json:"options"`
	CorrectAnswer domain.Answer       `json:"correctAnswer" validate:"-"`
	Explanation   string              `json:"explanation"`
	Difficulty    domain.Difficulty   `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Marks         int                 `json:"marks" validate:"gte=0"`
}

// QuizDraft is the manual authoring input.
type QuizDraft struct {
	Topic       string            `json:"topic" validate:"required"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Difficulty  domain.Difficulty `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Theme       domain.Theme      `json:"theme" validate:"omitempty,oneof=standard royal cyber nature minimal"`
	TimeLimit   int               `json:"timeLimit" validate:"gte=0"`
	CreatorID   string            `json:"creatorId"`
	Questions   []QuestionDraft   `json:"questions" validate:"required,min=1,dive"`
}

// GenerateRequest asks the AI collaborator for a quiz.
type GenerateRequest struct {
	Topic      string            `json:"topic" validate:"required"`
	Count      int               `json:"count" validate:"gte=1,lte=50"`
	Difficulty domain.Difficulty `json:"difficulty" validate:"omitempty,oneof=EASY MEDIUM HARD"`
	Theme      domain.Theme      `json:"theme" validate:"omitempty,oneof=standard royal cyber nature minimal"`
}

// OnboardRequest fills in the local profile.
type OnboardRequest struct {
	Name  string      `json:"name" validate:"required"`
	Email string      `json:"email" validate:"required,email"`
	Role  domain.Role `json:"role" validate:"omitempty,oneof=STUDENT TEACHER"`
}

// Deps wires the service to its collaborators. Generator and Analyzer may be nil.
type Deps struct {
	Store     RecordStore
	Finder    QuizFinder
	Sessions  SessionRegistry
	Generator QuestionGenerator
	Analyzer  AttemptAnalyzer
	Codes     *CodeGenerator
	Logger    logrus.FieldLogger
	Now       func() time.Time
}

// QuizService contains the quiz use cases around the session engine.
type QuizService struct {
	store     RecordStore
	finder    QuizFinder
	sessions  SessionRegistry
	generator QuestionGenerator
	analyzer  AttemptAnalyzer
	codes     *CodeGenerator
	validate  *validator.Validate
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewQuizService(d Deps) *QuizService {
	s := &QuizService{
		store:     d.Store,
		finder:    d.Finder,
		sessions:  d.Sessions,
		generator: d.Generator,
		analyzer:  d.Analyzer,
		codes:     d.Codes,
		validate:  newValidator(),
		log:       d.Logger,
		now:       d.Now,
	}
	if s.finder == nil {
		s.finder = d.Store
	}
	if s.codes == nil {
		s.codes = NewCodeGenerator(0)
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(QuestionDraft)
		if !answerPresent(q.CorrectAnswer) {
			sl.ReportError(q.CorrectAnswer, "correctAnswer", "CorrectAnswer", "required", "")
		}
	}, QuestionDraft{})
	return v
}

func answerPresent(a domain.Answer) bool {
	if v, ok := a.Single(); ok {
		return v != ""
	}
	if parts, ok := a.Multi(); ok {
		return len(parts) > 0
	}
	return false
}

// validationError flattens validator output into one ErrValidation.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		if fe.Tag() == "required" {
			msgs = append(msgs, field+" is required")
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

// CreateQuiz validates a manual draft and saves it with a fresh join code.
// Nothing is written when validation fails. A draft without a creator is
// credited to the local profile.
func (s *QuizService) CreateQuiz(ctx context.Context, draft QuizDraft) (domain.Quiz, error) {
	if err := s.validate.Struct(draft); err != nil {
		return domain.Quiz{}, validationError(err)
	}
	questions := make([]domain.Question, 0, len(draft.Questions))
	for _, qd := range draft.Questions {
		questions = append(questions, questionFromDraft(qd))
	}
	creatorID := draft.CreatorID
	if creatorID == "" {
		user, err := s.store.LoadUser(ctx)
		if err != nil {
			return domain.Quiz{}, err
		}
		creatorID = user.ID
	}

	title := draft.Title
	if title == "" {
		title = draft.Topic
	}
	description := draft.Description
	if description == "" {
		description = "Manual quiz about " + draft.Topic
	}
	quiz := domain.Quiz{
		Title:       title,
		Description: description,
		Topic:       draft.Topic,
		CreatorID:   creatorID,
		Questions:   questions,
		Difficulty:  orDefault(draft.Difficulty, domain.DifficultyMedium),
		TimeLimit:   draft.TimeLimit,
		Theme:       orDefault(draft.Theme, domain.ThemeStandard),
	}
	if quiz.TimeLimit == 0 {
		quiz.TimeLimit = len(questions) * minutesPerQuestion
	}
	return s.publish(ctx, quiz)
}

// GenerateQuiz asks the AI collaborator for questions and saves the result.
func (s *QuizService) GenerateQuiz(ctx context.Context, req GenerateRequest) (domain.Quiz, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.Quiz{}, validationError(err)
	}
	if s.generator == nil {
		return domain.Quiz{}, fmt.Errorf("%w: no question generator configured", domain.ErrGeneration)
	}
	difficulty := orDefault(req.Difficulty, domain.DifficultyMedium)

	generated, err := s.generator.GenerateQuestions(ctx, req.Topic, req.Count, difficulty)
	if err != nil {
		if errors.Is(err, domain.ErrGeneration) {
			return domain.Quiz{}, err
		}
		return domain.Quiz{}, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	questions, err := normalizeGenerated(generated, difficulty)
	if err != nil {
		return domain.Quiz{}, err
	}

	user, err := s.store.LoadUser(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz := domain.Quiz{
		Topic:      req.Topic,
		CreatorID:  user.ID,
		Questions:  questions,
		Difficulty: difficulty,
		TimeLimit:  req.Count * minutesPerQuestion,
		Theme:      orDefault(req.Theme, domain.ThemeStandard),
	}
	if user.Role == domain.RoleTeacher {
		quiz.Title = req.Topic + " Mastery Quiz"
		quiz.Description = "Assessment for " + req.Topic
	} else {
		quiz.Title = req.Topic + " Mock Exam"
		quiz.Description = "AI Practice for " + req.Topic
	}
	return s.publish(ctx, quiz)
}

func (s *QuizService) publish(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	existing, err := s.store.LoadQuizzes(ctx)
	if err != nil {
		return domain.Quiz{}, err
	}
	code, err := s.codes.Allocate(existing)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = uuid.NewString()
	quiz.Code = code
	quiz.CreatedAt = domain.UnixMillis(s.now())
	quiz.AttemptsCount = 0
	if err := s.store.SaveQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.log.WithFields(logrus.Fields{"quiz": quiz.ID, "code": quiz.Code, "questions": len(quiz.Questions)}).Info("quiz published")
	return quiz, nil
}

func questionFromDraft(qd QuestionDraft) domain.Question {
	q := domain.Question{
		ID:            qd.ID,
		Type:          orDefault(qd.Type, domain.QuestionMCQ),
		Text:          qd.Text,
		Image:         qd.Image,
		Options:       qd.Options,
		CorrectAnswer: qd.CorrectAnswer,
		Explanation:   qd.Explanation,
		Difficulty:    orDefault(qd.Difficulty, domain.DifficultyMedium),
		Marks:         qd.Marks,
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.Marks == 0 {
		q.Marks = 1
	}
	return q
}

func normalizeGenerated(generated []domain.Question, difficulty domain.Difficulty) ([]domain.Question, error) {
	if len(generated) == 0 {
		return nil, fmt.Errorf("%w: no questions returned", domain.ErrGeneration)
	}
	out := make([]domain.Question, 0, len(generated))
	for i, q := range generated {
		if strings.TrimSpace(q.Text) == "" || !answerPresent(q.CorrectAnswer) {
			return nil, fmt.Errorf("%w: question %d is missing text or answer", domain.ErrGeneration, i+1)
		}
		q.ID = uuid.NewString()
		q.Type = orDefault(q.Type, domain.QuestionMCQ)
		q.Difficulty = orDefault(q.Difficulty, difficulty)
		if q.Marks <= 0 {
			q.Marks = 1
		}
		if q.Type == domain.QuestionTrueFalse && len(q.Options) == 0 {
			q.Options = []string{"True", "False"}
		}
		out = append(out, q)
	}
	return out, nil
}

func orDefault[T ~string](v, fallback T) T {
	if v == "" {
		return fallback
	}
	return v
}

// StartSession loads the quiz behind code into a new active session.
// An empty userID means the local profile.
func (s *QuizService) StartSession(ctx context.Context, code, userID string) (*Session, error) {
	if !ValidJoinCode(code) {
		return nil, domain.ErrQuizNotFound
	}
	if userID == "" {
		user, err := s.store.LoadUser(ctx)
		if err != nil {
			return nil, err
		}
		userID = user.ID
	}
	session := NewSessionWithClock(uuid.NewString(), userID, s.store, s.finder, s.log, s.now)
	if err := session.Load(ctx, code); err != nil {
		return nil, err
	}
	if s.sessions != nil {
		s.sessions.Register(session)
	}
	return session, nil
}

// EndSession tears a session down and forgets it.
func (s *QuizService) EndSession(session *Session) {
	session.Close()
	if s.sessions != nil {
		s.sessions.Remove(session.ID())
	}
}

// Session returns a registered session.
func (s *QuizService) Session(sessionID string) (*Session, error) {
	if s.sessions == nil {
		return nil, domain.ErrSessionNotFound
	}
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *QuizService) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.store.LoadQuizzes(ctx)
}

func (s *QuizService) QuizByCode(ctx context.Context, code string) (domain.Quiz, error) {
	return s.store.FindQuizByCode(ctx, code)
}

func (s *QuizService) Attempts(ctx context.Context) ([]domain.QuizAttempt, error) {
	return s.store.LoadAttempts(ctx)
}

// Attempt returns a stored attempt together with the quiz it refers to.
func (s *QuizService) Attempt(ctx context.Context, attemptID string) (domain.QuizAttempt, domain.Quiz, error) {
	attempts, err := s.store.LoadAttempts(ctx)
	if err != nil {
		return domain.QuizAttempt{}, domain.Quiz{}, err
	}
	for _, a := range attempts {
		if a.ID != attemptID {
			continue
		}
		quizzes, err := s.store.LoadQuizzes(ctx)
		if err != nil {
			return domain.QuizAttempt{}, domain.Quiz{}, err
		}
		for _, q := range quizzes {
			if q.ID == a.QuizID {
				return a, q, nil
			}
		}
		return domain.QuizAttempt{}, domain.Quiz{}, fmt.Errorf("%w: %s", domain.ErrQuizNotFound, a.QuizID)
	}
	return domain.QuizAttempt{}, domain.Quiz{}, domain.ErrAttemptNotFound
}

// Analyze asks the AI collaborator to narrate an already stored attempt.
// Its failure never changes stored records.
func (s *QuizService) Analyze(ctx context.Context, attemptID string) (domain.Analysis, error) {
	attempt, quiz, err := s.Attempt(ctx, attemptID)
	if err != nil {
		return domain.Analysis{}, err
	}
	if s.analyzer == nil {
		return domain.Analysis{}, fmt.Errorf("%w: no analyzer configured", domain.ErrGeneration)
	}
	analysis, err := s.analyzer.AnalyzeAttempt(ctx, quiz, attempt)
	if err != nil {
		s.log.WithError(err).WithField("attempt", attemptID).Warn("attempt analysis failed")
		if errors.Is(err, domain.ErrGeneration) {
			return domain.Analysis{}, err
		}
		return domain.Analysis{}, fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	return analysis, nil
}

func (s *QuizService) Profile(ctx context.Context) (domain.User, error) {
	return s.store.LoadUser(ctx)
}

// Onboard records the profile details entered on first use.
func (s *QuizService) Onboard(ctx context.Context, req OnboardRequest) (domain.User, error) {
	if err := s.validate.Struct(req); err != nil {
		return domain.User{}, validationError(err)
	}
	return s.store.UpdateUser(ctx, func(user domain.User) domain.User {
		user.Name = req.Name
		user.Email = req.Email
		user.Role = orDefault(req.Role, user.Role)
		user.IsOnboarded = true
		return user
	})
}

// SwitchRole toggles between student and teacher presentation.
func (s *QuizService) SwitchRole(ctx context.Context) (domain.User, error) {
	return s.store.UpdateUser(ctx, func(user domain.User) domain.User {
		if user.Role == domain.RoleTeacher {
			user.Role = domain.RoleStudent
		} else {
			user.Role = domain.RoleTeacher
		}
		return user
	})
}
