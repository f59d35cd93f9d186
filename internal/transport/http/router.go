package http

import (
	"encoding/json"
	"net/http"

	"quizzify-service/internal/app"
	"quizzify-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// API serves the thin record views around the session engine.
type API struct {
	service *app.QuizService
	log     logrus.FieldLogger
}

func NewAPI(service *app.QuizService, log logrus.FieldLogger) *API {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &API{service: service, log: log}
}

// NewRouter mounts the REST API and the websocket endpoint.
func NewRouter(api *API, ws *WSHandler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ws", ws.ServeWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/quizzes", api.listQuizzes)
		r.Post("/quizzes", api.createQuiz)
		r.Post("/quizzes/generate", api.generateQuiz)
		r.Get("/quizzes/{code}", api.getQuiz)
		r.Get("/attempts", api.listAttempts)
		r.Get("/attempts/{id}", api.getAttempt)
		r.Get("/attempts/{id}/analysis", api.analyzeAttempt)
		r.Get("/sessions/{id}", api.getSession)
		r.Get("/profile", api.getProfile)
		r.Post("/profile/onboard", api.onboard)
		r.Post("/profile/role", api.switchRole)
	})
	return r
}

func (a *API) listQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.service.Quizzes(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	views := make([]quizView, 0, len(quizzes))
	for _, q := range quizzes {
		views = append(views, newQuizView(q, false))
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	var draft app.QuizDraft
	if !decodeBody(w, r, &draft) {
		return
	}
	quiz, err := a.service.CreateQuiz(r.Context(), draft)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) generateQuiz(w http.ResponseWriter, r *http.Request) {
	var req app.GenerateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	quiz, err := a.service.GenerateQuiz(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) getQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.service.QuizByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuizView(quiz, true))
}

func (a *API) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := a.service.Attempts(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if quizID := r.URL.Query().Get("quizId"); quizID != "" {
		filtered := attempts[:0]
		for _, at := range attempts {
			if at.QuizID == quizID {
				filtered = append(filtered, at)
			}
		}
		attempts = filtered
	}
	writeJSON(w, http.StatusOK, attempts)
}

func (a *API) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, quiz, err := a.service.Attempt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, attemptView{
		Attempt: attempt,
		Result:  app.Score(quiz, attempt.Answers),
		Quiz:    quiz,
	})
}

func (a *API) analyzeAttempt(w http.ResponseWriter, r *http.Request) {
	analysis, err := a.service.Analyze(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := a.service.Session(chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

func (a *API) getProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.service.Profile(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) onboard(w http.ResponseWriter, r *http.Request) {
	var req app.OnboardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := a.service.Onboard(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) switchRole(w http.ResponseWriter, r *http.Request) {
	user, err := a.service.SwitchRole(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	if statusFromError(err) == http.StatusInternalServerError {
		a.log.WithError(err).WithFields(logrus.Fields{
			"path":      r.URL.Path,
			"requestId": middleware.GetReqID(r.Context()),
		}).Error("request failed")
	}
	writeError(w, err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: domain.ErrValidation.Error() + ": malformed JSON body"})
		return false
	}
	return true
}
