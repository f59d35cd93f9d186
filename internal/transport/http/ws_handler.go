package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"quizzify-service/internal/app"
	"quizzify-service/internal/domain"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const analysisTimeout = 90 * time.Second

// WSHandler drives one quiz session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	clock    clockwork.Clock
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, clock clockwork.Clock, log logrus.FieldLogger) *WSHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WSHandler{
		service: service,
		clock:   clock,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type navigatePayload struct {
	Direction int `json:"direction"`
}

type answerPayload struct {
	QuestionID string        `json:"questionId"`
	Value      domain.Answer `json:"value"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request, loads the quiz named by ?code= and relays
// session events until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	userID := r.URL.Query().Get("userId")
	if code == "" {
		http.Error(w, "missing code", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.service.StartSession(ctx, code, userID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndSession(session)
	quiz := session.Quiz()
	log := h.log.WithFields(logrus.Fields{"session": session.ID(), "quiz": quiz.ID})

	send := make(chan outboundMessage[any], 16)
	closed := make(chan struct{})
	writerDone := make(chan struct{})
	var workers sync.WaitGroup

	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-closed:
		case <-writerDone:
		}
	}
	emitErr := func(err error) {
		emit("error", errorPayload{Message: err.Error()})
	}

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	// The tick that expires the countdown and a manual submit may both
	// observe the finished session; clients hear about it once.
	var announce sync.Once
	announceSubmitted := func(err error) {
		announce.Do(func() {
			sub, ok := session.Submission()
			if !ok {
				if err == nil {
					err = domain.ErrPersistence
				}
				emitErr(err)
				return
			}
			emit("submitted", newSubmittedPayload(sub))
			if err != nil {
				emitErr(err)
			}
			workers.Add(1)
			go func() {
				defer workers.Done()
				h.analyze(ctx, sub.Attempt.ID, emit, log)
			}()
		})
	}

	workers.Add(1)
	go func() {
		defer workers.Done()
		app.RunCountdown(ctx, session, h.clock, log, func(snap app.Snapshot) {
			if snap.Phase == app.PhaseActive {
				emit("tick", tickPayload{Remaining: snap.Remaining})
				return
			}
			if snap.Phase == app.PhaseFinished {
				announceSubmitted(nil)
			}
		})
	}()

	emit("state", newStatePayload(quiz, session.Snapshot()))

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit("error", errorPayload{Message: "invalid navigate payload"})
				continue
			}
			emit("state", newStatePayload(quiz, session.Navigate(payload.Direction)))
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			if err := session.RecordAnswer(payload.QuestionID, payload.Value); err != nil {
				emitErr(err)
				continue
			}
			emit("state", newStatePayload(quiz, session.Snapshot()))
		case "state":
			emit("state", newStatePayload(quiz, session.Snapshot()))
		case "submit":
			_, err := session.Submit(ctx)
			announceSubmitted(err)
		default:
			emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	cancel()
	close(closed)
	workers.Wait()
	close(send)
	<-writerDone
}

// analyze runs after the attempt is stored; its failure is only reported.
func (h *WSHandler) analyze(ctx context.Context, attemptID string, emit func(string, any), log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()
	analysis, err := h.service.Analyze(ctx, attemptID)
	if err != nil {
		log.WithError(err).WithField("attempt", attemptID).Info("analysis unavailable")
		emit("analysisError", errorPayload{Message: err.Error()})
		return
	}
	emit("analysis", analysis)
}
