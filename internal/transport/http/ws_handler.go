package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"sat-quiz-runner/internal/app"
	"sat-quiz-runner/internal/domain"
)

// WSHandler exposes a quiz session over one WebSocket connection. The
// client sends intents (start, answer, navigate, toggleReview, submit,
// retryDispatch) and receives view snapshots after every state change and
// countdown tick; rendering stays entirely client-side.
type WSHandler struct {
	runner   *app.QuizRunner
	upgrader websocket.Upgrader
}

func NewWSHandler(runner *app.QuizRunner) *WSHandler {
	return &WSHandler{
		runner: runner,
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

type startPayload struct {
	Email    string `json:"email"`
	QuizName string `json:"quizName"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type navigatePayload struct {
	Action string `json:"action"` // next | previous | goto
	Index  int    `json:"index"`  // goto target
}

type helloPayload struct {
	SavedEmail string `json:"savedEmail,omitempty"`
}

type submittedPayload struct {
	RecordCount int `json:"recordCount"`
}

type errorPayload struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request and drives one session's intent loop.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	sessionID := uuid.NewString()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				// Keep draining so senders never block on a dead connection.
				for range send {
				}
				return
			}
		}
	}()

	// Prefill the email field for returning students.
	send <- outboundMessage[any]{Type: "hello", Payload: helloPayload{SavedEmail: h.runner.SavedEmail(r.Context())}}

	started := false
	closeSignals := make(chan struct{})
	updatesDone := make(chan struct{})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		switch inbound.Type {
		case "start":
			if started {
				send <- errMsg("session already started", false)
				continue
			}
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid start payload", false)
				continue
			}
			if _, err := h.runner.Start(r.Context(), sessionID, payload.Email, payload.QuizName); err != nil {
				// Start stays retryable: the session was never created.
				send <- errMsg(err.Error(), false)
				continue
			}
			updates, cancel, err := h.runner.Subscribe(sessionID)
			if err != nil {
				send <- errMsg(err.Error(), false)
				continue
			}
			started = true
			go func() {
				defer close(updatesDone)
				defer cancel()
				for {
					select {
					case view, ok := <-updates:
						if !ok {
							return
						}
						select {
						case send <- outboundMessage[any]{Type: "view", Payload: view}:
						case <-closeSignals:
							return
						}
					case <-closeSignals:
						return
					}
				}
			}()

		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid answer payload", false)
				continue
			}
			if err := h.runner.Select(sessionID, payload.Option); err != nil {
				send <- errMsg(err.Error(), false)
			}

		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errMsg("invalid navigate payload", false)
				continue
			}
			var navErr error
			switch payload.Action {
			case "next":
				navErr = h.runner.Next(sessionID)
			case "previous":
				navErr = h.runner.Previous(sessionID)
			case "goto":
				navErr = h.runner.GoTo(sessionID, payload.Index)
			default:
				send <- errMsg("unsupported navigate action", false)
				continue
			}
			if navErr != nil {
				send <- errMsg(navErr.Error(), false)
			}

		case "toggleReview":
			if err := h.runner.ToggleReview(sessionID); err != nil {
				send <- errMsg(err.Error(), false)
			}

		case "submit":
			records, err := h.runner.Submit(r.Context(), sessionID)
			if err != nil {
				send <- errMsg(err.Error(), errors.Is(err, domain.ErrSubmissionDispatch))
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: submittedPayload{RecordCount: len(records)}}

		case "retryDispatch":
			if err := h.runner.RetryDispatch(r.Context(), sessionID); err != nil {
				send <- errMsg(err.Error(), errors.Is(err, domain.ErrSubmissionDispatch))
				continue
			}
			send <- outboundMessage[any]{Type: "submitted", Payload: submittedPayload{}}

		default:
			send <- errMsg("unsupported message type", false)
		}
	}

	if started {
		close(closeSignals)
		<-updatesDone
	}
	close(send)
	<-writerDone
	h.runner.Release(sessionID)
}

func errMsg(message string, retryable bool) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message, Retryable: retryable}}
}
