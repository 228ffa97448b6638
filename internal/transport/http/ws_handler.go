package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/domain"

	"github.com/gorilla/websocket"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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
	Mode string `json:"mode"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and gives the connection its own screen router.
// Closing the connection ends whatever game it was playing.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := context.WithoutCancel(r.Context())
	router := app.NewRouter(h.service)
	defer router.EndGame(ctx)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	sendError := func(err error) {
		send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
	}

	// stopForward detaches the snapshot forwarder of the current game, if any.
	stopForward := func() {}
	forward := func() {
		updates, cancel, err := router.Subscribe(ctx)
		if err != nil {
			sendError(err)
			return
		}
		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				select {
				case snap, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- outboundMessage[any]{Type: "state", Payload: snap}:
					case <-stop:
						return
					case <-closeSignals:
						return
					}
				case <-stop:
					return
				case <-closeSignals:
					return
				}
			}
		}()
		stopForward = func() {
			close(stop)
			<-done
			cancel()
			stopForward = func() {}
		}
	}
	goHome := func() {
		stopForward()
		router.EndGame(ctx)
		send <- outboundMessage[any]{Type: "home"}
	}

	send <- outboundMessage[any]{Type: "home"}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid start payload"}}
				continue
			}
			mode, err := domain.ParseMode(payload.Mode)
			if err != nil {
				sendError(err)
				continue
			}
			if _, err := router.StartGame(ctx, mode); err != nil {
				sendError(err)
				continue
			}
			forward()
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			if _, err := router.Submit(ctx, payload.Answer); err != nil {
				sendError(err)
			}
		case "next":
			if _, err := router.Advance(ctx); err != nil {
				sendError(err)
			}
		case "home":
			goHome()
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	stopForward()
	close(send)
	<-writerDone
}
