package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"verbquiz-service/internal/app"
	"verbquiz-service/internal/domain"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
)

const (
	cookieName  = "verbquiz"
	gameIDKey   = "game"
	maxBodySize = 4 << 10
)

// RESTHandler exposes the screen router over plain HTTP. The caller's game id
// lives in a signed cookie, so every request rebuilds the router from it.
type RESTHandler struct {
	service *app.QuizService
	store   *sessions.CookieStore
}

// NewRESTHandler signs cookies with secret. An empty secret gets a random key,
// which invalidates running games on restart.
func NewRESTHandler(service *app.QuizService, secret []byte) *RESTHandler {
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &RESTHandler{service: service, store: store}
}

// Register mounts the REST routes on mux.
func (h *RESTHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/game", h.getGame)
	mux.HandleFunc("POST /api/game", h.startGame)
	mux.HandleFunc("POST /api/game/answer", h.submitAnswer)
	mux.HandleFunc("POST /api/game/next", h.advance)
	mux.HandleFunc("DELETE /api/game", h.endGame)
	mux.HandleFunc("GET /api/results", h.results)
}

type screenResponse struct {
	Screen app.Screen       `json:"screen"`
	Game   *domain.Snapshot `json:"game,omitempty"`
}

type startRequest struct {
	Mode string `json:"mode"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

// getGame returns the current screen. With ?wait=1 it blocks until the
// questions of a loading game have arrived.
func (h *RESTHandler) getGame(w http.ResponseWriter, r *http.Request) {
	router, session := h.router(r)

	var (
		snap domain.Snapshot
		err  error
	)
	if r.URL.Query().Get("wait") != "" {
		snap, err = router.Wait(r.Context())
	} else {
		snap, err = router.Snapshot()
	}
	h.save(w, r, session, router)

	if errors.Is(err, domain.ErrNotPlaying) || errors.Is(err, domain.ErrSessionNotFound) {
		writeJSON(w, http.StatusOK, screenResponse{Screen: app.ScreenHome})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: app.ScreenPlaying, Game: &snap})
}

func (h *RESTHandler) startGame(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	mode, err := domain.ParseMode(req.Mode)
	if err != nil {
		writeError(w, err)
		return
	}

	router, session := h.router(r)
	snap, err := router.StartGame(r.Context(), mode)
	h.save(w, r, session, router)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, screenResponse{Screen: app.ScreenPlaying, Game: &snap})
}

func (h *RESTHandler) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	router, session := h.router(r)
	snap, err := router.Submit(r.Context(), req.Answer)
	h.save(w, r, session, router)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: app.ScreenPlaying, Game: &snap})
}

func (h *RESTHandler) advance(w http.ResponseWriter, r *http.Request) {
	router, session := h.router(r)
	snap, err := router.Advance(r.Context())
	h.save(w, r, session, router)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, screenResponse{Screen: app.ScreenPlaying, Game: &snap})
}

func (h *RESTHandler) endGame(w http.ResponseWriter, r *http.Request) {
	router, session := h.router(r)
	router.EndGame(r.Context())
	h.save(w, r, session, router)
	writeJSON(w, http.StatusOK, screenResponse{Screen: app.ScreenHome})
}

func (h *RESTHandler) results(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	results, err := h.service.RecentResults(r.Context(), limit)
	if err != nil {
		log.Printf("list results: %v", err)
		http.Error(w, "could not load results", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []domain.Result{}
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *RESTHandler) router(r *http.Request) (*app.Router, *sessions.Session) {
	// A cookie that fails verification yields a fresh session, i.e. the home screen.
	session, _ := h.store.Get(r, cookieName)
	gameID, _ := session.Values[gameIDKey].(string)
	return app.ResumeRouter(h.service, gameID), session
}

func (h *RESTHandler) save(w http.ResponseWriter, r *http.Request, session *sessions.Session, router *app.Router) {
	if id := router.GameID(); id != "" {
		session.Values[gameIDKey] = id
	} else {
		delete(session.Values, gameIDKey)
	}
	if err := session.Save(r, w); err != nil {
		log.Printf("save cookie: %v", err)
	}
}

var errBadRequest = errors.New("invalid request body")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errBadRequest
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrUnknownMode):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyPlaying),
		errors.Is(err, domain.ErrNotPlaying):
		status = http.StatusConflict
	}
	writeJSON(w, status, errorPayload{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}
