package highscore

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"
)

type errorBody struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// Handler serves GET (list) and POST (create) on a single path. A nil store
// degrades to an empty list and unsaved echoes instead of failing requests.
type Handler struct {
	Store Store
}

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Message: "method not allowed"})
	}
}

func (h Handler) list(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeJSON(w, http.StatusOK, []Highscore{})
		return
	}
	scores, err := h.Store.List(r.Context())
	if err != nil {
		log.Printf("[SCORES] list failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Failed to fetch highscores"})
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

func (h Handler) create(w http.ResponseWriter, r *http.Request) {
	var in InsertScore
	r.Body = http.MaxBytesReader(w, r.Body, 4096)
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: "invalid JSON body"})
		return
	}
	if err := in.Validate(); err != nil {
		writeValidation(w, err)
		return
	}

	if h.Store == nil {
		log.Printf("[SCORES] no store configured, highscore for '%s' not saved", in.PlayerName)
		writeJSON(w, http.StatusCreated, Highscore{PlayerName: in.PlayerName, Score: in.Score, CreatedAt: time.Now()})
		return
	}
	score, err := h.Store.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, ErrInvalidScore) {
			writeValidation(w, err)
			return
		}
		log.Printf("[SCORES] create failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: "Failed to create highscore"})
		return
	}
	writeJSON(w, http.StatusCreated, score)
}

func writeValidation(w http.ResponseWriter, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorBody{Message: ve.Message, Field: ve.Field})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorBody{Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SCORES] write response: %v", err)
	}
}
