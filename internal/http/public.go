package httpapi

import (
	"log"
	"net/http"

	"techtimecapsule-backend-go/internal/services"
)

const welcomeMessage = "Welcome to the Tech Time Capsule API!"

func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, MessageDTO{Message: welcomeMessage})
}

func (s *Server) Trivia(w http.ResponseWriter, r *http.Request) {
	event, err := services.RandomTriviaEvent(r.Context(), s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TriviaDTO{Description: event.Description, CorrectYear: event.Year})
}

func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	sample, err := services.CaptureStatus(r.Context(), s.DB, s.Config.StatusDiskPath, s.StartedAt)
	if err != nil {
		log.Printf("status: %v", err)
		WriteJSON(w, http.StatusServiceUnavailable, sample)
		return
	}
	WriteJSON(w, http.StatusOK, sample)
}
