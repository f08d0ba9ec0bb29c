package httpapi

import (
	"net/http"

	"techtimecapsule-backend-go/internal/services"
)

// EventRequest lists every field a client may write on an event.
type EventRequest struct {
	Title       *string                      `json:"title"`
	Description *string                      `json:"description"`
	Year        *int                         `json:"year"`
	Month       *int                         `json:"month"`
	Day         *int                         `json:"day"`
	ImageURL    *string                      `json:"image_url"`
	SourceLink  *string                      `json:"source_link"`
	Categories  *[]services.AssociationInput `json:"categories"`
}

func (req EventRequest) input() services.EventInput {
	return services.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Year:        req.Year,
		Month:       req.Month,
		Day:         req.Day,
		ImageURL:    req.ImageURL,
		SourceLink:  req.SourceLink,
		Categories:  req.Categories,
	}
}

func (s *Server) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := services.ParseEventFilter(r.URL.Query())
	records, err := services.ListEvents(r.Context(), s.DB, filter)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventDTOs(records))
}

func (s *Server) FeaturedEvents(w http.ResponseWriter, r *http.Request) {
	records, err := services.FeaturedEvents(r.Context(), s.DB, services.FeaturedLimit)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventDTOs(records))
}

func (s *Server) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		writeFailure(w, r, services.ErrNotFound("Event not found"))
		return
	}
	record, err := services.GetEvent(r.Context(), s.DB, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventDTO(*record))
}

func (s *Server) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	record, err := services.CreateEvent(r.Context(), s.DB, CurrentUser(r).ID, req.input())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toEventDTO(*record))
}

func (s *Server) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		writeFailure(w, r, services.ErrNotFound("Event not found"))
		return
	}
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	record, err := services.UpdateEvent(r.Context(), s.DB, CurrentUser(r).ID, id, req.input())
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventDTO(*record))
}

func (s *Server) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "eventId")
	if err != nil {
		writeFailure(w, r, services.ErrNotFound("Event not found"))
		return
	}
	if err := services.DeleteEvent(r.Context(), s.DB, CurrentUser(r).ID, id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
