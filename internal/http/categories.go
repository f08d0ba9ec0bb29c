package httpapi

import (
	"net/http"

	"techtimecapsule-backend-go/internal/services"
)

type CategoryRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

func (s *Server) ListCategories(w http.ResponseWriter, r *http.Request) {
	rows, err := services.ListCategories(r.Context(), s.DB)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	items := make([]CategoryDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, toCategoryDTO(row))
	}
	WriteJSON(w, http.StatusOK, items)
}

func (s *Server) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryId")
	if err != nil {
		writeFailure(w, r, services.ErrNotFound("Category not found"))
		return
	}
	row, err := services.GetCategory(r.Context(), s.DB, id)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCategoryDTO(*row))
}

func (s *Server) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	row, err := services.CreateCategory(r.Context(), s.DB, CurrentUser(r).ID, req.Name, req.Description)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toCategoryDTO(*row))
}

func (s *Server) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "categoryId")
	if err != nil {
		writeFailure(w, r, services.ErrNotFound("Category not found"))
		return
	}
	if err := services.DeleteCategory(r.Context(), s.DB, CurrentUser(r).ID, id); err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
