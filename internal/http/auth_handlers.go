package httpapi

import (
	"net/http"
	"strings"

	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/models"
	"techtimecapsule-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
)

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) Signup(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		WriteError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	hash, err := s.Creds.HashPassword(req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	var (
		user    models.User
		session models.Session
	)
	err = db.WithTx(r.Context(), s.DB, func(tx *sqlx.Tx) error {
		var err error
		user, err = services.CreateUser(r.Context(), tx, req.Username, hash)
		if err != nil {
			return err
		}
		session, err = services.CreateSession(r.Context(), tx, user.ID)
		return err
	})
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := s.setSessionCookie(w, session.Token); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, toUserDTO(&user))
}

func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, r, err)
		return
	}
	session, user, err := services.Login(r.Context(), s.DB, s.Creds, req.Username, req.Password)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	if err := s.setSessionCookie(w, session.Token); err != nil {
		writeFailure(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

// Logout always succeeds; an unknown or missing session is already logged out.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if err := services.Logout(r.Context(), s.DB, currentSessionToken(r)); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) CheckSession(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	if user == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, toUserDTO(user))
}

func (s *Server) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := services.DeleteUser(r.Context(), s.DB, CurrentUser(r).ID); err != nil {
		writeFailure(w, r, err)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
