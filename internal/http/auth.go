package httpapi

import (
	"context"
	"log"
	"net/http"

	"techtimecapsule-backend-go/internal/models"
	"techtimecapsule-backend-go/internal/services"
)

type contextKey string

const (
	ctxUser         contextKey = "user"
	ctxSessionToken contextKey = "sessionToken"
)

const sessionCookieName = "session"

// LoadSession resolves the session cookie and stores the user on the request context.
// Missing, forged and revoked cookies leave the request anonymous.
func (s *Server) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		token, err := s.Creds.ParseSession(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		user, err := services.CurrentUser(r.Context(), s.DB, token)
		if err != nil {
			log.Printf("session lookup: %v", err)
			WriteError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		ctx := context.WithValue(r.Context(), ctxSessionToken, token)
		if user != nil {
			ctx = context.WithValue(ctx, ctxUser, user)
			noteUser(r, user.ID)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r) == nil {
			WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func CurrentUser(r *http.Request) *models.User {
	if value, ok := r.Context().Value(ctxUser).(*models.User); ok {
		return value
	}
	return nil
}

func currentSessionToken(r *http.Request) string {
	if value, ok := r.Context().Value(ctxSessionToken).(string); ok {
		return value
	}
	return ""
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) error {
	signed, err := s.Creds.SignSession(token)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.sessionCookie(signed, 0))
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.sessionCookie("", -1))
}

func (s *Server) sessionCookie(value string, maxAge int) *http.Cookie {
	cookie := &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   maxAge,
		SameSite: http.SameSiteLaxMode,
	}
	if !s.Config.Debug {
		cookie.Secure = true
		cookie.SameSite = http.SameSiteNoneMode
	}
	return cookie
}
