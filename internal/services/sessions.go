package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"techtimecapsule-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var errBadCredentials = ErrUnauthorized("Invalid username or password")

// Login checks the credentials and opens a session. The username is trimmed the same
// way CreateUser trims it. Unknown usernames and wrong passwords produce the same error.
func Login(ctx context.Context, q sqlx.ExtContext, creds Credentials, username, password string) (models.Session, *models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return models.Session{}, nil, ErrBadRequest("Username and password are required")
	}
	user, err := GetUserByUsername(ctx, q, username)
	if err != nil {
		if StatusOf(err) == 404 {
			return models.Session{}, nil, errBadCredentials
		}
		return models.Session{}, nil, err
	}
	if !creds.VerifyPassword(password, user.PasswordHash) {
		return models.Session{}, nil, errBadCredentials
	}
	session, err := CreateSession(ctx, q, user.ID)
	if err != nil {
		return models.Session{}, nil, err
	}
	return session, user, nil
}

func CreateSession(ctx context.Context, q sqlx.ExtContext, userID int64) (models.Session, error) {
	session := models.Session{Token: uuid.NewString(), UserID: userID, CreatedAt: time.Now().UTC()}
	_, err := q.ExecContext(ctx, q.Rebind(`INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)`),
		session.Token, session.UserID, session.CreatedAt)
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// CurrentUser resolves a session token. Missing, unknown and orphaned tokens yield nil
// without an error.
func CurrentUser(ctx context.Context, q sqlx.ExtContext, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}
	var user models.User
	err := sqlx.GetContext(ctx, q, &user, q.Rebind(`
SELECT u.id, u.username, u.password_hash, u.created_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token = ?`), token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout forgets the session. Unknown tokens are ignored.
func Logout(ctx context.Context, q sqlx.ExtContext, token string) error {
	if token == "" {
		return nil
	}
	_, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM sessions WHERE token = ?`), token)
	return err
}
