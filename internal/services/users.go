package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateUser inserts a user with an already hashed password.
func CreateUser(ctx context.Context, q sqlx.ExtContext, username, passwordHash string) (models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || passwordHash == "" {
		return models.User{}, ErrBadRequest("Username and password are required")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return models.User{}, ErrBadRequest(fmt.Sprintf("Username must be at most %d characters", MaxUsernameLength))
	}
	user := models.User{Username: username, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	err := sqlx.GetContext(ctx, q, &user.ID, q.Rebind(`
INSERT INTO users (username, password_hash, created_at)
VALUES (?, ?, ?)
RETURNING id`), user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return models.User{}, ErrConflict("Username already exists")
		}
		return models.User{}, err
	}
	return user, nil
}

func GetUser(ctx context.Context, q sqlx.ExtContext, userID int64) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, q, &user, q.Rebind(`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, q sqlx.ExtContext, username string) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, q, &user, q.Rebind(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`), username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("User not found")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user and everything the user owns: associations touching the
// user's events or categories, the events, the categories and the sessions.
func DeleteUser(ctx context.Context, database *sqlx.DB, userID int64) error {
	return db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		if _, err := GetUser(ctx, tx, userID); err != nil {
			return err
		}
		statements := []string{
			`DELETE FROM event_categories WHERE event_id IN (SELECT id FROM events WHERE user_id = ?)`,
			`DELETE FROM event_categories WHERE category_id IN (SELECT id FROM categories WHERE user_id = ?)`,
			`DELETE FROM events WHERE user_id = ?`,
			`DELETE FROM categories WHERE user_id = ?`,
			`DELETE FROM sessions WHERE user_id = ?`,
			`DELETE FROM users WHERE id = ?`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, tx.Rebind(stmt), userID); err != nil {
				return err
			}
		}
		return nil
	})
}
