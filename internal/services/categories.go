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

const categoryColumns = `c.id, c.name, c.description, c.user_id, c.created_at, u.username`

func ListCategories(ctx context.Context, q sqlx.ExtContext) ([]models.CategoryRow, error) {
	rows := []models.CategoryRow{}
	err := sqlx.SelectContext(ctx, q, &rows, `
SELECT `+categoryColumns+`
FROM categories c
JOIN users u ON u.id = c.user_id
ORDER BY c.name ASC, c.id ASC`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func GetCategory(ctx context.Context, q sqlx.ExtContext, categoryID int64) (*models.CategoryRow, error) {
	var row models.CategoryRow
	err := sqlx.GetContext(ctx, q, &row, q.Rebind(`
SELECT `+categoryColumns+`
FROM categories c
JOIN users u ON u.id = c.user_id
WHERE c.id = ?`), categoryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("Category not found")
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func CategoryExists(ctx context.Context, q sqlx.ExtContext, categoryID int64) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, q.Rebind(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = ?)`), categoryID)
	return exists, err
}

// CreateCategory stores a category owned by ownerID. Names are globally unique.
func CreateCategory(ctx context.Context, q sqlx.ExtContext, ownerID int64, name string, description *string) (*models.CategoryRow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrBadRequest("Name is required")
	}
	if utf8.RuneCountInString(name) > MaxCategoryNameLength {
		return nil, ErrBadRequest(fmt.Sprintf("Name must be at most %d characters", MaxCategoryNameLength))
	}
	var id int64
	err := sqlx.GetContext(ctx, q, &id, q.Rebind(`
INSERT INTO categories (name, description, user_id, created_at)
VALUES (?, ?, ?, ?)
RETURNING id`), name, cleanOptional(description), ownerID, time.Now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrBadRequest("Category name already exists")
		}
		return nil, err
	}
	return GetCategory(ctx, q, id)
}

// DeleteCategory removes a category owned by userID and every association to it.
func DeleteCategory(ctx context.Context, database *sqlx.DB, userID, categoryID int64) error {
	return db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		var ownerID int64
		err := sqlx.GetContext(ctx, tx, &ownerID, tx.Rebind(`SELECT user_id FROM categories WHERE id = ?`), categoryID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Category not found")
		}
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrForbidden("You do not own this category")
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM event_categories WHERE category_id = ?`), categoryID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ?`), categoryID)
		return err
	})
}
