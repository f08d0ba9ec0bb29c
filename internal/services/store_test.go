package services

import (
	"context"
	"path/filepath"
	"testing"

	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/migrations"
	"techtimecapsule-backend-go/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "capsule.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Apply(context.Background(), database))
	return database
}

func mustUser(t *testing.T, database *sqlx.DB, username string) models.User {
	t.Helper()
	user, err := CreateUser(context.Background(), database, username, "hash-"+username)
	require.NoError(t, err)
	return user
}

func mustCategory(t *testing.T, database *sqlx.DB, ownerID int64, name string) *models.CategoryRow {
	t.Helper()
	category, err := CreateCategory(context.Background(), database, ownerID, name, nil)
	require.NoError(t, err)
	return category
}

func eventInput(title string, year, month, day int) EventInput {
	description := title + " happened"
	return EventInput{Title: &title, Description: &description, Year: &year, Month: &month, Day: &day}
}

func mustEvent(t *testing.T, database *sqlx.DB, ownerID int64, input EventInput) *EventRecord {
	t.Helper()
	record, err := CreateEvent(context.Background(), database, ownerID, input)
	require.NoError(t, err)
	return record
}
