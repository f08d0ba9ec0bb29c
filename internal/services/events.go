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

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

const FeaturedLimit = 20

// Column widths of the Postgres schema, counted in characters.
const (
	MaxTitleLength        = 200
	MaxLinkLength         = 500
	MaxRelationshipLength = 255
	MaxCategoryNameLength = 50
	MaxUsernameLength     = 80
)

// EventRecord is an event with its owner and its category associations.
type EventRecord struct {
	models.EventRow
	Associations []models.AssociationRow
}

// AssociationInput links an event to a category with a reason.
type AssociationInput struct {
	CategoryID              int64  `json:"category_id"`
	RelationshipDescription string `json:"relationship_description"`
}

// EventInput carries the writable event fields. Nil pointers mean "not provided";
// a non-nil Categories replaces every existing association.
type EventInput struct {
	Title       *string
	Description *string
	Year        *int
	Month       *int
	Day         *int
	ImageURL    *string
	SourceLink  *string
	Categories  *[]AssociationInput
}

func eventSelect(q sqlx.ExtContext) sq.SelectBuilder {
	return sq.Select(
		"e.id", "e.title", "e.description", "e.year", "e.month", "e.day",
		"e.image_url", "e.source_link", "e.user_id", "e.created_at", "u.username",
	).
		From("events e").
		Join("users u ON u.id = e.user_id").
		PlaceholderFormat(db.Placeholder(q))
}

// ListEvents returns the events matching the filter with their associations.
func ListEvents(ctx context.Context, q sqlx.ExtContext, filter EventFilter) ([]EventRecord, error) {
	return selectEvents(ctx, q, filter.Apply(eventSelect(q)))
}

// FeaturedEvents returns up to limit events in random order.
func FeaturedEvents(ctx context.Context, q sqlx.ExtContext, limit int) ([]EventRecord, error) {
	if limit < 1 {
		limit = FeaturedLimit
	}
	return selectEvents(ctx, q, eventSelect(q).OrderBy("RANDOM()").Limit(uint64(limit)))
}

func selectEvents(ctx context.Context, q sqlx.ExtContext, b sq.SelectBuilder) ([]EventRecord, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	rows := []models.EventRow{}
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	assocs, err := loadAssociations(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	records := make([]EventRecord, 0, len(rows))
	for _, row := range rows {
		list := assocs[row.ID]
		if list == nil {
			list = []models.AssociationRow{}
		}
		records = append(records, EventRecord{EventRow: row, Associations: list})
	}
	return records, nil
}

func loadAssociations(ctx context.Context, q sqlx.ExtContext, eventIDs []int64) (map[int64][]models.AssociationRow, error) {
	out := map[int64][]models.AssociationRow{}
	if len(eventIDs) == 0 {
		return out, nil
	}
	query, args, err := sq.Select(
		"ec.id", "ec.event_id", "ec.category_id", "ec.relationship_description",
		"c.name AS category_name", "c.description AS category_description",
	).
		From("event_categories ec").
		Join("categories c ON c.id = ec.category_id").
		Where(sq.Eq{"ec.event_id": eventIDs}).
		OrderBy("ec.id ASC").
		PlaceholderFormat(db.Placeholder(q)).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows := []models.AssociationRow{}
	if err := sqlx.SelectContext(ctx, q, &rows, query, args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.EventID] = append(out[row.EventID], row)
	}
	return out, nil
}

func GetEvent(ctx context.Context, q sqlx.ExtContext, eventID int64) (*EventRecord, error) {
	records, err := selectEvents(ctx, q, eventSelect(q).Where(sq.Eq{"e.id": eventID}))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound("Event not found")
	}
	return &records[0], nil
}

// RandomTriviaEvent picks one event that has a description.
func RandomTriviaEvent(ctx context.Context, q sqlx.ExtContext) (*models.Event, error) {
	var event models.Event
	err := sqlx.GetContext(ctx, q, &event, `
SELECT id, title, description, year, month, day, image_url, source_link, user_id, created_at
FROM events
WHERE description IS NOT NULL AND description <> ''
ORDER BY RANDOM()
LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound("No events available for trivia")
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// CreateEvent validates the input, stores the event for the owner and attaches its
// associations in one transaction.
func CreateEvent(ctx context.Context, database *sqlx.DB, ownerID int64, input EventInput) (*EventRecord, error) {
	if input.Title == nil || input.Description == nil || input.Year == nil || input.Month == nil || input.Day == nil {
		return nil, ErrBadRequest("title, description, year, month and day are required")
	}
	event := models.Event{
		Title:       *input.Title,
		Description: *input.Description,
		Year:        *input.Year,
		Month:       *input.Month,
		Day:         *input.Day,
		ImageURL:    cleanOptional(input.ImageURL),
		SourceLink:  cleanOptional(input.SourceLink),
		UserID:      ownerID,
	}
	var record *EventRecord
	err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		if err := validateEvent(&event); err != nil {
			return err
		}
		id, err := InsertEvent(ctx, tx, event)
		if err != nil {
			return err
		}
		if input.Categories != nil {
			if err := ReplaceAssociations(ctx, tx, id, *input.Categories); err != nil {
				return err
			}
		}
		record, err = GetEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// UpdateEvent applies the provided fields of input to an event owned by userID.
func UpdateEvent(ctx context.Context, database *sqlx.DB, userID, eventID int64, input EventInput) (*EventRecord, error) {
	var record *EventRecord
	err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		current, err := GetEvent(ctx, tx, eventID)
		if err != nil {
			return err
		}
		if current.UserID != userID {
			return ErrForbidden("You do not own this event")
		}
		event := current.Event
		if input.Title != nil {
			event.Title = *input.Title
		}
		if input.Description != nil {
			event.Description = *input.Description
		}
		if input.Year != nil {
			event.Year = *input.Year
		}
		if input.Month != nil {
			event.Month = *input.Month
		}
		if input.Day != nil {
			event.Day = *input.Day
		}
		if input.ImageURL != nil {
			event.ImageURL = cleanOptional(input.ImageURL)
		}
		if input.SourceLink != nil {
			event.SourceLink = cleanOptional(input.SourceLink)
		}
		if err := validateEvent(&event); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`
UPDATE events
SET title = ?, description = ?, year = ?, month = ?, day = ?, image_url = ?, source_link = ?
WHERE id = ?`),
			event.Title, event.Description, event.Year, event.Month, event.Day, event.ImageURL, event.SourceLink, eventID)
		if err != nil {
			return err
		}
		if input.Categories != nil {
			if err := ReplaceAssociations(ctx, tx, eventID, *input.Categories); err != nil {
				return err
			}
		}
		record, err = GetEvent(ctx, tx, eventID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// DeleteEvent removes an event owned by userID together with its associations.
func DeleteEvent(ctx context.Context, database *sqlx.DB, userID, eventID int64) error {
	return db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		var ownerID int64
		err := sqlx.GetContext(ctx, tx, &ownerID, tx.Rebind(`SELECT user_id FROM events WHERE id = ?`), eventID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound("Event not found")
		}
		if err != nil {
			return err
		}
		if ownerID != userID {
			return ErrForbidden("You do not own this event")
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM event_categories WHERE event_id = ?`), eventID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM events WHERE id = ?`), eventID)
		return err
	})
}

// InsertEvent stores an already validated event and returns its id.
func InsertEvent(ctx context.Context, q sqlx.ExtContext, event models.Event) (int64, error) {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	var id int64
	err := sqlx.GetContext(ctx, q, &id, q.Rebind(`
INSERT INTO events (title, description, year, month, day, image_url, source_link, user_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id`),
		event.Title, event.Description, event.Year, event.Month, event.Day,
		event.ImageURL, event.SourceLink, event.UserID, event.CreatedAt)
	return id, err
}

// EventExists reports whether an event with the same date and title is stored.
func EventExists(ctx context.Context, q sqlx.ExtContext, year, month, day int, title string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists, q.Rebind(`
SELECT EXISTS(SELECT 1 FROM events WHERE year = ? AND month = ? AND day = ? AND title = ?)`),
		year, month, day, title)
	return exists, err
}

// ReplaceAssociations deletes every association of the event and inserts items.
func ReplaceAssociations(ctx context.Context, q sqlx.ExtContext, eventID int64, items []AssociationInput) error {
	seen := map[int64]bool{}
	for i, item := range items {
		items[i].RelationshipDescription = strings.TrimSpace(item.RelationshipDescription)
		if item.CategoryID <= 0 {
			return ErrBadRequest("category_id is required for every category")
		}
		if items[i].RelationshipDescription == "" {
			return ErrBadRequest("relationship_description is required for every category")
		}
		if utf8.RuneCountInString(items[i].RelationshipDescription) > MaxRelationshipLength {
			return ErrBadRequest(fmt.Sprintf("relationship_description must be at most %d characters", MaxRelationshipLength))
		}
		if seen[item.CategoryID] {
			return ErrBadRequest("A category can only be linked once per event")
		}
		seen[item.CategoryID] = true
		exists, err := CategoryExists(ctx, q, item.CategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return ErrBadRequest("Category not found")
		}
	}
	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM event_categories WHERE event_id = ?`), eventID); err != nil {
		return err
	}
	for _, item := range items {
		_, err := q.ExecContext(ctx, q.Rebind(`
INSERT INTO event_categories (event_id, category_id, relationship_description)
VALUES (?, ?, ?)`), eventID, item.CategoryID, item.RelationshipDescription)
		if err != nil {
			return err
		}
	}
	return nil
}

// ValidDate reports whether year, month and day name a real calendar date.
func ValidDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Year() == year && int(t.Month()) == month && t.Day() == day
}

func validateEvent(event *models.Event) error {
	event.Title = strings.TrimSpace(event.Title)
	event.Description = strings.TrimSpace(event.Description)
	if event.Title == "" {
		return ErrBadRequest("Title is required")
	}
	if event.Description == "" {
		return ErrBadRequest("Description is required")
	}
	if utf8.RuneCountInString(event.Title) > MaxTitleLength {
		return ErrBadRequest(fmt.Sprintf("Title must be at most %d characters", MaxTitleLength))
	}
	if !FitsLink(event.ImageURL) || !FitsLink(event.SourceLink) {
		return ErrBadRequest(fmt.Sprintf("image_url and source_link must be at most %d characters", MaxLinkLength))
	}
	if !ValidDate(event.Year, event.Month, event.Day) {
		return ErrBadRequest("year, month and day must form a valid date")
	}
	return nil
}

// FitsLink reports whether an optional URL fits its column.
func FitsLink(link *string) bool {
	return link == nil || utf8.RuneCountInString(*link) <= MaxLinkLength
}

func cleanOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
