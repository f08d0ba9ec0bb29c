package models

import "time"

type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at"`
}

type Event struct {
	ID          int64     `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Year        int       `db:"year"`
	Month       int       `db:"month"`
	Day         int       `db:"day"`
	ImageURL    *string   `db:"image_url"`
	SourceLink  *string   `db:"source_link"`
	UserID      int64     `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// EventRow is an event joined with its owner's username.
type EventRow struct {
	Event
	Username string `db:"username"`
}

type Category struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Description *string   `db:"description"`
	UserID      int64     `db:"user_id"`
	CreatedAt   time.Time `db:"created_at"`
}

// CategoryRow is a category joined with its owner's username.
type CategoryRow struct {
	Category
	Username string `db:"username"`
}

// EventCategory explains why an event belongs to a category.
type EventCategory struct {
	ID                      int64  `db:"id"`
	EventID                 int64  `db:"event_id"`
	CategoryID              int64  `db:"category_id"`
	RelationshipDescription string `db:"relationship_description"`
}

// AssociationRow is an association joined with the category it points at.
type AssociationRow struct {
	EventCategory
	CategoryName        string  `db:"category_name"`
	CategoryDescription *string `db:"category_description"`
}

type Session struct {
	Token     string    `db:"token"`
	UserID    int64     `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}
