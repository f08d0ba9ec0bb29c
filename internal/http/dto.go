package httpapi

import (
	"time"

	"techtimecapsule-backend-go/internal/models"
	"techtimecapsule-backend-go/internal/services"
)

type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type CategorySummaryDTO struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// EventCategoryDTO is an association seen from its event; it carries no event back-reference.
type EventCategoryDTO struct {
	ID                      int64              `json:"id"`
	EventID                 int64              `json:"event_id"`
	CategoryID              int64              `json:"category_id"`
	RelationshipDescription string             `json:"relationship_description"`
	Category                CategorySummaryDTO `json:"category"`
}

type EventDTO struct {
	ID              int64              `json:"id"`
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Year            int                `json:"year"`
	Month           int                `json:"month"`
	Day             int                `json:"day"`
	ImageURL        *string            `json:"image_url"`
	SourceLink      *string            `json:"source_link"`
	UserID          int64              `json:"user_id"`
	CreatedAt       time.Time          `json:"created_at"`
	User            UserDTO            `json:"user"`
	EventCategories []EventCategoryDTO `json:"event_categories"`
}

type CategoryDTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	UserID      int64     `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
	User        UserDTO   `json:"user"`
}

type TriviaDTO struct {
	Description string `json:"description"`
	CorrectYear int    `json:"correct_year"`
}

type MessageDTO struct {
	Message string `json:"message"`
}

func toUserDTO(user *models.User) UserDTO {
	return UserDTO{ID: user.ID, Username: user.Username}
}

func toEventDTO(record services.EventRecord) EventDTO {
	links := make([]EventCategoryDTO, 0, len(record.Associations))
	for _, assoc := range record.Associations {
		links = append(links, EventCategoryDTO{
			ID:                      assoc.ID,
			EventID:                 assoc.EventID,
			CategoryID:              assoc.CategoryID,
			RelationshipDescription: assoc.RelationshipDescription,
			Category: CategorySummaryDTO{
				ID:          assoc.CategoryID,
				Name:        assoc.CategoryName,
				Description: assoc.CategoryDescription,
			},
		})
	}
	return EventDTO{
		ID:              record.ID,
		Title:           record.Title,
		Description:     record.Description,
		Year:            record.Year,
		Month:           record.Month,
		Day:             record.Day,
		ImageURL:        record.ImageURL,
		SourceLink:      record.SourceLink,
		UserID:          record.UserID,
		CreatedAt:       record.CreatedAt.UTC(),
		User:            UserDTO{ID: record.UserID, Username: record.Username},
		EventCategories: links,
	}
}

func toEventDTOs(records []services.EventRecord) []EventDTO {
	items := make([]EventDTO, 0, len(records))
	for _, record := range records {
		items = append(items, toEventDTO(record))
	}
	return items
}

func toCategoryDTO(row models.CategoryRow) CategoryDTO {
	return CategoryDTO{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		UserID:      row.UserID,
		CreatedAt:   row.CreatedAt.UTC(),
		User:        UserDTO{ID: row.UserID, Username: row.Username},
	}
}
