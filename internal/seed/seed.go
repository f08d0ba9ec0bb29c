package seed

import (
	"context"
	"time"

	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/models"
	"techtimecapsule-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
)

type Options struct {
	ArchivistUsername string
	ArchivistPassword string
	Creds             services.Credentials
}

// Result identifies the rows the seeder created.
type Result struct {
	Archivist  models.User
	EventID    int64
	CategoryID int64
}

// Run wipes every table and loads the archivist account and one sample event.
func Run(ctx context.Context, database *sqlx.DB, opts Options) (Result, error) {
	hash, err := opts.Creds.HashPassword(opts.ArchivistPassword)
	if err != nil {
		return Result{}, services.WrapError(err, "hash archivist password")
	}
	var result Result
	err = db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		for _, table := range []string{"event_categories", "events", "categories", "sessions", "users"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return services.WrapError(err, "clear "+table)
			}
		}

		archivist, err := services.CreateUser(ctx, tx, opts.ArchivistUsername, hash)
		if err != nil {
			return services.WrapError(err, "create archivist")
		}
		result.Archivist = archivist

		link := "https://en.wikipedia.org/wiki/IPhone_(1st_generation)"
		result.EventID, err = services.InsertEvent(ctx, tx, models.Event{
			Title:       "First iPhone Announced",
			Description: "Steve Jobs announces the first iPhone at Macworld in San Francisco.",
			Year:        2007,
			Month:       1,
			Day:         9,
			SourceLink:  &link,
			UserID:      archivist.ID,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			return services.WrapError(err, "insert sample event")
		}

		description := "Announcements of new products that changed an industry."
		category, err := services.CreateCategory(ctx, tx, archivist.ID, "Product Launch", &description)
		if err != nil {
			return services.WrapError(err, "create sample category")
		}
		result.CategoryID = category.ID

		return services.ReplaceAssociations(ctx, tx, result.EventID, []services.AssociationInput{{
			CategoryID:              category.ID,
			RelationshipDescription: "Revolutionized the mobile industry",
		}})
	})
	if err != nil {
		return Result{}, err
	}
	return result, nil
}
