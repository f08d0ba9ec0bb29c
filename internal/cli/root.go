package cli

import (
	"context"
	"log"
	"time"

	"techtimecapsule-backend-go/internal/config"
	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/ingest"
	"techtimecapsule-backend-go/internal/migrations"
	"techtimecapsule-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// RootOptions carries what every command needs. Feed, Logger and Now default to the
// Wikipedia feed, the standard logger and time.Now.
type RootOptions struct {
	Config config.Config
	Feed   ingest.Feed
	Logger *log.Logger
	Now    func() time.Time
}

func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "timecapsule",
		Short:         "Tech Time Capsule operator commands",
		Long:          "Manage the Tech Time Capsule database: migrate, seed sample data and import events from the on-this-day feed.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewPopulateYearCommand(opts))
	cmd.AddCommand(NewPopulateToTodayCommand(opts))

	return cmd
}

// openDatabase connects to DATABASE_URL and brings the schema up to date.
func openDatabase(ctx context.Context, opts *RootOptions) (*sqlx.DB, error) {
	database, err := db.Open(opts.Config.DatabaseURL)
	if err != nil {
		return nil, services.WrapError(err, "open database")
	}
	if err := migrations.Apply(ctx, database); err != nil {
		_ = database.Close()
		return nil, services.WrapError(err, "migrations")
	}
	return database, nil
}

func (o *RootOptions) logger() *log.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return log.Default()
}

func (o *RootOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *RootOptions) feed() ingest.Feed {
	if o.Feed != nil {
		return o.Feed
	}
	return ingest.NewWikipediaFeed(o.Config.Feed)
}
