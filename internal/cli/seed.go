package cli

import (
	"fmt"

	"techtimecapsule-backend-go/internal/seed"
	"techtimecapsule-backend-go/internal/services"

	"github.com/spf13/cobra"
)

func NewSeedCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed_db",
		Short: "Reset the database and load sample data",
		Long: `Delete every user, event, category and session, then create the archivist
account and one sample event with its category.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			database, err := openDatabase(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer database.Close()

			result, err := seed.Run(cmd.Context(), database, seed.Options{
				ArchivistUsername: opts.Config.Archivist.Username,
				ArchivistPassword: opts.Config.Archivist.Password,
				Creds:             services.Credentials{Secret: []byte(opts.Config.SecretKey)},
			})
			if err != nil {
				return services.WrapError(err, "seed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded archivist %q with sample event %d.\n", result.Archivist.Username, result.EventID)
			return nil
		},
	}
}
