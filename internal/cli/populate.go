package cli

import (
	"fmt"
	"io"
	"strconv"

	"techtimecapsule-backend-go/internal/ingest"

	"github.com/spf13/cobra"
)

type populateOptions struct {
	Fast     bool
	Keywords string
}

func (p *populateOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&p.Fast, "fast", false, "shorten the delay between feed requests")
	cmd.Flags().StringVar(&p.Keywords, "keywords", "", "YAML file with a keywords list (defaults to KEYWORDS_FILE or the built-in set)")
}

func NewPopulateYearCommand(opts *RootOptions) *cobra.Command {
	popts := &populateOptions{}
	cmd := &cobra.Command{
		Use:   "populate_db_year <year>",
		Short: "Import feed events that happened in one year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil || year < 1 {
				return fmt.Errorf("invalid year %q", args[0])
			}
			return runPopulate(cmd, opts, popts, ingest.PlanYear(year))
		},
	}
	popts.bind(cmd)
	return cmd
}

func NewPopulateToTodayCommand(opts *RootOptions) *cobra.Command {
	popts := &populateOptions{}
	cmd := &cobra.Command{
		Use:   "populate_db_to_today",
		Short: "Import feed events for every day from January 1st to today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPopulate(cmd, opts, popts, ingest.PlanToDate(opts.now()))
		},
	}
	popts.bind(cmd)
	return cmd
}

func runPopulate(cmd *cobra.Command, opts *RootOptions, popts *populateOptions, plan ingest.Plan) error {
	keywordsPath := popts.Keywords
	if keywordsPath == "" {
		keywordsPath = opts.Config.KeywordsFile
	}
	keywords, err := ingest.LoadKeywords(keywordsPath)
	if err != nil {
		return err
	}

	database, err := openDatabase(cmd.Context(), opts)
	if err != nil {
		return err
	}
	defer database.Close()

	delay := opts.Config.FetchDelay
	if popts.Fast {
		delay = opts.Config.FastFetchDelay
	}
	pipeline := &ingest.Pipeline{
		DB:        database,
		Feed:      opts.feed(),
		Keywords:  keywords,
		Archivist: opts.Config.Archivist.Username,
		Delay:     delay,
		Logger:    opts.logger(),
	}
	report, runErr := pipeline.Run(cmd.Context(), plan)
	printReport(cmd.OutOrStdout(), report)
	return runErr
}

func printReport(w io.Writer, report ingest.Report) {
	inserted, duplicates, failed := report.Totals()
	fmt.Fprintf(w, "Processed %d days: %d new events, %d duplicates, %d failed days, %d invalid dates skipped.\n",
		len(report.Days), inserted, duplicates, failed, report.Skipped)
	for _, day := range report.Days {
		if day.State == ingest.StateFailed {
			fmt.Fprintf(w, "  %02d/%02d failed: %v\n", day.Month, day.Day, day.Err)
		}
	}
}
