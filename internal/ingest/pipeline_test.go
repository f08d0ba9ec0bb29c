package ingest

import (
	"context"
	"errors"
	"io"
	"log"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/migrations"
	"techtimecapsule-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeed struct {
	events   map[Day][]FeedEvent
	failures map[Day]error
	calls    []Day
	onCall   func()
}

func (f *fakeFeed) OnThisDay(ctx context.Context, month, day int) ([]FeedEvent, error) {
	key := Day{Month: month, Day: day}
	f.calls = append(f.calls, key)
	if f.onCall != nil {
		f.onCall()
	}
	if err := f.failures[key]; err != nil {
		return nil, &ExternalFetchError{Month: month, Day: day, Err: err}
	}
	return f.events[key], nil
}

func newPipeline(t *testing.T, feed Feed, withArchivist bool) *Pipeline {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "ingest.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Apply(context.Background(), database))
	if withArchivist {
		_, err := services.CreateUser(context.Background(), database, "Archivist", "hash")
		require.NoError(t, err)
	}
	return &Pipeline{
		DB:        database,
		Feed:      feed,
		Keywords:  NewKeywords(DefaultKeywords),
		Archivist: "Archivist",
		Logger:    log.New(io.Discard, "", 0),
	}
}

func countEvents(t *testing.T, database *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM events`))
	return n
}

func january9() []FeedEvent {
	link := "https://en.wikipedia.org/wiki/IPhone"
	return []FeedEvent{
		{Year: 2007, Title: "iPhone", Text: "Apple announces the iPhone.", SourceLink: &link},
		{Year: 2007, Title: "iPhone", Text: "Apple announces the iPhone again."},
		{Year: 1760, Title: "Battle", Text: "A battle is fought."},
		{Year: 1999, Title: "", Text: "Software without a page."},
	}
}

func TestPlanYear(t *testing.T) {
	plan := PlanYear(2007)
	assert.Len(t, plan.Days, 12*31)
	require.NotNil(t, plan.YearFilter)
	assert.Equal(t, 2007, *plan.YearFilter)
	assert.Equal(t, Day{Month: 1, Day: 1}, plan.Days[0])
	assert.Equal(t, Day{Month: 12, Day: 31}, plan.Days[len(plan.Days)-1])
}

func TestPlanToDate(t *testing.T) {
	plan := PlanToDate(time.Date(2024, 3, 2, 18, 0, 0, 0, time.UTC))
	assert.Nil(t, plan.YearFilter)
	assert.Equal(t, 2024, plan.Year)
	assert.Len(t, plan.Days, 31+29+2)
	assert.Equal(t, Day{Month: 3, Day: 2}, plan.Days[len(plan.Days)-1])
}

func TestRunIsIdempotent(t *testing.T) {
	feed := &fakeFeed{events: map[Day][]FeedEvent{{Month: 1, Day: 9}: january9()}}
	p := newPipeline(t, feed, true)
	plan := Plan{Year: 2007, Days: []Day{{1, 9}, {2, 30}, {1, 10}}}

	report, err := p.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped, "Feb 30 is skipped")
	require.Len(t, report.Days, 2)
	first := report.Days[0]
	assert.Equal(t, StateCommitted, first.State)
	assert.Equal(t, 4, first.Fetched)
	assert.Equal(t, 2, first.Matched)
	assert.Equal(t, 1, first.Inserted)
	assert.Equal(t, 1, first.Duplicates)
	assert.Equal(t, 1, countEvents(t, p.DB))

	report, err = p.Run(context.Background(), plan)
	require.NoError(t, err)
	inserted, duplicates, failed := report.Totals()
	assert.Zero(t, inserted)
	assert.Equal(t, 2, duplicates)
	assert.Zero(t, failed)
	assert.Equal(t, 1, countEvents(t, p.DB))

	records, err := services.ListEvents(context.Background(), p.DB, services.EventFilter{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Archivist", records[0].Username)
	assert.Equal(t, "Apple announces the iPhone.", records[0].Description)
	require.NotNil(t, records[0].SourceLink)
}

func TestRunContinuesAfterFailedDay(t *testing.T) {
	feed := &fakeFeed{
		events: map[Day][]FeedEvent{
			{Month: 1, Day: 10}: {{Year: 1986, Title: "Virus", Text: "The first PC computer virus spreads."}},
		},
		failures: map[Day]error{{Month: 1, Day: 9}: errors.New("connection reset")},
	}
	p := newPipeline(t, feed, true)

	report, err := p.Run(context.Background(), Plan{Year: 2024, Days: []Day{{1, 9}, {1, 10}}})
	require.NoError(t, err)
	require.Len(t, report.Days, 2)
	assert.Equal(t, StateFailed, report.Days[0].State)
	var fetchErr *ExternalFetchError
	assert.True(t, errors.As(report.Days[0].Err, &fetchErr))
	assert.Equal(t, StateCommitted, report.Days[1].State)
	assert.Equal(t, 1, report.Days[1].Inserted)

	_, _, failed := report.Totals()
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, countEvents(t, p.DB))
}

func TestRunAppliesYearFilter(t *testing.T) {
	feed := &fakeFeed{events: map[Day][]FeedEvent{
		{Month: 1, Day: 9}: {
			{Year: 2007, Title: "iPhone", Text: "Apple announces the iPhone."},
			{Year: 1999, Title: "Browser", Text: "A web browser ships."},
		},
	}}
	p := newPipeline(t, feed, true)
	year := 2007
	report, err := p.Run(context.Background(), Plan{Year: 2007, Days: []Day{{1, 9}}, YearFilter: &year})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Days[0].Inserted)

	exists, err := services.EventExists(context.Background(), p.DB, 1999, 1, 9, "Browser")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunSkipsInvalidDatesWithoutFetching(t *testing.T) {
	feed := &fakeFeed{}
	p := newPipeline(t, feed, true)
	report, err := p.Run(context.Background(), Plan{Year: 2023, Days: []Day{{2, 29}, {4, 31}, {2, 28}}})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, []Day{{2, 28}}, feed.calls)
}

func TestRunRequiresArchivist(t *testing.T) {
	feed := &fakeFeed{}
	p := newPipeline(t, feed, false)
	_, err := p.Run(context.Background(), PlanYear(2007))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed_db")
	assert.Empty(t, feed.calls)
}

func TestRunStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	feed := &fakeFeed{onCall: cancel}
	p := newPipeline(t, feed, true)
	p.Delay = time.Hour

	_, err := p.Run(ctx, Plan{Year: 2024, Days: []Day{{1, 1}, {1, 2}}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, feed.calls, 1)
}

func TestRunRollsBackDayWhenInsertFails(t *testing.T) {
	feed := &fakeFeed{events: map[Day][]FeedEvent{
		{Month: 1, Day: 9}: {
			{Year: 1984, Title: "First", Text: "A home computer goes on sale."},
			{Year: 1985, Title: "Second", Text: "Another computer goes on sale."},
		},
		{Month: 1, Day: 10}: {{Year: 1986, Title: "Virus", Text: "The first PC computer virus spreads."}},
	}}
	p := newPipeline(t, feed, true)
	_, err := p.DB.Exec(`CREATE TRIGGER reject_second BEFORE INSERT ON events
WHEN NEW.title = 'Second'
BEGIN SELECT RAISE(ABORT, 'boom'); END`)
	require.NoError(t, err)

	report, err := p.Run(context.Background(), Plan{Year: 2024, Days: []Day{{1, 9}, {1, 10}}})
	require.NoError(t, err)
	require.Len(t, report.Days, 2)

	failedDay := report.Days[0]
	assert.Equal(t, StateFailed, failedDay.State)
	assert.Equal(t, 2, failedDay.Matched)
	assert.Zero(t, failedDay.Inserted)
	require.Error(t, failedDay.Err)
	assert.Contains(t, failedDay.Err.Error(), "commit 01/09")
	assert.Contains(t, failedDay.Err.Error(), "boom")

	exists, err := services.EventExists(context.Background(), p.DB, 1984, 1, 9, "First")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Equal(t, StateCommitted, report.Days[1].State)
	assert.Equal(t, 1, countEvents(t, p.DB))
}

func TestRunMatchesKeywordsInTextOnly(t *testing.T) {
	feed := &fakeFeed{events: map[Day][]FeedEvent{
		{Month: 1, Day: 9}: {
			{Year: 1976, Title: "Apple", Text: "An orchard festival is held."},
			{Year: 1977, Title: "Festival", Text: "Apple shows a new computer."},
		},
	}}
	p := newPipeline(t, feed, true)
	report, err := p.Run(context.Background(), Plan{Year: 2024, Days: []Day{{1, 9}}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Days[0].Matched)
	assert.Equal(t, 1, report.Days[0].Inserted)

	exists, err := services.EventExists(context.Background(), p.DB, 1976, 1, 9, "Apple")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRunSkipsOversizeTitlesAndDropsOversizeLinks(t *testing.T) {
	longLink := "https://example.com/" + strings.Repeat("a", services.MaxLinkLength)
	feed := &fakeFeed{events: map[Day][]FeedEvent{
		{Month: 1, Day: 9}: {
			{Year: 1990, Title: strings.Repeat("T", services.MaxTitleLength+1), Text: "A computer title that does not fit."},
			{Year: 1991, Title: "Web", Text: "The first web page goes live.", SourceLink: &longLink},
		},
	}}
	p := newPipeline(t, feed, true)
	report, err := p.Run(context.Background(), Plan{Year: 2024, Days: []Day{{1, 9}}})
	require.NoError(t, err)
	assert.Equal(t, StateCommitted, report.Days[0].State)
	assert.Equal(t, 1, report.Days[0].Matched)
	assert.Equal(t, 1, report.Days[0].Inserted)

	var link *string
	require.NoError(t, p.DB.Get(&link, `SELECT source_link FROM events WHERE title = 'Web'`))
	assert.Nil(t, link)
}
