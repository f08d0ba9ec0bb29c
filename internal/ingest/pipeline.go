package ingest

import (
	"context"
	"fmt"
	"log"
	"time"
	"unicode/utf8"

	"techtimecapsule-backend-go/internal/db"
	"techtimecapsule-backend-go/internal/models"
	"techtimecapsule-backend-go/internal/services"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "techtimecapsule-backend-go/internal/ingest"

type DayState string

const (
	StatePending   DayState = "PENDING"
	StateFetching  DayState = "FETCHING"
	StateFiltering DayState = "FILTERING"
	StateDeduping  DayState = "DEDUPING"
	StateCommitted DayState = "COMMITTED"
	StateFailed    DayState = "FAILED"
)

type Day struct {
	Month int
	Day   int
}

// Plan is the list of calendar days one run visits. Days are checked against Year;
// YearFilter, when set, keeps only feed events from that year.
type Plan struct {
	Year       int
	Days       []Day
	YearFilter *int
}

// PlanYear visits every month and day-of-month 1-31 and keeps events from year only.
func PlanYear(year int) Plan {
	plan := Plan{Year: year, YearFilter: &year}
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 31; day++ {
			plan.Days = append(plan.Days, Day{Month: month, Day: day})
		}
	}
	return plan
}

// PlanToDate visits January 1st through today and keeps events from every year.
func PlanToDate(today time.Time) Plan {
	plan := Plan{Year: today.Year()}
	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	for d := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, time.UTC); !d.After(end); d = d.AddDate(0, 0, 1) {
		plan.Days = append(plan.Days, Day{Month: int(d.Month()), Day: d.Day()})
	}
	return plan
}

type DayResult struct {
	Month      int
	Day        int
	State      DayState
	Fetched    int
	Matched    int
	Inserted   int
	Duplicates int
	Err        error
}

type Report struct {
	Days    []DayResult
	Skipped int
}

func (r Report) Totals() (inserted, duplicates, failed int) {
	for _, day := range r.Days {
		inserted += day.Inserted
		duplicates += day.Duplicates
		if day.State == StateFailed {
			failed++
		}
	}
	return inserted, duplicates, failed
}

type Pipeline struct {
	DB        *sqlx.DB
	Feed      Feed
	Keywords  Keywords
	Archivist string
	Delay     time.Duration
	Logger    *log.Logger
	Tracer    trace.Tracer
}

func (p *Pipeline) logger() *log.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return log.Default()
}

// Run imports every valid day of the plan. A failed day is rolled back and logged and
// the run moves on; only a missing archivist or a cancelled context stop the run.
func (p *Pipeline) Run(ctx context.Context, plan Plan) (Report, error) {
	var report Report
	archivist, err := services.GetUserByUsername(ctx, p.DB, p.Archivist)
	if err != nil {
		if services.StatusOf(err) == 404 {
			return report, fmt.Errorf("archivist %q not found; run seed_db first", p.Archivist)
		}
		return report, err
	}
	tracer := p.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}

	fetched := 0
	for _, day := range plan.Days {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if !services.ValidDate(plan.Year, day.Month, day.Day) {
			report.Skipped++
			continue
		}
		if fetched > 0 {
			if err := wait(ctx, p.Delay); err != nil {
				return report, err
			}
		}
		fetched++
		result := p.runDay(ctx, tracer, archivist.ID, plan.YearFilter, day)
		report.Days = append(report.Days, result)
		if result.State == StateFailed {
			p.logger().Printf("ingest %02d/%02d failed: %v", result.Month, result.Day, result.Err)
			continue
		}
		p.logger().Printf("ingest %02d/%02d: fetched=%d matched=%d inserted=%d duplicates=%d",
			result.Month, result.Day, result.Fetched, result.Matched, result.Inserted, result.Duplicates)
	}
	return report, nil
}

func (p *Pipeline) runDay(ctx context.Context, tracer trace.Tracer, ownerID int64, yearFilter *int, day Day) (result DayResult) {
	result = DayResult{Month: day.Month, Day: day.Day, State: StatePending}
	ctx, span := tracer.Start(ctx, "ingest.day", trace.WithAttributes(
		attribute.Int("ingest.month", day.Month),
		attribute.Int("ingest.day", day.Day),
	))
	defer func() {
		span.SetAttributes(
			attribute.String("ingest.state", string(result.State)),
			attribute.Int("ingest.inserted", result.Inserted),
		)
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
		}
		span.End()
	}()

	fail := func(err error) DayResult {
		result.State = StateFailed
		result.Err = err
		return result
	}

	result.State = StateFetching
	events, err := p.Feed.OnThisDay(ctx, day.Month, day.Day)
	if err != nil {
		return fail(err)
	}
	result.Fetched = len(events)

	result.State = StateFiltering
	candidates := make([]FeedEvent, 0, len(events))
	for _, event := range events {
		if yearFilter != nil && event.Year != *yearFilter {
			continue
		}
		if event.Title == "" || event.Text == "" || !services.ValidDate(event.Year, day.Month, day.Day) {
			continue
		}
		if utf8.RuneCountInString(event.Title) > services.MaxTitleLength {
			continue
		}
		if !p.Keywords.Match(event.Text) {
			continue
		}
		candidates = append(candidates, event)
	}
	result.Matched = len(candidates)

	result.State = StateDeduping
	inserted, duplicates := 0, 0
	err = db.WithTx(ctx, p.DB, func(tx *sqlx.Tx) error {
		for _, event := range candidates {
			exists, err := services.EventExists(ctx, tx, event.Year, day.Month, day.Day, event.Title)
			if err != nil {
				return err
			}
			if exists {
				duplicates++
				continue
			}
			_, err = services.InsertEvent(ctx, tx, models.Event{
				Title:       event.Title,
				Description: event.Text,
				Year:        event.Year,
				Month:       day.Month,
				Day:         day.Day,
				ImageURL:    fittingLink(event.ImageURL),
				SourceLink:  fittingLink(event.SourceLink),
				UserID:      ownerID,
			})
			if err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return fail(fmt.Errorf("commit %02d/%02d: %w", day.Month, day.Day, err))
	}
	result.Inserted = inserted
	result.Duplicates = duplicates
	result.State = StateCommitted
	return result
}

// fittingLink drops URLs too long to store rather than failing the day.
func fittingLink(link *string) *string {
	if !services.FitsLink(link) {
		return nil
	}
	return link
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
