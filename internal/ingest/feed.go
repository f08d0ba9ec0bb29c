package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"techtimecapsule-backend-go/internal/config"
)

// Feed returns the events that happened on a calendar day across all years.
type Feed interface {
	OnThisDay(ctx context.Context, month, day int) ([]FeedEvent, error)
}

type FeedEvent struct {
	Year       int
	Text       string
	Title      string
	SourceLink *string
	ImageURL   *string
}

// ExternalFetchError reports a failed or unreadable feed response for one day.
type ExternalFetchError struct {
	Month int
	Day   int
	Err   error
}

func (e *ExternalFetchError) Error() string {
	return fmt.Sprintf("fetch %02d/%02d: %v", e.Month, e.Day, e.Err)
}

func (e *ExternalFetchError) Unwrap() error {
	return e.Err
}

// WikipediaFeed reads the Wikimedia REST "on this day" events feed.
type WikipediaFeed struct {
	BaseURL   string
	UserAgent string
	Client    *http.Client
}

func NewWikipediaFeed(cfg config.FeedConfig) *WikipediaFeed {
	return &WikipediaFeed{
		BaseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		UserAgent: cfg.UserAgent,
		Client:    &http.Client{Timeout: cfg.Timeout},
	}
}

type onThisDayPayload struct {
	Events []struct {
		Text  string `json:"text"`
		Year  int    `json:"year"`
		Pages []struct {
			Title  string `json:"title"`
			Titles struct {
				Normalized string `json:"normalized"`
			} `json:"titles"`
			ContentURLs struct {
				Desktop struct {
					Page string `json:"page"`
				} `json:"desktop"`
			} `json:"content_urls"`
			Thumbnail *struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"events"`
}

func (f *WikipediaFeed) OnThisDay(ctx context.Context, month, day int) ([]FeedEvent, error) {
	url := fmt.Sprintf("%s/feed/onthisday/events/%02d/%02d", f.BaseURL, month, day)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &ExternalFetchError{Month: month, Day: day, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExternalFetchError{Month: month, Day: day, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &ExternalFetchError{Month: month, Day: day, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var payload onThisDayPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &ExternalFetchError{Month: month, Day: day, Err: fmt.Errorf("decode payload: %w", err)}
	}

	events := make([]FeedEvent, 0, len(payload.Events))
	for _, item := range payload.Events {
		event := FeedEvent{Year: item.Year, Text: strings.TrimSpace(item.Text)}
		if len(item.Pages) > 0 {
			page := item.Pages[0]
			event.Title = strings.TrimSpace(page.Titles.Normalized)
			if event.Title == "" {
				event.Title = strings.TrimSpace(strings.ReplaceAll(page.Title, "_", " "))
			}
			if link := strings.TrimSpace(page.ContentURLs.Desktop.Page); link != "" {
				event.SourceLink = &link
			}
			if page.Thumbnail != nil && strings.TrimSpace(page.Thumbnail.Source) != "" {
				image := strings.TrimSpace(page.Thumbnail.Source)
				event.ImageURL = &image
			}
		}
		events = append(events, event)
	}
	return events, nil
}
