package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(records []EventRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Title)
	}
	return out
}

func TestListEventsFiltersAndOrders(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "alice")
	web := mustCategory(t, database, owner.ID, "Web")

	mustEvent(t, database, owner.ID, eventInput("Windows 95", 1995, 8, 24))
	mustEvent(t, database, owner.ID, eventInput("iPhone", 2007, 1, 9))
	mustEvent(t, database, owner.ID, eventInput("Java", 1995, 5, 23))
	browser := eventInput("Mosaic", 1993, 4, 22)
	browser.Categories = &[]AssociationInput{{CategoryID: web.ID, RelationshipDescription: "first popular browser"}}
	mustEvent(t, database, owner.ID, browser)

	all, err := ListEvents(ctx, database, EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mosaic", "Java", "Windows 95", "iPhone"}, titles(all))
	assert.Equal(t, "alice", all[0].Username)
	require.Len(t, all[0].Associations, 1)
	assert.Equal(t, "Web", all[0].Associations[0].CategoryName)
	assert.NotNil(t, all[1].Associations)
	assert.Empty(t, all[1].Associations)

	got, err := ListEvents(ctx, database, ParseEventFilter(query("years=2007,1995&year=1993")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Java", "Windows 95", "iPhone"}, titles(got))

	got, err = ListEvents(ctx, database, ParseEventFilter(query("year=1995&month=8")))
	require.NoError(t, err)
	assert.Equal(t, []string{"Windows 95"}, titles(got))

	got, err = ListEvents(ctx, database, ParseEventFilter(query("years=bad&category_id=")))
	require.NoError(t, err)
	assert.Len(t, got, 4)

	got, err = ListEvents(ctx, database, EventFilter{CategoryID: &web.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mosaic"}, titles(got))

	got, err = ListEvents(ctx, database, EventFilter{Newest: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Mosaic", "Java", "iPhone", "Windows 95"}, titles(got))
}

func TestCreateEventValidates(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "alice")
	category := mustCategory(t, database, owner.ID, "Mobile")

	cases := []struct {
		name  string
		input func() EventInput
	}{
		{"missing fields", func() EventInput { return EventInput{} }},
		{"blank title", func() EventInput { return eventInput("  ", 2007, 1, 9) }},
		{"invalid date", func() EventInput { return eventInput("Leap", 2023, 2, 29) }},
		{"month out of range", func() EventInput { return eventInput("Month", 2023, 13, 1) }},
		{"unknown category", func() EventInput {
			in := eventInput("iPhone", 2007, 1, 9)
			in.Categories = &[]AssociationInput{{CategoryID: 999, RelationshipDescription: "x"}}
			return in
		}},
		{"blank relationship", func() EventInput {
			in := eventInput("iPhone", 2007, 1, 9)
			in.Categories = &[]AssociationInput{{CategoryID: category.ID, RelationshipDescription: " "}}
			return in
		}},
		{"title too long", func() EventInput { return eventInput(strings.Repeat("t", MaxTitleLength+1), 2007, 1, 9) }},
		{"link too long", func() EventInput {
			in := eventInput("iPhone", 2007, 1, 9)
			link := "https://example.com/" + strings.Repeat("a", MaxLinkLength)
			in.SourceLink = &link
			return in
		}},
		{"relationship too long", func() EventInput {
			in := eventInput("iPhone", 2007, 1, 9)
			in.Categories = &[]AssociationInput{{CategoryID: category.ID, RelationshipDescription: strings.Repeat("r", MaxRelationshipLength+1)}}
			return in
		}},
		{"repeated category", func() EventInput {
			in := eventInput("iPhone", 2007, 1, 9)
			in.Categories = &[]AssociationInput{
				{CategoryID: category.ID, RelationshipDescription: "a"},
				{CategoryID: category.ID, RelationshipDescription: "b"},
			}
			return in
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateEvent(ctx, database, owner.ID, tc.input())
			assert.Equal(t, http.StatusBadRequest, StatusOf(err))
		})
	}

	var count int
	require.NoError(t, database.Get(&count, `SELECT COUNT(*) FROM events`))
	assert.Zero(t, count, "failed creates roll back")

	longest := strings.Repeat("é", MaxTitleLength)
	record, err := CreateEvent(ctx, database, owner.ID, eventInput(longest, 2007, 1, 9))
	require.NoError(t, err)
	assert.Equal(t, longest, record.Title)
}

func TestUpdateEventReplacesAssociations(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "alice")
	mobile := mustCategory(t, database, owner.ID, "Mobile")
	design := mustCategory(t, database, owner.ID, "Design")

	input := eventInput("iPhone", 2007, 1, 9)
	input.Categories = &[]AssociationInput{{CategoryID: mobile.ID, RelationshipDescription: "d"}}
	created := mustEvent(t, database, owner.ID, input)
	require.Len(t, created.Associations, 1)
	assert.Equal(t, mobile.ID, created.Associations[0].CategoryID)
	assert.Equal(t, "d", created.Associations[0].RelationshipDescription)

	newTitle := "iPhone announced"
	updated, err := UpdateEvent(ctx, database, owner.ID, created.ID, EventInput{
		Title:      &newTitle,
		Categories: &[]AssociationInput{{CategoryID: design.ID, RelationshipDescription: "touch UI"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "iPhone announced", updated.Title)
	assert.Equal(t, 2007, updated.Year)
	require.Len(t, updated.Associations, 1)
	assert.Equal(t, design.ID, updated.Associations[0].CategoryID)

	month := 6
	updated, err = UpdateEvent(ctx, database, owner.ID, created.ID, EventInput{Month: &month})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Month)
	assert.Len(t, updated.Associations, 1, "omitted categories are kept")

	updated, err = UpdateEvent(ctx, database, owner.ID, created.ID, EventInput{Categories: &[]AssociationInput{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Associations)
}

func TestUpdateEventChecksOwnership(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "alice")
	other := mustUser(t, database, "mallory")
	created := mustEvent(t, database, owner.ID, eventInput("iPhone", 2007, 1, 9))

	title := "hijacked"
	_, err := UpdateEvent(ctx, database, other.ID, created.ID, EventInput{Title: &title})
	assert.Equal(t, http.StatusForbidden, StatusOf(err))

	_, err = UpdateEvent(ctx, database, owner.ID, created.ID+100, EventInput{Title: &title})
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	day := 31
	month := 2
	_, err = UpdateEvent(ctx, database, owner.ID, created.ID, EventInput{Month: &month, Day: &day})
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))

	current, err := GetEvent(ctx, database, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "iPhone", current.Title)
	assert.Equal(t, 1, current.Month)
}

func TestDeleteEvent(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "alice")
	other := mustUser(t, database, "mallory")
	category := mustCategory(t, database, owner.ID, "Mobile")
	input := eventInput("iPhone", 2007, 1, 9)
	input.Categories = &[]AssociationInput{{CategoryID: category.ID, RelationshipDescription: "d"}}
	created := mustEvent(t, database, owner.ID, input)

	assert.Equal(t, http.StatusForbidden, StatusOf(DeleteEvent(ctx, database, other.ID, created.ID)))
	require.NoError(t, DeleteEvent(ctx, database, owner.ID, created.ID))
	assert.Equal(t, http.StatusNotFound, StatusOf(DeleteEvent(ctx, database, owner.ID, created.ID)))

	var links int
	require.NoError(t, database.Get(&links, `SELECT COUNT(*) FROM event_categories`))
	assert.Zero(t, links)
}

func TestEventExistsAndTrivia(t *testing.T) {
	database := newTestDB(t)
	ctx := context.Background()
	owner := mustUser(t, database, "alice")

	_, err := RandomTriviaEvent(ctx, database)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	mustEvent(t, database, owner.ID, eventInput("iPhone", 2007, 1, 9))

	exists, err := EventExists(ctx, database, 2007, 1, 9, "iPhone")
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = EventExists(ctx, database, 2008, 1, 9, "iPhone")
	require.NoError(t, err)
	assert.False(t, exists)

	event, err := RandomTriviaEvent(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, 2007, event.Year)
	assert.Equal(t, "iPhone happened", event.Description)

	featured, err := FeaturedEvents(ctx, database, 0)
	require.NoError(t, err)
	assert.Len(t, featured, 1)
}

func TestValidDate(t *testing.T) {
	assert.True(t, ValidDate(2024, 2, 29))
	assert.False(t, ValidDate(2023, 2, 29))
	assert.False(t, ValidDate(2023, 4, 31))
	assert.False(t, ValidDate(2023, 0, 1))
	assert.False(t, ValidDate(2023, 1, 0))
	assert.True(t, ValidDate(1969, 7, 20))
}
