package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventflow/eventflow/internal/models"
	pgrepo "github.com/eventflow/eventflow/internal/repositories/postgres"
	"github.com/eventflow/eventflow/internal/utils"
)

func validEventInput() CreateEventInput {
	now := time.Now().UTC()
	return CreateEventInput{
		Title:        "GopherCon Local",
		Description:  "A day of talks",
		StartDate:    now.Add(48 * time.Hour),
		EndDate:      now.Add(56 * time.Hour),
		Location:     "Hall B",
		LocationType: models.LocationPhysical,
		Category:     "conference",
		Capacity:     100,
		Status:       models.EventPublished,
	}
}

func TestCreateEvent(t *testing.T) {
	events := newMemEvents()
	svc := NewEventService(events, newMemCache(), nil)

	e, err := svc.Create(context.Background(), "org1", validEventInput())
	require.NoError(t, err)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "org1", e.OrganizerID)
	assert.Equal(t, models.EventPublished, e.Status)

	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Title, got.Title)
}

func TestCreateEventDefaultsToDraft(t *testing.T) {
	svc := NewEventService(newMemEvents(), nil, nil)
	in := validEventInput()
	in.Status = ""

	e, err := svc.Create(context.Background(), "org1", in)
	require.NoError(t, err)
	assert.Equal(t, models.EventDraft, e.Status)
}

func TestCreateEventValidation(t *testing.T) {
	svc := NewEventService(newMemEvents(), nil, nil)

	mutate := func(f func(*CreateEventInput)) CreateEventInput {
		in := validEventInput()
		f(&in)
		return in
	}

	cases := []struct {
		name string
		org  string
		in   CreateEventInput
	}{
		{"missing organizer", "", validEventInput()},
		{"missing title", "org1", mutate(func(in *CreateEventInput) { in.Title = "" })},
		{"end before start", "org1", mutate(func(in *CreateEventInput) { in.EndDate = in.StartDate.Add(-time.Hour) })},
		{"zero dates", "org1", mutate(func(in *CreateEventInput) { in.StartDate = time.Time{}; in.EndDate = time.Time{} })},
		{"negative capacity", "org1", mutate(func(in *CreateEventInput) { in.Capacity = -1 })},
		{"completed at creation", "org1", mutate(func(in *CreateEventInput) { in.Status = models.EventCompleted })},
		{"bad location type", "org1", mutate(func(in *CreateEventInput) { in.LocationType = "metaverse" })},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.org, tc.in)
			require.Error(t, err)
			assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument), "got %v", err)
		})
	}
}

func TestListPublishedCaching(t *testing.T) {
	events := newMemEvents()
	c := newMemCache()
	svc := NewEventService(events, c, nil)

	_, err := svc.Create(context.Background(), "org1", validEventInput())
	require.NoError(t, err)

	// first unfiltered listing fills the cache, second hits it
	_, err = svc.ListPublished(context.Background(), pgrepo.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.sets)
	assert.Equal(t, 0, c.hits)

	_, err = svc.ListPublished(context.Background(), pgrepo.EventFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, c.hits)

	// filtered listings bypass the cache
	_, err = svc.ListPublished(context.Background(), pgrepo.EventFilter{Category: "conference"})
	require.NoError(t, err)
	assert.Equal(t, 1, c.hits)
	assert.Equal(t, 1, c.sets)
}

func TestSetStatus(t *testing.T) {
	events := newMemEvents()
	c := newMemCache()
	svc := NewEventService(events, c, nil)

	e, err := svc.Create(context.Background(), "org1", validEventInput())
	require.NoError(t, err)

	t.Run("organizer only", func(t *testing.T) {
		err := svc.SetStatus(context.Background(), "intruder", e.ID, models.EventCompleted)
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeForbidden))
	})

	t.Run("invalid status", func(t *testing.T) {
		err := svc.SetStatus(context.Background(), "org1", e.ID, models.EventStatus("archived"))
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	})

	t.Run("completes and invalidates the listing cache", func(t *testing.T) {
		_, err := svc.ListPublished(context.Background(), pgrepo.EventFilter{})
		require.NoError(t, err)

		require.NoError(t, svc.SetStatus(context.Background(), "org1", e.ID, models.EventCompleted))

		got, err := svc.Get(context.Background(), e.ID)
		require.NoError(t, err)
		assert.Equal(t, models.EventCompleted, got.Status)

		listed, err := svc.ListPublished(context.Background(), pgrepo.EventFilter{})
		require.NoError(t, err)
		assert.Empty(t, listed)
	})
}

func TestUploadImage(t *testing.T) {
	up := &fakeUploader{}
	svc := NewEventService(newMemEvents(), nil, up)

	url, err := svc.UploadImage(context.Background(), "jpg", "image/jpeg", strings.NewReader("fake bytes"))
	require.NoError(t, err)
	assert.Contains(t, url, "events/")
	assert.True(t, strings.HasSuffix(up.lastObject, ".jpg"))
	assert.Equal(t, "image/jpeg", up.lastType)

	t.Run("no uploader configured", func(t *testing.T) {
		svc := NewEventService(newMemEvents(), nil, nil)
		_, err := svc.UploadImage(context.Background(), "png", "image/png", strings.NewReader("x"))
		require.Error(t, err)
		assert.True(t, utils.IsCode(err, utils.CodeInternal))
	})
}
