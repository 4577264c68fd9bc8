package tales

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStory(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.CreateStory(ctx, Caller{}, validInput("Nobody"))
	require.ErrorIs(t, err, ErrUnauthenticated)

	caller := e.signUp(t, "ada@example.com")
	story, err := e.svc.CreateStory(ctx, caller, StoryInput{
		Title:   "  Dust  ",
		Content: "Wind carried the town away grain by grain.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dust", story.Title)
	assert.Equal(t, DefaultGenre, story.Genre)
	assert.Equal(t, caller.AccountID, story.AuthorID)
	assert.True(t, story.IsVisible)
	assert.False(t, story.IsGuest)
	assert.Equal(t, 1, story.ReadingTime)
}

func TestUpdateAndDeleteStoryPermissions(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()

	owner := e.signUp(t, "owner@example.com")
	other := e.signUp(t, "other@example.com")
	admin := e.admin(t)

	story, err := e.svc.CreateStory(ctx, owner, validInput("Original"))
	require.NoError(t, err)

	_, err = e.svc.UpdateStory(ctx, Caller{}, story.ID, validInput("Anon"))
	require.ErrorIs(t, err, ErrUnauthenticated)
	_, err = e.svc.UpdateStory(ctx, other, story.ID, validInput("Stranger"))
	require.ErrorIs(t, err, ErrPermissionDenied)

	e.clock.Advance(time.Minute)
	updated, err := e.svc.UpdateStory(ctx, owner, story.ID, validInput("By Owner"))
	require.NoError(t, err)
	assert.Equal(t, "By Owner", updated.Title)
	assert.True(t, updated.EditedAt.After(updated.CreatedAt))

	updated, err = e.svc.UpdateStory(ctx, admin, story.ID, validInput("By Admin"))
	require.NoError(t, err)
	assert.Equal(t, "By Admin", updated.Title)

	require.ErrorIs(t, e.svc.DeleteStory(ctx, other, story.ID), ErrPermissionDenied)
	require.NoError(t, e.svc.DeleteStory(ctx, owner, story.ID))
	require.ErrorIs(t, e.svc.DeleteStory(ctx, owner, story.ID), ErrStoryNotFound)
	require.ErrorIs(t, e.svc.DeleteStory(ctx, owner, "not-a-uuid"), ErrValidation)
}

func TestGuestStoryOnlyAdminCanEditDirectly(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.signUp(t, "ada@example.com")
	admin := e.admin(t)
	sub := submitGuest(t, e, "x@y.com")

	_, err := e.svc.UpdateStory(ctx, author, sub.Story.ID, validInput("Mine Now"))
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.NoError(t, e.svc.DeleteStory(ctx, admin, sub.Story.ID))
}

func TestGetStoryRecordsRead(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	reader := e.signUp(t, "reader@example.com")
	sub := submitGuest(t, e, "x@y.com")

	story, err := e.svc.GetStory(ctx, Caller{}, sub.Story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), story.Views)

	story, err = e.svc.GetStory(ctx, reader, sub.Story.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), story.Views)

	reads, err := e.store.CountReads(ctx, sub.Story.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reads)

	_, err = e.svc.GetStory(ctx, Caller{}, "6f1d3c52-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, ErrStoryNotFound)
	_, err = e.svc.GetStory(ctx, Caller{}, "42")
	require.ErrorIs(t, err, ErrValidation)
}

func TestFeaturedStory(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()

	_, err := e.svc.FeaturedStory(ctx)
	require.ErrorIs(t, err, ErrStoryNotFound)

	author := e.signUp(t, "ada@example.com")
	_, err = e.svc.CreateStory(ctx, author, validInput("Older"))
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	private := validInput("Private")
	private.IsPublic = false
	_, err = e.svc.CreateStory(ctx, author, private)
	require.NoError(t, err)
	submitGuest(t, e, "x@y.com")

	featured, err := e.svc.FeaturedStory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Older", featured.Title)
}

func TestSearchStories(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.signUp(t, "ada@example.com")

	for i := 0; i < 12; i++ {
		in := validInput(fmt.Sprintf("Story %02d", i))
		if i%3 == 0 {
			in.Genre = "horror"
			in.Content = "Something scratched beneath the floorboards all night."
		}
		_, err := e.svc.CreateStory(ctx, author, in)
		require.NoError(t, err)
		e.clock.Advance(time.Second)
	}
	_, err := e.svc.SubmitPendingStory(ctx, validInput("Hidden"))
	require.NoError(t, err)

	tests := []struct {
		name      string
		query     StoryQuery
		wantLen   int
		wantTotal int
		wantPages int
		wantFirst string
		wantErrIs error
	}{
		{name: "defaults", query: StoryQuery{}, wantLen: 10, wantTotal: 12, wantPages: 2, wantFirst: "Story 11"},
		{name: "last page", query: StoryQuery{Page: 3, Limit: 5}, wantLen: 2, wantTotal: 12, wantPages: 3, wantFirst: "Story 01"},
		{name: "genre", query: StoryQuery{Genre: "Horror"}, wantLen: 4, wantTotal: 4, wantPages: 1, wantFirst: "Story 09"},
		{name: "search content", query: StoryQuery{Search: "FLOORBOARDS"}, wantLen: 4, wantTotal: 4, wantPages: 1, wantFirst: "Story 09"},
		{name: "search title", query: StoryQuery{Search: "story 07"}, wantLen: 1, wantTotal: 1, wantPages: 1, wantFirst: "Story 07"},
		{name: "no match", query: StoryQuery{Search: "zebra"}, wantLen: 0, wantTotal: 0, wantPages: 0},
		{name: "bad genre", query: StoryQuery{Genre: "poetry"}, wantErrIs: ErrValidation},
		{name: "bad sort", query: StoryQuery{SortBy: "oldest"}, wantErrIs: ErrValidation},
		{name: "limit too large", query: StoryQuery{Limit: 101}, wantErrIs: ErrValidation},
		{name: "negative page", query: StoryQuery{Page: -1}, wantErrIs: ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := e.svc.SearchStories(ctx, tt.query)
			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				return
			}
			require.NoError(t, err)
			require.Len(t, page.Stories, tt.wantLen)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantPages, page.TotalPages)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page.Stories[0].Title)
			}
		})
	}
}

func TestSearchStoriesSortOrders(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	author := e.signUp(t, "ada@example.com")
	rater := e.signUp(t, "rater@example.com")

	low, err := e.svc.CreateStory(ctx, author, validInput("Low"))
	require.NoError(t, err)
	high, err := e.svc.CreateStory(ctx, author, validInput("High"))
	require.NoError(t, err)
	read, err := e.svc.CreateStory(ctx, author, validInput("Read"))
	require.NoError(t, err)

	_, err = e.svc.RateStory(ctx, rater, low.ID, 2)
	require.NoError(t, err)
	_, err = e.svc.RateStory(ctx, rater, high.ID, 5)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err = e.svc.GetStory(ctx, Caller{}, read.ID)
		require.NoError(t, err)
	}

	page, err := e.svc.SearchStories(ctx, StoryQuery{SortBy: "highestRated"})
	require.NoError(t, err)
	assert.Equal(t, "High", page.Stories[0].Title)

	page, err = e.svc.SearchStories(ctx, StoryQuery{SortBy: "mostRead"})
	require.NoError(t, err)
	assert.Equal(t, "Read", page.Stories[0].Title)
}

func TestGetAuthor(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	caller := e.signUp(t, "ada@example.com")

	profile, err := e.svc.GetAuthor(ctx, caller.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", profile.Name)
	assert.Equal(t, "author", profile.Role)

	_, err = e.svc.GetAuthor(ctx, "6f1d3c52-0000-4000-8000-000000000000")
	require.ErrorIs(t, err, ErrAccountNotFound)
}
