package tales

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingClaimScenario(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()

	claim, err := e.svc.SubmitPendingStory(ctx, validInput("Before Signup"))
	require.NoError(t, err)
	assert.Equal(t, PurposeClaim, claim.Purpose)
	assert.Equal(t, e.clock.Now().Add(ClaimTTL), claim.ExpiresAt)

	pending, err := e.store.GetStory(ctx, claim.StoryID)
	require.NoError(t, err)
	assert.False(t, pending.IsVisible)
	assert.False(t, pending.IsGuest)
	assert.Empty(t, pending.AuthorID)
	assert.Empty(t, pending.SecretCode)

	// Pending stories are not readable.
	_, err = e.svc.GetStory(ctx, Caller{}, claim.StoryID)
	require.ErrorIs(t, err, ErrStoryNotFound)

	caller := e.signUp(t, "ada@example.com")
	story, err := e.svc.TransferOwnership(ctx, caller, claim.Token)
	require.NoError(t, err)
	assert.Equal(t, claim.StoryID, story.ID)
	assert.True(t, story.IsVisible)
	assert.Equal(t, caller.AccountID, story.AuthorID)
	assert.Equal(t, "Ada", story.AuthorName)

	_, err = e.svc.ResolveByToken(ctx, claim.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)
	_, err = e.svc.TransferOwnership(ctx, caller, claim.Token)
	require.ErrorIs(t, err, ErrTokenInvalid)

	owned, err := e.svc.StoriesByAuthor(ctx, caller.AccountID)
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, claim.StoryID, owned[0].ID)
}

func TestTransferOwnershipRequiresCaller(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()

	claim, err := e.svc.SubmitPendingStory(ctx, validInput("Before Signup"))
	require.NoError(t, err)

	_, err = e.svc.TransferOwnership(ctx, Caller{}, claim.Token)
	require.ErrorIs(t, err, ErrUnauthenticated)

	// The token survives a refused call.
	_, err = e.svc.ResolveByToken(ctx, claim.Token)
	require.NoError(t, err)
}

func TestTransferOwnershipExpired(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	caller := e.signUp(t, "ada@example.com")

	claim, err := e.svc.SubmitPendingStory(ctx, validInput("Before Signup"))
	require.NoError(t, err)

	e.clock.Advance(ClaimTTL + 1)
	_, err = e.svc.TransferOwnership(ctx, caller, claim.Token)
	require.ErrorIs(t, err, ErrTokenExpired)

	story, err := e.store.GetStory(ctx, claim.StoryID)
	require.NoError(t, err)
	assert.False(t, story.IsVisible)
	assert.Empty(t, story.AuthorID)
}

func TestTransferOwnershipLastWriterWins(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()
	first := e.signUp(t, "first@example.com")
	second := e.signUp(t, "second@example.com")

	claim, err := e.svc.SubmitPendingStory(ctx, validInput("Contested"))
	require.NoError(t, err)
	extra, err := e.svc.IssueEditToken(ctx, claim.StoryID, PurposeClaim, ClaimTTL)
	require.NoError(t, err)

	_, err = e.svc.TransferOwnership(ctx, first, claim.Token)
	require.NoError(t, err)
	story, err := e.svc.TransferOwnership(ctx, second, extra.Token)
	require.NoError(t, err)
	assert.Equal(t, second.AccountID, story.AuthorID)
}

func TestSubmitPendingStoryValidates(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	_, err := e.svc.SubmitPendingStory(context.Background(), StoryInput{Title: "Ok title", Content: "short"})
	require.ErrorIs(t, err, ErrValidation)
}
