package tales

import (
	"context"

	"github.com/google/uuid"
	"github.com/sipico/microtales/internal/storage"
)

// SubmitPendingStory stores an invisible, unowned story for a visitor who
// intends to register, and returns a claim token valid for ClaimTTL.
func (s *Service) SubmitPendingStory(ctx context.Context, in StoryInput) (*IssuedToken, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	story := &storage.Story{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Content:     in.Content,
		Genre:       in.Genre,
		ReadingTime: CalculateReadingTime(in.Content),
		IsPublic:    in.IsPublic,
		IsGuest:     false,
		IsVisible:   false,
		CreatedAt:   now,
		EditedAt:    now,
	}

	var issued *IssuedToken
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		if err := q.CreateStory(ctx, story); err != nil {
			return err
		}
		var err error
		issued, err = s.issueToken(ctx, q, story.ID, PurposeClaim, ClaimTTL)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("pending story submitted", "story_id", story.ID)
	return issued, nil
}

// TransferOwnership binds the claim token's story to the caller's account and
// makes it visible. Two different valid claim tokens for the same story are
// not coordinated: the last transfer wins.
func (s *Service) TransferOwnership(ctx context.Context, caller Caller, token string) (*storage.Story, error) {
	if !caller.Authenticated() {
		return nil, ErrUnauthenticated
	}

	var claimed *storage.Story
	err := s.consume(ctx, token, PurposeClaim, func(q storage.Querier, story *storage.Story) error {
		var err error
		claimed, err = q.AssignStoryOwner(ctx, story.ID, caller.AccountID)
		return storyErr(err)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("story claimed", "story_id", claimed.ID, "account_id", caller.AccountID)
	return claimed, nil
}
