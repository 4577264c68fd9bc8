package tales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sipico/microtales/internal/storage"
)

// GuestSubmission is the result of a guest submission. Secret is the only
// proof of authorship the guest gets.
type GuestSubmission struct {
	Story  *storage.Story
	Secret string
}

// SubmitGuestStory stores a visible story without an owner, identified to its
// author by a freshly generated secret code.
func (s *Service) SubmitGuestStory(ctx context.Context, in StoryInput, email string) (*GuestSubmission, error) {
	in = in.normalize()
	if err := in.validate(); err != nil {
		return nil, err
	}
	email, err := normalizeEmail("email", email)
	if err != nil {
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
		IsGuest:     true,
		IsVisible:   true,
		GuestEmail:  email,
		CreatedAt:   now,
		EditedAt:    now,
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		secret, err := GenerateSecretCode()
		if err != nil {
			return nil, err
		}
		story.SecretCode = secret

		err = s.store.CreateStory(ctx, story)
		if errors.Is(err, storage.ErrDuplicate) {
			s.logger.Debug("secret code collision, retrying", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("guest story submitted", "story_id", story.ID, "genre", story.Genre)
		return &GuestSubmission{Story: story, Secret: secret}, nil
	}
	return nil, fmt.Errorf("failed to allocate secret code after %d attempts", maxCodeAttempts)
}
