package tales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sipico/microtales/internal/storage"
)

// IssuedToken is a freshly issued token. Token is only available here; the
// store keeps its hash.
type IssuedToken struct {
	Token     string    `json:"token"`
	StoryID   string    `json:"story_id"`
	Purpose   string    `json:"purpose"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueEditToken issues a token for one privileged operation on a story,
// valid for ttl from now.
func (s *Service) IssueEditToken(ctx context.Context, storyID, purpose string, ttl time.Duration) (*IssuedToken, error) {
	if purpose != PurposeEdit && purpose != PurposeClaim {
		return nil, invalid("purpose", "purpose must be edit or claim")
	}
	if ttl <= 0 {
		return nil, invalid("ttl", "ttl must be positive")
	}

	var issued *IssuedToken
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		if _, err := q.GetStory(ctx, storyID); err != nil {
			return storyErr(err)
		}
		var err error
		issued, err = s.issueToken(ctx, q, storyID, purpose, ttl)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// issueToken stores a new token for storyID using q.
func (s *Service) issueToken(ctx context.Context, q storage.Querier, storyID, purpose string, ttl time.Duration) (*IssuedToken, error) {
	now := s.now()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		token, err := GenerateEditToken(purpose)
		if err != nil {
			return nil, err
		}

		rec := &storage.EditToken{
			ID:        uuid.NewString(),
			StoryID:   storyID,
			TokenHash: hashToken(token),
			Purpose:   purpose,
			ExpiresAt: now.Add(ttl),
			CreatedAt: now,
		}
		err = q.CreateEditToken(ctx, rec)
		if errors.Is(err, storage.ErrDuplicate) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("edit token issued", "story_id", storyID, "purpose", purpose, "expires_at", rec.ExpiresAt)
		return &IssuedToken{Token: token, StoryID: storyID, Purpose: purpose, ExpiresAt: rec.ExpiresAt}, nil
	}
	return nil, fmt.Errorf("failed to issue token after %d attempts", maxCodeAttempts)
}

// ClaimBySecret exchanges a guest story's secret code and the guest's email
// for a single-use edit token valid for GuestEditTTL. An unknown code and a
// code/email mismatch both return ErrTokenInvalid.
func (s *Service) ClaimBySecret(ctx context.Context, secret, email string) (*IssuedToken, error) {
	secret = strings.ToUpper(strings.TrimSpace(secret))
	if !ValidSecretCode(secret) {
		return nil, invalid("secret", "secret code must look like TALE-1234-ABCD")
	}
	email, err := normalizeEmail("email", email)
	if err != nil {
		return nil, err
	}

	var issued *IssuedToken
	err = s.store.InTx(ctx, func(q storage.Querier) error {
		story, err := q.GetGuestStoryBySecret(ctx, secret)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTokenInvalid
		}
		if err != nil {
			return err
		}
		if story.GuestEmail == "" || !strings.EqualFold(story.GuestEmail, email) {
			return ErrTokenInvalid
		}

		issued, err = s.issueToken(ctx, q, story.ID, PurposeEdit, GuestEditTTL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issued, nil
}

// ResolveByToken returns the story a token points at without consuming the
// token, so an edit form can be prefilled before the edit is submitted.
func (s *Service) ResolveByToken(ctx context.Context, token string) (*storage.Story, error) {
	if token == "" {
		return nil, ErrTokenInvalid
	}

	tok, err := s.store.GetEditTokenByHash(ctx, hashToken(token))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if !s.now().Before(tok.ExpiresAt) {
		return nil, ErrTokenExpired
	}

	story, err := s.store.GetStory(ctx, tok.StoryID)
	if err != nil {
		return nil, storyErr(err)
	}
	return story, nil
}

// EditResult is the outcome of an edit by token. Secret replaces the
// previously communicated secret code and must be shown to the guest.
type EditResult struct {
	Story  *storage.Story
	Secret string
}

// EditByToken applies in to the token's story, recomputes the reading time
// and rotates the secret code. The token is consumed even when in is invalid.
func (s *Service) EditByToken(ctx context.Context, token string, in StoryInput) (*EditResult, error) {
	var result *EditResult
	err := s.consume(ctx, token, PurposeEdit, func(q storage.Querier, story *storage.Story) error {
		in = in.normalize()
		if err := in.validate(); err != nil {
			return err
		}

		for attempt := 0; attempt < maxCodeAttempts; attempt++ {
			secret, err := GenerateSecretCode()
			if err != nil {
				return err
			}
			updated, err := q.UpdateStory(ctx, story.ID, &storage.StoryUpdate{
				Title:       in.Title,
				Content:     in.Content,
				Genre:       in.Genre,
				IsPublic:    in.IsPublic,
				ReadingTime: CalculateReadingTime(in.Content),
				SecretCode:  secret,
				EditedAt:    s.now(),
			})
			if errors.Is(err, storage.ErrDuplicate) {
				continue
			}
			if err != nil {
				return storyErr(err)
			}
			result = &EditResult{Story: updated, Secret: secret}
			return nil
		}
		return fmt.Errorf("failed to rotate secret code after %d attempts", maxCodeAttempts)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("story edited by token", "story_id", result.Story.ID)
	return result, nil
}

// DeleteByToken deletes the token's story and, through the cascade, every
// other token pointing at it.
func (s *Service) DeleteByToken(ctx context.Context, token string) error {
	var storyID string
	err := s.consume(ctx, token, PurposeEdit, func(q storage.Querier, story *storage.Story) error {
		storyID = story.ID
		return storyErr(q.DeleteStory(ctx, story.ID))
	})
	if err != nil {
		return err
	}

	s.logger.Info("story deleted by token", "story_id", storyID)
	return nil
}

// SweepExpiredTokens removes tokens that expired before now. Expired tokens
// are already rejected on use; sweeping only keeps the table small.
func (s *Service) SweepExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredEditTokens(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("expired edit tokens swept", "count", n)
	}
	return n, nil
}

// consume runs act under a token in one transaction:
//
//  1. look the token up (ErrTokenInvalid when missing or for another purpose)
//  2. reject it when expired (ErrTokenExpired, token left in place)
//  3. resolve its story (ErrStoryNotFound)
//  4. delete the token, then run act
//
// A business error from act is returned after the transaction commits, so
// the token is spent either way. Any other error from act rolls back.
// Deleting the token before acting means that of two concurrent consumers
// of the same token, the second sees ErrTokenInvalid.
func (s *Service) consume(ctx context.Context, token, purpose string, act func(q storage.Querier, story *storage.Story) error) error {
	if token == "" {
		return ErrTokenInvalid
	}
	hash := hashToken(token)

	var actErr error
	err := s.store.InTx(ctx, func(q storage.Querier) error {
		tok, err := q.GetEditTokenByHash(ctx, hash)
		if errors.Is(err, storage.ErrNotFound) {
			return ErrTokenInvalid
		}
		if err != nil {
			return err
		}
		if tok.Purpose != purpose {
			return ErrTokenInvalid
		}
		if !s.now().Before(tok.ExpiresAt) {
			return ErrTokenExpired
		}

		story, err := q.GetStory(ctx, tok.StoryID)
		if err != nil {
			return storyErr(err)
		}

		if err := q.DeleteEditToken(ctx, tok.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return ErrTokenInvalid
			}
			return err
		}

		actErr = act(q, story)
		if actErr != nil && !isBusinessError(actErr) {
			return actErr
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("edit token consumed", "purpose", purpose, "outcome", outcome(actErr))
	if actErr != nil {
		return fmt.Errorf("%w: %w", ErrTokenSpent, actErr)
	}
	return nil
}

func outcome(err error) string {
	if err != nil {
		return "rejected"
	}
	return "ok"
}
