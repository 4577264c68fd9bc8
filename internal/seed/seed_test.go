package seed

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/sipico/microtales/internal/storage"
	"github.com/sipico/microtales/internal/tales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newService(t *testing.T) *tales.Service {
	t.Helper()
	store, err := storage.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	svc := tales.NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.SetPasswordCost(bcrypt.MinCost)
	return svc
}

func TestDefaultDataApplies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := newService(t)

	d, err := Default()
	require.NoError(t, err)

	res, err := Apply(ctx, svc, d, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, &Result{Accounts: 3, Stories: 4, GuestStories: 1, Ratings: 4}, res)

	admin, err := svc.Authenticate(ctx, "admin@microtales.local", "change-me-now")
	require.NoError(t, err)
	assert.Equal(t, storage.RoleAdmin, admin.Role)

	page, err := svc.SearchStories(ctx, tales.StoryQuery{Search: "Orbit"})
	require.NoError(t, err)
	require.Len(t, page.Stories, 1)
	assert.InDelta(t, 3.5, page.Stories[0].Rating, 0.001)

	page, err = svc.SearchStories(ctx, tales.StoryQuery{PublicOnly: true})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total, "the draft is private")

	// Re-running skips the accounts and everything that hangs off them.
	res, err = Apply(ctx, svc, d, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, &Result{GuestStories: 1, SkippedAccounts: 3}, res)
}

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{"empty", "  \n", true},
		{"unknown field", "accounts:\n  - name: A\n    nickname: a\n", true},
		{"bad type", "ratings:\n  - value: five\n", true},
		{"minimal", "accounts: []\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tt.doc))
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParsePublicFlag(t *testing.T) {
	t.Parallel()

	d, err := Parse([]byte(`
guest_stories:
  - title: Quiet
    content: A very short but valid story.
    email: g@example.com
    public: false
accounts:
  - name: Ada
    email: ada@example.com
    password: correct horse
    stories:
      - title: Loud
        content: A very short but valid story.
`))
	require.NoError(t, err)
	assert.False(t, d.GuestStories[0].input().IsPublic)
	assert.True(t, d.Accounts[0].Stories[0].input().IsPublic)
	assert.Equal(t, "g@example.com", d.GuestStories[0].Email)
}

func TestApplyStopsOnInvalidRecord(t *testing.T) {
	t.Parallel()
	svc := newService(t)

	d := &Data{Accounts: []Account{{
		Name: "Ada", Email: "ada@example.com", Password: "correct horse",
		Stories: []Story{{Title: "ab", Content: "too short title here"}},
	}}}
	res, err := Apply(context.Background(), svc, d, nil)
	require.ErrorIs(t, err, tales.ErrValidation)
	assert.Equal(t, 1, res.Accounts)
	assert.Equal(t, 0, res.Stories)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ratings:\n  - account: a@example.com\n    story: X\n    value: 2\n"), 0o600))

	d, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, d.Ratings, 1)
	assert.Equal(t, 2, d.Ratings[0].Value)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
