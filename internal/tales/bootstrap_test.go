package tales

import (
	"context"
	"testing"

	"github.com/sipico/microtales/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapAdmin(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)
	ctx := context.Background()

	state, err := e.svc.BootstrapState(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateUnconfigured, state)

	// Authors don't configure the system.
	e.signUp(t, "ada@example.com")
	state, err = e.svc.BootstrapState(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateUnconfigured, state)

	_, err = e.svc.BootstrapAdmin(ctx, SignUpInput{Name: "Root", Email: "root@example.com", Password: "short"})
	require.ErrorIs(t, err, ErrValidation)

	admin, err := e.svc.BootstrapAdmin(ctx, SignUpInput{Name: "Root", Email: "root@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, storage.RoleAdmin, admin.Role)

	state, err = e.svc.BootstrapState(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateConfigured, state)

	_, err = e.svc.BootstrapAdmin(ctx, SignUpInput{Name: "Eve", Email: "eve@example.com", Password: "correct horse"})
	require.ErrorIs(t, err, ErrAlreadyConfigured)
	_, err = e.svc.Authenticate(ctx, "eve@example.com", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestBootstrapAdminDuplicateEmail(t *testing.T) {
	t.Parallel()
	e := newTestEnv(t)

	e.signUp(t, "ada@example.com")
	_, err := e.svc.BootstrapAdmin(context.Background(), SignUpInput{Name: "Ada", Email: "ADA@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, ErrAccountExists)
}

func TestBootstrapStateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state BootstrapState
		want  string
	}{
		{StateUnconfigured, "UNCONFIGURED"},
		{StateConfigured, "CONFIGURED"},
		{BootstrapState(42), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("BootstrapState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
