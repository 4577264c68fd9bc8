package tales

import (
	"context"
	"errors"

	"github.com/sipico/microtales/internal/storage"
)

// ErrAlreadyConfigured is returned by BootstrapAdmin once an admin exists.
var ErrAlreadyConfigured = errors.New("an admin account already exists")

// BootstrapState represents whether the first admin has been created.
type BootstrapState int

const (
	// StateUnconfigured means no admin account exists yet.
	// BootstrapAdmin is allowed in this state.
	StateUnconfigured BootstrapState = iota

	// StateConfigured means at least one admin account exists.
	// BootstrapAdmin is locked out in this state.
	StateConfigured
)

// String returns the string representation of the bootstrap state
func (st BootstrapState) String() string {
	switch st {
	case StateUnconfigured:
		return "UNCONFIGURED"
	case StateConfigured:
		return "CONFIGURED"
	default:
		return "UNKNOWN"
	}
}

// BootstrapState returns StateConfigured if at least one admin exists.
func (s *Service) BootstrapState(ctx context.Context) (BootstrapState, error) {
	hasAdmin, err := s.store.HasAnyAdmin(ctx)
	if err != nil {
		return StateUnconfigured, err
	}
	if hasAdmin {
		return StateConfigured, nil
	}
	return StateUnconfigured, nil
}

// BootstrapAdmin creates the first admin account. It only succeeds while the
// system is unconfigured and returns ErrAlreadyConfigured afterwards, so an
// operator credential left in the environment cannot mint further admins.
func (s *Service) BootstrapAdmin(ctx context.Context, in SignUpInput) (*storage.Account, error) {
	a, err := s.newAccount(in, storage.RoleAdmin)
	if err != nil {
		return nil, err
	}

	err = s.store.InTx(ctx, func(q storage.Querier) error {
		hasAdmin, err := q.HasAnyAdmin(ctx)
		if err != nil {
			return err
		}
		if hasAdmin {
			return ErrAlreadyConfigured
		}
		return s.insertAccount(ctx, q, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
