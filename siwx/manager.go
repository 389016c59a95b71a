package siwx

import (
	"context"
	"errors"
	"fmt"

	"github.com/chinmay1088/chainkit/network"
	"github.com/rs/zerolog"
)

// Manager creates, stores and verifies sign-in sessions
type Manager struct {
	store     SessionStore
	verifiers *VerifierSet
	messenger *Messenger
	required  bool
	logger    zerolog.Logger
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithRequired marks sign-in as mandatory for connected accounts
func WithRequired(required bool) ManagerOption {
	return func(m *Manager) {
		m.required = required
	}
}

// WithLogger sets the manager logger
func WithLogger(logger zerolog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager wires a store, verifiers and messenger together
func NewManager(store SessionStore, verifiers *VerifierSet, messenger *Messenger, opts ...ManagerOption) (*Manager, error) {
	if store == nil {
		return nil, errors.New("siwx: session store is required")
	}
	if verifiers == nil {
		return nil, errors.New("siwx: verifier set is required")
	}
	if messenger == nil {
		return nil, errors.New("siwx: messenger is required")
	}
	m := &Manager{
		store:     store,
		verifiers: verifiers,
		messenger: messenger,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Required reports whether connected accounts must sign in
func (m *Manager) Required() bool {
	return m.required
}

// CreateMessage prepares a message for the wallet to sign
func (m *Manager) CreateMessage(chainID network.CaipNetworkID, address string) (*Message, error) {
	if _, err := m.verifiers.For(chainID.Namespace()); err != nil {
		return nil, err
	}
	return m.messenger.CreateMessage(chainID, address)
}

// verify checks that the signature covers the session's Data and holds
// for its account
func (m *Manager) verify(ctx context.Context, session Session) error {
	if !session.RendersData() {
		return ErrMessageMismatch
	}
	ok, err := m.verifiers.Verify(ctx, session)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

// AddSession verifies and stores a session
func (m *Manager) AddSession(ctx context.Context, session Session) error {
	if err := m.verify(ctx, session); err != nil {
		return err
	}
	if err := m.store.Add(ctx, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

// GetSessions returns the time-valid sessions of (chainID, address) that
// pass signature verification
func (m *Manager) GetSessions(ctx context.Context, chainID network.CaipNetworkID, address string) ([]Session, error) {
	verifier, err := m.verifiers.For(chainID.Namespace())
	if err != nil {
		return nil, err
	}

	stored, err := m.store.Get(ctx, chainID, address)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	var verified []Session
	for _, s := range stored {
		if s.RendersData() && verifier.Verify(ctx, s) {
			verified = append(verified, s)
			continue
		}
		m.logger.Debug().Str("chain", chainID.String()).Str("address", address).Msg("dropping unverified session")
	}
	return verified, nil
}

// RevokeSession removes the sessions of (chainID, address)
func (m *Manager) RevokeSession(ctx context.Context, chainID network.CaipNetworkID, address string) error {
	if err := m.store.Delete(ctx, chainID, address); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// SetSessions replaces all stored sessions after verifying every one
func (m *Manager) SetSessions(ctx context.Context, sessions []Session) error {
	for _, s := range sessions {
		if err := m.verify(ctx, s); err != nil {
			return fmt.Errorf("%w: %s %s", err, s.Data.ChainID, s.Data.AccountAddress)
		}
	}
	if err := m.store.Set(ctx, sessions); err != nil {
		return fmt.Errorf("failed to store sessions: %w", err)
	}
	return nil
}
