package siwx

import (
	"context"
	"fmt"

	"github.com/chinmay1088/chainkit/network"
)

// Verifier checks session signatures for one namespace. Verify never
// panics or errors: anything that cannot be verified is false.
type Verifier interface {
	Namespace() network.Namespace
	Verify(ctx context.Context, session Session) bool
}

// VerifierSet maps each namespace to exactly one verifier
type VerifierSet struct {
	byNamespace map[network.Namespace]Verifier
}

// NewVerifierSet builds a set, rejecting duplicates and unknown namespaces
func NewVerifierSet(verifiers ...Verifier) (*VerifierSet, error) {
	set := &VerifierSet{byNamespace: make(map[network.Namespace]Verifier, len(verifiers))}
	for _, v := range verifiers {
		if v == nil {
			return nil, fmt.Errorf("siwx: nil verifier")
		}
		ns := v.Namespace()
		if !ns.Valid() {
			return nil, fmt.Errorf("siwx: verifier for unknown namespace %q", ns)
		}
		if _, dup := set.byNamespace[ns]; dup {
			return nil, fmt.Errorf("siwx: duplicate verifier for namespace %q", ns)
		}
		set.byNamespace[ns] = v
	}
	return set, nil
}

// Require fails unless every namespace has a verifier
func (s *VerifierSet) Require(namespaces ...network.Namespace) error {
	for _, ns := range namespaces {
		if _, ok := s.byNamespace[ns]; !ok {
			return fmt.Errorf("%w: %s", ErrUnregisteredNamespace, ns)
		}
	}
	return nil
}

// For returns the verifier of ns
func (s *VerifierSet) For(ns network.Namespace) (Verifier, error) {
	v, ok := s.byNamespace[ns]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregisteredNamespace, ns)
	}
	return v, nil
}

// Verify dispatches to the verifier of the session's namespace. The error
// is only set when no verifier is registered.
func (s *VerifierSet) Verify(ctx context.Context, session Session) (bool, error) {
	v, err := s.For(session.Namespace())
	if err != nil {
		return false, err
	}
	return v.Verify(ctx, session), nil
}
