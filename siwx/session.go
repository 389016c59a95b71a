package siwx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chinmay1088/chainkit/network"
)

var (
	// ErrInvalidSignature is returned when a session fails verification
	ErrInvalidSignature = errors.New("siwx: signature is not valid")
	// ErrMessageMismatch is returned when a session's Data does not render
	// to its signed Message
	ErrMessageMismatch = fmt.Errorf("%w: message does not match session data", ErrInvalidSignature)
	// ErrUnregisteredNamespace is returned when no verifier serves a namespace
	ErrUnregisteredNamespace = errors.New("siwx: no verifier registered for namespace")
	// ErrMissingStorageKey is returned by LocalStorage without a key
	ErrMissingStorageKey = errors.New("siwx: storage key is required")
)

// SessionData is the signed content of a sign-in message
type SessionData struct {
	ChainID        network.CaipNetworkID `json:"chainId"`
	AccountAddress string                `json:"accountAddress"`
	Domain         string                `json:"domain,omitempty"`
	URI            string                `json:"uri,omitempty"`
	Version        string                `json:"version,omitempty"`
	Nonce          string                `json:"nonce,omitempty"`
	Statement      string                `json:"statement,omitempty"`
	IssuedAt       time.Time             `json:"issuedAt"`
	NotBefore      *time.Time            `json:"notBefore,omitempty"`
	ExpirationTime *time.Time            `json:"expirationTime,omitempty"`
	RequestID      string                `json:"requestId,omitempty"`
	Resources      []string              `json:"resources,omitempty"`
}

// Session is a sign-in proof for a (chain, address) pair. Sessions are
// never mutated after creation.
type Session struct {
	Data      SessionData `json:"data"`
	Message   string      `json:"message"`
	Signature string      `json:"signature"`
}

// ValidAt reports whether the session may be used at t: not before
// NotBefore (or IssuedAt when absent) and not after ExpirationTime.
func (s Session) ValidAt(t time.Time) bool {
	start := s.Data.IssuedAt
	if s.Data.NotBefore != nil {
		start = *s.Data.NotBefore
	}
	if t.Before(start) {
		return false
	}
	if s.Data.ExpirationTime != nil && t.After(*s.Data.ExpirationTime) {
		return false
	}
	return true
}

// Namespace returns the namespace of the session's chain
func (s Session) Namespace() network.Namespace {
	return s.Data.ChainID.Namespace()
}

// Matches reports whether the session belongs to chainID and address.
// EVM addresses compare case-insensitively.
func (s Session) Matches(chainID network.CaipNetworkID, address string) bool {
	if s.Data.ChainID != chainID {
		return false
	}
	if chainID.Namespace() == network.NamespaceEVM {
		return strings.EqualFold(s.Data.AccountAddress, address)
	}
	return s.Data.AccountAddress == address
}

func filterSessions(sessions []Session, chainID network.CaipNetworkID, address string, now time.Time) []Session {
	var out []Session
	for _, s := range sessions {
		if s.Matches(chainID, address) && s.ValidAt(now) {
			out = append(out, s)
		}
	}
	return out
}

func removeSessions(sessions []Session, chainID network.CaipNetworkID, address string) []Session {
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if !s.Matches(chainID, address) {
			out = append(out, s)
		}
	}
	return out
}
