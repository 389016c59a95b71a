package siwx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chinmay1088/chainkit/network"
	"github.com/google/uuid"
)

// Messenger builds sign-in messages for an application
type Messenger struct {
	Domain     string
	URI        string
	Statement  string
	Version    string
	Expiration time.Duration
	Resources  []string
	RequestID  string

	// Nonce overrides the default random nonce
	Nonce func() (string, error)
	// Clock overrides time.Now
	Clock func() time.Time
}

// Message is an unsigned sign-in message
type Message struct {
	SessionData
}

func (m *Messenger) now() time.Time {
	if m.Clock != nil {
		return m.Clock()
	}
	return time.Now()
}

func (m *Messenger) nonce() (string, error) {
	if m.Nonce != nil {
		return m.Nonce()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", ""), nil
}

// CreateMessage prepares a message for address on chainID
func (m *Messenger) CreateMessage(chainID network.CaipNetworkID, address string) (*Message, error) {
	if m.Domain == "" {
		return nil, errors.New("siwx: messenger domain is required")
	}
	if m.URI == "" {
		return nil, errors.New("siwx: messenger uri is required")
	}
	if _, _, err := chainID.Parse(); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, errors.New("siwx: account address is required")
	}

	nonce, err := m.nonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	version := m.Version
	if version == "" {
		version = "1"
	}

	issued := m.now().UTC().Truncate(time.Second)
	data := SessionData{
		ChainID:        chainID,
		AccountAddress: address,
		Domain:         m.Domain,
		URI:            m.URI,
		Version:        version,
		Nonce:          nonce,
		Statement:      m.Statement,
		IssuedAt:       issued,
		RequestID:      m.RequestID,
		Resources:      append([]string(nil), m.Resources...),
	}
	if m.Expiration > 0 {
		exp := issued.Add(m.Expiration)
		data.ExpirationTime = &exp
	}

	return &Message{SessionData: data}, nil
}

// String renders the CAIP-122 text that wallets sign
func (m *Message) String() string {
	ns, ref, _ := m.ChainID.Parse()

	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your %s account:\n", m.Domain, ns.Label())
	b.WriteString(m.AccountAddress)
	b.WriteString("\n\n")
	if m.Statement != "" {
		b.WriteString(m.Statement)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)

	// EVM wallets expect the bare chain number
	if ns == network.NamespaceEVM {
		fmt.Fprintf(&b, "Chain ID: %s\n", ref)
	} else {
		fmt.Fprintf(&b, "Chain ID: %s\n", m.ChainID)
	}

	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt.Format(time.RFC3339))
	if m.ExpirationTime != nil {
		fmt.Fprintf(&b, "\nExpiration Time: %s", m.ExpirationTime.Format(time.RFC3339))
	}
	if m.NotBefore != nil {
		fmt.Fprintf(&b, "\nNot Before: %s", m.NotBefore.Format(time.RFC3339))
	}
	if m.RequestID != "" {
		fmt.Fprintf(&b, "\nRequest ID: %s", m.RequestID)
	}
	if len(m.Resources) > 0 {
		b.WriteString("\nResources:")
		for _, r := range m.Resources {
			fmt.Fprintf(&b, "\n- %s", r)
		}
	}
	return b.String()
}

// RendersData reports whether the session's Message is the rendering of
// its Data. Stores filter on Data, so a signature only covers a session
// whose Data says what the wallet signed.
func (s Session) RendersData() bool {
	return s.Message == (&Message{SessionData: s.Data}).String()
}

// Session pairs the message with a wallet signature
func (m *Message) Session(signature string) Session {
	return Session{
		Data:      m.SessionData,
		Message:   m.String(),
		Signature: signature,
	}
}
