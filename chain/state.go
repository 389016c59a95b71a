// Package chain holds the active namespace, network and account state and
// drives connection, network switching and sign-in.
package chain

import (
	"errors"

	"github.com/chinmay1088/chainkit/connector"
	"github.com/chinmay1088/chainkit/network"
)

var (
	// ErrUnsupportedNamespace is returned when no connector serves a network's namespace
	ErrUnsupportedNamespace = errors.New("chain: unsupported namespace")
	// ErrNotConnected is returned by operations that need a connected account
	ErrNotConnected = errors.New("chain: no connected account")
	// ErrUnknownConnector is returned for connector ids that are not registered
	ErrUnknownConnector = errors.New("chain: unknown connector")
	// ErrSignInRequired is returned by Connect when a required sign-in failed
	ErrSignInRequired = errors.New("chain: sign-in required")
	// ErrSuperseded is returned when a result was computed for a state that
	// changed before it could be applied
	ErrSuperseded = errors.New("chain: result superseded by a newer state")
)

// Status is the connection status of a namespace
type Status string

const (
	StatusDisconnected       Status = "disconnected"
	StatusConnectedNoSession Status = "connected"
	StatusConnectedVerified  Status = "verified"
)

// Key names a subscribable field of State
type Key string

const (
	KeyActiveCaipNetwork Key = "activeCaipNetwork"
	KeyActiveNamespace   Key = "activeNamespace"
	KeyActiveConnectorID Key = "activeConnectorId"
	KeyActiveAddress     Key = "activeAddress"
	KeyStatus            Key = "status"
)

// Keys lists the subscribable keys
func Keys() []Key {
	return []Key{KeyActiveNamespace, KeyActiveCaipNetwork, KeyActiveConnectorID, KeyActiveAddress, KeyStatus}
}

// State is a read-only snapshot of the active chain state
type State struct {
	ActiveNamespace   network.Namespace
	ActiveNetwork     *network.ChainNetwork
	ActiveConnectorID string
	ActiveAddress     string
	Status            Status
	Epoch             uint64
}

// ActiveCaipNetworkID returns the CAIP id of the active network, "" when none
func (s State) ActiveCaipNetworkID() network.CaipNetworkID {
	if s.ActiveNetwork == nil {
		return ""
	}
	return s.ActiveNetwork.CaipNetworkID
}

func (s State) changed(other State) []Key {
	var keys []Key
	if s.ActiveNamespace != other.ActiveNamespace {
		keys = append(keys, KeyActiveNamespace)
	}
	if s.ActiveCaipNetworkID() != other.ActiveCaipNetworkID() {
		keys = append(keys, KeyActiveCaipNetwork)
	}
	if s.ActiveConnectorID != other.ActiveConnectorID {
		keys = append(keys, KeyActiveConnectorID)
	}
	if s.ActiveAddress != other.ActiveAddress {
		keys = append(keys, KeyActiveAddress)
	}
	if s.Status != other.Status {
		keys = append(keys, KeyStatus)
	}
	return keys
}

// Account is the connected account of a namespace
type Account struct {
	Address     string
	Namespace   network.Namespace
	ConnectorID string
	Status      Status
	Network     *network.ChainNetwork
}

type listenerRef struct {
	event string
	id    connector.ListenerID
}

type accountState struct {
	address     string
	connectorID string
	status      Status
	network     *network.ChainNetwork
	provider    connector.Provider
	listeners   []listenerRef
}

func (a *accountState) connected() bool {
	return a != nil && a.address != "" && a.status != StatusDisconnected
}

// setNetwork moves the account to net. A session verified on the previous
// network does not carry over.
func (a *accountState) setNetwork(net network.ChainNetwork) {
	a.network = &net
	if a.status == StatusConnectedVerified {
		a.status = StatusConnectedNoSession
	}
}

// onNetwork reports whether the account is connected on chainID
func (a *accountState) onNetwork(chainID network.CaipNetworkID) bool {
	return a.connected() && a.network != nil && a.network.CaipNetworkID == chainID
}
