package connector

import (
	"errors"
	"sync"

	"github.com/chinmay1088/chainkit/network"
	"github.com/rs/zerolog"
)

// ErrNamespaceRequired is returned by lookups that need a namespace
var ErrNamespaceRequired = errors.New("connector: namespace is required")

// Event describes a change of the active connector of a namespace.
// ConnectorID is empty when the namespace was cleared.
type Event struct {
	Namespace   network.Namespace
	ConnectorID string
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// Controller owns the connector list and the active connector per namespace
type Controller struct {
	mu         sync.RWMutex
	connectors []*Connector
	active     map[network.Namespace]string
	subs       []subscriber
	nextSub    uint64
	logger     zerolog.Logger
}

// ControllerOption configures a Controller
type ControllerOption func(*Controller)

// WithLogger sets the controller logger
func WithLogger(logger zerolog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		active: make(map[network.Namespace]string),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RegisterConnector appends c, or replaces the connector with the same ID
// in place
func (c *Controller) RegisterConnector(conn *Connector) {
	if conn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.connectors {
		if existing.ID == conn.ID {
			c.connectors[i] = conn
			c.logger.Debug().Str("connector", conn.ID).Msg("replaced connector")
			return
		}
	}
	c.connectors = append(c.connectors, conn)
	c.logger.Debug().Str("connector", conn.ID).Str("type", string(conn.Type)).Msg("registered connector")
}

// RemoveConnector drops a connector, clearing it wherever it was active
func (c *Controller) RemoveConnector(id string) {
	var events []Event

	c.mu.Lock()
	for i, existing := range c.connectors {
		if existing.ID == id {
			c.connectors = append(c.connectors[:i:i], c.connectors[i+1:]...)
			break
		}
	}
	for _, ns := range network.Namespaces() {
		if c.active[ns] == id {
			delete(c.active, ns)
			events = append(events, Event{Namespace: ns})
		}
	}
	subs := c.subscribers()
	c.mu.Unlock()

	notify(subs, events...)
}

// Connectors returns the registered connectors in registration order
func (c *Controller) Connectors() []*Connector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Connector(nil), c.connectors...)
}

// Connector returns the connector registered under id
func (c *Controller) Connector(id string) (*Connector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, conn := range c.connectors {
		if conn.ID == id {
			return conn, true
		}
	}
	return nil, false
}

// ConnectorsFor returns the connectors serving ns
func (c *Controller) ConnectorsFor(ns network.Namespace) []*Connector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []*Connector
	for _, conn := range c.connectors {
		if conn.Supports(ns) {
			out = append(out, conn)
		}
	}
	return out
}

// AuthConnector returns the AUTH connector, if one is registered
func (c *Controller) AuthConnector() (*Connector, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, conn := range c.connectors {
		if conn.Type == TypeAuth {
			return conn, true
		}
	}
	return nil, false
}

// SetActiveConnector marks conn active for every namespace it serves
func (c *Controller) SetActiveConnector(conn *Connector, namespaces ...network.Namespace) {
	if conn == nil {
		return
	}
	if len(namespaces) == 0 {
		namespaces = conn.Namespaces
	}

	var events []Event
	c.mu.Lock()
	for _, ns := range namespaces {
		if c.active[ns] == conn.ID {
			continue
		}
		c.active[ns] = conn.ID
		events = append(events, Event{Namespace: ns, ConnectorID: conn.ID})
	}
	subs := c.subscribers()
	c.mu.Unlock()

	notify(subs, events...)
}

// ClearActiveConnector forgets the active connector of ns
func (c *Controller) ClearActiveConnector(ns network.Namespace) {
	c.mu.Lock()
	_, ok := c.active[ns]
	delete(c.active, ns)
	subs := c.subscribers()
	c.mu.Unlock()

	if ok {
		notify(subs, Event{Namespace: ns})
	}
}

// ActiveConnectorID returns the active connector of ns, "" when none
func (c *Controller) ActiveConnectorID(ns network.Namespace) (string, error) {
	if ns == "" {
		return "", ErrNamespaceRequired
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active[ns], nil
}

// DiscoverInjected registers a connector for every announced provider and
// returns how many were added
func (c *Controller) DiscoverInjected(locator ProviderLocator) int {
	if locator == nil {
		return 0
	}
	added := 0
	for _, detail := range locator.Announced() {
		if detail.ID == "" || detail.Provider == nil {
			continue
		}
		if _, exists := c.Connector(detail.ID); !exists {
			added++
		}
		conn := New(detail.ID, detail.Name, TypeAnnounced, detail.Provider, detail.Namespaces...)
		conn.ImageURL = detail.ImageURL
		conn.locator = locator
		c.RegisterConnector(conn)
	}
	return added
}

// Subscribe registers fn for active connector changes. The returned
// function unsubscribes and may be called more than once.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	c.nextSub++
	id := c.nextSub
	c.subs = append(c.subs, subscriber{id: id, fn: fn})
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			for i, s := range c.subs {
				if s.id == id {
					c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// subscribers must be called with mu held
func (c *Controller) subscribers() []subscriber {
	return append([]subscriber(nil), c.subs...)
}

func notify(subs []subscriber, events ...Event) {
	for _, e := range events {
		for _, s := range subs {
			s.fn(e)
		}
	}
}
