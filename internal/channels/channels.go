package channels

import (
	"context"
	"fmt"
	"sync"
)

// InboundMessage is a normalized incoming chat message
type InboundMessage struct {
	ChannelType string // "slack"
	ChannelID   string
	MessageID   string
	Text        string
	SenderID    string
	SenderName  string
	ThreadID    string
	Raw         any
}

// OutboundMessage is a normalized outgoing chat message
type OutboundMessage struct {
	ChannelID string
	Text      string
	ThreadID  string
}

// ChannelConfig holds adapter credentials
type ChannelConfig struct {
	Token    string
	AppToken string
}

// Channel is a chat transport adapter
type Channel interface {
	ID() string
	Connect(ctx context.Context, cfg ChannelConfig) error
	Disconnect() error
	Send(ctx context.Context, msg OutboundMessage) error
	SetHandler(fn func(InboundMessage))
}

// Manager owns the registered channel adapters and fans inbound messages
// into a single handler.
type Manager struct {
	mu       sync.RWMutex
	adapters map[string]Channel
	handler  func(InboundMessage)
}

// NewManager creates an empty channel manager
func NewManager() *Manager {
	return &Manager{adapters: make(map[string]Channel)}
}

// Register adds an adapter and wires it to the manager's handler
func (m *Manager) Register(ch Channel) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.adapters[ch.ID()] = ch
	ch.SetHandler(func(msg InboundMessage) {
		m.mu.RLock()
		handler := m.handler
		m.mu.RUnlock()
		if handler != nil {
			handler(msg)
		}
	})
}

// SetHandler sets the callback every adapter's inbound messages flow into
func (m *Manager) SetHandler(fn func(InboundMessage)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Connect connects one registered adapter
func (m *Manager) Connect(ctx context.Context, id string, cfg ChannelConfig) error {
	m.mu.RLock()
	ch, ok := m.adapters[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown channel %q", id)
	}
	return ch.Connect(ctx, cfg)
}

// Send delivers text to a channel through the named adapter
func (m *Manager) Send(ctx context.Context, id string, msg OutboundMessage) error {
	m.mu.RLock()
	ch, ok := m.adapters[id]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown channel %q", id)
	}
	return ch.Send(ctx, msg)
}

// DisconnectAll disconnects every adapter, keeping the first error
func (m *Manager) DisconnectAll() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var first error
	for _, ch := range m.adapters {
		if err := ch.Disconnect(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
