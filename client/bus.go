package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MessageType tags a bus message. The set mirrors the events exchanged
// between the capture UI, the popup and the background agent.
type MessageType string

const (
	MsgCheckAuth     MessageType = "CHECK_AUTH"
	MsgOpenLogin     MessageType = "OPEN_LOGIN"
	MsgOpenDashboard MessageType = "OPEN_DASHBOARD"
	MsgLoginSuccess  MessageType = "LOGIN_SUCCESS"
	MsgSaveNote      MessageType = "SAVE_NOTE"
	MsgSetReminder   MessageType = "SET_REMINDER"
	MsgLogout        MessageType = "LOGOUT"
	MsgUpdateNote    MessageType = "UPDATE_NOTE"
)

// Message is one event on the bus. Payload is message-type specific.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Handler processes one message kind. The returned value is the
// response for request/response kinds; one-way kinds return nil.
type Handler func(ctx context.Context, payload json.RawMessage) (interface{}, error)

// Bus dispatches messages between extension contexts.
type Bus struct {
	mu       sync.RWMutex
	handlers map[MessageType]Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[MessageType]Handler)}
}

// Handle registers the handler for a message kind, replacing any
// previous registration.
func (b *Bus) Handle(t MessageType, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[t] = h
}

// Dispatch routes a message to its handler and returns the response.
func (b *Bus) Dispatch(ctx context.Context, msg Message) (interface{}, error) {
	b.mu.RLock()
	h, ok := b.handlers[msg.Type]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no handler for message type %q", msg.Type)
	}
	return h(ctx, msg.Payload)
}

// Request marshals a typed payload and dispatches it.
func (b *Bus) Request(ctx context.Context, t MessageType, payload interface{}) (interface{}, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return b.Dispatch(ctx, Message{Type: t, Payload: raw})
}
