package message

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Message is a tagged command record. Execute performs the command's
// effect and reports whether it succeeded along with any follow-on
// messages it produced; it must be idempotent with respect to its
// observable effects, since the bus redelivers at least once.
type Message interface {
	Type() string
	ToJSON() ([]byte, error)
	Execute(ctx context.Context) (bool, []Message, error)
}

// Decoder builds a Message of a specific type from its JSON payload.
type Decoder func(payload []byte) (Message, error)

// envelope is the wire shape every message travels in: a type tag next
// to its payload, so the bus never needs a type switch at the call site.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Registry maps type tags to the decoder that reconstructs that type
// from JSON, so Encode/Decode round-trip any registered Message without
// the caller naming its concrete type.
type Registry struct {
	mu       sync.RWMutex
	decoders map[string]Decoder
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{decoders: make(map[string]Decoder)}
}

// Register installs the decoder for msgType. Registering the same type
// twice replaces the previous decoder.
func (r *Registry) Register(msgType string, dec Decoder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decoders[msgType] = dec
}

// Encode wraps a message's JSON payload in its type envelope.
func (r *Registry) Encode(m Message) ([]byte, error) {
	payload, err := m.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("message: encode %s: %w", m.Type(), err)
	}
	return json.Marshal(envelope{Type: m.Type(), Payload: payload})
}

// Decode unwraps a message envelope and reconstructs the concrete
// Message using the decoder registered for its type tag.
func (r *Registry) Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("message: decode envelope: %w", err)
	}

	r.mu.RLock()
	dec, ok := r.decoders[env.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("message: no decoder registered for type %q", env.Type)
	}

	m, err := dec(env.Payload)
	if err != nil {
		return nil, fmt.Errorf("message: decode %s payload: %w", env.Type, err)
	}
	return m, nil
}
