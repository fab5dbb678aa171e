// ABOUTME: Transport boundary types: inbound/outbound messages and the Sender
// ABOUTME: Everything past this boundary is transport wiring, not core logic
package gateway

import "context"

// Inbound is a message received from the transport.
type Inbound struct {
	SenderID      string `json:"sender_id"`
	Text          string `json:"text"`
	HasAttachment bool   `json:"has_attachment"`
	Attachment    []byte `json:"attachment,omitempty"`
}

// Outbound is a message to deliver to a recipient.
type Outbound struct {
	RecipientID string `json:"recipient_id"`
	Text        string `json:"text"`
}

// Sender delivers outbound messages. The router and the reminder poller
// both depend on this, never on a concrete transport.
type Sender interface {
	Send(ctx context.Context, msg Outbound) error
}

// Handler processes one inbound message.
type Handler interface {
	HandleMessage(ctx context.Context, msg Inbound)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, msg Inbound)

func (f HandlerFunc) HandleMessage(ctx context.Context, msg Inbound) { f(ctx, msg) }
