package goGrant

import (
	"context"
	"io"

	internalaudit "github.com/MrEthical07/goGrant/internal/audit"
)

// AuditEvent is the structured record emitted for security-relevant
// operations.
type AuditEvent = internalaudit.Event

// AuditSink receives emitted audit events. Sinks run on the dispatcher
// goroutine, never on the grant path.
type AuditSink = internalaudit.Sink

// NoOpSink drops audit events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers audit events in a channel for consumption by tests
// or a custom forwarder.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line to an io.Writer.
type JSONWriterSink = internalaudit.JSONWriterSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit event types emitted by the Engine.
const (
	AuditPasswordGrant = "grant.password"
	AuditRefreshGrant  = "grant.refresh"
	AuditReuseDetected = "grant.refresh.reuse"
	AuditRevoke        = "revoke"
	AuditAuthenticate  = "authenticate"
)

func (e *Engine) emitAudit(ctx context.Context, eventType, subjectID, familyID string, success bool, opErr error) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: e.clock.Now(),
		EventType: eventType,
		SubjectID: subjectID,
		FamilyID:  familyID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}
