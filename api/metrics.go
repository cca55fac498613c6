package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "boardsync/api"

// messageMetrics accumulates per-message observations and emits them once as
// a structured log entry plus a span event when dispatch finishes.
type messageMetrics struct {
	logger     *log.Logger
	span       trace.Span
	start      time.Time
	connID     string
	msgType    string
	outcome    string // applied, noop or dropped
	stage      string
	broadcasts int
}

func newMessageMetrics(logger *log.Logger, connID string) *messageMetrics {
	_, span := otel.Tracer(tracerName).Start(context.Background(), "board.message")
	return &messageMetrics{
		logger:  logger,
		span:    span,
		start:   time.Now(),
		connID:  connID,
		outcome: "applied",
	}
}

func (m *messageMetrics) SetType(t string) {
	m.msgType = t
}

// SetDropped marks the message as discarded before any state change:
// unparseable payload or unrecognized type.
func (m *messageMetrics) SetDropped(stage string) {
	m.outcome = "dropped"
	m.stage = stage
}

// SetNoop marks a well-formed message whose validation check suppressed the
// mutation and all broadcasts.
func (m *messageMetrics) SetNoop(stage string) {
	m.outcome = "noop"
	m.stage = stage
}

func (m *messageMetrics) SetBroadcasts(count int) {
	if count < 0 {
		count = 0
	}
	m.broadcasts = count
}

func (m *messageMetrics) Log() {
	if m == nil || m.logger == nil {
		return
	}

	total := time.Since(m.start)
	fields := log.Fields{
		"route":      "/ws",
		"conn_id":    m.connID,
		"type":       m.msgType,
		"outcome":    m.outcome,
		"broadcasts": m.broadcasts,
		"total_ms":   durationToMillis(total),
	}
	if m.stage != "" {
		fields["stage"] = m.stage
	}

	severityText, severityNumber := severityForOutcome(m.outcome)
	attrs := []attribute.KeyValue{
		attribute.String("severity_text", severityText),
		attribute.Int("severity_number", severityNumber),
		attribute.String("board.message.type", m.msgType),
		attribute.String("board.message.outcome", m.outcome),
		attribute.Int("board.message.broadcasts", m.broadcasts),
		attribute.String("board.connection.id", m.connID),
	}
	if m.stage != "" {
		attrs = append(attrs, attribute.String("board.message.stage", m.stage))
	}
	m.span.SetAttributes(attrs...)
	m.span.AddEvent("observability.event", trace.WithAttributes(attrs...))
	m.span.End()

	entry := m.logger.WithFields(fields)
	if m.outcome == "dropped" {
		entry.Warn("board.message.metrics")
		return
	}
	entry.Info("board.message.metrics")
}

// severityForOutcome maps a dispatch outcome to OpenTelemetry log severity.
func severityForOutcome(outcome string) (string, int) {
	if outcome == "dropped" {
		return "WARN", 13
	}
	return "INFO", 9
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
