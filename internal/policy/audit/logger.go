// Package audit bridges policy events onto the shared audit event bus.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/identity-federation/hub/internal/policy/domain"
	"github.com/identity-federation/hub/internal/shared/events"
	"github.com/identity-federation/hub/internal/shared/metrics"
)

const source = "policy"

// Logger publishes hub events to the audit bus. Publishing is best effort:
// a bus failure is logged and swallowed so it can never fail the session
// operation that produced the event.
type Logger struct {
	publisher events.Publisher
	timeout   time.Duration
}

func NewLogger(publisher events.Publisher) *Logger {
	return &Logger{publisher: publisher, timeout: 5 * time.Second}
}

type eventData struct {
	SessionID             string    `json:"session_id"`
	RequestID             string    `json:"request_id,omitempty"`
	RequestIssuerEntityID string    `json:"request_issuer_entity_id,omitempty"`
	SessionExpiry         time.Time `json:"session_expiry,omitempty"`
	IdpEntityID           string    `json:"idp_entity_id,omitempty"`
	CountryEntityID       string    `json:"country_entity_id,omitempty"`
	LevelOfAssurance      string    `json:"level_of_assurance,omitempty"`
	PrincipalIPAddress    string    `json:"principal_ip_address,omitempty"`
	FraudEventID          string    `json:"fraud_event_id,omitempty"`
	FraudIndicator        string    `json:"fraud_indicator,omitempty"`
	ErrorMessage          string    `json:"error_message,omitempty"`
}

// LogEvent implements domain.EventLogger.
func (l *Logger) LogEvent(ctx context.Context, event domain.HubEvent) {
	recordMetrics(event)

	var loa string
	if event.LevelOfAssurance != domain.LevelX {
		loa = event.LevelOfAssurance.String()
	}

	busEvent := events.NewEvent("hub."+string(event.Type), source, eventData{
		SessionID:             string(event.SessionID),
		RequestID:             event.RequestID,
		RequestIssuerEntityID: event.RequestIssuerEntityID,
		SessionExpiry:         event.SessionExpiry,
		IdpEntityID:           event.IdpEntityID,
		CountryEntityID:       event.CountryEntityID,
		LevelOfAssurance:      loa,
		PrincipalIPAddress:    event.PrincipalIPAddress,
		FraudEventID:          event.FraudEventID,
		FraudIndicator:        event.FraudIndicator,
		ErrorMessage:          event.ErrorMessage,
	}).WithCorrelation(string(event.SessionID))

	// Detach from the request context so audit writes survive the caller
	// hanging up, but still bound the publish.
	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()

	if err := l.publisher.Publish(publishCtx, busEvent); err != nil {
		slog.Error("failed to publish audit event",
			"type", event.Type,
			"session_id", event.SessionID,
			"error", err,
		)
	}
}

func recordMetrics(event domain.HubEvent) {
	switch event.Type {
	case domain.EventSessionStarted:
		metrics.RecordSessionStarted(event.RequestIssuerEntityID)
	case domain.EventSessionTimedOut:
		metrics.RecordSessionTimedOut()
	case domain.EventMatchRequestSent:
		metrics.RecordMatchRequestSent(event.RequestIssuerEntityID)
	case domain.EventMatchingServiceTimeout:
		metrics.RecordMatchRequestTimeout()
	case domain.EventIdpFraudDetected:
		metrics.RecordFraudEvent(event.IdpEntityID)
	case domain.EventResponseToTransaction:
		metrics.RecordResponseToTransaction("success")
	case domain.EventErrorResponseToTransaction:
		metrics.RecordResponseToTransaction("error")
	}
}
