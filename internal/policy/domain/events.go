package domain

import (
	"context"
	"time"
)

// HubEventType names an auditable policy event.
type HubEventType string

const (
	EventSessionStarted             HubEventType = "session_started"
	EventSessionTimedOut            HubEventType = "session_timed_out"
	EventIdpSelected                HubEventType = "idp_selected"
	EventCountrySelected            HubEventType = "country_selected"
	EventIdpAuthnSucceeded          HubEventType = "idp_authn_succeeded"
	EventIdpAuthnFailed             HubEventType = "idp_authn_failed"
	EventIdpNoAuthnContext          HubEventType = "idp_no_authn_context"
	EventIdpRequesterError          HubEventType = "idp_requester_error"
	EventIdpFraudDetected           HubEventType = "idp_fraud_detected"
	EventMatchRequestSent           HubEventType = "match_request_sent"
	EventMatch                      HubEventType = "matching_service_match"
	EventNoMatch                    HubEventType = "matching_service_no_match"
	EventUserAccountCreated         HubEventType = "user_account_created"
	EventUserAccountCreationFailed  HubEventType = "user_account_creation_failed"
	EventWaitingForCycle3Attributes HubEventType = "waiting_for_cycle3_attributes"
	EventCycle3DataObtained         HubEventType = "cycle3_data_obtained"
	EventCycle3Cancelled            HubEventType = "cycle3_input_cancelled"
	EventMatchingServiceTimeout     HubEventType = "matching_service_request_timeout"
	EventResponseToTransaction      HubEventType = "response_sent_to_transaction"
	EventErrorResponseToTransaction HubEventType = "error_response_sent_to_transaction"
)

// HubEvent is one auditable occurrence within a session.
type HubEvent struct {
	Type                  HubEventType
	SessionID             SessionID
	RequestID             string
	RequestIssuerEntityID string
	SessionExpiry         time.Time
	IdpEntityID           string
	CountryEntityID       string
	LevelOfAssurance      LevelOfAssurance
	PrincipalIPAddress    string
	FraudEventID          string
	FraudIndicator        string
	ErrorMessage          string
}

// EventLogger records hub events for audit. Implementations must never fail
// the calling operation.
type EventLogger interface {
	LogEvent(ctx context.Context, event HubEvent)
}

// NoopEventLogger discards events. Used in tests.
type NoopEventLogger struct{}

func (NoopEventLogger) LogEvent(context.Context, HubEvent) {}
