package domain

import (
	"fmt"
	"time"
)

// SessionNotFoundError: no session record exists for the id.
type SessionNotFoundError struct {
	SessionID SessionID
}

func (e SessionNotFoundError) Error() string {
	return fmt.Sprintf("session %s not found", e.SessionID)
}

// SessionAlreadyExistsError: an insert collided with an existing session id.
type SessionAlreadyExistsError struct {
	SessionID SessionID
}

func (e SessionAlreadyExistsError) Error() string {
	return fmt.Sprintf("session %s already exists", e.SessionID)
}

// SessionTimedOutError: the whole-session expiry has passed; the persisted
// state is (now) TimeoutState.
type SessionTimedOutError struct {
	SessionID             SessionID
	RequestID             string
	RequestIssuerEntityID string
	SessionExpiry         time.Time
}

func (e SessionTimedOutError) Error() string {
	return fmt.Sprintf("session %s timed out at %s", e.SessionID, e.SessionExpiry.Format(time.RFC3339))
}

// InvalidSessionStateError: the session exists but its current state does
// not support the requested operation. This is a contract violation by the
// caller, not a business outcome.
type InvalidSessionStateError struct {
	SessionID SessionID
	Expected  string
	Actual    StateKind
}

func (e InvalidSessionStateError) Error() string {
	return fmt.Sprintf("session %s: expected state %s, was %s", e.SessionID, e.Expected, e.Actual)
}

// IdpDisabledError: the identity provider involved in this session is no
// longer enabled. Distinct from integrity errors because operators disable
// providers mid-session during normal operation.
type IdpDisabledError struct {
	IdpEntityID string
}

func (e IdpDisabledError) Error() string {
	return fmt.Sprintf("identity provider %s is disabled", e.IdpEntityID)
}

// ProcessingErrorReason classifies state-processing validation failures so
// callers can distinguish protocol-integrity violations from policy ones.
type ProcessingErrorReason string

const (
	ReasonWrongResponseIssuer         ProcessingErrorReason = "wrong_response_issuer"
	ReasonWrongInResponseTo           ProcessingErrorReason = "wrong_in_response_to"
	ReasonWrongLevelOfAssurance       ProcessingErrorReason = "wrong_level_of_assurance"
	ReasonIdpUnsupportedAssurance     ProcessingErrorReason = "idp_unsupported_level_of_assurance"
	ReasonUnavailableIdp              ProcessingErrorReason = "unavailable_idp"
	ReasonUnsupportedTransactionLoa   ProcessingErrorReason = "loa_unsupported_by_transaction"
	ReasonMissingMandatoryAttribute   ProcessingErrorReason = "missing_mandatory_attribute"
	ReasonCountryNotEnabled           ProcessingErrorReason = "eidas_country_not_enabled"
	ReasonNoCycle3AttributeConfigured ProcessingErrorReason = "no_cycle3_attribute_configured"
)

// StateProcessingError: a downstream message or selection failed validation
// against the current state. Never retried, never silently recovered.
type StateProcessingError struct {
	Reason  ProcessingErrorReason
	Message string
}

func (e StateProcessingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func WrongResponseIssuer(requestID, actual, expected string) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonWrongResponseIssuer,
		Message: fmt.Sprintf("request %s: response issued by %q, expected %q", requestID, actual, expected),
	}
}

func WrongInResponseTo(requestID, inResponseTo string) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonWrongInResponseTo,
		Message: fmt.Sprintf("response was in response to %q, expected %q", inResponseTo, requestID),
	}
}

func WrongLevelOfAssurance(got LevelOfAssurance, accepted []LevelOfAssurance) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonWrongLevelOfAssurance,
		Message: fmt.Sprintf("level of assurance %s not in accepted set %v", got, accepted),
	}
}

func IdpReturnedUnsupportedAssurance(loa LevelOfAssurance, requestID, issuer string) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonIdpUnsupportedAssurance,
		Message: fmt.Sprintf("request %s: identity provider %s returned %s, which it is not configured to support", requestID, issuer, loa),
	}
}

func UnavailableIdp(idpEntityID string, sessionID SessionID) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonUnavailableIdp,
		Message: fmt.Sprintf("session %s: identity provider %s is not available for this selection", sessionID, idpEntityID),
	}
}

func AssuranceUnsupportedByTransaction(transactionEntityID string, accepted []LevelOfAssurance, requested LevelOfAssurance) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonUnsupportedTransactionLoa,
		Message: fmt.Sprintf("transaction %s accepts %v, requested %s", transactionEntityID, accepted, requested),
	}
}

func MissingMandatoryAttribute(requestID, attribute string) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonMissingMandatoryAttribute,
		Message: fmt.Sprintf("request %s: response is missing mandatory attribute %q", requestID, attribute),
	}
}

func CountryNotEnabled(countryEntityID string) StateProcessingError {
	return StateProcessingError{
		Reason:  ReasonCountryNotEnabled,
		Message: fmt.Sprintf("country %s is not enabled for this transaction", countryEntityID),
	}
}
