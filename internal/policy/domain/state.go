package domain

import "time"

// StateKind names one variant of the closed session-state set. The kind of
// the current state alone decides which operations are legal; invoking
// anything else is a contract violation, not a business error.
type StateKind string

const (
	KindSessionStarted                  StateKind = "session_started"
	KindCountrySelected                 StateKind = "country_selected"
	KindIdpSelected                     StateKind = "idp_selected"
	KindCycle01MatchRequestSent         StateKind = "cycle01_match_request_sent"
	KindCycle3MatchRequestSent          StateKind = "cycle3_match_request_sent"
	KindEidasCycle01MatchRequestSent    StateKind = "eidas_cycle01_match_request_sent"
	KindEidasCycle3MatchRequestSent     StateKind = "eidas_cycle3_match_request_sent"
	KindUserAccountCreationRequestSent  StateKind = "user_account_creation_request_sent"
	KindEidasUserAccountCreationReqSent StateKind = "eidas_user_account_creation_request_sent"
	KindAwaitingCycle3Data              StateKind = "awaiting_cycle3_data"
	KindEidasAwaitingCycle3Data         StateKind = "eidas_awaiting_cycle3_data"
	KindSuccessfulMatch                 StateKind = "successful_match"
	KindEidasSuccessfulMatch            StateKind = "eidas_successful_match"
	KindNoMatch                         StateKind = "no_match"
	KindUserAccountCreated              StateKind = "user_account_created"
	KindUserAccountCreationFailed       StateKind = "user_account_creation_failed"
	KindNonMatchingJourneySuccess       StateKind = "non_matching_journey_success"
	KindCycle3DataInputCancelled        StateKind = "cycle3_data_input_cancelled"
	KindAuthnFailedError                StateKind = "authn_failed_error"
	KindEidasAuthnFailedError           StateKind = "eidas_authn_failed_error"
	KindRequesterError                  StateKind = "requester_error"
	KindFraudEventDetected              StateKind = "fraud_event_detected"
	KindMatchingServiceRequestError     StateKind = "matching_service_request_error"
	KindTimeout                         StateKind = "timeout"
)

// SessionContext carries the fields present in every state variant. It is
// set once at session start and copied unchanged into every subsequent
// state; in particular SessionExpiry is the sole whole-session deadline.
type SessionContext struct {
	RequestID                   string    `json:"request_id"`
	RequestIssuerEntityID       string    `json:"request_issuer_entity_id"`
	SessionID                   SessionID `json:"session_id"`
	SessionExpiry               time.Time `json:"session_expiry"`
	AssertionConsumerServiceURL string    `json:"assertion_consumer_service_url"`
	TransactionSupportsEidas    bool      `json:"transaction_supports_eidas"`
}

func (c SessionContext) Context() SessionContext { return c }

// State is the closed, tagged union of session states. Each variant is an
// immutable record; transitions replace the whole value in the store.
type State interface {
	Kind() StateKind
	Context() SessionContext
}

// SessionStartedState is the initial state: the relying party's request has
// been received and the user has not yet chosen an identity provider or
// country.
type SessionStartedState struct {
	SessionContext
	RelayState          string `json:"relay_state,omitempty"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (SessionStartedState) Kind() StateKind { return KindSessionStarted }

// IdpSelectedState records the chosen identity provider and the assurance
// levels the hub will request from it.
type IdpSelectedState struct {
	SessionContext
	IdpEntityID                string             `json:"idp_entity_id"`
	MatchingServiceEntityID    string             `json:"matching_service_entity_id,omitempty"`
	LevelsOfAssurance          []LevelOfAssurance `json:"levels_of_assurance"`
	UseExactComparisonType     bool               `json:"use_exact_comparison_type"`
	ForceAuthentication        *bool              `json:"force_authentication,omitempty"`
	RelayState                 string             `json:"relay_state,omitempty"`
	Registering                bool               `json:"registering"`
	RequestedLoa               LevelOfAssurance   `json:"requested_loa"`
	AvailableIdentityProviders []string           `json:"available_identity_providers"`
}

func (IdpSelectedState) Kind() StateKind { return KindIdpSelected }

// CountrySelectedState records the chosen eIDAS country gateway.
type CountrySelectedState struct {
	SessionContext
	CountryEntityID   string             `json:"country_entity_id"`
	RelayState        string             `json:"relay_state,omitempty"`
	LevelsOfAssurance []LevelOfAssurance `json:"levels_of_assurance"`
}

func (CountrySelectedState) Kind() StateKind { return KindCountrySelected }

// MatchRequestContext carries the fields shared by every state in the
// match-request-sent family. RequestSentTime anchors the per-request
// matching-service timeout, which is distinct from (and strictly earlier
// than) the whole-session expiry.
type MatchRequestContext struct {
	SessionContext
	IdentityProviderEntityID       string           `json:"identity_provider_entity_id"`
	RelayState                     string           `json:"relay_state,omitempty"`
	IdpLevelOfAssurance            LevelOfAssurance `json:"idp_level_of_assurance"`
	MatchingServiceAdapterEntityID string           `json:"matching_service_adapter_entity_id"`
	RequestSentTime                time.Time        `json:"request_sent_time"`
	Registering                    bool             `json:"registering"`
}

func (c MatchRequestContext) MatchRequest() MatchRequestContext { return c }

// MatchRequestSentState is implemented by every variant awaiting a
// matching-service response.
type MatchRequestSentState interface {
	State
	MatchRequest() MatchRequestContext
}

// Cycle01MatchRequestSentState: initial (cycle 0/1) attribute query has been
// dispatched to the matching service following a successful IdP response.
type Cycle01MatchRequestSentState struct {
	MatchRequestContext
	EncryptedMatchingDatasetAssertion string `json:"encrypted_matching_dataset_assertion"`
	AuthnStatementAssertion           string `json:"authn_statement_assertion"`
	PersistentID                      string `json:"persistent_id"`
}

func (Cycle01MatchRequestSentState) Kind() StateKind { return KindCycle01MatchRequestSent }

// Cycle3MatchRequestSentState: a follow-up attribute query carrying the
// user's self-asserted cycle 3 attribute has been dispatched.
type Cycle3MatchRequestSentState struct {
	MatchRequestContext
	EncryptedMatchingDatasetAssertion string `json:"encrypted_matching_dataset_assertion"`
	AuthnStatementAssertion           string `json:"authn_statement_assertion"`
	PersistentID                      string `json:"persistent_id"`
}

func (Cycle3MatchRequestSentState) Kind() StateKind { return KindCycle3MatchRequestSent }

// EidasCycle01MatchRequestSentState mirrors Cycle01MatchRequestSentState for
// the cross-border flow, where the country asserts a single encrypted
// identity blob instead of separate dataset/authn-statement assertions.
type EidasCycle01MatchRequestSentState struct {
	MatchRequestContext
	EncryptedIdentityAssertion string `json:"encrypted_identity_assertion"`
	PersistentID               string `json:"persistent_id"`
}

func (EidasCycle01MatchRequestSentState) Kind() StateKind { return KindEidasCycle01MatchRequestSent }

type EidasCycle3MatchRequestSentState struct {
	MatchRequestContext
	EncryptedIdentityAssertion string `json:"encrypted_identity_assertion"`
	PersistentID               string `json:"persistent_id"`
}

func (EidasCycle3MatchRequestSentState) Kind() StateKind { return KindEidasCycle3MatchRequestSent }

// UserAccountCreationRequestSentState: the matching service reported no
// match and an account-creation attribute query has been dispatched.
type UserAccountCreationRequestSentState struct {
	MatchRequestContext
}

func (UserAccountCreationRequestSentState) Kind() StateKind {
	return KindUserAccountCreationRequestSent
}

type EidasUserAccountCreationRequestSentState struct {
	MatchRequestContext
}

func (EidasUserAccountCreationRequestSentState) Kind() StateKind {
	return KindEidasUserAccountCreationReqSent
}

// AwaitingCycle3DataState: automated matching failed and the hub is waiting
// for the user to supply the relying party's configured self-asserted
// attribute.
type AwaitingCycle3DataState struct {
	SessionContext
	IdentityProviderEntityID          string           `json:"identity_provider_entity_id"`
	EncryptedMatchingDatasetAssertion string           `json:"encrypted_matching_dataset_assertion"`
	AuthnStatementAssertion           string           `json:"authn_statement_assertion"`
	RelayState                        string           `json:"relay_state,omitempty"`
	MatchingServiceEntityID           string           `json:"matching_service_entity_id"`
	PersistentID                      string           `json:"persistent_id"`
	LevelOfAssurance                  LevelOfAssurance `json:"level_of_assurance"`
	Registering                       bool             `json:"registering"`
}

func (AwaitingCycle3DataState) Kind() StateKind { return KindAwaitingCycle3Data }

type EidasAwaitingCycle3DataState struct {
	SessionContext
	CountryEntityID            string           `json:"country_entity_id"`
	EncryptedIdentityAssertion string           `json:"encrypted_identity_assertion"`
	RelayState                 string           `json:"relay_state,omitempty"`
	MatchingServiceEntityID    string           `json:"matching_service_entity_id"`
	PersistentID               string           `json:"persistent_id"`
	LevelOfAssurance           LevelOfAssurance `json:"level_of_assurance"`
}

func (EidasAwaitingCycle3DataState) Kind() StateKind { return KindEidasAwaitingCycle3Data }

// SuccessfulMatchState: the matching service resolved the asserted identity
// to an account; the hub can now render the success response.
type SuccessfulMatchState struct {
	SessionContext
	IdentityProviderEntityID string           `json:"identity_provider_entity_id"`
	MatchingServiceAssertion string           `json:"matching_service_assertion"`
	RelayState               string           `json:"relay_state,omitempty"`
	LevelOfAssurance         LevelOfAssurance `json:"level_of_assurance"`
	Registering              bool             `json:"registering"`
}

func (SuccessfulMatchState) Kind() StateKind { return KindSuccessfulMatch }

type EidasSuccessfulMatchState struct {
	SessionContext
	CountryEntityID          string           `json:"country_entity_id"`
	MatchingServiceAssertion string           `json:"matching_service_assertion"`
	RelayState               string           `json:"relay_state,omitempty"`
	LevelOfAssurance         LevelOfAssurance `json:"level_of_assurance"`
}

func (EidasSuccessfulMatchState) Kind() StateKind { return KindEidasSuccessfulMatch }

type NoMatchState struct {
	SessionContext
	IdentityProviderEntityID string `json:"identity_provider_entity_id"`
	RelayState               string `json:"relay_state,omitempty"`
}

func (NoMatchState) Kind() StateKind { return KindNoMatch }

type UserAccountCreatedState struct {
	SessionContext
	IdentityProviderEntityID string           `json:"identity_provider_entity_id"`
	MatchingServiceAssertion string           `json:"matching_service_assertion"`
	RelayState               string           `json:"relay_state,omitempty"`
	LevelOfAssurance         LevelOfAssurance `json:"level_of_assurance"`
	Registering              bool             `json:"registering"`
}

func (UserAccountCreatedState) Kind() StateKind { return KindUserAccountCreated }

type UserAccountCreationFailedState struct {
	SessionContext
	RelayState string `json:"relay_state,omitempty"`
}

func (UserAccountCreationFailedState) Kind() StateKind { return KindUserAccountCreationFailed }

// NonMatchingJourneySuccessState: a successful IdP response on a
// non-matching (attribute exchange) journey; the raw encrypted assertions
// are handed back to the relying party untouched.
type NonMatchingJourneySuccessState struct {
	SessionContext
	IdentityProviderEntityID string           `json:"identity_provider_entity_id"`
	RelayState               string           `json:"relay_state,omitempty"`
	LevelOfAssurance         LevelOfAssurance `json:"level_of_assurance"`
	EncryptedAssertions      []string         `json:"encrypted_assertions"`
}

func (NonMatchingJourneySuccessState) Kind() StateKind { return KindNonMatchingJourneySuccess }

type Cycle3DataInputCancelledState struct {
	SessionContext
	RelayState string `json:"relay_state,omitempty"`
}

func (Cycle3DataInputCancelledState) Kind() StateKind { return KindCycle3DataInputCancelled }

type AuthnFailedErrorState struct {
	SessionContext
	RelayState          string `json:"relay_state,omitempty"`
	IdpEntityID         string `json:"idp_entity_id,omitempty"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (AuthnFailedErrorState) Kind() StateKind { return KindAuthnFailedError }

type EidasAuthnFailedErrorState struct {
	SessionContext
	RelayState      string `json:"relay_state,omitempty"`
	CountryEntityID string `json:"country_entity_id"`
}

func (EidasAuthnFailedErrorState) Kind() StateKind { return KindEidasAuthnFailedError }

type RequesterErrorState struct {
	SessionContext
	RelayState          string `json:"relay_state,omitempty"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (RequesterErrorState) Kind() StateKind { return KindRequesterError }

type FraudEventDetectedState struct {
	SessionContext
	RelayState          string `json:"relay_state,omitempty"`
	IdpEntityID         string `json:"idp_entity_id"`
	ForceAuthentication *bool  `json:"force_authentication,omitempty"`
}

func (FraudEventDetectedState) Kind() StateKind { return KindFraudEventDetected }

type MatchingServiceRequestErrorState struct {
	SessionContext
	IdentityProviderEntityID string `json:"identity_provider_entity_id"`
	RelayState               string `json:"relay_state,omitempty"`
}

func (MatchingServiceRequestErrorState) Kind() StateKind { return KindMatchingServiceRequestError }

// TimeoutState is the terminal state a session is promoted to on first
// access after its whole-session expiry has passed.
type TimeoutState struct {
	SessionContext
}

func (TimeoutState) Kind() StateKind { return KindTimeout }

// NewTimeoutState builds the timeout state for any current state, carrying
// the invariant fields forward unchanged.
func NewTimeoutState(current State) TimeoutState {
	return TimeoutState{SessionContext: current.Context()}
}
