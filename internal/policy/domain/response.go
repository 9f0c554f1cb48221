package domain

// TransactionStatus is the outcome the hub reports back to the relying
// party.
type TransactionStatus string

const (
	StatusSuccess                 TransactionStatus = "Success"
	StatusNoAuthenticationContext TransactionStatus = "NoAuthenticationContext"
	StatusNoMatchingServiceMatch  TransactionStatus = "NoMatchingServiceMatchFromHub"
	StatusAuthenticationFailed    TransactionStatus = "AuthnFailed"
	StatusRequesterError          TransactionStatus = "RequesterError"
)

// ResponseFromHub is the final message rendered to the relying party. The
// hub mints a fresh response id; the original request id goes into
// InResponseTo.
type ResponseFromHub struct {
	ResponseID                  string            `json:"response_id"`
	InResponseTo                string            `json:"in_response_to"`
	AuthnRequestIssuerEntityID  string            `json:"authn_request_issuer_entity_id"`
	AssertionConsumerServiceURL string            `json:"assertion_consumer_service_uri"`
	RelayState                  string            `json:"relay_state,omitempty"`
	MatchingServiceAssertions   []string          `json:"matching_service_assertions,omitempty"`
	EncryptedAssertions         []string          `json:"encrypted_assertions,omitempty"`
	Status                      TransactionStatus `json:"status"`
}

// ResponseFactory builds the five response-from-hub shapes, minting a new
// response id for each.
type ResponseFactory struct {
	ids IDGenerator
}

func NewResponseFactory(ids IDGenerator) *ResponseFactory {
	return &ResponseFactory{ids: ids}
}

func (f *ResponseFactory) SuccessResponse(ctx SessionContext, relayState, matchingServiceAssertion string) ResponseFromHub {
	return ResponseFromHub{
		ResponseID:                  f.ids.NewID(),
		InResponseTo:                ctx.RequestID,
		AuthnRequestIssuerEntityID:  ctx.RequestIssuerEntityID,
		AssertionConsumerServiceURL: ctx.AssertionConsumerServiceURL,
		RelayState:                  relayState,
		MatchingServiceAssertions:   []string{matchingServiceAssertion},
		Status:                      StatusSuccess,
	}
}

// NonMatchingSuccessResponse returns the IdP's assertions untouched on a
// non-matching journey.
func (f *ResponseFactory) NonMatchingSuccessResponse(ctx SessionContext, relayState string, encryptedAssertions []string) ResponseFromHub {
	return ResponseFromHub{
		ResponseID:                  f.ids.NewID(),
		InResponseTo:                ctx.RequestID,
		AuthnRequestIssuerEntityID:  ctx.RequestIssuerEntityID,
		AssertionConsumerServiceURL: ctx.AssertionConsumerServiceURL,
		RelayState:                  relayState,
		EncryptedAssertions:         encryptedAssertions,
		Status:                      StatusSuccess,
	}
}

func (f *ResponseFactory) NoMatchResponse(ctx SessionContext, relayState string) ResponseFromHub {
	return ResponseFromHub{
		ResponseID:                  f.ids.NewID(),
		InResponseTo:                ctx.RequestID,
		AuthnRequestIssuerEntityID:  ctx.RequestIssuerEntityID,
		AssertionConsumerServiceURL: ctx.AssertionConsumerServiceURL,
		RelayState:                  relayState,
		Status:                      StatusNoMatchingServiceMatch,
	}
}

func (f *ResponseFactory) NoAuthnContextResponse(ctx SessionContext, relayState string) ResponseFromHub {
	return ResponseFromHub{
		ResponseID:                  f.ids.NewID(),
		InResponseTo:                ctx.RequestID,
		AuthnRequestIssuerEntityID:  ctx.RequestIssuerEntityID,
		AssertionConsumerServiceURL: ctx.AssertionConsumerServiceURL,
		RelayState:                  relayState,
		Status:                      StatusNoAuthenticationContext,
	}
}

func (f *ResponseFactory) AuthnFailedResponse(ctx SessionContext, relayState string) ResponseFromHub {
	return ResponseFromHub{
		ResponseID:                  f.ids.NewID(),
		InResponseTo:                ctx.RequestID,
		AuthnRequestIssuerEntityID:  ctx.RequestIssuerEntityID,
		AssertionConsumerServiceURL: ctx.AssertionConsumerServiceURL,
		RelayState:                  relayState,
		Status:                      StatusAuthenticationFailed,
	}
}

func (f *ResponseFactory) RequesterErrorResponse(ctx SessionContext, relayState string) ResponseFromHub {
	return ResponseFromHub{
		ResponseID:                  f.ids.NewID(),
		InResponseTo:                ctx.RequestID,
		AuthnRequestIssuerEntityID:  ctx.RequestIssuerEntityID,
		AssertionConsumerServiceURL: ctx.AssertionConsumerServiceURL,
		RelayState:                  relayState,
		Status:                      StatusRequesterError,
	}
}

// ResponseProcessingStatus tells the frontend what to do next while a
// matching-service exchange is in flight.
type ResponseProcessingStatus string

const (
	StatusWait                   ResponseProcessingStatus = "WAIT"
	StatusShowMatchingErrorPage  ResponseProcessingStatus = "SHOW_MATCHING_ERROR_PAGE"
	StatusGetCycle3Data          ResponseProcessingStatus = "GET_C3_DATA"
	StatusGotoHubLandingPage     ResponseProcessingStatus = "GOTO_HUB_LANDING_PAGE"
	StatusSendSuccessfulMatch    ResponseProcessingStatus = "SEND_SUCCESSFUL_MATCH_RESPONSE_TO_TRANSACTION"
	StatusSendNoMatch            ResponseProcessingStatus = "SEND_NO_MATCH_RESPONSE_TO_TRANSACTION"
	StatusSendUserAccountCreated ResponseProcessingStatus = "SEND_USER_ACCOUNT_CREATED_RESPONSE_TO_TRANSACTION"
)

// ResponseProcessingDetails is the poll answer for an in-flight session.
type ResponseProcessingDetails struct {
	SessionID           SessionID                `json:"session_id"`
	Status              ResponseProcessingStatus `json:"response_processing_status"`
	TransactionEntityID string                   `json:"transaction_entity_id"`
}

// IdpResult classifies the outcome of an identity-provider response.
type IdpResult string

const (
	IdpResultSuccess            IdpResult = "SUCCESS"
	IdpResultNonMatchingSuccess IdpResult = "SUCCESS_NON_MATCHING_JOURNEY"
	IdpResultCancel             IdpResult = "CANCEL"
	IdpResultFailedUplift       IdpResult = "FAILED_UPLIFT"
	IdpResultPending            IdpResult = "PENDING"
	IdpResultOther              IdpResult = "OTHER"
)

// ResponseAction tells the frontend where to route the user after an
// identity-provider response has been processed.
type ResponseAction struct {
	SessionID        SessionID        `json:"session_id"`
	Result           IdpResult        `json:"result"`
	IsRegistration   bool             `json:"is_registration"`
	LevelOfAssurance LevelOfAssurance `json:"loa_achieved,omitempty"`
}

func SuccessResponseAction(sessionID SessionID, registering bool, loa LevelOfAssurance) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultSuccess, IsRegistration: registering, LevelOfAssurance: loa}
}

func NonMatchingJourneySuccessAction(sessionID SessionID, registering bool, loa LevelOfAssurance) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultNonMatchingSuccess, IsRegistration: registering, LevelOfAssurance: loa}
}

func CancelResponseAction(sessionID SessionID, registering bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultCancel, IsRegistration: registering}
}

func FailedUpliftResponseAction(sessionID SessionID, registering bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultFailedUplift, IsRegistration: registering}
}

func PendingResponseAction(sessionID SessionID, registering bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultPending, IsRegistration: registering}
}

func OtherResponseAction(sessionID SessionID, registering bool) ResponseAction {
	return ResponseAction{SessionID: sessionID, Result: IdpResultOther, IsRegistration: registering}
}
