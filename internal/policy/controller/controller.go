// Package controller holds the per-state behaviour of the policy session
// machine. A controller wraps one state value and exposes only the
// operations legal in that state; operations are pure with respect to the
// session store and return the next state as a value, which the session
// layer persists.
package controller

import (
	"context"
	"time"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// Controller is the common surface of every state controller. Callers
// assert the capability interfaces below to reach state-specific
// operations.
type Controller interface {
	CurrentState() domain.State
}

// IdpSelecting is implemented by controllers whose state allows choosing a
// domestic identity provider.
type IdpSelecting interface {
	Controller
	HandleIdpSelected(ctx context.Context, idpEntityID, principalIP string, registering bool, requestedLoa domain.LevelOfAssurance) (domain.IdpSelectedState, error)
	SignInProcessDetails() domain.AuthnRequestSignInProcess
}

// CountrySelecting is implemented by controllers whose state allows choosing
// an eIDAS country.
type CountrySelecting interface {
	Controller
	HandleCountrySelected(ctx context.Context, countryEntityID string) (domain.CountrySelectedState, error)
}

// AuthnRequestCapable is implemented by controllers able to produce the
// outbound authentication request towards the selected provider or country.
type AuthnRequestCapable interface {
	Controller
	RequestFromHub(ctx context.Context) (domain.AuthnRequestFromHub, error)
}

// IdpResponseProcessing is implemented by the controller that accepts
// translated identity-provider responses. Every handler returns the next
// state and the routing action for the frontend.
type IdpResponseProcessing interface {
	Controller
	HandleSuccessResponse(ctx context.Context, resp domain.SuccessFromIdp) (domain.State, domain.ResponseAction, error)
	HandleNoAuthnContextResponse(ctx context.Context, resp domain.AuthenticationErrorResponse) (domain.State, domain.ResponseAction, error)
	HandleAuthenticationFailedResponse(ctx context.Context, resp domain.AuthenticationErrorResponse) (domain.State, domain.ResponseAction, error)
	HandleRequesterErrorResponse(ctx context.Context, resp domain.RequesterErrorResponse) (domain.State, domain.ResponseAction, error)
	HandleFraudResponse(ctx context.Context, resp domain.FraudFromIdp) (domain.State, domain.ResponseAction, error)
}

// CountryResponseProcessing is implemented by the controller that accepts
// translated eIDAS country responses.
type CountryResponseProcessing interface {
	Controller
	HandleSuccessResponseFromCountry(ctx context.Context, resp domain.SuccessFromCountry) (domain.State, domain.ResponseAction, error)
	HandleAuthnFailedResponseFromCountry(ctx context.Context, resp domain.AuthenticationErrorResponse) (domain.State, domain.ResponseAction, error)
}

// WaitingForMatchResponse is implemented by the match-request-sent family.
type WaitingForMatchResponse interface {
	ResponseProcessing
	HandleMatchResponse(ctx context.Context, resp domain.MatchFromMatchingService) (domain.State, error)
	HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error)
	HandleUserAccountCreatedResponse(ctx context.Context, resp domain.UserAccountCreatedFromMatchingService) (domain.State, error)
	HandleRequestFailure(ctx context.Context) (domain.State, error)
}

// ResponseProcessing answers the frontend's poll for an in-flight session.
// The returned state is non-nil when the poll itself causes a transition
// (the per-request matching-service timeout).
type ResponseProcessing interface {
	Controller
	ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error)
}

// Cycle3DataInput is implemented by the awaiting-cycle-3-data family.
type Cycle3DataInput interface {
	Controller
	Cycle3AttributeRequestData(ctx context.Context) (domain.Cycle3AttributeRequestData, error)
	HandleCycle3DataSubmitted(ctx context.Context, data domain.Cycle3Dataset, principalIP string) (domain.State, error)
	HandleCycle3DataCancelled(ctx context.Context) (domain.State, error)
}

// ResponsePrepared is implemented by outcome states able to render the final
// success or no-match response to the relying party.
type ResponsePrepared interface {
	Controller
	PreparedResponse(ctx context.Context) (domain.ResponseFromHub, error)
}

// ErrorResponsePrepared is implemented by every state able to render an
// error response to the relying party.
type ErrorResponsePrepared interface {
	Controller
	ErrorResponse(ctx context.Context) (domain.ResponseFromHub, error)
}

// JourneyRestarting is implemented by error states from which the user may
// go back and try another identity provider.
type JourneyRestarting interface {
	Controller
	TryAnotherIdp(ctx context.Context) (domain.SessionStartedState, error)
}

// Services bundles the collaborators every controller may need. One value
// is built at startup and shared; all fields are required unless noted.
type Services struct {
	Transactions      domain.TransactionConfig
	IdentityProviders domain.IdentityProviderConfig
	MatchingServices  domain.MatchingServiceConfig
	Dispatcher        domain.AttributeQueryDispatcher
	Events            domain.EventLogger
	Clock             domain.Clock
	IDs               domain.IDGenerator
	Responses         *domain.ResponseFactory
	Assertions        *domain.AssertionRestrictions

	// MatchWaitPeriod bounds how long the frontend is told to keep polling
	// after a matching-service request was dispatched.
	MatchWaitPeriod time.Duration
}
