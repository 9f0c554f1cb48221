package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// authnFailedErrorController renders the authentication-failed response.
// The user may instead go back and try another provider, which restarts the
// journey from the session-started state.
type authnFailedErrorController struct {
	errorResponder
	state domain.AuthnFailedErrorState
	svc   *Services
}

func newAuthnFailedErrorController(state domain.AuthnFailedErrorState, svc *Services) *authnFailedErrorController {
	return &authnFailedErrorController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errAuthnFailed},
		state:          state,
		svc:            svc,
	}
}

func (c *authnFailedErrorController) CurrentState() domain.State { return c.state }

func (c *authnFailedErrorController) TryAnotherIdp(ctx context.Context) (domain.SessionStartedState, error) {
	return domain.SessionStartedState{
		SessionContext:      c.state.SessionContext,
		RelayState:          c.state.RelayState,
		ForceAuthentication: c.state.ForceAuthentication,
	}, nil
}

func (c *authnFailedErrorController) HandleIdpSelected(ctx context.Context, idpEntityID, principalIP string, registering bool, requestedLoa domain.LevelOfAssurance) (domain.IdpSelectedState, error) {
	next, err := buildIdpSelectedState(c.svc, c.state.SessionContext, c.state.RelayState, c.state.ForceAuthentication, idpEntityID, registering, requestedLoa)
	if err != nil {
		return domain.IdpSelectedState{}, err
	}
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventIdpSelected,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           idpEntityID,
		LevelOfAssurance:      requestedLoa,
		PrincipalIPAddress:    principalIP,
	})
	return next, nil
}

func (c *authnFailedErrorController) SignInProcessDetails() domain.AuthnRequestSignInProcess {
	return domain.AuthnRequestSignInProcess{
		RequestIssuerEntityID:    c.state.RequestIssuerEntityID,
		TransactionSupportsEidas: c.state.TransactionSupportsEidas,
	}
}

type eidasAuthnFailedErrorController struct {
	errorResponder
	state domain.EidasAuthnFailedErrorState
}

func newEidasAuthnFailedErrorController(state domain.EidasAuthnFailedErrorState, svc *Services) *eidasAuthnFailedErrorController {
	return &eidasAuthnFailedErrorController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errAuthnFailed},
		state:          state,
	}
}

func (c *eidasAuthnFailedErrorController) CurrentState() domain.State { return c.state }

type requesterErrorController struct {
	errorResponder
	state domain.RequesterErrorState
}

func newRequesterErrorController(state domain.RequesterErrorState, svc *Services) *requesterErrorController {
	return &requesterErrorController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errRequester},
		state:          state,
	}
}

func (c *requesterErrorController) CurrentState() domain.State { return c.state }

// fraudEventDetectedController renders an authentication-failed response;
// the fraud indicators stay in the audit trail and never reach the relying
// party.
type fraudEventDetectedController struct {
	errorResponder
	state domain.FraudEventDetectedState
}

func newFraudEventDetectedController(state domain.FraudEventDetectedState, svc *Services) *fraudEventDetectedController {
	return &fraudEventDetectedController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errAuthnFailed},
		state:          state,
	}
}

func (c *fraudEventDetectedController) CurrentState() domain.State { return c.state }

type matchingServiceRequestErrorController struct {
	errorResponder
	state domain.MatchingServiceRequestErrorState
}

func newMatchingServiceRequestErrorController(state domain.MatchingServiceRequestErrorState, svc *Services) *matchingServiceRequestErrorController {
	return &matchingServiceRequestErrorController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
	}
}

func (c *matchingServiceRequestErrorController) CurrentState() domain.State { return c.state }

func (c *matchingServiceRequestErrorController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusShowMatchingErrorPage), nil
}

type userAccountCreationFailedController struct {
	errorResponder
	state domain.UserAccountCreationFailedState
}

func newUserAccountCreationFailedController(state domain.UserAccountCreationFailedState, svc *Services) *userAccountCreationFailedController {
	return &userAccountCreationFailedController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
	}
}

func (c *userAccountCreationFailedController) CurrentState() domain.State { return c.state }

func (c *userAccountCreationFailedController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusGotoHubLandingPage), nil
}

type cycle3DataInputCancelledController struct {
	errorResponder
	state domain.Cycle3DataInputCancelledState
}

func newCycle3DataInputCancelledController(state domain.Cycle3DataInputCancelledState, svc *Services) *cycle3DataInputCancelledController {
	return &cycle3DataInputCancelledController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
	}
}

func (c *cycle3DataInputCancelledController) CurrentState() domain.State { return c.state }

func (c *cycle3DataInputCancelledController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusGotoHubLandingPage), nil
}

type timeoutController struct {
	errorResponder
	state domain.TimeoutState
}

func newTimeoutController(state domain.TimeoutState, svc *Services) *timeoutController {
	return &timeoutController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, kind: errNoAuthnContext},
		state:          state,
	}
}

func (c *timeoutController) CurrentState() domain.State { return c.state }
