package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

func preparedDetails(sessionCtx domain.SessionContext, status domain.ResponseProcessingStatus) domain.ResponseProcessingDetails {
	return domain.ResponseProcessingDetails{
		SessionID:           sessionCtx.SessionID,
		Status:              status,
		TransactionEntityID: sessionCtx.RequestIssuerEntityID,
	}
}

// successfulMatchController renders the final success response. The
// provider is re-checked at render time: one disabled mid-session must not
// complete a journey.
type successfulMatchController struct {
	errorResponder
	state domain.SuccessfulMatchState
	svc   *Services
}

func newSuccessfulMatchController(state domain.SuccessfulMatchState, svc *Services) *successfulMatchController {
	return &successfulMatchController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *successfulMatchController) CurrentState() domain.State { return c.state }

func (c *successfulMatchController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusSendSuccessfulMatch), nil
}

func (c *successfulMatchController) PreparedResponse(ctx context.Context) (domain.ResponseFromHub, error) {
	enabled, err := c.svc.IdentityProviders.EnabledForAuthnRequest(c.state.RequestIssuerEntityID, c.state.Registering, c.state.LevelOfAssurance)
	if err != nil {
		return domain.ResponseFromHub{}, err
	}
	if !stringsContain(enabled, c.state.IdentityProviderEntityID) {
		return domain.ResponseFromHub{}, domain.IdpDisabledError{IdpEntityID: c.state.IdentityProviderEntityID}
	}
	resp := c.svc.Responses.SuccessResponse(c.state.SessionContext, c.state.RelayState, c.state.MatchingServiceAssertion)
	c.logResponseSent(ctx)
	return resp, nil
}

func (c *successfulMatchController) logResponseSent(ctx context.Context) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventResponseToTransaction,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdentityProviderEntityID,
		LevelOfAssurance:      c.state.LevelOfAssurance,
	})
}

type eidasSuccessfulMatchController struct {
	errorResponder
	state domain.EidasSuccessfulMatchState
	svc   *Services
}

func newEidasSuccessfulMatchController(state domain.EidasSuccessfulMatchState, svc *Services) *eidasSuccessfulMatchController {
	return &eidasSuccessfulMatchController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *eidasSuccessfulMatchController) CurrentState() domain.State { return c.state }

func (c *eidasSuccessfulMatchController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusSendSuccessfulMatch), nil
}

func (c *eidasSuccessfulMatchController) PreparedResponse(ctx context.Context) (domain.ResponseFromHub, error) {
	countries, err := c.svc.Transactions.EidasCountries(c.state.RequestIssuerEntityID)
	if err != nil {
		return domain.ResponseFromHub{}, err
	}
	found := false
	for _, country := range countries {
		if country.EntityID == c.state.CountryEntityID {
			found = true
			break
		}
	}
	if !found {
		return domain.ResponseFromHub{}, domain.CountryNotEnabled(c.state.CountryEntityID)
	}
	resp := c.svc.Responses.SuccessResponse(c.state.SessionContext, c.state.RelayState, c.state.MatchingServiceAssertion)
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventResponseToTransaction,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		CountryEntityID:       c.state.CountryEntityID,
		LevelOfAssurance:      c.state.LevelOfAssurance,
	})
	return resp, nil
}

type noMatchController struct {
	errorResponder
	state domain.NoMatchState
	svc   *Services
}

func newNoMatchController(state domain.NoMatchState, svc *Services) *noMatchController {
	return &noMatchController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *noMatchController) CurrentState() domain.State { return c.state }

func (c *noMatchController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusSendNoMatch), nil
}

func (c *noMatchController) PreparedResponse(ctx context.Context) (domain.ResponseFromHub, error) {
	resp := c.svc.Responses.NoMatchResponse(c.state.SessionContext, c.state.RelayState)
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventResponseToTransaction,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdentityProviderEntityID,
	})
	return resp, nil
}

type userAccountCreatedController struct {
	errorResponder
	state domain.UserAccountCreatedState
	svc   *Services
}

func newUserAccountCreatedController(state domain.UserAccountCreatedState, svc *Services) *userAccountCreatedController {
	return &userAccountCreatedController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *userAccountCreatedController) CurrentState() domain.State { return c.state }

func (c *userAccountCreatedController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusSendUserAccountCreated), nil
}

func (c *userAccountCreatedController) PreparedResponse(ctx context.Context) (domain.ResponseFromHub, error) {
	enabled, err := c.svc.IdentityProviders.EnabledForAuthnRequest(c.state.RequestIssuerEntityID, c.state.Registering, c.state.LevelOfAssurance)
	if err != nil {
		return domain.ResponseFromHub{}, err
	}
	if !stringsContain(enabled, c.state.IdentityProviderEntityID) {
		return domain.ResponseFromHub{}, domain.IdpDisabledError{IdpEntityID: c.state.IdentityProviderEntityID}
	}
	resp := c.svc.Responses.SuccessResponse(c.state.SessionContext, c.state.RelayState, c.state.MatchingServiceAssertion)
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventResponseToTransaction,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdentityProviderEntityID,
		LevelOfAssurance:      c.state.LevelOfAssurance,
	})
	return resp, nil
}

// nonMatchingJourneySuccessController hands the provider's assertions back
// to the relying party untouched.
type nonMatchingJourneySuccessController struct {
	errorResponder
	state domain.NonMatchingJourneySuccessState
	svc   *Services
}

func newNonMatchingJourneySuccessController(state domain.NonMatchingJourneySuccessState, svc *Services) *nonMatchingJourneySuccessController {
	return &nonMatchingJourneySuccessController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *nonMatchingJourneySuccessController) CurrentState() domain.State { return c.state }

func (c *nonMatchingJourneySuccessController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusSendSuccessfulMatch), nil
}

func (c *nonMatchingJourneySuccessController) PreparedResponse(ctx context.Context) (domain.ResponseFromHub, error) {
	resp := c.svc.Responses.NonMatchingSuccessResponse(c.state.SessionContext, c.state.RelayState, c.state.EncryptedAssertions)
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventResponseToTransaction,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdentityProviderEntityID,
		LevelOfAssurance:      c.state.LevelOfAssurance,
	})
	return resp, nil
}
