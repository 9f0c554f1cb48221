package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// idpSelectedController owns the state between provider selection and the
// provider's response. It can replay the selection (the user going back),
// produce the outbound authentication request, and accept each translated
// response shape from the provider.
type idpSelectedController struct {
	errorResponder
	state domain.IdpSelectedState
	svc   *Services
}

func newIdpSelectedController(state domain.IdpSelectedState, svc *Services) *idpSelectedController {
	return &idpSelectedController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *idpSelectedController) CurrentState() domain.State { return c.state }

func (c *idpSelectedController) HandleIdpSelected(ctx context.Context, idpEntityID, principalIP string, registering bool, requestedLoa domain.LevelOfAssurance) (domain.IdpSelectedState, error) {
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

func (c *idpSelectedController) SignInProcessDetails() domain.AuthnRequestSignInProcess {
	return domain.AuthnRequestSignInProcess{
		AvailableIdentityProviders: c.state.AvailableIdentityProviders,
		RequestIssuerEntityID:      c.state.RequestIssuerEntityID,
		TransactionSupportsEidas:   c.state.TransactionSupportsEidas,
	}
}

func (c *idpSelectedController) RequestFromHub(ctx context.Context) (domain.AuthnRequestFromHub, error) {
	return domain.AuthnRequestFromHub{
		RequestID:              c.state.RequestID,
		LevelsOfAssurance:      c.state.LevelsOfAssurance,
		UseExactComparisonType: c.state.UseExactComparisonType,
		RecipientEntityID:      c.state.IdpEntityID,
		ForceAuthentication:    c.state.ForceAuthentication,
		SessionExpiry:          c.state.SessionExpiry,
		Registering:            c.state.Registering,
	}, nil
}

func (c *idpSelectedController) HandleSuccessResponse(ctx context.Context, resp domain.SuccessFromIdp) (domain.State, domain.ResponseAction, error) {
	var none domain.ResponseAction

	if err := c.validateSuccessResponse(resp); err != nil {
		return nil, none, err
	}

	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventIdpAuthnSucceeded,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           resp.Issuer,
		LevelOfAssurance:      resp.LevelOfAssurance,
		PrincipalIPAddress:    resp.PrincipalIPAddressAsSeenByHub,
	})

	usesMatching, err := c.svc.Transactions.UsesMatching(c.state.RequestIssuerEntityID)
	if err != nil {
		return nil, none, err
	}
	if !usesMatching {
		next := domain.NonMatchingJourneySuccessState{
			SessionContext:           c.state.SessionContext,
			IdentityProviderEntityID: resp.Issuer,
			RelayState:               c.state.RelayState,
			LevelOfAssurance:         resp.LevelOfAssurance,
			EncryptedAssertions:      []string{resp.EncryptedMatchingDatasetAssertion, resp.EncryptedAuthnAssertion},
		}
		return next, domain.NonMatchingJourneySuccessAction(c.state.SessionID, c.state.Registering, resp.LevelOfAssurance), nil
	}

	matchingService, err := c.svc.MatchingServices.MatchingService(c.state.MatchingServiceEntityID)
	if err != nil {
		return nil, none, err
	}

	now := c.svc.Clock.Now()
	query := domain.AttributeQueryRequest{
		RequestID:                         c.state.RequestID,
		TransactionEntityID:               c.state.RequestIssuerEntityID,
		AssertionConsumerServiceURL:       c.state.AssertionConsumerServiceURL,
		MatchingServiceEntityID:           matchingService.EntityID,
		MatchingServiceURI:                matchingService.URI,
		MatchingServiceRequestTimeout:     now.Add(c.svc.MatchWaitPeriod),
		Onboarding:                        matchingService.Onboarding,
		LevelOfAssurance:                  resp.LevelOfAssurance,
		PersistentID:                      resp.PersistentID,
		AssertionExpiry:                   c.svc.Assertions.Expiry(),
		EncryptedMatchingDatasetAssertion: resp.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           resp.EncryptedAuthnAssertion,
	}
	if err := c.svc.Dispatcher.Send(ctx, c.state.SessionID, query); err != nil {
		return nil, none, err
	}

	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventMatchRequestSent,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           resp.Issuer,
	})

	next := domain.Cycle01MatchRequestSentState{
		MatchRequestContext: domain.MatchRequestContext{
			SessionContext:                 c.state.SessionContext,
			IdentityProviderEntityID:       resp.Issuer,
			RelayState:                     c.state.RelayState,
			IdpLevelOfAssurance:            resp.LevelOfAssurance,
			MatchingServiceAdapterEntityID: c.state.MatchingServiceEntityID,
			RequestSentTime:                now,
			Registering:                    c.state.Registering,
		},
		EncryptedMatchingDatasetAssertion: resp.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           resp.EncryptedAuthnAssertion,
		PersistentID:                      resp.PersistentID,
	}
	return next, domain.SuccessResponseAction(c.state.SessionID, c.state.Registering, resp.LevelOfAssurance), nil
}

func (c *idpSelectedController) validateSuccessResponse(resp domain.SuccessFromIdp) error {
	enabled, err := c.svc.IdentityProviders.EnabledForAuthnRequest(c.state.RequestIssuerEntityID, c.state.Registering, c.state.RequestedLoa)
	if err != nil {
		return err
	}
	if !stringsContain(enabled, c.state.IdpEntityID) {
		return domain.IdpDisabledError{IdpEntityID: c.state.IdpEntityID}
	}
	if resp.Issuer != c.state.IdpEntityID {
		return domain.WrongResponseIssuer(c.state.RequestID, resp.Issuer, c.state.IdpEntityID)
	}
	if !levelsContain(c.state.LevelsOfAssurance, resp.LevelOfAssurance) {
		return domain.WrongLevelOfAssurance(resp.LevelOfAssurance, c.state.LevelsOfAssurance)
	}
	idp, err := c.svc.IdentityProviders.Idp(c.state.IdpEntityID)
	if err != nil {
		return err
	}
	if !levelsContain(idp.SupportedLevelsOfAssurance, resp.LevelOfAssurance) {
		return domain.IdpReturnedUnsupportedAssurance(resp.LevelOfAssurance, c.state.RequestID, c.state.IdpEntityID)
	}
	return nil
}

// HandleNoAuthnContextResponse routes a cancelled sign-in: a registration
// becomes a terminal failure, a returning sign-in goes back to provider
// selection.
func (c *idpSelectedController) HandleNoAuthnContextResponse(ctx context.Context, resp domain.AuthenticationErrorResponse) (domain.State, domain.ResponseAction, error) {
	c.logIdpEvent(ctx, domain.EventIdpNoAuthnContext, resp.PrincipalIPAddressAsSeenByHub)
	if c.state.Registering {
		return c.authnFailedErrorState(), domain.CancelResponseAction(c.state.SessionID, true), nil
	}
	next := domain.SessionStartedState{
		SessionContext:      c.state.SessionContext,
		RelayState:          c.state.RelayState,
		ForceAuthentication: c.state.ForceAuthentication,
	}
	return next, domain.CancelResponseAction(c.state.SessionID, false), nil
}

func (c *idpSelectedController) HandleAuthenticationFailedResponse(ctx context.Context, resp domain.AuthenticationErrorResponse) (domain.State, domain.ResponseAction, error) {
	c.logIdpEvent(ctx, domain.EventIdpAuthnFailed, resp.PrincipalIPAddressAsSeenByHub)
	return c.authnFailedErrorState(), domain.OtherResponseAction(c.state.SessionID, c.state.Registering), nil
}

func (c *idpSelectedController) HandleRequesterErrorResponse(ctx context.Context, resp domain.RequesterErrorResponse) (domain.State, domain.ResponseAction, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventIdpRequesterError,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdpEntityID,
		PrincipalIPAddress:    resp.PrincipalIPAddressAsSeenByHub,
		ErrorMessage:          resp.ErrorMessage,
	})
	next := domain.RequesterErrorState{
		SessionContext:      c.state.SessionContext,
		RelayState:          c.state.RelayState,
		ForceAuthentication: c.state.ForceAuthentication,
	}
	return next, domain.OtherResponseAction(c.state.SessionID, c.state.Registering), nil
}

func (c *idpSelectedController) HandleFraudResponse(ctx context.Context, resp domain.FraudFromIdp) (domain.State, domain.ResponseAction, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventIdpFraudDetected,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdpEntityID,
		PrincipalIPAddress:    resp.PrincipalIPAddressAsSeenByHub,
		FraudEventID:          resp.Details.EventID,
		FraudIndicator:        resp.Details.Indicator,
	})
	next := domain.FraudEventDetectedState{
		SessionContext:      c.state.SessionContext,
		RelayState:          c.state.RelayState,
		IdpEntityID:         c.state.IdpEntityID,
		ForceAuthentication: c.state.ForceAuthentication,
	}
	return next, domain.OtherResponseAction(c.state.SessionID, c.state.Registering), nil
}

func (c *idpSelectedController) authnFailedErrorState() domain.AuthnFailedErrorState {
	return domain.AuthnFailedErrorState{
		SessionContext:      c.state.SessionContext,
		RelayState:          c.state.RelayState,
		IdpEntityID:         c.state.IdpEntityID,
		ForceAuthentication: c.state.ForceAuthentication,
	}
}

func (c *idpSelectedController) logIdpEvent(ctx context.Context, eventType domain.HubEventType, principalIP string) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  eventType,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdpEntityID,
		PrincipalIPAddress:    principalIP,
	})
}
