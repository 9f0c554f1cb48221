package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// countrySelectedController owns the state between country selection and
// the country gateway's response.
type countrySelectedController struct {
	errorResponder
	state domain.CountrySelectedState
	svc   *Services
}

func newCountrySelectedController(state domain.CountrySelectedState, svc *Services) *countrySelectedController {
	return &countrySelectedController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *countrySelectedController) CurrentState() domain.State { return c.state }

func (c *countrySelectedController) HandleCountrySelected(ctx context.Context, countryEntityID string) (domain.CountrySelectedState, error) {
	next, err := buildCountrySelectedState(c.svc, c.state.SessionContext, c.state.RelayState, countryEntityID)
	if err != nil {
		return domain.CountrySelectedState{}, err
	}
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventCountrySelected,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		CountryEntityID:       countryEntityID,
	})
	return next, nil
}

func (c *countrySelectedController) RequestFromHub(ctx context.Context) (domain.AuthnRequestFromHub, error) {
	countries, err := c.svc.Transactions.EidasCountries(c.state.RequestIssuerEntityID)
	if err != nil {
		return domain.AuthnRequestFromHub{}, err
	}
	var ssoURL string
	for _, country := range countries {
		if country.EntityID == c.state.CountryEntityID {
			ssoURL = country.OverriddenSsoURL
			break
		}
	}
	return domain.AuthnRequestFromHub{
		RequestID:              c.state.RequestID,
		LevelsOfAssurance:      c.state.LevelsOfAssurance,
		UseExactComparisonType: true,
		RecipientEntityID:      c.state.CountryEntityID,
		SessionExpiry:          c.state.SessionExpiry,
		Registering:            true,
		OverriddenSsoURL:       ssoURL,
	}, nil
}

func (c *countrySelectedController) HandleSuccessResponseFromCountry(ctx context.Context, resp domain.SuccessFromCountry) (domain.State, domain.ResponseAction, error) {
	var none domain.ResponseAction

	if resp.Issuer != c.state.CountryEntityID {
		return nil, none, domain.WrongResponseIssuer(c.state.RequestID, resp.Issuer, c.state.CountryEntityID)
	}
	if resp.PersistentID == "" {
		return nil, none, domain.MissingMandatoryAttribute(c.state.RequestID, "persistent identifier")
	}
	if resp.EncryptedIdentityAssertion == "" {
		return nil, none, domain.MissingMandatoryAttribute(c.state.RequestID, "encrypted identity assertion")
	}
	if !levelsContain(c.state.LevelsOfAssurance, resp.LevelOfAssurance) {
		return nil, none, domain.WrongLevelOfAssurance(resp.LevelOfAssurance, c.state.LevelsOfAssurance)
	}

	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventIdpAuthnSucceeded,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		CountryEntityID:       resp.Issuer,
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
			EncryptedAssertions:      []string{resp.EncryptedIdentityAssertion},
		}
		return next, domain.NonMatchingJourneySuccessAction(c.state.SessionID, true, resp.LevelOfAssurance), nil
	}

	matchingServiceEntityID, err := c.svc.Transactions.MatchingServiceEntityID(c.state.RequestIssuerEntityID)
	if err != nil {
		return nil, none, err
	}
	matchingService, err := c.svc.MatchingServices.MatchingService(matchingServiceEntityID)
	if err != nil {
		return nil, none, err
	}

	now := c.svc.Clock.Now()
	query := domain.AttributeQueryRequest{
		RequestID:                     c.state.RequestID,
		TransactionEntityID:           c.state.RequestIssuerEntityID,
		AssertionConsumerServiceURL:   c.state.AssertionConsumerServiceURL,
		MatchingServiceEntityID:       matchingService.EntityID,
		MatchingServiceURI:            matchingService.URI,
		MatchingServiceRequestTimeout: now.Add(c.svc.MatchWaitPeriod),
		Onboarding:                    matchingService.Onboarding,
		LevelOfAssurance:              resp.LevelOfAssurance,
		PersistentID:                  resp.PersistentID,
		AssertionExpiry:               c.svc.Assertions.Expiry(),
		EncryptedIdentityAssertion:    resp.EncryptedIdentityAssertion,
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
		CountryEntityID:       resp.Issuer,
	})

	next := domain.EidasCycle01MatchRequestSentState{
		MatchRequestContext: domain.MatchRequestContext{
			SessionContext:                 c.state.SessionContext,
			IdentityProviderEntityID:       resp.Issuer,
			RelayState:                     c.state.RelayState,
			IdpLevelOfAssurance:            resp.LevelOfAssurance,
			MatchingServiceAdapterEntityID: matchingServiceEntityID,
			RequestSentTime:                now,
			Registering:                    true,
		},
		EncryptedIdentityAssertion: resp.EncryptedIdentityAssertion,
		PersistentID:               resp.PersistentID,
	}
	return next, domain.SuccessResponseAction(c.state.SessionID, true, resp.LevelOfAssurance), nil
}

func (c *countrySelectedController) HandleAuthnFailedResponseFromCountry(ctx context.Context, resp domain.AuthenticationErrorResponse) (domain.State, domain.ResponseAction, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventIdpAuthnFailed,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		CountryEntityID:       c.state.CountryEntityID,
		PrincipalIPAddress:    resp.PrincipalIPAddressAsSeenByHub,
	})
	next := domain.EidasAuthnFailedErrorState{
		SessionContext:  c.state.SessionContext,
		RelayState:      c.state.RelayState,
		CountryEntityID: c.state.CountryEntityID,
	}
	return next, domain.OtherResponseAction(c.state.SessionID, true), nil
}
