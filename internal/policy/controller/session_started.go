package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// sessionStartedController handles the initial state: the user may pick an
// identity provider or an eIDAS country, and the session can still render an
// error response if the journey is abandoned here.
type sessionStartedController struct {
	errorResponder
	state domain.SessionStartedState
	svc   *Services
}

func newSessionStartedController(state domain.SessionStartedState, svc *Services) *sessionStartedController {
	return &sessionStartedController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *sessionStartedController) CurrentState() domain.State { return c.state }

func (c *sessionStartedController) HandleIdpSelected(ctx context.Context, idpEntityID, principalIP string, registering bool, requestedLoa domain.LevelOfAssurance) (domain.IdpSelectedState, error) {
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

func (c *sessionStartedController) SignInProcessDetails() domain.AuthnRequestSignInProcess {
	return domain.AuthnRequestSignInProcess{
		RequestIssuerEntityID:    c.state.RequestIssuerEntityID,
		TransactionSupportsEidas: c.state.TransactionSupportsEidas,
	}
}

func (c *sessionStartedController) HandleCountrySelected(ctx context.Context, countryEntityID string) (domain.CountrySelectedState, error) {
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

// buildCountrySelectedState validates a country selection against the
// relying party's enabled countries.
func buildCountrySelectedState(svc *Services, sessionCtx domain.SessionContext, relayState, countryEntityID string) (domain.CountrySelectedState, error) {
	var zero domain.CountrySelectedState

	if !sessionCtx.TransactionSupportsEidas {
		return zero, domain.CountryNotEnabled(countryEntityID)
	}
	countries, err := svc.Transactions.EidasCountries(sessionCtx.RequestIssuerEntityID)
	if err != nil {
		return zero, err
	}
	found := false
	for _, country := range countries {
		if country.EntityID == countryEntityID {
			found = true
			break
		}
	}
	if !found {
		return zero, domain.CountryNotEnabled(countryEntityID)
	}

	levels, err := svc.Transactions.LevelsOfAssurance(sessionCtx.RequestIssuerEntityID)
	if err != nil {
		return zero, err
	}

	return domain.CountrySelectedState{
		SessionContext:    sessionCtx,
		CountryEntityID:   countryEntityID,
		RelayState:        relayState,
		LevelsOfAssurance: levels,
	}, nil
}
