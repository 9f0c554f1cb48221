package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// eidasCycle01MatchRequestSentController mirrors the cycle 0/1 controller
// for the cross-border flow, where the country asserts one encrypted
// identity blob.
type eidasCycle01MatchRequestSentController struct {
	matchRequestSentBase
	eidas domain.EidasCycle01MatchRequestSentState
}

func newEidasCycle01MatchRequestSentController(state domain.EidasCycle01MatchRequestSentState, svc *Services) *eidasCycle01MatchRequestSentController {
	return &eidasCycle01MatchRequestSentController{
		matchRequestSentBase: newMatchRequestSentBase(state, svc),
		eidas:                state,
	}
}

func (c *eidasCycle01MatchRequestSentController) HandleMatchResponse(ctx context.Context, resp domain.MatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	if err := c.validateAssuranceSymmetry(resp.LevelOfAssurance); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventMatch)
	return domain.EidasSuccessfulMatchState{
		SessionContext:           c.match.SessionContext,
		CountryEntityID:          c.match.IdentityProviderEntityID,
		MatchingServiceAssertion: resp.MatchingServiceAssertion,
		RelayState:               c.match.RelayState,
		LevelOfAssurance:         resp.LevelOfAssurance,
	}, nil
}

func (c *eidasCycle01MatchRequestSentController) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventNoMatch)

	process, err := c.svc.Transactions.MatchingProcess(c.match.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if process.HasCycle3Attribute() {
		c.logMatchOutcome(ctx, domain.EventWaitingForCycle3Attributes)
		return domain.EidasAwaitingCycle3DataState{
			SessionContext:             c.match.SessionContext,
			CountryEntityID:            c.match.IdentityProviderEntityID,
			EncryptedIdentityAssertion: c.eidas.EncryptedIdentityAssertion,
			RelayState:                 c.match.RelayState,
			MatchingServiceEntityID:    c.match.MatchingServiceAdapterEntityID,
			PersistentID:               c.eidas.PersistentID,
			LevelOfAssurance:           c.match.IdpLevelOfAssurance,
		}, nil
	}

	attrs, err := c.svc.Transactions.UserAccountCreationAttributes(c.match.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		next, err := c.dispatchUserAccountCreation(ctx, attrs, "", "", c.eidas.EncryptedIdentityAssertion, c.eidas.PersistentID)
		if err != nil {
			return nil, err
		}
		return domain.EidasUserAccountCreationRequestSentState{MatchRequestContext: next}, nil
	}

	return domain.NoMatchState{
		SessionContext:           c.match.SessionContext,
		IdentityProviderEntityID: c.match.IdentityProviderEntityID,
		RelayState:               c.match.RelayState,
	}, nil
}

type eidasCycle3MatchRequestSentController struct {
	matchRequestSentBase
	eidas domain.EidasCycle3MatchRequestSentState
}

func newEidasCycle3MatchRequestSentController(state domain.EidasCycle3MatchRequestSentState, svc *Services) *eidasCycle3MatchRequestSentController {
	return &eidasCycle3MatchRequestSentController{
		matchRequestSentBase: newMatchRequestSentBase(state, svc),
		eidas:                state,
	}
}

func (c *eidasCycle3MatchRequestSentController) HandleMatchResponse(ctx context.Context, resp domain.MatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	if err := c.validateAssuranceSymmetry(resp.LevelOfAssurance); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventMatch)
	return domain.EidasSuccessfulMatchState{
		SessionContext:           c.match.SessionContext,
		CountryEntityID:          c.match.IdentityProviderEntityID,
		MatchingServiceAssertion: resp.MatchingServiceAssertion,
		RelayState:               c.match.RelayState,
		LevelOfAssurance:         resp.LevelOfAssurance,
	}, nil
}

func (c *eidasCycle3MatchRequestSentController) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventNoMatch)

	attrs, err := c.svc.Transactions.UserAccountCreationAttributes(c.match.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		next, err := c.dispatchUserAccountCreation(ctx, attrs, "", "", c.eidas.EncryptedIdentityAssertion, c.eidas.PersistentID)
		if err != nil {
			return nil, err
		}
		return domain.EidasUserAccountCreationRequestSentState{MatchRequestContext: next}, nil
	}

	return domain.NoMatchState{
		SessionContext:           c.match.SessionContext,
		IdentityProviderEntityID: c.match.IdentityProviderEntityID,
		RelayState:               c.match.RelayState,
	}, nil
}
