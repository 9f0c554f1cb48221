package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// cycle01MatchRequestSentController handles the response to the initial
// attribute query. A no-match answer branches three ways: collect a
// self-asserted attribute, attempt account creation, or give up.
type cycle01MatchRequestSentController struct {
	matchRequestSentBase
	cycle01 domain.Cycle01MatchRequestSentState
}

func newCycle01MatchRequestSentController(state domain.Cycle01MatchRequestSentState, svc *Services) *cycle01MatchRequestSentController {
	return &cycle01MatchRequestSentController{
		matchRequestSentBase: newMatchRequestSentBase(state, svc),
		cycle01:              state,
	}
}

func (c *cycle01MatchRequestSentController) HandleMatchResponse(ctx context.Context, resp domain.MatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	if err := c.validateAssuranceSymmetry(resp.LevelOfAssurance); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventMatch)
	return domain.SuccessfulMatchState{
		SessionContext:           c.match.SessionContext,
		IdentityProviderEntityID: c.match.IdentityProviderEntityID,
		MatchingServiceAssertion: resp.MatchingServiceAssertion,
		RelayState:               c.match.RelayState,
		LevelOfAssurance:         resp.LevelOfAssurance,
		Registering:              c.match.Registering,
	}, nil
}

func (c *cycle01MatchRequestSentController) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
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
		return domain.AwaitingCycle3DataState{
			SessionContext:                    c.match.SessionContext,
			IdentityProviderEntityID:          c.match.IdentityProviderEntityID,
			EncryptedMatchingDatasetAssertion: c.cycle01.EncryptedMatchingDatasetAssertion,
			AuthnStatementAssertion:           c.cycle01.AuthnStatementAssertion,
			RelayState:                        c.match.RelayState,
			MatchingServiceEntityID:           c.match.MatchingServiceAdapterEntityID,
			PersistentID:                      c.cycle01.PersistentID,
			LevelOfAssurance:                  c.match.IdpLevelOfAssurance,
			Registering:                       c.match.Registering,
		}, nil
	}

	attrs, err := c.svc.Transactions.UserAccountCreationAttributes(c.match.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		next, err := c.dispatchUserAccountCreation(ctx, attrs,
			c.cycle01.EncryptedMatchingDatasetAssertion, c.cycle01.AuthnStatementAssertion, "", c.cycle01.PersistentID)
		if err != nil {
			return nil, err
		}
		return domain.UserAccountCreationRequestSentState{MatchRequestContext: next}, nil
	}

	return domain.NoMatchState{
		SessionContext:           c.match.SessionContext,
		IdentityProviderEntityID: c.match.IdentityProviderEntityID,
		RelayState:               c.match.RelayState,
	}, nil
}
