package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// cycle3MatchRequestSentController handles the response to the follow-up
// attribute query carrying the user's self-asserted data. There is no
// second cycle 3 round: a no-match either attempts account creation or
// gives up.
type cycle3MatchRequestSentController struct {
	matchRequestSentBase
	cycle3 domain.Cycle3MatchRequestSentState
}

func newCycle3MatchRequestSentController(state domain.Cycle3MatchRequestSentState, svc *Services) *cycle3MatchRequestSentController {
	return &cycle3MatchRequestSentController{
		matchRequestSentBase: newMatchRequestSentBase(state, svc),
		cycle3:               state,
	}
}

func (c *cycle3MatchRequestSentController) HandleMatchResponse(ctx context.Context, resp domain.MatchFromMatchingService) (domain.State, error) {
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

func (c *cycle3MatchRequestSentController) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventNoMatch)

	attrs, err := c.svc.Transactions.UserAccountCreationAttributes(c.match.RequestIssuerEntityID)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		next, err := c.dispatchUserAccountCreation(ctx, attrs,
			c.cycle3.EncryptedMatchingDatasetAssertion, c.cycle3.AuthnStatementAssertion, "", c.cycle3.PersistentID)
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
