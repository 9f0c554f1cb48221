package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// userAccountCreationRequestSentController waits for the matching service's
// answer to an account-creation request. A no-match answer here means the
// creation failed.
type userAccountCreationRequestSentController struct {
	matchRequestSentBase
}

func newUserAccountCreationRequestSentController(state domain.UserAccountCreationRequestSentState, svc *Services) *userAccountCreationRequestSentController {
	return &userAccountCreationRequestSentController{
		matchRequestSentBase: newMatchRequestSentBase(state, svc),
	}
}

func (c *userAccountCreationRequestSentController) HandleUserAccountCreatedResponse(ctx context.Context, resp domain.UserAccountCreatedFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	if err := c.validateAssuranceSymmetry(resp.LevelOfAssurance); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventUserAccountCreated)
	return domain.UserAccountCreatedState{
		SessionContext:           c.match.SessionContext,
		IdentityProviderEntityID: c.match.IdentityProviderEntityID,
		MatchingServiceAssertion: resp.MatchingServiceAssertion,
		RelayState:               c.match.RelayState,
		LevelOfAssurance:         resp.LevelOfAssurance,
		Registering:              c.match.Registering,
	}, nil
}

func (c *userAccountCreationRequestSentController) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventUserAccountCreationFailed)
	return domain.UserAccountCreationFailedState{
		SessionContext: c.match.SessionContext,
		RelayState:     c.match.RelayState,
	}, nil
}

type eidasUserAccountCreationRequestSentController struct {
	matchRequestSentBase
}

func newEidasUserAccountCreationRequestSentController(state domain.EidasUserAccountCreationRequestSentState, svc *Services) *eidasUserAccountCreationRequestSentController {
	return &eidasUserAccountCreationRequestSentController{
		matchRequestSentBase: newMatchRequestSentBase(state, svc),
	}
}

func (c *eidasUserAccountCreationRequestSentController) HandleUserAccountCreatedResponse(ctx context.Context, resp domain.UserAccountCreatedFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	if err := c.validateAssuranceSymmetry(resp.LevelOfAssurance); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventUserAccountCreated)
	return domain.UserAccountCreatedState{
		SessionContext:           c.match.SessionContext,
		IdentityProviderEntityID: c.match.IdentityProviderEntityID,
		MatchingServiceAssertion: resp.MatchingServiceAssertion,
		RelayState:               c.match.RelayState,
		LevelOfAssurance:         resp.LevelOfAssurance,
		Registering:              c.match.Registering,
	}, nil
}

func (c *eidasUserAccountCreationRequestSentController) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
	if err := c.validateResponse(resp); err != nil {
		return nil, err
	}
	c.logMatchOutcome(ctx, domain.EventUserAccountCreationFailed)
	return domain.UserAccountCreationFailedState{
		SessionContext: c.match.SessionContext,
		RelayState:     c.match.RelayState,
	}, nil
}
