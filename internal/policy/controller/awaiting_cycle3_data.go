package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// awaitingCycle3DataController waits for the user to supply the relying
// party's self-asserted attribute, then dispatches the cycle 3 attribute
// query.
type awaitingCycle3DataController struct {
	errorResponder
	state domain.AwaitingCycle3DataState
	svc   *Services
}

func newAwaitingCycle3DataController(state domain.AwaitingCycle3DataState, svc *Services) *awaitingCycle3DataController {
	return &awaitingCycle3DataController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *awaitingCycle3DataController) CurrentState() domain.State { return c.state }

func (c *awaitingCycle3DataController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusGetCycle3Data), nil
}

func (c *awaitingCycle3DataController) Cycle3AttributeRequestData(ctx context.Context) (domain.Cycle3AttributeRequestData, error) {
	return cycle3AttributeRequestData(c.svc, c.state.RequestIssuerEntityID)
}

func (c *awaitingCycle3DataController) HandleCycle3DataSubmitted(ctx context.Context, data domain.Cycle3Dataset, principalIP string) (domain.State, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventCycle3DataObtained,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdentityProviderEntityID,
		PrincipalIPAddress:    principalIP,
	})

	matchingService, err := c.svc.MatchingServices.MatchingService(c.state.MatchingServiceEntityID)
	if err != nil {
		return nil, err
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
		LevelOfAssurance:                  c.state.LevelOfAssurance,
		PersistentID:                      c.state.PersistentID,
		AssertionExpiry:                   c.svc.Assertions.Expiry(),
		EncryptedMatchingDatasetAssertion: c.state.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           c.state.AuthnStatementAssertion,
		Cycle3Dataset:                     &data,
	}
	if err := c.svc.Dispatcher.Send(ctx, c.state.SessionID, query); err != nil {
		return nil, err
	}

	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventMatchRequestSent,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		IdpEntityID:           c.state.IdentityProviderEntityID,
	})

	return domain.Cycle3MatchRequestSentState{
		MatchRequestContext: domain.MatchRequestContext{
			SessionContext:                 c.state.SessionContext,
			IdentityProviderEntityID:       c.state.IdentityProviderEntityID,
			RelayState:                     c.state.RelayState,
			IdpLevelOfAssurance:            c.state.LevelOfAssurance,
			MatchingServiceAdapterEntityID: c.state.MatchingServiceEntityID,
			RequestSentTime:                now,
			Registering:                    c.state.Registering,
		},
		EncryptedMatchingDatasetAssertion: c.state.EncryptedMatchingDatasetAssertion,
		AuthnStatementAssertion:           c.state.AuthnStatementAssertion,
		PersistentID:                      c.state.PersistentID,
	}, nil
}

func (c *awaitingCycle3DataController) HandleCycle3DataCancelled(ctx context.Context) (domain.State, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventCycle3Cancelled,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
	})
	return domain.Cycle3DataInputCancelledState{
		SessionContext: c.state.SessionContext,
		RelayState:     c.state.RelayState,
	}, nil
}

type eidasAwaitingCycle3DataController struct {
	errorResponder
	state domain.EidasAwaitingCycle3DataState
	svc   *Services
}

func newEidasAwaitingCycle3DataController(state domain.EidasAwaitingCycle3DataState, svc *Services) *eidasAwaitingCycle3DataController {
	return &eidasAwaitingCycle3DataController{
		errorResponder: errorResponder{svc: svc, sessionCtx: state.SessionContext, relayState: state.RelayState, kind: errNoAuthnContext},
		state:          state,
		svc:            svc,
	}
}

func (c *eidasAwaitingCycle3DataController) CurrentState() domain.State { return c.state }

func (c *eidasAwaitingCycle3DataController) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	return nil, preparedDetails(c.state.SessionContext, domain.StatusGetCycle3Data), nil
}

func (c *eidasAwaitingCycle3DataController) Cycle3AttributeRequestData(ctx context.Context) (domain.Cycle3AttributeRequestData, error) {
	return cycle3AttributeRequestData(c.svc, c.state.RequestIssuerEntityID)
}

func (c *eidasAwaitingCycle3DataController) HandleCycle3DataSubmitted(ctx context.Context, data domain.Cycle3Dataset, principalIP string) (domain.State, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventCycle3DataObtained,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		CountryEntityID:       c.state.CountryEntityID,
		PrincipalIPAddress:    principalIP,
	})

	matchingService, err := c.svc.MatchingServices.MatchingService(c.state.MatchingServiceEntityID)
	if err != nil {
		return nil, err
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
		LevelOfAssurance:              c.state.LevelOfAssurance,
		PersistentID:                  c.state.PersistentID,
		AssertionExpiry:               c.svc.Assertions.Expiry(),
		EncryptedIdentityAssertion:    c.state.EncryptedIdentityAssertion,
		Cycle3Dataset:                 &data,
	}
	if err := c.svc.Dispatcher.Send(ctx, c.state.SessionID, query); err != nil {
		return nil, err
	}

	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventMatchRequestSent,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
		CountryEntityID:       c.state.CountryEntityID,
	})

	return domain.EidasCycle3MatchRequestSentState{
		MatchRequestContext: domain.MatchRequestContext{
			SessionContext:                 c.state.SessionContext,
			IdentityProviderEntityID:       c.state.CountryEntityID,
			RelayState:                     c.state.RelayState,
			IdpLevelOfAssurance:            c.state.LevelOfAssurance,
			MatchingServiceAdapterEntityID: c.state.MatchingServiceEntityID,
			RequestSentTime:                now,
			Registering:                    true,
		},
		EncryptedIdentityAssertion: c.state.EncryptedIdentityAssertion,
		PersistentID:               c.state.PersistentID,
	}, nil
}

func (c *eidasAwaitingCycle3DataController) HandleCycle3DataCancelled(ctx context.Context) (domain.State, error) {
	c.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventCycle3Cancelled,
		SessionID:             c.state.SessionID,
		RequestID:             c.state.RequestID,
		RequestIssuerEntityID: c.state.RequestIssuerEntityID,
		SessionExpiry:         c.state.SessionExpiry,
	})
	return domain.Cycle3DataInputCancelledState{
		SessionContext: c.state.SessionContext,
		RelayState:     c.state.RelayState,
	}, nil
}

func cycle3AttributeRequestData(svc *Services, transactionEntityID string) (domain.Cycle3AttributeRequestData, error) {
	process, err := svc.Transactions.MatchingProcess(transactionEntityID)
	if err != nil {
		return domain.Cycle3AttributeRequestData{}, err
	}
	if !process.HasCycle3Attribute() {
		return domain.Cycle3AttributeRequestData{}, domain.StateProcessingError{
			Reason:  domain.ReasonNoCycle3AttributeConfigured,
			Message: "transaction " + transactionEntityID + " has no cycle 3 attribute configured",
		}
	}
	return domain.Cycle3AttributeRequestData{
		AttributeName:         process.AttributeName,
		RequestIssuerEntityID: transactionEntityID,
	}, nil
}
