package controller

import (
	"context"

	"github.com/identity-federation/hub/internal/policy/domain"
)

// matchRequestSentBase carries the behaviour shared by every state awaiting
// a matching-service response: the poll with its per-request timeout,
// response validation, and the transport-failure transition. Handlers not
// shadowed by a concrete controller reject the operation.
type matchRequestSentBase struct {
	errorResponder
	match domain.MatchRequestContext
	state domain.State
	svc   *Services
}

func newMatchRequestSentBase(state domain.MatchRequestSentState, svc *Services) matchRequestSentBase {
	match := state.MatchRequest()
	return matchRequestSentBase{
		errorResponder: errorResponder{svc: svc, sessionCtx: match.SessionContext, relayState: match.RelayState, kind: errNoAuthnContext},
		match:          match,
		state:          state,
		svc:            svc,
	}
}

func (b *matchRequestSentBase) CurrentState() domain.State { return b.state }

// ResponseProcessingDetails answers the frontend's poll. Once the wait
// period since the request was dispatched has elapsed the session moves to
// the matching-service error state; this is the only transition triggered
// by a read.
func (b *matchRequestSentBase) ResponseProcessingDetails(ctx context.Context) (domain.State, domain.ResponseProcessingDetails, error) {
	details := domain.ResponseProcessingDetails{
		SessionID:           b.match.SessionID,
		Status:              domain.StatusWait,
		TransactionEntityID: b.match.RequestIssuerEntityID,
	}
	if b.svc.Clock.Now().After(b.match.RequestSentTime.Add(b.svc.MatchWaitPeriod)) {
		b.svc.Events.LogEvent(ctx, domain.HubEvent{
			Type:                  domain.EventMatchingServiceTimeout,
			SessionID:             b.match.SessionID,
			RequestID:             b.match.RequestID,
			RequestIssuerEntityID: b.match.RequestIssuerEntityID,
			SessionExpiry:         b.match.SessionExpiry,
			IdpEntityID:           b.match.IdentityProviderEntityID,
		})
		details.Status = domain.StatusShowMatchingErrorPage
		return b.matchingServiceRequestErrorState(), details, nil
	}
	return nil, details, nil
}

func (b *matchRequestSentBase) HandleRequestFailure(ctx context.Context) (domain.State, error) {
	b.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventMatchingServiceTimeout,
		SessionID:             b.match.SessionID,
		RequestID:             b.match.RequestID,
		RequestIssuerEntityID: b.match.RequestIssuerEntityID,
		SessionExpiry:         b.match.SessionExpiry,
		IdpEntityID:           b.match.IdentityProviderEntityID,
	})
	return b.matchingServiceRequestErrorState(), nil
}

func (b *matchRequestSentBase) HandleMatchResponse(ctx context.Context, resp domain.MatchFromMatchingService) (domain.State, error) {
	return nil, b.unsupportedResponse("match")
}

func (b *matchRequestSentBase) HandleNoMatchResponse(ctx context.Context, resp domain.NoMatchFromMatchingService) (domain.State, error) {
	return nil, b.unsupportedResponse("no-match")
}

func (b *matchRequestSentBase) HandleUserAccountCreatedResponse(ctx context.Context, resp domain.UserAccountCreatedFromMatchingService) (domain.State, error) {
	return nil, b.unsupportedResponse("user-account-created")
}

func (b *matchRequestSentBase) unsupportedResponse(kind string) error {
	return domain.InvalidSessionStateError{
		SessionID: b.match.SessionID,
		Expected:  "a state accepting a " + kind + " response",
		Actual:    b.state.Kind(),
	}
}

// validateResponse rejects responses from the wrong issuer or answering the
// wrong request before any transition happens.
func (b *matchRequestSentBase) validateResponse(resp domain.MatchingServiceResponse) error {
	if resp.ResponseIssuer() != b.match.MatchingServiceAdapterEntityID {
		return domain.WrongResponseIssuer(b.match.RequestID, resp.ResponseIssuer(), b.match.MatchingServiceAdapterEntityID)
	}
	if resp.ResponseInResponseTo() != b.match.RequestID {
		return domain.WrongInResponseTo(b.match.RequestID, resp.ResponseInResponseTo())
	}
	return nil
}

func (b *matchRequestSentBase) validateAssuranceSymmetry(got domain.LevelOfAssurance) error {
	if got != b.match.IdpLevelOfAssurance {
		return domain.WrongLevelOfAssurance(got, []domain.LevelOfAssurance{b.match.IdpLevelOfAssurance})
	}
	return nil
}

func (b *matchRequestSentBase) matchingServiceRequestErrorState() domain.MatchingServiceRequestErrorState {
	return domain.MatchingServiceRequestErrorState{
		SessionContext:           b.match.SessionContext,
		IdentityProviderEntityID: b.match.IdentityProviderEntityID,
		RelayState:               b.match.RelayState,
	}
}

// dispatchUserAccountCreation sends the account-creation attribute query and
// returns the refreshed match-request context for the next state.
func (b *matchRequestSentBase) dispatchUserAccountCreation(ctx context.Context, attrs []string, mdsAssertion, authnAssertion, identityAssertion, persistentID string) (domain.MatchRequestContext, error) {
	var zero domain.MatchRequestContext

	matchingService, err := b.svc.MatchingServices.MatchingService(b.match.MatchingServiceAdapterEntityID)
	if err != nil {
		return zero, err
	}

	now := b.svc.Clock.Now()
	query := domain.AttributeQueryRequest{
		RequestID:                         b.match.RequestID,
		TransactionEntityID:               b.match.RequestIssuerEntityID,
		AssertionConsumerServiceURL:       b.match.AssertionConsumerServiceURL,
		MatchingServiceEntityID:           matchingService.EntityID,
		MatchingServiceURI:                matchingService.UserAccountCreationURI,
		MatchingServiceRequestTimeout:     now.Add(b.svc.MatchWaitPeriod),
		Onboarding:                        matchingService.Onboarding,
		LevelOfAssurance:                  b.match.IdpLevelOfAssurance,
		PersistentID:                      persistentID,
		AssertionExpiry:                   b.svc.Assertions.Expiry(),
		EncryptedMatchingDatasetAssertion: mdsAssertion,
		AuthnStatementAssertion:           authnAssertion,
		EncryptedIdentityAssertion:        identityAssertion,
		UserAccountCreationAttributes:     attrs,
	}
	if err := b.svc.Dispatcher.Send(ctx, b.match.SessionID, query); err != nil {
		return zero, err
	}

	b.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  domain.EventMatchRequestSent,
		SessionID:             b.match.SessionID,
		RequestID:             b.match.RequestID,
		RequestIssuerEntityID: b.match.RequestIssuerEntityID,
		SessionExpiry:         b.match.SessionExpiry,
		IdpEntityID:           b.match.IdentityProviderEntityID,
	})

	next := b.match
	next.RequestSentTime = now
	return next, nil
}

func (b *matchRequestSentBase) logMatchOutcome(ctx context.Context, eventType domain.HubEventType) {
	b.svc.Events.LogEvent(ctx, domain.HubEvent{
		Type:                  eventType,
		SessionID:             b.match.SessionID,
		RequestID:             b.match.RequestID,
		RequestIssuerEntityID: b.match.RequestIssuerEntityID,
		SessionExpiry:         b.match.SessionExpiry,
		IdpEntityID:           b.match.IdentityProviderEntityID,
	})
}
